package runtime

import (
	"context"
)

// CommandResult defines what the terminal should display after execution.
type CommandResult struct {
	// Kind is the result kind published to the UI (help, clear, exit).
	Kind string
	// Output is the body; markdown for help.
	Output string
}

// TerminalCommand is the interface for commands handled by the engine itself
// rather than the shell.
type TerminalCommand interface {
	// Name returns the command name, e.g. "help".
	Name() string
	// Help returns the one-line help text for the command.
	Help() string
	// Execute runs the command for the given session worker with the
	// whitespace-split input line.
	Execute(ctx context.Context, w *sessionWorker, args []string) CommandResult
}
