package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"termexec/internal/messages"
	"termexec/internal/shell"
)

// HelpCommand lists engine commands and the shell features.
// Usage: help [command]
type HelpCommand struct{ engine *TerminalEngine }

func (c *HelpCommand) Name() string { return "help" }
func (c *HelpCommand) Help() string { return "help [command] - show this help" }
func (c *HelpCommand) Execute(ctx context.Context, w *sessionWorker, args []string) CommandResult {
	topic := ""
	if len(args) > 1 {
		topic = strings.ToLower(args[1])
	}
	return CommandResult{Kind: messages.KindHelp, Output: c.engine.helpText(topic)}
}

// ClearCommand asks the UI to wipe the scrollback.
// Usage: clear | cls
type ClearCommand struct {
	engine *TerminalEngine
	name   string
}

func (c *ClearCommand) Name() string { return c.name }
func (c *ClearCommand) Help() string { return c.name + " - clear the screen" }
func (c *ClearCommand) Execute(ctx context.Context, w *sessionWorker, args []string) CommandResult {
	return CommandResult{Kind: messages.KindClear}
}

// ExitCommand ends the terminal session: any PTY job is terminated, the
// persisted state is removed and the worker stops after this line.
// Usage: exit
type ExitCommand struct{ engine *TerminalEngine }

func (c *ExitCommand) Name() string { return "exit" }
func (c *ExitCommand) Help() string { return "exit - end this terminal session" }
func (c *ExitCommand) Execute(ctx context.Context, w *sessionWorker, args []string) CommandResult {
	if err := w.sess.Close(); err != nil {
		w.logger.Warn("terminal: close session", "err", err)
	}
	if err := c.engine.store.Delete(ctx, w.id); err != nil {
		slog.Warn("terminal: delete session state", "sid", w.id, "err", err)
	}
	return CommandResult{Kind: messages.KindExit, Output: "session closed"}
}

// helpText returns the markdown help for topic; empty topic is the overview.
func (te *TerminalEngine) helpText(topic string) string {
	if topic != "" {
		if cmd, ok := te.commands[topic]; ok {
			return "`" + cmd.Help() + "`"
		}
		if shell.IsTuiApp(topic) {
			return fmt.Sprintf("`%s` is a full-screen application. It runs in a pseudo-terminal; "+
				"keystrokes are forwarded until it exits. Send a cancel to terminate it.", topic)
		}
		if topic == "cd" {
			return "`cd [dir]` - change the working directory. No argument or `~` goes home."
		}
		return fmt.Sprintf("no help available for %s", topic)
	}

	names := make([]string, 0, len(te.commands))
	for n := range te.commands {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("## Terminal\n\n")
	b.WriteString("Lines run through `" + te.cfg.Shell.Interpreter + " -c` in the session directory.\n\n")
	b.WriteString("```sh\ncd src\nls -la > listing.txt\necho done >> listing.txt\n```\n\n")
	b.WriteString("Only one trailing `>` or `>>` is recognised; pipes and globbing are left to the interpreter.\n\n")
	b.WriteString("Full-screen programs: " + strings.Join(shell.TuiApps, ", ") + "\n\n")
	b.WriteString("### Commands\n\n")
	for _, n := range names {
		b.WriteString("- `" + te.commands[n].Help() + "`\n")
	}
	return b.String()
}
