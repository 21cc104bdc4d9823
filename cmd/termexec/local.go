package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"termexec/internal/shell"

	"golang.org/x/term"
)

// printResult writes a shell result the way a terminal would show it and
// returns the status to report for it.
func printResult(stdout, stderr io.Writer, res shell.Result) int {
	switch res.Kind {
	case shell.KindSuccess:
		io.WriteString(stdout, res.Output)
		io.WriteString(stderr, res.Error)
		return res.ExitCode
	case shell.KindDirectoryChanged:
		fmt.Fprintln(stdout, res.Path)
	case shell.KindError:
		fmt.Fprintf(stderr, "%s: %s\n", shell.Category(res.Err), res.Message)
		return 1
	}
	return 0
}

// attachPty runs command in a pseudo-terminal sized like the caller's,
// forwarding stdin keystrokes while the caller's terminal is in raw mode.
func attachPty(ctx context.Context, sess *shell.Session, command string, opts shell.PtyOptions) (int, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		if cols, rows, err := term.GetSize(fd); err == nil {
			opts.Rows, opts.Cols = uint16(rows), uint16(cols)
		}
	}

	p, err := sess.StartPty(ctx, command, opts)
	if err != nil {
		return 1, err
	}

	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			p.Terminate()
			return 1, fmt.Errorf("raw mode: %w", err)
		}
		defer term.Restore(fd, state)
	}

	go forwardStdin(p)

	for chunk := range p.Output() {
		io.WriteString(os.Stdout, chunk)
	}
	return p.Wait()
}
