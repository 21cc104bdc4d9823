// Package shell is the command-execution core of termexec.
//
// A Session takes one line of shell-like input, classifies it and runs it
// against the operating system:
//
//   - blank input yields an empty result
//   - "cd [dir]" changes the session's working directory
//   - full-screen programs (vim, less, top, ...) yield a TUI request; the
//     caller runs them through StartPty and drains the PtySession output
//   - anything else is handed to the system interpreter ("sh -c"), with an
//     optional trailing "> file" or ">> file" redirect of stdout
//
// # Usage
//
//	sess := shell.NewSession(shell.Options{})
//
//	res := sess.Execute(ctx, "echo hello > out.txt")
//	switch res.Kind {
//	case shell.KindSuccess:
//	    fmt.Print(res.Output)
//	case shell.KindTuiRequired:
//	    pty, err := sess.StartPty(ctx, res.Command, shell.PtyOptions{})
//	    if err != nil {
//	        return err
//	    }
//	    for chunk := range pty.Output() {
//	        fmt.Print(chunk)
//	    }
//	}
//
// # Working directory
//
// The working directory is session state, not process state. Every external
// command, redirect target and completion is resolved against it; os.Chdir
// is never called.
//
// # Thread Safety
//
// Session is safe for concurrent use. Callers that care about ordering
// (a terminal prompt does) should still serialize Execute calls per session.
package shell
