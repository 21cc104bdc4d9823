package main

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"termexec/internal/shell"

	"github.com/spf13/cobra"
)

var execDir string

var execCmd = &cobra.Command{
	Use:   "exec <line...>",
	Short: "Run one terminal line locally",
	Long: `Runs a single line through a local terminal session, exactly as the
engine would, and prints the result. Full-screen programs (vim, less, top...)
attach to the current terminal.

Examples:
  termexec exec ls -la
  termexec exec 'echo hi > out.txt'
  termexec exec --dir /tmp less notes.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func init() {
	execCmd.Flags().StringVarP(&execDir, "dir", "C", "", "Working directory for the line")
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	appCfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts := appCfg.ShellCfg.ShellOptions()
	if execDir != "" {
		opts.Dir = execDir
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	sess := shell.NewSession(opts)
	defer sess.Close()

	res := sess.Execute(ctx, strings.Join(args, " "))
	if res.Kind == shell.KindTuiRequired {
		code, err := attachPty(ctx, sess, res.Command, opts.Pty)
		if err != nil {
			return err
		}
		return statusError(code)
	}
	return statusError(printResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), res))
}

func statusError(code int) error {
	if code == 0 {
		return nil
	}
	return &exitError{code: code}
}
