package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"termexec/internal/shell"

	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive terminal session on the local machine",
	Long: `Reads lines from stdin and runs them in one local terminal session,
showing the user @ dir prompt between lines. clear/cls wipes the screen and
exit ends the session.`,
	Args: cobra.NoArgs,
	RunE: runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) error {
	appCfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts := appCfg.ShellCfg.ShellOptions()
	sess := shell.NewSession(opts)
	defer sess.Close()

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	in := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, sess.Prompt())
		if !in.Scan() {
			fmt.Fprintln(out)
			return in.Err()
		}
		line := in.Text()
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "exit":
			return nil
		case "clear", "cls":
			fmt.Fprint(out, "\033[H\033[2J")
			continue
		}

		// Interrupt cancels the running line, not the session.
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		res := sess.Execute(ctx, line)
		if res.Kind == shell.KindTuiRequired {
			if code, err := attachPty(ctx, sess, res.Command, opts.Pty); err != nil {
				fmt.Fprintf(errOut, "%s: %v\n", shell.Category(err), err)
			} else if code != 0 {
				fmt.Fprintf(errOut, "[exit %d]\n", code)
			}
		} else {
			printResult(out, errOut, res)
		}
		cancel()
	}
}
