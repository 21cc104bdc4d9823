package main

import (
	"errors"
	"fmt"
	"os"

	"termexec/internal/platform"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "termexec",
	Short: "Terminal command execution engine",
	Long: `termexec runs terminal lines for interactive sessions: cd is handled
in-process, other lines run through the configured interpreter with optional
> / >> redirection, and full-screen programs get a pseudo-terminal.

Configuration comes from defaults, .env, the TOML file named by
TERMEXEC_CONFIG and TERMEXEC_* environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitError carries a process exit status out of a RunE.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func loadConfig() (*platform.AppConfig, error) {
	cfg, err := platform.LoadAppConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	platform.InitLogger(cfg.LogCfg.SlogLevel())
	return cfg, nil
}

// exitCode maps a RunE error to the process status.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return 1
}
