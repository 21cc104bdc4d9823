package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"termexec/internal/platform"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"
)

var serveHeadless bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the embedded broker, the terminal engine and the web UI",
	Long: `Starts an embedded NATS server with JetStream, the terminal engine
consuming terminal.session.*.* and, unless headless, the HTTP server with the
browser terminal at / and Prometheus metrics at /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveHeadless, "headless", false, "Do not start the HTTP server")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	appCfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveHeadless {
		appCfg.Flags.Headless = true
	}
	platform.InitMetrics()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// --- Run embedded NATS server ---
	nc, ns, natErrCh, err := platform.RunEmbeddedServer(ctx, *appCfg.NatsCfg)
	if err != nil {
		return fmt.Errorf("starting embedded server: %w", err)
	}
	defer ns.Shutdown()
	defer nc.Close()

	var httpErrCh <-chan error // stays nil when headless
	if !appCfg.Flags.Headless {
		js, err := jetstream.New(nc)
		if err != nil {
			return fmt.Errorf("jetstream context: %w", err)
		}
		httpErrCh = platform.RunHTTPServer(ctx, js, *appCfg.HTTPSrvCfg, appCfg.ShellCfg.ShellOptions())
	}

	go func() {
		select {
		case err := <-natErrCh:
			slog.Error("Embedded server error", "err", err)
			cancel()
		case err := <-httpErrCh:
			slog.Error("HTTP server error", "err", err)
			cancel()
		case <-ctx.Done():
		}
	}()

	return platform.Run(ctx, nc, appCfg.EngineConfig())
}
