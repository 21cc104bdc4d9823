package platform

import (
	"context"
	"fmt"
	"log/slog"

	"termexec/internal/runtime"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Run starts the terminal engine on nc and blocks until ctx is done and every
// session worker has stopped.
func Run(ctx context.Context, nc *nats.Conn, cfg runtime.EngineConfig) error {
	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("jetstream context: %w", err)
	}

	te := runtime.NewTerminalEngine(js, cfg)
	if err := te.Start(ctx); err != nil {
		return fmt.Errorf("start terminal engine: %w", err)
	}
	slog.Info("TerminalEngine started successfully",
		"streams", []string{runtime.TerminalStream, runtime.EventStream},
		"bucket", runtime.SessionsBucket)

	<-ctx.Done()
	slog.Info("Run: shutdown requested")
	te.Wait()
	slog.Info("Run: all terminal sessions stopped")
	return nil
}
