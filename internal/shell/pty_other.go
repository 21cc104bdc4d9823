//go:build windows

package shell

import (
	"context"
	"os"
)

// startPty fails fast: there are no POSIX pseudo-terminals here.
func startPty(command string, opts PtyOptions) (*PtySession, error) {
	return nil, ErrPlatformUnsupported
}

func (p *PtySession) readLoop(ctx context.Context) {
	p.finish(ctx, &chunkDecoder{})
}

func (p *PtySession) signalTerm() error {
	return p.cmd.Process.Signal(os.Kill)
}

// Resize is unsupported on this platform.
func (p *PtySession) Resize(rows, cols uint16) error {
	return ErrPlatformUnsupported
}
