//go:build windows

package main

import (
	"os"

	"termexec/internal/shell"
)

// forwardStdin copies keystrokes to p until it exits or stdin ends.
func forwardStdin(p *shell.PtySession) {
	buf := make([]byte, 1024)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			if _, werr := p.Write(buf[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}
