//go:build !windows

package main

import (
	"errors"
	"os"

	"termexec/internal/shell"

	"golang.org/x/sys/unix"
)

// forwardStdin copies keystrokes to p until it exits. Stdin is polled rather
// than read blindly so nothing is consumed after the job ends.
func forwardStdin(p *shell.PtySession) {
	fd := int(os.Stdin.Fd())
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	buf := make([]byte, 1024)
	for {
		select {
		case <-p.Done():
			return
		default:
		}
		fds[0].Revents = 0
		ready, err := unix.Poll(fds, 50)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return
		}
		if ready == 0 {
			continue
		}
		n, err := unix.Read(fd, buf)
		if n > 0 {
			if _, werr := p.Write(buf[:n]); werr != nil {
				return
			}
		}
		if err != nil && !errors.Is(err, unix.EINTR) && !errors.Is(err, unix.EAGAIN) {
			return
		}
		if err == nil && n == 0 {
			return
		}
	}
}
