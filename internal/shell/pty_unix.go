//go:build !windows

package shell

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// startPty resolves the program, allocates a PTY pair and starts the child
// with the slave as its controlling terminal.
func startPty(command string, opts PtyOptions) (*PtySession, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrSpawn)
	}

	path, err := lookPath(argv[0], opts.Dir)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(path, argv[1:]...)
	cmd.Args[0] = argv[0]
	cmd.Dir = opts.Dir
	cmd.Env = ptyEnv(opts.Env)

	master, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: opts.Rows, Cols: opts.Cols})
	if err != nil {
		var pathErr *fs.PathError
		if errors.Is(err, pty.ErrUnsupported) || (errors.As(err, &pathErr) && strings.HasPrefix(pathErr.Path, "/dev/pt")) {
			return nil, fmt.Errorf("%w: %v", ErrPlatformUnsupported, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrSpawn, argv[0], err)
	}

	return newPtySession(command, cmd, master, opts), nil
}

// lookPath finds name on PATH, or relative to dir when it contains a slash.
func lookPath(name, dir string) (string, error) {
	if strings.Contains(name, "/") {
		p := name
		if !filepath.IsAbs(p) && dir != "" {
			p = filepath.Join(dir, p)
		}
		info, err := os.Stat(p)
		if err != nil || info.IsDir() || info.Mode()&0o111 == 0 {
			return "", fmt.Errorf("%w: %s", ErrCommandNotFound, name)
		}
		return p, nil
	}
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrCommandNotFound, name)
	}
	return p, nil
}

// readLoop polls the master with a short timeout so cancellation is noticed
// promptly, reads bounded chunks and ends on EOF or EIO.
func (p *PtySession) readLoop(ctx context.Context) {
	dec := &chunkDecoder{}
	defer p.finish(ctx, dec)

	fd := int(p.master.Fd())
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	timeout := int(p.opts.PollInterval / time.Millisecond)
	buf := make([]byte, p.opts.ReadChunk)

	for {
		if ctx.Err() != nil {
			p.Terminate()
		}

		fds[0].Revents = 0
		ready, err := unix.Poll(fds, timeout)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			p.logger.Warn("shell: pty poll failed", "pid", p.PID(), "err", err)
			return
		}
		if ready == 0 || fds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) == 0 {
			continue
		}

		n, err := unix.Read(fd, buf)
		if n > 0 {
			p.bytesIn.Add(int64(n))
			p.emit(ctx, dec.decode(buf[:n]))
		}
		switch {
		case err == nil && n == 0:
			return
		case err == nil:
			continue
		case errors.Is(err, unix.EINTR), errors.Is(err, unix.EAGAIN):
			continue
		case errors.Is(err, unix.EIO):
			// Linux reports a closed slave as EIO rather than EOF.
			return
		default:
			p.logger.Warn("shell: pty read failed", "pid", p.PID(), "err", err)
			return
		}
	}
}

func (p *PtySession) signalTerm() error {
	return p.cmd.Process.Signal(unix.SIGTERM)
}

// Resize changes the terminal window size seen by the child.
func (p *PtySession) Resize(rows, cols uint16) error {
	select {
	case <-p.done:
		return ErrPtyClosed
	default:
	}
	return pty.Setsize(p.master, &pty.Winsize{Rows: rows, Cols: cols})
}
