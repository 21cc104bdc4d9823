package shell

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// PtyOptions configures a pseudo-terminal session.
type PtyOptions struct {
	Rows uint16
	Cols uint16

	// Dir is the child's working directory.
	Dir string

	// Env is the child's environment. Nil inherits os.Environ. TERM is set
	// to xterm-256color when absent.
	Env []string

	// PollInterval bounds each wait for the master to become readable.
	PollInterval time.Duration

	// ReadChunk is the maximum number of bytes read per chunk.
	ReadChunk int

	// TerminateWait is how long Terminate waits after SIGTERM before SIGKILL.
	TerminateWait time.Duration

	Logger *slog.Logger
}

func (o PtyOptions) withDefaults() PtyOptions {
	if o.Rows == 0 {
		o.Rows = DefaultRows
	}
	if o.Cols == 0 {
		o.Cols = DefaultCols
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.ReadChunk <= 0 {
		o.ReadChunk = DefaultReadChunk
	}
	if o.TerminateWait <= 0 {
		o.TerminateWait = DefaultTerminateWait
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// merge fills zero fields of o from base.
func (o PtyOptions) merge(base PtyOptions) PtyOptions {
	if o.Rows == 0 {
		o.Rows = base.Rows
	}
	if o.Cols == 0 {
		o.Cols = base.Cols
	}
	if o.PollInterval <= 0 {
		o.PollInterval = base.PollInterval
	}
	if o.ReadChunk <= 0 {
		o.ReadChunk = base.ReadChunk
	}
	if o.TerminateWait <= 0 {
		o.TerminateWait = base.TerminateWait
	}
	if o.Dir == "" {
		o.Dir = base.Dir
	}
	if o.Env == nil {
		o.Env = base.Env
	}
	if o.Logger == nil {
		o.Logger = base.Logger
	}
	return o
}

// PtyState is the lifecycle state of a PtySession.
type PtyState int32

const (
	PtyRunning PtyState = iota
	PtyCompleted
)

// String returns a human-readable state name.
func (s PtyState) String() string {
	if s == PtyRunning {
		return "running"
	}
	return "completed"
}

// PtySession is a child process attached to a pseudo-terminal. Output is
// delivered in order on Output(); the channel is closed exactly once, after
// the child has been reaped.
type PtySession struct {
	// ID identifies the session for callers; set by the owner.
	ID string

	// Command is the original command line.
	Command string

	cmd    *exec.Cmd
	master *os.File
	opts   PtyOptions
	logger *slog.Logger

	output chan string
	done   chan struct{}

	state    atomic.Int32
	exitCode int
	waitErr  error
	bytesIn  atomic.Int64

	termOnce sync.Once
	killer   *time.Timer
	mu       sync.Mutex
}

// StartPty starts command in a new pseudo-terminal. The command is split on
// whitespace and executed directly, not through the interpreter.
//
// Failures before the child runs return ErrCommandNotFound, ErrSpawn or
// ErrPlatformUnsupported; no output is streamed in that case.
func StartPty(ctx context.Context, command string, opts PtyOptions) (*PtySession, error) {
	opts = opts.withDefaults()
	p, err := startPty(command, opts)
	if err != nil {
		opts.Logger.Warn("shell: pty start failed", "cmd", command, "err", err)
		return nil, err
	}
	opts.Logger.Info("shell: pty started", "cmd", command, "pid", p.PID())
	go p.readLoop(ctx)
	return p, nil
}

func newPtySession(command string, cmd *exec.Cmd, master *os.File, opts PtyOptions) *PtySession {
	return &PtySession{
		Command: command,
		cmd:     cmd,
		master:  master,
		opts:    opts,
		logger:  opts.Logger,
		output:  make(chan string, 64),
		done:    make(chan struct{}),
	}
}

// PID returns the child process id.
func (p *PtySession) PID() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Output returns the ordered stream of decoded output chunks. Callers must
// drain it until it is closed.
func (p *PtySession) Output() <-chan string { return p.output }

// Done is closed after the child has been reaped.
func (p *PtySession) Done() <-chan struct{} { return p.done }

// State reports whether the session is still running.
func (p *PtySession) State() PtyState { return PtyState(p.state.Load()) }

// BytesRead returns the number of raw bytes read from the master so far.
func (p *PtySession) BytesRead() int64 { return p.bytesIn.Load() }

// Wait blocks until the child has been reaped and returns its exit code.
// A child killed by a signal reports -1.
func (p *PtySession) Wait() (int, error) {
	<-p.done
	return p.exitCode, p.waitErr
}

// Write forwards input (keystrokes) to the child.
func (p *PtySession) Write(b []byte) (int, error) {
	select {
	case <-p.done:
		return 0, ErrPtyClosed
	default:
	}
	return p.master.Write(b)
}

// Terminate asks the child to exit: SIGTERM now, SIGKILL after
// TerminateWait if it is still running. The read loop then drains to EOF
// and reaps the child as usual. Safe to call more than once.
func (p *PtySession) Terminate() {
	p.termOnce.Do(func() {
		if p.State() != PtyRunning || p.cmd.Process == nil {
			return
		}
		p.logger.Info("shell: terminating pty child", "pid", p.PID(), "cmd", p.Command)
		if err := p.signalTerm(); err != nil {
			p.logger.Debug("shell: sigterm failed", "pid", p.PID(), "err", err)
		}
		p.mu.Lock()
		p.killer = time.AfterFunc(p.opts.TerminateWait, func() {
			if p.State() == PtyRunning {
				p.logger.Warn("shell: pty child ignored SIGTERM, killing", "pid", p.PID())
				_ = p.cmd.Process.Kill()
			}
		})
		p.mu.Unlock()
	})
}

// emit delivers a chunk unless the caller's context is gone.
func (p *PtySession) emit(ctx context.Context, s string) {
	if s == "" {
		return
	}
	select {
	case p.output <- s:
	case <-ctx.Done():
	}
}

// finish reaps the child and signals completion exactly once.
func (p *PtySession) finish(ctx context.Context, dec *chunkDecoder) {
	p.emit(ctx, dec.flush())
	_ = p.master.Close()

	err := p.cmd.Wait()
	p.exitCode = 0
	if err != nil {
		if p.cmd.ProcessState != nil {
			p.exitCode = p.cmd.ProcessState.ExitCode()
		} else {
			p.exitCode = -1
			p.waitErr = err
		}
	}
	p.state.Store(int32(PtyCompleted))

	p.mu.Lock()
	if p.killer != nil {
		p.killer.Stop()
	}
	p.mu.Unlock()

	p.logger.Info("shell: pty completed", "pid", p.PID(), "cmd", p.Command, "exit", p.exitCode, "bytes", p.BytesRead())
	close(p.output)
	close(p.done)
}

// ptyEnv returns env with TERM defaulted.
func ptyEnv(env []string) []string {
	if env == nil {
		env = os.Environ()
	}
	for _, kv := range env {
		if strings.HasPrefix(kv, "TERM=") {
			return env
		}
	}
	return append(append([]string(nil), env...), "TERM=xterm-256color")
}
