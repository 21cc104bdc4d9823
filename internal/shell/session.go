package shell

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Default PTY settings.
const (
	DefaultInterpreter   = "sh"
	DefaultPollInterval  = 100 * time.Millisecond
	DefaultReadChunk     = 4096
	DefaultTerminateWait = 2 * time.Second
	DefaultRows          = 24
	DefaultCols          = 80
)

// Options configures a Session.
type Options struct {
	// Interpreter runs external commands as "<Interpreter> -c <command>".
	Interpreter string

	// Dir is the starting working directory. Defaults to the process cwd.
	Dir string

	// Home is the target of a bare "cd". Defaults to os.UserHomeDir.
	Home string

	// Env is the environment for child processes. Nil inherits os.Environ.
	Env []string

	// Pty holds defaults for StartPty.
	Pty PtyOptions

	Logger *slog.Logger
}

// Session is the per-terminal execution state: working directory and the
// single PTY slot.
type Session struct {
	mu   sync.RWMutex
	dir  string
	home string

	interpreter string
	env         []string
	ptyDefaults PtyOptions
	logger      *slog.Logger

	ptyMu  sync.Mutex
	active *PtySession
}

// NewSession creates a session from opts.
func NewSession(opts Options) *Session {
	if opts.Interpreter == "" {
		opts.Interpreter = DefaultInterpreter
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Home == "" {
		if h, err := os.UserHomeDir(); err == nil {
			opts.Home = h
		} else {
			opts.Home = string(filepath.Separator)
		}
	}
	if opts.Dir == "" {
		if wd, err := os.Getwd(); err == nil {
			opts.Dir = wd
		} else {
			opts.Dir = opts.Home
		}
	}
	return &Session{
		dir:         canonicalDir(opts.Dir),
		home:        canonicalDir(opts.Home),
		interpreter: opts.Interpreter,
		env:         opts.Env,
		ptyDefaults: opts.Pty.withDefaults(),
		logger:      opts.Logger,
	}
}

// canonicalDir makes p absolute and resolves its symlinks when it exists, so
// it compares equal to the paths ChangeDirectory produces.
func canonicalDir(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	return filepath.Clean(p)
}

// Dir returns the current working directory of the session.
func (s *Session) Dir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dir
}

// Home returns the session's home directory.
func (s *Session) Home() string {
	return s.home
}

// resolve makes p absolute against the session directory.
func (s *Session) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(s.Dir(), p)
}

// Execute classifies line and runs it. TUI commands are not started; the
// result tells the caller to use StartPty.
func (s *Session) Execute(ctx context.Context, line string) Result {
	in, err := Classify(line)
	if err != nil {
		return ErrorResult(err)
	}

	switch in.Kind {
	case IntentEmpty:
		return EmptyResult()
	case IntentChangeDir:
		path, err := s.ChangeDirectory(in.Dir)
		if err != nil {
			return ErrorResult(err)
		}
		return DirectoryChangedResult(path)
	case IntentTui:
		return TuiRequiredResult(in.Name, in.Command)
	default:
		return s.RunExternal(ctx, in.Command, in.Redirect)
	}
}

// StartPty runs command in a pseudo-terminal owned by this session. Only one
// PTY may run per session; a second call returns ErrPtyBusy until the first
// has been reaped.
func (s *Session) StartPty(ctx context.Context, command string, opts PtyOptions) (*PtySession, error) {
	s.ptyMu.Lock()
	defer s.ptyMu.Unlock()

	if s.active != nil {
		select {
		case <-s.active.Done():
		default:
			return nil, ErrPtyBusy
		}
	}

	opts = opts.merge(s.ptyDefaults)
	if opts.Dir == "" {
		opts.Dir = s.Dir()
	}
	if opts.Env == nil {
		opts.Env = s.env
	}
	if opts.Logger == nil {
		opts.Logger = s.logger
	}

	p, err := StartPty(ctx, command, opts)
	if err != nil {
		return nil, err
	}
	s.active = p
	return p, nil
}

// ActivePty returns the running PTY session, or nil.
func (s *Session) ActivePty() *PtySession {
	s.ptyMu.Lock()
	defer s.ptyMu.Unlock()
	if s.active == nil {
		return nil
	}
	select {
	case <-s.active.Done():
		return nil
	default:
		return s.active
	}
}

// Close terminates any running PTY and waits for it to be reaped.
func (s *Session) Close() error {
	p := s.ActivePty()
	if p == nil {
		return nil
	}
	p.Terminate()
	_, err := p.Wait()
	return err
}
