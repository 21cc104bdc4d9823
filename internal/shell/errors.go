package shell

import "errors"

// Sentinel errors for the shell package.
var (
	// ErrMissingRedirectTarget is returned when ">" or ">>" is the last token.
	ErrMissingRedirectTarget = errors.New("missing filename for redirection")

	// ErrDirectoryNotFound is returned when cd targets a path that does not exist.
	ErrDirectoryNotFound = errors.New("directory not found")

	// ErrDirectoryChangeFailed is returned for any other cd failure.
	ErrDirectoryChangeFailed = errors.New("cannot change directory")

	// ErrCommandNotFound is returned when the program cannot be located.
	ErrCommandNotFound = errors.New("command not found")

	// ErrSpawn is returned when a process cannot be started.
	ErrSpawn = errors.New("cannot start process")

	// ErrRedirectWrite is returned when redirected output cannot be written.
	ErrRedirectWrite = errors.New("file write error")

	// ErrPlatformUnsupported is returned when the host has no pseudo-terminals.
	ErrPlatformUnsupported = errors.New("PTY is not available on this platform")

	// ErrPtyBusy is returned when a session already has a running PTY.
	ErrPtyBusy = errors.New("a full-screen application is already running")

	// ErrPtyClosed is returned when writing to a PTY whose child has exited.
	ErrPtyClosed = errors.New("pty session is closed")
)

// ErrorCategory groups errors for metrics and logs.
type ErrorCategory string

const (
	CategoryNone           ErrorCategory = ""
	CategoryClassification ErrorCategory = "classification"
	CategoryBuiltin        ErrorCategory = "builtin"
	CategorySpawn          ErrorCategory = "spawn"
	CategoryIO             ErrorCategory = "io"
	CategoryPlatform       ErrorCategory = "platform"
	CategoryBusy           ErrorCategory = "busy"
	CategoryUnknown        ErrorCategory = "unknown"
)

// Category reports which failure class err belongs to.
func Category(err error) ErrorCategory {
	switch {
	case err == nil:
		return CategoryNone
	case errors.Is(err, ErrMissingRedirectTarget):
		return CategoryClassification
	case errors.Is(err, ErrDirectoryNotFound), errors.Is(err, ErrDirectoryChangeFailed):
		return CategoryBuiltin
	case errors.Is(err, ErrCommandNotFound), errors.Is(err, ErrSpawn):
		return CategorySpawn
	case errors.Is(err, ErrRedirectWrite):
		return CategoryIO
	case errors.Is(err, ErrPlatformUnsupported):
		return CategoryPlatform
	case errors.Is(err, ErrPtyBusy), errors.Is(err, ErrPtyClosed):
		return CategoryBusy
	default:
		return CategoryUnknown
	}
}
