package shell

// Kind identifies which variant a Result holds.
type Kind string

const (
	KindEmpty            Kind = "empty"
	KindSuccess          Kind = "success"
	KindDirectoryChanged Kind = "directory_changed"
	KindError            Kind = "error"
	KindTuiRequired      Kind = "tui_required"
)

// Result is the outcome of executing one input line.
// Only the fields belonging to Kind are set.
type Result struct {
	Kind Kind `json:"kind"`

	// success
	Output   string `json:"output,omitempty"`
	Error    string `json:"error,omitempty"`
	ExitCode int    `json:"exit_code"`

	// directory_changed
	Path string `json:"path,omitempty"`

	// error
	Message string `json:"message,omitempty"`
	Err     error  `json:"-"`

	// tui_required
	Reason  string `json:"reason,omitempty"`
	Command string `json:"command,omitempty"`
}

// EmptyResult is returned for blank input.
func EmptyResult() Result {
	return Result{Kind: KindEmpty}
}

// SuccessResult is returned when an external command ran to completion.
// A non-empty stderr or a non-zero exit code does not make it a failure.
func SuccessResult(output, stderr string, exitCode int) Result {
	return Result{Kind: KindSuccess, Output: output, Error: stderr, ExitCode: exitCode}
}

// DirectoryChangedResult is returned after a successful cd.
func DirectoryChangedResult(path string) Result {
	return Result{Kind: KindDirectoryChanged, Path: path}
}

// ErrorResult converts err into an error result.
func ErrorResult(err error) Result {
	return Result{Kind: KindError, Message: err.Error(), Err: err}
}

// TuiRequiredResult tells the caller to run command through the PTY backend.
func TuiRequiredResult(name, command string) Result {
	return Result{
		Kind:    KindTuiRequired,
		Reason:  "'" + name + "' is a full-screen terminal application and needs a PTY",
		Command: command,
	}
}

// Failed reports whether r is an error result.
func (r Result) Failed() bool { return r.Kind == KindError }
