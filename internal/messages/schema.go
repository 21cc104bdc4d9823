package messages

import (
	"fmt"
	"time"
)

// =============================================================================
// CORE INTERFACES
// =============================================================================

// Message represents any message in the system
type Message interface {
	Subject() string
	Validate() error
}

// Command represents an input that requests something to happen
type Command interface {
	Message
	IsCommand()
}

// Event represents something that has happened
type Event interface {
	Message
	IsEvent()
	Timestamp() time.Time
}

// =============================================================================
// SUBJECT CONSTANTS - Single source of truth for all subjects
// =============================================================================

const (
	// Stream roots
	TerminalStreamSubjects = "terminal.>"
	EventStreamSubjects    = "event.>"

	// Terminal domain - Commands (* = session id)
	TerminalCommandSubjectPattern   = "terminal.session.*.command"
	TerminalPtyInputSubjectPattern  = "terminal.session.*.pty.input"
	TerminalPtyCancelSubjectPattern = "terminal.session.*.pty.cancel"
	TerminalCompleteSubjectPattern  = "terminal.session.*.complete"

	// Terminal domain - Events
	TerminalResultSubjectPattern      = "event.terminal.session.*.result"
	TerminalPtyStartedSubjectPattern  = "event.terminal.session.*.pty.*.started" // session id, job id
	TerminalPtyOutputSubjectPattern   = "event.terminal.session.*.pty.*.output"
	TerminalPtyExitSubjectPattern     = "event.terminal.session.*.pty.*.exit"
	TerminalCompletionsSubjectPattern = "event.terminal.session.*.completions"
	TerminalSessionEventsPattern      = "event.terminal.session.%s.>" // fmt pattern for one session
)

// Result kinds produced by the engine on top of the shell result kinds.
const (
	KindClear = "clear"
	KindExit  = "exit"
	KindHelp  = "help"
)

// =============================================================================
// TERMINAL DOMAIN - COMMANDS
// =============================================================================

// TerminalCommandMessage represents a line entered in the terminal
type TerminalCommandMessage struct {
	SessionID     string `json:"-"` // Derived from subject
	Cmd           string `json:"cmd"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func (c TerminalCommandMessage) Subject() string { return TerminalCommandSubject(c.SessionID) }
func (c TerminalCommandMessage) IsCommand()      {}
func (c TerminalCommandMessage) Validate() error {
	if err := validateSessionID(c.SessionID); err != nil {
		return err
	}
	if c.Cmd == "" {
		return fmt.Errorf("cmd is required")
	}
	return nil
}

// TerminalPtyInputCommand forwards keystrokes to the running PTY job
type TerminalPtyInputCommand struct {
	SessionID string `json:"-"`
	JobID     string `json:"job_id,omitempty"`
	Data      string `json:"data"`
}

func (c TerminalPtyInputCommand) Subject() string { return TerminalPtyInputSubject(c.SessionID) }
func (c TerminalPtyInputCommand) IsCommand()      {}
func (c TerminalPtyInputCommand) Validate() error {
	if err := validateSessionID(c.SessionID); err != nil {
		return err
	}
	if c.Data == "" {
		return fmt.Errorf("data is required")
	}
	return nil
}

// TerminalPtyCancelCommand asks the engine to terminate the running PTY job
type TerminalPtyCancelCommand struct {
	SessionID string `json:"-"`
	JobID     string `json:"job_id,omitempty"`
}

func (c TerminalPtyCancelCommand) Subject() string { return TerminalPtyCancelSubject(c.SessionID) }
func (c TerminalPtyCancelCommand) IsCommand()      {}
func (c TerminalPtyCancelCommand) Validate() error { return validateSessionID(c.SessionID) }

// TerminalCompleteCommand requests path completions for a partial word
type TerminalCompleteCommand struct {
	SessionID string `json:"-"`
	Partial   string `json:"partial"`
}

func (c TerminalCompleteCommand) Subject() string { return TerminalCompleteSubject(c.SessionID) }
func (c TerminalCompleteCommand) IsCommand()      {}
func (c TerminalCompleteCommand) Validate() error { return validateSessionID(c.SessionID) }

// =============================================================================
// TERMINAL DOMAIN - EVENTS
// =============================================================================

// TerminalResultEvent carries the outcome of one executed line
type TerminalResultEvent struct {
	SessionID     string    `json:"session_id"`
	Cmd           string    `json:"cmd"`
	Kind          string    `json:"kind"`
	Output        string    `json:"output,omitempty"`
	Error         string    `json:"error,omitempty"`
	ExitCode      int       `json:"exit_code"`
	Path          string    `json:"path,omitempty"`
	Message       string    `json:"message,omitempty"`
	Category      string    `json:"category,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	Command       string    `json:"command,omitempty"`
	Prompt        string    `json:"prompt"`
	DurationMS    int64     `json:"duration_ms"`
	CompletedAt   time.Time `json:"completed_at"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

func (e TerminalResultEvent) Subject() string      { return TerminalResultSubject(e.SessionID) }
func (e TerminalResultEvent) IsEvent()             {}
func (e TerminalResultEvent) Timestamp() time.Time { return e.CompletedAt }
func (e TerminalResultEvent) Validate() error {
	if err := validateSessionID(e.SessionID); err != nil {
		return err
	}
	if e.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	return nil
}

// TerminalPtyStartedEvent indicates a PTY job has begun
type TerminalPtyStartedEvent struct {
	SessionID string    `json:"session_id"`
	JobID     string    `json:"job_id"`
	PID       int       `json:"pid"`
	Cmd       string    `json:"cmd"`
	Rows      uint16    `json:"rows"`
	Cols      uint16    `json:"cols"`
	StartedAt time.Time `json:"started_at"`
}

func (e TerminalPtyStartedEvent) Subject() string {
	return TerminalPtyStartedSubject(e.SessionID, e.JobID)
}
func (e TerminalPtyStartedEvent) IsEvent()             {}
func (e TerminalPtyStartedEvent) Timestamp() time.Time { return e.StartedAt }
func (e TerminalPtyStartedEvent) Validate() error      { return validateJob(e.SessionID, e.JobID) }

// TerminalPtyOutputEvent is one decoded chunk of PTY output. Seq starts at 1
// and increases by one per chunk of a job.
type TerminalPtyOutputEvent struct {
	SessionID string    `json:"session_id"`
	JobID     string    `json:"job_id"`
	Seq       uint64    `json:"seq"`
	Data      string    `json:"data"`
	EmittedAt time.Time `json:"emitted_at"`
}

func (e TerminalPtyOutputEvent) Subject() string {
	return TerminalPtyOutputSubject(e.SessionID, e.JobID)
}
func (e TerminalPtyOutputEvent) IsEvent()             {}
func (e TerminalPtyOutputEvent) Timestamp() time.Time { return e.EmittedAt }
func (e TerminalPtyOutputEvent) Validate() error      { return validateJob(e.SessionID, e.JobID) }

// TerminalPtyExitEvent indicates a PTY job was reaped
type TerminalPtyExitEvent struct {
	SessionID string    `json:"session_id"`
	JobID     string    `json:"job_id"`
	ExitCode  int       `json:"exit_code"`
	Bytes     int64     `json:"bytes"`
	Error     string    `json:"error,omitempty"`
	Prompt    string    `json:"prompt"`
	ExitedAt  time.Time `json:"exited_at"`
}

func (e TerminalPtyExitEvent) Subject() string {
	return TerminalPtyExitSubject(e.SessionID, e.JobID)
}
func (e TerminalPtyExitEvent) IsEvent()             {}
func (e TerminalPtyExitEvent) Timestamp() time.Time { return e.ExitedAt }
func (e TerminalPtyExitEvent) Validate() error      { return validateJob(e.SessionID, e.JobID) }

// TerminalCompletionsEvent answers a TerminalCompleteCommand
type TerminalCompletionsEvent struct {
	SessionID  string    `json:"session_id"`
	Partial    string    `json:"partial"`
	Matches    []string  `json:"matches"`
	ComputedAt time.Time `json:"computed_at"`
}

func (e TerminalCompletionsEvent) Subject() string      { return TerminalCompletionsSubject(e.SessionID) }
func (e TerminalCompletionsEvent) IsEvent()             {}
func (e TerminalCompletionsEvent) Timestamp() time.Time { return e.ComputedAt }
func (e TerminalCompletionsEvent) Validate() error      { return validateSessionID(e.SessionID) }

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Subject builder functions for dynamic subjects
func TerminalCommandSubject(sessionID string) string {
	return fmt.Sprintf("terminal.session.%s.command", sessionID)
}

func TerminalPtyInputSubject(sessionID string) string {
	return fmt.Sprintf("terminal.session.%s.pty.input", sessionID)
}

func TerminalPtyCancelSubject(sessionID string) string {
	return fmt.Sprintf("terminal.session.%s.pty.cancel", sessionID)
}

func TerminalCompleteSubject(sessionID string) string {
	return fmt.Sprintf("terminal.session.%s.complete", sessionID)
}

func TerminalResultSubject(sessionID string) string {
	return fmt.Sprintf("event.terminal.session.%s.result", sessionID)
}

func TerminalPtyStartedSubject(sessionID, jobID string) string {
	return fmt.Sprintf("event.terminal.session.%s.pty.%s.started", sessionID, jobID)
}

func TerminalPtyOutputSubject(sessionID, jobID string) string {
	return fmt.Sprintf("event.terminal.session.%s.pty.%s.output", sessionID, jobID)
}

func TerminalPtyExitSubject(sessionID, jobID string) string {
	return fmt.Sprintf("event.terminal.session.%s.pty.%s.exit", sessionID, jobID)
}

func TerminalCompletionsSubject(sessionID string) string {
	return fmt.Sprintf("event.terminal.session.%s.completions", sessionID)
}

// TerminalSessionEvents is the filter subject for every event of one session.
func TerminalSessionEvents(sessionID string) string {
	return fmt.Sprintf(TerminalSessionEventsPattern, sessionID)
}
