package messages

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// =============================================================================
// CONSTRUCTORS - Easy message creation
// =============================================================================

// NewTerminalCommandMessage creates a terminal command message
func NewTerminalCommandMessage(sessionID, cmd string) *TerminalCommandMessage {
	return &TerminalCommandMessage{
		SessionID: sessionID,
		Cmd:       cmd,
	}
}

// WithCorrelation adds correlation ID to a terminal command
func (c *TerminalCommandMessage) WithCorrelation(id string) *TerminalCommandMessage {
	c.CorrelationID = id
	return c
}

// NewTerminalPtyInputCommand creates a PTY input command
func NewTerminalPtyInputCommand(sessionID, data string) *TerminalPtyInputCommand {
	return &TerminalPtyInputCommand{SessionID: sessionID, Data: data}
}

// WithJob pins the input to one job; input for any other job is dropped
func (c *TerminalPtyInputCommand) WithJob(jobID string) *TerminalPtyInputCommand {
	c.JobID = jobID
	return c
}

// NewTerminalPtyCancelCommand creates a PTY cancel command
func NewTerminalPtyCancelCommand(sessionID string) *TerminalPtyCancelCommand {
	return &TerminalPtyCancelCommand{SessionID: sessionID}
}

// WithJob pins the cancel to one job
func (c *TerminalPtyCancelCommand) WithJob(jobID string) *TerminalPtyCancelCommand {
	c.JobID = jobID
	return c
}

// NewTerminalCompleteCommand creates a completion request
func NewTerminalCompleteCommand(sessionID, partial string) *TerminalCompleteCommand {
	return &TerminalCompleteCommand{SessionID: sessionID, Partial: partial}
}

// NewTerminalResultEvent creates a result event of the given kind
func NewTerminalResultEvent(sessionID, cmd, kind string) *TerminalResultEvent {
	return &TerminalResultEvent{
		SessionID:   sessionID,
		Cmd:         cmd,
		Kind:        kind,
		CompletedAt: time.Now(),
	}
}

// WithOutput sets captured stdout and stderr
func (e *TerminalResultEvent) WithOutput(stdout, stderr string, exitCode int) *TerminalResultEvent {
	e.Output = stdout
	e.Error = stderr
	e.ExitCode = exitCode
	return e
}

// WithPath sets the new directory of a directory_changed result
func (e *TerminalResultEvent) WithPath(path string) *TerminalResultEvent {
	e.Path = path
	return e
}

// WithError sets the failure message and its category
func (e *TerminalResultEvent) WithError(message, category string) *TerminalResultEvent {
	e.Message = message
	e.Category = category
	return e
}

// WithTui sets the reason and command of a tui_required result
func (e *TerminalResultEvent) WithTui(reason, command string) *TerminalResultEvent {
	e.Reason = reason
	e.Command = command
	return e
}

// WithPrompt sets the prompt to show after this result
func (e *TerminalResultEvent) WithPrompt(prompt string) *TerminalResultEvent {
	e.Prompt = prompt
	return e
}

// WithDuration records how long the line took
func (e *TerminalResultEvent) WithDuration(d time.Duration) *TerminalResultEvent {
	e.DurationMS = d.Milliseconds()
	return e
}

// WithCorrelation adds correlation ID to a result event
func (e *TerminalResultEvent) WithCorrelation(id string) *TerminalResultEvent {
	e.CorrelationID = id
	return e
}

// NewTerminalPtyStartedEvent creates a PTY started event
func NewTerminalPtyStartedEvent(sessionID, jobID, cmd string, pid int) *TerminalPtyStartedEvent {
	return &TerminalPtyStartedEvent{
		SessionID: sessionID,
		JobID:     jobID,
		PID:       pid,
		Cmd:       cmd,
		StartedAt: time.Now(),
	}
}

// WithSize records the terminal size the job started with
func (e *TerminalPtyStartedEvent) WithSize(rows, cols uint16) *TerminalPtyStartedEvent {
	e.Rows = rows
	e.Cols = cols
	return e
}

// NewTerminalPtyOutputEvent creates a PTY output event
func NewTerminalPtyOutputEvent(sessionID, jobID string, seq uint64, data string) *TerminalPtyOutputEvent {
	return &TerminalPtyOutputEvent{
		SessionID: sessionID,
		JobID:     jobID,
		Seq:       seq,
		Data:      data,
		EmittedAt: time.Now(),
	}
}

// NewTerminalPtyExitEvent creates a PTY exit event
func NewTerminalPtyExitEvent(sessionID, jobID string, exitCode int) *TerminalPtyExitEvent {
	return &TerminalPtyExitEvent{
		SessionID: sessionID,
		JobID:     jobID,
		ExitCode:  exitCode,
		ExitedAt:  time.Now(),
	}
}

// WithError adds error message to a PTY exit event
func (e *TerminalPtyExitEvent) WithError(err string) *TerminalPtyExitEvent {
	e.Error = err
	return e
}

// WithBytes records how many raw bytes the job produced
func (e *TerminalPtyExitEvent) WithBytes(n int64) *TerminalPtyExitEvent {
	e.Bytes = n
	return e
}

// WithPrompt sets the prompt to show once the job is gone
func (e *TerminalPtyExitEvent) WithPrompt(prompt string) *TerminalPtyExitEvent {
	e.Prompt = prompt
	return e
}

// NewTerminalCompletionsEvent creates a completions event
func NewTerminalCompletionsEvent(sessionID, partial string, matches []string) *TerminalCompletionsEvent {
	if matches == nil {
		matches = []string{}
	}
	return &TerminalCompletionsEvent{
		SessionID:  sessionID,
		Partial:    partial,
		Matches:    matches,
		ComputedAt: time.Now(),
	}
}

// =============================================================================
// VALIDATION - Implementation of Validate() methods
// =============================================================================

var sessionIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// validateSessionID keeps session ids to a single subject token
func validateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("session_id is required")
	}
	if !sessionIDRegex.MatchString(id) {
		return fmt.Errorf("session_id must contain only alphanumeric characters, hyphens, and underscores")
	}
	return nil
}

func validateJob(sessionID, jobID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	if jobID == "" {
		return fmt.Errorf("job_id is required")
	}
	return nil
}

// SessionIDFromSubject extracts the session id from a terminal.session.<sid>.*
// or event.terminal.session.<sid>.* subject.
func SessionIDFromSubject(subject string) (string, error) {
	parts := strings.Split(subject, ".")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "terminal" && parts[i+1] == "session" {
			if err := validateSessionID(parts[i+2]); err != nil {
				return "", fmt.Errorf("subject %q: %w", subject, err)
			}
			return parts[i+2], nil
		}
	}
	return "", fmt.Errorf("subject %q has no session id", subject)
}

// =============================================================================
// PUBLISHER - Type-safe message publishing
// =============================================================================

// Publisher provides type-safe message publishing
type Publisher struct {
	js jetstream.JetStream
}

// NewPublisher creates a new type-safe publisher
func NewPublisher(js jetstream.JetStream) *Publisher {
	return &Publisher{js: js}
}

// PublishCommand publishes a command with validation
func (p *Publisher) PublishCommand(ctx context.Context, cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("command validation failed: %w", err)
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	_, err = p.js.Publish(ctx, cmd.Subject(), data)
	if err != nil {
		return fmt.Errorf("publish command: %w", err)
	}

	return nil
}

// PublishEvent publishes an event with validation
func (p *Publisher) PublishEvent(ctx context.Context, evt Event) error {
	if err := evt.Validate(); err != nil {
		return fmt.Errorf("event validation failed: %w", err)
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = p.js.Publish(ctx, evt.Subject(), data)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	return nil
}

// =============================================================================
// UTILITIES - Helper functions for common operations
// =============================================================================

// SubjectPatterns returns all known subject patterns for renderer registration
func SubjectPatterns() map[string]string {
	return map[string]string{
		"terminal.command":     TerminalCommandSubjectPattern,
		"terminal.pty.input":   TerminalPtyInputSubjectPattern,
		"terminal.pty.cancel":  TerminalPtyCancelSubjectPattern,
		"terminal.complete":    TerminalCompleteSubjectPattern,
		"terminal.result":      TerminalResultSubjectPattern,
		"terminal.pty.started": TerminalPtyStartedSubjectPattern,
		"terminal.pty.output":  TerminalPtyOutputSubjectPattern,
		"terminal.pty.exit":    TerminalPtyExitSubjectPattern,
		"terminal.completions": TerminalCompletionsSubjectPattern,
	}
}

// BuildCommand creates a typed command from UI form data
func BuildCommand(messageType string, data map[string]any) (Command, error) {
	sessionID, _ := data["session_id"].(string)

	switch messageType {
	case "TerminalCommandMessage":
		cmdText, _ := data["cmd"].(string)
		cmd := NewTerminalCommandMessage(sessionID, cmdText)
		if corrID, ok := data["correlation_id"].(string); ok && corrID != "" {
			cmd.CorrelationID = corrID
		}
		return cmd, nil

	case "TerminalPtyInputCommand":
		input, _ := data["data"].(string)
		cmd := NewTerminalPtyInputCommand(sessionID, input)
		if jobID, ok := data["job_id"].(string); ok {
			cmd = cmd.WithJob(jobID)
		}
		return cmd, nil

	case "TerminalPtyCancelCommand":
		cmd := NewTerminalPtyCancelCommand(sessionID)
		if jobID, ok := data["job_id"].(string); ok {
			cmd = cmd.WithJob(jobID)
		}
		return cmd, nil

	case "TerminalCompleteCommand":
		partial, _ := data["partial"].(string)
		return NewTerminalCompleteCommand(sessionID, partial), nil

	default:
		return nil, fmt.Errorf("unknown command type: %s", messageType)
	}
}

// GetCommandTypes returns all available command message types
func GetCommandTypes() []string {
	return []string{
		"TerminalCommandMessage",
		"TerminalPtyInputCommand",
		"TerminalPtyCancelCommand",
		"TerminalCompleteCommand",
	}
}
