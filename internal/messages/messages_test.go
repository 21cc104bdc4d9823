package messages

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSubjectsCarrySessionAndJob(t *testing.T) {
	tests := []struct {
		msg  Message
		want string
	}{
		{NewTerminalCommandMessage("s1", "ls"), "terminal.session.s1.command"},
		{NewTerminalPtyInputCommand("s1", "q"), "terminal.session.s1.pty.input"},
		{NewTerminalPtyCancelCommand("s1"), "terminal.session.s1.pty.cancel"},
		{NewTerminalCompleteCommand("s1", "sr"), "terminal.session.s1.complete"},
		{NewTerminalResultEvent("s1", "ls", "success"), "event.terminal.session.s1.result"},
		{NewTerminalPtyStartedEvent("s1", "j1", "vim", 42), "event.terminal.session.s1.pty.j1.started"},
		{NewTerminalPtyOutputEvent("s1", "j1", 1, "x"), "event.terminal.session.s1.pty.j1.output"},
		{NewTerminalPtyExitEvent("s1", "j1", 0), "event.terminal.session.s1.pty.j1.exit"},
		{NewTerminalCompletionsEvent("s1", "sr", nil), "event.terminal.session.s1.completions"},
	}
	for _, tt := range tests {
		if got := tt.msg.Subject(); got != tt.want {
			t.Errorf("Subject() = %q, want %q", got, tt.want)
		}
		if err := tt.msg.Validate(); err != nil {
			t.Errorf("%s: Validate() = %v", tt.want, err)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{"empty session", NewTerminalCommandMessage("", "ls")},
		{"session with dot", NewTerminalCommandMessage("a.b", "ls")},
		{"session wildcard", NewTerminalCompleteCommand("*", "x")},
		{"empty cmd", NewTerminalCommandMessage("s1", "")},
		{"empty input", NewTerminalPtyInputCommand("s1", "")},
		{"missing job", NewTerminalPtyOutputEvent("s1", "", 1, "x")},
		{"missing kind", NewTerminalResultEvent("s1", "ls", "")},
	}
	for _, tt := range tests {
		if err := tt.msg.Validate(); err == nil {
			t.Errorf("%s: Validate() = nil, want error", tt.name)
		}
	}
}

func TestSessionIDFromSubject(t *testing.T) {
	tests := []struct {
		subject string
		want    string
		wantErr bool
	}{
		{"terminal.session.abc-123.command", "abc-123", false},
		{"event.terminal.session.abc.pty.j1.output", "abc", false},
		{"terminal.session", "", true},
		{"command.script.x.run", "", true},
	}
	for _, tt := range tests {
		got, err := SessionIDFromSubject(tt.subject)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("SessionIDFromSubject(%q) = %q, %v", tt.subject, got, err)
		}
	}
}

func TestCommandPayloadOmitsSessionID(t *testing.T) {
	data, err := json.Marshal(NewTerminalCommandMessage("s1", "pwd"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "s1") {
		t.Errorf("payload %s leaks the session id", data)
	}
	if err := ValidatePayload(TerminalCommandSubjectPattern, data); err != nil {
		t.Errorf("ValidatePayload(own payload) = %v", err)
	}
}

func TestValidatePayload(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		data    string
		wantErr bool
	}{
		{"command ok", TerminalCommandSubjectPattern, `{"cmd":"ls"}`, false},
		{"command missing cmd", TerminalCommandSubjectPattern, `{}`, true},
		{"command empty cmd", TerminalCommandSubjectPattern, `{"cmd":""}`, true},
		{"command wrong type", TerminalCommandSubjectPattern, `{"cmd":42}`, true},
		{"input ok", TerminalPtyInputSubjectPattern, `{"data":"q","job_id":"j"}`, false},
		{"input missing data", TerminalPtyInputSubjectPattern, `{"job_id":"j"}`, true},
		{"cancel empty ok", TerminalPtyCancelSubjectPattern, `{}`, false},
		{"complete empty partial ok", TerminalCompleteSubjectPattern, `{"partial":""}`, false},
		{"not json", TerminalCommandSubjectPattern, `cmd=ls`, true},
		{"unknown pattern", "event.other", `{"anything":true}`, false},
	}
	for _, tt := range tests {
		err := ValidatePayload(tt.pattern, []byte(tt.data))
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: ValidatePayload() = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestBuildCommand(t *testing.T) {
	cmd, err := BuildCommand("TerminalCommandMessage", map[string]any{"session_id": "s1", "cmd": "ls"})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := cmd.(*TerminalCommandMessage)
	if !ok || tc.SessionID != "s1" || tc.Cmd != "ls" {
		t.Errorf("BuildCommand = %#v", cmd)
	}

	cmd, err = BuildCommand("TerminalPtyCancelCommand", map[string]any{"session_id": "s1", "job_id": "j9"})
	if err != nil {
		t.Fatal(err)
	}
	if c := cmd.(*TerminalPtyCancelCommand); c.JobID != "j9" {
		t.Errorf("JobID = %q", c.JobID)
	}

	if _, err := BuildCommand("ScriptRunCommand", nil); err == nil {
		t.Error("unknown type accepted")
	}
	for _, name := range GetCommandTypes() {
		if _, err := BuildCommand(name, map[string]any{}); err != nil {
			t.Errorf("BuildCommand(%q) = %v", name, err)
		}
	}
}

func TestCompletionsNeverNull(t *testing.T) {
	data, _ := json.Marshal(NewTerminalCompletionsEvent("s1", "zz", nil))
	if !strings.Contains(string(data), `"matches":[]`) {
		t.Errorf("payload %s, want empty matches array", data)
	}
}
