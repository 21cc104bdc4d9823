package shell

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		kind     IntentKind
		command  string
		dir      string
		redirect *Redirect
	}{
		{name: "blank", line: "", kind: IntentEmpty},
		{name: "whitespace", line: " \t  ", kind: IntentEmpty},
		{name: "cd no arg", line: "cd", kind: IntentChangeDir},
		{name: "cd with arg", line: "  cd  /tmp ", kind: IntentChangeDir, dir: "/tmp"},
		{name: "cd upper case", line: "CD src", kind: IntentChangeDir, dir: "src"},
		{name: "vim", line: "vim notes.txt", kind: IntentTui, command: "vim notes.txt"},
		{name: "less upper case", line: "LESS file", kind: IntentTui, command: "LESS file"},
		{name: "tui ignores redirect", line: "top > out", kind: IntentTui, command: "top > out"},
		{name: "plain external", line: "ls -la", kind: IntentExternal, command: "ls -la"},
		{name: "external keeps spacing", line: " echo  a   b ", kind: IntentExternal, command: "echo  a   b"},
		{
			name: "overwrite", line: "echo hello > out.txt", kind: IntentExternal,
			command: "echo hello", redirect: &Redirect{Target: "out.txt", Mode: RedirectOverwrite},
		},
		{
			name: "append", line: "echo world >> out.txt", kind: IntentExternal,
			command: "echo world", redirect: &Redirect{Target: "out.txt", Mode: RedirectAppend},
		},
		{
			name: "first operator wins", line: "echo a >> first > second", kind: IntentExternal,
			command: "echo a > second", redirect: &Redirect{Target: "first", Mode: RedirectAppend},
		},
		{
			name: "trailing args stay", line: "echo a > f b", kind: IntentExternal,
			command: "echo a b", redirect: &Redirect{Target: "f", Mode: RedirectOverwrite},
		},
		{name: "attached operator is literal", line: "echo a>b", kind: IntentExternal, command: "echo a>b"},
		{name: "stderr redirect is literal", line: "ls 2> err", kind: IntentExternal, command: "ls 2> err"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := Classify(tt.line)
			if err != nil {
				t.Fatalf("Classify(%q) error = %v", tt.line, err)
			}
			if in.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", in.Kind, tt.kind)
			}
			if in.Command != tt.command {
				t.Errorf("Command = %q, want %q", in.Command, tt.command)
			}
			if in.Dir != tt.dir {
				t.Errorf("Dir = %q, want %q", in.Dir, tt.dir)
			}
			switch {
			case tt.redirect == nil && in.Redirect != nil:
				t.Errorf("Redirect = %+v, want nil", *in.Redirect)
			case tt.redirect != nil && in.Redirect == nil:
				t.Errorf("Redirect = nil, want %+v", *tt.redirect)
			case tt.redirect != nil && *in.Redirect != *tt.redirect:
				t.Errorf("Redirect = %+v, want %+v", *in.Redirect, *tt.redirect)
			}
		})
	}
}

func TestClassifyMissingRedirectTarget(t *testing.T) {
	for _, line := range []string{"echo hi >", "echo hi >>", "> ", "ls -l >>"} {
		_, err := Classify(line)
		if !errors.Is(err, ErrMissingRedirectTarget) {
			t.Errorf("Classify(%q) error = %v, want ErrMissingRedirectTarget", line, err)
		}
	}
}

func TestIsTuiApp(t *testing.T) {
	for _, name := range TuiApps {
		if !IsTuiApp(name) {
			t.Errorf("IsTuiApp(%q) = false", name)
		}
	}
	for _, name := range []string{"emacs", "ls", "", "vimdiff"} {
		if IsTuiApp(name) {
			t.Errorf("IsTuiApp(%q) = true", name)
		}
	}
}

func TestIntentKindString(t *testing.T) {
	if got := IntentExternal.String(); got != "external" {
		t.Errorf("String() = %q", got)
	}
	if got := IntentKind(42).String(); got != "unknown(42)" {
		t.Errorf("String() = %q", got)
	}
}
