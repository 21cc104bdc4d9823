package shell

import (
	"os"
	"os/user"
	"path/filepath"
	"slices"
	"testing"
)

func TestComplete(t *testing.T) {
	sess, dir := newTestSession(t)
	for _, d := range []string{"src", "scripts", filepath.Join("src", "inner")} {
		if err := os.Mkdir(filepath.Join(dir, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range []string{"setup.sh", "README", filepath.Join("src", "main.go")} {
		if err := os.WriteFile(filepath.Join(dir, f), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	sep := string(filepath.Separator)

	tests := []struct {
		partial string
		want    []string
	}{
		{"s", []string{"scripts" + sep, "setup.sh", "src" + sep}},
		{"sc", []string{"scripts" + sep}},
		{"src/", []string{"src/inner" + sep, "src/main.go"}},
		{"src/m", []string{"src/main.go"}},
		{"zzz", nil},
		{"missing/x", nil},
		{"~/R", []string{"~/README"}},
	}
	for _, tt := range tests {
		got := sess.Complete(tt.partial)
		if !slices.Equal(got, tt.want) {
			t.Errorf("Complete(%q) = %q, want %q", tt.partial, got, tt.want)
		}
	}

	if got := sess.Complete(""); len(got) != 4 {
		t.Errorf("Complete(\"\") returned %d entries, want 4: %q", len(got), got)
	}
}

func TestPrompt(t *testing.T) {
	u, err := user.Current()
	if err != nil || u.Username == "" {
		t.Skip("current user unknown")
	}
	sess, dir := newTestSession(t)
	if err := os.Mkdir(filepath.Join(dir, "proj"), 0o755); err != nil {
		t.Fatal(err)
	}

	if got, want := sess.Prompt(), u.Username+" @ ~ : $ "; got != want {
		t.Errorf("at home Prompt() = %q, want %q", got, want)
	}

	sess.Execute(t.Context(), "cd proj")
	if got, want := sess.Prompt(), u.Username+" @ proj : $ "; got != want {
		t.Errorf("in proj Prompt() = %q, want %q", got, want)
	}

	sess.Execute(t.Context(), "cd /")
	if got, want := sess.Prompt(), u.Username+" @ / : $ "; got != want {
		t.Errorf("at root Prompt() = %q, want %q", got, want)
	}
}

func TestPromptHomeThroughSymlink(t *testing.T) {
	u, err := user.Current()
	if err != nil || u.Username == "" {
		t.Skip("current user unknown")
	}
	target, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(t.TempDir(), "home")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	tests := []struct {
		name      string
		home, dir string
	}{
		{"home is a link", link, target},
		{"dir is a link", target, link},
		{"both are links", link, link},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := NewSession(Options{Dir: tt.dir, Home: tt.home})
			if got, want := sess.Prompt(), u.Username+" @ ~ : $ "; got != want {
				t.Errorf("Prompt() = %q, want %q", got, want)
			}
			if got := sess.Home(); got != target {
				t.Errorf("Home() = %q, want %q", got, target)
			}
		})
	}
}
