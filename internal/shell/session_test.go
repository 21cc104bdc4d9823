package shell

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell required")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func newTestSession(t *testing.T) (*Session, string) {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewSession(Options{Dir: dir, Home: dir}), dir
}

func TestExecuteEmpty(t *testing.T) {
	sess, dir := newTestSession(t)
	for _, line := range []string{"", "   ", "\t\n"} {
		res := sess.Execute(context.Background(), line)
		if res.Kind != KindEmpty {
			t.Errorf("Execute(%q).Kind = %v, want empty", line, res.Kind)
		}
	}
	if sess.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", sess.Dir(), dir)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("blank input touched the filesystem: %v", entries)
	}
}

func TestExecuteChangeDirectory(t *testing.T) {
	sess, dir := newTestSession(t)
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	res := sess.Execute(context.Background(), "cd sub")
	if res.Kind != KindDirectoryChanged {
		t.Fatalf("Kind = %v (%s), want directory_changed", res.Kind, res.Message)
	}
	if res.Path != sub || sess.Dir() != sub {
		t.Errorf("Path = %q, Dir() = %q, want %q", res.Path, sess.Dir(), sub)
	}

	res = sess.Execute(context.Background(), "cd")
	if res.Kind != KindDirectoryChanged || sess.Dir() != dir {
		t.Errorf("bare cd: Kind = %v, Dir() = %q, want home %q", res.Kind, sess.Dir(), dir)
	}

	res = sess.Execute(context.Background(), "cd ~/sub")
	if sess.Dir() != sub {
		t.Errorf("cd ~/sub: Dir() = %q (%s), want %q", sess.Dir(), res.Message, sub)
	}
}

func TestExecuteChangeDirectoryResolvesSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	sess, dir := newTestSession(t)
	real := filepath.Join(dir, "real")
	if err := os.Mkdir(real, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(real, filepath.Join(dir, "link")); err != nil {
		t.Fatal(err)
	}

	res := sess.Execute(context.Background(), "cd link")
	if res.Path != real {
		t.Errorf("Path = %q, want canonical %q", res.Path, real)
	}
}

func TestExecuteChangeDirectoryFailures(t *testing.T) {
	sess, dir := newTestSession(t)
	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		line string
		want error
	}{
		{"cd nonexistent_dir_xyz", ErrDirectoryNotFound},
		{"cd file.txt", ErrDirectoryChangeFailed},
	}
	for _, tt := range tests {
		res := sess.Execute(context.Background(), tt.line)
		if res.Kind != KindError {
			t.Fatalf("%s: Kind = %v, want error", tt.line, res.Kind)
		}
		if !errors.Is(res.Err, tt.want) {
			t.Errorf("%s: Err = %v, want %v", tt.line, res.Err, tt.want)
		}
		if sess.Dir() != dir {
			t.Errorf("%s: Dir() = %q, want unchanged %q", tt.line, sess.Dir(), dir)
		}
	}

	res := sess.Execute(context.Background(), "cd nonexistent_dir_xyz")
	if !strings.Contains(res.Message, "nonexistent_dir_xyz") {
		t.Errorf("Message = %q, want it to name the directory", res.Message)
	}
}

func TestExecuteChangeDirectoryWithoutSearchPermission(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions required")
	}
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	sess, dir := newTestSession(t)
	locked := filepath.Join(dir, "locked")
	if err := os.Mkdir(locked, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	res := sess.Execute(context.Background(), "cd locked")
	if res.Kind != KindError {
		t.Fatalf("Kind = %v, want error", res.Kind)
	}
	if !errors.Is(res.Err, ErrDirectoryChangeFailed) {
		t.Errorf("Err = %v, want ErrDirectoryChangeFailed", res.Err)
	}
	if sess.Dir() != dir {
		t.Errorf("Dir() = %q, want unchanged %q", sess.Dir(), dir)
	}
}

func TestExecuteExternal(t *testing.T) {
	requireShell(t)
	sess, _ := newTestSession(t)

	res := sess.Execute(context.Background(), "echo hello")
	if res.Kind != KindSuccess || res.Output != "hello\n" || res.Error != "" || res.ExitCode != 0 {
		t.Errorf("echo hello = %+v", res)
	}

	res = sess.Execute(context.Background(), "echo out; echo err 1>&2")
	if res.Kind != KindSuccess || res.Output != "out\n" || res.Error != "err\n" {
		t.Errorf("stdout+stderr = %+v, want success with both streams", res)
	}

	res = sess.Execute(context.Background(), "exit 3")
	if res.Kind != KindSuccess || res.ExitCode != 3 {
		t.Errorf("exit 3 = %+v, want success with exit code 3", res)
	}
}

func TestExecuteRunsInSessionDirectory(t *testing.T) {
	requireShell(t)
	sess, dir := newTestSession(t)
	sub := filepath.Join(dir, "work")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	sess.Execute(context.Background(), "cd work")

	res := sess.Execute(context.Background(), "pwd")
	if got := strings.TrimSpace(res.Output); got != sub {
		t.Errorf("pwd = %q, want %q", got, sub)
	}
}

func TestExecuteCommandNotFound(t *testing.T) {
	requireShell(t)
	sess, _ := newTestSession(t)

	res := sess.Execute(context.Background(), "totally_bogus_cmd_123 --flag")
	if res.Kind != KindError {
		t.Fatalf("Kind = %v, want error", res.Kind)
	}
	if !errors.Is(res.Err, ErrCommandNotFound) {
		t.Errorf("Err = %v, want ErrCommandNotFound", res.Err)
	}
	if res.Message != "command not found: totally_bogus_cmd_123" {
		t.Errorf("Message = %q", res.Message)
	}
}

func TestExecuteExitStatusNotFoundFromLaterCommand(t *testing.T) {
	requireShell(t)
	sess, _ := newTestSession(t)

	tests := []struct {
		line   string
		output string
	}{
		{"echo important; totally_bogus_cmd_123", "important\n"},
		{"printf 'a\\n'; exit 127", "a\n"},
	}
	for _, tt := range tests {
		res := sess.Execute(context.Background(), tt.line)
		if res.Kind != KindSuccess {
			t.Fatalf("%s: Kind = %v (%s), want success", tt.line, res.Kind, res.Message)
		}
		if res.Output != tt.output {
			t.Errorf("%s: Output = %q, want %q", tt.line, res.Output, tt.output)
		}
		if res.ExitCode != 127 {
			t.Errorf("%s: ExitCode = %d, want 127", tt.line, res.ExitCode)
		}
	}
}

func TestExecuteReturnsWithBackgroundChild(t *testing.T) {
	requireShell(t)
	sess, _ := newTestSession(t)

	start := time.Now()
	res := sess.Execute(context.Background(), "sleep 5 & echo hi")
	if res.Kind != KindSuccess {
		t.Fatalf("Kind = %v (%s), want success", res.Kind, res.Message)
	}
	if res.Output != "hi\n" {
		t.Errorf("Output = %q, want %q", res.Output, "hi\n")
	}
	if d := time.Since(start); d > 4*time.Second {
		t.Errorf("Execute took %v, want it bounded by the pipe wait delay", d)
	}
}

func TestExecuteRedirect(t *testing.T) {
	requireShell(t)
	sess, dir := newTestSession(t)
	out := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(out, []byte("stale content that must go\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res := sess.Execute(context.Background(), "echo hello > out.txt")
	if res.Kind != KindSuccess {
		t.Fatalf("overwrite: %+v", res)
	}
	if res.Output != "Output written to 'out.txt'." {
		t.Errorf("overwrite confirmation = %q", res.Output)
	}
	if got, _ := os.ReadFile(out); string(got) != "hello\n" {
		t.Errorf("after overwrite file = %q, want %q", got, "hello\n")
	}

	res = sess.Execute(context.Background(), "echo world >> out.txt")
	if res.Output != "Output appended to 'out.txt'." {
		t.Errorf("append confirmation = %q", res.Output)
	}
	if got, _ := os.ReadFile(out); string(got) != "hello\nworld\n" {
		t.Errorf("after append file = %q, want %q", got, "hello\nworld\n")
	}
}

func TestExecuteRedirectKeepsStderr(t *testing.T) {
	requireShell(t)
	sess, dir := newTestSession(t)

	res := sess.Execute(context.Background(), "ls . nonexistent_entry > listing.txt")
	if res.Kind != KindSuccess {
		t.Fatalf("Kind = %v (%s)", res.Kind, res.Message)
	}
	if res.Error == "" {
		t.Error("stderr was dropped on a successful redirect")
	}
	if _, err := os.Stat(filepath.Join(dir, "listing.txt")); err != nil {
		t.Errorf("target not written: %v", err)
	}
}

func TestExecuteRedirectWriteFailure(t *testing.T) {
	requireShell(t)
	sess, dir := newTestSession(t)
	if err := os.Mkdir(filepath.Join(dir, "adir"), 0o755); err != nil {
		t.Fatal(err)
	}

	res := sess.Execute(context.Background(), "echo hi > adir")
	if res.Kind != KindError || !errors.Is(res.Err, ErrRedirectWrite) {
		t.Errorf("redirect into a directory = %+v, want ErrRedirectWrite", res)
	}
}

func TestExecuteMissingRedirectTargetStartsNothing(t *testing.T) {
	sess := NewSession(Options{Interpreter: "/nonexistent/interpreter"})

	res := sess.Execute(context.Background(), "echo hi >")
	if res.Kind != KindError || !errors.Is(res.Err, ErrMissingRedirectTarget) {
		t.Errorf("Execute = %+v, want ErrMissingRedirectTarget", res)
	}
}

func TestExecuteInterpreterMissing(t *testing.T) {
	sess := NewSession(Options{Interpreter: "/nonexistent/interpreter"})

	res := sess.Execute(context.Background(), "echo hi")
	if res.Kind != KindError || !errors.Is(res.Err, ErrSpawn) {
		t.Errorf("Execute = %+v, want ErrSpawn", res)
	}
}

func TestExecuteTuiRequired(t *testing.T) {
	sess, _ := newTestSession(t)
	for _, line := range []string{"vim", "vim -u NONE file.txt", "LESS README", "man ls > out"} {
		res := sess.Execute(context.Background(), line)
		if res.Kind != KindTuiRequired {
			t.Errorf("Execute(%q).Kind = %v, want tui_required", line, res.Kind)
		}
		if res.Command != strings.TrimSpace(line) {
			t.Errorf("Execute(%q).Command = %q", line, res.Command)
		}
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorCategory
	}{
		{nil, CategoryNone},
		{ErrMissingRedirectTarget, CategoryClassification},
		{ErrDirectoryNotFound, CategoryBuiltin},
		{ErrCommandNotFound, CategorySpawn},
		{ErrRedirectWrite, CategoryIO},
		{ErrPlatformUnsupported, CategoryPlatform},
		{ErrPtyBusy, CategoryBusy},
		{errors.New("boom"), CategoryUnknown},
	}
	for _, tt := range tests {
		if got := Category(tt.err); got != tt.want {
			t.Errorf("Category(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestDecodeTextReplacesInvalid(t *testing.T) {
	got := decodeText([]byte("ok\xffok"))
	if got != "ok\uFFFDok" {
		t.Errorf("decodeText = %q", got)
	}
}
