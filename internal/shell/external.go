package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
)

// exitNotFound is the POSIX shell status for an unknown command.
const exitNotFound = 127

// pipeWaitDelay bounds how long a finished command may hold its output pipes
// open through background children.
const pipeWaitDelay = 500 * time.Millisecond

// notFoundFor matches the interpreter's complaint about name itself, as in
// "sh: 1: name: not found" or "bash: name: command not found".
func notFoundFor(name, stderr string) bool {
	re, err := regexp.Compile(`(?m)(^|: )` + regexp.QuoteMeta(name) + `: (command )?not found\s*$`)
	if err != nil {
		return false
	}
	return re.MatchString(stderr)
}

// RunExternal runs command through the session interpreter in the session
// directory and captures stdout and stderr. With a redirect, stdout goes to
// the target file and the result carries a confirmation instead.
func (s *Session) RunExternal(ctx context.Context, command string, redirect *Redirect) Result {
	name := command
	if f := strings.Fields(command); len(f) > 0 {
		name = f[0]
	}

	cmd := exec.CommandContext(ctx, s.interpreter, "-c", command)
	cmd.Dir = s.Dir()
	cmd.Env = s.env
	cmd.WaitDelay = pipeWaitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			exitCode = exitErr.ExitCode()
		case errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil:
			// The command exited; a background child kept the pipes open.
			exitCode = cmd.ProcessState.ExitCode()
		default:
			s.logger.Warn("shell: start failed", "interpreter", s.interpreter, "cmd", command, "err", err)
			return ErrorResult(fmt.Errorf("%w: %s: %v", ErrSpawn, name, err))
		}
	}

	errText := decodeText(stderr.Bytes())
	if exitCode == exitNotFound && notFoundFor(name, errText) {
		return ErrorResult(fmt.Errorf("%w: %s", ErrCommandNotFound, name))
	}

	s.logger.Debug("shell: command finished",
		"cmd", command, "dir", cmd.Dir, "exit", exitCode, "duration", time.Since(start))

	if redirect == nil {
		return SuccessResult(decodeText(stdout.Bytes()), errText, exitCode)
	}

	target := s.resolve(redirect.Target)
	if err := writeRedirect(target, redirect.Mode, stdout.Bytes()); err != nil {
		s.logger.Warn("shell: redirect failed", "target", target, "mode", redirect.Mode, "err", err)
		return ErrorResult(fmt.Errorf("%w: %v", ErrRedirectWrite, err))
	}

	verb := "written to"
	if redirect.Mode == RedirectAppend {
		verb = "appended to"
	}
	return SuccessResult(fmt.Sprintf("Output %s '%s'.", verb, redirect.Target), errText, exitCode)
}

// decodeText decodes captured output as UTF-8, replacing invalid sequences
// with U+FFFD.
func decodeText(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return string(bytes.ToValidUTF8(b, []byte("\uFFFD")))
	}
	return string(out)
}
