package components

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Element ids the SSE stream merges into.
const (
	ScrollbackID  = "terminal-frozen"
	PromptID      = "live-prompt"
	CompletionsID = "completions"
)

// PtyScreenID is the id of the element holding one PTY job's output.
func PtyScreenID(jobID string) string { return "pty-" + jobID }

func esc(s string) string { return templ.EscapeString(s) }

// Scrollback renders an empty scrollback container.
func Scrollback() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div id="%s" class="scrollback"></div>`, ScrollbackID)
		return err
	})
}

// CommandLine renders an executed line with the prompt it was typed at.
func CommandLine(prompt, cmd string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="term-line"><span class="prompt">%s</span><span class="cmd">%s</span></div>`,
			esc(prompt), esc(cmd))
		return err
	})
}

// OutputBlock renders captured stdout and stderr; a non-zero exit status is
// shown after them.
func OutputBlock(stdout, stderr string, exitCode int) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="term-output">`)
		if stdout != "" {
			fmt.Fprintf(&b, `<pre class="stdout">%s</pre>`, esc(stdout))
		}
		if stderr != "" {
			fmt.Fprintf(&b, `<pre class="stderr">%s</pre>`, esc(stderr))
		}
		if exitCode != 0 {
			fmt.Fprintf(&b, `<span class="exit-status">exit %d</span>`, exitCode)
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ErrorLine renders a failed line.
func ErrorLine(message, category string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="term-error" data-category="%s">%s</div>`, esc(category), esc(message))
		return err
	})
}

// InfoLine renders a short status message.
func InfoLine(text string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="term-info">%s</div>`, esc(text))
		return err
	})
}

// HelpBlock wraps rendered help HTML.
func HelpBlock(body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div class="term-help">`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// Prompt renders the live input line.
func Prompt(prompt string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<form id="%s" class="prompt-line" data-on-submit="@post('/terminal', {contentType: 'form'})">`+
			`<label class="prompt" for="cmd">%s</label>`+
			`<input id="cmd" name="cmd" autocomplete="off" autofocus>`+
			`</form>`, PromptID, esc(prompt))
		return err
	})
}

// PtyScreen renders the container a PTY job's output is appended to.
func PtyScreen(jobID, command string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<pre id="%s" class="pty" data-command="%s"></pre>`, PtyScreenID(jobID), esc(command))
		return err
	})
}

// PtyChunk renders one chunk of PTY output.
func PtyChunk(data string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<span>`+esc(data)+`</span>`)
		return err
	})
}

// PtyInputBar replaces the prompt while a PTY job runs: typed text is sent
// to the job as keystrokes and the button cancels it.
func PtyInputBar(jobID string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<form id="%s" class="pty-input" data-on-submit="@post('/terminal/pty/input', {contentType: 'form'})">`+
			`<input type="hidden" name="job_id" value="%s">`+
			`<input name="data" autocomplete="off" autofocus>`+
			`<button type="button" data-on-click="@post('/terminal/pty/cancel?job_id=%s')">cancel</button>`+
			`</form>`, PromptID, esc(jobID), esc(jobID))
		return err
	})
}

// PtyExitLine renders the exit status of a PTY job.
func PtyExitLine(exitCode int, errText string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		msg := fmt.Sprintf("[process exited %d]", exitCode)
		if errText != "" {
			msg += " " + errText
		}
		_, err := fmt.Fprintf(w, `<div class="pty-exit">%s</div>`, esc(msg))
		return err
	})
}

// Completions renders completion candidates.
func Completions(matches []string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<ul id="%s" class="completions">`, CompletionsID)
		for _, m := range matches {
			fmt.Fprintf(&b, `<li>%s</li>`, esc(m))
		}
		b.WriteString(`</ul>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
