package ui

import (
	"context"
	"fmt"
	"io"

	"termexec/ui/components"

	"github.com/a-h/templ"
)

// DatastarScript is the client bundle matching the server SDK version.
const DatastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0-beta.11/bundles/datastar.js"

// Index renders the terminal page. The body opens the /ui event stream,
// which fills the scrollback and the prompt.
func Index() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>termexec</title>
<script type="module" src="%s"></script>
<style>
body { background: #111; color: #ddd; font-family: monospace; }
pre { margin: 0; white-space: pre-wrap; }
.stderr, .term-error { color: #e66; }
.prompt { color: #6c6; margin-right: .5em; }
.exit-status, .pty-exit, .term-info { color: #999; }
input { background: transparent; color: inherit; border: none; font: inherit; outline: none; width: 70%%; }
</style>
</head>
<body data-on-load="@get('/ui')">
`, DatastarScript)
		if err != nil {
			return err
		}
		if err := components.Scrollback().Render(ctx, w); err != nil {
			return err
		}
		if err := components.Prompt("$ ").Render(ctx, w); err != nil {
			return err
		}
		if err := components.Completions(nil).Render(ctx, w); err != nil {
			return err
		}
		_, err = io.WriteString(w, "\n</body>\n</html>\n")
		return err
	})
}
