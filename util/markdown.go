package util

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	hl "github.com/yuin/goldmark-highlighting/v2"
)

// -----------------------------------------------------------------------------
// tiny cache so we only convert each document once per process
// -----------------------------------------------------------------------------
var (
	cache sync.Map // map[string]string

	md = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			hl.NewHighlighting(hl.WithStyle("github")), // inline colours
		),
	)
)

// MarkdownHTML converts markdown source to HTML. Fenced code blocks with a
// language tag are syntax highlighted.
func MarkdownHTML(src string) (string, error) {
	if v, ok := cache.Load(src); ok {
		return v.(string), nil
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	html := buf.String()
	cache.Store(src, html)
	return html, nil
}

// Markdown renders markdown source as a ready-to-embed component.
func Markdown(src string) templ.Component {
	html, err := MarkdownHTML(src)
	if err != nil {
		return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error { return err })
	}
	return templ.Raw(html)
}
