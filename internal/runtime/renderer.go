package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	components "termexec/ui/components"
	"termexec/util"

	"github.com/a-h/templ"
	"github.com/nats-io/nats.go/jetstream"
	datastar "github.com/starfederation/datastar/sdk/go"
)

// RenderFunc writes one terminal event onto a datastar stream.
type RenderFunc func(ctx context.Context, msg jetstream.Msg, sse *datastar.ServerSentEventGenerator) error

// Renderer draws the events published on Pattern.
type Renderer struct {
	Pattern string
	Render  RenderFunc
}

// Matches reports whether an event on subj belongs to r.
func (r Renderer) Matches(subj string) bool {
	return util.SubjectMatches(r.Pattern, subj)
}

// eventKind binds a terminal event subject pattern to its renderer.
type eventKind struct {
	pattern string
	render  RenderFunc
}

var eventKinds []eventKind

// decoded adapts a handler taking the event payload. Payloads with fields the
// event type does not declare are refused.
func decoded[T any](handler func(context.Context, jetstream.Msg, *datastar.ServerSentEventGenerator, T) error) RenderFunc {
	return func(ctx context.Context, msg jetstream.Msg, sse *datastar.ServerSentEventGenerator) error {
		var evt T
		dec := json.NewDecoder(bytes.NewReader(msg.Data()))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&evt); err != nil {
			return fmt.Errorf("decode %T: %w", evt, err)
		}
		return handler(ctx, msg, sse, evt)
	}
}

// ForSubjects returns one renderer per subscribed subject that has a known
// event kind, followed by the catch-all renderer.
func ForSubjects(subjects []string) []Renderer {
	out := make([]Renderer, 0, len(subjects)+1)
	seen := make(map[string]bool, len(subjects))
	for _, subj := range subjects {
		if seen[subj] {
			continue
		}
		for _, k := range eventKinds {
			if util.SubjectMatches(k.pattern, subj) {
				seen[subj] = true
				out = append(out, Renderer{Pattern: subj, Render: k.render})
				break
			}
		}
	}
	return append(out, Renderer{Pattern: ">", Render: renderUnknown})
}

// Dispatch renders msg with the first renderer in rs that claims its subject.
func Dispatch(ctx context.Context, rs []Renderer, msg jetstream.Msg, sse *datastar.ServerSentEventGenerator) error {
	for _, r := range rs {
		if r.Matches(msg.Subject()) {
			return r.Render(ctx, msg, sse)
		}
	}
	return nil
}

// renderUnknown appends the raw subject and payload to the scrollback.
func renderUnknown(_ context.Context, msg jetstream.Msg, sse *datastar.ServerSentEventGenerator) error {
	raw := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, "<pre class=\"unrendered\">%s\n%s</pre>",
			templ.EscapeString(msg.Subject()), templ.EscapeString(string(msg.Data())))
		return err
	})
	return sse.MergeFragmentTempl(raw,
		datastar.WithSelectorID(components.ScrollbackID),
		datastar.WithMergeAppend(),
	)
}
