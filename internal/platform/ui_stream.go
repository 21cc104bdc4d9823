package platform

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"termexec/internal/runtime"
	"termexec/internal/shell"
	components "termexec/ui/components"

	"github.com/nats-io/nats.go/jetstream"
	datastar "github.com/starfederation/datastar/sdk/go"
)

// initialPrompt computes the prompt a session shows before its first line,
// resuming the persisted directory when there is one.
func initialPrompt(ctx context.Context, store *runtime.SessionStore, sid string, opts shell.Options) string {
	if store != nil {
		if st, err := store.Load(ctx, sid); err == nil && st.Cwd != "" {
			opts.Dir = st.Cwd
		}
	}
	return shell.NewSession(opts).Prompt()
}

// UIStream is the SSE handler for /ui. It replays the session's terminal
// events from the start of the EVENT stream and then follows new ones. The
// stream ends when the client goes away or the session state is deleted.
func UIStream(js jetstream.JetStream, opts shell.Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := SessionID(r)
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		var store *runtime.SessionStore
		kv, err := js.KeyValue(ctx, runtime.SessionsBucket)
		if err != nil {
			slog.Warn("UIStream: sessions bucket unavailable", "sid", sid, "err", err)
		} else {
			store = runtime.NewSessionStore(kv)
		}

		sse := datastar.NewSSE(w, r)
		if err := sse.MergeFragmentTempl(components.Scrollback()); err != nil {
			return
		}
		_ = sse.MergeFragmentTempl(components.Prompt(initialPrompt(ctx, store, sid, opts)))

		subs := runtime.SessionSubjects(sid)
		renderers := runtime.ForSubjects(subs)

		cons, err := js.OrderedConsumer(ctx, runtime.EventStream, jetstream.OrderedConsumerConfig{
			FilterSubjects: subs,
			DeliverPolicy:  jetstream.DeliverAllPolicy,
		})
		if err != nil {
			slog.Warn("UIStream: create consumer", "sid", sid, "err", err)
			return
		}

		// The response writer must not be touched once the handler returns.
		var mu sync.Mutex
		done := false
		defer func() {
			mu.Lock()
			done = true
			mu.Unlock()
		}()

		cc, err := cons.Consume(func(msg jetstream.Msg) {
			mu.Lock()
			defer mu.Unlock()
			if done {
				return
			}
			if err := runtime.Dispatch(ctx, renderers, msg, sse); err != nil {
				slog.Warn("render", "subj", msg.Subject(), "err", err)
			}
		})
		if err != nil {
			slog.Warn("UIStream: consume", "sid", sid, "err", err)
			return
		}
		defer cc.Stop()

		if store != nil {
			watcher, err := store.Watch(ctx, sid)
			if err != nil {
				slog.Warn("UIStream: watch session", "sid", sid, "err", err)
			} else {
				defer watcher.Stop()
				go func() {
					for update := range watcher.Updates() {
						if update == nil {
							continue
						}
						if update.Operation() == jetstream.KeyValueDelete || update.Operation() == jetstream.KeyValuePurge {
							slog.Info("UIStream: session ended", "sid", sid)
							cancel()
							return
						}
					}
				}()
			}
		}

		<-ctx.Done() // Wait for disconnect
	}
}
