package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"termexec/internal/messages"
	"termexec/internal/shell"
	"termexec/util"

	"github.com/nats-io/nats.go/jetstream"
)

// Stream names.
const (
	TerminalStream = "TERMINAL"
	EventStream    = "EVENT"
)

// EngineConfig configures a TerminalEngine.
type EngineConfig struct {
	// Shell is the template for every new terminal session. Dir is only the
	// starting directory; a session restored from KV resumes where it was.
	Shell shell.Options

	// QueueSize bounds the pending lines per session. A full queue makes the
	// engine Nak the line so JetStream redelivers it later.
	QueueSize int

	// Storage for the streams and the sessions bucket.
	Storage jetstream.StorageType

	// RedeliverDelay is the Nak delay for a line that did not fit the queue.
	RedeliverDelay time.Duration
}

func (c EngineConfig) withDefaults() EngineConfig {
	if c.Shell.Interpreter == "" {
		c.Shell.Interpreter = shell.DefaultInterpreter
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	if c.RedeliverDelay <= 0 {
		c.RedeliverDelay = time.Second
	}
	return c
}

// TerminalEngine interprets terminal.session.*.* commands. Every session gets
// one worker goroutine that runs its lines in arrival order; results and PTY
// output are published to event.terminal.session.*.
type TerminalEngine struct {
	js        jetstream.JetStream
	publisher *messages.Publisher
	store     *SessionStore
	cfg       EngineConfig
	commands  map[string]TerminalCommand
	ctx       context.Context

	mu      sync.Mutex
	workers map[string]*sessionWorker
	wg      sync.WaitGroup

	jobs     sync.Map // jobID → *ptyJob
	consumes []jetstream.ConsumeContext
}

func NewTerminalEngine(js jetstream.JetStream, cfg EngineConfig) *TerminalEngine {
	te := &TerminalEngine{
		js:        js,
		publisher: messages.NewPublisher(js),
		cfg:       cfg.withDefaults(),
		workers:   make(map[string]*sessionWorker),
	}
	te.commands = map[string]TerminalCommand{}
	for _, c := range []TerminalCommand{
		&HelpCommand{engine: te},
		&ClearCommand{engine: te, name: "clear"},
		&ClearCommand{engine: te, name: "cls"},
		&ExitCommand{engine: te},
	} {
		te.commands[c.Name()] = c
	}
	return te
}

// EnsureStreams creates the TERMINAL work-queue stream and the EVENT stream.
func EnsureStreams(ctx context.Context, js jetstream.JetStream, storage jetstream.StorageType) error {
	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      TerminalStream,
		Subjects:  []string{messages.TerminalStreamSubjects},
		Retention: jetstream.WorkQueuePolicy,
		Storage:   storage,
	}); err != nil {
		return fmt.Errorf("create %s stream: %w", TerminalStream, err)
	}
	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     EventStream,
		Subjects: []string{messages.EventStreamSubjects},
		Storage:  storage,
	}); err != nil {
		return fmt.Errorf("create %s stream: %w", EventStream, err)
	}
	return nil
}

// Start sets up streams, the sessions bucket and the consumers, then returns.
// Everything stops when ctx is done.
func (te *TerminalEngine) Start(ctx context.Context) error {
	if err := EnsureStreams(ctx, te.js, te.cfg.Storage); err != nil {
		return err
	}
	store, err := OpenSessionStore(ctx, te.js, te.cfg.Storage)
	if err != nil {
		return err
	}
	te.store = store
	te.ctx = ctx

	if err := te.setupConsumer(ctx, "TERMINAL_CMD", []string{messages.TerminalCommandSubjectPattern}, te.handleCommand); err != nil {
		return err
	}
	if err := te.setupConsumer(ctx, "TERMINAL_CTL", []string{
		messages.TerminalPtyInputSubjectPattern,
		messages.TerminalPtyCancelSubjectPattern,
		messages.TerminalCompleteSubjectPattern,
	}, te.handleControl); err != nil {
		return err
	}

	go func() { <-ctx.Done(); te.stopAllJobs() }()
	return nil
}

func (te *TerminalEngine) setupConsumer(ctx context.Context, name string, subjects []string, handler func(context.Context, jetstream.Msg)) error {
	cons, err := te.js.CreateOrUpdateConsumer(ctx, TerminalStream, jetstream.ConsumerConfig{
		Durable:        name,
		AckPolicy:      jetstream.AckExplicitPolicy,
		FilterSubjects: subjects,
		DeliverPolicy:  jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return fmt.Errorf("create %s consumer: %w", name, err)
	}
	cc, err := cons.Consume(func(msg jetstream.Msg) { handler(ctx, msg) })
	if err != nil {
		return fmt.Errorf("consume %s: %w", name, err)
	}
	te.mu.Lock()
	te.consumes = append(te.consumes, cc)
	te.mu.Unlock()
	return nil
}

// Wait blocks until every session worker has exited.
func (te *TerminalEngine) Wait() { te.wg.Wait() }

func (te *TerminalEngine) handleCommand(ctx context.Context, msg jetstream.Msg) {
	sid, err := messages.SessionIDFromSubject(msg.Subject())
	if err != nil {
		slog.Warn("terminal: bad subject", "subj", msg.Subject(), "err", err)
		_ = msg.Term()
		return
	}
	if err := messages.ValidatePayload(messages.TerminalCommandSubjectPattern, msg.Data()); err != nil {
		slog.Warn("terminal: bad cmd payload", "sid", sid, "err", err)
		_ = msg.Term()
		return
	}
	var in messages.TerminalCommandMessage
	if err := json.Unmarshal(msg.Data(), &in); err != nil {
		slog.Warn("terminal: bad cmd payload", "sid", sid, "err", err)
		_ = msg.Term()
		return
	}
	in.SessionID = sid

	te.mu.Lock()
	w := te.workerLocked(ctx, sid)
	var queued bool
	select {
	case w.queue <- in:
		queued = true
	default:
	}
	te.mu.Unlock()

	if !queued {
		slog.Warn("terminal: session queue full, redelivering", "sid", sid, "cmd", in.Cmd)
		_ = msg.NakWithDelay(te.cfg.RedeliverDelay)
		return
	}
	_ = msg.Ack()
}

func (te *TerminalEngine) handleControl(ctx context.Context, msg jetstream.Msg) {
	subj := msg.Subject()
	sid, err := messages.SessionIDFromSubject(subj)
	if err != nil {
		slog.Warn("terminal: bad subject", "subj", subj, "err", err)
		_ = msg.Term()
		return
	}

	pattern, _ := util.FirstMatch(subj,
		messages.TerminalPtyInputSubjectPattern,
		messages.TerminalPtyCancelSubjectPattern,
		messages.TerminalCompleteSubjectPattern,
	)
	if err := messages.ValidatePayload(pattern, msg.Data()); err != nil {
		slog.Warn("terminal: bad control payload", "sid", sid, "subj", subj, "err", err)
		_ = msg.Term()
		return
	}

	switch pattern {
	case messages.TerminalPtyInputSubjectPattern:
		var in messages.TerminalPtyInputCommand
		_ = json.Unmarshal(msg.Data(), &in)
		if job := te.activeJob(sid, in.JobID); job != nil {
			if _, err := job.pty.Write([]byte(in.Data)); err != nil {
				slog.Debug("terminal: pty input dropped", "sid", sid, "job", job.id, "err", err)
			}
		}

	case messages.TerminalPtyCancelSubjectPattern:
		var in messages.TerminalPtyCancelCommand
		_ = json.Unmarshal(msg.Data(), &in)
		if job := te.activeJob(sid, in.JobID); job != nil {
			slog.Info("terminal: cancel requested", "sid", sid, "job", job.id)
			job.pty.Terminate()
		}

	case messages.TerminalCompleteSubjectPattern:
		var in messages.TerminalCompleteCommand
		_ = json.Unmarshal(msg.Data(), &in)
		matches := te.worker(ctx, sid).sess.Complete(in.Partial)
		evt := messages.NewTerminalCompletionsEvent(sid, in.Partial, matches)
		if err := te.publisher.PublishEvent(ctx, evt); err != nil {
			slog.Warn("terminal: publish completions", "sid", sid, "err", err)
			_ = msg.Nak()
			return
		}
	}
	_ = msg.Ack()
}

// activeJob returns the running PTY job of sid, optionally pinned to jobID.
func (te *TerminalEngine) activeJob(sid, jobID string) *ptyJob {
	te.mu.Lock()
	w := te.workers[sid]
	te.mu.Unlock()
	if w == nil {
		return nil
	}
	job := w.activeJob()
	if job == nil || (jobID != "" && job.id != jobID) {
		return nil
	}
	return job
}

// worker returns the worker of sid, creating and starting it on first use.
// A new worker resumes in the directory persisted for the session.
func (te *TerminalEngine) worker(ctx context.Context, sid string) *sessionWorker {
	te.mu.Lock()
	defer te.mu.Unlock()
	return te.workerLocked(ctx, sid)
}

// workerLocked is worker with te.mu held.
func (te *TerminalEngine) workerLocked(ctx context.Context, sid string) *sessionWorker {
	if w, ok := te.workers[sid]; ok {
		return w
	}

	logger := slog.Default().With("sid", sid)
	opts := te.cfg.Shell
	opts.Logger = logger
	if st, err := te.store.Load(ctx, sid); err != nil {
		logger.Warn("terminal: load session state", "err", err)
	} else if st.Cwd != "" {
		if info, err := os.Stat(st.Cwd); err == nil && info.IsDir() {
			opts.Dir = st.Cwd
		}
	}

	wctx, cancel := context.WithCancel(ctx)
	w := &sessionWorker{
		id:     sid,
		engine: te,
		sess:   shell.NewSession(opts),
		queue:  make(chan messages.TerminalCommandMessage, te.cfg.QueueSize),
		logger: logger,
		cancel: cancel,
	}
	te.workers[sid] = w
	SessionWorkers.Inc()

	te.wg.Add(1)
	go func() {
		defer te.wg.Done()
		w.run(wctx)
	}()
	logger.Info("terminal: session worker started", "dir", w.sess.Dir())
	return w
}

// retireWorker stops w after its current line. Lines already accepted into
// its queue move, in order, to a fresh worker for the same session.
func (te *TerminalEngine) retireWorker(w *sessionWorker) {
	te.mu.Lock()
	defer te.mu.Unlock()
	if te.workers[w.id] != w {
		return
	}
	delete(te.workers, w.id)
	w.cancel()
	SessionWorkers.Dec()

	var next *sessionWorker
	for {
		select {
		case in := <-w.queue:
			if next == nil {
				next = te.workerLocked(te.ctx, w.id)
			}
			next.queue <- in
		default:
			if next != nil {
				w.logger.Info("terminal: pending lines moved to new worker", "count", len(next.queue))
			}
			return
		}
	}
}

// stopAllJobs terminates running PTY jobs and stops consuming when the
// engine shuts down.
func (te *TerminalEngine) stopAllJobs() {
	slog.Info("Stopping all terminal jobs")
	te.mu.Lock()
	for _, cc := range te.consumes {
		cc.Stop()
	}
	te.consumes = nil
	te.mu.Unlock()

	count := 0
	te.jobs.Range(func(key, value any) bool {
		if job, ok := value.(*ptyJob); ok {
			job.pty.Terminate()
		}
		count++
		return true
	})
	slog.Info("All terminal jobs stopped", "count", count)
}

// publishResult publishes the outcome of one line with the current prompt.
func (w *sessionWorker) publishResult(ctx context.Context, evt *messages.TerminalResultEvent, started time.Time) {
	evt.WithPrompt(w.sess.Prompt()).WithDuration(time.Since(started))
	CommandsTotal.WithLabelValues(evt.Kind, evt.Category).Inc()
	CommandDuration.WithLabelValues(evt.Kind).Observe(time.Since(started).Seconds())
	if err := w.engine.publisher.PublishEvent(ctx, evt); err != nil {
		w.logger.Warn("terminal: publish result", "kind", evt.Kind, "err", err)
	}
}

// resultEvent converts a shell result into its event form.
func resultEvent(sid string, in messages.TerminalCommandMessage, res shell.Result) *messages.TerminalResultEvent {
	evt := messages.NewTerminalResultEvent(sid, in.Cmd, string(res.Kind)).WithCorrelation(in.CorrelationID)
	switch res.Kind {
	case shell.KindSuccess:
		evt.WithOutput(res.Output, res.Error, res.ExitCode)
	case shell.KindDirectoryChanged:
		evt.WithPath(res.Path)
	case shell.KindError:
		evt.WithError(res.Message, string(shell.Category(res.Err)))
	case shell.KindTuiRequired:
		evt.WithTui(res.Reason, res.Command)
	}
	return evt
}

// engineCommand returns the engine-level command named by line, if any.
func (te *TerminalEngine) engineCommand(line string) (TerminalCommand, []string) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil, nil
	}
	cmd, ok := te.commands[strings.ToLower(args[0])]
	if !ok {
		return nil, nil
	}
	return cmd, args
}
