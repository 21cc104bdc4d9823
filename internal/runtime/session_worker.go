package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"termexec/internal/messages"
	"termexec/internal/shell"

	"github.com/rs/xid"
)

// sessionWorker runs the lines of one terminal session, one at a time.
type sessionWorker struct {
	id     string
	engine *TerminalEngine
	sess   *shell.Session
	queue  chan messages.TerminalCommandMessage
	logger *slog.Logger
	cancel context.CancelFunc

	mu  sync.Mutex
	job *ptyJob
}

// ptyJob is a running full-screen application.
type ptyJob struct {
	id  string
	sid string
	pty *shell.PtySession
}

func (w *sessionWorker) run(ctx context.Context) {
	defer func() {
		if err := w.sess.Close(); err != nil {
			w.logger.Warn("terminal: close session", "err", err)
		}
		w.logger.Info("terminal: session worker stopped")
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case in := <-w.queue:
			if ctx.Err() != nil {
				return
			}
			w.execute(ctx, in)
		}
	}
}

func (w *sessionWorker) activeJob() *ptyJob {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.job
}

func (w *sessionWorker) setJob(job *ptyJob) {
	w.mu.Lock()
	w.job = job
	w.mu.Unlock()
}

// execute runs one line and publishes its events. TUI lines hold the worker
// until the PTY job is reaped.
func (w *sessionWorker) execute(ctx context.Context, in messages.TerminalCommandMessage) {
	started := time.Now()

	if cmd, args := w.engine.engineCommand(in.Cmd); cmd != nil {
		res := cmd.Execute(ctx, w, args)
		evt := messages.NewTerminalResultEvent(w.id, in.Cmd, res.Kind).WithCorrelation(in.CorrelationID)
		evt.Output = res.Output
		w.publishResult(ctx, evt, started)
		if res.Kind == messages.KindExit {
			w.engine.retireWorker(w)
		}
		return
	}

	res := w.sess.Execute(ctx, in.Cmd)
	w.logger.Debug("terminal: line executed", "cmd", in.Cmd, "kind", res.Kind)

	switch res.Kind {
	case shell.KindDirectoryChanged:
		if err := w.engine.store.SaveCwd(ctx, w.id, res.Path); err != nil {
			w.logger.Warn("terminal: persist cwd", "err", err)
		}
	case shell.KindTuiRequired:
		w.runPty(ctx, in, res, started)
		return
	}
	w.publishResult(ctx, resultEvent(w.id, in, res), started)
}

// runPty starts the PTY job for a tui_required result and streams its output
// as numbered chunks until it exits.
func (w *sessionWorker) runPty(ctx context.Context, in messages.TerminalCommandMessage, res shell.Result, started time.Time) {
	te := w.engine
	p, err := w.sess.StartPty(ctx, res.Command, te.cfg.Shell.Pty)
	if err != nil {
		w.publishResult(ctx, resultEvent(w.id, in, shell.ErrorResult(err)), started)
		return
	}

	job := &ptyJob{id: xid.New().String(), sid: w.id, pty: p}
	p.ID = job.id
	te.jobs.Store(job.id, job)
	w.setJob(job)
	PtyActive.Inc()
	defer func() {
		PtyActive.Dec()
		w.setJob(nil)
		te.jobs.Delete(job.id)
	}()

	w.publishResult(ctx, resultEvent(w.id, in, res), started)

	opts := te.cfg.Shell.Pty
	startedEvt := messages.NewTerminalPtyStartedEvent(w.id, job.id, res.Command, p.PID()).
		WithSize(orDefault(opts.Rows, shell.DefaultRows), orDefault(opts.Cols, shell.DefaultCols))
	if err := te.publisher.PublishEvent(ctx, startedEvt); err != nil {
		w.logger.Warn("terminal: publish pty started", "job", job.id, "err", err)
	}

	var seq uint64
	for chunk := range p.Output() {
		seq++
		evt := messages.NewTerminalPtyOutputEvent(w.id, job.id, seq, chunk)
		if err := te.publisher.PublishEvent(ctx, evt); err != nil {
			w.logger.Debug("terminal: publish pty output", "job", job.id, "seq", seq, "err", err)
		}
	}

	code, werr := p.Wait()
	PtyBytesTotal.Add(float64(p.BytesRead()))

	exitEvt := messages.NewTerminalPtyExitEvent(w.id, job.id, code).
		WithBytes(p.BytesRead()).
		WithPrompt(w.sess.Prompt())
	if werr != nil {
		exitEvt = exitEvt.WithError(werr.Error())
	}
	if err := te.publisher.PublishEvent(ctx, exitEvt); err != nil {
		w.logger.Warn("terminal: publish pty exit", "job", job.id, "err", err)
	}
	w.logger.Info("terminal: pty job finished", "job", job.id, "exit", code, "chunks", seq)
}

func orDefault(v, def uint16) uint16 {
	if v == 0 {
		return def
	}
	return v
}
