package runtime

import (
	"context"

	"termexec/internal/messages"
	"termexec/internal/shell"
	components "termexec/ui/components"
	"termexec/util"

	"github.com/a-h/templ"
	"github.com/nats-io/nats.go/jetstream"
	datastar "github.com/starfederation/datastar/sdk/go"
)

// ─────────────────── LINE RESULTS ───────────────────

func renderResult(ctx context.Context, msg jetstream.Msg, sse *datastar.ServerSentEventGenerator, evt messages.TerminalResultEvent) error {
	if evt.Kind == messages.KindClear {
		if err := sse.MergeFragmentTempl(components.Scrollback(), datastar.WithSelectorID(components.ScrollbackID)); err != nil {
			return err
		}
		return sse.MergeFragmentTempl(components.Prompt(evt.Prompt), datastar.WithSelectorID(components.PromptID))
	}

	// 1. append the frozen line
	if err := appendScrollback(sse, components.CommandLine(evt.Prompt, evt.Cmd)); err != nil {
		return err
	}

	// 2. append its outcome
	switch evt.Kind {
	case string(shell.KindSuccess):
		if err := appendScrollback(sse, components.OutputBlock(evt.Output, evt.Error, evt.ExitCode)); err != nil {
			return err
		}
	case string(shell.KindError):
		if err := appendScrollback(sse, components.ErrorLine(evt.Message, evt.Category)); err != nil {
			return err
		}
	case string(shell.KindDirectoryChanged):
		if err := appendScrollback(sse, components.InfoLine(evt.Path)); err != nil {
			return err
		}
	case string(shell.KindTuiRequired):
		// the PTY started event brings the screen
		return nil
	case messages.KindHelp:
		if err := appendScrollback(sse, components.HelpBlock(util.Markdown(evt.Output))); err != nil {
			return err
		}
	case messages.KindExit:
		return appendScrollback(sse, components.InfoLine(evt.Output))
	}

	// 3. replace live prompt
	return sse.MergeFragmentTempl(components.Prompt(evt.Prompt), datastar.WithSelectorID(components.PromptID))
}

// ─────────────────── PTY JOBS ───────────────────────

func renderPtyStarted(ctx context.Context, msg jetstream.Msg, sse *datastar.ServerSentEventGenerator, evt messages.TerminalPtyStartedEvent) error {
	if err := appendScrollback(sse, components.PtyScreen(evt.JobID, evt.Cmd)); err != nil {
		return err
	}
	return sse.MergeFragmentTempl(components.PtyInputBar(evt.JobID), datastar.WithSelectorID(components.PromptID))
}

func renderPtyOutput(ctx context.Context, msg jetstream.Msg, sse *datastar.ServerSentEventGenerator, evt messages.TerminalPtyOutputEvent) error {
	return sse.MergeFragmentTempl(
		components.PtyChunk(evt.Data),
		datastar.WithSelectorID(components.PtyScreenID(evt.JobID)),
		datastar.WithMergeAppend(),
	)
}

func renderPtyExit(ctx context.Context, msg jetstream.Msg, sse *datastar.ServerSentEventGenerator, evt messages.TerminalPtyExitEvent) error {
	if err := appendScrollback(sse, components.PtyExitLine(evt.ExitCode, evt.Error)); err != nil {
		return err
	}
	return sse.MergeFragmentTempl(components.Prompt(evt.Prompt), datastar.WithSelectorID(components.PromptID))
}

// ─────────────────── COMPLETIONS ────────────────────

func renderCompletions(ctx context.Context, msg jetstream.Msg, sse *datastar.ServerSentEventGenerator, evt messages.TerminalCompletionsEvent) error {
	return sse.MergeFragmentTempl(components.Completions(evt.Matches), datastar.WithSelectorID(components.CompletionsID))
}

type fragmentMerger interface {
	MergeFragmentTempl(c templ.Component, opts ...datastar.MergeFragmentOption) error
}

func appendScrollback(sse fragmentMerger, c templ.Component) error {
	return sse.MergeFragmentTempl(c, datastar.WithSelectorID(components.ScrollbackID), datastar.WithMergeAppend())
}

// SessionSubjects lists the event subjects the UI of one session follows.
func SessionSubjects(sid string) []string {
	return []string{
		messages.TerminalResultSubject(sid),
		messages.TerminalPtyStartedSubject(sid, "*"),
		messages.TerminalPtyOutputSubject(sid, "*"),
		messages.TerminalPtyExitSubject(sid, "*"),
		messages.TerminalCompletionsSubject(sid),
	}
}

func init() {
	eventKinds = []eventKind{
		{messages.TerminalResultSubjectPattern, decoded(renderResult)},
		{messages.TerminalPtyStartedSubjectPattern, decoded(renderPtyStarted)},
		{messages.TerminalPtyOutputSubjectPattern, decoded(renderPtyOutput)},
		{messages.TerminalPtyExitSubjectPattern, decoded(renderPtyExit)},
		{messages.TerminalCompletionsSubjectPattern, decoded(renderCompletions)},
	}
}
