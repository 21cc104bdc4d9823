// Package messages provides a centralized schema for all NATS messaging contracts.
//
// This package consolidates the terminal's message types, subject patterns, and
// validation logic into a single source of truth:
//
//   - Typed commands and events with Validate methods
//   - Fluent builders for ergonomic message creation
//   - Subject constants (patterns for consumers) and builder functions
//     (concrete subjects for publishers)
//   - JSON-Schema checks for raw inbound payloads
//   - A Publisher for commands and events on JetStream
//
// # Message Types
//
//   - Commands arrive on the TERMINAL stream ("terminal.>"): a typed line,
//     keystrokes for a running PTY job, a PTY cancel, or a completion request.
//   - Events go to the EVENT stream ("event.>"): line results, PTY job
//     start/output/exit, and completion lists.
//
// Every subject carries the session id as the token after "session", so a
// consumer can filter one session with TerminalSessionEvents(sid).
//
// # Usage Example
//
//	publisher := messages.NewPublisher(js)
//
//	cmd := messages.NewTerminalCommandMessage(sid, "ls -la > listing.txt").
//	    WithCorrelation("req-123")
//	if err := publisher.PublishCommand(ctx, cmd); err != nil {
//	    return err
//	}
//
//	evt := messages.NewTerminalResultEvent(sid, cmd.Cmd, "success").
//	    WithOutput(stdout, stderr, 0).
//	    WithPrompt(prompt)
//	if err := publisher.PublishEvent(ctx, evt); err != nil {
//	    return err
//	}
package messages
