package platform

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"termexec/internal/messages"

	"github.com/nats-io/nats.go/jetstream"
)

// Health returns 200 OK.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// requestData parses a JSON, multipart or urlencoded body (plus query
// parameters) into a flat map.
func requestData(r *http.Request) (map[string]any, error) {
	data := make(map[string]any)
	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.Contains(contentType, "application/json"):
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			return nil, fmt.Errorf("invalid JSON")
		}
		for key, values := range r.URL.Query() {
			if _, ok := data[key]; !ok && len(values) > 0 {
				data[key] = values[0]
			}
		}
		return data, nil
	case strings.Contains(contentType, "multipart/form-data"):
		// The constant 10 << 20 limits the total memory used for parts to 10MB.
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			return nil, fmt.Errorf("invalid multipart form data")
		}
	default:
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("invalid form data")
		}
	}
	for key, values := range r.Form {
		if len(values) == 1 {
			data[key] = values[0]
		} else {
			data[key] = values
		}
	}
	return data, nil
}

// publishTyped builds messageType from the request, stamps the caller's
// session id on it and publishes it.
func publishTyped(w http.ResponseWriter, r *http.Request, publisher *messages.Publisher, messageType string, data map[string]any) bool {
	sid := SessionID(r)
	if sid == "" {
		http.Error(w, "missing session ID", http.StatusBadRequest)
		return false
	}
	data["session_id"] = sid

	cmd, err := messages.BuildCommand(messageType, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	if err := cmd.Validate(); err != nil {
		http.Error(w, fmt.Sprintf("validation error: %v", err), http.StatusBadRequest)
		return false
	}
	if err := publisher.PublishCommand(r.Context(), cmd); err != nil {
		http.Error(w, fmt.Sprintf("publish error: %v", err), http.StatusInternalServerError)
		return false
	}
	return true
}

// SendCommand handles all typed command submissions. The body names the
// command with _messageType; the session always comes from the cookie.
func SendCommand(js jetstream.JetStream) http.HandlerFunc {
	publisher := messages.NewPublisher(js)

	return func(w http.ResponseWriter, r *http.Request) {
		data, err := requestData(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		messageType, ok := data["_messageType"].(string)
		if !ok {
			http.Error(w, "missing _messageType", http.StatusBadRequest)
			return
		}
		delete(data, "_messageType")

		if !publishTyped(w, r, publisher, messageType, data) {
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "sent",
			"type":   messageType,
		})
	}
}

// TerminalCommandHandler publishes the submitted line to
// terminal.session.<sid>.command.
func TerminalCommandHandler(js jetstream.JetStream) http.HandlerFunc {
	publisher := messages.NewPublisher(js)
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := requestData(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if cmd, _ := data["cmd"].(string); strings.TrimSpace(cmd) == "" {
			http.Error(w, "missing cmd", http.StatusBadRequest)
			return
		}
		if publishTyped(w, r, publisher, "TerminalCommandMessage", data) {
			w.WriteHeader(http.StatusAccepted)
		}
	}
}

// PtyInputHandler forwards keystrokes to the session's running PTY job. Form
// submissions end with Enter; raw=true sends data as is.
func PtyInputHandler(js jetstream.JetStream) http.HandlerFunc {
	publisher := messages.NewPublisher(js)
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := requestData(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		input, _ := data["data"].(string)
		if raw, _ := strconv.ParseBool(fmt.Sprint(data["raw"])); !raw {
			input += "\r"
		}
		data["data"] = input
		delete(data, "raw")
		if publishTyped(w, r, publisher, "TerminalPtyInputCommand", data) {
			w.WriteHeader(http.StatusAccepted)
		}
	}
}

// PtyCancelHandler terminates the session's running PTY job.
func PtyCancelHandler(js jetstream.JetStream) http.HandlerFunc {
	publisher := messages.NewPublisher(js)
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := requestData(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if publishTyped(w, r, publisher, "TerminalPtyCancelCommand", data) {
			w.WriteHeader(http.StatusAccepted)
		}
	}
}

// CompleteHandler asks the engine for path completions; the matches arrive on
// the UI stream.
func CompleteHandler(js jetstream.JetStream) http.HandlerFunc {
	publisher := messages.NewPublisher(js)
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := requestData(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if publishTyped(w, r, publisher, "TerminalCompleteCommand", data) {
			w.WriteHeader(http.StatusAccepted)
		}
	}
}
