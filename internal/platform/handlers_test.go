package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"termexec/internal/messages"
	"termexec/internal/runtime"
	"termexec/internal/shell"

	"github.com/gorilla/sessions"
	"github.com/nats-io/nats.go/jetstream"
)

type routerHarness struct {
	js      jetstream.JetStream
	store   *sessions.CookieStore
	handler http.Handler
	cookies []*http.Cookie
}

func newRouterHarness(t *testing.T) *routerHarness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	nc, ns, _, err := RunEmbeddedServer(ctx, EmbeddedServerConfig{
		InProcess: true,
		JetStream: true,
		StoreDir:  t.TempDir(),
	})
	if err != nil {
		t.Fatalf("embedded server: %v", err)
	}
	t.Cleanup(ns.Shutdown)
	t.Cleanup(nc.Close)

	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatal(err)
	}
	if err := runtime.EnsureStreams(ctx, js, jetstream.MemoryStorage); err != nil {
		t.Fatal(err)
	}
	store := sessions.NewCookieStore([]byte("test-secret-key-0123456789abcdef"))
	return &routerHarness{js: js, store: store, handler: NewRouter(js, store, shell.Options{})}
}

// do sends a request, carrying the session cookie from earlier responses.
func (h *routerHarness) do(t *testing.T, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range h.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	if cs := rec.Result().Cookies(); len(cs) > 0 {
		h.cookies = cs
	}
	return rec
}

func (h *routerHarness) form(t *testing.T, target string, vals url.Values) *httptest.ResponseRecorder {
	return h.do(t, http.MethodPost, target, "application/x-www-form-urlencoded", vals.Encode())
}

// sid decodes the session id from the cookie the middleware issued.
func (h *routerHarness) sid(t *testing.T) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range h.cookies {
		req.AddCookie(c)
	}
	sess, err := h.store.Get(req, SessionCookie)
	if err != nil {
		t.Fatalf("decode session cookie: %v", err)
	}
	id, _ := sess.Values["id"].(string)
	if id == "" {
		t.Fatal("no session id in cookie")
	}
	return id
}

func (h *routerHarness) lastPayload(t *testing.T, subject string, v any) {
	t.Helper()
	ctx := context.Background()
	stream, err := h.js.Stream(ctx, runtime.TerminalStream)
	if err != nil {
		t.Fatal(err)
	}
	msg, err := stream.GetLastMsgForSubject(ctx, subject)
	if err != nil {
		t.Fatalf("no message on %s: %v", subject, err)
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		t.Fatal(err)
	}
}

func TestHealth(t *testing.T) {
	h := newRouterHarness(t)
	rec := h.do(t, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestIndexPage(t *testing.T) {
	h := newRouterHarness(t)
	rec := h.do(t, http.MethodGet, "/", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`id="terminal-frozen"`, `id="live-prompt"`, `@get('/ui')`} {
		if !strings.Contains(body, want) {
			t.Errorf("index lacks %s", want)
		}
	}
}

func TestTerminalCommandHandler(t *testing.T) {
	h := newRouterHarness(t)

	if rec := h.form(t, "/terminal", url.Values{"cmd": {"   "}}); rec.Code != http.StatusBadRequest {
		t.Errorf("blank cmd status = %d, want 400", rec.Code)
	}

	rec := h.form(t, "/terminal", url.Values{"cmd": {"ls -la"}})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	sid := h.sid(t)

	var got messages.TerminalCommandMessage
	h.lastPayload(t, messages.TerminalCommandSubject(sid), &got)
	if got.Cmd != "ls -la" {
		t.Errorf("published cmd = %q", got.Cmd)
	}

	// The cookie is reused rather than reissued.
	rec = h.do(t, http.MethodPost, "/terminal", "application/json", `{"cmd":"pwd"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("json status = %d", rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("session cookie reissued")
	}
	h.lastPayload(t, messages.TerminalCommandSubject(sid), &got)
	if got.Cmd != "pwd" {
		t.Errorf("published cmd = %q", got.Cmd)
	}
}

func TestPtyHandlers(t *testing.T) {
	h := newRouterHarness(t)

	if rec := h.form(t, "/terminal/pty/input", url.Values{"job_id": {"j1"}, "data": {"q"}}); rec.Code != http.StatusAccepted {
		t.Fatalf("input status = %d: %s", rec.Code, rec.Body.String())
	}
	sid := h.sid(t)
	var in messages.TerminalPtyInputCommand
	h.lastPayload(t, messages.TerminalPtyInputSubject(sid), &in)
	if in.Data != "q\r" || in.JobID != "j1" {
		t.Errorf("input = %+v, want q plus Enter for j1", in)
	}

	h.do(t, http.MethodPost, "/terminal/pty/input", "application/json", `{"data":"\u001b","raw":true}`)
	h.lastPayload(t, messages.TerminalPtyInputSubject(sid), &in)
	if in.Data != "\x1b" {
		t.Errorf("raw input = %q", in.Data)
	}

	if rec := h.do(t, http.MethodPost, "/terminal/pty/cancel?job_id=j1", "", ""); rec.Code != http.StatusAccepted {
		t.Fatalf("cancel status = %d", rec.Code)
	}
	var cancel messages.TerminalPtyCancelCommand
	h.lastPayload(t, messages.TerminalPtyCancelSubject(sid), &cancel)
	if cancel.JobID != "j1" {
		t.Errorf("cancel = %+v", cancel)
	}
}

func TestSendCommand(t *testing.T) {
	h := newRouterHarness(t)

	rec := h.do(t, http.MethodPost, "/command/complete", "application/json",
		`{"_messageType":"TerminalCompleteCommand","partial":"sr","session_id":"someone-else"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp["status"] != "sent" {
		t.Errorf("response = %q", rec.Body.String())
	}
	var got messages.TerminalCompleteCommand
	h.lastPayload(t, messages.TerminalCompleteSubject(h.sid(t)), &got)
	if got.Partial != "sr" {
		t.Errorf("partial = %q", got.Partial)
	}

	for name, body := range map[string]string{
		"unknown type": `{"_messageType":"Nope"}`,
		"missing type": `{"cmd":"ls"}`,
		"bad json":     `{`,
	} {
		if rec := h.do(t, http.MethodPost, "/command/x", "application/json", body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, rec.Code)
		}
	}
}
