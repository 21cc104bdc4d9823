package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/nats-io/nats.go/jetstream"
)

// SessionsBucket is the KV bucket holding per-session terminal state.
const SessionsBucket = "sessions"

// SessionState is the persisted part of a terminal session. Other keys in the
// stored document are left alone by updates.
type SessionState struct {
	Cwd       string    `json:"cwd,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionStore reads and patches session documents in the sessions bucket.
type SessionStore struct {
	kv jetstream.KeyValue
}

// NewSessionStore wraps an existing KV bucket.
func NewSessionStore(kv jetstream.KeyValue) *SessionStore {
	return &SessionStore{kv: kv}
}

// OpenSessionStore creates (or updates) the sessions bucket and wraps it.
func OpenSessionStore(ctx context.Context, js jetstream.JetStream, storage jetstream.StorageType) (*SessionStore, error) {
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:  SessionsBucket,
		History: 5,
		Storage: storage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s bucket: %w", SessionsBucket, err)
	}
	return NewSessionStore(kv), nil
}

// Load returns the stored state, or the zero state if none exists.
func (s *SessionStore) Load(ctx context.Context, sid string) (SessionState, error) {
	var st SessionState
	entry, err := s.kv.Get(ctx, sid)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("get session %s: %w", sid, err)
	}
	if err := json.Unmarshal(entry.Value(), &st); err != nil {
		return st, fmt.Errorf("decode session %s: %w", sid, err)
	}
	return st, nil
}

// Patch applies an RFC 7386 merge patch to the session document.
func (s *SessionStore) Patch(ctx context.Context, sid string, patch []byte) error {
	current := []byte("{}")
	entry, err := s.kv.Get(ctx, sid)
	switch {
	case err == nil:
		current = entry.Value()
	case !errors.Is(err, jetstream.ErrKeyNotFound):
		return fmt.Errorf("get session %s: %w", sid, err)
	}

	patched, err := jsonpatch.MergePatch(current, patch)
	if err != nil {
		return fmt.Errorf("patch session %s: %w", sid, err)
	}
	if _, err := s.kv.Put(ctx, sid, patched); err != nil {
		return fmt.Errorf("put session %s: %w", sid, err)
	}
	return nil
}

// SaveCwd records the session's working directory.
func (s *SessionStore) SaveCwd(ctx context.Context, sid, cwd string) error {
	patch, err := json.Marshal(SessionState{Cwd: cwd, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return s.Patch(ctx, sid, patch)
}

// Delete forgets a session.
func (s *SessionStore) Delete(ctx context.Context, sid string) error {
	if err := s.kv.Delete(ctx, sid); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("delete session %s: %w", sid, err)
	}
	return nil
}

// Watch streams updates for one session.
func (s *SessionStore) Watch(ctx context.Context, sid string) (jetstream.KeyWatcher, error) {
	return s.kv.Watch(ctx, sid)
}
