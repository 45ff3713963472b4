package testutil

import (
	"context"
	"sync"

	"github.com/roach88/ucibridge/internal/store"
)

// Transcript is an in-memory transcript sink.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Transcript struct {
	mu      sync.Mutex
	entries []store.Entry
	engines map[string]string
}

// NewTranscript creates an empty Transcript.
func NewTranscript() *Transcript {
	return &Transcript{engines: make(map[string]string)}
}

// BeginSession records the engine name for a session. An empty name never
// replaces a known one, matching store.Store.
func (t *Transcript) BeginSession(_ context.Context, sessionID, engine string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if engine != "" || t.engines[sessionID] == "" {
		t.engines[sessionID] = engine
	}
	return nil
}

// Append keeps e.
func (t *Transcript) Append(_ context.Context, e store.Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, e)
	return nil
}

// Entries returns a copy of every appended entry, in order.
func (t *Transcript) Entries() []store.Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]store.Entry(nil), t.entries...)
}

// Engine returns the engine name recorded for sessionID.
func (t *Transcript) Engine(sessionID string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.engines[sessionID]
}

// Reset forgets everything.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
	t.engines = make(map[string]string)
}
