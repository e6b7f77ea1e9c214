// Package session keeps interactive viewer sessions.
//
// A session pairs a built document with the layout controller that tracks
// its expanded nodes. The HTTP server creates one per uploaded document and
// addresses it by a random UUID; the terminal viewer persists the expanded
// set between runs with a [FileStore].
//
// # Storage backends
//
//   - [MemoryStore]: live sessions with controllers (server)
//   - [FileStore]: expansion state keyed by document hash (CLI viewer)
//
// # Usage
//
//	store := session.NewMemoryStore(session.DefaultTTL)
//	sess, err := store.Create(doc, ctrl)
//	...
//	err = sess.Do(func(c *collapse.Controller) error {
//	    frames, err := c.Toggle(key)
//	    ...
//	})
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/cratetree/pkg/collapse"
	"github.com/matzehuels/cratetree/pkg/errors"
	"github.com/matzehuels/cratetree/pkg/pipeline"
)

// Default durations.
const (
	// DefaultTTL is how long an idle viewer session is kept.
	DefaultTTL = 30 * time.Minute

	// DefaultCleanupInterval is how often expired sessions are swept.
	DefaultCleanupInterval = time.Minute
)

// Session is one viewer's document and expansion state.
type Session struct {
	ID        string
	Document  *pipeline.Document
	CreatedAt time.Time

	mu         sync.Mutex
	controller *collapse.Controller
	expiresAt  time.Time
}

// Do runs fn with exclusive access to the session's controller.
func (s *Session) Do(fn func(c *collapse.Controller) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.controller)
}

// ExpiresAt returns when the session expires unless touched.
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt())
}

func (s *Session) touch(ttl time.Duration) {
	s.mu.Lock()
	s.expiresAt = time.Now().Add(ttl)
	s.mu.Unlock()
}

// GenerateID creates a random session ID.
func GenerateID() string {
	return uuid.NewString()
}

// MemoryStore holds live sessions in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewMemoryStore creates a store whose sessions expire after ttl without
// access. A non-positive ttl uses DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{sessions: make(map[string]*Session), ttl: ttl}
}

// Create registers a new session for doc and c.
func (m *MemoryStore) Create(doc *pipeline.Document, c *collapse.Controller) (*Session, error) {
	if c == nil {
		return nil, errors.New(errors.ErrCodeNoRoot, "session without controller")
	}
	now := time.Now()
	sess := &Session{
		ID:         GenerateID(),
		Document:   doc,
		CreatedAt:  now,
		controller: c,
		expiresAt:  now.Add(m.ttl),
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return sess, nil
}

// Get returns the session with id and extends its lifetime.
// Missing and expired sessions are reported as SESSION_NOT_FOUND.
func (m *MemoryStore) Get(id string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %q not found", id)
	}
	if sess.IsExpired() {
		m.Delete(id)
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %q expired", id)
	}
	sess.touch(m.ttl)
	return sess, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (m *MemoryStore) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup removes expired sessions and returns how many were removed.
func (m *MemoryStore) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, sess := range m.sessions {
		if sess.IsExpired() {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (m *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Cleanup()
		}
	}
}
