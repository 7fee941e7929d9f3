package api

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/spherical/pdf-reader/internal/present"
)

// ErrTooManySessions is returned when the store is full.
var ErrTooManySessions = errors.New("too many open sessions")

// AdapterFactory builds a fresh reader instance for a session.
type AdapterFactory func(sessionID string) *present.Adapter

// SessionStore keeps one adapter per session in memory.
type SessionStore struct {
	factory AdapterFactory
	max     int

	mu       sync.RWMutex
	sessions map[string]*present.Adapter
}

// NewSessionStore creates a store holding at most max sessions.
func NewSessionStore(factory AdapterFactory, max int) *SessionStore {
	if max < 1 {
		max = 1
	}
	return &SessionStore{
		factory:  factory,
		max:      max,
		sessions: make(map[string]*present.Adapter),
	}
}

// Create opens a new session.
func (s *SessionStore) Create() (string, *present.Adapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) >= s.max {
		return "", nil, ErrTooManySessions
	}

	id := uuid.NewString()
	adapter := s.factory(id)
	s.sessions[id] = adapter
	return id, adapter, nil
}

// Get looks up a session.
func (s *SessionStore) Get(id string) (*present.Adapter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.sessions[id]
	return a, ok
}

// Delete tears a session down. It reports whether the session existed.
func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	a, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		a.Close()
	}
	return ok
}

// Len returns the number of open sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
