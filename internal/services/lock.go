package services

import "sync"

// SessionLocks serializes the read-mutate-persist sequence per session id.
// Without it concurrent requests for one session can lose updates, since
// every save rewrites the whole snapshot. One instance must be shared by
// every service that mutates session records; chat, recommendation, and
// upload requests for the same session otherwise race each other.
type SessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSessionLocks() *SessionLocks {
	return &SessionLocks{locks: map[string]*sync.Mutex{}}
}

func (s *SessionLocks) Lock(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}
