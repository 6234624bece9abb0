package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/randomtoy/teamsync/internal/app"
	"github.com/randomtoy/teamsync/internal/domain"
)

// MemoryStore keeps sessions in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*app.Session)}
}

func (s *MemoryStore) Put(_ context.Context, sess *app.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID()] = sess
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*app.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (*app.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	delete(s.sessions, id)
	return sess, nil
}

func (s *MemoryStore) Expire(_ context.Context, cutoff time.Time) ([]*app.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []*app.Session
	for id, sess := range s.sessions {
		if sess.LastActive().Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	return expired, nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
