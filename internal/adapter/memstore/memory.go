package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ragchat/internal/domain"
)

// SessionStore keeps conversations in process memory. Sessions idle for
// longer than ttl are treated as gone; a zero ttl keeps them forever.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*domain.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *SessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok || s.expired(session) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}

	messages := make([]domain.Message, len(session.Messages))
	copy(messages, session.Messages)
	return &domain.Session{
		ID:        session.ID,
		Messages:  messages,
		UpdatedAt: session.UpdatedAt,
	}, nil
}

func (s *SessionStore) Append(_ context.Context, id string, messages ...domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || s.expired(session) {
		session = &domain.Session{ID: id}
		s.sessions[id] = session
	}
	session.Messages = append(session.Messages, messages...)
	session.UpdatedAt = s.now()
	return nil
}

func (s *SessionStore) Clear(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Prune drops expired sessions and returns how many were removed.
func (s *SessionStore) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if s.expired(session) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len counts sessions including expired ones not yet pruned.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) expired(session *domain.Session) bool {
	return s.ttl > 0 && s.now().Sub(session.UpdatedAt) > s.ttl
}
