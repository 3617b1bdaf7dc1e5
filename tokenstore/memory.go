package tokenstore

import (
	"context"
	"sync"

	"github.com/octabyte/taskdesk/models"
)

// MemoryStore keeps the session for the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	session models.Session
	hub     *hub
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{hub: newHub()}
}

func (s *MemoryStore) Get(_ context.Context) (models.Tokens, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Tokens, nil
}

func (s *MemoryStore) Set(_ context.Context, tokens models.Tokens) error {
	s.update(func(session models.Session) models.Session {
		return merge(session, tokens)
	})
	return nil
}

func (s *MemoryStore) SetUser(_ context.Context, user models.User) error {
	s.update(func(session models.Session) models.Session {
		session.User = &user
		return session
	})
	return nil
}

func (s *MemoryStore) User(_ context.Context) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session.User == nil {
		return nil, nil
	}
	user := *s.session.User
	return &user, nil
}

func (s *MemoryStore) MarkTabScoped(_ context.Context) error {
	s.update(func(session models.Session) models.Session {
		session.TabScoped = true
		return session
	})
	return nil
}

func (s *MemoryStore) Session(_ context.Context) (models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session := s.session
	if session.User != nil {
		user := *session.User
		session.User = &user
	}
	return session, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.update(func(models.Session) models.Session {
		return models.Session{}
	})
	return nil
}

func (s *MemoryStore) HasAccess(_ context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Access != ""
}

func (s *MemoryStore) Watch(ctx context.Context) (<-chan Change, error) {
	return s.hub.subscribe(ctx), nil
}

func (s *MemoryStore) update(fn func(models.Session) models.Session) {
	s.mu.Lock()
	before := s.session
	s.session = fn(before)
	changes := diff(before, s.session)
	s.mu.Unlock()

	if len(changes) > 0 {
		s.hub.publish(changes...)
	}
}
