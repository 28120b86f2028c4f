// Package memory provides the default in-process session store.
package memory

import (
	"context"
	"sync"

	"github.com/quizdesk/quizdesk/internal/model"
)

// Store is an in-memory implementation of session.Store.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*model.SessionState
}

func New() *Store {
	return &Store{sessions: make(map[string]*model.SessionState)}
}

func (s *Store) Get(_ context.Context, token string) (*model.SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[token], nil
}

func (s *Store) Put(_ context.Context, token string, state *model.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = state
	return nil
}

func (s *Store) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
