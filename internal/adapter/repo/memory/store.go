// Package memory holds the runtime state in process, for tests.
package memory

import (
	"context"
	"sync"

	"github.com/loathers/cagebot/internal/app/ports"
)

type Store struct {
	mu    sync.RWMutex
	state *ports.SavedState
	saves int
}

func NewStore() *Store {
	return &Store{}
}

// Seed installs a state as if it had been persisted by a prior run.
func (s *Store) Seed(state ports.SavedState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = &state
}

// Saves reports how many times Save has been called.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func (s *Store) Load(_ context.Context) (ports.SavedState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return ports.SavedState{}, ports.ErrNotFound
	}
	return *s.state, nil
}

func (s *Store) Save(_ context.Context, state ports.SavedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := state
	s.state = &copy
	s.saves++
	return nil
}
