package personastore

import (
	"context"
	"sync"

	"github.com/yanqian/ai-fitcoach/internal/domain/persona"
)

// MemoryStore is an in-memory persona store for tests and local runs.
type MemoryStore struct {
	mu       sync.RWMutex
	personas map[string]persona.Persona
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{personas: make(map[string]persona.Persona)}
}

// Save implements persona.Store.
func (s *MemoryStore) Save(_ context.Context, p persona.Persona) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.personas[p.ID] = clone(p)
	return nil
}

// Get implements persona.Store.
func (s *MemoryStore) Get(_ context.Context, id string) (persona.Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.personas[id]
	if !ok {
		return persona.Persona{}, persona.ErrNotFound
	}
	return clone(p), nil
}

// List implements persona.Store.
func (s *MemoryStore) List(_ context.Context) ([]persona.Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]persona.Persona, 0, len(s.personas))
	for _, p := range s.personas {
		out = append(out, clone(p))
	}
	return out, nil
}

// Delete implements persona.Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.personas[id]; !ok {
		return persona.ErrNotFound
	}
	delete(s.personas, id)
	return nil
}

func clone(p persona.Persona) persona.Persona {
	p.Catchphrases = append([]string(nil), p.Catchphrases...)
	return p
}

var _ persona.Store = (*MemoryStore)(nil)
