package storage

import (
	"context"
	"slices"
	"sync"

	"learner-feature/internal/apperr"
)

// MemoryProjectStore keeps projects in process memory. It backs the memory key store driver.
type MemoryProjectStore struct {
	mu       sync.RWMutex
	projects map[string]ProjectRecord
}

func NewMemoryProjectStore() *MemoryProjectStore {
	return &MemoryProjectStore{projects: make(map[string]ProjectRecord)}
}

func (s *MemoryProjectStore) Create(_ context.Context, p *ProjectRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; ok {
		return apperr.NewValidationError("id", "project already exists")
	}
	s.projects[p.ID] = *p
	return nil
}

func (s *MemoryProjectStore) Get(_ context.Context, id string) (*ProjectRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryProjectStore) ListByOwner(_ context.Context, ownerID string) ([]ProjectRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ProjectRecord
	for _, p := range s.projects {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b ProjectRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (s *MemoryProjectStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.projects), nil
}
