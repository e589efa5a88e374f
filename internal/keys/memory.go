package keys

import (
	"context"
	"sync"

	"learner-feature/internal/apperr"
)

// MemoryStore is a process-local Store. Usage logs are ring buffers.
type MemoryStore struct {
	mu    sync.RWMutex
	keys  map[string]*APIKey
	usage map[string]*usageRing
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		keys:  make(map[string]*APIKey),
		usage: make(map[string]*usageRing),
	}
}

func (s *MemoryStore) Create(_ context.Context, key *APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key.Key]; ok {
		return apperr.NewValidationError("key", "token already exists")
	}
	s.keys[key.Key] = key.Clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (*APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.keys[token]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return k.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, key *APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key.Key]; !ok {
		return apperr.ErrNotFound
	}
	s.keys[key.Key] = key.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[token]; !ok {
		return apperr.ErrNotFound
	}
	delete(s.keys, token)
	delete(s.usage, token)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]*APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*APIKey, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, k.Clone())
	}
	return out, nil
}

func (s *MemoryStore) ListByOwner(_ context.Context, ownerID string) ([]*APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*APIKey
	for _, k := range s.keys {
		if k.OwnerID == ownerID {
			out = append(out, k.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) FindActiveByProject(_ context.Context, projectID string) (*APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range s.keys {
		if k.ProjectID == projectID && k.Active {
			return k.Clone(), nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (s *MemoryStore) AppendUsage(_ context.Context, token string, rec UsageRecord, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[token]; !ok {
		return apperr.ErrNotFound
	}
	ring, ok := s.usage[token]
	if !ok {
		ring = newUsageRing(keep)
		s.usage[token] = ring
	} else {
		ring.resize(keep)
	}
	ring.push(rec)
	return nil
}

func (s *MemoryStore) RecentUsage(_ context.Context, token string, limit int) ([]UsageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ring, ok := s.usage[token]
	if !ok {
		return []UsageRecord{}, nil
	}
	return ring.recent(limit), nil
}
