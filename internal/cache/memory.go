package cache

import (
	"context"
	"sync"
	"time"

	"github.com/spiffcs/gitgazer/internal/model"
)

// MemoryStore keeps entries in process memory. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	now     Clock
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(ttl time.Duration, clock Clock) *MemoryStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryStore{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     clock,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*model.SuccessResult, bool) {
	s.mu.RLock()
	entry, ok := s.entries[Key(key)]
	s.mu.RUnlock()

	if !ok || !entry.Valid(s.now()) {
		return nil, false
	}
	result := entry.Result
	return &result, true
}

func (s *MemoryStore) Set(_ context.Context, key string, result *model.SuccessResult) error {
	if result == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[Key(key)] = newEntry(result, s.now(), s.ttl)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
	return nil
}

func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	stats := Stats{Backend: BackendMemory, Location: "process memory", Total: len(s.entries)}
	for _, e := range s.entries {
		if e.Valid(now) {
			stats.Valid++
		}
	}
	return stats, nil
}
