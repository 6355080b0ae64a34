package cache

import (
	"context"
	"maps"
	"sync"
	"time"

	"bdo-market/internal/apperrors"
)

type memoryEntry struct {
	record   map[string]string
	scalar   string
	isScalar bool
	expires  time.Time
}

// MemoryStore is a process-local Store used for dry runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

// SetClock replaces the time source used for expiry.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *MemoryStore) lookup(key string) (memoryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok || (!e.expires.IsZero() && !s.now().Before(e.expires)) {
		return memoryEntry{}, false
	}
	return e, true
}

func (s *MemoryStore) put(key string, e memoryEntry, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}
	s.entries[key] = e
}

func (s *MemoryStore) GetRecord(_ context.Context, key string) (map[string]string, error) {
	e, ok := s.lookup(key)
	if !ok || e.isScalar {
		return nil, apperrors.NewNotFoundError("cache.GetRecord", "no record for "+key, nil)
	}
	return maps.Clone(e.record), nil
}

func (s *MemoryStore) SetRecord(_ context.Context, key string, record map[string]string, ttl time.Duration) error {
	s.put(key, memoryEntry{record: maps.Clone(record)}, ttl)
	return nil
}

func (s *MemoryStore) GetScalar(_ context.Context, key string) (string, error) {
	e, ok := s.lookup(key)
	if !ok || !e.isScalar {
		return "", apperrors.NewNotFoundError("cache.GetScalar", "no value for "+key, nil)
	}
	return e.scalar, nil
}

func (s *MemoryStore) SetScalar(_ context.Context, key, value string, ttl time.Duration) error {
	s.put(key, memoryEntry{scalar: value, isScalar: true}, ttl)
	return nil
}

// Keys returns the live keys, in no particular order.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	keys := make([]string, 0, len(s.entries))
	for k, e := range s.entries {
		if e.expires.IsZero() || now.Before(e.expires) {
			keys = append(keys, k)
		}
	}
	return keys
}

func (s *MemoryStore) Close() error { return nil }
