package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	maxEntries      = 10000
	cleanupInterval = time.Minute
	entryTTL        = 5 * time.Minute
)

type memoryEntry struct {
	timestamps []time.Time
	lastStamp  time.Time
	lastAccess time.Time
}

// MemoryStore is a single-instance Store. Counters reset with the process,
// which is acceptable for tests and single-node deployments.
type MemoryStore struct {
	mu          sync.Mutex
	entries     map[string]*memoryEntry
	lastCleanup time.Time
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:     make(map[string]*memoryEntry),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

func (s *MemoryStore) Count(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanup()

	now := s.now()
	entry := s.touch(key, now)
	s.prune(entry, now, window)

	oldestExpiry := now.Add(window)
	if len(entry.timestamps) > 0 {
		oldestExpiry = entry.timestamps[0].Add(window)
	}

	return len(entry.timestamps), oldestExpiry, nil
}

func (s *MemoryStore) Record(ctx context.Context, key string, window time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry := s.touch(key, now)
	s.prune(entry, now, window)
	entry.timestamps = append(entry.timestamps, now)
	return nil
}

func (s *MemoryStore) Last(ctx context.Context, key string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return time.Time{}, nil
	}
	return entry.lastStamp, nil
}

func (s *MemoryStore) Stamp(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.touch(key, s.now())
	entry.lastStamp = s.now()
	return nil
}

func (s *MemoryStore) touch(key string, now time.Time) *memoryEntry {
	entry, ok := s.entries[key]
	if !ok {
		entry = &memoryEntry{}
		s.entries[key] = entry
	}
	entry.lastAccess = now
	return entry
}

func (s *MemoryStore) prune(entry *memoryEntry, now time.Time, window time.Duration) {
	windowStart := now.Add(-window)
	fresh := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if ts.After(windowStart) {
			fresh = append(fresh, ts)
		}
	}
	entry.timestamps = fresh
}

func (s *MemoryStore) cleanup() {
	now := s.now()
	if now.Sub(s.lastCleanup) < cleanupInterval {
		return
	}
	s.lastCleanup = now

	for key, entry := range s.entries {
		if now.Sub(entry.lastAccess) > entryTTL {
			delete(s.entries, key)
		}
	}

	if len(s.entries) > maxEntries {
		drop := len(s.entries) / 5
		for key := range s.entries {
			delete(s.entries, key)
			drop--
			if drop <= 0 {
				break
			}
		}
	}
}
