package querycache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	entry   *Entry
	expires time.Time
}

type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	tags    map[string]map[string]struct{}
	stopCh  chan struct{}
	once    sync.Once
}

func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*memoryEntry),
		tags:    make(map[string]map[string]struct{}),
		stopCh:  make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go s.cleanup(cleanupInterval)
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if time.Now().After(e.expires) {
		s.mu.Lock()
		s.removeLocked(key)
		s.mu.Unlock()
		return nil, false, nil
	}
	return e.entry, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, entry *Entry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(key)
	s.entries[key] = &memoryEntry{entry: entry, expires: time.Now().Add(ttl)}
	for _, tag := range entry.Tags {
		keys, ok := s.tags[tag]
		if !ok {
			keys = make(map[string]struct{})
			s.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(key)
	return nil
}

func (s *MemoryStore) InvalidateTags(_ context.Context, tags ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, tag := range tags {
		for key := range s.tags[tag] {
			if s.removeLocked(key) {
				removed++
			}
		}
		delete(s.tags, tag)
	}
	return removed, nil
}

// removeLocked deletes key and unlinks it from every tag set it belongs to.
func (s *MemoryStore) removeLocked(key string) bool {
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	delete(s.entries, key)
	for _, tag := range e.entry.Tags {
		if keys, ok := s.tags[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(s.tags, tag)
			}
		}
	}
	return true
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for key, e := range s.entries {
				if now.After(e.expires) {
					s.removeLocked(key)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stopCh) })
	return nil
}
