// Package memory provides an in-process persistence.Store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/example/care-alarms/internal/persistence"
)

// Storage keeps values in a map guarded by a read-write mutex.
type Storage struct {
	mu     sync.RWMutex
	values map[string][]byte
	closed bool

	// FailGet and FailSet inject errors for the given keys.
	FailGet map[string]error
	FailSet map[string]error
}

// New returns an empty Storage.
func New() *Storage {
	return &Storage{
		values:  make(map[string][]byte),
		FailGet: make(map[string]error),
		FailSet: make(map[string]error),
	}
}

// Get implements persistence.Store.
func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, persistence.ErrClosed
	}
	if err := s.FailGet[key]; err != nil {
		return nil, err
	}
	value, ok := s.values[key]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

// Set implements persistence.Store.
func (s *Storage) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return persistence.ErrClosed
	}
	if err := s.FailSet[key]; err != nil {
		return err
	}
	s.values[key] = append([]byte(nil), value...)
	return nil
}

// Remove implements persistence.Store.
func (s *Storage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return persistence.ErrClosed
	}
	delete(s.values, key)
	return nil
}

// Keys implements persistence.Store.
func (s *Storage) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, persistence.ErrClosed
	}
	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close marks the storage unusable.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
