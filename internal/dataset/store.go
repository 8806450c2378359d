package dataset

import (
	"context"
	"errors"
	"sync"
)

// Store holds the latest snapshot behind a read lock. Writes happen at
// startup and whenever the refresher completes a reload.
type Store struct {
	mu     sync.RWMutex
	snap   Snapshot
	loaded bool
}

// NewStore creates an empty Store; CheckReadiness fails until the first
// Replace.
func NewStore() *Store {
	return &Store{}
}

// Replace installs a new snapshot atomically.
func (s *Store) Replace(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	s.loaded = true
}

// Snapshot returns the current snapshot. Callers must treat the row slices
// as read-only.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// CheckReadiness reports whether a dataset has been loaded.
func (s *Store) CheckReadiness(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return errors.New("dataset has not been loaded yet")
	}
	return nil
}
