package sessionstore

import (
	"context"
	"sync"
)

// MemoryStore keeps the entry in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	entry Entry
	set   bool
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored entry or ErrEmpty.
func (s *MemoryStore) Load(ctx context.Context) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return Entry{}, ErrEmpty
	}
	return s.entry, nil
}

// Save replaces the stored entry.
func (s *MemoryStore) Save(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry = entry
	s.set = true
	return nil
}

// Clear removes the stored entry.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry = Entry{}
	s.set = false
	return nil
}

var _ Store = (*MemoryStore)(nil)
