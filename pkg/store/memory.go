package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/matzehuels/fluidcad/pkg/interchange"
	"github.com/matzehuels/fluidcad/pkg/observability"
)

// MemoryStore keeps documents in process memory. Documents are stored
// encoded so callers never share state with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	data    []byte
	updated time.Time
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Save stores doc under name.
func (s *MemoryStore) Save(ctx context.Context, name string, doc interchange.DeviceV1) error {
	if err := validName(name); err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries[name] = memoryEntry{data: data, updated: time.Now().UTC()}
	s.mu.Unlock()
	observability.Store().OnStoreSave(ctx, BackendMemory, len(data))
	return nil
}

// Load returns the document stored under name.
func (s *MemoryStore) Load(ctx context.Context, name string) (interchange.DeviceV1, error) {
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return interchange.DeviceV1{}, loaded(ctx, BackendMemory, notFound(name))
	}
	var doc interchange.DeviceV1
	if err := json.Unmarshal(e.data, &doc); err != nil {
		return interchange.DeviceV1{}, err
	}
	return doc, loaded(ctx, BackendMemory, nil)
}

// List returns all entries ordered by name.
func (s *MemoryStore) List(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.entries))
	for name, e := range s.entries {
		out = append(out, Entry{Name: name, UpdatedAt: e.updated})
	}
	sortEntries(out)
	return out, nil
}

// Delete removes the document stored under name.
func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[name]; !ok {
		return notFound(name)
	}
	delete(s.entries, name)
	return nil
}

// Close does nothing for the memory store.
func (s *MemoryStore) Close() error { return nil }

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
