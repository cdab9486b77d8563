package store

import (
	"context"
	"sync"

	"github.com/cooksync/internal/document"
)

// MemoryStore keeps document snapshots in process memory. It is the default
// backend for single-node deployments and the test double for everything
// else.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]document.Document
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]document.Document),
	}
}

// LoadDocument retrieves a snapshot by session id.
func (s *MemoryStore) LoadDocument(ctx context.Context, id string) (document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return document.Document{}, ErrSessionNotFound
	}
	return doc, nil
}

// SaveDocument replaces the snapshot for a session id.
func (s *MemoryStore) SaveDocument(ctx context.Context, id string, doc document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[id] = doc
	return nil
}

// DeleteDocument removes a session's snapshot.
func (s *MemoryStore) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs, id)
	return nil
}
