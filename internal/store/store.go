package store

import (
	"context"

	"github.com/cooksync/internal/document"
)

// Store persists one canonical Document snapshot per session identifier.
// No history is kept: SaveDocument replaces the previous snapshot.
// This abstraction allows swapping implementations (memory, Redis,
// Cassandra) without changing the session layer.
type Store interface {
	// LoadDocument retrieves the current snapshot for a session.
	// Returns ErrSessionNotFound when no snapshot has been saved yet;
	// callers treat that as "lazily create a fresh document", never as a
	// fatal error.
	LoadDocument(ctx context.Context, id string) (document.Document, error)

	// SaveDocument replaces the snapshot for a session.
	SaveDocument(ctx context.Context, id string, doc document.Document) error

	// DeleteDocument removes a session's snapshot (cleanup only).
	DeleteDocument(ctx context.Context, id string) error
}

// ErrSessionNotFound signals that no snapshot exists for an identifier.
var ErrSessionNotFound = &StoreError{Message: "session not found"}

// StoreError represents a storage error.
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}
