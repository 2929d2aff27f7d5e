// Package sync reconciles the local cache with a remote document store. The
// engine is offline-first: local writes flag rows for push, and a periodic
// cycle pushes flagged rows out and pulls newer remote documents in.
package sync

import (
	"context"
	"time"
)

// Document is one remote record in schemaless form. UpdatedAt is the remote
// server timestamp, the ordering key for incremental pulls.
type Document struct {
	ID        string
	Data      map[string]any
	UpdatedAt time.Time
}

// DocumentStore abstracts the remote side of a sync cycle. Set merges fields
// into the document, creating it when absent. UpdatedSince streams documents
// modified strictly after the given time, ascending by update time.
type DocumentStore interface {
	Get(ctx context.Context, id string) (*Document, error)
	Set(ctx context.Context, id string, data map[string]any) error
	UpdatedSince(ctx context.Context, since time.Time) ([]Document, error)
}
