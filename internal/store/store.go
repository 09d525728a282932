// Package store defines the document and blob store contracts the sync
// handlers depend on. Backends translate their native not-found into ErrNotFound.
package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// Document is one entry of a collection listing.
type Document struct {
	ID   string
	Path string
	Data map[string]any
}

// Documents is a hierarchical document store addressed by slash-separated paths
// (users/{uid}, users/{uid}/contributions/{projectId}, ...).
type Documents interface {
	// Get returns ErrNotFound when the document does not exist.
	Get(ctx context.Context, path string) (map[string]any, error)
	// Set replaces the document.
	Set(ctx context.Context, path string, data map[string]any) error
	// Merge updates only the given fields, nested maps included. A missing document is created.
	Merge(ctx context.Context, path string, data map[string]any) error
	// Update replaces the given top-level fields of an existing document and
	// returns ErrNotFound, writing nothing, when the document does not exist.
	Update(ctx context.Context, path string, data map[string]any) error
	// Delete succeeds when the document is already gone.
	Delete(ctx context.Context, path string) error
	// Add creates a document with a generated id in the collection.
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	List(ctx context.Context, collection string) ([]Document, error)
}

// Blobs deletes binary objects by key. Delete returns ErrNotFound for unknown keys.
type Blobs interface {
	Delete(ctx context.Context, key string) error
}
