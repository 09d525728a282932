// Package memstore is an in-process document and blob store with the same
// semantics as the Firebase-backed stores. It backs STORE_BACKEND=memory and tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/contribhub/sync-functions/internal/store"
)

type Documents struct {
	mu   sync.RWMutex
	docs map[string]map[string]any
}

func NewDocuments() *Documents {
	return &Documents{docs: make(map[string]map[string]any)}
}

func (d *Documents) Get(_ context.Context, path string) (map[string]any, error) {
	if err := checkDocPath(path); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	data, ok := d.docs[path]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyMap(data), nil
}

func (d *Documents) Set(_ context.Context, path string, data map[string]any) error {
	if err := checkDocPath(path); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.docs[path] = copyMap(data)
	return nil
}

func (d *Documents) Merge(_ context.Context, path string, data map[string]any) error {
	if err := checkDocPath(path); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	existing, ok := d.docs[path]
	if !ok {
		existing = make(map[string]any)
	}
	mergeInto(existing, data)
	d.docs[path] = existing
	return nil
}

func (d *Documents) Update(_ context.Context, path string, data map[string]any) error {
	if err := checkDocPath(path); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	existing, ok := d.docs[path]
	if !ok {
		return store.ErrNotFound
	}
	for k, v := range data {
		existing[k] = copyValue(v)
	}
	return nil
}

func (d *Documents) Delete(_ context.Context, path string) error {
	if err := checkDocPath(path); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.docs, path)
	return nil
}

func (d *Documents) Add(_ context.Context, collection string, data map[string]any) (string, error) {
	if err := checkCollectionPath(collection); err != nil {
		return "", err
	}
	id := strings.ReplaceAll(uuid.New().String(), "-", "")

	d.mu.Lock()
	defer d.mu.Unlock()

	d.docs[collection+"/"+id] = copyMap(data)
	return id, nil
}

// List returns the direct children of collection ordered by id.
func (d *Documents) List(_ context.Context, collection string) ([]store.Document, error) {
	if err := checkCollectionPath(collection); err != nil {
		return nil, err
	}
	prefix := collection + "/"

	d.mu.RLock()
	defer d.mu.RUnlock()

	var docs []store.Document
	for path, data := range d.docs {
		id, ok := strings.CutPrefix(path, prefix)
		if !ok || strings.Contains(id, "/") {
			continue
		}
		docs = append(docs, store.Document{ID: id, Path: path, Data: copyMap(data)})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// Len reports the number of stored documents.
func (d *Documents) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.docs)
}

// Blobs keeps object keys only; content is irrelevant to the sync handlers.
type Blobs struct {
	mu      sync.Mutex
	objects map[string]struct{}
}

func NewBlobs(keys ...string) *Blobs {
	b := &Blobs{objects: make(map[string]struct{})}
	for _, k := range keys {
		b.objects[k] = struct{}{}
	}
	return b
}

func (b *Blobs) Has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

func (b *Blobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.objects[key]; !ok {
		return store.ErrNotFound
	}
	delete(b.objects, key)
	return nil
}

func checkDocPath(path string) error {
	if n := segments(path); n == 0 || n%2 != 0 {
		return fmt.Errorf("invalid document path %q", path)
	}
	return nil
}

func checkCollectionPath(path string) error {
	if n := segments(path); n%2 != 1 {
		return fmt.Errorf("invalid collection path %q", path)
	}
	return nil
}

func segments(path string) int {
	if path == "" {
		return 0
	}
	parts := strings.Split(path, "/")
	for _, p := range parts {
		if p == "" {
			return 0
		}
	}
	return len(parts)
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if cur, ok := dst[k].(map[string]any); ok {
				mergeInto(cur, sub)
				continue
			}
			dst[k] = copyMap(sub)
			continue
		}
		dst[k] = copyValue(v)
	}
}

func copyMap(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = copyValue(item)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = item
		}
		return out
	}
	return v
}
