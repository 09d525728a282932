package gcs

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"

	"github.com/contribhub/sync-functions/internal/store"
)

// Bucket implements store.Blobs on a Cloud Storage bucket.
type Bucket struct {
	handle *storage.BucketHandle
}

func New(handle *storage.BucketHandle) *Bucket {
	return &Bucket{handle: handle}
}

func (b *Bucket) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("delete object: empty key")
	}
	if err := b.handle.Object(key).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return store.ErrNotFound
		}
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}
