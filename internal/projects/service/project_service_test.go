package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contribhub/sync-functions/internal/domain"
	"github.com/contribhub/sync-functions/internal/store"
	"github.com/contribhub/sync-functions/internal/store/memstore"
)

type recordingBlobs struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (b *recordingBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, key)
	if err, ok := b.fail[key]; ok {
		return err
	}
	return nil
}

func (b *recordingBlobs) sortedCalls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := append([]string(nil), b.calls...)
	sort.Strings(out)
	return out
}

func TestProjectService_Enrich(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("copies creator profile", func(t *testing.T) {
		docs := memstore.NewDocuments()
		require.NoError(t, docs.Set(ctx, "users/u1", map[string]any{"name": "Ada", "picture": "https://img/ada.png"}))
		require.NoError(t, docs.Set(ctx, "projects/p1", map[string]any{"title": "Bridge"}))

		svc := NewProjectService(docs, &recordingBlobs{})
		outcome, err := svc.Enrich(ctx, EnrichRequest{ProjectID: "p1", CreatorUID: "u1", CreateTime: created})
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeApplied, outcome)

		data, err := docs.Get(ctx, "projects/p1")
		require.NoError(t, err)
		assert.Equal(t, "Bridge", data["title"], "merge must keep other fields")
		assert.Equal(t, "Published", data["status"])
		assert.Equal(t, created, data["createdAt"])
		assert.Equal(t, map[string]any{"uid": "u1", "name": "Ada", "picture": "https://img/ada.png"}, data["creator"])
	})

	t.Run("missing profile writes uid only", func(t *testing.T) {
		docs := memstore.NewDocuments()
		svc := NewProjectService(docs, &recordingBlobs{})

		outcome, err := svc.Enrich(ctx, EnrichRequest{ProjectID: "p1", CreatorUID: "ghost", CreateTime: created})
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeApplied, outcome)

		data, err := docs.Get(ctx, "projects/p1")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"uid": "ghost"}, data["creator"])
		assert.Equal(t, "Published", data["status"])
	})

	t.Run("no creator identity is a no-op", func(t *testing.T) {
		docs := memstore.NewDocuments()
		svc := NewProjectService(docs, &recordingBlobs{})

		outcome, err := svc.Enrich(ctx, EnrichRequest{ProjectID: "p1", CreatorUID: "  "})
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeSkipped, outcome)
		assert.Equal(t, 0, docs.Len())
	})

	t.Run("re-delivery yields the same document", func(t *testing.T) {
		docs := memstore.NewDocuments()
		require.NoError(t, docs.Set(ctx, "users/u1", map[string]any{"name": "Ada"}))
		svc := NewProjectService(docs, &recordingBlobs{})
		req := EnrichRequest{ProjectID: "p1", CreatorUID: "u1", CreateTime: created}

		_, err := svc.Enrich(ctx, req)
		require.NoError(t, err)
		first, err := docs.Get(ctx, "projects/p1")
		require.NoError(t, err)

		_, err = svc.Enrich(ctx, req)
		require.NoError(t, err)
		second, err := docs.Get(ctx, "projects/p1")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("write failure surfaces", func(t *testing.T) {
		docs := &failingDocs{Documents: memstore.NewDocuments(), failMerge: errors.New("unavailable")}
		svc := NewProjectService(docs, &recordingBlobs{})

		_, err := svc.Enrich(ctx, EnrichRequest{ProjectID: "p1", CreatorUID: "u1", CreateTime: created})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unavailable")
	})
}

func TestProjectService_Cleanup(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes canonical and raw references", func(t *testing.T) {
		blobs := &recordingBlobs{}
		svc := NewProjectService(memstore.NewDocuments(), blobs)

		outcome, report, err := svc.Cleanup(ctx, CleanupRequest{
			ProjectID: "p1",
			Snapshot: map[string]any{"images": []any{
				"https://host/v0/b/bucket/o/p1%2Fimg.png?token=abc",
				"https://cdn.example.com/external.png",
			}},
		})
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeApplied, outcome)
		assert.Equal(t, 2, report.Attempted)
		assert.Equal(t, []string{"https://cdn.example.com/external.png", "p1/img.png"}, blobs.sortedCalls())
	})

	t.Run("one failure does not stop the others", func(t *testing.T) {
		blobs := &recordingBlobs{fail: map[string]error{"p1/a.png": errors.New("permission denied")}}
		svc := NewProjectService(memstore.NewDocuments(), blobs).WithMaxParallelDeletes(1)

		_, report, err := svc.Cleanup(ctx, CleanupRequest{
			ProjectID: "p1",
			Snapshot: map[string]any{"images": []any{
				"https://host/v0/b/bucket/o/p1%2Fa.png?t=1",
				"https://host/v0/b/bucket/o/p1%2Fb.png?t=1",
				"https://host/v0/b/bucket/o/p1%2Fc.png?t=1",
			}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "permission denied")
		assert.Equal(t, []string{"p1/a.png", "p1/b.png", "p1/c.png"}, blobs.sortedCalls())
		assert.Equal(t, 1, report.Failed)
		assert.Equal(t, 2, report.Deleted)
	})

	t.Run("raw fallback failures are swallowed", func(t *testing.T) {
		blobs := &recordingBlobs{fail: map[string]error{"https://cdn.example.com/x.png": store.ErrNotFound}}
		svc := NewProjectService(memstore.NewDocuments(), blobs)

		outcome, report, err := svc.Cleanup(ctx, CleanupRequest{
			ProjectID: "p1",
			Snapshot:  map[string]any{"images": []any{"https://cdn.example.com/x.png"}},
		})
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeApplied, outcome)
		assert.Equal(t, 1, report.Swallowed)
	})

	t.Run("already deleted objects count as done", func(t *testing.T) {
		blobs := memstore.NewBlobs()
		svc := NewProjectService(memstore.NewDocuments(), blobs)

		_, report, err := svc.Cleanup(ctx, CleanupRequest{
			ProjectID: "p1",
			Snapshot:  map[string]any{"images": []any{"https://host/v0/b/bucket/o/p1%2Fimg.png?token=1"}},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, report.Missing)
	})

	t.Run("absent snapshot and empty list are no-ops", func(t *testing.T) {
		blobs := &recordingBlobs{}
		svc := NewProjectService(memstore.NewDocuments(), blobs)

		outcome, _, err := svc.Cleanup(ctx, CleanupRequest{ProjectID: "p1"})
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeSkipped, outcome)

		outcome, _, err = svc.Cleanup(ctx, CleanupRequest{ProjectID: "p1", Snapshot: map[string]any{"title": "x"}})
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeSkipped, outcome)

		outcome, _, err = svc.Cleanup(ctx, CleanupRequest{ProjectID: "p1", Snapshot: map[string]any{"images": []any{}}})
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeSkipped, outcome)
		assert.Empty(t, blobs.sortedCalls())
	})
}

// Scenario: p1 is created by u1 with no images, later deleted with one stored image.
func TestProjectService_CreateThenDeleteScenario(t *testing.T) {
	ctx := context.Background()
	docs := memstore.NewDocuments()
	blobs := memstore.NewBlobs("p1/img.png")
	svc := NewProjectService(docs, blobs)

	require.NoError(t, docs.Set(ctx, "users/u1", map[string]any{"name": "Ada", "picture": "pic"}))
	require.NoError(t, docs.Set(ctx, "projects/p1", map[string]any{"title": "Bridge"}))

	_, err := svc.Enrich(ctx, EnrichRequest{ProjectID: "p1", CreatorUID: "u1", CreateTime: time.Now()})
	require.NoError(t, err)

	project, err := docs.Get(ctx, "projects/p1")
	require.NoError(t, err)
	assert.Equal(t, "Published", project["status"])
	assert.Equal(t, "Ada", project["creator"].(map[string]any)["name"])

	project["images"] = []any{"https://host/v0/b/bucket/o/p1%2Fimg.png?token=xyz"}
	require.NoError(t, docs.Delete(ctx, "projects/p1"))

	_, report, err := svc.Cleanup(ctx, CleanupRequest{ProjectID: "p1", Snapshot: project})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Deleted)
	assert.False(t, blobs.Has("p1/img.png"))
}

type failingDocs struct {
	store.Documents
	failMerge error
}

func (f *failingDocs) Merge(ctx context.Context, path string, data map[string]any) error {
	if f.failMerge != nil {
		return f.failMerge
	}
	return f.Documents.Merge(ctx, path, data)
}
