package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/contribhub/sync-functions/internal/domain"
	"github.com/contribhub/sync-functions/internal/store"
)

const defaultMaxParallelDeletes = 16

// ProjectService keeps project documents and their stored images in sync with
// project lifecycle events.
type ProjectService struct {
	docs        store.Documents
	blobs       store.Blobs
	maxParallel int
}

// NewProjectService creates a new project service
func NewProjectService(docs store.Documents, blobs store.Blobs) *ProjectService {
	return &ProjectService{
		docs:        docs,
		blobs:       blobs,
		maxParallel: defaultMaxParallelDeletes,
	}
}

// WithMaxParallelDeletes bounds concurrent image deletions per project. n <= 0 removes the bound.
func (s *ProjectService) WithMaxParallelDeletes(n int) *ProjectService {
	s.maxParallel = n
	return s
}

// EnrichRequest describes a freshly created project.
type EnrichRequest struct {
	ProjectID  string
	CreatorUID string
	CreateTime time.Time
}

// Enrich attaches the creator snapshot, creation time and lifecycle status to a new
// project. It is skipped when the creating context carried no authenticated identity.
// A missing profile still produces a creator with only the uid set.
func (s *ProjectService) Enrich(ctx context.Context, req EnrichRequest) (domain.Outcome, error) {
	logger := zerolog.Ctx(ctx)

	uid := strings.TrimSpace(req.CreatorUID)
	if uid == "" {
		logger.Info().Str("project_id", req.ProjectID).Msg("no authenticated creator, skipping enrichment")
		return domain.OutcomeSkipped, nil
	}

	profile, err := s.loadProfile(ctx, uid)
	if err != nil {
		return "", err
	}
	if !profile.Exists {
		logger.Warn().Str("uid", uid).Msg("creator profile not found, writing uid only")
	}

	creator := domain.Creator{UID: uid, Name: profile.Name, Picture: profile.Picture}
	fields := map[string]any{
		domain.FieldCreator:   creator.Fields(),
		domain.FieldCreatedAt: req.CreateTime,
		domain.FieldStatus:    domain.ProjectStatusPublished,
	}

	path := domain.ProjectPath(req.ProjectID)
	if err := s.docs.Merge(ctx, path, fields); err != nil {
		return "", fmt.Errorf("enrich project %s: %w", req.ProjectID, err)
	}

	logger.Info().Str("project_id", req.ProjectID).Str("uid", uid).Msg("project enriched")
	return domain.OutcomeApplied, nil
}

// CleanupRequest carries the final snapshot of a deleted project. Snapshot is nil
// when the deleted document had no data.
type CleanupRequest struct {
	ProjectID string
	Snapshot  map[string]any
}

// CleanupReport summarizes one teardown.
type CleanupReport struct {
	Attempted int
	Deleted   int
	Missing   int
	Swallowed int
	Failed    int
}

type deleteResult struct {
	key       string
	canonical bool
	err       error
}

// Cleanup deletes every stored image referenced by a deleted project. Deletions run
// concurrently and each one is attempted regardless of the others. Canonical
// references that fail (other than already-missing objects) fail the invocation;
// raw-string fallbacks are best effort.
func (s *ProjectService) Cleanup(ctx context.Context, req CleanupRequest) (domain.Outcome, CleanupReport, error) {
	logger := zerolog.Ctx(ctx)

	if req.Snapshot == nil {
		logger.Info().Str("project_id", req.ProjectID).Msg("deleted project had no data, nothing to clean")
		return domain.OutcomeSkipped, CleanupReport{}, nil
	}

	project := domain.ProjectFromData(req.ProjectID, req.Snapshot)
	refs := make([]string, 0, len(project.Images))
	for _, ref := range project.Images {
		if strings.TrimSpace(ref) != "" {
			refs = append(refs, ref)
		}
	}
	if len(refs) == 0 {
		return domain.OutcomeSkipped, CleanupReport{}, nil
	}

	results := make([]deleteResult, len(refs))

	var g errgroup.Group
	if s.maxParallel > 0 {
		g.SetLimit(s.maxParallel)
	}
	for i, ref := range refs {
		g.Go(func() error {
			key, canonical := ObjectKey(ref)
			results[i] = deleteResult{key: key, canonical: canonical, err: s.blobs.Delete(ctx, key)}
			return nil
		})
	}
	_ = g.Wait()

	report := CleanupReport{Attempted: len(results)}
	var errs []error
	for _, r := range results {
		switch {
		case r.err == nil:
			report.Deleted++
		case errors.Is(r.err, store.ErrNotFound) && r.canonical:
			report.Missing++
		case !r.canonical:
			report.Swallowed++
			logger.Warn().Err(r.err).Str("ref", r.key).Msg("non-canonical image reference not deleted")
		default:
			report.Failed++
			errs = append(errs, fmt.Errorf("delete %s: %w", r.key, r.err))
		}
	}

	logger.Info().
		Str("project_id", req.ProjectID).
		Int("attempted", report.Attempted).
		Int("deleted", report.Deleted).
		Int("missing", report.Missing).
		Int("swallowed", report.Swallowed).
		Int("failed", report.Failed).
		Msg("project images cleaned")

	if len(errs) > 0 {
		return "", report, fmt.Errorf("cleanup project %s: %w", req.ProjectID, errors.Join(errs...))
	}
	return domain.OutcomeApplied, report, nil
}

func (s *ProjectService) loadProfile(ctx context.Context, uid string) (domain.Profile, error) {
	data, err := s.docs.Get(ctx, domain.ProfilePath(uid))
	if errors.Is(err, store.ErrNotFound) {
		return domain.ProfileFromData(uid, nil), nil
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("load profile %s: %w", uid, err)
	}
	return domain.ProfileFromData(uid, data), nil
}
