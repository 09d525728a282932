// Package reconcile repairs Contributions left behind when a relationship was
// deleted but the mirrored Contribution was not.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/contribhub/sync-functions/internal/domain"
	"github.com/contribhub/sync-functions/internal/store"
)

const defaultUserConcurrency = 8

// Report counts one sweep.
type Report struct {
	Users    int `json:"users"`
	Scanned  int `json:"scanned"`
	Orphaned int `json:"orphaned"`
	Deleted  int `json:"deleted"`
	Failed   int `json:"failed"`
}

type Sweeper struct {
	docs        store.Documents
	limiter     *rate.Limiter
	concurrency int
}

// NewSweeper throttles deletions to deletesPerSecond.
func NewSweeper(docs store.Documents, deletesPerSecond float64) *Sweeper {
	return &Sweeper{
		docs:        docs,
		limiter:     rate.NewLimiter(rate.Limit(deletesPerSecond), 1),
		concurrency: defaultUserConcurrency,
	}
}

// Run deletes every users/{uid}/contributions/{projectId} whose
// projects/{projectId}/contributors/{uid} no longer exists. Per-user failures are
// counted and joined into the returned error; the sweep continues past them.
func (s *Sweeper) Run(ctx context.Context) (Report, error) {
	logger := zerolog.Ctx(ctx)

	users, err := s.docs.List(ctx, domain.UsersCollection)
	if err != nil {
		return Report{}, fmt.Errorf("list users: %w", err)
	}

	var (
		mu     sync.Mutex
		report = Report{Users: len(users)}
		errs   []error
	)
	merge := func(r Report, err error) {
		mu.Lock()
		defer mu.Unlock()
		report.Scanned += r.Scanned
		report.Orphaned += r.Orphaned
		report.Deleted += r.Deleted
		report.Failed += r.Failed
		if err != nil {
			errs = append(errs, err)
		}
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, u := range users {
		g.Go(func() error {
			merge(s.sweepUser(ctx, u.ID))
			return nil
		})
	}
	_ = g.Wait()

	logger.Info().
		Int("users", report.Users).
		Int("scanned", report.Scanned).
		Int("orphaned", report.Orphaned).
		Int("deleted", report.Deleted).
		Int("failed", report.Failed).
		Msg("contribution sweep finished")

	return report, errors.Join(errs...)
}

func (s *Sweeper) sweepUser(ctx context.Context, uid string) (Report, error) {
	var r Report

	contributions, err := s.docs.List(ctx, domain.ContributionsPath(uid))
	if err != nil {
		r.Failed++
		return r, fmt.Errorf("list contributions of %s: %w", uid, err)
	}

	var errs []error
	for _, c := range contributions {
		r.Scanned++

		_, err := s.docs.Get(ctx, domain.ContributorPath(c.ID, uid))
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			r.Failed++
			errs = append(errs, fmt.Errorf("check relationship %s/%s: %w", c.ID, uid, err))
			continue
		}

		r.Orphaned++
		if err := s.limiter.Wait(ctx); err != nil {
			r.Failed++
			errs = append(errs, err)
			break
		}
		if err := s.docs.Delete(ctx, domain.ContributionPath(uid, c.ID)); err != nil {
			r.Failed++
			errs = append(errs, fmt.Errorf("delete orphan %s: %w", domain.ContributionPath(uid, c.ID), err))
			continue
		}
		r.Deleted++
		zerolog.Ctx(ctx).Info().Str("user_id", uid).Str("project_id", c.ID).Msg("orphan contribution deleted")
	}
	return r, errors.Join(errs...)
}
