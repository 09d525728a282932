package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/contribhub/sync-functions/internal/domain"
	"github.com/contribhub/sync-functions/internal/store"
)

// ContributorService mirrors contributor relationships into the contributor's
// personal namespace and notifies them of changes.
type ContributorService struct {
	docs store.Documents
}

func NewContributorService(docs store.Documents) *ContributorService {
	return &ContributorService{docs: docs}
}

// RelationshipEvent identifies projects/{ProjectID}/contributors/{UserID}.
// Snapshot is the relationship as created; it is unused on deletion.
type RelationshipEvent struct {
	ProjectID  string
	UserID     string
	Snapshot   map[string]any
	CreateTime time.Time
}

// OnCreate writes the Contribution and the request Notification, then completes the
// relationship with the contributor's profile. Writes run in that order and stop at
// the first failure; every write targets a stable key except the notification.
// When the relationship no longer exists the Contribution is removed again and the
// event is skipped.
func (s *ContributorService) OnCreate(ctx context.Context, ev RelationshipEvent) (domain.Outcome, error) {
	logger := zerolog.Ctx(ctx)

	profile, err := s.loadProfile(ctx, ev.UserID)
	if err != nil {
		return "", err
	}
	project, err := s.loadProject(ctx, ev.ProjectID)
	if err != nil {
		return "", err
	}
	if !profile.Exists {
		logger.Warn().Str("user_id", ev.UserID).Msg("contributor profile not found")
	}
	if !project.Exists {
		logger.Warn().Str("project_id", ev.ProjectID).Msg("project not found")
	}

	rel := domain.RelationshipFromData(ev.ProjectID, ev.UserID, ev.Snapshot)

	contribution := domain.Contribution{
		ProjectID:   ev.ProjectID,
		ProjectName: project.Title,
		CreatorName: project.CreatorName(),
		Status:      domain.ContributorInitialized,
		Description: rel.Description,
	}
	contributionPath := domain.ContributionPath(ev.UserID, ev.ProjectID)
	if err := s.docs.Set(ctx, contributionPath, contribution.Fields()); err != nil {
		return "", fmt.Errorf("write contribution %s: %w", contributionPath, err)
	}

	url := domain.ContributionRequestsURL
	if err := s.notify(ctx, ev.UserID, domain.Notification{
		Title:     domain.NotifyContributionRequest,
		URL:       &url,
		Status:    domain.NotificationStatusUnread,
		CreatedAt: ev.CreateTime,
	}); err != nil {
		return "", err
	}

	createdAt := ev.CreateTime
	completed := domain.ContributorRelationship{
		ProjectID:   ev.ProjectID,
		UserID:      ev.UserID,
		Email:       profile.Email,
		Name:        profile.Name,
		Picture:     profile.Picture,
		CreatedAt:   &createdAt,
		Status:      domain.ContributorInitialized,
		Description: rel.Description,
	}
	relPath := domain.ContributorPath(ev.ProjectID, ev.UserID)
	err = s.docs.Update(ctx, relPath, completed.Fields())
	if errors.Is(err, store.ErrNotFound) {
		// The relationship was deleted before this create ran; do not bring it back.
		if err := s.docs.Delete(ctx, contributionPath); err != nil {
			return "", fmt.Errorf("withdraw contribution %s: %w", contributionPath, err)
		}
		logger.Info().
			Str("project_id", ev.ProjectID).
			Str("user_id", ev.UserID).
			Msg("relationship already deleted, contribution withdrawn")
		return domain.OutcomeSkipped, nil
	}
	if err != nil {
		return "", fmt.Errorf("complete relationship %s: %w", relPath, err)
	}

	logger.Info().
		Str("project_id", ev.ProjectID).
		Str("user_id", ev.UserID).
		Msg("contributor initialized")
	return domain.OutcomeApplied, nil
}

// OnDelete removes the mirrored Contribution and notifies the contributor.
func (s *ContributorService) OnDelete(ctx context.Context, ev RelationshipEvent) (domain.Outcome, error) {
	contributionPath := domain.ContributionPath(ev.UserID, ev.ProjectID)
	if err := s.docs.Delete(ctx, contributionPath); err != nil {
		return "", fmt.Errorf("delete contribution %s: %w", contributionPath, err)
	}

	if err := s.notify(ctx, ev.UserID, domain.Notification{
		Title:     domain.NotifyContributionDeleted,
		Status:    domain.NotificationStatusUnread,
		CreatedAt: ev.CreateTime,
	}); err != nil {
		return "", err
	}

	zerolog.Ctx(ctx).Info().
		Str("project_id", ev.ProjectID).
		Str("user_id", ev.UserID).
		Msg("contribution removed")
	return domain.OutcomeApplied, nil
}

// notify appends a notification. Redelivery appends a duplicate.
func (s *ContributorService) notify(ctx context.Context, uid string, n domain.Notification) error {
	col := domain.NotificationsPath(uid)
	if _, err := s.docs.Add(ctx, col, n.Fields()); err != nil {
		return fmt.Errorf("write notification %s: %w", col, err)
	}
	return nil
}

func (s *ContributorService) loadProfile(ctx context.Context, uid string) (domain.Profile, error) {
	data, err := s.docs.Get(ctx, domain.ProfilePath(uid))
	if errors.Is(err, store.ErrNotFound) {
		return domain.ProfileFromData(uid, nil), nil
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("load profile %s: %w", uid, err)
	}
	return domain.ProfileFromData(uid, data), nil
}

func (s *ContributorService) loadProject(ctx context.Context, projectID string) (domain.Project, error) {
	data, err := s.docs.Get(ctx, domain.ProjectPath(projectID))
	if errors.Is(err, store.ErrNotFound) {
		return domain.ProjectFromData(projectID, nil), nil
	}
	if err != nil {
		return domain.Project{}, fmt.Errorf("load project %s: %w", projectID, err)
	}
	return domain.ProjectFromData(projectID, data), nil
}
