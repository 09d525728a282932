package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/contribhub/sync-functions/internal/domain"
	"github.com/contribhub/sync-functions/internal/store"
)

// UserService mirrors identity-provider accounts into users/{uid}.
type UserService struct {
	docs store.Documents
}

func NewUserService(docs store.Documents) *UserService {
	return &UserService{docs: docs}
}

// OnIdentityCreate writes the profile for a new account, replacing any previous one.
func (s *UserService) OnIdentityCreate(ctx context.Context, id domain.Identity) (domain.Outcome, error) {
	if strings.TrimSpace(id.UID) == "" {
		return "", fmt.Errorf("identity uid required")
	}

	profile := domain.Profile{
		ID:           id.UID,
		Email:        id.Email,
		Name:         id.DisplayName,
		Picture:      id.PhotoURL,
		CreationTime: id.CreationTime,
		Status:       domain.ProfileStatusActive,
	}

	path := domain.ProfilePath(id.UID)
	if err := s.docs.Set(ctx, path, profile.Fields()); err != nil {
		return "", fmt.Errorf("write profile %s: %w", path, err)
	}

	zerolog.Ctx(ctx).Info().Str("uid", id.UID).Msg("profile created")
	return domain.OutcomeApplied, nil
}

// OnIdentityDelete removes the profile. Personal sub-collections are left in place.
func (s *UserService) OnIdentityDelete(ctx context.Context, uid string) (domain.Outcome, error) {
	if strings.TrimSpace(uid) == "" {
		return "", fmt.Errorf("identity uid required")
	}

	path := domain.ProfilePath(uid)
	if err := s.docs.Delete(ctx, path); err != nil {
		return "", fmt.Errorf("delete profile %s: %w", path, err)
	}

	zerolog.Ctx(ctx).Info().Str("uid", uid).Msg("profile deleted")
	return domain.OutcomeApplied, nil
}
