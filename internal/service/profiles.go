package service

import (
	"context"
	"fmt"

	"github.com/and161185/studyflow/internal/errs"
	"github.com/and161185/studyflow/internal/model"
	"github.com/and161185/studyflow/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// ProfileService stores the per-user profile document.
type ProfileService interface {
	// Set merges p into the stored profile of userID.
	Set(ctx context.Context, userID uuid.UUID, p model.Profile) error
	// Get loads the profile.
	Get(ctx context.Context, userID uuid.UUID) (model.Profile, error)
}

type ProfileServiceImpl struct {
	repo repository.ProfileRepository
}

// NewProfileService constructs ProfileService.
func NewProfileService(repo repository.ProfileRepository) *ProfileServiceImpl {
	return &ProfileServiceImpl{repo: repo}
}

// Set upserts the profile; empty fields keep their stored values.
func (s *ProfileServiceImpl) Set(ctx context.Context, userID uuid.UUID, p model.Profile) error {
	if userID == uuid.Nil {
		return fmt.Errorf("%w: empty userID", errs.ErrValidation)
	}
	p.UserID = userID
	return s.repo.Merge(ctx, p)
}

// Get loads the profile of userID.
func (s *ProfileServiceImpl) Get(ctx context.Context, userID uuid.UUID) (model.Profile, error) {
	if userID == uuid.Nil {
		return model.Profile{}, fmt.Errorf("%w: empty userID", errs.ErrValidation)
	}
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return model.Profile{}, err
	}
	return *p, nil
}
