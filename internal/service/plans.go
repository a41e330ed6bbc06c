package service

import (
	"context"
	"fmt"
	"time"

	"github.com/and161185/studyflow/internal/errs"
	"github.com/and161185/studyflow/internal/live"
	"github.com/and161185/studyflow/internal/model"
	"github.com/and161185/studyflow/internal/repository"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// PlanService defines the owner-scoped study plan collection.
type PlanService interface {
	// List returns the owner's plans ordered by start time.
	List(ctx context.Context, ownerID uuid.UUID) ([]model.Plan, error)
	// Create stores a new plan; the store assigns ID and creation time.
	Create(ctx context.Context, ownerID uuid.UUID, p model.Plan) (model.Plan, error)
	// Update replaces all mutable fields of an existing plan.
	Update(ctx context.Context, ownerID uuid.UUID, p model.Plan) error
	// Delete removes a plan.
	Delete(ctx context.Context, ownerID, planID uuid.UUID) error
}

type PlanServiceImpl struct {
	repo repository.PlanRepository
	pub  live.Publisher
	log  *zap.Logger
	now  func() time.Time
}

// NewPlanService constructs PlanService. Every successful mutation is published to pub.
func NewPlanService(repo repository.PlanRepository, pub live.Publisher, log *zap.Logger) *PlanServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &PlanServiceImpl{repo: repo, pub: pub, log: log, now: time.Now}
}

// List returns every plan of the owner.
func (s *PlanServiceImpl) List(ctx context.Context, ownerID uuid.UUID) ([]model.Plan, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty ownerID", errs.ErrValidation)
	}
	return s.repo.List(ctx, ownerID)
}

// Create assigns identity fields and inserts the plan.
func (s *PlanServiceImpl) Create(ctx context.Context, ownerID uuid.UUID, p model.Plan) (model.Plan, error) {
	if ownerID == uuid.Nil {
		return model.Plan{}, fmt.Errorf("%w: empty ownerID", errs.ErrValidation)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return model.Plan{}, err
	}
	p.ID = id
	p.OwnerID = ownerID
	p.CreatedAt = s.now().UTC()
	if err := s.repo.Create(ctx, &p); err != nil {
		return model.Plan{}, err
	}
	s.changed(ctx, ownerID)
	return p, nil
}

// Update overwrites the stored plan; owner and creation time stay as stored.
func (s *PlanServiceImpl) Update(ctx context.Context, ownerID uuid.UUID, p model.Plan) error {
	if ownerID == uuid.Nil || p.ID == uuid.Nil {
		return fmt.Errorf("%w: empty ownerID/id", errs.ErrValidation)
	}
	p.OwnerID = ownerID
	if err := s.repo.Replace(ctx, &p); err != nil {
		return err
	}
	s.changed(ctx, ownerID)
	return nil
}

// Delete removes the plan.
func (s *PlanServiceImpl) Delete(ctx context.Context, ownerID, planID uuid.UUID) error {
	if ownerID == uuid.Nil || planID == uuid.Nil {
		return fmt.Errorf("%w: empty ownerID/id", errs.ErrValidation)
	}
	if err := s.repo.Delete(ctx, ownerID, planID); err != nil {
		return err
	}
	s.changed(ctx, ownerID)
	return nil
}

// changed signals watchers. The mutation already succeeded, so a failed signal is only logged.
func (s *PlanServiceImpl) changed(ctx context.Context, ownerID uuid.UUID) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, ownerID); err != nil {
		s.log.Warn("publish plan change", zap.String("owner", ownerID.String()), zap.Error(err))
	}
}
