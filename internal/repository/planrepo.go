package repository

import (
	"context"

	"github.com/and161185/studyflow/internal/model"
	"github.com/gofrs/uuid/v5"
)

// PlanRepository stores plan records partitioned by owner.
type PlanRepository interface {
	// List returns every plan of the owner ordered by start time.
	List(ctx context.Context, ownerID uuid.UUID) ([]model.Plan, error)
	// Create inserts a plan; ID and CreatedAt must already be set.
	Create(ctx context.Context, p *model.Plan) error
	// Replace overwrites all mutable fields of the owner's plan.
	Replace(ctx context.Context, p *model.Plan) error
	// Delete removes the owner's plan.
	Delete(ctx context.Context, ownerID, planID uuid.UUID) error
}

// ProfileRepository stores per-user profile records.
type ProfileRepository interface {
	// Merge upserts a profile, keeping stored values for empty fields.
	Merge(ctx context.Context, p model.Profile) error
	// Get loads a profile.
	Get(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
}
