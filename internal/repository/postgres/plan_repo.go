package postgres

import (
	"context"
	"fmt"

	"github.com/and161185/studyflow/internal/errs"
	"github.com/and161185/studyflow/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PlanRepo implements PlanRepository using PostgreSQL.
type PlanRepo struct{ db *DB }

// NewPlanRepo constructs a plan repository.
func NewPlanRepo(db *DB) *PlanRepo { return &PlanRepo{db: db} }

// List returns the owner's plans ordered by start time.
func (r *PlanRepo) List(ctx context.Context, ownerID uuid.UUID) ([]model.Plan, error) {
	const q = `
SELECT id, owner_id, subject, COALESCE(topic, ''), COALESCE(description, ''),
       start_time, end_time, reminder_minutes, created_at
FROM plans WHERE owner_id=$1
ORDER BY start_time, created_at`
	rows, err := r.db.Pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Plan, 0)
	for rows.Next() {
		var p model.Plan
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Subject, &p.Topic, &p.Description,
			&p.Start, &p.End, &p.ReminderMinutes, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create inserts a plan row.
func (r *PlanRepo) Create(ctx context.Context, p *model.Plan) error {
	const q = `
INSERT INTO plans (id, owner_id, subject, topic, description, start_time, end_time, reminder_minutes, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.db.Pool.Exec(ctx, q, p.ID, p.OwnerID, p.Subject, nullIfEmpty(p.Topic), nullIfEmpty(p.Description),
		p.Start, p.End, p.ReminderMinutes, p.CreatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// Replace overwrites every mutable column; owner_id and created_at are never touched.
func (r *PlanRepo) Replace(ctx context.Context, p *model.Plan) error {
	const q = `
UPDATE plans
SET subject=$3, topic=$4, description=$5, start_time=$6, end_time=$7, reminder_minutes=$8
WHERE id=$1 AND owner_id=$2`
	return expectOne(r.db.Pool.Exec(ctx, q, p.ID, p.OwnerID, p.Subject, nullIfEmpty(p.Topic), nullIfEmpty(p.Description),
		p.Start, p.End, p.ReminderMinutes))
}

// Delete removes a plan owned by ownerID.
func (r *PlanRepo) Delete(ctx context.Context, ownerID, planID uuid.UUID) error {
	const q = `DELETE FROM plans WHERE id=$1 AND owner_id=$2`
	return expectOne(r.db.Pool.Exec(ctx, q, planID, ownerID))
}

// expectOne maps "no row touched" to ErrNotFound.
func expectOne(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
