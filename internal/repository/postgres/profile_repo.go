package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/and161185/studyflow/internal/errs"
	"github.com/and161185/studyflow/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// ProfileRepo implements ProfileRepository using PostgreSQL.
type ProfileRepo struct{ db *DB }

// NewProfileRepo constructs a profile repository.
func NewProfileRepo(db *DB) *ProfileRepo { return &ProfileRepo{db: db} }

// Merge upserts the profile; empty fields keep whatever is stored.
func (r *ProfileRepo) Merge(ctx context.Context, p model.Profile) error {
	const q = `
INSERT INTO profiles (user_id, username, email, created_at)
VALUES ($1, COALESCE($2, ''), COALESCE($3, ''), COALESCE($4, now()))
ON CONFLICT (user_id) DO UPDATE SET
  username   = COALESCE($2, profiles.username),
  email      = COALESCE($3, profiles.email),
  created_at = COALESCE($4, profiles.created_at)`
	var createdAt *time.Time
	if !p.CreatedAt.IsZero() {
		createdAt = &p.CreatedAt
	}
	_, err := r.db.Pool.Exec(ctx, q, p.UserID, nullIfEmpty(p.Username), nullIfEmpty(p.Email), createdAt)
	return err
}

// Get loads the profile of a user.
func (r *ProfileRepo) Get(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	const q = `SELECT user_id, username, email, created_at FROM profiles WHERE user_id=$1`
	var p model.Profile
	if err := r.db.Pool.QueryRow(ctx, q, userID).Scan(&p.UserID, &p.Username, &p.Email, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
