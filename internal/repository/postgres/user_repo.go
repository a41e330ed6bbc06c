package postgres

import (
	"context"
	"errors"

	"github.com/and161185/studyflow/internal/errs"
	"github.com/and161185/studyflow/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userCols = `id, email, display_name, pwd_hash, salt_auth, created_at`

// Create inserts a new user row.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (id, email, display_name, pwd_hash, salt_auth)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Pool.Exec(ctx, q, u.ID, u.Email, u.DisplayName, u.PwdHash, u.SaltAuth)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByEmail selects a user by address, ignoring case.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE lower(email)=lower($1)`
	return scanUser(r.db.Pool.QueryRow(ctx, q, email))
}

// SetDisplayName updates the profile name.
func (r *UserRepo) SetDisplayName(ctx context.Context, id uuid.UUID, name string) error {
	const q = `UPDATE users SET display_name=$2 WHERE id=$1`
	return expectOne(r.db.Pool.Exec(ctx, q, id, name))
}

// SetPassword replaces the stored credentials.
func (r *UserRepo) SetPassword(ctx context.Context, id uuid.UUID, pwdHash, salt []byte) error {
	const q = `UPDATE users SET pwd_hash=$2, salt_auth=$3 WHERE id=$1`
	return expectOne(r.db.Pool.Exec(ctx, q, id, pwdHash, salt))
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PwdHash, &u.SaltAuth, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
