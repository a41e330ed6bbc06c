// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/studyflow/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserRepository provides access to identity-provider accounts.
type UserRepository interface {
	// Create inserts a new user; a taken address yields errs.ErrAlreadyExists.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads a user by contact address (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// SetDisplayName updates the profile name shown for the session.
	SetDisplayName(ctx context.Context, id uuid.UUID, name string) error
	// SetPassword replaces hash and salt.
	SetPassword(ctx context.Context, id uuid.UUID, pwdHash, salt []byte) error
}
