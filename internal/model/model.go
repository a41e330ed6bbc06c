// Package model defines domain entities used by services, repositories and the app layer.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// GuestName is shown when no usable name is known for the session.
const GuestName = "Guest"

// Tokens collects the issued access token.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry (for diagnostics and local cache)
}

// User is an account stored by the identity provider. Passwords are never stored in plaintext.
type User struct {
	ID          uuid.UUID // PK
	Email       string    // unique, contact address
	DisplayName string    // profile name, may be empty
	PwdHash     []byte    // Argon2id(password, SaltAuth)
	SaltAuth    []byte    // per-user auth salt
	CreatedAt   time.Time
}

// Identity is the authenticated session as seen by the application.
type Identity struct {
	UserID      uuid.UUID
	Email       string
	DisplayName string
}

// Name returns the display name, falling back to the address and then to GuestName.
func (i *Identity) Name() string {
	switch {
	case i == nil:
		return GuestName
	case i.DisplayName != "":
		return i.DisplayName
	case i.Email != "":
		return i.Email
	default:
		return GuestName
	}
}

// Plan is a time-boxed study session owned by exactly one user.
type Plan struct {
	ID              uuid.UUID // assigned by the store on creation
	OwnerID         uuid.UUID // FK -> users.id
	Subject         string    // required
	Topic           string    // optional, empty == absent
	Description     string    // optional, empty == absent
	Start           time.Time // required
	End             time.Time // required, not cross-checked against Start
	ReminderMinutes *int      // nil == no reminder
	CreatedAt       time.Time // set once on creation
}

// HasReminder reports whether a reminder lead time is configured.
func (p Plan) HasReminder() bool { return p.ReminderMinutes != nil }

// ReminderAt returns the instant the reminder is due. Only meaningful if HasReminder.
func (p Plan) ReminderAt() time.Time {
	if p.ReminderMinutes == nil {
		return p.Start
	}
	return p.Start.Add(-time.Duration(*p.ReminderMinutes) * time.Minute)
}

// Profile is the per-user record kept next to the plans. Empty fields are "unspecified"
// and never overwrite stored values.
type Profile struct {
	UserID    uuid.UUID
	Username  string
	Email     string
	CreatedAt time.Time
}

// Snapshot is one delivery of a live plan subscription: either the full current
// result set or a terminal error.
type Snapshot struct {
	Plans []Plan
	Err   error
}

// Minutes is a helper for optional reminder lead times.
func Minutes(m int) *int { return &m }
