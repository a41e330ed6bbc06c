// Package apiv1 holds the wire messages, codec and service descriptor of the
// studyflow.v1.StudyFlow gRPC API.
package apiv1

import "time"

// Identity is the signed-in account as sent over the wire.
type Identity struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by SignUp and SignIn.
type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        Identity  `json:"user"`
}

type WhoAmIRequest struct{}

type UpdateDisplayNameRequest struct {
	DisplayName string `json:"display_name"`
}

type SendPasswordResetRequest struct {
	Email string `json:"email"`
}

type ConfirmPasswordResetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// Empty is the response of calls that return nothing.
type Empty struct{}

// Profile is the per-user profile document. Empty fields are left untouched on merge.
type Profile struct {
	Username  string     `json:"username,omitempty"`
	Email     string     `json:"email,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type SetProfileRequest struct {
	Profile Profile `json:"profile"`
}

// Plan is one study session.
type Plan struct {
	ID              string    `json:"id,omitempty"`
	Subject         string    `json:"subject"`
	Topic           string    `json:"topic,omitempty"`
	Description     string    `json:"description,omitempty"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	ReminderMinutes *int32    `json:"reminder_minutes,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

type ListPlansRequest struct{}

// PlanList is the full plan set of the caller. WatchPlans streams one per change.
type PlanList struct {
	Plans []Plan `json:"plans"`
}

type CreatePlanRequest struct {
	Plan Plan `json:"plan"`
}

type CreatePlanResponse struct {
	Plan Plan `json:"plan"`
}

type UpdatePlanRequest struct {
	Plan Plan `json:"plan"`
}

type DeletePlanRequest struct {
	ID string `json:"id"`
}

type WatchPlansRequest struct{}
