// Package app holds the StudyFlow application controllers: authentication flow,
// plan editor, dashboard, live plan list and the shell that composes them.
//
// The controllers talk to the backend only through SessionStore and PlanStore and
// report every outcome through a Notifier.
package app

import (
	"context"
	"sync/atomic"

	u "github.com/gofrs/uuid/v5"

	model "github.com/and161185/studyflow/internal/model"
	"github.com/and161185/studyflow/internal/notify"
)

// SessionStore is the identity provider client. It owns the current identity and
// tells listeners about every session transition.
type SessionStore interface {
	SignIn(ctx context.Context, email, secret string) (model.Identity, error)
	SignUp(ctx context.Context, email, secret string) (model.Identity, error)
	UpdateDisplayName(ctx context.Context, name string) (model.Identity, error)
	SendPasswordReset(ctx context.Context, email string) error
	SignOut(ctx context.Context) error

	// Current returns the signed-in identity or nil.
	Current() *model.Identity
	// OnChange registers fn for every transition; nil means signed out.
	OnChange(fn func(*model.Identity)) (cancel func())
}

// Subscription is a live view of the caller's plans. Every snapshot carries the
// full result set; a snapshot with Err set is the last one.
type Subscription interface {
	Snapshots() <-chan model.Snapshot
	Close()
}

// PlanStore is the document store client, scoped to the signed-in user.
type PlanStore interface {
	WatchPlans(ctx context.Context) (Subscription, error)
	CreatePlan(ctx context.Context, p model.Plan) (u.UUID, error)
	UpdatePlan(ctx context.Context, p model.Plan) error
	DeletePlan(ctx context.Context, id u.UUID) error
	SetProfile(ctx context.Context, p model.Profile) error
}

// Notifier shows a toast. *notify.Bus implements it.
type Notifier interface {
	Publish(message string, sev notify.Severity)
}

// gate refuses a second submission while one is outstanding.
type gate struct{ busy atomic.Bool }

func (g *gate) enter() bool { return g.busy.CompareAndSwap(false, true) }
func (g *gate) leave()      { g.busy.Store(false) }
func (g *gate) held() bool  { return g.busy.Load() }
