package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/studyflow/internal/errs"
	model "github.com/and161185/studyflow/internal/model"
	"github.com/and161185/studyflow/internal/notify"
)

// User-visible texts of the plan editor.
const (
	MsgRequiredFields   = "Please fill in all required fields (Subject, Start Time, End Time)."
	MsgNegativeReminder = "Reminder minutes cannot be negative."
	MsgNoSessionSave    = "Authentication not ready. Cannot create/update plan."
	MsgNoSessionDelete  = "Authentication not ready. Cannot delete plan."
	MsgPlanCreated      = "Study plan created successfully!"
	MsgPlanUpdated      = "Study plan updated successfully!"
	MsgEditCancelled    = "Edit cancelled."
)

// PlanForm is the editable field set of a plan.
type PlanForm struct {
	Subject         string
	Topic           string
	Description     string
	Start           time.Time
	End             time.Time
	ReminderMinutes *int
}

// FormFrom loads every editable field of p.
func FormFrom(p model.Plan) PlanForm {
	f := PlanForm{
		Subject:     p.Subject,
		Topic:       p.Topic,
		Description: p.Description,
		Start:       p.Start,
		End:         p.End,
	}
	if p.ReminderMinutes != nil {
		f.ReminderMinutes = model.Minutes(*p.ReminderMinutes)
	}
	return f
}

// apply overwrites the editable fields of p with the form.
func (f PlanForm) apply(p model.Plan) model.Plan {
	p.Subject = strings.TrimSpace(f.Subject)
	p.Topic = strings.TrimSpace(f.Topic)
	p.Description = strings.TrimSpace(f.Description)
	p.Start = f.Start
	p.End = f.End
	p.ReminderMinutes = f.ReminderMinutes
	return p
}

func (f PlanForm) check() string {
	switch {
	case strings.TrimSpace(f.Subject) == "" || f.Start.IsZero() || f.End.IsZero():
		return MsgRequiredFields
	case f.ReminderMinutes != nil && *f.ReminderMinutes < 0:
		return MsgNegativeReminder
	}
	return ""
}

// Confirmer asks the user to confirm deletion of p.
type Confirmer func(p model.Plan) bool

// Editor is the create-or-update form over the plan store with at most one edit
// target at a time.
type Editor struct {
	store    PlanStore
	sessions SessionStore
	bus      Notifier
	log      *zap.Logger
	now      func() time.Time

	mu     sync.Mutex
	form   PlanForm
	target *model.Plan

	submit gate
}

// NewEditor returns an editor in create mode with an empty form.
func NewEditor(store PlanStore, sessions SessionStore, bus Notifier, log *zap.Logger) *Editor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Editor{store: store, sessions: sessions, bus: bus, log: log, now: time.Now}
}

// SetForm replaces the form content.
func (e *Editor) SetForm(f PlanForm) {
	e.mu.Lock()
	e.form = f
	e.mu.Unlock()
}

// Form returns the form content.
func (e *Editor) Form() PlanForm {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.form
}

// Editing returns the edit target, if any.
func (e *Editor) Editing() (model.Plan, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.target == nil {
		return model.Plan{}, false
	}
	return *e.target, true
}

// Loading reports whether a submission is in flight.
func (e *Editor) Loading() bool { return e.submit.held() }

// BeginEdit hydrates the form from p and makes it the edit target.
func (e *Editor) BeginEdit(p model.Plan) {
	e.mu.Lock()
	e.form = FormFrom(p)
	e.target = &p
	e.mu.Unlock()
	e.bus.Publish(fmt.Sprintf("Editing plan: %s", p.Subject), notify.SeverityInfo)
}

// CancelEdit leaves edit mode and empties the form. The store is not contacted.
func (e *Editor) CancelEdit() {
	e.reset()
	e.bus.Publish(MsgEditCancelled, notify.SeverityInfo)
}

// Reset empties the form and leaves edit mode without a notification.
func (e *Editor) Reset() { e.reset() }

func (e *Editor) reset() {
	e.mu.Lock()
	e.form = PlanForm{}
	e.target = nil
	e.mu.Unlock()
}

// Submit validates the form and then either replaces the edit target or creates a
// new plan. On success the form is emptied; on failure it is kept for resubmission.
func (e *Editor) Submit(ctx context.Context) error {
	if !e.submit.enter() {
		return errs.ErrBusy
	}
	defer e.submit.leave()

	e.mu.Lock()
	form := e.form
	var target *model.Plan
	if e.target != nil {
		t := *e.target
		target = &t
	}
	e.mu.Unlock()

	if msg := form.check(); msg != "" {
		e.bus.Publish(msg, notify.SeverityError)
		return fmt.Errorf("%w: %s", errs.ErrValidation, msg)
	}
	if e.sessions.Current() == nil {
		e.bus.Publish(MsgNoSessionSave, notify.SeverityError)
		return errs.ErrUnauthorized
	}

	var err error
	var done string
	if target != nil {
		err = e.store.UpdatePlan(ctx, form.apply(*target))
		done = MsgPlanUpdated
	} else {
		p := form.apply(model.Plan{CreatedAt: e.now().UTC()})
		_, err = e.store.CreatePlan(ctx, p)
		done = MsgPlanCreated
	}
	if err != nil {
		e.log.Debug("save plan", zap.Error(err))
		e.bus.Publish(fmt.Sprintf("Error saving plan: %v", err), notify.SeverityError)
		return err
	}

	e.reset()
	e.bus.Publish(done, notify.SeveritySuccess)
	return nil
}

// Delete removes p after confirm approves it. It reports whether the store was called
// and succeeded.
func (e *Editor) Delete(ctx context.Context, p model.Plan, confirm Confirmer) (bool, error) {
	if confirm == nil || !confirm(p) {
		return false, nil
	}
	if e.sessions.Current() == nil {
		e.bus.Publish(MsgNoSessionDelete, notify.SeverityError)
		return false, errs.ErrUnauthorized
	}
	if err := e.store.DeletePlan(ctx, p.ID); err != nil {
		e.log.Debug("delete plan", zap.Error(err))
		e.bus.Publish(fmt.Sprintf("Error deleting plan: %v", err), notify.SeverityError)
		return false, err
	}

	e.mu.Lock()
	if e.target != nil && e.target.ID == p.ID {
		e.form = PlanForm{}
		e.target = nil
	}
	e.mu.Unlock()

	e.bus.Publish(fmt.Sprintf("Plan \"%s\" deleted successfully!", p.Subject), notify.SeveritySuccess)
	return true, nil
}
