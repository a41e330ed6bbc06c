package app

import (
	"context"

	"go.uber.org/zap"

	model "github.com/and161185/studyflow/internal/model"
	"github.com/and161185/studyflow/internal/reminder"
)

// Planner is the plan editor view: the form, the live plan list and the reminder
// schedule that runs while the view is mounted.
type Planner struct {
	*Editor
	list      *LiveList
	reminders *reminder.Scheduler
	log       *zap.Logger
}

// NewPlanner returns an unmounted planner.
func NewPlanner(store PlanStore, sessions SessionStore, bus Notifier, log *zap.Logger) *Planner {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Planner{
		Editor:    NewEditor(store, sessions, bus, log),
		list:      NewLiveList(store, bus, PlansErrPrefix, log),
		reminders: reminder.New(bus, log),
		log:       log,
	}
	// the list is empty after a terminal error; nothing left to remind about
	p.list.OnError(func(error) { p.reminders.Stop() })
	return p
}

// Mount starts the reminder schedule and subscribes to the plan list. The schedule
// goes first so a failing subscription can stop it.
func (p *Planner) Mount(ctx context.Context) error {
	if err := p.reminders.Start(p.list.Plans); err != nil {
		return err
	}
	if err := p.list.Open(ctx); err != nil {
		p.reminders.Stop()
		return err
	}
	return nil
}

// Unmount stops the schedule and the subscription. The list is dropped.
func (p *Planner) Unmount() {
	p.reminders.Stop()
	p.list.Close()
	p.list.Clear()
}

// EndSession forgets which plans were reminded and clears the form.
func (p *Planner) EndSession() {
	p.reminders.Reset()
	p.Editor.Reset()
}

// Plans returns the current list.
func (p *Planner) Plans() []model.Plan { return p.list.Plans() }

// CheckReminders runs one reminder pass over the current list.
func (p *Planner) CheckReminders() int { return p.reminders.Check(p.Editor.now(), p.list.Plans()) }

// List exposes the underlying live list.
func (p *Planner) List() *LiveList { return p.list }

// Reminders exposes the reminder schedule.
func (p *Planner) Reminders() *reminder.Scheduler { return p.reminders }
