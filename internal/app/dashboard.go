package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	model "github.com/and161185/studyflow/internal/model"
)

// Stats is the dashboard summary.
type Stats struct {
	Total    int
	Upcoming int
}

// ComputeStats counts all plans and those starting strictly after now.
func ComputeStats(plans []model.Plan, now time.Time) Stats {
	st := Stats{Total: len(plans)}
	for _, p := range plans {
		if p.Start.After(now) {
			st.Upcoming++
		}
	}
	return st
}

// Dashboard is the read-only summary view.
type Dashboard struct {
	list *LiveList
	now  func() time.Time
}

// NewDashboard returns an unmounted dashboard.
func NewDashboard(store PlanStore, bus Notifier, log *zap.Logger) *Dashboard {
	return &Dashboard{
		list: NewLiveList(store, bus, DashboardErrPrefix, log),
		now:  time.Now,
	}
}

// Mount subscribes to the plan list.
func (d *Dashboard) Mount(ctx context.Context) error { return d.list.Open(ctx) }

// Unmount stops the subscription and drops the list.
func (d *Dashboard) Unmount() {
	d.list.Close()
	d.list.Clear()
}

// Plans returns the current list.
func (d *Dashboard) Plans() []model.Plan { return d.list.Plans() }

// Stats evaluates the summary at render time.
func (d *Dashboard) Stats() Stats { return ComputeStats(d.list.Plans(), d.now()) }

// List exposes the underlying live list.
func (d *Dashboard) List() *LiveList { return d.list }
