// Package reminder emits one notification per plan when its reminder time is reached.
package reminder

import (
	"fmt"
	"sync"
	"time"

	u "github.com/gofrs/uuid/v5"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	model "github.com/and161185/studyflow/internal/model"
	"github.com/and161185/studyflow/internal/notify"
)

const (
	// Tolerance is how far in the past a reminder instant may lie and still fire.
	// It is wider than the tick period so a tick can never step over a window.
	Tolerance = 5 * time.Minute

	// Every is the cron schedule of the periodic check.
	Every = "@every 1m"
)

// Notifier receives the reminder toasts.
type Notifier interface {
	Publish(message string, sev notify.Severity)
}

// Source returns the current in-memory plan list.
type Source func() []model.Plan

// Scheduler remembers which plans were already reminded in this session.
type Scheduler struct {
	bus Notifier
	log *zap.Logger
	now func() time.Time

	mu       sync.Mutex
	reminded map[u.UUID]struct{}

	runMu sync.Mutex
	cron  *cron.Cron
}

// New returns a stopped scheduler.
func New(bus Notifier, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		bus:      bus,
		log:      log,
		now:      time.Now,
		reminded: make(map[u.UUID]struct{}),
	}
}

// Message renders the reminder text for p.
func Message(p model.Plan) string {
	topic := p.Topic
	if topic == "" {
		topic = "N/A"
	}
	return fmt.Sprintf("Reminder: Your \"%s\" session on \"%s\" starts in %d minutes!", p.Subject, topic, *p.ReminderMinutes)
}

// due reports whether p's reminder instant lies in (now-Tolerance, now] while p has
// not started yet.
func due(p model.Plan, now time.Time) bool {
	if p.ReminderMinutes == nil || *p.ReminderMinutes < 0 {
		return false
	}
	if !now.Before(p.Start) {
		return false
	}
	at := p.ReminderAt()
	return at.After(now.Add(-Tolerance)) && !at.After(now)
}

// Check runs one pass over plans and returns how many reminders fired.
func (s *Scheduler) Check(now time.Time, plans []model.Plan) int {
	s.mu.Lock()
	var fire []model.Plan
	for _, p := range plans {
		if !due(p, now) {
			continue
		}
		if _, done := s.reminded[p.ID]; done {
			continue
		}
		s.reminded[p.ID] = struct{}{}
		fire = append(fire, p)
	}
	s.mu.Unlock()

	for _, p := range fire {
		s.log.Debug("reminder", zap.String("plan", p.ID.String()))
		s.bus.Publish(Message(p), notify.SeverityInfo)
	}
	return len(fire)
}

func (s *Scheduler) tick(src Source) {
	s.Check(s.now(), src())
}

// Start schedules Check every minute. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(src Source) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.cron != nil {
		return nil
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(Every, func() { s.tick(src) }); err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}
	c.Start()
	s.cron = c
	s.log.Debug("reminders started")
	return nil
}

// Stop cancels the schedule and waits for a running tick. Safe to call repeatedly.
func (s *Scheduler) Stop() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cron = nil
	s.log.Debug("reminders stopped")
}

// Running reports whether the schedule is active.
func (s *Scheduler) Running() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.cron != nil
}

// Reset forgets every reminded plan. Used when the session ends.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	s.reminded = make(map[u.UUID]struct{})
	s.mu.Unlock()
}
