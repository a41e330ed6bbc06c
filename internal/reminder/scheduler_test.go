package reminder

import (
	"testing"
	"time"

	u "github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	model "github.com/and161185/studyflow/internal/model"
	"github.com/and161185/studyflow/internal/notify"
)

type sent struct {
	msg string
	sev notify.Severity
}

type fakeBus struct{ got []sent }

func (b *fakeBus) Publish(m string, s notify.Severity) { b.got = append(b.got, sent{m, s}) }

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func plan(start time.Time, minutes *int) model.Plan {
	return model.Plan{
		ID:              u.Must(u.NewV4()),
		Subject:         "Math",
		Topic:           "Integrals",
		Start:           start,
		End:             start.Add(time.Hour),
		ReminderMinutes: minutes,
	}
}

func newScheduler(t *testing.T) (*Scheduler, *fakeBus) {
	t.Helper()
	b := &fakeBus{}
	return New(b, zaptest.NewLogger(t)), b
}

func TestCheck_FiresAtReminderInstant(t *testing.T) {
	s, b := newScheduler(t)
	p := plan(t0.Add(15*time.Minute), model.Minutes(15))

	require.Equal(t, 1, s.Check(t0, []model.Plan{p}))
	require.Equal(t, []sent{{
		msg: `Reminder: Your "Math" session on "Integrals" starts in 15 minutes!`,
		sev: notify.SeverityInfo,
	}}, b.got)
}

func TestCheck_WindowElapsed_NoFire(t *testing.T) {
	s, b := newScheduler(t)
	p := plan(t0.Add(15*time.Minute), model.Minutes(15))

	require.Zero(t, s.Check(t0.Add(6*time.Minute), []model.Plan{p}))
	require.Empty(t, b.got)
}

func TestCheck_AtMostOncePerPlan(t *testing.T) {
	s, b := newScheduler(t)
	p := plan(t0.Add(15*time.Minute), model.Minutes(15))
	plans := []model.Plan{p}

	s.Check(t0, plans)
	s.Check(t0.Add(time.Minute), plans)
	s.Check(t0.Add(4*time.Minute), plans)

	require.Len(t, b.got, 1)
}

func TestCheck_WindowBounds(t *testing.T) {
	start := t0.Add(30 * time.Minute)
	at := start.Add(-10 * time.Minute)

	cases := []struct {
		name string
		now  time.Time
		want int
	}{
		{"before reminder instant", at.Add(-time.Second), 0},
		{"exactly at instant", at, 1},
		{"inside tolerance", at.Add(4*time.Minute + 59*time.Second), 1},
		{"tolerance boundary is open", at.Add(Tolerance), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newScheduler(t)
			require.Equal(t, tc.want, s.Check(tc.now, []model.Plan{plan(start, model.Minutes(10))}))
		})
	}
}

func TestCheck_NeverAtOrAfterStart(t *testing.T) {
	s, b := newScheduler(t)
	// a 2 minute lead keeps the reminder instant inside the tolerance at start time
	p := plan(t0, model.Minutes(2))

	require.Zero(t, s.Check(t0, []model.Plan{p}))
	require.Zero(t, s.Check(t0.Add(time.Minute), []model.Plan{p}))
	require.Empty(t, b.got)
}

func TestCheck_SkipsPlansWithoutOrWithNegativeLead(t *testing.T) {
	s, b := newScheduler(t)
	plans := []model.Plan{
		plan(t0.Add(10*time.Minute), nil),
		plan(t0.Add(10*time.Minute), model.Minutes(-10)),
		plan(t0, model.Minutes(0)),
	}

	require.Zero(t, s.Check(t0, plans))
	require.Empty(t, b.got)
}

func TestCheck_TopicFallback(t *testing.T) {
	s, b := newScheduler(t)
	p := plan(t0.Add(5*time.Minute), model.Minutes(5))
	p.Topic = ""

	s.Check(t0, []model.Plan{p})
	require.Equal(t, `Reminder: Your "Math" session on "N/A" starts in 5 minutes!`, b.got[0].msg)
}

func TestReset_AllowsFiringAgain(t *testing.T) {
	s, b := newScheduler(t)
	p := plan(t0.Add(15*time.Minute), model.Minutes(15))

	s.Check(t0, []model.Plan{p})
	s.Reset()
	s.Check(t0, []model.Plan{p})

	require.Len(t, b.got, 2)
}

func TestTick_ReadsSourceAtTickTime(t *testing.T) {
	s, b := newScheduler(t)
	s.now = func() time.Time { return t0 }

	var plans []model.Plan
	src := func() []model.Plan { return plans }

	s.tick(src)
	require.Empty(t, b.got)

	plans = []model.Plan{plan(t0.Add(15*time.Minute), model.Minutes(15))}
	s.tick(src)
	require.Len(t, b.got, 1)
}

func TestStartStop_Idempotent(t *testing.T) {
	s, _ := newScheduler(t)
	src := func() []model.Plan { return nil }

	require.NoError(t, s.Start(src))
	require.NoError(t, s.Start(src))
	require.True(t, s.Running())

	s.Stop()
	s.Stop()
	require.False(t, s.Running())

	require.NoError(t, s.Start(src))
	require.True(t, s.Running())
	s.Stop()
}
