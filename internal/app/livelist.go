package app

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	model "github.com/and161185/studyflow/internal/model"
	"github.com/and161185/studyflow/internal/notify"
)

// Error prefixes of the two views consuming a live list.
const (
	PlansErrPrefix     = "Error loading plans"
	DashboardErrPrefix = "Error loading dashboard data"
)

// LiveList keeps the latest snapshot of the caller's plans. Each snapshot replaces
// the list. A failed subscription publishes "<prefix>: <err>" and leaves the list
// empty instead of stale.
type LiveList struct {
	store  PlanStore
	bus    Notifier
	prefix string
	log    *zap.Logger

	mu    sync.RWMutex
	plans []model.Plan

	runMu  sync.Mutex
	cancel context.CancelFunc
	sub    Subscription
	done   chan struct{}

	// hooks run on the consumer goroutine; they must not call Close.
	hookMu   sync.Mutex
	onUpdate []func([]model.Plan)
	onError  []func(error)
}

// NewLiveList returns a closed list.
func NewLiveList(store PlanStore, bus Notifier, prefix string, log *zap.Logger) *LiveList {
	if log == nil {
		log = zap.NewNop()
	}
	return &LiveList{store: store, bus: bus, prefix: prefix, log: log}
}

// OnUpdate adds a hook called after each snapshot is applied.
func (l *LiveList) OnUpdate(fn func([]model.Plan)) {
	l.hookMu.Lock()
	l.onUpdate = append(l.onUpdate, fn)
	l.hookMu.Unlock()
}

// OnError adds a hook called after a terminal subscription error.
func (l *LiveList) OnError(fn func(error)) {
	l.hookMu.Lock()
	l.onError = append(l.onError, fn)
	l.hookMu.Unlock()
}

func (l *LiveList) hooks() ([]func([]model.Plan), []func(error)) {
	l.hookMu.Lock()
	defer l.hookMu.Unlock()
	return l.onUpdate, l.onError
}

// Plans returns a copy of the current list.
func (l *LiveList) Plans() []model.Plan {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Plan, len(l.plans))
	copy(out, l.plans)
	return out
}

func (l *LiveList) replace(ps []model.Plan) {
	l.mu.Lock()
	l.plans = ps
	l.mu.Unlock()
}

// Clear empties the list.
func (l *LiveList) Clear() { l.replace(nil) }

func (l *LiveList) fail(err error) {
	l.replace(nil)
	l.log.Warn("plan subscription failed", zap.String("view", l.prefix), zap.Error(err))
	l.bus.Publish(fmt.Sprintf("%s: %v", l.prefix, err), notify.SeverityError)
	_, onError := l.hooks()
	for _, fn := range onError {
		fn(err)
	}
}

// Open subscribes to the store. Opening an open list is a no-op.
func (l *LiveList) Open(ctx context.Context) error {
	l.runMu.Lock()
	defer l.runMu.Unlock()
	if l.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	sub, err := l.store.WatchPlans(ctx)
	if err != nil {
		cancel()
		l.fail(err)
		return err
	}
	l.cancel, l.sub, l.done = cancel, sub, make(chan struct{})
	go l.consume(ctx, sub, l.done)
	return nil
}

func (l *LiveList) consume(ctx context.Context, sub Subscription, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-sub.Snapshots():
			if !ok {
				return
			}
			// Close may have raced with this delivery.
			if ctx.Err() != nil {
				return
			}
			if snap.Err != nil {
				l.fail(snap.Err)
				return
			}
			l.replace(snap.Plans)
			onUpdate, _ := l.hooks()
			for _, fn := range onUpdate {
				fn(snap.Plans)
			}
		}
	}
}

// Close cancels the subscription and waits for the consumer to exit, so no snapshot
// is applied after Close returns. The list content is kept; call Clear to drop it.
func (l *LiveList) Close() {
	l.runMu.Lock()
	defer l.runMu.Unlock()
	if l.cancel == nil {
		return
	}
	l.cancel()
	l.sub.Close()
	<-l.done
	l.cancel, l.sub, l.done = nil, nil, nil
}

// IsOpen reports whether Open succeeded and Close has not been called since.
func (l *LiveList) IsOpen() bool {
	l.runMu.Lock()
	defer l.runMu.Unlock()
	return l.cancel != nil
}
