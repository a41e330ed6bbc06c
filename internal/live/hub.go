// Package live fans plan-change signals out to the open watch streams of an owner.
package live

import (
	"context"
	"sync"

	"github.com/gofrs/uuid/v5"
)

// Publisher announces that the plan set of an owner changed.
type Publisher interface {
	Publish(ctx context.Context, ownerID uuid.UUID) error
}

// Hub keeps per-owner subscribers. Signals coalesce: a subscriber that has not
// drained the previous signal sees only one pending wake-up.
type Hub struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[*Subscription]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]map[*Subscription]struct{})}
}

// Subscription is a single watcher of one owner.
type Subscription struct {
	hub   *Hub
	owner uuid.UUID
	ch    chan struct{}
	once  sync.Once
}

// Subscribe registers a watcher for owner.
func (h *Hub) Subscribe(owner uuid.UUID) *Subscription {
	s := &Subscription{hub: h, owner: owner, ch: make(chan struct{}, 1)}
	h.mu.Lock()
	set, ok := h.subs[owner]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[owner] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Notify wakes every watcher of owner.
func (h *Hub) Notify(owner uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[owner] {
		select {
		case s.ch <- struct{}{}:
		default:
		}
	}
}

// NotifyAll wakes every watcher of every owner. Used after signals may have been
// missed, so each stream reloads its snapshot.
func (h *Hub) NotifyAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.subs {
		for s := range set {
			select {
			case s.ch <- struct{}{}:
			default:
			}
		}
	}
}

// Publish implements Publisher for single-process deployments and tests.
func (h *Hub) Publish(_ context.Context, owner uuid.UUID) error {
	h.Notify(owner)
	return nil
}

// Watchers returns the number of open subscriptions for owner.
func (h *Hub) Watchers(owner uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[owner])
}

// C delivers one value per (coalesced) change.
func (s *Subscription) C() <-chan struct{} { return s.ch }

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[s.owner]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(h.subs, s.owner)
			}
		}
	})
}
