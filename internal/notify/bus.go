// Package notify holds the single-slot toast shown to the user.
package notify

import (
	"sync"
	"time"
)

// Severity tags a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// DefaultTTL is how long a notification stays visible without being superseded.
const DefaultTTL = 5 * time.Second

// Notification is the currently displayed message.
type Notification struct {
	Message  string
	Severity Severity
}

// Timer is the part of *time.Timer the bus needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

// Listener receives the new state. ok is false when the slot was cleared.
// Listeners run one state change at a time and must not call Publish.
type Listener func(n Notification, ok bool)

// Option configures a Bus.
type Option func(*Bus)

// WithAfterFunc replaces the timer factory.
func WithAfterFunc(f AfterFunc) Option { return func(b *Bus) { b.after = f } }

// WithTTL overrides DefaultTTL.
func WithTTL(d time.Duration) Option { return func(b *Bus) { b.ttl = d } }

// Bus keeps at most one notification. Every Publish supersedes the previous one and
// restarts the auto-clear timer; a stale timer firing later changes nothing.
type Bus struct {
	// dispatchMu is held from a state change until its listeners return, so
	// listeners see changes in the order they were made.
	dispatchMu sync.Mutex

	mu     sync.Mutex
	cur    Notification
	has    bool
	gen    uint64
	timer  Timer
	closed bool

	ttl   time.Duration
	after AfterFunc

	subs   map[int]Listener
	nextID int
}

// NewBus returns an empty bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		ttl: DefaultTTL,
		after: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		subs: make(map[int]Listener),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Publish replaces the current notification.
func (b *Bus) Publish(message string, sev Severity) {
	b.dispatchMu.Lock()
	defer b.dispatchMu.Unlock()

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	if b.timer != nil {
		b.timer.Stop()
	}
	b.gen++
	gen := b.gen
	b.cur = Notification{Message: message, Severity: sev}
	b.has = true
	b.timer = b.after(b.ttl, func() { b.expire(gen) })
	n := b.cur
	subs := b.listeners()
	b.mu.Unlock()

	for _, fn := range subs {
		fn(n, true)
	}
}

func (b *Bus) expire(gen uint64) {
	b.dispatchMu.Lock()
	defer b.dispatchMu.Unlock()

	b.mu.Lock()
	if gen != b.gen || !b.has {
		b.mu.Unlock()
		return
	}
	b.cur = Notification{}
	b.has = false
	b.timer = nil
	subs := b.listeners()
	b.mu.Unlock()

	for _, fn := range subs {
		fn(Notification{}, false)
	}
}

// Current returns the displayed notification, if any.
func (b *Bus) Current() (Notification, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cur, b.has
}

// Subscribe registers fn for every publish and clear. The returned func unregisters it.
func (b *Bus) Subscribe(fn Listener) (cancel func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Close stops the pending timer. Later publishes are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.gen++
	b.closed = true
}

// listeners must be called with mu held.
func (b *Bus) listeners() []Listener {
	out := make([]Listener, 0, len(b.subs))
	for _, fn := range b.subs {
		out = append(out, fn)
	}
	return out
}
