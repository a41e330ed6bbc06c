package app

import (
	"context"
	"sync"

	u "github.com/gofrs/uuid/v5"

	model "github.com/and161185/studyflow/internal/model"
	"github.com/and161185/studyflow/internal/notify"
)

type toast struct {
	msg string
	sev notify.Severity
}

type fakeBus struct {
	mu  sync.Mutex
	got []toast
}

func (b *fakeBus) Publish(m string, s notify.Severity) {
	b.mu.Lock()
	b.got = append(b.got, toast{m, s})
	b.mu.Unlock()
}

func (b *fakeBus) all() []toast {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]toast(nil), b.got...)
}

func (b *fakeBus) last() toast {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.got) == 0 {
		return toast{}
	}
	return b.got[len(b.got)-1]
}

// fakeSessions is an in-memory identity provider.
type fakeSessions struct {
	mu        sync.Mutex
	cur       *model.Identity
	listeners map[int]func(*model.Identity)
	next      int

	signInErr, signUpErr, nameErr, resetErr, signOutErr error
	signInCalls, signUpCalls, resetCalls                int
	names                                               []string

	// block, when set, holds SignIn until released
	block chan struct{}
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{listeners: map[int]func(*model.Identity){}}
}

func (f *fakeSessions) set(id *model.Identity) {
	f.mu.Lock()
	f.cur = id
	ls := make([]func(*model.Identity), 0, len(f.listeners))
	for _, fn := range f.listeners {
		ls = append(ls, fn)
	}
	f.mu.Unlock()
	for _, fn := range ls {
		fn(id)
	}
}

func (f *fakeSessions) SignIn(_ context.Context, email, _ string) (model.Identity, error) {
	f.mu.Lock()
	f.signInCalls++
	block, err := f.block, f.signInErr
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if err != nil {
		return model.Identity{}, err
	}
	id := model.Identity{UserID: u.Must(u.NewV4()), Email: email}
	f.set(&id)
	return id, nil
}

func (f *fakeSessions) SignUp(_ context.Context, email, _ string) (model.Identity, error) {
	f.mu.Lock()
	f.signUpCalls++
	err := f.signUpErr
	f.mu.Unlock()
	if err != nil {
		return model.Identity{}, err
	}
	id := model.Identity{UserID: u.Must(u.NewV4()), Email: email}
	f.set(&id)
	return id, nil
}

func (f *fakeSessions) UpdateDisplayName(_ context.Context, name string) (model.Identity, error) {
	f.mu.Lock()
	f.names = append(f.names, name)
	if f.nameErr != nil {
		err := f.nameErr
		f.mu.Unlock()
		return model.Identity{}, err
	}
	id := *f.cur
	id.DisplayName = name
	f.mu.Unlock()
	f.set(&id)
	return id, nil
}

func (f *fakeSessions) SendPasswordReset(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetCalls++
	return f.resetErr
}

func (f *fakeSessions) SignOut(context.Context) error {
	if f.signOutErr != nil {
		return f.signOutErr
	}
	f.set(nil)
	return nil
}

func (f *fakeSessions) Current() *model.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cur
}

func (f *fakeSessions) OnChange(fn func(*model.Identity)) func() {
	f.mu.Lock()
	id := f.next
	f.next++
	f.listeners[id] = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

type fakeSub struct {
	ch     chan model.Snapshot
	once   sync.Once
	closed chan struct{}
}

func newFakeSub() *fakeSub {
	return &fakeSub{ch: make(chan model.Snapshot, 8), closed: make(chan struct{})}
}

func (s *fakeSub) Snapshots() <-chan model.Snapshot { return s.ch }
func (s *fakeSub) Close()                           { s.once.Do(func() { close(s.closed) }) }

// fakePlans records store calls and hands out controllable subscriptions.
type fakePlans struct {
	mu       sync.Mutex
	created  []model.Plan
	updated  []model.Plan
	deleted  []u.UUID
	profiles []model.Profile
	subs     []*fakeSub

	watchErr, createErr, updateErr, deleteErr, profileErr error
}

func (f *fakePlans) WatchPlans(context.Context) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.watchErr != nil {
		return nil, f.watchErr
	}
	s := newFakeSub()
	f.subs = append(f.subs, s)
	return s, nil
}

func (f *fakePlans) lastSub() *fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.subs) == 0 {
		return nil
	}
	return f.subs[len(f.subs)-1]
}

func (f *fakePlans) CreatePlan(_ context.Context, p model.Plan) (u.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return u.Nil, f.createErr
	}
	f.created = append(f.created, p)
	return u.Must(u.NewV4()), nil
}

func (f *fakePlans) UpdatePlan(_ context.Context, p model.Plan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, p)
	return nil
}

func (f *fakePlans) DeletePlan(_ context.Context, id u.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakePlans) SetProfile(_ context.Context, p model.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return f.profileErr
	}
	f.profiles = append(f.profiles, p)
	return nil
}

func (f *fakePlans) mutations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created) + len(f.updated) + len(f.deleted)
}

type memPrefs struct {
	theme string
	err   error
}

func (m *memPrefs) Theme() (string, error) { return m.theme, m.err }
func (m *memPrefs) SetTheme(t string) error {
	m.theme = t
	return nil
}
