package app

import (
	"context"
	"fmt"
	"sync"

	u "github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	model "github.com/and161185/studyflow/internal/model"
)

// Page is a top-level view.
type Page string

const (
	PageDashboard Page = "dashboard"
	PagePlanner   Page = "planner"
)

// ParsePage validates a page name.
func ParsePage(s string) (Page, error) {
	switch p := Page(s); p {
	case PageDashboard, PagePlanner:
		return p, nil
	}
	return "", fmt.Errorf("unknown page %q", s)
}

// Theme is the colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Preferences persists the theme between runs.
type Preferences interface {
	Theme() (string, error)
	SetTheme(string) error
}

// State is the shell state shown to the user.
type State struct {
	Page            Page
	Theme           Theme
	AuthReady       bool
	AuthOverlay     bool
	AccountMenuOpen bool
	UserID          u.UUID
	DisplayName     string
}

type view interface {
	Mount(ctx context.Context) error
	Unmount()
}

// Shell composes the views and gates them on the session: without an identity the
// auth overlay is open and no view is mounted.
type Shell struct {
	sessions SessionStore
	prefs    Preferences
	log      *zap.Logger

	auth      *AuthFlow
	dashboard *Dashboard
	planner   *Planner

	mu sync.Mutex
	st State

	// viewMu serialises mounting; it is never taken while holding mu.
	viewMu  sync.Mutex
	ctx     context.Context
	mounted view
	owner   u.UUID // identity the mounted view was opened for
	unsub   func()
}

// NewShell builds the shell and its views. prefs may be nil.
func NewShell(sessions SessionStore, plans PlanStore, bus Notifier, prefs Preferences, log *zap.Logger) *Shell {
	if log == nil {
		log = zap.NewNop()
	}
	return &Shell{
		sessions:  sessions,
		prefs:     prefs,
		log:       log,
		auth:      NewAuthFlow(sessions, plans, bus, log),
		dashboard: NewDashboard(plans, bus, log),
		planner:   NewPlanner(plans, sessions, bus, log),
		st: State{
			Page:        PageDashboard,
			Theme:       ThemeLight,
			AuthOverlay: true,
			DisplayName: model.GuestName,
		},
	}
}

func (s *Shell) Auth() *AuthFlow       { return s.auth }
func (s *Shell) Dashboard() *Dashboard { return s.dashboard }
func (s *Shell) Planner() *Planner     { return s.planner }

// State returns a copy of the shell state.
func (s *Shell) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

// Start loads preferences and follows the session store. ctx bounds every view
// subscription opened by the shell.
func (s *Shell) Start(ctx context.Context) {
	s.LoadPreferences()

	s.viewMu.Lock()
	s.ctx = ctx
	s.viewMu.Unlock()

	s.unsub = s.sessions.OnChange(s.onSession)
	s.onSession(s.sessions.Current())
}

// LoadPreferences applies the stored theme. Unknown values are ignored.
func (s *Shell) LoadPreferences() {
	if s.prefs == nil {
		return
	}
	t, err := s.prefs.Theme()
	if err != nil {
		s.log.Warn("load theme", zap.Error(err))
		return
	}
	if th := Theme(t); th == ThemeLight || th == ThemeDark {
		s.mu.Lock()
		s.st.Theme = th
		s.mu.Unlock()
	}
}

// Stop unmounts the current view and detaches from the session store.
func (s *Shell) Stop() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	s.unmountLocked()
}

func (s *Shell) onSession(id *model.Identity) {
	s.mu.Lock()
	s.st.AuthReady = true
	s.st.AccountMenuOpen = false
	if id == nil {
		s.st.UserID = u.Nil
		s.st.DisplayName = model.GuestName
		s.st.AuthOverlay = true
	} else {
		s.st.UserID = id.UserID
		s.st.DisplayName = id.Name()
		s.st.AuthOverlay = false
	}
	page := s.st.Page
	s.mu.Unlock()

	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	if id == nil {
		s.unmountLocked()
		s.planner.EndSession()
		s.owner = u.Nil
		return
	}
	if s.mounted != nil && s.owner != id.UserID {
		// another account took over; nothing of the previous one may stay visible
		s.unmountLocked()
		s.planner.EndSession()
	}
	s.owner = id.UserID
	if s.mounted == nil {
		s.mountLocked(page)
	}
}

func (s *Shell) viewFor(p Page) view {
	if p == PagePlanner {
		return s.planner
	}
	return s.dashboard
}

// mountLocked must be called with viewMu held.
func (s *Shell) mountLocked(p Page) {
	if s.ctx == nil {
		return
	}
	v := s.viewFor(p)
	if err := v.Mount(s.ctx); err != nil {
		// the view already told the user
		s.log.Debug("mount view", zap.String("page", string(p)), zap.Error(err))
	}
	s.mounted = v
}

// unmountLocked must be called with viewMu held.
func (s *Shell) unmountLocked() {
	if s.mounted == nil {
		return
	}
	s.mounted.Unmount()
	s.mounted = nil
}

// Navigate switches page. Views are only mounted while a session exists.
func (s *Shell) Navigate(p Page) {
	s.mu.Lock()
	if s.st.Page == p {
		s.mu.Unlock()
		return
	}
	s.st.Page = p
	signedIn := !s.st.AuthOverlay
	s.mu.Unlock()

	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	s.unmountLocked()
	if signedIn {
		s.mountLocked(p)
	}
}

// ToggleTheme flips the theme and persists it.
func (s *Shell) ToggleTheme() Theme {
	s.mu.Lock()
	if s.st.Theme == ThemeDark {
		s.st.Theme = ThemeLight
	} else {
		s.st.Theme = ThemeDark
	}
	t := s.st.Theme
	s.mu.Unlock()

	if s.prefs != nil {
		if err := s.prefs.SetTheme(string(t)); err != nil {
			s.log.Warn("save theme", zap.Error(err))
		}
	}
	return t
}

func (s *Shell) ToggleAccountMenu() {
	s.mu.Lock()
	s.st.AccountMenuOpen = !s.st.AccountMenuOpen
	s.mu.Unlock()
}

func (s *Shell) CloseAccountMenu() {
	s.mu.Lock()
	s.st.AccountMenuOpen = false
	s.mu.Unlock()
}

// SignOut closes the account menu and ends the session.
func (s *Shell) SignOut(ctx context.Context) error {
	s.CloseAccountMenu()
	return s.auth.SignOut(ctx)
}
