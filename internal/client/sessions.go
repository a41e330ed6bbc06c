package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	pb "github.com/and161185/studyflow/internal/api/v1"
	"github.com/and161185/studyflow/internal/convert"
	"github.com/and161185/studyflow/internal/errs"
	model "github.com/and161185/studyflow/internal/model"
	"github.com/and161185/studyflow/internal/state"
)

// SessionCache persists the session between runs. *state.Cache implements it.
type SessionCache interface {
	Session() (state.Session, bool, error)
	SaveSession(state.Session) error
	ClearSession() error
}

// Sessions is the identity provider client. It owns the current identity, keeps
// the access token in the cache and notifies listeners on every transition.
type Sessions struct {
	rpc    pb.StudyFlowClient
	bearer *bearer
	cache  SessionCache
	log    *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	cur       *model.Identity
	expires   time.Time
	listeners map[int]func(*model.Identity)
	next      int
}

// NewSessions starts signed out; call Restore to pick up a cached session.
func NewSessions(c *Conn, cache SessionCache, log *zap.Logger) *Sessions {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sessions{
		rpc:       c.rpc,
		bearer:    c.bearer,
		cache:     cache,
		log:       log,
		now:       time.Now,
		listeners: make(map[int]func(*model.Identity)),
	}
}

// Current returns the signed-in identity or nil.
func (s *Sessions) Current() *model.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return nil
	}
	id := *s.cur
	return &id
}

// OnChange registers fn for every session transition.
func (s *Sessions) OnChange(fn func(*model.Identity)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Sessions) emit(id *model.Identity) {
	s.mu.Lock()
	fns := make([]func(*model.Identity), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		if id == nil {
			fn(nil)
			continue
		}
		cp := *id
		fn(&cp)
	}
}

// adopt makes id the current session and persists it.
func (s *Sessions) adopt(tok string, exp time.Time, id model.Identity) {
	s.bearer.set(tok)
	s.mu.Lock()
	s.cur = &id
	s.expires = exp
	s.mu.Unlock()

	if s.cache != nil {
		err := s.cache.SaveSession(state.Session{
			AccessToken: tok,
			ExpiresAt:   exp,
			UserID:      id.UserID.String(),
			Email:       id.Email,
			DisplayName: id.DisplayName,
		})
		if err != nil {
			s.log.Warn("save session", zap.Error(err))
		}
	}
	s.emit(&id)
}

func (s *Sessions) drop() {
	s.bearer.set("")
	s.mu.Lock()
	s.cur = nil
	s.expires = time.Time{}
	s.mu.Unlock()
	if s.cache != nil {
		if err := s.cache.ClearSession(); err != nil {
			s.log.Warn("clear session", zap.Error(err))
		}
	}
	s.emit(nil)
}

func (s *Sessions) authenticated(resp *pb.AuthResponse) (model.Identity, error) {
	id, err := convert.FromWireIdentity(resp.User)
	if err != nil {
		return model.Identity{}, err
	}
	s.adopt(resp.AccessToken, resp.ExpiresAt, id)
	return id, nil
}

// SignIn authenticates and makes the account the current session.
func (s *Sessions) SignIn(ctx context.Context, email, secret string) (model.Identity, error) {
	resp, err := s.rpc.SignIn(ctx, &pb.SignInRequest{Email: email, Password: secret})
	if err != nil {
		return model.Identity{}, decode(err)
	}
	return s.authenticated(resp)
}

// SignUp creates an account and signs it in.
func (s *Sessions) SignUp(ctx context.Context, email, secret string) (model.Identity, error) {
	resp, err := s.rpc.SignUp(ctx, &pb.SignUpRequest{Email: email, Password: secret})
	if err != nil {
		return model.Identity{}, decode(err)
	}
	return s.authenticated(resp)
}

// UpdateDisplayName sets the profile name of the current account.
func (s *Sessions) UpdateDisplayName(ctx context.Context, name string) (model.Identity, error) {
	resp, err := s.rpc.UpdateDisplayName(ctx, &pb.UpdateDisplayNameRequest{DisplayName: name})
	if err != nil {
		return model.Identity{}, decode(err)
	}
	id, err := convert.FromWireIdentity(*resp)
	if err != nil {
		return model.Identity{}, err
	}
	s.mu.Lock()
	exp := s.expires
	s.mu.Unlock()
	s.adopt(s.bearer.get(), exp, id)
	return id, nil
}

// SendPasswordReset asks the backend to mail a reset link.
func (s *Sessions) SendPasswordReset(ctx context.Context, email string) error {
	_, err := s.rpc.SendPasswordReset(ctx, &pb.SendPasswordResetRequest{Email: email})
	return decode(err)
}

// ConfirmPasswordReset sets a new password using the token from the reset link.
func (s *Sessions) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	_, err := s.rpc.ConfirmPasswordReset(ctx, &pb.ConfirmPasswordResetRequest{Token: token, NewPassword: newPassword})
	return decode(err)
}

// SignOut forgets the session locally. Access tokens are stateless, so there is
// nothing to revoke on the server.
func (s *Sessions) SignOut(context.Context) error {
	s.drop()
	return nil
}

// Restore loads a cached session that has not expired and refreshes the identity
// from the backend. A token the backend rejects is discarded.
func (s *Sessions) Restore(ctx context.Context) (*model.Identity, error) {
	if s.cache == nil {
		return nil, nil
	}
	cached, ok, err := s.cache.Session()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if cached.Expired(s.now()) {
		s.drop()
		return nil, nil
	}

	s.bearer.set(cached.AccessToken)
	resp, err := s.rpc.WhoAmI(ctx, &pb.WhoAmIRequest{})
	if err != nil {
		err = decode(err)
		if errors.Is(err, errs.ErrUnauthorized) {
			s.drop()
			return nil, nil
		}
		s.bearer.set("")
		return nil, err
	}
	id, err := convert.FromWireIdentity(*resp)
	if err != nil {
		s.bearer.set("")
		return nil, err
	}
	s.adopt(cached.AccessToken, cached.ExpiresAt, id)
	return &id, nil
}
