// Package service contains application services for accounts, plans and profiles.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	pkgcrypto "github.com/and161185/studyflow/internal/crypto"
	"github.com/and161185/studyflow/internal/errs"
	"github.com/and161185/studyflow/internal/limiter"
	mailer "github.com/and161185/studyflow/internal/mail"
	"github.com/and161185/studyflow/internal/model"
	"github.com/and161185/studyflow/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// resetAudience marks single-purpose password reset tokens.
const resetAudience = "password-reset"

// AuthService defines the identity provider operations.
type AuthService interface {
	// SignUp creates an account and signs it in.
	SignUp(ctx context.Context, email, password string) (model.Tokens, model.User, error)
	// SignIn applies rate limiting and authenticates the user.
	SignIn(ctx context.Context, email, password, ip string) (model.Tokens, model.User, error)
	// SetDisplayName updates the profile name of the account.
	SetDisplayName(ctx context.Context, userID uuid.UUID, name string) error
	// Identity loads the account behind a valid session.
	Identity(ctx context.Context, userID uuid.UUID) (model.User, error)
	// RequestPasswordReset mails a reset link if the account exists. It never reveals existence.
	RequestPasswordReset(ctx context.Context, email string) error
	// ConfirmPasswordReset sets a new password using a mailed reset token.
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	// VerifyAccessToken returns the subject of a valid access token.
	VerifyAccessToken(token string) (uuid.UUID, error)
}

// AuthConfig carries token settings.
type AuthConfig struct {
	SignKey   []byte
	AccessTTL time.Duration
	ResetTTL  time.Duration
	ResetURL  string
	// MailTimeout bounds the delivery of one reset mail.
	MailTimeout time.Duration
}

type AuthServiceImpl struct {
	users  repository.UserRepository
	lim    limiter.Limiter
	mailer mailer.Mailer
	cfg    AuthConfig
	log    *zap.Logger
	now    func() time.Time

	mails sync.WaitGroup
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, lim limiter.Limiter, m mailer.Mailer, cfg AuthConfig, log *zap.Logger) *AuthServiceImpl {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 24 * time.Hour
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	if cfg.MailTimeout <= 0 {
		cfg.MailTimeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthServiceImpl{users: users, lim: lim, mailer: m, cfg: cfg, log: log, now: time.Now}
}

func validCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return fmt.Errorf("%w: empty email/password", errs.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: bad email", errs.ErrValidation)
	}
	return nil
}

// SignUp creates a new user record with a per-user salt and issues a token.
func (s *AuthServiceImpl) SignUp(ctx context.Context, email, password string) (model.Tokens, model.User, error) {
	if err := validCredentials(email, password); err != nil {
		return model.Tokens{}, model.User{}, err
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	hash, salt, err := pkgcrypto.NewCredentials(password)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	u := &model.User{
		ID:        uid,
		Email:     strings.TrimSpace(email),
		PwdHash:   hash,
		SaltAuth:  salt,
		CreatedAt: s.now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return model.Tokens{}, model.User{}, err
	}
	tok, err := s.issueAccessToken(uid)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	return tok, *u, nil
}

// SignIn authenticates with rate limiting by (email, ip).
func (s *AuthServiceImpl) SignIn(ctx context.Context, email, password, ip string) (model.Tokens, model.User, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	if !allowed {
		return model.Tokens{}, model.User{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil || !pkgcrypto.VerifyPassword([]byte(password), u.SaltAuth, u.PwdHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return model.Tokens{}, model.User{}, errs.ErrRateLimited
		}
		// unknown address and wrong password look the same
		return model.Tokens{}, model.User{}, errs.ErrUnauthorized
	}

	_ = s.lim.Success(ctx, email, ipHash)

	tok, err := s.issueAccessToken(u.ID)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	return tok, *u, nil
}

// SetDisplayName updates the stored profile name.
func (s *AuthServiceImpl) SetDisplayName(ctx context.Context, userID uuid.UUID, name string) error {
	if userID == uuid.Nil {
		return fmt.Errorf("%w: empty userID", errs.ErrValidation)
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty display name", errs.ErrValidation)
	}
	return s.users.SetDisplayName(ctx, userID, strings.TrimSpace(name))
}

// Identity returns the account for a session; a vanished account is unauthorized.
func (s *AuthServiceImpl) Identity(ctx context.Context, userID uuid.UUID) (model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, errs.ErrNotFound) {
		return model.User{}, errs.ErrUnauthorized
	}
	if err != nil {
		return model.User{}, err
	}
	return *u, nil
}

type resetClaims struct {
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

// RequestPasswordReset mails a single-use link to an existing account. Delivery runs
// in the background so the response time is the same whether or not the account exists.
func (s *AuthServiceImpl) RequestPasswordReset(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: empty email", errs.ErrValidation)
	}
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, errs.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	now := s.now()
	claims := resetClaims{
		Fingerprint: pkgcrypto.Fingerprint(u.PwdHash),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			Audience:  jwt.ClaimStrings{resetAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.ResetTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.SignKey)
	if err != nil {
		return err
	}
	link, err := mailer.ResetLink(s.cfg.ResetURL, token)
	if err != nil {
		return err
	}
	mailCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.MailTimeout)
	s.mails.Add(1)
	go func(id uuid.UUID, to string) {
		defer s.mails.Done()
		defer cancel()
		if err := s.mailer.SendPasswordReset(mailCtx, to, link); err != nil {
			s.log.Error("reset mail failed", zap.String("user_id", id.String()), zap.Error(err))
		}
	}(u.ID, u.Email)
	return nil
}

// Drain waits for reset mails still being delivered.
func (s *AuthServiceImpl) Drain() {
	s.mails.Wait()
}

// ConfirmPasswordReset checks the reset token and rotates salt and hash.
func (s *AuthServiceImpl) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return fmt.Errorf("%w: empty token/password", errs.ErrValidation)
	}
	var claims resetClaims
	if err := s.parse(token, &claims, jwt.WithAudience(resetAudience)); err != nil {
		return errs.ErrUnauthorized
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return errs.ErrUnauthorized
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.ErrUnauthorized
		}
		return err
	}
	if !pkgcrypto.FingerprintMatches(u.PwdHash, claims.Fingerprint) {
		// password already changed since the token was issued
		return errs.ErrUnauthorized
	}
	hash, salt, err := pkgcrypto.NewCredentials(newPassword)
	if err != nil {
		return err
	}
	return s.users.SetPassword(ctx, id, hash, salt)
}

// VerifyAccessToken verifies HS256 and returns sub as UUID. Reset tokens are rejected.
func (s *AuthServiceImpl) VerifyAccessToken(token string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	if err := s.parse(token, &claims); err != nil {
		return uuid.Nil, err
	}
	if len(claims.Audience) != 0 {
		return uuid.Nil, errors.New("not an access token")
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return uuid.Nil, errors.New("bad subject")
	}
	return id, nil
}

func (s *AuthServiceImpl) parse(token string, claims jwt.Claims, opts ...jwt.ParserOption) error {
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(30*time.Second),
		jwt.WithTimeFunc(s.now),
	)
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.cfg.SignKey, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return errors.New("invalid token")
	}
	return nil
}

// issueAccessToken creates a signed HS256 JWT for the given subject.
func (s *AuthServiceImpl) issueAccessToken(userID uuid.UUID) (model.Tokens, error) {
	now := s.now()
	exp := now.Add(s.cfg.AccessTTL)
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.SignKey)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: signed, ExpiresAt: exp}, nil
}
