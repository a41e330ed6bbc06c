package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/and161185/studyflow/internal/errs"
	model "github.com/and161185/studyflow/internal/model"
	"github.com/and161185/studyflow/internal/notify"
)

// User-visible texts of the authentication flow.
const (
	MsgLoggedIn        = "Logged in successfully!"
	MsgSignedUp        = "Account created and logged in successfully!"
	MsgResetSent       = "If an account with that email exists, a password reset link has been sent!"
	MsgLoggedOut       = "You have been logged out."
	MsgPasswordsDiffer = "Passwords do not match!"
	MsgEmptyUsername   = "Username cannot be empty!"
	MsgInvalidEmail    = "Please enter a valid email address!"
)

const notBlankTag = "notblank"

// SignUpForm is the input of the sign-up form.
type SignUpForm struct {
	Email    string `validate:"required,email"`
	Username string `validate:"notblank"`
	Secret   string
	Confirm  string `validate:"eqfield=Secret"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && strings.TrimSpace(s) != ""
	})
	return v
}

// AuthFlow turns sign-in, sign-up and password reset outcomes into notifications.
// Session state itself is owned by the SessionStore.
type AuthFlow struct {
	sessions SessionStore
	plans    PlanStore
	bus      Notifier
	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time

	signIn, signUp, reset gate
}

// NewAuthFlow wires the flow to its stores.
func NewAuthFlow(sessions SessionStore, plans PlanStore, bus Notifier, log *zap.Logger) *AuthFlow {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthFlow{
		sessions: sessions,
		plans:    plans,
		bus:      bus,
		log:      log,
		validate: newValidator(),
		now:      time.Now,
	}
}

// Loading reports whether any auth form has a request in flight.
func (a *AuthFlow) Loading() bool {
	return a.signIn.held() || a.signUp.held() || a.reset.held()
}

// SignIn authenticates with address and secret.
func (a *AuthFlow) SignIn(ctx context.Context, address, secret string) error {
	if !a.signIn.enter() {
		return errs.ErrBusy
	}
	defer a.signIn.leave()

	if _, err := a.sessions.SignIn(ctx, strings.TrimSpace(address), secret); err != nil {
		a.log.Debug("sign in failed", zap.Error(err))
		a.bus.Publish(fmt.Sprintf("Login failed: %v", err), notify.SeverityError)
		return err
	}
	a.bus.Publish(MsgLoggedIn, notify.SeveritySuccess)
	return nil
}

// checkSignUp validates the form locally. The returned message is meant for the user.
func (a *AuthFlow) checkSignUp(f SignUpForm) (string, bool) {
	err := a.validate.Struct(f)
	if err == nil {
		return "", true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error(), false
	}
	failed := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		failed[fe.Field()] = true
	}
	switch {
	case failed["Confirm"]:
		return MsgPasswordsDiffer, false
	case failed["Username"]:
		return MsgEmptyUsername, false
	default:
		return MsgInvalidEmail, false
	}
}

// SignUp validates the form, creates the account, sets its display name and writes
// the profile record. Nothing reaches the identity provider if validation fails.
func (a *AuthFlow) SignUp(ctx context.Context, f SignUpForm) error {
	if !a.signUp.enter() {
		return errs.ErrBusy
	}
	defer a.signUp.leave()

	f.Email = strings.TrimSpace(f.Email)
	if msg, ok := a.checkSignUp(f); !ok {
		a.bus.Publish(msg, notify.SeverityError)
		return fmt.Errorf("%w: %s", errs.ErrValidation, msg)
	}
	username := strings.TrimSpace(f.Username)

	fail := func(err error) error {
		a.log.Debug("sign up failed", zap.Error(err))
		a.bus.Publish(fmt.Sprintf("Signup failed: %v", err), notify.SeverityError)
		return err
	}

	id, err := a.sessions.SignUp(ctx, f.Email, f.Secret)
	if err != nil {
		return fail(err)
	}
	if _, err := a.sessions.UpdateDisplayName(ctx, username); err != nil {
		return fail(err)
	}
	profile := model.Profile{
		UserID:    id.UserID,
		Username:  username,
		Email:     f.Email,
		CreatedAt: a.now().UTC(),
	}
	if err := a.plans.SetProfile(ctx, profile); err != nil {
		return fail(err)
	}
	a.bus.Publish(MsgSignedUp, notify.SeveritySuccess)
	return nil
}

// ResetPassword asks the provider to mail a reset link. The success message does not
// reveal whether the address has an account.
func (a *AuthFlow) ResetPassword(ctx context.Context, address string) error {
	if !a.reset.enter() {
		return errs.ErrBusy
	}
	defer a.reset.leave()

	if err := a.sessions.SendPasswordReset(ctx, strings.TrimSpace(address)); err != nil {
		a.bus.Publish(fmt.Sprintf("Password reset failed: %v", err), notify.SeverityError)
		return err
	}
	a.bus.Publish(MsgResetSent, notify.SeveritySuccess)
	return nil
}

// SignOut ends the session. Listeners of the SessionStore reopen the auth overlay.
func (a *AuthFlow) SignOut(ctx context.Context) error {
	if err := a.sessions.SignOut(ctx); err != nil {
		a.bus.Publish(fmt.Sprintf("Error logging out: %v", err), notify.SeverityError)
		return err
	}
	a.bus.Publish(MsgLoggedOut, notify.SeverityInfo)
	return nil
}
