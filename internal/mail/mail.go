// Package mail delivers account e-mails (password reset links).
package mail

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Mailer sends the password reset link to an address.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

// ResetLink appends the token to base as the "token" query parameter.
func ResetLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("reset url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

const (
	sgHost     = "https://api.sendgrid.com"
	sgEndpoint = "/v3/mail/send"
)

// SendGrid delivers mail through the SendGrid v3 API.
type SendGrid struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	post       func(key string, body []byte) (int, string, error)
}

// NewSendGrid builds a SendGrid mailer.
func NewSendGrid(key, appName, fromEmail string) *SendGrid {
	return &SendGrid{
		key:        key,
		from:       sgmail.NewEmail(appName, fromEmail),
		subjPrefix: "[" + appName + "] ",
		post:       postSendGrid,
	}
}

func postSendGrid(key string, body []byte) (int, string, error) {
	req := sendgrid.GetRequest(key, sgEndpoint, sgHost)
	req.Method = http.MethodPost
	req.Body = body
	res, err := sendgrid.API(req)
	if err != nil {
		return 0, "", err
	}
	return res.StatusCode, res.Body, nil
}

func (s *SendGrid) resetMessage(to, link string) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + "Reset your password"
	p.AddTos(sgmail.NewEmail("", to))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", "Use the link below to choose a new password:\n\n"+link+"\n"),
		sgmail.NewContent("text/html", `<p>Use the link below to choose a new password:</p><p><a href="`+link+`">`+link+`</a></p>`),
	)
	return m
}

// SendPasswordReset implements Mailer.
func (s *SendGrid) SendPasswordReset(_ context.Context, to, link string) error {
	status, body, err := s.post(s.key, sgmail.GetRequestBody(s.resetMessage(to, link)))
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if status >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d: %s", status, body)
	}
	return nil
}

// Log writes reset links to the logger instead of sending them. Used in development.
type Log struct{ log *zap.Logger }

// NewLog builds a logging mailer.
func NewLog(log *zap.Logger) *Log { return &Log{log: log} }

// SendPasswordReset implements Mailer.
func (l *Log) SendPasswordReset(_ context.Context, to, link string) error {
	l.log.Info("password reset mail", zap.String("to", to), zap.String("link", link))
	return nil
}
