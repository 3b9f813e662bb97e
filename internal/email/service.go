package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"net/url"
	"time"

	"github.com/samber/oops"

	"github.com/redmonkez12/go-contacts-api/internal/config"
	"github.com/redmonkez12/go-contacts-api/internal/logging"
	"github.com/redmonkez12/go-contacts-api/templates"
)

// Links point at these API routes
const (
	ConfirmEmailPath  = "/api/auth/confirmed_email/"
	PasswordResetPath = "/api/auth/password_reset/"
)

// LinkTTLs are printed in the mail footer
type LinkTTLs struct {
	EmailConfirmation time.Duration
	PasswordReset     time.Duration
}

type Service struct {
	cfg     config.EmailConfig
	baseURL string
	ttls    LinkTTLs
	logger  *logging.Logger

	confirmTmpl *template.Template
	resetTmpl   *template.Template

	// replaced in tests
	send func(ctx context.Context, to string, msg []byte) error
}

func NewService(cfg config.EmailConfig, baseURL string, ttls LinkTTLs, logger *logging.Logger) (*Service, error) {
	confirmTmpl, err := template.ParseFS(templates.EmailFS, "email/layout.html", "email/confirm_email.html")
	if err != nil {
		return nil, fmt.Errorf("parse confirmation template: %w", err)
	}
	resetTmpl, err := template.ParseFS(templates.EmailFS, "email/layout.html", "email/reset_password.html")
	if err != nil {
		return nil, fmt.Errorf("parse password reset template: %w", err)
	}

	s := &Service{
		cfg:         cfg,
		baseURL:     baseURL,
		ttls:        ttls,
		logger:      logger,
		confirmTmpl: confirmTmpl,
		resetTmpl:   resetTmpl,
	}
	s.send = s.sendSMTP
	return s, nil
}

type mailData struct {
	Username  string
	Link      string
	ExpiresIn string
}

// SendConfirmation sends an email confirmation link to the user
// This method is designed to be called in a goroutine
func (s *Service) SendConfirmation(ctx context.Context, toEmail, username, token string) error {
	data := mailData{
		Username:  username,
		Link:      s.baseURL + ConfirmEmailPath + url.PathEscape(token),
		ExpiresIn: humanDuration(s.ttls.EmailConfirmation),
	}
	return s.deliver(ctx, toEmail, "Confirm your email", s.confirmTmpl, data)
}

// SendPasswordReset sends a password reset link to the user
// This method is designed to be called in a goroutine
func (s *Service) SendPasswordReset(ctx context.Context, toEmail, username, token string) error {
	data := mailData{
		Username:  username,
		Link:      s.baseURL + PasswordResetPath + url.PathEscape(token),
		ExpiresIn: humanDuration(s.ttls.PasswordReset),
	}
	return s.deliver(ctx, toEmail, "Reset your password", s.resetTmpl, data)
}

func (s *Service) deliver(ctx context.Context, to, subject string, tmpl *template.Template, data mailData) error {
	logger := logging.GetLoggerFromContext(ctx)

	if s.cfg.SMTPHost == "" {
		logger.Warn("SMTP not configured, email not sent", "email", to, "subject", subject)
		logger.Debug("undelivered email link", "link", data.Link)
		return nil
	}

	var body bytes.Buffer
	if err := tmpl.ExecuteTemplate(&body, "layout", data); err != nil {
		return oops.Code("EMAIL_RENDER_FAILED").With("subject", subject).Wrap(err)
	}

	if err := s.send(ctx, to, buildMessage(s.cfg.FromAddress, to, subject, body.String())); err != nil {
		return oops.Code("EMAIL_SEND_FAILED").With("subject", subject).Wrap(err)
	}

	logger.Info("email sent", "email", to, "subject", subject)
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	return []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		from, to, subject, body,
	))
}

// sendSMTP is smtp.SendMail with the dial and deadline bound to ctx
func (s *Service) sendSMTP(ctx context.Context, to string, msg []byte) error {
	addr := net.JoinHostPort(s.cfg.SMTPHost, s.cfg.SMTPPort)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.SMTPHost}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if s.cfg.SMTPUser != "" {
		if err := c.Auth(smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(s.cfg.FromAddress); err != nil {
		return fmt.Errorf("smtp mail: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}

	return c.Quit()
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return d.String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
