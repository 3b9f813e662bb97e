package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-contacts-api/internal/config"
	"github.com/redmonkez12/go-contacts-api/internal/logging"
)

type sentMail struct {
	to  string
	msg string
}

func newTestService(t *testing.T, host string) (*Service, *[]sentMail) {
	t.Helper()

	svc, err := NewService(
		config.EmailConfig{SMTPHost: host, SMTPPort: "587", FromAddress: "noreply@example.com"},
		"https://api.example.com",
		LinkTTLs{EmailConfirmation: 24 * time.Hour, PasswordReset: time.Hour},
		logging.NewNopLogger(),
	)
	require.NoError(t, err)

	var sent []sentMail
	svc.send = func(_ context.Context, to string, msg []byte) error {
		sent = append(sent, sentMail{to: to, msg: string(msg)})
		return nil
	}
	return svc, &sent
}

func TestService_SendConfirmation(t *testing.T) {
	svc, sent := newTestService(t, "smtp.example.com")

	require.NoError(t, svc.SendConfirmation(context.Background(), "alice@x.com", "alice", "tok.en"))

	require.Len(t, *sent, 1)
	mail := (*sent)[0]
	assert.Equal(t, "alice@x.com", mail.to)
	assert.Contains(t, mail.msg, "Subject: Confirm your email\r\n")
	assert.Contains(t, mail.msg, "From: noreply@example.com\r\n")
	assert.Contains(t, mail.msg, "https://api.example.com/api/auth/confirmed_email/tok.en")
	assert.Contains(t, mail.msg, "Welcome, alice!")
	assert.Contains(t, mail.msg, "24 hours")
}

func TestService_SendPasswordReset(t *testing.T) {
	svc, sent := newTestService(t, "smtp.example.com")

	require.NoError(t, svc.SendPasswordReset(context.Background(), "alice@x.com", "alice", "reset-token"))

	require.Len(t, *sent, 1)
	assert.Contains(t, (*sent)[0].msg, "https://api.example.com/api/auth/password_reset/reset-token")
	assert.Contains(t, (*sent)[0].msg, "1 hour")
}

func TestService_SkipsWithoutSMTPHost(t *testing.T) {
	svc, sent := newTestService(t, "")

	require.NoError(t, svc.SendConfirmation(context.Background(), "alice@x.com", "alice", "t"))
	assert.Empty(t, *sent)
}

func TestService_SendFailure(t *testing.T) {
	svc, _ := newTestService(t, "smtp.example.com")
	svc.send = func(context.Context, string, []byte) error {
		return errors.New("connection refused")
	}

	err := svc.SendPasswordReset(context.Background(), "alice@x.com", "alice", "t")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "24 hours", humanDuration(24*time.Hour))
	assert.Equal(t, "1 hour", humanDuration(time.Hour))
	assert.Equal(t, "15 minutes", humanDuration(15*time.Minute))
	assert.Equal(t, "1m30s", humanDuration(90*time.Second))
}
