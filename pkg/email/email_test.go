package email

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPSender_Send(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", 587, "noreply@example.com", "secret")

	var gotAddr string
	var gotTo []string
	var gotMsg string
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotTo = to
		gotMsg = string(msg)
		return nil
	}

	require.NoError(t, s.Send(context.Background(), "alice@example.com", "Hi", "Body text"))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"alice@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Hi\r\n")
	assert.Contains(t, gotMsg, "\r\n\r\nBody text")
}

func TestSMTPSender_Error(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", 587, "noreply@example.com", "secret")
	s.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }

	err := s.Send(context.Background(), "alice@example.com", "Hi", "Body")
	assert.ErrorContains(t, err, "refused")
}

func TestSMTPSender_CancelledContext(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", 587, "noreply@example.com", "secret")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, "a@example.com", "s", "b"), context.Canceled)
}

func TestNew_FallsBackToNop(t *testing.T) {
	assert.IsType(t, NopSender{}, New("", 587, "noreply@example.com", ""))
	assert.IsType(t, NopSender{}, New("smtp.example.com", 587, "", ""))
	assert.IsType(t, &SMTPSender{}, New("smtp.example.com", 587, "noreply@example.com", "pw"))
}
