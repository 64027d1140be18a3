// Package email sends plain-text mail.
package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/devconnect/backend/pkg/logger"
)

// Sender delivers one message to one recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender authenticates with PLAIN auth against host:port.
type SMTPSender struct {
	Host     string
	Port     int
	From     string
	Password string

	// send is swapped in tests
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New returns an SMTP sender, or a NopSender when host or from is empty.
func New(host string, port int, from, password string) Sender {
	if host == "" || from == "" {
		return NopSender{}
	}
	return NewSMTPSender(host, port, from, password)
}

func NewSMTPSender(host string, port int, from, password string) *SMTPSender {
	return &SMTPSender{Host: host, Port: port, From: from, Password: password, send: smtp.SendMail}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	auth := smtp.PlainAuth("", s.From, s.Password, s.Host)
	if err := s.send(addr, auth, s.From, []string{to}, buildMessage(s.From, to, subject, body)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// NopSender logs instead of sending. Used when SMTP is not configured.
type NopSender struct{}

func (NopSender) Send(_ context.Context, to, subject, _ string) error {
	logger.Log.WithField("to", to).WithField("subject", subject).Info("email not sent: SMTP not configured")
	return nil
}
