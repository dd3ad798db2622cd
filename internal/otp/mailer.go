package otp

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/ethanbaker/bankchat/pkg/utils"
)

// Mailer delivers one-time codes. The SMTP implementation is used in
// production; tests substitute a recording mock
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends mail through a plain-auth SMTP relay
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPMailer creates a mailer from SMTP_* config values
func NewSMTPMailer(cfg *utils.Config) (*SMTPMailer, error) {
	host := cfg.Get("SMTP_HOST")
	if host == "" {
		return nil, fmt.Errorf("SMTP_HOST not set in environment")
	}

	return &SMTPMailer{
		host:     host,
		port:     cfg.GetWithDefault("SMTP_PORT", "587"),
		username: cfg.Get("SMTP_USERNAME"),
		password: cfg.Get("SMTP_PASSWORD"),
		from:     cfg.GetWithDefault("SMTP_FROM", cfg.Get("SMTP_USERNAME")),
	}, nil
}

// Send delivers a single plain-text message
func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.from, to, subject, body)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	addr := m.host + ":" + m.port
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	return nil
}

// LogMailer writes codes to the log instead of sending mail. Used when no
// SMTP relay is configured so the demo still works end to end
type LogMailer struct{}

// Send logs the message instead of delivering it
func (LogMailer) Send(to, subject, body string) error {
	log.Printf("[OTP-MAIL]: to=%s subject=%q body=%q", to, subject, body)
	return nil
}
