package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"gopkg.in/gomail.v2"
)

var ErrMailDisabled = errors.New("mail delivery is not configured")

// Mailer delivers verification codes. Callers treat any error as a soft
// failure.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, address, code, displayName string) error
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
	Timeout  time.Duration
}

type SMTPMailer struct {
	dialer  *gomail.Dialer
	sender  string
	timeout time.Duration
}

var verificationTmpl = template.Must(template.New("verification").Parse(
	`<p>Hi {{.Name}},</p>
<p>Your Mangrove Watch verification code is <strong>{{.Code}}</strong>.</p>
<p>The code expires in {{.Minutes}} minutes. If you did not sign up, ignore this email.</p>`))

func NewSMTPMailer(cfg MailConfig) *SMTPMailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	sender := cfg.Sender
	if sender == "" {
		sender = cfg.Username
	}

	return &SMTPMailer{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		sender:  sender,
		timeout: cfg.Timeout,
	}
}

func (m *SMTPMailer) SendVerificationEmail(ctx context.Context, address, code, displayName string) error {
	if strings.EqualFold(address, m.sender) {
		return errors.New("invalid email address")
	}

	var body bytes.Buffer
	err := verificationTmpl.Execute(&body, map[string]any{
		"Name":    displayName,
		"Code":    code,
		"Minutes": int(DefaultOTPTTL.Minutes()),
	})
	if err != nil {
		return fmt.Errorf("failed to render verification email, %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", address)
	msg.SetHeader("Subject", "Your Mangrove Watch verification code")
	msg.SetBody("text/html", body.String())

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- m.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send verification email, %w", err)
		}

		return nil
	case <-ctx.Done():
		return fmt.Errorf("verification email not sent in time, %w", ctx.Err())
	}
}

// DisabledMailer is used when no SMTP host is configured.
type DisabledMailer struct{}

func (DisabledMailer) SendVerificationEmail(context.Context, string, string, string) error {
	return ErrMailDisabled
}
