// Package email sends HTML mail over SMTP.
package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/gomail.v2"

	"github.com/parejaapp/pareja-backend/pkg/config"
	pkgerrors "github.com/parejaapp/pareja-backend/pkg/errors"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender delivers one HTML message per call.
type SMTPSender struct {
	dialer   dialer
	from     string
	fromName string
	validate *validator.Validate
}

func NewSMTPSender(cfg config.SMTPConfig) (*SMTPSender, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("smtp host required")
	}
	from := cfg.Sender()
	if from == "" {
		return nil, fmt.Errorf("smtp sender address required")
	}
	return NewSMTPSenderWithDialer(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), from, cfg.FromName), nil
}

// NewSMTPSenderWithDialer builds a sender around an existing dialer.
func NewSMTPSenderWithDialer(d dialer, from, fromName string) *SMTPSender {
	return &SMTPSender{
		dialer:   d,
		from:     from,
		fromName: strings.TrimSpace(fromName),
		validate: validator.New(),
	}
}

func (s *SMTPSender) SendHTML(ctx context.Context, to, subject, html string) error {
	if s == nil || s.dialer == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "smtp sender not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	to = strings.TrimSpace(to)
	if err := s.validate.Var(to, "required,email"); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid recipient email")
	}

	m := gomail.NewMessage()
	if s.fromName != "" {
		m.SetAddressHeader("From", s.from, s.fromName)
	} else {
		m.SetHeader("From", s.from)
	}
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	if err := s.dialer.DialAndSend(m); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "smtp send")
	}
	return nil
}
