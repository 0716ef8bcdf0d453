package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/parejaapp/pareja-backend/pkg/enums"
)

// ErrNoAddress marks a recipient that cannot be reached on a channel. The
// fan-out records it as skipped rather than failed.
var ErrNoAddress = errors.New("recipient has no address for channel")

// Recipient is everything a channel needs to reach one user.
type Recipient struct {
	UserID       uuid.UUID
	Name         string
	Email        string
	Phone        string
	DeviceTokens []string
	TimeZone     string
}

// Message is one rendered message, with per-channel variants.
type Message struct {
	Title        string
	Body         string
	Data         map[string]string
	EmailSubject string
	EmailHTML    string
	SMSText      string
}

// Channel is one independent delivery mechanism.
type Channel interface {
	Kind() enums.Channel
	Deliver(ctx context.Context, recipient Recipient, msg Message) error
}

type PushSender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

type EmailSender interface {
	SendHTML(ctx context.Context, to, subject, html string) error
}

type SMSSender interface {
	Send(ctx context.Context, to, message string) error
}

type pushChannel struct {
	sender PushSender
}

// NewPushChannel sends to every device token of the recipient. A failing
// token does not stop the remaining ones.
func NewPushChannel(sender PushSender) Channel {
	return &pushChannel{sender: sender}
}

func (c *pushChannel) Kind() enums.Channel { return enums.ChannelPush }

func (c *pushChannel) Deliver(ctx context.Context, recipient Recipient, msg Message) error {
	if len(recipient.DeviceTokens) == 0 {
		return ErrNoAddress
	}
	var errs error
	for _, token := range recipient.DeviceTokens {
		if err := c.sender.Send(ctx, token, msg.Title, msg.Body, msg.Data); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("token %s: %w", maskToken(token), err))
		}
	}
	return errs
}

type emailChannel struct {
	sender EmailSender
}

func NewEmailChannel(sender EmailSender) Channel {
	return &emailChannel{sender: sender}
}

func (c *emailChannel) Kind() enums.Channel { return enums.ChannelEmail }

func (c *emailChannel) Deliver(ctx context.Context, recipient Recipient, msg Message) error {
	if strings.TrimSpace(recipient.Email) == "" {
		return ErrNoAddress
	}
	subject := msg.EmailSubject
	if subject == "" {
		subject = msg.Title
	}
	return c.sender.SendHTML(ctx, recipient.Email, subject, msg.EmailHTML)
}

type smsChannel struct {
	sender SMSSender
}

// NewSMSChannel only sends when the recipient has a full phone number.
func NewSMSChannel(sender SMSSender) Channel {
	return &smsChannel{sender: sender}
}

func (c *smsChannel) Kind() enums.Channel { return enums.ChannelSMS }

func (c *smsChannel) Deliver(ctx context.Context, recipient Recipient, msg Message) error {
	if strings.TrimSpace(recipient.Phone) == "" {
		return ErrNoAddress
	}
	text := msg.SMSText
	if text == "" {
		text = msg.Title + "\n" + msg.Body
	}
	return c.sender.Send(ctx, recipient.Phone, text)
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
