// Package sms sends text messages through a configured provider.
package sms

import (
	"context"
	"fmt"

	"github.com/parejaapp/pareja-backend/pkg/config"
	"github.com/parejaapp/pareja-backend/pkg/logger"
)

// Sender delivers one text message to one phone number.
type Sender interface {
	Send(ctx context.Context, to, message string) error
}

// NewSender picks the provider named in cfg. Provider "none" yields a
// sender that only logs.
func NewSender(cfg config.SMSConfig, logg *logger.Logger) (Sender, error) {
	switch cfg.NormalizedProvider() {
	case config.SMSProviderTwilio:
		return NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom)
	case config.SMSProviderKavenegar:
		return NewKavenegarSender(cfg.KavenegarAPIKey, cfg.KavenegarSender)
	case config.SMSProviderNone:
		return NewNoopSender(logg), nil
	default:
		return nil, fmt.Errorf("unsupported sms provider %q", cfg.Provider)
	}
}
