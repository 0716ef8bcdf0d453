package sms

import (
	"context"

	"github.com/parejaapp/pareja-backend/pkg/logger"
)

// NoopSender drops messages. It backs environments without an SMS provider.
type NoopSender struct {
	logg *logger.Logger
}

func NewNoopSender(logg *logger.Logger) *NoopSender {
	return &NoopSender{logg: logg}
}

func (s *NoopSender) Send(ctx context.Context, to, message string) error {
	if s.logg != nil {
		s.logg.Debug(s.logg.WithField(ctx, "sms_to", to), "sms provider disabled; message dropped")
	}
	return nil
}
