package sms

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	pkgerrors "github.com/parejaapp/pareja-backend/pkg/errors"
)

type twilioMessageAPI interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

type TwilioSender struct {
	api      twilioMessageAPI
	from     string
	validate *validator.Validate
}

func NewTwilioSender(accountSID, authToken, from string) (*TwilioSender, error) {
	accountSID = strings.TrimSpace(accountSID)
	authToken = strings.TrimSpace(authToken)
	if accountSID == "" || authToken == "" {
		return nil, fmt.Errorf("twilio account sid and auth token required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("twilio from number required")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return newTwilioSender(client.Api, from), nil
}

func newTwilioSender(api twilioMessageAPI, from string) *TwilioSender {
	return &TwilioSender{
		api:      api,
		from:     strings.TrimSpace(from),
		validate: validator.New(),
	}
}

func (s *TwilioSender) Send(ctx context.Context, to, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to = strings.TrimSpace(to)
	if err := s.validate.Var(to, "required,e164"); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sms recipient")
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(message)

	if _, err := s.api.CreateMessage(params); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "twilio send")
	}
	return nil
}
