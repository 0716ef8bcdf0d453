package sms

import (
	"context"
	"fmt"
	"strings"

	"github.com/kavenegar/kavenegar-go"

	pkgerrors "github.com/parejaapp/pareja-backend/pkg/errors"
)

const defaultKavenegarSender = "10008663"

type kavenegarMessageAPI interface {
	Send(sender string, receptor []string, message string, params *kavenegar.MessageSendParam) ([]kavenegar.Message, error)
}

type KavenegarSender struct {
	api    kavenegarMessageAPI
	sender string
}

func NewKavenegarSender(apiKey, sender string) (*KavenegarSender, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("kavenegar api key required")
	}
	api := kavenegar.New(apiKey)
	return newKavenegarSender(api.Message, sender), nil
}

func newKavenegarSender(api kavenegarMessageAPI, sender string) *KavenegarSender {
	sender = strings.TrimSpace(sender)
	if sender == "" {
		sender = defaultKavenegarSender
	}
	return &KavenegarSender{api: api, sender: sender}
}

func (s *KavenegarSender) Send(ctx context.Context, to, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "sms recipient required")
	}

	res, err := s.api.Send(s.sender, []string{to}, message, nil)
	if err != nil {
		switch err.(type) {
		case *kavenegar.APIError:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "kavenegar api error")
		case *kavenegar.HTTPError:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "kavenegar http error")
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "kavenegar send")
		}
	}
	if len(res) == 0 {
		return pkgerrors.New(pkgerrors.CodeDependency, "no response entries from kavenegar")
	}
	return nil
}
