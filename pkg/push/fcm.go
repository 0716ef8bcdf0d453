// Package push delivers device notifications through Firebase Cloud Messaging.
package push

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/parejaapp/pareja-backend/pkg/config"
	pkgerrors "github.com/parejaapp/pareja-backend/pkg/errors"
)

const (
	androidChannelID = "EVENT_REMINDER"
	apnsCategory     = "EVENT_REMINDER"
	clickAction      = "FLUTTER_NOTIFICATION_CLICK"
	defaultSound     = "default"
)

// messageClient is the subset of *messaging.Client the sender needs.
type messageClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMSender sends one notification to one device token.
type FCMSender struct {
	client messageClient
}

// NewFCMSender initializes a Firebase app from base64 credentials, falling
// back to a credentials file.
func NewFCMSender(ctx context.Context, cfg config.FirebaseConfig) (*FCMSender, error) {
	opt, err := credentialsOption(cfg)
	if err != nil {
		return nil, err
	}

	var appCfg *firebase.Config
	if projectID := strings.TrimSpace(cfg.ProjectID); projectID != "" {
		appCfg = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, appCfg, opt)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase messaging: %w", err)
	}

	return NewFCMSenderWithClient(client), nil
}

// NewFCMSenderWithClient wraps an existing messaging client.
func NewFCMSenderWithClient(client messageClient) *FCMSender {
	return &FCMSender{client: client}
}

func credentialsOption(cfg config.FirebaseConfig) (option.ClientOption, error) {
	if encoded := strings.TrimSpace(cfg.CredentialsBase64); encoded != "" {
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("decoding firebase credentials: %w", err)
		}
		return option.WithCredentialsJSON(decoded), nil
	}
	if path := strings.TrimSpace(cfg.CredentialsFile); path != "" {
		return option.WithCredentialsFile(path), nil
	}
	return nil, fmt.Errorf("firebase credentials required")
}

// Send delivers a single message. Provider failures are returned as
// dependency errors; rejected tokens as validation errors.
func (s *FCMSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	if s == nil || s.client == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "push client not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "device token required")
	}

	if _, err := s.client.Send(ctx, BuildMessage(token, title, body, data)); err != nil {
		if messaging.IsUnregistered(err) || messaging.IsInvalidArgument(err) {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "fcm rejected token")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fcm send")
	}
	return nil
}

// BuildMessage assembles the FCM payload with the Android and APNS blocks
// the mobile clients expect for reminder-style alerts.
func BuildMessage(token, title, body string, data map[string]string) *messaging.Message {
	var payload map[string]string
	if len(data) > 0 {
		payload = make(map[string]string, len(data))
		for k, v := range data {
			payload[k] = v
		}
	}

	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: payload,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:       defaultSound,
				ClickAction: clickAction,
				ChannelID:   androidChannelID,
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority": "10",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: title,
						Body:  body,
					},
					Sound:            defaultSound,
					Category:         apnsCategory,
					ContentAvailable: true,
				},
			},
		},
	}
}
