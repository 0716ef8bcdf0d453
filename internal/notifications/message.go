package notifications

import (
	"html"
	"time"

	"github.com/parejaapp/pareja-backend/internal/delivery"
	"github.com/parejaapp/pareja-backend/pkg/db/models"
	"github.com/parejaapp/pareja-backend/pkg/email"
	"github.com/parejaapp/pareja-backend/pkg/enums"
)

// composeMessage renders a notification for every channel. The push data
// carries the author's additional data plus a default type and id.
func composeMessage(n models.Notification, now time.Time) (delivery.Message, error) {
	data := n.Data()

	pushData := make(map[string]string, len(data)+2)
	for k, v := range data {
		pushData[k] = v
	}
	if _, ok := pushData["type"]; !ok {
		pushData["type"] = enums.NotificationTypeGeneral.String()
	}
	if _, ok := pushData["notificationId"]; !ok {
		pushData["notificationId"] = n.ID.String()
	}

	msg := delivery.Message{
		Title:        n.Title,
		Body:         n.Body,
		Data:         pushData,
		EmailSubject: n.Title,
		SMSText:      n.Title + "\n" + n.Body,
	}

	body, err := email.Render(email.Layout{
		Title:      n.Title,
		Paragraphs: email.Paragraphs(n.Body),
		Data:       email.DataRows(data),
		Year:       now.Year(),
	})
	if err != nil {
		msg.EmailHTML = "<p>" + html.EscapeString(n.Body) + "</p>"
		return msg, err
	}
	msg.EmailHTML = body
	return msg, nil
}
