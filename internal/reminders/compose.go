package reminders

import (
	"fmt"
	stdhtml "html"
	"strings"
	"time"

	"github.com/parejaapp/pareja-backend/internal/delivery"
	"github.com/parejaapp/pareja-backend/internal/users"
	"github.com/parejaapp/pareja-backend/pkg/db/models"
	"github.com/parejaapp/pareja-backend/pkg/email"
	"github.com/parejaapp/pareja-backend/pkg/enums"
	"github.com/parejaapp/pareja-backend/pkg/timeutil"
)

const appointmentsPath = "/app/citas"

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func appointmentsURL(frontendBase string) string {
	return strings.TrimRight(frontendBase, "/") + appointmentsPath
}

func pushData(kind enums.NotificationType, a models.Appointment, frontendBase string) map[string]string {
	return map[string]string{
		"type":          kind.String(),
		"appointmentId": a.ID.String(),
		"url":           appointmentsURL(frontendBase),
	}
}

// ownerMessage renders the reminder for the appointment owner in their zone.
func ownerMessage(a models.Appointment, owner *users.Profile, frontendBase string, now time.Time) (delivery.Message, error) {
	when := timeutil.FormatLocal(a.StartsAt, owner.TimeZone)
	location := optional(a.Location)

	title := "Reminder: " + a.Title
	body := fmt.Sprintf("Your appointment '%s' is on %s", a.Title, when)
	if location != "" {
		body += " at " + location
	}

	details := []email.Detail{{Label: "Title", Value: a.Title}}
	if desc := optional(a.Description); desc != "" {
		details = append(details, email.Detail{Label: "Description", Value: desc})
	}
	details = append(details, email.Detail{Label: "Date and time", Value: when})
	if location != "" {
		details = append(details, email.Detail{Label: "Location", Value: location})
	}

	msg := delivery.Message{
		Title:        title,
		Body:         body,
		Data:         pushData(enums.NotificationTypeAppointmentReminder, a, frontendBase),
		EmailSubject: title,
		SMSText:      title + ". " + body + ".",
	}
	html, err := email.Render(email.Layout{
		Title:      "Appointment reminder",
		Greeting:   greeting(owner.Name),
		Paragraphs: []string{fmt.Sprintf("This is a reminder that your appointment is coming up on %s.", when)},
		Details:    details,
		Action:     &email.Action{URL: appointmentsURL(frontendBase), Label: "View appointments"},
		Year:       now.Year(),
	})
	if err != nil {
		html = plainHTML(body)
	}
	msg.EmailHTML = html
	return msg, err
}

// partnerMessage renders the owner's reminder for their partner, in the
// partner's zone.
func partnerMessage(a models.Appointment, owner, partner *users.Profile, frontendBase string, now time.Time) (delivery.Message, error) {
	when := timeutil.FormatLocal(a.StartsAt, partner.TimeZone)
	ownerName := strings.TrimSpace(owner.Name)

	title := "Appointment of " + ownerName
	body := fmt.Sprintf("Reminder: your partner %s has an appointment '%s' on %s", ownerName, a.Title, when)

	details := []email.Detail{{Label: "Title", Value: a.Title}}
	if desc := optional(a.Description); desc != "" {
		details = append(details, email.Detail{Label: "Description", Value: desc})
	}
	details = append(details, email.Detail{Label: "Date and time", Value: when})
	if location := optional(a.Location); location != "" {
		details = append(details, email.Detail{Label: "Location", Value: location})
	}

	msg := delivery.Message{
		Title:        title,
		Body:         body,
		Data:         pushData(enums.NotificationTypePartnerAppointmentReminder, a, frontendBase),
		EmailSubject: "Reminder: " + title,
		SMSText:      body,
	}
	html, err := email.Render(email.Layout{
		Title:      "Your partner's appointment",
		Greeting:   greeting(partner.Name),
		Paragraphs: []string{body + "."},
		Details:    details,
		Action:     &email.Action{URL: appointmentsURL(frontendBase), Label: "View appointments"},
		Year:       now.Year(),
	})
	if err != nil {
		html = plainHTML(body)
	}
	msg.EmailHTML = html
	return msg, err
}

func plainHTML(body string) string {
	return "<p>" + stdhtml.EscapeString(body) + "</p>"
}

func greeting(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Hi,"
	}
	return "Hi " + name + ","
}
