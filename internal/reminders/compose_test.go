package reminders

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/parejaapp/pareja-backend/internal/users"
	"github.com/parejaapp/pareja-backend/pkg/db/models"
)

func strPtr(s string) *string { return &s }

func TestOwnerMessage(t *testing.T) {
	appt := models.Appointment{
		ID:          uuid.MustParse("7b0c1c4e-6a55-4c57-8a54-7d0a9d5c0b11"),
		Title:       "Dentist",
		Description: strPtr("Cleaning"),
		Location:    strPtr("Clinic"),
		StartsAt:    time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC),
	}
	owner := &users.Profile{Name: "Ana", TimeZone: "America/Mexico_City"}

	msg, err := ownerMessage(appt, owner, "https://pareja.example.com/", pollAt)
	if err != nil {
		t.Fatalf("ownerMessage returned error: %v", err)
	}
	if msg.Title != "Reminder: Dentist" {
		t.Fatalf("unexpected title %q", msg.Title)
	}
	if want := "Your appointment 'Dentist' is on 12:00 01/06/2025 at Clinic"; msg.Body != want {
		t.Fatalf("expected body %q, got %q", want, msg.Body)
	}
	if want := "Reminder: Dentist. " + msg.Body + "."; msg.SMSText != want {
		t.Fatalf("expected sms %q, got %q", want, msg.SMSText)
	}
	if msg.Data["type"] != "appointment-reminder" {
		t.Fatalf("unexpected push type %q", msg.Data["type"])
	}
	if msg.Data["appointmentId"] != appt.ID.String() {
		t.Fatalf("unexpected appointment id %q", msg.Data["appointmentId"])
	}
	if msg.Data["url"] != "https://pareja.example.com/app/citas" {
		t.Fatalf("unexpected url %q", msg.Data["url"])
	}
	for _, want := range []string{"Cleaning", "Clinic", "12:00 01/06/2025", "View appointments", "Hi Ana,"} {
		if !strings.Contains(msg.EmailHTML, want) {
			t.Fatalf("expected email to contain %q", want)
		}
	}
}

func TestOwnerMessageWithoutLocation(t *testing.T) {
	appt := models.Appointment{Title: "Dinner", StartsAt: time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)}
	msg, err := ownerMessage(appt, &users.Profile{}, "https://pareja.example.com", pollAt)
	if err != nil {
		t.Fatalf("ownerMessage returned error: %v", err)
	}
	if want := "Your appointment 'Dinner' is on 18:00 01/06/2025"; msg.Body != want {
		t.Fatalf("expected body %q, got %q", want, msg.Body)
	}
}

func TestPartnerMessageUsesPartnerZone(t *testing.T) {
	appt := models.Appointment{
		Title:       "Dentist",
		Description: strPtr("Cleaning"),
		StartsAt:    time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC),
	}
	owner := &users.Profile{Name: "Ana", TimeZone: "America/Mexico_City"}
	partner := &users.Profile{Name: "Luis", TimeZone: "UTC"}

	msg, err := partnerMessage(appt, owner, partner, "https://pareja.example.com", pollAt)
	if err != nil {
		t.Fatalf("partnerMessage returned error: %v", err)
	}
	if msg.Title != "Appointment of Ana" {
		t.Fatalf("unexpected title %q", msg.Title)
	}
	if want := "Reminder: your partner Ana has an appointment 'Dentist' on 18:00 01/06/2025"; msg.Body != want {
		t.Fatalf("expected body %q, got %q", want, msg.Body)
	}
	if msg.EmailSubject != "Reminder: Appointment of Ana" {
		t.Fatalf("unexpected subject %q", msg.EmailSubject)
	}
	if msg.Data["type"] != "partner-appointment-reminder" {
		t.Fatalf("unexpected push type %q", msg.Data["type"])
	}
	if msg.SMSText != msg.Body {
		t.Fatalf("expected partner sms to carry only the body, got %q", msg.SMSText)
	}
	for _, want := range []string{"Description", "Cleaning", "18:00 01/06/2025", "Hi Luis,"} {
		if !strings.Contains(msg.EmailHTML, want) {
			t.Fatalf("expected partner email to contain %q", want)
		}
	}
}
