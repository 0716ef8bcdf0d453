package reminders

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/parejaapp/pareja-backend/internal/delivery"
	"github.com/parejaapp/pareja-backend/internal/pairings"
	"github.com/parejaapp/pareja-backend/internal/users"
	"github.com/parejaapp/pareja-backend/pkg/db/dbtest"
	"github.com/parejaapp/pareja-backend/pkg/db/models"
	"github.com/parejaapp/pareja-backend/pkg/enums"
	"github.com/parejaapp/pareja-backend/pkg/logger"
)

type pushCall struct {
	token string
	title string
	body  string
	data  map[string]string
}

type fakePush struct {
	calls   []pushCall
	failFor map[string]error
}

func (f *fakePush) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	f.calls = append(f.calls, pushCall{token: token, title: title, body: body, data: data})
	return f.failFor[token]
}

type emailCall struct {
	to      string
	subject string
}

type fakeEmail struct {
	calls []emailCall
}

func (f *fakeEmail) SendHTML(ctx context.Context, to, subject, html string) error {
	f.calls = append(f.calls, emailCall{to: to, subject: subject})
	return nil
}

type fakeSMS struct {
	to       []string
	messages []string
}

func (f *fakeSMS) Send(ctx context.Context, to, message string) error {
	f.to = append(f.to, to)
	f.messages = append(f.messages, message)
	return nil
}

type failingPairings struct{}

func (failingPairings) ActiveFor(ctx context.Context, userID uuid.UUID) (*models.Pairing, error) {
	return nil, errors.New("pairings table unavailable")
}

type harness struct {
	db    *gorm.DB
	push  *fakePush
	email *fakeEmail
	sms   *fakeSMS
	logs  *bytes.Buffer
	now   time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		db:    dbtest.Open(t),
		push:  &fakePush{},
		email: &fakeEmail{},
		sms:   &fakeSMS{},
		logs:  &bytes.Buffer{},
		now:   pollAt,
	}
}

func (h *harness) dispatcher(t *testing.T, resolver PairingResolver, withSMS bool) *Dispatcher {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "reminders-test", Output: h.logs})
	params := delivery.FanoutParams{Logger: logg, Push: h.push, Email: h.email}
	if withSMS {
		params.SMS = h.sms
	}
	fanout, err := delivery.NewFanout(params)
	require.NoError(t, err)
	if resolver == nil {
		resolver = pairings.NewRepository(h.db)
	}

	d, err := NewDispatcher(DispatcherParams{
		Logger:      logg,
		Repo:        NewRepository(h.db),
		Users:       users.NewRepository(h.db),
		Pairings:    resolver,
		Fanout:      fanout,
		FrontendURL: "https://pareja.example.com",
		Now:         func() time.Time { return h.now },
	})
	require.NoError(t, err)
	return d
}

func (h *harness) seedUser(t *testing.T, name, mail, zone, token string) models.User {
	t.Helper()
	user := models.User{ID: uuid.New(), Name: name, Email: mail, TimeZone: &zone}
	require.NoError(t, h.db.Create(&user).Error)
	dt := models.DeviceToken{ID: uuid.New(), UserID: user.ID, Token: token}
	require.NoError(t, h.db.Create(&dt).Error)
	return user
}

func (h *harness) seedUserWithPhone(t *testing.T, name, mail, zone, countryCode, phone string, tokens ...string) models.User {
	t.Helper()
	user := models.User{ID: uuid.New(), Name: name, Email: mail, TimeZone: &zone, CountryCode: &countryCode, Phone: &phone}
	require.NoError(t, h.db.Create(&user).Error)
	for i, token := range tokens {
		dt := models.DeviceToken{ID: uuid.New(), UserID: user.ID, Token: token, CreatedAt: pollAt.Add(time.Duration(i) * time.Second)}
		require.NoError(t, h.db.Create(&dt).Error)
	}
	return user
}

func (h *harness) pair(t *testing.T, requester, recipient uuid.UUID, status enums.PairingStatus) {
	t.Helper()
	p := models.Pairing{ID: uuid.New(), RequesterID: requester, RecipientID: recipient, Status: status}
	require.NoError(t, h.db.Create(&p).Error)
}

func (h *harness) notified(t *testing.T, id uuid.UUID) bool {
	t.Helper()
	var stored models.Appointment
	require.NoError(t, h.db.First(&stored, "id = ?", id).Error)
	return stored.Notified
}

func TestDispatcherRemindsOwnerAndPartnerInTheirZones(t *testing.T) {
	h := newHarness(t)
	owner := h.seedUser(t, "Ana", "ana@example.com", "America/Mexico_City", "token-owner-0001")
	partner := h.seedUser(t, "Luis", "luis@example.com", "UTC", "token-partner-001")
	h.pair(t, partner.ID, owner.ID, enums.PairingStatusAccepted)
	appt := seedAppointment(t, h.db, models.Appointment{
		UserID:   owner.ID,
		Title:    "Dentist",
		StartsAt: time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC),
	})

	d := h.dispatcher(t, nil, true)
	require.NoError(t, d.Run(context.Background()))

	require.Len(t, h.push.calls, 2)
	ownerPush, partnerPush := h.push.calls[0], h.push.calls[1]
	assert.Equal(t, "token-owner-0001", ownerPush.token)
	assert.Equal(t, "Reminder: Dentist", ownerPush.title)
	assert.Equal(t, "Your appointment 'Dentist' is on 12:00 01/06/2025", ownerPush.body)
	assert.Equal(t, appt.ID.String(), ownerPush.data["appointmentId"])

	assert.Equal(t, "token-partner-001", partnerPush.token)
	assert.Equal(t, "Appointment of Ana", partnerPush.title)
	assert.Equal(t, "Reminder: your partner Ana has an appointment 'Dentist' on 18:00 01/06/2025", partnerPush.body)
	assert.Equal(t, "partner-appointment-reminder", partnerPush.data["type"])

	require.Len(t, h.email.calls, 2)
	assert.Equal(t, "ana@example.com", h.email.calls[0].to)
	assert.Equal(t, "Reminder: Appointment of Ana", h.email.calls[1].subject)
	assert.Empty(t, h.sms.to, "users without phone numbers get no SMS")

	assert.True(t, h.notified(t, appt.ID))

	h.now = time.Date(2025, 6, 1, 17, 40, 0, 0, time.UTC)
	require.NoError(t, d.Run(context.Background()))
	assert.Len(t, h.push.calls, 2, "a notified appointment must not be reminded again")
}

func TestDispatcherTextsOwnerAndPartner(t *testing.T) {
	h := newHarness(t)
	owner := h.seedUserWithPhone(t, "Ana", "ana@example.com", "America/Mexico_City", "+52", "5512345678", "token-owner-0001")
	partner := h.seedUserWithPhone(t, "Luis", "luis@example.com", "UTC", "34", "600111222", "token-partner-001")
	h.pair(t, owner.ID, partner.ID, enums.PairingStatusAccepted)
	appt := seedAppointment(t, h.db, models.Appointment{
		UserID:   owner.ID,
		Title:    "Dentist",
		Location: strPtr("Clinic"),
		StartsAt: time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC),
	})

	require.NoError(t, h.dispatcher(t, nil, true).Run(context.Background()))

	require.Equal(t, []string{"+525512345678", "+34600111222"}, h.sms.to)
	assert.Equal(t, "Reminder: Dentist. Your appointment 'Dentist' is on 12:00 01/06/2025 at Clinic.", h.sms.messages[0])
	assert.Equal(t, "Reminder: your partner Ana has an appointment 'Dentist' on 18:00 01/06/2025", h.sms.messages[1])
	assert.True(t, h.notified(t, appt.ID))
}

func TestDispatcherContinuesPastFailingPushToken(t *testing.T) {
	h := newHarness(t)
	h.push.failFor = map[string]error{"token-owner-0002": errors.New("unregistered")}
	owner := h.seedUserWithPhone(t, "Ana", "ana@example.com", "UTC", "+52", "5512345678",
		"token-owner-0001", "token-owner-0002", "token-owner-0003")
	appt := seedAppointment(t, h.db, models.Appointment{UserID: owner.ID, StartsAt: pollAt.Add(20 * time.Minute)})

	require.NoError(t, h.dispatcher(t, nil, true).Run(context.Background()))

	require.Len(t, h.push.calls, 3, "every token is attempted")
	assert.Equal(t, "token-owner-0003", h.push.calls[2].token)
	require.Len(t, h.email.calls, 1)
	assert.Equal(t, "ana@example.com", h.email.calls[0].to)
	assert.Equal(t, []string{"+525512345678"}, h.sms.to)
	assert.True(t, h.notified(t, appt.ID))
}

func TestDispatcherWithoutPairingRemindsOwnerOnly(t *testing.T) {
	h := newHarness(t)
	owner := h.seedUser(t, "Ana", "ana@example.com", "UTC", "token-owner-0001")
	other := h.seedUser(t, "Luis", "luis@example.com", "UTC", "token-partner-001")
	h.pair(t, owner.ID, other.ID, enums.PairingStatusPending)
	appt := seedAppointment(t, h.db, models.Appointment{UserID: owner.ID, StartsAt: pollAt.Add(20 * time.Minute)})

	require.NoError(t, h.dispatcher(t, nil, true).Run(context.Background()))

	require.Len(t, h.push.calls, 1)
	assert.Equal(t, "token-owner-0001", h.push.calls[0].token)
	assert.True(t, h.notified(t, appt.ID))
}

func TestDispatcherIgnoresAppointmentsOutsideWindow(t *testing.T) {
	h := newHarness(t)
	owner := h.seedUser(t, "Ana", "ana@example.com", "UTC", "token-owner-0001")
	later := seedAppointment(t, h.db, models.Appointment{UserID: owner.ID, StartsAt: pollAt.Add(45 * time.Minute)})

	require.NoError(t, h.dispatcher(t, nil, true).Run(context.Background()))

	assert.Empty(t, h.push.calls)
	assert.False(t, h.notified(t, later.ID))
}

func TestDispatcherRecordsReminderWhenPairingLookupFails(t *testing.T) {
	h := newHarness(t)
	owner := h.seedUser(t, "Ana", "ana@example.com", "UTC", "token-owner-0001")
	appt := seedAppointment(t, h.db, models.Appointment{UserID: owner.ID, StartsAt: pollAt.Add(20 * time.Minute)})

	require.NoError(t, h.dispatcher(t, failingPairings{}, true).Run(context.Background()))

	assert.Len(t, h.push.calls, 1)
	assert.True(t, h.notified(t, appt.ID))
	if !strings.Contains(h.logs.String(), "resolve active pairing") {
		t.Fatalf("expected pairing failure to be logged; logs=%s", h.logs.String())
	}
	assert.Contains(t, h.logs.String(), `"remind_at":"2025-06-01T17:25:00Z"`)
}

func TestDispatcherSkipsTickWhenChannelMissing(t *testing.T) {
	h := newHarness(t)
	owner := h.seedUser(t, "Ana", "ana@example.com", "UTC", "token-owner-0001")
	appt := seedAppointment(t, h.db, models.Appointment{UserID: owner.ID, StartsAt: pollAt.Add(20 * time.Minute)})

	require.NoError(t, h.dispatcher(t, nil, false).Run(context.Background()))

	assert.Empty(t, h.push.calls)
	assert.False(t, h.notified(t, appt.ID))
}

func TestDispatcherLeavesAppointmentOfUnknownOwner(t *testing.T) {
	h := newHarness(t)
	appt := seedAppointment(t, h.db, models.Appointment{UserID: uuid.New(), StartsAt: pollAt.Add(20 * time.Minute)})

	require.NoError(t, h.dispatcher(t, nil, true).Run(context.Background()))

	assert.Empty(t, h.push.calls)
	assert.False(t, h.notified(t, appt.ID))
}

func TestNewDispatcherRequiresPairings(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "reminders-test", Output: &bytes.Buffer{}})
	_, err := NewDispatcher(DispatcherParams{
		Logger: logg,
		Repo:   NewRepository(nil),
		Users:  users.NewRepository(nil),
		Fanout: delivery.NewFanoutWithChannels(logg, nil),
	})
	if err == nil {
		t.Fatal("expected error without pairing resolver")
	}
}
