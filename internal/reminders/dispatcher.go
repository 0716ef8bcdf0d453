package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/parejaapp/pareja-backend/internal/delivery"
	"github.com/parejaapp/pareja-backend/internal/users"
	"github.com/parejaapp/pareja-backend/pkg/db/models"
	"github.com/parejaapp/pareja-backend/pkg/enums"
	pkgerrors "github.com/parejaapp/pareja-backend/pkg/errors"
	"github.com/parejaapp/pareja-backend/pkg/logger"
	"github.com/parejaapp/pareja-backend/pkg/metrics"
)

const (
	JobName      = "reminders"
	stampTimeout = 5 * time.Second
)

type UserDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*users.Profile, error)
}

type PairingResolver interface {
	ActiveFor(ctx context.Context, userID uuid.UUID) (*models.Pairing, error)
}

type Deliverer interface {
	Ready() bool
	Missing() []enums.Channel
	Deliver(ctx context.Context, recipient delivery.Recipient, msg delivery.Message) delivery.Report
}

type DispatcherParams struct {
	Logger      *logger.Logger
	Repo        Repository
	Users       UserDirectory
	Pairings    PairingResolver
	Fanout      Deliverer
	Metrics     *metrics.DispatchMetrics
	FrontendURL string
	Now         func() time.Time
}

// Dispatcher sends due appointment reminders to the owner and, when they
// have an accepted pairing, to their partner.
type Dispatcher struct {
	logg     *logger.Logger
	repo     Repository
	users    UserDirectory
	pairings PairingResolver
	fanout   Deliverer
	metrics  *metrics.DispatchMetrics
	frontend string
	now      func() time.Time
}

func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("reminders repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if params.Pairings == nil {
		return nil, fmt.Errorf("pairing resolver required")
	}
	if params.Fanout == nil {
		return nil, fmt.Errorf("fanout required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{
		logg:     params.Logger,
		repo:     params.Repo,
		users:    params.Users,
		pairings: params.Pairings,
		fanout:   params.Fanout,
		metrics:  params.Metrics,
		frontend: params.FrontendURL,
		now:      now,
	}, nil
}

func (d *Dispatcher) Name() string {
	return JobName
}

func (d *Dispatcher) Run(ctx context.Context) error {
	now := d.now().UTC()

	if !d.fanout.Ready() {
		d.logg.Warn(d.logg.WithField(ctx, "missing_channels", d.fanout.Missing()), "reminder channels unavailable; skipping tick")
		d.metrics.IncSkipped(JobName, "missing_channel")
		return nil
	}

	due, err := d.repo.ListDue(ctx, now)
	if err != nil {
		return fmt.Errorf("select due appointments: %w", err)
	}

	for _, appt := range due {
		if err := ctx.Err(); err != nil {
			return err
		}
		d.dispatchOne(ctx, appt, now)
	}

	if len(due) > 0 {
		d.logg.Info(d.logg.WithField(ctx, "due", len(due)), "reminder tick processed appointments")
	}
	return nil
}

func (d *Dispatcher) dispatchOne(ctx context.Context, appt models.Appointment, now time.Time) {
	itemCtx := d.logg.WithAppointmentID(ctx, appt.ID.String())
	itemCtx = d.logg.WithUserID(itemCtx, appt.UserID.String())
	itemCtx = d.logg.WithField(itemCtx, "remind_at", appt.RemindAt().Format(time.RFC3339))

	defer func() {
		if r := recover(); r != nil {
			d.logg.Error(itemCtx, "reminder dispatch panicked", fmt.Errorf("panic: %v", r))
		}
	}()

	owner, err := d.users.Get(ctx, appt.UserID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			d.logg.Warn(itemCtx, "appointment owner not found; leaving unnotified")
			return
		}
		d.logg.Error(itemCtx, "load appointment owner", err)
		return
	}

	msg, err := ownerMessage(appt, owner, d.frontend, now)
	if err != nil {
		d.logg.Error(itemCtx, "render owner reminder email; sending plain body", err)
	}
	ownerReport := d.fanout.Deliver(d.logg.WithField(itemCtx, "audience", "owner"), owner.Recipient(), msg)

	d.notifyPartner(ctx, itemCtx, appt, owner, now)

	stampCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stampTimeout)
	defer cancel()
	stamped, err := d.repo.MarkNotified(stampCtx, appt.ID)
	if err != nil {
		d.logg.Error(itemCtx, "mark appointment notified", err)
		return
	}
	if !stamped {
		d.logg.Warn(itemCtx, "appointment already notified by another dispatcher")
		return
	}
	d.metrics.IncDispatched(JobName)
	d.logg.Info(d.logg.WithFields(itemCtx, map[string]any{
		"sent":   ownerReport.Count(enums.DeliveryOutcomeSent),
		"failed": ownerReport.Count(enums.DeliveryOutcomeFailed),
	}), "appointment reminder dispatched")
}

// notifyPartner never blocks the owner's reminder from being recorded.
func (d *Dispatcher) notifyPartner(ctx, itemCtx context.Context, appt models.Appointment, owner *users.Profile, now time.Time) {
	pairing, err := d.pairings.ActiveFor(ctx, appt.UserID)
	if err != nil {
		d.logg.Error(itemCtx, "resolve active pairing", err)
		return
	}
	if pairing == nil {
		return
	}
	partnerID, ok := pairing.PartnerOf(appt.UserID)
	if !ok {
		return
	}

	partnerCtx := d.logg.WithFields(itemCtx, map[string]any{
		"audience":   "partner",
		"partner_id": partnerID.String(),
	})
	partner, err := d.users.Get(ctx, partnerID)
	if err != nil {
		d.logg.Error(partnerCtx, "load partner", err)
		return
	}

	msg, err := partnerMessage(appt, owner, partner, d.frontend, now)
	if err != nil {
		d.logg.Error(partnerCtx, "render partner reminder email; sending plain body", err)
	}
	d.fanout.Deliver(partnerCtx, partner.Recipient(), msg)
}
