package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/parejaapp/pareja-backend/internal/delivery"
	"github.com/parejaapp/pareja-backend/internal/users"
	"github.com/parejaapp/pareja-backend/pkg/db/models"
	"github.com/parejaapp/pareja-backend/pkg/enums"
	pkgerrors "github.com/parejaapp/pareja-backend/pkg/errors"
	"github.com/parejaapp/pareja-backend/pkg/logger"
	"github.com/parejaapp/pareja-backend/pkg/metrics"
	"github.com/parejaapp/pareja-backend/pkg/timeutil"
)

const (
	JobName              = "notifications"
	defaultCatchUpWindow = time.Minute
	stampTimeout         = 5 * time.Second
)

type UserDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*users.Profile, error)
}

type Deliverer interface {
	Ready() bool
	Missing() []enums.Channel
	Deliver(ctx context.Context, recipient delivery.Recipient, msg delivery.Message) delivery.Report
}

// DispatcherParams configure the notification dispatch job.
type DispatcherParams struct {
	Logger        *logger.Logger
	Repo          Repository
	Users         UserDirectory
	Fanout        Deliverer
	Metrics       *metrics.DispatchMetrics
	CatchUpWindow time.Duration
	Now           func() time.Time
}

// Dispatcher delivers due notifications on every tick: immediate ones, then
// scheduled ones inside the catch-up window, then late scheduled ones.
type Dispatcher struct {
	logg    *logger.Logger
	repo    Repository
	users   UserDirectory
	fanout  Deliverer
	metrics *metrics.DispatchMetrics
	window  time.Duration
	now     func() time.Time
}

func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if params.Fanout == nil {
		return nil, fmt.Errorf("fanout required")
	}
	window := params.CatchUpWindow
	if window <= 0 {
		window = defaultCatchUpWindow
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{
		logg:    params.Logger,
		repo:    params.Repo,
		users:   params.Users,
		fanout:  params.Fanout,
		metrics: params.Metrics,
		window:  window,
		now:     now,
	}, nil
}

func (d *Dispatcher) Name() string {
	return JobName
}

type selection struct {
	name string
	list func(ctx context.Context) ([]models.Notification, error)
}

// Run performs one tick.
func (d *Dispatcher) Run(ctx context.Context) error {
	now := d.now().UTC()

	if !d.fanout.Ready() {
		d.logg.Warn(d.logg.WithField(ctx, "missing_channels", d.fanout.Missing()), "notification channels unavailable; skipping tick")
		d.metrics.IncSkipped(JobName, "missing_channel")
		return nil
	}

	selections := []selection{
		{name: "immediate", list: d.repo.ListImmediate},
		{name: "on_time", list: func(ctx context.Context) ([]models.Notification, error) {
			return d.repo.ListOnTime(ctx, now, d.window)
		}},
		{name: "late", list: func(ctx context.Context) ([]models.Notification, error) {
			return d.repo.ListLate(ctx, now)
		}},
	}

	processed := make(map[uuid.UUID]struct{})
	counts := make(map[string]any, len(selections))
	var errs error

	for _, sel := range selections {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		items, err := sel.list(ctx)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("select %s notifications: %w", sel.name, err))
			continue
		}

		handled := 0
		for _, n := range items {
			if _, seen := processed[n.ID]; seen {
				continue
			}
			if err := ctx.Err(); err != nil {
				return multierr.Append(errs, err)
			}
			processed[n.ID] = struct{}{}
			d.dispatchOne(ctx, sel.name, n, now)
			handled++
		}
		counts[sel.name] = handled
	}

	if len(processed) > 0 {
		d.logg.Info(d.logg.WithFields(ctx, counts), "notification tick processed items")
	}
	return errs
}

func (d *Dispatcher) dispatchOne(ctx context.Context, selectionName string, n models.Notification, now time.Time) {
	itemCtx := d.logg.WithNotificationID(ctx, n.ID.String())
	itemCtx = d.logg.WithUserID(itemCtx, n.UserID.String())
	itemCtx = d.logg.WithField(itemCtx, "selection", selectionName)

	defer func() {
		if r := recover(); r != nil {
			d.logg.Error(itemCtx, "notification dispatch panicked", fmt.Errorf("panic: %v", r))
		}
	}()

	profile, err := d.users.Get(ctx, n.UserID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			d.logg.Warn(itemCtx, "notification recipient not found; leaving unsent")
			return
		}
		d.logg.Error(itemCtx, "load notification recipient", err)
		return
	}

	if n.ScheduledAt != nil && profile.TimeZone != "" {
		localCtx := d.logg.WithFields(itemCtx, map[string]any{
			"time_zone":  profile.TimeZone,
			"local_time": timeutil.FormatLocal(*n.ScheduledAt, profile.TimeZone),
		})
		d.logg.Debug(localCtx, "notification scheduled local time")
	}

	msg, err := composeMessage(n, now)
	if err != nil {
		d.logg.Error(itemCtx, "render notification email; sending plain body", err)
	}

	report := d.fanout.Deliver(itemCtx, profile.Recipient(), msg)

	stampCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stampTimeout)
	defer cancel()
	stamped, err := d.repo.MarkSent(stampCtx, n.ID, now)
	if err != nil {
		d.logg.Error(itemCtx, "stamp notification sent", err)
		return
	}

	resultCtx := d.logg.WithFields(itemCtx, map[string]any{
		"sent":    report.Count(enums.DeliveryOutcomeSent),
		"failed":  report.Count(enums.DeliveryOutcomeFailed),
		"skipped": report.Count(enums.DeliveryOutcomeSkipped),
	})
	if !stamped {
		d.logg.Warn(resultCtx, "notification already stamped by another dispatcher")
		return
	}
	d.metrics.IncDispatched(JobName)
	d.logg.Info(resultCtx, "notification dispatched")
}
