package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/parejaapp/pareja-backend/internal/delivery"
	"github.com/parejaapp/pareja-backend/internal/notifications"
	"github.com/parejaapp/pareja-backend/internal/ops"
	"github.com/parejaapp/pareja-backend/internal/pairings"
	"github.com/parejaapp/pareja-backend/internal/reminders"
	"github.com/parejaapp/pareja-backend/internal/scheduler"
	"github.com/parejaapp/pareja-backend/internal/users"
	"github.com/parejaapp/pareja-backend/pkg/config"
	"github.com/parejaapp/pareja-backend/pkg/db"
	"github.com/parejaapp/pareja-backend/pkg/email"
	"github.com/parejaapp/pareja-backend/pkg/instance"
	"github.com/parejaapp/pareja-backend/pkg/logger"
	"github.com/parejaapp/pareja-backend/pkg/metrics"
	"github.com/parejaapp/pareja-backend/pkg/migrate"
	"github.com/parejaapp/pareja-backend/pkg/push"
	"github.com/parejaapp/pareja-backend/pkg/sms"
)

const serviceName = "dispatcher"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"instance":  instance.ID(),
		"db_driver": cfg.DB.Driver,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	dispatchMetrics := metrics.NewDispatchMetrics(prometheus.DefaultRegisterer)

	fanout, err := delivery.NewFanout(buildSenders(ctx, cfg, logg, dispatchMetrics))
	if err != nil {
		logg.Error(ctx, "failed to build delivery fanout", err)
		os.Exit(1)
	}
	if !fanout.Ready() {
		logg.Warn(logg.WithField(ctx, "missing_channels", fanout.Missing()), "not all delivery channels are configured; dispatch ticks will be skipped")
	}

	userRepo := users.NewRepository(dbClient.DB())

	notificationDispatcher, err := notifications.NewDispatcher(notifications.DispatcherParams{
		Logger:        logg,
		Repo:          notifications.NewRepository(dbClient.DB()),
		Users:         userRepo,
		Fanout:        fanout,
		Metrics:       dispatchMetrics,
		CatchUpWindow: cfg.Dispatch.CatchUpWindow,
	})
	if err != nil {
		logg.Error(ctx, "failed to create notification dispatcher", err)
		os.Exit(1)
	}

	reminderDispatcher, err := reminders.NewDispatcher(reminders.DispatcherParams{
		Logger:      logg,
		Repo:        reminders.NewRepository(dbClient.DB()),
		Users:       userRepo,
		Pairings:    pairings.NewRepository(dbClient.DB()),
		Fanout:      fanout,
		Metrics:     dispatchMetrics,
		FrontendURL: cfg.App.FrontendBase(),
	})
	if err != nil {
		logg.Error(ctx, "failed to create reminder dispatcher", err)
		os.Exit(1)
	}

	registry := scheduler.NewRegistry()
	registry.Register(notificationDispatcher, cfg.Dispatch.NotificationPollInterval)
	registry.Register(reminderDispatcher, cfg.Dispatch.ReminderPollInterval)

	services, err := registry.Services(logg, dispatchMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create dispatch services", err)
		os.Exit(1)
	}

	opsServer, err := ops.NewServer(logg, cfg.Ops.Port, ops.NewRouter(ops.RouterParams{
		Logger: logg,
		Env:    cfg.App.Env,
		DB:     dbClient,
	}))
	if err != nil {
		logg.Error(ctx, "failed to create ops server", err)
		os.Exit(1)
	}

	logg.Info(ctx, "starting dispatcher")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return scheduler.RunAll(groupCtx, services...)
	})
	group.Go(func() error {
		return opsServer.Run(groupCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "dispatcher stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "dispatcher shutting down gracefully")
}

// buildSenders constructs every configured channel adapter. An adapter that
// is not configured or fails to initialise is left nil.
func buildSenders(ctx context.Context, cfg *config.Config, logg *logger.Logger, m *metrics.DispatchMetrics) delivery.FanoutParams {
	params := delivery.FanoutParams{Logger: logg, Metrics: m}

	if cfg.Firebase.Enabled() {
		sender, err := push.NewFCMSender(ctx, cfg.Firebase)
		if err != nil {
			logg.Error(ctx, "failed to initialise push sender", err)
		} else {
			params.Push = sender
		}
	}

	if cfg.SMTP.Enabled() {
		sender, err := email.NewSMTPSender(cfg.SMTP)
		if err != nil {
			logg.Error(ctx, "failed to initialise email sender", err)
		} else {
			params.Email = sender
		}
	}

	sender, err := sms.NewSender(cfg.SMS, logg)
	if err != nil {
		logg.Error(logg.WithField(ctx, "provider", cfg.SMS.NormalizedProvider()), "failed to initialise sms sender", err)
	} else {
		params.SMS = sender
	}

	return params
}
