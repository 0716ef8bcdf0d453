package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	pkgerrors "github.com/parejaapp/pareja-backend/pkg/errors"
	"github.com/parejaapp/pareja-backend/pkg/logger"
	"github.com/parejaapp/pareja-backend/pkg/metrics"
)

const defaultInterval = 30 * time.Second

// ServiceParams configure a polling service.
type ServiceParams struct {
	Logger   *logger.Logger
	Job      Job
	Metrics  *metrics.DispatchMetrics
	Interval time.Duration
}

// Service runs one job immediately and then on a fixed cadence until the
// context is canceled. A failing or panicking tick is logged and the loop
// waits for the next interval.
type Service struct {
	logg     *logger.Logger
	job      Job
	metrics  *metrics.DispatchMetrics
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Job == nil {
		return nil, fmt.Errorf("job required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		job:      params.Job,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

func (s *Service) Name() string {
	return s.job.Name()
}

func (s *Service) Interval() time.Duration {
	return s.interval
}

// Run starts the polling loop until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	loopCtx := s.logg.WithFields(ctx, map[string]any{
		"job":         s.job.Name(),
		"interval_ms": s.interval.Milliseconds(),
	})
	s.logg.Info(loopCtx, "dispatch loop started")

	s.runTick(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(loopCtx, "dispatch loop stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runTick(ctx)
		}
	}
}

func (s *Service) runTick(ctx context.Context) {
	name := s.job.Name()
	tickCtx := s.logg.WithFields(ctx, map[string]any{
		"job":   name,
		"event": "dispatch.tick",
	})
	s.logg.Debug(tickCtx, "tick start")

	start := time.Now()
	err := s.safeRun(tickCtx)
	duration := time.Since(start)
	s.metrics.ObserveDuration(name, duration)
	tickCtx = s.logg.WithField(tickCtx, "duration_ms", duration.Milliseconds())

	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			s.logg.Info(tickCtx, "tick interrupted by shutdown")
			return
		}
		tickCtx = s.logg.WithField(tickCtx, "error_dump", pkgerrors.Dump(err))
		s.logg.Error(tickCtx, "tick failed", err)
		s.metrics.IncFailure(name)
		return
	}
	s.logg.Debug(tickCtx, "tick completed")
	s.metrics.IncSuccess(name)
}

func (s *Service) safeRun(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tick panic: %v", r)
		}
	}()
	return s.job.Run(ctx)
}

// RunAll runs every service until ctx is canceled or one of them fails.
// Cancellation is not reported as an error.
func RunAll(ctx context.Context, services ...*Service) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, svc := range services {
		if svc == nil {
			continue
		}
		svc := svc
		g.Go(func() error {
			if err := svc.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("%s: %w", svc.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
