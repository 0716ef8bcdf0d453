package delivery

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/parejaapp/pareja-backend/pkg/enums"
	"github.com/parejaapp/pareja-backend/pkg/logger"
	"github.com/parejaapp/pareja-backend/pkg/metrics"
)

// Result is the tagged outcome of one channel attempt.
type Result struct {
	Channel enums.Channel
	Outcome enums.DeliveryOutcome
	Err     error
}

// Report collects the results of one fan-out.
type Report []Result

func (r Report) Count(outcome enums.DeliveryOutcome) int {
	n := 0
	for _, res := range r {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Err combines the errors of failed channels.
func (r Report) Err() error {
	var errs error
	for _, res := range r {
		if res.Outcome == enums.DeliveryOutcomeFailed {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", res.Channel, res.Err))
		}
	}
	return errs
}

// FanoutParams configure the channel set. A nil sender leaves its channel
// missing and the fan-out not ready.
type FanoutParams struct {
	Logger  *logger.Logger
	Metrics *metrics.DispatchMetrics
	Push    PushSender
	Email   EmailSender
	SMS     SMSSender
}

// Fanout delivers a message through every configured channel, isolating
// each channel's failures.
type Fanout struct {
	logg     *logger.Logger
	metrics  *metrics.DispatchMetrics
	channels []Channel
	missing  []enums.Channel
}

func NewFanout(params FanoutParams) (*Fanout, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	f := &Fanout{logg: params.Logger, metrics: params.Metrics}

	if params.Push != nil {
		f.channels = append(f.channels, NewPushChannel(params.Push))
	} else {
		f.missing = append(f.missing, enums.ChannelPush)
	}
	if params.Email != nil {
		f.channels = append(f.channels, NewEmailChannel(params.Email))
	} else {
		f.missing = append(f.missing, enums.ChannelEmail)
	}
	if params.SMS != nil {
		f.channels = append(f.channels, NewSMSChannel(params.SMS))
	} else {
		f.missing = append(f.missing, enums.ChannelSMS)
	}
	return f, nil
}

// NewFanoutWithChannels builds a fan-out over an explicit channel list.
func NewFanoutWithChannels(logg *logger.Logger, m *metrics.DispatchMetrics, channels ...Channel) *Fanout {
	f := &Fanout{logg: logg, metrics: m}
	present := map[enums.Channel]bool{}
	for _, ch := range channels {
		if ch == nil {
			continue
		}
		f.channels = append(f.channels, ch)
		present[ch.Kind()] = true
	}
	for _, kind := range enums.Channels() {
		if !present[kind] {
			f.missing = append(f.missing, kind)
		}
	}
	return f
}

// Ready reports whether push, email and SMS are all configured.
func (f *Fanout) Ready() bool {
	return f != nil && len(f.missing) == 0
}

// Missing lists the channels without a sender.
func (f *Fanout) Missing() []enums.Channel {
	if f == nil {
		return enums.Channels()
	}
	out := make([]enums.Channel, len(f.missing))
	copy(out, f.missing)
	return out
}

// Deliver attempts every channel in order and returns one result per
// channel. It never returns early on a channel failure.
func (f *Fanout) Deliver(ctx context.Context, recipient Recipient, msg Message) Report {
	report := make(Report, 0, len(f.channels))
	for _, ch := range f.channels {
		res := f.attempt(ctx, ch, recipient, msg)
		f.metrics.IncChannelSend(res.Channel.String(), res.Outcome.String())

		chCtx := f.logg.WithField(ctx, "channel", res.Channel.String())
		switch res.Outcome {
		case enums.DeliveryOutcomeFailed:
			f.logg.Error(chCtx, "channel delivery failed", res.Err)
		case enums.DeliveryOutcomeSkipped:
			f.logg.Debug(chCtx, "channel skipped; recipient has no address")
		default:
			f.logg.Debug(chCtx, "channel delivery sent")
		}
		report = append(report, res)
	}
	return report
}

func (f *Fanout) attempt(ctx context.Context, ch Channel, recipient Recipient, msg Message) (res Result) {
	res.Channel = ch.Kind()
	defer func() {
		if r := recover(); r != nil {
			res.Outcome = enums.DeliveryOutcomeFailed
			res.Err = fmt.Errorf("channel panic: %v", r)
		}
	}()

	err := ch.Deliver(ctx, recipient, msg)
	switch {
	case err == nil:
		res.Outcome = enums.DeliveryOutcomeSent
	case errors.Is(err, ErrNoAddress):
		res.Outcome = enums.DeliveryOutcomeSkipped
	default:
		res.Outcome = enums.DeliveryOutcomeFailed
		res.Err = err
	}
	return res
}
