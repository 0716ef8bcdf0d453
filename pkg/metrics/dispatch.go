package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics records dispatch loop ticks and per-channel outcomes.
type DispatchMetrics struct {
	duration   *prometheus.HistogramVec
	success    *prometheus.CounterVec
	failure    *prometheus.CounterVec
	skipped    *prometheus.CounterVec
	dispatched *prometheus.CounterVec
	sends      *prometheus.CounterVec
}

// NewDispatchMetrics registers the dispatch metrics on the provided registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatch_tick_duration_seconds",
		Help:    "Duration of dispatch loop ticks in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"loop"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_tick_success",
		Help: "Dispatch ticks that completed without error.",
	}, []string{"loop"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_tick_failure",
		Help: "Dispatch ticks that returned an error or panicked.",
	}, []string{"loop"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_tick_skipped",
		Help: "Dispatch ticks skipped before selecting work.",
	}, []string{"loop", "reason"})
	dispatched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_items",
		Help: "Items stamped as delivered by a dispatch loop.",
	}, []string{"loop"})
	sends := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_channel_sends",
		Help: "Channel delivery attempts by outcome.",
	}, []string{"channel", "outcome"})
	reg.MustRegister(duration, success, failure, skipped, dispatched, sends)
	return &DispatchMetrics{
		duration:   duration,
		success:    success,
		failure:    failure,
		skipped:    skipped,
		dispatched: dispatched,
		sends:      sends,
	}
}

// ObserveDuration records the tick duration for the named loop.
func (m *DispatchMetrics) ObserveDuration(loop string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(loop)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named loop.
func (m *DispatchMetrics) IncSuccess(loop string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(loop)).Inc()
}

// IncFailure increments the failure counter for the named loop.
func (m *DispatchMetrics) IncFailure(loop string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(loop)).Inc()
}

func (m *DispatchMetrics) IncSkipped(loop, reason string) {
	if m == nil || m.skipped == nil {
		return
	}
	m.skipped.WithLabelValues(normalizeLabel(loop), normalizeLabel(reason)).Inc()
}

func (m *DispatchMetrics) IncDispatched(loop string) {
	if m == nil || m.dispatched == nil {
		return
	}
	m.dispatched.WithLabelValues(normalizeLabel(loop)).Inc()
}

// IncChannelSend counts one channel attempt with its outcome.
func (m *DispatchMetrics) IncChannelSend(channel, outcome string) {
	if m == nil || m.sends == nil {
		return
	}
	m.sends.WithLabelValues(normalizeLabel(channel), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
