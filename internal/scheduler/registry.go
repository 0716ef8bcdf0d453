package scheduler

import (
	"context"
	"time"

	"github.com/parejaapp/pareja-backend/pkg/logger"
	"github.com/parejaapp/pareja-backend/pkg/metrics"
)

// Job is one polling task. Run performs a single tick.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Entry pairs a job with its polling interval.
type Entry struct {
	Job      Job
	Interval time.Duration
}

// Registry tracks the jobs the dispatcher process runs.
type Registry struct {
	entries []Entry
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a job. Nil jobs are ignored.
func (r *Registry) Register(job Job, interval time.Duration) {
	if job == nil {
		return
	}
	r.entries = append(r.entries, Entry{Job: job, Interval: interval})
}

// Entries returns the registered jobs in the order they were added.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, len(r.entries))
	copy(entries, r.entries)
	return entries
}

// Services builds one Service per registered job.
func (r *Registry) Services(logg *logger.Logger, m *metrics.DispatchMetrics) ([]*Service, error) {
	services := make([]*Service, 0, len(r.entries))
	for _, entry := range r.entries {
		svc, err := NewService(ServiceParams{
			Logger:   logg,
			Job:      entry.Job,
			Metrics:  m,
			Interval: entry.Interval,
		})
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	return services, nil
}
