package usecase

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/infrastructure/metrics"
)

// Option configures the ambient collaborators of a use case.
type Option func(*options)

type options struct {
	logger  zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func newOptions(opts []Option) options {
	o := options{
		logger: zerolog.Nop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = metrics.New(nil)
	}
	return o
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics sink; the default is an unregistered set.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithClock overrides the source of "now", which also decides "today" for
// snapshot recomputation.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}
