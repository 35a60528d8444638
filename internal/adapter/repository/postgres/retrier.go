package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/infrastructure/metrics"
)

// Retrier implements usecase.Retrier with exponential backoff.
type Retrier struct {
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	logger          zerolog.Logger
	metrics         *metrics.Metrics
}

// NewRetrier creates a new PostgreSQL retrier with default settings. m may be nil.
func NewRetrier(logger zerolog.Logger, m *metrics.Metrics) *Retrier {
	return &Retrier{
		maxRetries:      3,
		initialInterval: 50 * time.Millisecond,
		maxInterval:     1 * time.Second,
		maxElapsedTime:  10 * time.Second,
		logger:          logger,
		metrics:         m,
	}
}

// WithMaxRetries sets how many times a retryable error is retried. Values
// below zero are treated as zero.
func (r *Retrier) WithMaxRetries(n int) *Retrier {
	if n < 0 {
		n = 0
	}
	r.maxRetries = n
	return r
}

// Retry runs operation, retrying deadlocks, serialization failures, lock
// timeouts and connection errors that happened before anything was sent.
// Other errors are returned at once.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = r.maxElapsedTime
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.maxRetries)), ctx)

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		err := operation()
		if err != nil && !isRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		code, _ := retryableCode(err)
		if r.metrics != nil {
			r.metrics.DBRetries.WithLabelValues(code).Inc()
		}

		r.logger.Warn().
			Err(err).
			Str("code", code).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("retryable database error, retrying")
	})
}

// retryableCode reports the label a retryable err is counted under.
func retryableCode(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrDeadlock, pgErrSerializationFailure, pgErrLockNotAvailable:
			return pgErr.Code, true
		}
		return "", false
	}
	if pgconn.SafeToRetry(err) {
		return "connection", true
	}
	return "", false
}

func isRetryableError(err error) bool {
	_, ok := retryableCode(err)
	return ok
}
