package usecase

import "time"

// DefaultTransactionTimeout bounds every ledger write and snapshot recompute.
const DefaultTransactionTimeout = 10 * time.Second

// Series limits. A recurring entry without an end date is expanded to
// MaxRecurrenceOccurrences dated entries; explicit counts above it fail
// validation, as do installment plans longer than MaxInstallments.
const (
	MaxRecurrenceOccurrences = 360
	MaxInstallments          = 360
)

// IdempotencyKeyTTL is how long a replayable response is kept when the
// configuration does not say otherwise.
const IdempotencyKeyTTL = 24 * time.Hour
