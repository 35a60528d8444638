package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxAccountNameLength = 255
	MinAccountNameLength = 1
	MaxDescriptionLength = 500
	MaxTags              = 20
	MaxTagLength         = 50
	MaxEntryAmount       = "1000000000000" // 1 trillion
	DefaultPageSize      = 20
	MaxPageSize          = 100
)

// MinEntryDate is the earliest day an entry may be dated. Snapshots are kept
// per day from the first paid entry, so older dates would explode the table.
var MinEntryDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// ValidateEntryDate rejects a missing date or one earlier than MinEntryDate.
func ValidateEntryDate(t time.Time) error {
	if t.IsZero() {
		return ErrInvalidDate
	}
	if Day(t).Before(MinEntryDate) {
		return ErrDateOutOfRange
	}
	return nil
}

// ValidateAccountName validates account name
func ValidateAccountName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) < MinAccountNameLength {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidAccountName)
	}

	if len(name) > MaxAccountNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidAccountName, MaxAccountNameLength)
	}

	return nil
}

// ValidateAmount checks a requested magnitude: strictly positive, at most two
// decimal places and below the ceiling.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	if _, err := ToMinorUnits(amount); err != nil {
		return err
	}

	maxAmount, _ := decimal.NewFromString(MaxEntryAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrInvalidAmount, MaxEntryAmount)
	}

	return nil
}

// ValidateDescription validates the free-text description of an entry
func ValidateDescription(description string) error {
	if len(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrValidation, MaxDescriptionLength)
	}
	return nil
}

// ValidateTags validates tag count and length
func ValidateTags(tags []string) error {
	if len(tags) > MaxTags {
		return fmt.Errorf("%w: at most %d tags", ErrValidation, MaxTags)
	}
	for _, t := range tags {
		if len(t) > MaxTagLength {
			return fmt.Errorf("%w: tag %q exceeds %d characters", ErrValidation, t, MaxTagLength)
		}
	}
	return nil
}

// ValidatePageSize validates and limits the page size
func ValidatePageSize(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}

	if limit > MaxPageSize {
		return MaxPageSize
	}

	return limit
}
