package domain

import (
	"errors"
	"fmt"
)

// Error classes. Every specific error below wraps exactly one of them.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrInternal   = errors.New("internal error")
)

var (
	// Not found errors
	ErrAccountNotFound  = fmt.Errorf("account %w", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
	ErrEntryNotFound    = fmt.Errorf("transaction %w", ErrNotFound)
	ErrSnapshotNotFound = fmt.Errorf("snapshot %w", ErrNotFound)

	// Permission errors
	ErrAccessDenied         = fmt.Errorf("%w: no access to account", ErrForbidden)
	ErrRecurrenceOnCredit   = fmt.Errorf("%w: recurrence is not allowed on credit card accounts", ErrForbidden)
	ErrCardFieldsOnStandard = fmt.Errorf("%w: credit card fields require a credit card account", ErrForbidden)

	// Validation errors
	ErrInvalidAmount       = fmt.Errorf("%w: amount must be positive with at most two decimal places", ErrValidation)
	ErrInvalidDate         = fmt.Errorf("%w: date is required", ErrValidation)
	ErrDateOutOfRange      = fmt.Errorf("%w: date is before 1900-01-01", ErrValidation)
	ErrInvalidEntryType    = fmt.Errorf("%w: unknown transaction type", ErrValidation)
	ErrMissingDestination  = fmt.Errorf("%w: transfer requires a destination account", ErrValidation)
	ErrUnexpectedDest      = fmt.Errorf("%w: destination account is only valid for transfers", ErrValidation)
	ErrSameAccount         = fmt.Errorf("%w: cannot transfer to the same account", ErrValidation)
	ErrInvalidInstallments = fmt.Errorf("%w: invalid installment count", ErrValidation)
	ErrInvalidRecurrence   = fmt.Errorf("%w: invalid recurrence", ErrValidation)
	ErrInvalidAccountType  = fmt.Errorf("%w: unknown account type", ErrValidation)
	ErrInvalidCreditCard   = fmt.Errorf("%w: invalid credit card info", ErrValidation)
	ErrInvalidAccountName  = fmt.Errorf("%w: invalid account name", ErrValidation)
	ErrInvalidScope        = fmt.Errorf("%w: unknown mutation scope", ErrValidation)
	ErrEmptyPatch          = fmt.Errorf("%w: nothing to update", ErrValidation)
	ErrInvalidDateRange    = fmt.Errorf("%w: range end is before range start", ErrValidation)
	ErrInvalidCursor       = fmt.Errorf("%w: malformed cursor", ErrValidation)
	ErrNotCreditAccount    = fmt.Errorf("%w: account is not a credit card account", ErrValidation)

	// Stored invariant violations
	ErrMissingCreditCardInfo = fmt.Errorf("%w: credit card account without card info", ErrInternal)
)

// ConstraintKind identifies the storage constraint that rejected a write.
type ConstraintKind string

const (
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintCheck      ConstraintKind = "check"
	ConstraintNotNull    ConstraintKind = "not_null"
)

// ConstraintError is what storage adapters return when the database rejects
// a write on a constraint. The use case layer translates it to a domain error.
type ConstraintError struct {
	Kind       ConstraintKind
	Constraint string
	Table      string
	Err        error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s constraint %q violated on %s: %v", e.Kind, e.Constraint, e.Table, e.Err)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// Classify returns the error class of err, or ErrInternal for anything unknown.
func Classify(err error) error {
	for _, class := range []error{ErrNotFound, ErrForbidden, ErrValidation, ErrConflict} {
		if errors.Is(err, class) {
			return class
		}
	}
	return ErrInternal
}
