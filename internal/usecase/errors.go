package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iho/walletledger/internal/domain"
)

// translateStoreError turns a persistence failure into a domain error. Errors
// that already carry a domain class pass through unchanged.
func translateStoreError(err error) error {
	if err == nil {
		return nil
	}

	var constraintErr *domain.ConstraintError
	if errors.As(err, &constraintErr) {
		return translateConstraint(constraintErr)
	}

	if domain.Classify(err) != domain.ErrInternal || errors.Is(err, domain.ErrInternal) {
		return err
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return fmt.Errorf("%w: %w", domain.ErrInternal, err)
}

func translateConstraint(err *domain.ConstraintError) error {
	name := strings.ToLower(err.Constraint)

	switch err.Kind {
	case domain.ConstraintForeignKey:
		switch {
		case strings.Contains(name, "category"):
			return domain.ErrCategoryNotFound
		case strings.Contains(name, "account"):
			return domain.ErrAccountNotFound
		default:
			return fmt.Errorf("%w: %s", domain.ErrNotFound, err.Constraint)
		}
	case domain.ConstraintUnique:
		return fmt.Errorf("%w: %s already exists", domain.ErrConflict, err.Constraint)
	case domain.ConstraintCheck, domain.ConstraintNotNull:
		return fmt.Errorf("%w: %s", domain.ErrValidation, err.Constraint)
	default:
		return fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
}
