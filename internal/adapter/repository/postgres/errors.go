package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/walletledger/internal/domain"
)

// PostgreSQL error codes.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrLockNotAvailable     = "55P03"
	pgErrNotNullViolation     = "23502"
	pgErrForeignKeyViolation  = "23503"
	pgErrUniqueViolation      = "23505"
	pgErrCheckViolation       = "23514"
)

// mapError turns constraint violations into domain.ConstraintError. Anything
// else is returned unchanged so the retrier can still inspect it.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	var kind domain.ConstraintKind
	switch pgErr.Code {
	case pgErrForeignKeyViolation:
		kind = domain.ConstraintForeignKey
	case pgErrUniqueViolation:
		kind = domain.ConstraintUnique
	case pgErrCheckViolation:
		kind = domain.ConstraintCheck
	case pgErrNotNullViolation:
		kind = domain.ConstraintNotNull
	default:
		return err
	}

	constraint := pgErr.ConstraintName
	if constraint == "" {
		constraint = pgErr.ColumnName
	}

	return &domain.ConstraintError{
		Kind:       kind,
		Constraint: constraint,
		Table:      pgErr.TableName,
		Err:        err,
	}
}
