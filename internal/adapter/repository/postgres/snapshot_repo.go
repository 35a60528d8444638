package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// SnapshotRepository implements usecase.SnapshotRepository.
type SnapshotRepository struct {
	db DBTX
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return newSnapshotRepositoryWithDB(pool)
}

func newSnapshotRepositoryWithDB(db DBTX) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Upsert writes every row in one statement, replacing existing rows for the
// same (account, date).
func (r *SnapshotRepository) Upsert(ctx context.Context, tx usecase.Transaction, snapshots []domain.DailySnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	query := `
		INSERT INTO daily_snapshots (account_id, date, balance, calc_version, computed_at)
		SELECT t.account_id, t.date, t.balance, t.calc_version, now()
		FROM unnest($1::text[], $2::date[], $3::numeric[], $4::int[])
			AS t(account_id, date, balance, calc_version)
		ON CONFLICT (account_id, date) DO UPDATE
		SET balance = EXCLUDED.balance,
			calc_version = EXCLUDED.calc_version,
			computed_at = EXCLUDED.computed_at
	`

	accountIDs := make([]string, len(snapshots))
	dates := make([]pgtype.Date, len(snapshots))
	balances := make([]pgtype.Numeric, len(snapshots))
	versions := make([]int32, len(snapshots))
	for i, s := range snapshots {
		accountIDs[i] = s.AccountID
		dates[i] = timeToPgDate(s.Date)
		balances[i] = decimalToNumeric(s.Balance)
		versions[i] = int32(s.CalcVersion)
	}

	_, err := conn(r.db, tx).Exec(ctx, query, accountIDs, dates, balances, versions)

	return mapError(err)
}

// GetByDate retrieves the snapshot of one account for one day.
func (r *SnapshotRepository) GetByDate(
	ctx context.Context,
	tx usecase.Transaction,
	accountID string,
	date time.Time,
) (*domain.DailySnapshot, error) {
	query := `
		SELECT account_id, date, balance, calc_version
		FROM daily_snapshots
		WHERE account_id = $1 AND date = $2
	`

	snapshot, err := scanSnapshot(conn(r.db, tx).QueryRow(ctx, query, accountID, timeToPgDate(date)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSnapshotNotFound
	}

	return snapshot, err
}

// ListByAccount lists an account's snapshots in [from, to] by date.
func (r *SnapshotRepository) ListByAccount(
	ctx context.Context,
	tx usecase.Transaction,
	accountID string,
	from, to time.Time,
) ([]domain.DailySnapshot, error) {
	query := `
		SELECT account_id, date, balance, calc_version
		FROM daily_snapshots
		WHERE account_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`

	rows, err := conn(r.db, tx).Query(ctx, query, accountID, timeToPgDate(from), timeToPgDate(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := make([]domain.DailySnapshot, 0)
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *s)
	}

	return snapshots, rows.Err()
}

// SumByDate sums the snapshots of several accounts per day in [from, to].
func (r *SnapshotRepository) SumByDate(
	ctx context.Context,
	tx usecase.Transaction,
	accountIDs []string,
	from, to time.Time,
) ([]domain.DailyTotal, error) {
	query := `
		SELECT date, SUM(balance)
		FROM daily_snapshots
		WHERE account_id = ANY($1) AND date BETWEEN $2 AND $3
		GROUP BY date
		ORDER BY date
	`

	rows, err := conn(r.db, tx).Query(ctx, query, accountIDs, timeToPgDate(from), timeToPgDate(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make([]domain.DailyTotal, 0)
	for rows.Next() {
		var (
			date    pgtype.Date
			balance pgtype.Numeric
		)
		if err := rows.Scan(&date, &balance); err != nil {
			return nil, err
		}
		totals = append(totals, domain.DailyTotal{Date: *dateToTime(date), Balance: numericToDecimal(balance)})
	}

	return totals, rows.Err()
}

func scanSnapshot(row pgx.Row) (*domain.DailySnapshot, error) {
	var (
		s       domain.DailySnapshot
		date    pgtype.Date
		balance pgtype.Numeric
		version int32
	)

	if err := row.Scan(&s.AccountID, &date, &balance, &version); err != nil {
		return nil, err
	}

	s.Date = *dateToTime(date)
	s.Balance = numericToDecimal(balance)
	s.CalcVersion = int(version)

	return &s, nil
}
