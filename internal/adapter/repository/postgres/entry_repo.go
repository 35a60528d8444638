package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

const entryColumns = `id, account_id, category_id, description, amount, date, type, is_paid, tags,
	transfer_id, recurrence_id, series_kind, series_position, series_size, recurrence_frequency,
	interval_days, purchase_date, invoice_month, created_at, updated_at`

// signedAmountSQL applies the sign convention of the row's type to a
// magnitude parameter; transfers keep the sign of the stored leg.
const signedAmountSQL = `CASE
	WHEN type = 'EXPENSE' OR (type = 'TRANSFER' AND amount < 0) THEN -$%[1]d::numeric
	ELSE $%[1]d::numeric END`

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	db DBTX
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return newEntryRepositoryWithDB(pool)
}

func newEntryRepositoryWithDB(db DBTX) *EntryRepository {
	return &EntryRepository{db: db}
}

// Create creates a new entry.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	return r.insert(ctx, conn(r.db, tx), entry)
}

// CreateMany creates entries. Callers pass a transaction to make the batch
// all-or-nothing.
func (r *EntryRepository) CreateMany(ctx context.Context, tx usecase.Transaction, entries []*domain.Entry) error {
	db := conn(r.db, tx)
	for _, e := range entries {
		if err := r.insert(ctx, db, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *EntryRepository) insert(ctx context.Context, db DBTX, e *domain.Entry) error {
	query := `
		INSERT INTO transactions (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	var (
		recurrenceID, seriesKind, frequency pgtype.Text
		position, size, intervalDays        pgtype.Int4
	)
	if s := e.Series; s != nil {
		recurrenceID = optionalText(s.ID)
		seriesKind = optionalText(string(s.Kind))
		position = optionalInt4(s.Position)
		size = optionalInt4(s.Size)
		frequency = optionalText(string(s.Frequency))
		intervalDays = optionalInt4(s.IntervalDays)
	}

	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err := db.Exec(ctx, query,
		e.ID,
		e.AccountID,
		optionalTextPtr(e.CategoryID),
		e.Description,
		decimalToNumeric(e.Amount),
		timeToPgDate(e.Date),
		string(e.Type),
		e.IsPaid,
		tags,
		optionalText(e.TransferID),
		recurrenceID,
		seriesKind,
		position,
		size,
		frequency,
		intervalDays,
		optionalDate(e.PurchaseDate),
		optionalText(e.InvoiceMonth),
		timeToPgTimestamptz(e.CreatedAt),
		timeToPgTimestamptz(e.UpdatedAt),
	)

	return mapError(err)
}

// GetByID retrieves an entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, tx usecase.Transaction, id string) (*domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM transactions WHERE id = $1`

	entry, err := scanEntry(conn(r.db, tx).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEntryNotFound
	}

	return entry, err
}

// ListByRecurrenceID lists every entry of a series ordered by date.
func (r *EntryRepository) ListByRecurrenceID(ctx context.Context, tx usecase.Transaction, recurrenceID string) ([]*domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM transactions WHERE recurrence_id = $1 ORDER BY date, id`

	return r.list(ctx, tx, query, recurrenceID)
}

// ListByTransferID lists both legs of a transfer.
func (r *EntryRepository) ListByTransferID(ctx context.Context, tx usecase.Transaction, transferID string) ([]*domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM transactions WHERE transfer_id = $1 ORDER BY date, id`

	return r.list(ctx, tx, query, transferID)
}

// Update overwrites the mutable columns of an entry.
func (r *EntryRepository) Update(ctx context.Context, tx usecase.Transaction, e *domain.Entry) error {
	query := `
		UPDATE transactions
		SET category_id = $2, description = $3, amount = $4, date = $5, is_paid = $6,
			tags = $7, purchase_date = $8, updated_at = $9
		WHERE id = $1
	`

	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}

	tag, err := conn(r.db, tx).Exec(ctx, query,
		e.ID,
		optionalTextPtr(e.CategoryID),
		e.Description,
		decimalToNumeric(e.Amount),
		timeToPgDate(e.Date),
		e.IsPaid,
		tags,
		optionalDate(e.PurchaseDate),
		timeToPgTimestamptz(e.UpdatedAt),
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// UpdateByRecurrenceID applies one patch to every entry of a series in a
// single statement.
func (r *EntryRepository) UpdateByRecurrenceID(
	ctx context.Context,
	tx usecase.Transaction,
	recurrenceID string,
	patch domain.EntryPatch,
	updatedAt time.Time,
) (int64, error) {
	args := []any{recurrenceID, timeToPgTimestamptz(updatedAt)}
	sets := []string{"updated_at = $2"}
	set := func(expr string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
	}

	if patch.Description != nil {
		set("description = $%d", *patch.Description)
	}
	if patch.Amount != nil {
		set("amount = "+signedAmountSQL, decimalToNumeric(*patch.Amount))
	}
	if patch.Date != nil {
		set("date = $%d", timeToPgDate(*patch.Date))
	}
	if patch.IsPaid != nil {
		set("is_paid = $%d", *patch.IsPaid)
	}
	if patch.CategoryID != nil {
		set("category_id = $%d", *patch.CategoryID)
	}
	if patch.Tags != nil {
		set("tags = $%d", *patch.Tags)
	}
	if patch.PurchaseDate != nil {
		set("purchase_date = $%d", timeToPgDate(*patch.PurchaseDate))
	}

	query := `UPDATE transactions SET ` + strings.Join(sets, ", ") + ` WHERE recurrence_id = $1`

	tag, err := conn(r.db, tx).Exec(ctx, query, args...)
	if err != nil {
		return 0, mapError(err)
	}

	return tag.RowsAffected(), nil
}

// Delete deletes an entry.
func (r *EntryRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	tag, err := conn(r.db, tx).Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// DeleteByRecurrenceID deletes every entry of a series.
func (r *EntryRepository) DeleteByRecurrenceID(ctx context.Context, tx usecase.Transaction, recurrenceID string) (int64, error) {
	tag, err := conn(r.db, tx).Exec(ctx, `DELETE FROM transactions WHERE recurrence_id = $1`, recurrenceID)
	if err != nil {
		return 0, mapError(err)
	}

	return tag.RowsAffected(), nil
}

// SettleInvoice marks the invoice's unpaid expenses paid.
func (r *EntryRepository) SettleInvoice(
	ctx context.Context,
	tx usecase.Transaction,
	accountID, invoiceMonth string,
	updatedAt time.Time,
) ([]*domain.Entry, error) {
	query := `
		UPDATE transactions
		SET is_paid = true, updated_at = $3
		WHERE account_id = $1 AND invoice_month = $2 AND type = 'EXPENSE' AND NOT is_paid
		RETURNING ` + entryColumns

	settled, err := r.list(ctx, tx, query, accountID, invoiceMonth, timeToPgTimestamptz(updatedAt))
	if err != nil {
		return nil, err
	}

	sort.Slice(settled, func(i, j int) bool {
		if !settled[i].Date.Equal(settled[j].Date) {
			return settled[i].Date.Before(settled[j].Date)
		}
		return settled[i].ID < settled[j].ID
	})

	return settled, nil
}

// ListPaidByAccount lists paid entries by date ascending.
func (r *EntryRepository) ListPaidByAccount(ctx context.Context, tx usecase.Transaction, accountID string) ([]*domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM transactions WHERE account_id = $1 AND is_paid ORDER BY date, id`

	return r.list(ctx, tx, query, accountID)
}

// SumPaidByType sums paid amounts dated on or before asOf per type.
func (r *EntryRepository) SumPaidByType(
	ctx context.Context,
	tx usecase.Transaction,
	accountID string,
	asOf time.Time,
) ([]domain.TypeTotal, error) {
	query := `
		SELECT type, COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE account_id = $1 AND is_paid AND date <= $2
		GROUP BY type
		ORDER BY type
	`

	rows, err := conn(r.db, tx).Query(ctx, query, accountID, timeToPgDate(asOf))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make([]domain.TypeTotal, 0, 3)
	for rows.Next() {
		var (
			entryType string
			total     pgtype.Numeric
		)
		if err := rows.Scan(&entryType, &total); err != nil {
			return nil, err
		}
		totals = append(totals, domain.TypeTotal{Type: domain.EntryType(entryType), Total: numericToDecimal(total)})
	}

	return totals, rows.Err()
}

// SumUnpaidExpenses sums the magnitudes of unpaid expenses.
func (r *EntryRepository) SumUnpaidExpenses(ctx context.Context, tx usecase.Transaction, accountID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(ABS(amount)), 0)
		FROM transactions
		WHERE account_id = $1 AND NOT is_paid AND type = 'EXPENSE'
	`

	var sum pgtype.Numeric
	if err := conn(r.db, tx).QueryRow(ctx, query, accountID).Scan(&sum); err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// Query lists entries matching filter by (date desc, id desc).
func (r *EntryRepository) Query(ctx context.Context, tx usecase.Transaction, filter domain.EntryFilter) ([]*domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM transactions WHERE 1=1`
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.AccountID != "" {
		query += ` AND account_id = ` + arg(filter.AccountID)
	}
	if filter.From != nil {
		query += ` AND date >= ` + arg(timeToPgDate(*filter.From))
	}
	if filter.To != nil {
		query += ` AND date <= ` + arg(timeToPgDate(*filter.To))
	}
	if filter.Type != nil {
		query += ` AND type = ` + arg(string(*filter.Type))
	}
	if filter.Text != "" {
		query += ` AND strpos(lower(description), lower(` + arg(filter.Text) + `)) > 0`
	}
	if filter.After != nil {
		date := arg(timeToPgDate(filter.After.Date))
		id := arg(filter.After.ID)
		query += ` AND (date, id) < (` + date + `, ` + id + `)`
	}

	query += ` ORDER BY date DESC, id DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ` + arg(filter.Limit)
	}

	return r.list(ctx, tx, query, args...)
}

func (r *EntryRepository) list(ctx context.Context, tx usecase.Transaction, query string, args ...any) ([]*domain.Entry, error) {
	rows, err := conn(r.db, tx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	entries := make([]*domain.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, mapError(rows.Err())
}

func scanEntry(row pgx.Row) (*domain.Entry, error) {
	var (
		e                                   domain.Entry
		categoryID, transferID              pgtype.Text
		recurrenceID, seriesKind, frequency pgtype.Text
		invoiceMonth                        pgtype.Text
		amount                              pgtype.Numeric
		date, purchaseDate                  pgtype.Date
		entryType                           string
		position, size, intervalDays        pgtype.Int4
		createdAt, updatedAt                pgtype.Timestamptz
	)

	err := row.Scan(
		&e.ID,
		&e.AccountID,
		&categoryID,
		&e.Description,
		&amount,
		&date,
		&entryType,
		&e.IsPaid,
		&e.Tags,
		&transferID,
		&recurrenceID,
		&seriesKind,
		&position,
		&size,
		&frequency,
		&intervalDays,
		&purchaseDate,
		&invoiceMonth,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.CategoryID = textToPtr(categoryID)
	e.Amount = numericToDecimal(amount)
	if d := dateToTime(date); d != nil {
		e.Date = *d
	}
	e.Type = domain.EntryType(entryType)
	e.TransferID = transferID.String
	e.PurchaseDate = dateToTime(purchaseDate)
	e.InvoiceMonth = invoiceMonth.String
	e.CreatedAt = createdAt.Time
	e.UpdatedAt = updatedAt.Time

	if recurrenceID.Valid {
		e.Series = &domain.Series{
			ID:           recurrenceID.String,
			Kind:         domain.SeriesKind(seriesKind.String),
			Position:     int(position.Int32),
			Size:         int(size.Int32),
			Frequency:    domain.Frequency(frequency.String),
			IntervalDays: int(intervalDays.Int32),
		}
	}

	return &e, nil
}
