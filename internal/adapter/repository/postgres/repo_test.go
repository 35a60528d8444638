package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/walletledger/internal/domain"
)

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

var accountRowColumns = []string{
	"id", "owner_id", "name", "type", "initial_balance",
	"closing_day", "due_day", "credit_limit", "brand", "created_at", "updated_at", "access_level",
}

func accountRow(rows *pgxmock.Rows, id, owner string, level any) *pgxmock.Rows {
	created := timeToPgTimestamptz(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return rows.AddRow(
		id, owner, "Wallet", "STANDARD", decimalToNumeric(decimal.NewFromInt(100)),
		nil, nil, nil, nil, created, created, level,
	)
}

func TestAccountRepositoryGetForActor(t *testing.T) {
	tests := []struct {
		name    string
		actor   string
		level   any
		want    domain.AccessLevel
		wantErr error
	}{
		{name: "owner", actor: "owner", level: nil, want: domain.AccessWrite},
		{name: "shared reader", actor: "viewer", level: pgtype.Int2{Int16: int16(domain.AccessRead), Valid: true}, want: domain.AccessRead},
		{name: "reader asking for write", actor: "viewer", level: pgtype.Int2{Int16: int16(domain.AccessRead), Valid: true}, want: domain.AccessWrite, wantErr: domain.ErrAccessDenied},
		{name: "stranger", actor: "stranger", level: nil, want: domain.AccessRead, wantErr: domain.ErrAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := newMockPool(t)
			pool.ExpectQuery("LEFT JOIN account_shares").
				WithArgs("acc-1", tt.actor).
				WillReturnRows(accountRow(pgxmock.NewRows(accountRowColumns), "acc-1", "owner", tt.level))

			repo := newAccountRepositoryWithDB(pool)
			account, err := repo.GetForActor(context.Background(), nil, tt.actor, "acc-1", tt.want)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "acc-1", account.ID)
				assert.True(t, account.InitialBalance.Equal(decimal.NewFromInt(100)))
				assert.Nil(t, account.CreditCard)
			}
			assertExpectations(t, pool)
		})
	}
}

func TestAccountRepositoryGetForActorNotFound(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectQuery("LEFT JOIN account_shares").
		WithArgs("missing", "owner").
		WillReturnRows(pgxmock.NewRows(accountRowColumns))

	_, err := newAccountRepositoryWithDB(pool).GetForActor(context.Background(), nil, "owner", "missing", domain.AccessRead)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assertExpectations(t, pool)
}

func TestAccountRepositoryCreateDuplicate(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectExec("INSERT INTO accounts").
		WithArgs(anyArgs(11)...).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "accounts_pkey", TableName: "accounts"})

	err := newAccountRepositoryWithDB(pool).Create(context.Background(), nil, &domain.Account{
		ID: "acc-1", OwnerID: "owner", Name: "Wallet", Type: domain.AccountTypeStandard,
	})

	var constraintErr *domain.ConstraintError
	require.True(t, errors.As(err, &constraintErr))
	assert.Equal(t, domain.ConstraintUnique, constraintErr.Kind)
	assert.Equal(t, "accounts_pkey", constraintErr.Constraint)
	assertExpectations(t, pool)
}

func TestAccountRepositoryUpdateCreditCardMissing(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectExec("UPDATE accounts").
		WithArgs(anyArgs(6)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := newAccountRepositoryWithDB(pool).UpdateCreditCard(context.Background(), nil, "missing",
		domain.CreditCardInfo{ClosingDay: 10, DueDay: 20, CreditLimit: decimal.NewFromInt(500)}, time.Now())
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assertExpectations(t, pool)
}

func TestEntryRepositoryCreateForeignKey(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectExec("INSERT INTO transactions").
		WithArgs(anyArgs(20)...).
		WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation, ConstraintName: "transactions_category_id_fkey", TableName: "transactions"})

	category := "ghost"
	err := newEntryRepositoryWithDB(pool).Create(context.Background(), nil, &domain.Entry{
		ID:         "e1",
		AccountID:  "acc-1",
		CategoryID: &category,
		Amount:     decimal.NewFromInt(-10),
		Date:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Type:       domain.EntryTypeExpense,
	})

	var constraintErr *domain.ConstraintError
	require.True(t, errors.As(err, &constraintErr))
	assert.Equal(t, domain.ConstraintForeignKey, constraintErr.Kind)
	assert.Equal(t, "transactions_category_id_fkey", constraintErr.Constraint)
	assertExpectations(t, pool)
}

func TestEntryRepositorySumUnpaidExpenses(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectQuery("SUM\\(ABS\\(amount\\)\\)").
		WithArgs("card").
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(decimalToNumeric(decimal.RequireFromString("42.50"))))

	sum, err := newEntryRepositoryWithDB(pool).SumUnpaidExpenses(context.Background(), nil, "card")
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.RequireFromString("42.5")), "got %s", sum)
	assertExpectations(t, pool)
}

func TestEntryRepositorySumPaidByTypeBoundsDate(t *testing.T) {
	pool := newMockPool(t)
	asOf := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	pool.ExpectQuery("is_paid AND date <= \\$2").
		WithArgs("acc", timeToPgDate(asOf)).
		WillReturnRows(pgxmock.NewRows([]string{"type", "sum"}).
			AddRow("EXPENSE", decimalToNumeric(decimal.NewFromInt(-10))).
			AddRow("INCOME", decimalToNumeric(decimal.NewFromInt(50))))

	totals, err := newEntryRepositoryWithDB(pool).SumPaidByType(context.Background(), nil, "acc", asOf)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, domain.EntryTypeIncome, totals[1].Type)
	assert.True(t, totals[1].Total.Equal(decimal.NewFromInt(50)))
	assertExpectations(t, pool)
}

func TestEntryRepositoryDeleteMissing(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectExec("DELETE FROM transactions").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := newEntryRepositoryWithDB(pool).Delete(context.Background(), nil, "missing")
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
	assertExpectations(t, pool)
}

func TestSnapshotRepositoryUpsert(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectExec("INSERT INTO daily_snapshots").
		WithArgs(anyArgs(4)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))

	repo := newSnapshotRepositoryWithDB(pool)
	err := repo.Upsert(context.Background(), nil, []domain.DailySnapshot{
		{AccountID: "a", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Balance: decimal.NewFromInt(10), CalcVersion: 1},
		{AccountID: "a", Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Balance: decimal.NewFromInt(12), CalcVersion: 1},
	})
	require.NoError(t, err)

	// empty batches never reach the database
	require.NoError(t, repo.Upsert(context.Background(), nil, nil))
	assertExpectations(t, pool)
}

func TestSnapshotRepositoryGetByDateMissing(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectQuery("FROM daily_snapshots").
		WithArgs(anyArgs(2)...).
		WillReturnRows(pgxmock.NewRows([]string{"account_id", "date", "balance", "calc_version"}))

	_, err := newSnapshotRepositoryWithDB(pool).GetByDate(context.Background(), nil, "a", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	assertExpectations(t, pool)
}

func TestMapError(t *testing.T) {
	plain := errors.New("boom")

	tests := []struct {
		name       string
		err        error
		wantKind   domain.ConstraintKind
		constraint string
		passThru   bool
	}{
		{name: "nil", err: nil, passThru: true},
		{name: "plain", err: plain, passThru: true},
		{name: "deadlock", err: &pgconn.PgError{Code: pgErrDeadlock}, passThru: true},
		{name: "foreign key", err: &pgconn.PgError{Code: pgErrForeignKeyViolation, ConstraintName: "fk"}, wantKind: domain.ConstraintForeignKey, constraint: "fk"},
		{name: "unique", err: &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "pk"}, wantKind: domain.ConstraintUnique, constraint: "pk"},
		{name: "check", err: &pgconn.PgError{Code: pgErrCheckViolation, ConstraintName: "chk"}, wantKind: domain.ConstraintCheck, constraint: "chk"},
		{name: "not null uses column", err: &pgconn.PgError{Code: pgErrNotNullViolation, ColumnName: "name"}, wantKind: domain.ConstraintNotNull, constraint: "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err)
			if tt.passThru {
				assert.Equal(t, tt.err, got)
				return
			}

			var constraintErr *domain.ConstraintError
			require.True(t, errors.As(got, &constraintErr))
			assert.Equal(t, tt.wantKind, constraintErr.Kind)
			assert.Equal(t, tt.constraint, constraintErr.Constraint)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}
