package usecase_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/walletledger/internal/adapter/repository/memory"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

const owner = "user-1"

var fixedNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// sequentialIDs hands out ids that sort in creation order.
type sequentialIDs struct {
	n int
}

func (g *sequentialIDs) Generate() string {
	g.n++
	return fmt.Sprintf("id-%04d", g.n)
}

type ledger struct {
	store      *memory.Store
	accounts   *memory.AccountRepository
	entries    *memory.EntryRepository
	snapshots  *memory.SnapshotRepository
	accountUC  *usecase.AccountUseCase
	entryUC    *usecase.EntryUseCase
	seriesUC   *usecase.SeriesUseCase
	snapshotUC *usecase.SnapshotUseCase
	balanceUC  *usecase.BalanceUseCase
	reconUC    *usecase.ReconciliationUseCase
}

func newLedger(t *testing.T) *ledger {
	t.Helper()

	store := memory.New()
	accounts := memory.NewAccountRepository(store)
	categories := memory.NewCategoryRepository(store)
	entries := memory.NewEntryRepository(store)
	snapshots := memory.NewSnapshotRepository(store)
	ids := &sequentialIDs{}
	clock := usecase.WithClock(func() time.Time { return fixedNow })

	l := &ledger{
		store:     store,
		accounts:  accounts,
		entries:   entries,
		snapshots: snapshots,
	}
	l.accountUC = usecase.NewAccountUseCase(store, accounts, ids, clock)
	l.entryUC = usecase.NewEntryUseCase(store, accounts, categories, entries, ids, clock)
	l.seriesUC = usecase.NewSeriesUseCase(store, accounts, categories, entries, clock)
	l.snapshotUC = usecase.NewSnapshotUseCase(store, accounts, entries, snapshots, clock)
	l.balanceUC = usecase.NewBalanceUseCase(accounts, entries, clock)
	l.reconUC = usecase.NewReconciliationUseCase(accounts, snapshots, l.balanceUC, l.snapshotUC, clock)
	return l
}

func (l *ledger) standard(t *testing.T, initial string) *domain.Account {
	t.Helper()
	res, err := l.accountUC.CreateAccount(context.Background(), owner, usecase.CreateAccountInput{
		Name:           "Checking",
		Type:           domain.AccountTypeStandard,
		InitialBalance: dec(initial),
	})
	require.NoError(t, err)
	return res.Account
}

func (l *ledger) card(t *testing.T, closingDay int, limit string) *domain.Account {
	t.Helper()
	res, err := l.accountUC.CreateAccount(context.Background(), owner, usecase.CreateAccountInput{
		Name: "Visa",
		Type: domain.AccountTypeCredit,
		CreditCard: &domain.CreditCardInfo{
			ClosingDay:  closingDay,
			DueDay:      20,
			CreditLimit: dec(limit),
			Brand:       "visa",
		},
	})
	require.NoError(t, err)
	return res.Account
}

func (l *ledger) create(t *testing.T, input usecase.CreateEntryInput) *usecase.CreateEntryResult {
	t.Helper()
	res, err := l.entryUC.Create(context.Background(), owner, input)
	require.NoError(t, err)
	return res
}

func (l *ledger) snapshot(t *testing.T, accountID string, day time.Time) decimal.Decimal {
	t.Helper()
	s, err := l.snapshots.GetByDate(context.Background(), nil, accountID, day)
	require.NoError(t, err)
	return s.Balance
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}
