package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iho/walletledger/internal/domain"
)

// SnapshotUseCase maintains the per-day running balance table and answers
// historical balance queries from it.
type SnapshotUseCase struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	entryRepo    EntryRepository
	snapshotRepo SnapshotRepository
	opts         options
}

// NewSnapshotUseCase creates a new SnapshotUseCase.
func NewSnapshotUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	snapshotRepo SnapshotRepository,
	opts ...Option,
) *SnapshotUseCase {
	return &SnapshotUseCase{
		txManager:    txManager,
		accountRepo:  accountRepo,
		entryRepo:    entryRepo,
		snapshotRepo: snapshotRepo,
		opts:         newOptions(opts),
	}
}

// Today is the last day recomputation writes when no end is given.
func (uc *SnapshotUseCase) Today() time.Time {
	return domain.Day(uc.opts.now())
}

// Recompute rebuilds the snapshot rows of one account for every day in
// [from, to]. A zero to means today. The full paid history is folded to find
// the balance carried into the window, but only rows inside the window are
// written. A missing account is a no-op. It returns the number of rows written.
func (uc *SnapshotUseCase) Recompute(ctx context.Context, accountID string, from, to time.Time) (int, error) {
	from = domain.Day(from)
	if to.IsZero() {
		to = uc.Today()
	}
	to = domain.Day(to)
	if from.After(to) {
		return 0, nil
	}

	start := uc.opts.now()

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return 0, translateStoreError(err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// Locking the account row serializes recomputation per account.
	account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, accountID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, translateStoreError(err)
	}

	entries, err := uc.entryRepo.ListPaidByAccount(txCtx, tx, accountID)
	if err != nil {
		return 0, translateStoreError(err)
	}

	rows := buildSnapshots(account, domain.FoldPaid(account.InitialBalance, entries), from, to)

	if err := uc.snapshotRepo.Upsert(txCtx, tx, rows); err != nil {
		return 0, translateStoreError(err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return 0, translateStoreError(err)
	}

	uc.opts.metrics.SnapshotsWritten.Add(float64(len(rows)))
	uc.opts.metrics.RecomputeDuration.Observe(uc.opts.now().Sub(start).Seconds())

	uc.opts.logger.Debug().
		Str("account_id", accountID).
		Time("from", from).
		Time("to", to).
		Int("rows", len(rows)).
		Int("entries", len(entries)).
		Msg("snapshots recomputed")

	return len(rows), nil
}

// buildSnapshots walks [from, to] day by day, carrying the last known running
// balance forward. Days before the window only establish the carried balance.
func buildSnapshots(account *domain.Account, days []domain.DayBalance, from, to time.Time) []domain.DailySnapshot {
	balance := account.InitialBalance
	i := 0
	for i < len(days) && days[i].Date.Before(from) {
		balance = days[i].Balance
		i++
	}

	rows := make([]domain.DailySnapshot, 0, int(to.Sub(from).Hours()/24)+1)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		for i < len(days) && !days[i].Date.After(day) {
			balance = days[i].Balance
			i++
		}
		rows = append(rows, domain.DailySnapshot{
			AccountID:   account.ID,
			Date:        day,
			Balance:     balance,
			CalcVersion: domain.SnapshotCalcVersion,
		})
	}

	return rows
}

// RecomputeAffected recomputes every account named in ranges once, from the
// earliest day reported for it through today. Failures do not stop the
// remaining accounts; they are joined into the returned error.
func (uc *SnapshotUseCase) RecomputeAffected(ctx context.Context, ranges []domain.AffectedRange) error {
	var errs []error
	for _, r := range domain.MergeAffected(ranges...) {
		if _, err := uc.Recompute(ctx, r.AccountID, r.From, time.Time{}); err != nil {
			errs = append(errs, fmt.Errorf("recompute account %s: %w", r.AccountID, err))
		}
	}
	return errors.Join(errs...)
}

// RecomputeAll rebuilds every account of an owner.
func (uc *SnapshotUseCase) RecomputeAll(ctx context.Context, ownerID string) (int, error) {
	accounts, err := uc.accountRepo.ListByOwner(ctx, nil, ownerID)
	if err != nil {
		return 0, translateStoreError(err)
	}

	total := 0
	for _, account := range accounts {
		n, err := uc.RebuildAccount(ctx, account)
		if err != nil {
			return total, err
		}
		total += n
	}

	return total, nil
}

// RebuildAccount recomputes one account from the earliest of its creation
// day and its first paid entry through today.
func (uc *SnapshotUseCase) RebuildAccount(ctx context.Context, account *domain.Account) (int, error) {
	from := domain.Day(account.CreatedAt)
	entries, err := uc.entryRepo.ListPaidByAccount(ctx, nil, account.ID)
	if err != nil {
		return 0, translateStoreError(err)
	}
	if len(entries) > 0 && entries[0].Date.Before(from) {
		from = domain.Day(entries[0].Date)
	}

	return uc.Recompute(ctx, account.ID, from, time.Time{})
}

// BalanceAt returns the stored snapshot of an account for one day.
func (uc *SnapshotUseCase) BalanceAt(ctx context.Context, actorID, accountID string, date time.Time) (*domain.DailySnapshot, error) {
	if _, err := uc.accountRepo.GetForActor(ctx, nil, actorID, accountID, domain.AccessRead); err != nil {
		return nil, translateStoreError(err)
	}

	uc.opts.metrics.BalanceQueries.WithLabelValues("snapshot").Inc()

	snapshot, err := uc.snapshotRepo.GetByDate(ctx, nil, accountID, domain.Day(date))
	if err != nil {
		return nil, translateStoreError(err)
	}
	return snapshot, nil
}

// HistoryInput represents a reporting window. A zero To means today.
type HistoryInput struct {
	From time.Time
	To   time.Time
}

func (uc *SnapshotUseCase) window(input HistoryInput) (time.Time, time.Time, error) {
	from := domain.Day(input.From)
	to := input.To
	if to.IsZero() {
		to = uc.Today()
	}
	to = domain.Day(to)
	if to.Before(from) {
		return from, to, domain.ErrInvalidDateRange
	}
	return from, to, nil
}

// History returns the stored daily balances of one account in a window.
func (uc *SnapshotUseCase) History(ctx context.Context, actorID, accountID string, input HistoryInput) ([]domain.DailySnapshot, error) {
	from, to, err := uc.window(input)
	if err != nil {
		return nil, err
	}

	if _, err := uc.accountRepo.GetForActor(ctx, nil, actorID, accountID, domain.AccessRead); err != nil {
		return nil, translateStoreError(err)
	}

	uc.opts.metrics.BalanceQueries.WithLabelValues("history").Inc()

	snapshots, err := uc.snapshotRepo.ListByAccount(ctx, nil, accountID, from, to)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return snapshots, nil
}

// PortfolioHistory sums the daily balances of every account the actor can
// read, one total per day in the window.
func (uc *SnapshotUseCase) PortfolioHistory(ctx context.Context, actorID string, input HistoryInput) ([]domain.DailyTotal, error) {
	from, to, err := uc.window(input)
	if err != nil {
		return nil, err
	}

	accounts, err := uc.accountRepo.ListReadable(ctx, nil, actorID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	if len(accounts) == 0 {
		return []domain.DailyTotal{}, nil
	}

	ids := make([]string, len(accounts))
	for i, a := range accounts {
		ids[i] = a.ID
	}

	uc.opts.metrics.BalanceQueries.WithLabelValues("portfolio").Inc()

	totals, err := uc.snapshotRepo.SumByDate(ctx, nil, ids, from, to)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return totals, nil
}
