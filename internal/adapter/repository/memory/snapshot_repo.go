package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// SnapshotRepository implements usecase.SnapshotRepository.
type SnapshotRepository struct {
	store *Store
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(store *Store) *SnapshotRepository {
	return &SnapshotRepository{store: store}
}

// Upsert writes snapshot rows keyed by (account, day).
func (r *SnapshotRepository) Upsert(ctx context.Context, tx usecase.Transaction, snapshots []domain.DailySnapshot) error {
	return r.store.write(ctx, tx, func(s *state) error {
		for _, snap := range snapshots {
			if _, ok := s.accounts[snap.AccountID]; !ok {
				return &domain.ConstraintError{Kind: domain.ConstraintForeignKey, Constraint: "daily_snapshots_account_id_fkey", Table: "daily_snapshots"}
			}
			snap.Date = domain.Day(snap.Date)
			s.snapshots[snapshotKey{accountID: snap.AccountID, date: dayKey(snap.Date)}] = snap
		}
		return nil
	})
}

// GetByDate retrieves one snapshot row.
func (r *SnapshotRepository) GetByDate(_ context.Context, tx usecase.Transaction, accountID string, date time.Time) (*domain.DailySnapshot, error) {
	var snapshot *domain.DailySnapshot
	err := r.store.read(tx, func(s *state) error {
		snap, ok := s.snapshots[snapshotKey{accountID: accountID, date: dayKey(date)}]
		if !ok {
			return domain.ErrSnapshotNotFound
		}
		snapshot = &snap
		return nil
	})
	return snapshot, err
}

// ListByAccount lists an account's rows in [from, to] by date.
func (r *SnapshotRepository) ListByAccount(
	_ context.Context,
	tx usecase.Transaction,
	accountID string,
	from, to time.Time,
) ([]domain.DailySnapshot, error) {
	snapshots := []domain.DailySnapshot{}
	err := r.store.read(tx, func(s *state) error {
		for k, snap := range s.snapshots {
			if k.accountID == accountID && inWindow(snap.Date, from, to) {
				snapshots = append(snapshots, snap)
			}
		}
		return nil
	})
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].Date.Before(snapshots[j].Date) })
	return snapshots, err
}

// SumByDate sums the rows of several accounts per day in [from, to].
func (r *SnapshotRepository) SumByDate(
	_ context.Context,
	tx usecase.Transaction,
	accountIDs []string,
	from, to time.Time,
) ([]domain.DailyTotal, error) {
	wanted := make(map[string]bool, len(accountIDs))
	for _, id := range accountIDs {
		wanted[id] = true
	}

	sums := make(map[string]domain.DailyTotal)
	err := r.store.read(tx, func(s *state) error {
		for k, snap := range s.snapshots {
			if !wanted[k.accountID] || !inWindow(snap.Date, from, to) {
				continue
			}
			total := sums[k.date]
			total.Date = snap.Date
			total.Balance = total.Balance.Add(snap.Balance)
			sums[k.date] = total
		}
		return nil
	})

	totals := make([]domain.DailyTotal, 0, len(sums))
	for _, t := range sums {
		totals = append(totals, t)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Date.Before(totals[j].Date) })
	return totals, err
}

func inWindow(date, from, to time.Time) bool {
	d := domain.Day(date)
	return !d.Before(domain.Day(from)) && !d.After(domain.Day(to))
}
