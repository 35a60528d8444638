package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	store *Store
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(store *Store) *EntryRepository {
	return &EntryRepository{store: store}
}

func insertEntry(s *state, e *domain.Entry) error {
	if _, ok := s.entries[e.ID]; ok {
		return &domain.ConstraintError{Kind: domain.ConstraintUnique, Constraint: "transactions_pkey", Table: "transactions"}
	}
	if _, ok := s.accounts[e.AccountID]; !ok {
		return &domain.ConstraintError{Kind: domain.ConstraintForeignKey, Constraint: "transactions_account_id_fkey", Table: "transactions"}
	}
	if e.CategoryID != nil {
		if _, ok := s.categories[*e.CategoryID]; !ok {
			return &domain.ConstraintError{Kind: domain.ConstraintForeignKey, Constraint: "transactions_category_id_fkey", Table: "transactions"}
		}
	}
	s.entries[e.ID] = copyEntry(e)
	return nil
}

// Create creates a new entry.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	return r.store.write(ctx, tx, func(s *state) error {
		return insertEntry(s, entry)
	})
}

// CreateMany creates entries all-or-nothing.
func (r *EntryRepository) CreateMany(ctx context.Context, tx usecase.Transaction, entries []*domain.Entry) error {
	return r.store.write(ctx, tx, func(s *state) error {
		for _, e := range entries {
			if err := insertEntry(s, e); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID retrieves an entry by ID.
func (r *EntryRepository) GetByID(_ context.Context, tx usecase.Transaction, id string) (*domain.Entry, error) {
	var entry *domain.Entry
	err := r.store.read(tx, func(s *state) error {
		e, ok := s.entries[id]
		if !ok {
			return domain.ErrEntryNotFound
		}
		entry = copyEntry(e)
		return nil
	})
	return entry, err
}

func (r *EntryRepository) collect(tx usecase.Transaction, keep func(*domain.Entry) bool) ([]*domain.Entry, error) {
	var entries []*domain.Entry
	err := r.store.read(tx, func(s *state) error {
		for _, e := range s.entries {
			if keep(e) {
				entries = append(entries, copyEntry(e))
			}
		}
		return nil
	})
	sortAscending(entries)
	return entries, err
}

// ListByRecurrenceID lists every entry of a series ordered by date.
func (r *EntryRepository) ListByRecurrenceID(_ context.Context, tx usecase.Transaction, recurrenceID string) ([]*domain.Entry, error) {
	return r.collect(tx, func(e *domain.Entry) bool { return e.RecurrenceID() == recurrenceID })
}

// ListByTransferID lists both legs of a transfer.
func (r *EntryRepository) ListByTransferID(_ context.Context, tx usecase.Transaction, transferID string) ([]*domain.Entry, error) {
	return r.collect(tx, func(e *domain.Entry) bool { return e.TransferID == transferID })
}

// Update overwrites an entry.
func (r *EntryRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	return r.store.write(ctx, tx, func(s *state) error {
		if _, ok := s.entries[entry.ID]; !ok {
			return domain.ErrEntryNotFound
		}
		if entry.CategoryID != nil {
			if _, ok := s.categories[*entry.CategoryID]; !ok {
				return &domain.ConstraintError{Kind: domain.ConstraintForeignKey, Constraint: "transactions_category_id_fkey", Table: "transactions"}
			}
		}
		s.entries[entry.ID] = copyEntry(entry)
		return nil
	})
}

// UpdateByRecurrenceID applies one patch to every entry of a series.
func (r *EntryRepository) UpdateByRecurrenceID(
	ctx context.Context,
	tx usecase.Transaction,
	recurrenceID string,
	patch domain.EntryPatch,
	updatedAt time.Time,
) (int64, error) {
	var count int64
	err := r.store.write(ctx, tx, func(s *state) error {
		if patch.CategoryID != nil {
			if _, ok := s.categories[*patch.CategoryID]; !ok {
				return &domain.ConstraintError{Kind: domain.ConstraintForeignKey, Constraint: "transactions_category_id_fkey", Table: "transactions"}
			}
		}
		for _, e := range s.entries {
			if e.RecurrenceID() == recurrenceID {
				patch.Apply(e, updatedAt)
				count++
			}
		}
		return nil
	})
	return count, err
}

// Delete deletes an entry.
func (r *EntryRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	return r.store.write(ctx, tx, func(s *state) error {
		if _, ok := s.entries[id]; !ok {
			return domain.ErrEntryNotFound
		}
		delete(s.entries, id)
		return nil
	})
}

// DeleteByRecurrenceID deletes every entry of a series.
func (r *EntryRepository) DeleteByRecurrenceID(ctx context.Context, tx usecase.Transaction, recurrenceID string) (int64, error) {
	var count int64
	err := r.store.write(ctx, tx, func(s *state) error {
		for id, e := range s.entries {
			if e.RecurrenceID() == recurrenceID {
				delete(s.entries, id)
				count++
			}
		}
		return nil
	})
	return count, err
}

// SettleInvoice marks the invoice's unpaid expenses paid.
func (r *EntryRepository) SettleInvoice(
	ctx context.Context,
	tx usecase.Transaction,
	accountID, invoiceMonth string,
	updatedAt time.Time,
) ([]*domain.Entry, error) {
	var settled []*domain.Entry
	err := r.store.write(ctx, tx, func(s *state) error {
		for _, e := range s.entries {
			if e.AccountID == accountID && e.Type == domain.EntryTypeExpense && !e.IsPaid && e.InvoiceMonth == invoiceMonth {
				e.IsPaid = true
				e.UpdatedAt = updatedAt
				settled = append(settled, copyEntry(e))
			}
		}
		return nil
	})
	sortAscending(settled)
	return settled, err
}

// ListPaidByAccount lists paid entries by date ascending.
func (r *EntryRepository) ListPaidByAccount(_ context.Context, tx usecase.Transaction, accountID string) ([]*domain.Entry, error) {
	return r.collect(tx, func(e *domain.Entry) bool { return e.AccountID == accountID && e.IsPaid })
}

// SumPaidByType sums paid amounts dated on or before asOf per type.
func (r *EntryRepository) SumPaidByType(
	_ context.Context,
	tx usecase.Transaction,
	accountID string,
	asOf time.Time,
) ([]domain.TypeTotal, error) {
	cutoff := domain.Day(asOf)
	sums := make(map[domain.EntryType]decimal.Decimal)
	err := r.store.read(tx, func(s *state) error {
		for _, e := range s.entries {
			if e.AccountID == accountID && e.IsPaid && !domain.Day(e.Date).After(cutoff) {
				sums[e.Type] = sums[e.Type].Add(e.Amount)
			}
		}
		return nil
	})

	totals := make([]domain.TypeTotal, 0, len(sums))
	for typ, total := range sums {
		totals = append(totals, domain.TypeTotal{Type: typ, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Type < totals[j].Type })
	return totals, err
}

// SumUnpaidExpenses sums the magnitudes of unpaid expenses.
func (r *EntryRepository) SumUnpaidExpenses(_ context.Context, tx usecase.Transaction, accountID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	err := r.store.read(tx, func(s *state) error {
		for _, e := range s.entries {
			if e.AccountID == accountID && !e.IsPaid && e.Type == domain.EntryTypeExpense {
				sum = sum.Add(e.Amount.Abs())
			}
		}
		return nil
	})
	return sum, err
}

// Query lists entries matching filter by (date desc, id desc).
func (r *EntryRepository) Query(_ context.Context, tx usecase.Transaction, filter domain.EntryFilter) ([]*domain.Entry, error) {
	entries, err := r.collect(tx, filter.Matches)
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.After(entries[j].Date)
		}
		return entries[i].ID > entries[j].ID
	})

	if filter.Limit > 0 && len(entries) > filter.Limit {
		entries = entries[:filter.Limit]
	}
	return entries, nil
}

func sortAscending(entries []*domain.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].ID < entries[j].ID
	})
}
