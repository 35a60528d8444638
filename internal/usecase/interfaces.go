package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

// Every repository method takes the unit of work it runs in. A nil
// Transaction runs the statement outside any transaction.

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	// GetForActor returns the account if actorID holds at least the given
	// access level on it: ErrAccountNotFound when absent, ErrAccessDenied otherwise.
	GetForActor(ctx context.Context, tx Transaction, actorID, id string, level domain.AccessLevel) (*domain.Account, error)
	UpdateCreditCard(ctx context.Context, tx Transaction, id string, card domain.CreditCardInfo, updatedAt time.Time) error
	ListReadable(ctx context.Context, tx Transaction, actorID string) ([]*domain.Account, error)
	ListByOwner(ctx context.Context, tx Transaction, ownerID string) ([]*domain.Account, error)
	Share(ctx context.Context, tx Transaction, accountID, userID string, level domain.AccessLevel) error
}

// CategoryRepository defines read access to categories.
type CategoryRepository interface {
	GetByID(ctx context.Context, tx Transaction, id string) (*domain.Category, error)
}

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	CreateMany(ctx context.Context, tx Transaction, entries []*domain.Entry) error
	GetByID(ctx context.Context, tx Transaction, id string) (*domain.Entry, error)
	ListByRecurrenceID(ctx context.Context, tx Transaction, recurrenceID string) ([]*domain.Entry, error)
	ListByTransferID(ctx context.Context, tx Transaction, transferID string) ([]*domain.Entry, error)
	Update(ctx context.Context, tx Transaction, entry *domain.Entry) error
	UpdateByRecurrenceID(ctx context.Context, tx Transaction, recurrenceID string, patch domain.EntryPatch, updatedAt time.Time) (int64, error)
	Delete(ctx context.Context, tx Transaction, id string) error
	DeleteByRecurrenceID(ctx context.Context, tx Transaction, recurrenceID string) (int64, error)
	// SettleInvoice marks paid every unpaid EXPENSE of the account billed in
	// invoiceMonth and returns the entries it changed.
	SettleInvoice(ctx context.Context, tx Transaction, accountID, invoiceMonth string, updatedAt time.Time) ([]*domain.Entry, error)
	// ListPaidByAccount returns paid entries ordered by (date, id) ascending.
	ListPaidByAccount(ctx context.Context, tx Transaction, accountID string) ([]*domain.Entry, error)
	// SumPaidByType totals paid entries dated on or before asOf, per type.
	SumPaidByType(ctx context.Context, tx Transaction, accountID string, asOf time.Time) ([]domain.TypeTotal, error)
	SumUnpaidExpenses(ctx context.Context, tx Transaction, accountID string) (decimal.Decimal, error)
	// Query returns entries matching filter ordered by (date desc, id desc).
	Query(ctx context.Context, tx Transaction, filter domain.EntryFilter) ([]*domain.Entry, error)
}

// SnapshotRepository defines data access for daily balance snapshots.
type SnapshotRepository interface {
	Upsert(ctx context.Context, tx Transaction, snapshots []domain.DailySnapshot) error
	GetByDate(ctx context.Context, tx Transaction, accountID string, date time.Time) (*domain.DailySnapshot, error)
	ListByAccount(ctx context.Context, tx Transaction, accountID string, from, to time.Time) ([]domain.DailySnapshot, error)
	SumByDate(ctx context.Context, tx Transaction, accountIDs []string, from, to time.Time) ([]domain.DailyTotal, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Delete releases a key whose request failed so it can be retried.
	Delete(ctx context.Context, key string) error
}

// Retrier re-runs a whole unit of work when storage reports a transient
// failure such as a deadlock or a serialization conflict.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}
