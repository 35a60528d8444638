package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	return r.store.write(ctx, tx, func(s *state) error {
		if _, ok := s.accounts[account.ID]; ok {
			return &domain.ConstraintError{Kind: domain.ConstraintUnique, Constraint: "accounts_pkey", Table: "accounts"}
		}
		s.accounts[account.ID] = copyAccount(account)
		return nil
	})
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(_ context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	var account *domain.Account
	err := r.store.read(tx, func(s *state) error {
		a, ok := s.accounts[id]
		if !ok {
			return domain.ErrAccountNotFound
		}
		account = copyAccount(a)
		return nil
	})
	return account, err
}

// GetByIDForUpdate retrieves an account by ID. Holding a transaction already
// excludes every other writer.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	return r.GetByID(ctx, tx, id)
}

// GetForActor retrieves an account if the actor holds the access level.
func (r *AccountRepository) GetForActor(
	_ context.Context,
	tx usecase.Transaction,
	actorID, id string,
	level domain.AccessLevel,
) (*domain.Account, error) {
	var account *domain.Account
	err := r.store.read(tx, func(s *state) error {
		a, ok := s.accounts[id]
		if !ok {
			return domain.ErrAccountNotFound
		}
		if !canAccess(s, a, actorID, level) {
			return domain.ErrAccessDenied
		}
		account = copyAccount(a)
		return nil
	})
	return account, err
}

func canAccess(s *state, a *domain.Account, actorID string, level domain.AccessLevel) bool {
	if a.OwnerID == actorID {
		return true
	}
	granted, ok := s.shares[a.ID][actorID]
	return ok && granted >= level
}

// UpdateCreditCard replaces the card settings of an account.
func (r *AccountRepository) UpdateCreditCard(
	ctx context.Context,
	tx usecase.Transaction,
	id string,
	card domain.CreditCardInfo,
	updatedAt time.Time,
) error {
	return r.store.write(ctx, tx, func(s *state) error {
		a, ok := s.accounts[id]
		if !ok {
			return domain.ErrAccountNotFound
		}
		c := card
		a.CreditCard = &c
		a.UpdatedAt = updatedAt
		return nil
	})
}

// ListReadable lists accounts the actor owns or has been shared.
func (r *AccountRepository) ListReadable(_ context.Context, tx usecase.Transaction, actorID string) ([]*domain.Account, error) {
	var accounts []*domain.Account
	err := r.store.read(tx, func(s *state) error {
		for _, a := range s.accounts {
			if canAccess(s, a, actorID, domain.AccessRead) {
				accounts = append(accounts, copyAccount(a))
			}
		}
		return nil
	})
	sortAccounts(accounts)
	return accounts, err
}

// ListByOwner lists accounts owned by ownerID.
func (r *AccountRepository) ListByOwner(_ context.Context, tx usecase.Transaction, ownerID string) ([]*domain.Account, error) {
	var accounts []*domain.Account
	err := r.store.read(tx, func(s *state) error {
		for _, a := range s.accounts {
			if a.OwnerID == ownerID {
				accounts = append(accounts, copyAccount(a))
			}
		}
		return nil
	})
	sortAccounts(accounts)
	return accounts, err
}

// Share grants userID access to an account, replacing any earlier grant.
func (r *AccountRepository) Share(
	ctx context.Context,
	tx usecase.Transaction,
	accountID, userID string,
	level domain.AccessLevel,
) error {
	return r.store.write(ctx, tx, func(s *state) error {
		if _, ok := s.accounts[accountID]; !ok {
			return &domain.ConstraintError{Kind: domain.ConstraintForeignKey, Constraint: "account_shares_account_id_fkey", Table: "account_shares"}
		}
		if s.shares[accountID] == nil {
			s.shares[accountID] = make(map[string]domain.AccessLevel)
		}
		s.shares[accountID][userID] = level
		return nil
	})
}

func sortAccounts(accounts []*domain.Account) {
	sort.Slice(accounts, func(i, j int) bool {
		if !accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
		}
		return accounts[i].ID < accounts[j].ID
	})
}

// CategoryRepository implements usecase.CategoryRepository.
type CategoryRepository struct {
	store *Store
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(store *Store) *CategoryRepository {
	return &CategoryRepository{store: store}
}

// GetByID retrieves a category by ID.
func (r *CategoryRepository) GetByID(_ context.Context, tx usecase.Transaction, id string) (*domain.Category, error) {
	var category *domain.Category
	err := r.store.read(tx, func(s *state) error {
		c, ok := s.categories[id]
		if !ok {
			return domain.ErrCategoryNotFound
		}
		cp := *c
		category = &cp
		return nil
	})
	return category, err
}
