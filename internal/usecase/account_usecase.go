package usecase

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	idGen       IDGenerator
	opts        options
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(txManager TransactionManager, accountRepo AccountRepository, idGen IDGenerator, opts ...Option) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		idGen:       idGen,
		opts:        newOptions(opts),
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Name           string
	Type           domain.AccountType
	InitialBalance decimal.Decimal
	CreditCard     *domain.CreditCardInfo
}

// CreateAccountResult is the new account plus the range whose snapshots the
// caller should seed.
type CreateAccountResult struct {
	Account  *domain.Account
	Affected []domain.AffectedRange
}

// CreateAccount creates a new account owned by the actor.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, actorID string, input CreateAccountInput) (*CreateAccountResult, error) {
	now := uc.opts.now()

	account := &domain.Account{
		ID:             uc.idGen.Generate(),
		OwnerID:        actorID,
		Name:           strings.TrimSpace(input.Name),
		Type:           input.Type,
		InitialBalance: input.InitialBalance,
		CreditCard:     input.CreditCard,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := account.Validate(); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.Create(ctx, nil, account); err != nil {
		return nil, translateStoreError(err)
	}

	uc.opts.metrics.AccountsCreated.Inc()

	return &CreateAccountResult{
		Account:  account,
		Affected: []domain.AffectedRange{{AccountID: account.ID, From: now}},
	}, nil
}

// GetAccount retrieves an account the actor can read.
func (uc *AccountUseCase) GetAccount(ctx context.Context, actorID, id string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetForActor(ctx, nil, actorID, id, domain.AccessRead)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return account, nil
}

// CreditCardPatch is a partial update of a card's settings.
type CreditCardPatch struct {
	ClosingDay  *int
	DueDay      *int
	CreditLimit *decimal.Decimal
	Brand       *string
}

// UpdateCreditCard changes card settings. Invoice months already assigned to
// entries are left as they are.
func (uc *AccountUseCase) UpdateCreditCard(ctx context.Context, actorID, id string, patch CreditCardPatch) (*domain.Account, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, translateStoreError(err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := uc.accountRepo.GetForActor(txCtx, tx, actorID, id, domain.AccessWrite)
	if err != nil {
		return nil, translateStoreError(err)
	}

	if !account.IsCredit() {
		return nil, domain.ErrCardFieldsOnStandard
	}

	current, err := account.Card()
	if err != nil {
		return nil, err
	}

	card := *current
	if patch.ClosingDay != nil {
		card.ClosingDay = *patch.ClosingDay
	}
	if patch.DueDay != nil {
		card.DueDay = *patch.DueDay
	}
	if patch.CreditLimit != nil {
		card.CreditLimit = *patch.CreditLimit
	}
	if patch.Brand != nil {
		card.Brand = strings.TrimSpace(*patch.Brand)
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}

	now := uc.opts.now()
	if err := uc.accountRepo.UpdateCreditCard(txCtx, tx, id, card, now); err != nil {
		return nil, translateStoreError(err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, translateStoreError(err)
	}

	account.CreditCard = &card
	account.UpdatedAt = now

	return account, nil
}

// ShareAccount grants another user read or write access. Only the owner may
// share an account.
func (uc *AccountUseCase) ShareAccount(ctx context.Context, actorID, accountID, userID string, level domain.AccessLevel) error {
	account, err := uc.accountRepo.GetForActor(ctx, nil, actorID, accountID, domain.AccessRead)
	if err != nil {
		return translateStoreError(err)
	}
	if account.OwnerID != actorID {
		return domain.ErrAccessDenied
	}
	if userID == "" || userID == actorID {
		return domain.ErrValidation
	}

	if err := uc.accountRepo.Share(ctx, nil, accountID, userID, level); err != nil {
		return translateStoreError(err)
	}
	return nil
}
