package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

// BalanceUseCase computes balances on demand from the entries themselves.
type BalanceUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
	opts        options
}

// NewBalanceUseCase creates a new BalanceUseCase.
func NewBalanceUseCase(accountRepo AccountRepository, entryRepo EntryRepository, opts ...Option) *BalanceUseCase {
	return &BalanceUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		opts:        newOptions(opts),
	}
}

// AccountSummary is an account with its derived figures.
type AccountSummary struct {
	Account        *domain.Account
	Balance        decimal.Decimal
	AvailableLimit *decimal.Decimal
}

// AccountBalance returns the current balance of an account the actor can read.
func (uc *BalanceUseCase) AccountBalance(ctx context.Context, actorID, accountID string) (decimal.Decimal, error) {
	account, err := uc.accountRepo.GetForActor(ctx, nil, actorID, accountID, domain.AccessRead)
	if err != nil {
		return decimal.Zero, translateStoreError(err)
	}
	return uc.balanceOf(ctx, account)
}

// AvailableLimit returns the unused credit of a credit card account.
func (uc *BalanceUseCase) AvailableLimit(ctx context.Context, actorID, accountID string) (decimal.Decimal, error) {
	account, err := uc.accountRepo.GetForActor(ctx, nil, actorID, accountID, domain.AccessRead)
	if err != nil {
		return decimal.Zero, translateStoreError(err)
	}
	if !account.IsCredit() {
		return decimal.Zero, domain.ErrNotCreditAccount
	}
	return uc.availableLimitOf(ctx, account)
}

// ListAccounts returns every account the actor can read with its balance and,
// for credit cards, its available limit.
func (uc *BalanceUseCase) ListAccounts(ctx context.Context, actorID string) ([]AccountSummary, error) {
	accounts, err := uc.accountRepo.ListReadable(ctx, nil, actorID)
	if err != nil {
		return nil, translateStoreError(err)
	}

	summaries := make([]AccountSummary, 0, len(accounts))
	for _, account := range accounts {
		summary, err := uc.Summarize(ctx, account)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Summarize derives the figures of an already loaded account.
func (uc *BalanceUseCase) Summarize(ctx context.Context, account *domain.Account) (AccountSummary, error) {
	balance, err := uc.balanceOf(ctx, account)
	if err != nil {
		return AccountSummary{}, err
	}

	summary := AccountSummary{Account: account, Balance: balance}
	if account.IsCredit() {
		limit, err := uc.availableLimitOf(ctx, account)
		if err != nil {
			return AccountSummary{}, err
		}
		summary.AvailableLimit = &limit
	}
	return summary, nil
}

// balanceOf is initialBalance plus the contribution of every paid entry dated
// today or earlier, the same cutoff the snapshot of today uses. Credit card
// usage shows up in the available limit instead, so CREDIT accounts report
// zero.
func (uc *BalanceUseCase) balanceOf(ctx context.Context, account *domain.Account) (decimal.Decimal, error) {
	if account.IsCredit() {
		return decimal.Zero, nil
	}

	uc.opts.metrics.BalanceQueries.WithLabelValues("aggregate").Inc()

	totals, err := uc.entryRepo.SumPaidByType(ctx, nil, account.ID, domain.Day(uc.opts.now()))
	if err != nil {
		return decimal.Zero, translateStoreError(err)
	}
	return domain.BalanceFromTotals(account.InitialBalance, totals), nil
}

func (uc *BalanceUseCase) availableLimitOf(ctx context.Context, account *domain.Account) (decimal.Decimal, error) {
	card, err := account.Card()
	if err != nil {
		return decimal.Zero, err
	}

	unpaid, err := uc.entryRepo.SumUnpaidExpenses(ctx, nil, account.ID)
	if err != nil {
		return decimal.Zero, translateStoreError(err)
	}
	return domain.AvailableLimit(card.CreditLimit, unpaid), nil
}
