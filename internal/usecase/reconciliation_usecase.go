package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

// ReconciliationUseCase checks that the snapshot table agrees with the
// on-demand balance for each account.
type ReconciliationUseCase struct {
	accountRepo  AccountRepository
	snapshotRepo SnapshotRepository
	balances     *BalanceUseCase
	snapshots    *SnapshotUseCase
	opts         options
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	accountRepo AccountRepository,
	snapshotRepo SnapshotRepository,
	balances *BalanceUseCase,
	snapshots *SnapshotUseCase,
	opts ...Option,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo:  accountRepo,
		snapshotRepo: snapshotRepo,
		balances:     balances,
		snapshots:    snapshots,
		opts:         newOptions(opts),
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	AccountID         string
	SnapshotBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
	MissingSnapshot   bool
}

// ReconcileAccount compares today's snapshot with the aggregated balance.
// Credit card accounts are skipped by the caller: the aggregate reports zero
// for them by definition.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, account *domain.Account) (*ReconciliationResult, error) {
	calculated, err := uc.balances.balanceOf(ctx, account)
	if err != nil {
		return nil, err
	}

	result := &ReconciliationResult{
		AccountID:         account.ID,
		CalculatedBalance: calculated,
	}

	snapshot, err := uc.snapshotRepo.GetByDate(ctx, nil, account.ID, uc.snapshots.Today())
	if errors.Is(err, domain.ErrSnapshotNotFound) {
		result.MissingSnapshot = true
		return result, nil
	}
	if err != nil {
		return nil, translateStoreError(err)
	}

	result.SnapshotBalance = snapshot.Balance
	result.Difference = calculated.Sub(snapshot.Balance)
	result.IsReconciled = result.Difference.IsZero()

	if !result.IsReconciled {
		uc.opts.logger.Warn().
			Str("account_id", account.ID).
			Str("snapshot", snapshot.Balance.String()).
			Str("calculated", calculated.String()).
			Msg("snapshot balance drifted from aggregated balance")
	}

	return result, nil
}

// ReconcileOwner reconciles every STANDARD account of an owner. With repair
// set, drifted or missing accounts are recomputed and checked again.
func (uc *ReconciliationUseCase) ReconcileOwner(ctx context.Context, ownerID string, repair bool) ([]*ReconciliationResult, error) {
	accounts, err := uc.accountRepo.ListByOwner(ctx, nil, ownerID)
	if err != nil {
		return nil, translateStoreError(err)
	}

	results := make([]*ReconciliationResult, 0, len(accounts))
	for _, account := range accounts {
		if account.IsCredit() {
			continue
		}

		result, err := uc.ReconcileAccount(ctx, account)
		if err != nil {
			return nil, fmt.Errorf("failed to reconcile account %s: %w", account.ID, err)
		}

		if repair && !result.IsReconciled {
			if _, err := uc.snapshots.RebuildAccount(ctx, account); err != nil {
				return nil, fmt.Errorf("failed to repair account %s: %w", account.ID, err)
			}
			result, err = uc.ReconcileAccount(ctx, account)
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile account %s: %w", account.ID, err)
			}
		}

		results = append(results, result)
	}

	return results, nil
}
