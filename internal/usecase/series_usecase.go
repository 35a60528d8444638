package usecase

import (
	"context"
	"time"

	"github.com/iho/walletledger/internal/domain"
)

// SeriesUseCase updates and deletes entries, either one at a time or across
// the whole installment plan or recurring series they belong to.
type SeriesUseCase struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	categoryRepo CategoryRepository
	entryRepo    EntryRepository
	opts         options
}

// NewSeriesUseCase creates a new SeriesUseCase.
func NewSeriesUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	categoryRepo CategoryRepository,
	entryRepo EntryRepository,
	opts ...Option,
) *SeriesUseCase {
	return &SeriesUseCase{
		txManager:    txManager,
		accountRepo:  accountRepo,
		categoryRepo: categoryRepo,
		entryRepo:    entryRepo,
		opts:         newOptions(opts),
	}
}

// UpdateEntryInput represents an update request.
type UpdateEntryInput struct {
	EntryID string
	Patch   domain.EntryPatch
	Scope   domain.MutationScope
}

// DeleteEntryInput represents a delete request.
type DeleteEntryInput struct {
	EntryID string
	Scope   domain.MutationScope
}

// MutationResult reports the entries a mutation touched and the running
// balances the caller must rebuild after commit.
type MutationResult struct {
	Entries  []*domain.Entry
	Count    int64
	Affected []domain.AffectedRange
}

// mutationTarget is what a mutation resolves to: the two legs of a transfer,
// a whole series, or a single entry.
type mutationTarget struct {
	entry   *domain.Entry
	account *domain.Account
	legs    []*domain.Entry
	series  *domain.SeriesGroup
}

func (uc *SeriesUseCase) resolve(
	ctx context.Context,
	tx Transaction,
	actorID, entryID string,
	scope domain.MutationScope,
) (*mutationTarget, error) {
	entry, err := uc.entryRepo.GetByID(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}

	account, err := uc.accountRepo.GetForActor(ctx, tx, actorID, entry.AccountID, domain.AccessWrite)
	if err != nil {
		return nil, err
	}

	target := &mutationTarget{entry: entry, account: account}

	switch {
	case entry.IsTransfer():
		legs, err := uc.entryRepo.ListByTransferID(ctx, tx, entry.TransferID)
		if err != nil {
			return nil, err
		}
		for _, leg := range legs {
			if leg.AccountID == entry.AccountID {
				continue
			}
			if _, err := uc.accountRepo.GetForActor(ctx, tx, actorID, leg.AccountID, domain.AccessWrite); err != nil {
				return nil, err
			}
		}
		target.legs = legs
	case scope == domain.ScopeAll && entry.RecurrenceID() != "":
		members, err := uc.entryRepo.ListByRecurrenceID(ctx, tx, entry.RecurrenceID())
		if err != nil {
			return nil, err
		}
		group := domain.NewSeriesGroup(members)
		target.series = &group
	}

	return target, nil
}

// Update applies a patch to one entry, to both legs of a transfer, or to
// every entry of the series when scope is ALL.
func (uc *SeriesUseCase) Update(ctx context.Context, actorID string, input UpdateEntryInput) (*MutationResult, error) {
	result, err := uc.update(ctx, actorID, input)
	if err != nil {
		uc.opts.metrics.EntryErrors.WithLabelValues("update", classLabel(err)).Inc()
		return nil, err
	}
	uc.opts.metrics.EntryMutations.WithLabelValues("update", string(input.Scope)).Inc()
	return result, nil
}

func (uc *SeriesUseCase) update(ctx context.Context, actorID string, input UpdateEntryInput) (*MutationResult, error) {
	if input.Scope == "" {
		input.Scope = domain.ScopeOne
	}
	if input.Scope != domain.ScopeOne && input.Scope != domain.ScopeAll {
		return nil, domain.ErrInvalidScope
	}

	patch, err := input.Patch.Normalize()
	if err != nil {
		return nil, err
	}
	if patch.Description != nil {
		if err := domain.ValidateDescription(*patch.Description); err != nil {
			return nil, err
		}
	}
	if patch.Tags != nil {
		if err := domain.ValidateTags(*patch.Tags); err != nil {
			return nil, err
		}
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, translateStoreError(err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	target, err := uc.resolve(txCtx, tx, actorID, input.EntryID, input.Scope)
	if err != nil {
		return nil, translateStoreError(err)
	}

	if patch.PurchaseDate != nil && !target.account.IsCredit() {
		return nil, domain.ErrCardFieldsOnStandard
	}

	if patch.CategoryID != nil {
		category, err := uc.categoryRepo.GetByID(txCtx, tx, *patch.CategoryID)
		if err != nil {
			return nil, translateStoreError(err)
		}
		if !category.VisibleTo(actorID) {
			return nil, domain.ErrCategoryNotFound
		}
	}

	now := uc.opts.now()

	var result *MutationResult
	switch {
	case target.legs != nil:
		result, err = uc.updateTransfer(txCtx, tx, target, patch, now)
	case target.series != nil:
		result, err = uc.updateSeries(txCtx, tx, target, patch, now)
	default:
		result, err = uc.updateOne(txCtx, tx, target.entry, patch, now)
	}
	if err != nil {
		return nil, translateStoreError(err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, translateStoreError(err)
	}

	if !patch.AffectsBalance() {
		result.Affected = nil
	}

	uc.opts.logger.Debug().
		Str("entry_id", input.EntryID).
		Str("scope", string(input.Scope)).
		Int64("count", result.Count).
		Bool("affects_balance", patch.AffectsBalance()).
		Msg("transactions updated")

	return result, nil
}

func (uc *SeriesUseCase) updateOne(
	ctx context.Context,
	tx Transaction,
	entry *domain.Entry,
	patch domain.EntryPatch,
	now time.Time,
) (*MutationResult, error) {
	oldDate := entry.Date
	patch.Apply(entry, now)

	if err := uc.entryRepo.Update(ctx, tx, entry); err != nil {
		return nil, err
	}

	return &MutationResult{
		Entries:  []*domain.Entry{entry},
		Count:    1,
		Affected: []domain.AffectedRange{{AccountID: entry.AccountID, From: earliest(oldDate, entry.Date)}},
	}, nil
}

// updateTransfer mirrors the patch onto both legs so the pair keeps equal
// magnitude and opposite signs. Card-only fields land on card legs only.
func (uc *SeriesUseCase) updateTransfer(
	ctx context.Context,
	tx Transaction,
	target *mutationTarget,
	patch domain.EntryPatch,
	now time.Time,
) (*MutationResult, error) {
	result := &MutationResult{}
	for _, leg := range target.legs {
		legPatch := patch
		if leg.InvoiceMonth == "" {
			legPatch.PurchaseDate = nil
		}

		oldDate := leg.Date
		legPatch.Apply(leg, now)
		if err := uc.entryRepo.Update(ctx, tx, leg); err != nil {
			return nil, err
		}

		result.Entries = append(result.Entries, leg)
		result.Count++
		result.Affected = append(result.Affected, domain.AffectedRange{AccountID: leg.AccountID, From: earliest(oldDate, leg.Date)})
	}
	result.Affected = domain.MergeAffected(result.Affected...)
	return result, nil
}

// updateSeries applies the same patch to every member sharing the entry's
// recurrence id.
func (uc *SeriesUseCase) updateSeries(
	ctx context.Context,
	tx Transaction,
	target *mutationTarget,
	patch domain.EntryPatch,
	now time.Time,
) (*MutationResult, error) {
	group := target.series

	count, err := uc.entryRepo.UpdateByRecurrenceID(ctx, tx, group.ID, patch, now)
	if err != nil {
		return nil, err
	}

	members, err := uc.entryRepo.ListByRecurrenceID(ctx, tx, group.ID)
	if err != nil {
		return nil, err
	}

	result := &MutationResult{Entries: members, Count: count}
	for _, m := range group.Members {
		result.Affected = append(result.Affected, domain.AffectedRange{AccountID: m.AccountID, From: m.Date})
	}
	if patch.Date != nil {
		result.Affected = append(result.Affected, domain.AffectedRange{AccountID: target.entry.AccountID, From: *patch.Date})
	}
	result.Affected = domain.MergeAffected(result.Affected...)

	uc.opts.logger.Debug().
		Str("recurrence_id", group.ID).
		Str("kind", string(group.Kind)).
		Int64("count", count).
		Msg("series updated")

	return result, nil
}

// Delete removes one entry, both legs of a transfer, or every entry of the
// series when scope is ALL.
func (uc *SeriesUseCase) Delete(ctx context.Context, actorID string, input DeleteEntryInput) (*MutationResult, error) {
	result, err := uc.delete(ctx, actorID, input)
	if err != nil {
		uc.opts.metrics.EntryErrors.WithLabelValues("delete", classLabel(err)).Inc()
		return nil, err
	}
	uc.opts.metrics.EntryMutations.WithLabelValues("delete", string(input.Scope)).Inc()
	return result, nil
}

func (uc *SeriesUseCase) delete(ctx context.Context, actorID string, input DeleteEntryInput) (*MutationResult, error) {
	if input.Scope == "" {
		input.Scope = domain.ScopeOne
	}
	if input.Scope != domain.ScopeOne && input.Scope != domain.ScopeAll {
		return nil, domain.ErrInvalidScope
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, translateStoreError(err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	target, err := uc.resolve(txCtx, tx, actorID, input.EntryID, input.Scope)
	if err != nil {
		return nil, translateStoreError(err)
	}

	result := &MutationResult{}
	switch {
	case target.legs != nil:
		for _, leg := range target.legs {
			if err := uc.entryRepo.Delete(txCtx, tx, leg.ID); err != nil {
				return nil, translateStoreError(err)
			}
			result.Entries = append(result.Entries, leg)
			result.Count++
			result.Affected = append(result.Affected, domain.AffectedRange{AccountID: leg.AccountID, From: leg.Date})
		}
	case target.series != nil:
		count, err := uc.entryRepo.DeleteByRecurrenceID(txCtx, tx, target.series.ID)
		if err != nil {
			return nil, translateStoreError(err)
		}
		result.Entries = target.series.Members
		result.Count = count
		for _, m := range target.series.Members {
			result.Affected = append(result.Affected, domain.AffectedRange{AccountID: m.AccountID, From: m.Date})
		}
	default:
		if err := uc.entryRepo.Delete(txCtx, tx, target.entry.ID); err != nil {
			return nil, translateStoreError(err)
		}
		result.Entries = []*domain.Entry{target.entry}
		result.Count = 1
		result.Affected = []domain.AffectedRange{{AccountID: target.entry.AccountID, From: target.entry.Date}}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, translateStoreError(err)
	}

	result.Affected = domain.MergeAffected(result.Affected...)

	uc.opts.logger.Debug().
		Str("entry_id", input.EntryID).
		Str("scope", string(input.Scope)).
		Int64("count", result.Count).
		Msg("transactions deleted")

	return result, nil
}

func earliest(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}
