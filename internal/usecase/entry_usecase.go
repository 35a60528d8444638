package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

// EntryUseCase turns creation requests into persisted ledger entries and
// serves entry listings.
type EntryUseCase struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	categoryRepo CategoryRepository
	entryRepo    EntryRepository
	idGen        IDGenerator
	opts         options
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	categoryRepo CategoryRepository,
	entryRepo EntryRepository,
	idGen IDGenerator,
	opts ...Option,
) *EntryUseCase {
	return &EntryUseCase{
		txManager:    txManager,
		accountRepo:  accountRepo,
		categoryRepo: categoryRepo,
		entryRepo:    entryRepo,
		idGen:        idGen,
		opts:         newOptions(opts),
	}
}

// RecurrenceInput describes a recurring series request.
type RecurrenceInput struct {
	Frequency    domain.Frequency
	IntervalDays int
	Count        int
	Forever      bool
}

// CreateEntryInput represents a single creation request. Amount is a
// magnitude; its sign is decided by Type.
type CreateEntryInput struct {
	AccountID            string
	DestinationAccountID string
	CategoryID           *string
	Description          string
	Amount               decimal.Decimal
	Date                 time.Time
	Type                 domain.EntryType
	IsPaid               bool
	Tags                 []string
	TotalInstallments    int
	Recurrence           *RecurrenceInput
}

// CreateEntryResult carries what was written and which running balances the
// caller must rebuild after commit.
type CreateEntryResult struct {
	Entries  []*domain.Entry
	Settled  []*domain.Entry
	Affected []domain.AffectedRange
}

func (in *CreateEntryInput) normalize() error {
	if !in.Type.IsValid() {
		return domain.ErrInvalidEntryType
	}
	if err := domain.ValidateEntryDate(in.Date); err != nil {
		return err
	}
	in.Amount = in.Amount.Abs()
	if err := domain.ValidateAmount(in.Amount); err != nil {
		return err
	}
	if err := domain.ValidateDescription(in.Description); err != nil {
		return err
	}
	in.Tags = domain.NormalizeTags(in.Tags)
	if err := domain.ValidateTags(in.Tags); err != nil {
		return err
	}
	in.Date = domain.Day(in.Date)

	if in.Type == domain.EntryTypeTransfer {
		if in.DestinationAccountID == "" {
			return domain.ErrMissingDestination
		}
		if in.DestinationAccountID == in.AccountID {
			return domain.ErrSameAccount
		}
		return nil
	}
	if in.DestinationAccountID != "" {
		return domain.ErrUnexpectedDest
	}
	return nil
}

// Create materializes one request into one or many entries inside a single
// transaction: a transfer pair, a recurring series, one entry, or an
// installment plan, in that order of precedence.
func (uc *EntryUseCase) Create(ctx context.Context, actorID string, input CreateEntryInput) (*CreateEntryResult, error) {
	start := uc.opts.now()
	result, err := uc.create(ctx, actorID, input)
	if err != nil {
		uc.opts.metrics.EntryErrors.WithLabelValues("create", classLabel(err)).Inc()
		return nil, err
	}

	for _, e := range result.Entries {
		uc.opts.metrics.EntriesCreated.WithLabelValues(string(e.Type)).Inc()
	}
	uc.opts.metrics.CreateDuration.Observe(uc.opts.now().Sub(start).Seconds())

	return result, nil
}

func (uc *EntryUseCase) create(ctx context.Context, actorID string, input CreateEntryInput) (*CreateEntryResult, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, translateStoreError(err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := uc.accountRepo.GetForActor(txCtx, tx, actorID, input.AccountID, domain.AccessWrite)
	if err != nil {
		return nil, translateStoreError(err)
	}

	if input.CategoryID != nil {
		if err := uc.checkCategory(txCtx, tx, actorID, *input.CategoryID); err != nil {
			return nil, err
		}
	}

	now := uc.opts.now()

	var result *CreateEntryResult
	switch {
	case input.Type == domain.EntryTypeTransfer:
		result, err = uc.createTransfer(txCtx, tx, actorID, account, input, now)
	case input.Recurrence != nil:
		result, err = uc.createRecurring(txCtx, tx, account, input, now)
	default:
		result, err = uc.createInstallments(txCtx, tx, account, input, now)
	}
	if err != nil {
		return nil, translateStoreError(err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, translateStoreError(err)
	}

	uc.opts.logger.Debug().
		Str("account_id", account.ID).
		Str("type", string(input.Type)).
		Int("entries", len(result.Entries)).
		Int("settled", len(result.Settled)).
		Msg("transactions created")

	return result, nil
}

func (uc *EntryUseCase) checkCategory(ctx context.Context, tx Transaction, actorID, categoryID string) error {
	category, err := uc.categoryRepo.GetByID(ctx, tx, categoryID)
	if err != nil {
		return translateStoreError(err)
	}
	if !category.VisibleTo(actorID) {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func (uc *EntryUseCase) newEntry(account *domain.Account, input CreateEntryInput, amount decimal.Decimal, date, now time.Time) *domain.Entry {
	var categoryID *string
	if input.CategoryID != nil {
		id := *input.CategoryID
		categoryID = &id
	}

	return &domain.Entry{
		ID:          uc.idGen.Generate(),
		AccountID:   account.ID,
		CategoryID:  categoryID,
		Description: strings.TrimSpace(input.Description),
		Amount:      amount,
		Date:        date,
		Type:        input.Type,
		IsPaid:      input.IsPaid,
		Tags:        append([]string(nil), input.Tags...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (uc *EntryUseCase) createRecurring(
	ctx context.Context,
	tx Transaction,
	account *domain.Account,
	input CreateEntryInput,
	now time.Time,
) (*CreateEntryResult, error) {
	if account.IsCredit() {
		return nil, domain.ErrRecurrenceOnCredit
	}

	rec := input.Recurrence
	count := rec.Count
	if rec.Forever {
		count = MaxRecurrenceOccurrences
	}
	if count < 1 || count > MaxRecurrenceOccurrences {
		return nil, domain.ErrInvalidRecurrence
	}

	unit, step, ok := rec.Frequency.Step(rec.IntervalDays)
	if !ok {
		return nil, domain.ErrInvalidRecurrence
	}

	intervalDays := 0
	if rec.Frequency == domain.FrequencyCustom {
		intervalDays = rec.IntervalDays
	}

	recurrenceID := uc.idGen.Generate()
	amount := input.Type.SignedAmount(input.Amount, decimal.Zero)

	entries := make([]*domain.Entry, 0, count)
	for i := 0; i < count; i++ {
		e := uc.newEntry(account, input, amount, domain.StepDate(input.Date, unit, step*i), now)
		e.IsPaid = i == 0 && input.IsPaid
		e.Series = &domain.Series{
			ID:           recurrenceID,
			Kind:         domain.SeriesRecurrence,
			Position:     i + 1,
			Size:         count,
			Frequency:    rec.Frequency,
			IntervalDays: intervalDays,
		}
		entries = append(entries, e)
	}

	if err := uc.entryRepo.CreateMany(ctx, tx, entries); err != nil {
		return nil, err
	}

	return &CreateEntryResult{
		Entries:  entries,
		Affected: []domain.AffectedRange{{AccountID: account.ID, From: input.Date}},
	}, nil
}

func (uc *EntryUseCase) createInstallments(
	ctx context.Context,
	tx Transaction,
	account *domain.Account,
	input CreateEntryInput,
	now time.Time,
) (*CreateEntryResult, error) {
	n := input.TotalInstallments
	if n == 0 {
		n = 1
	}
	if n < 1 || n > MaxInstallments {
		return nil, domain.ErrInvalidInstallments
	}

	var card *domain.CreditCardInfo
	if account.IsCredit() {
		c, err := account.Card()
		if err != nil {
			return nil, err
		}
		card = c
	}

	affected := []domain.AffectedRange{{AccountID: account.ID, From: input.Date}}

	if n == 1 {
		e := uc.newEntry(account, input, input.Type.SignedAmount(input.Amount, decimal.Zero), input.Date, now)
		if card != nil {
			stampPurchase(e, input.Date, domain.ComputeInvoiceMonth(input.Date, card.ClosingDay))
		}
		if err := uc.entryRepo.Create(ctx, tx, e); err != nil {
			return nil, err
		}
		return &CreateEntryResult{Entries: []*domain.Entry{e}, Affected: affected}, nil
	}

	shares, err := domain.SplitAmount(input.Amount, n)
	if err != nil {
		return nil, err
	}

	var firstInvoice string
	if card != nil {
		firstInvoice = domain.ComputeInvoiceMonth(input.Date, card.ClosingDay)
	}

	recurrenceID := uc.idGen.Generate()
	entries := make([]*domain.Entry, 0, n)
	for i, share := range shares {
		date := domain.StepDate(input.Date, domain.StepMonths, i)
		e := uc.newEntry(account, input, input.Type.SignedAmount(share, decimal.Zero), date, now)
		e.IsPaid = i == 0 && input.IsPaid
		e.Series = &domain.Series{
			ID:       recurrenceID,
			Kind:     domain.SeriesInstallment,
			Position: i + 1,
			Size:     n,
		}
		if card != nil {
			invoice, err := domain.ShiftInvoiceMonth(firstInvoice, i)
			if err != nil {
				return nil, err
			}
			stampPurchase(e, input.Date, invoice)
		}
		entries = append(entries, e)
	}

	if err := uc.entryRepo.CreateMany(ctx, tx, entries); err != nil {
		return nil, err
	}

	return &CreateEntryResult{Entries: entries, Affected: affected}, nil
}

// stampPurchase marks an entry as a credit card purchase. Card purchases are
// settled by paying the invoice, never at creation.
func stampPurchase(e *domain.Entry, purchaseDate time.Time, invoiceMonth string) {
	d := purchaseDate
	e.PurchaseDate = &d
	e.InvoiceMonth = invoiceMonth
	e.IsPaid = false
}

// ListEntriesInput represents input for listing an account's entries.
type ListEntriesInput struct {
	AccountID string
	From      *time.Time
	To        *time.Time
	Type      *domain.EntryType
	Text      string
	Cursor    string
	Limit     int
}

// EntryPage is one page of entries plus the cursor of the next page, empty
// when there is none.
type EntryPage struct {
	Entries    []*domain.Entry
	NextCursor string
}

// ListEntries lists entries of an account the actor can read, newest first.
func (uc *EntryUseCase) ListEntries(ctx context.Context, actorID string, input ListEntriesInput) (*EntryPage, error) {
	if _, err := uc.accountRepo.GetForActor(ctx, nil, actorID, input.AccountID, domain.AccessRead); err != nil {
		return nil, translateStoreError(err)
	}

	filter := domain.EntryFilter{
		AccountID: input.AccountID,
		Type:      input.Type,
		Text:      strings.TrimSpace(input.Text),
		Limit:     domain.ValidatePageSize(input.Limit),
	}
	if input.Type != nil && !input.Type.IsValid() {
		return nil, domain.ErrInvalidEntryType
	}
	if input.From != nil {
		from := domain.Day(*input.From)
		filter.From = &from
	}
	if input.To != nil {
		to := domain.Day(*input.To)
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, domain.ErrInvalidDateRange
	}
	if input.Cursor != "" {
		cursor, err := DecodeCursor(input.Cursor)
		if err != nil {
			return nil, err
		}
		filter.After = cursor
	}

	limit := filter.Limit
	filter.Limit = limit + 1

	entries, err := uc.entryRepo.Query(ctx, nil, filter)
	if err != nil {
		return nil, translateStoreError(err)
	}

	page := &EntryPage{Entries: entries}
	if len(entries) > limit {
		page.Entries = entries[:limit]
		last := page.Entries[limit-1]
		page.NextCursor = EncodeCursor(domain.EntryCursor{Date: last.Date, ID: last.ID})
	}

	return page, nil
}

// GetEntry returns one entry the actor can read.
func (uc *EntryUseCase) GetEntry(ctx context.Context, actorID, entryID string) (*domain.Entry, error) {
	entry, err := uc.entryRepo.GetByID(ctx, nil, entryID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	if _, err := uc.accountRepo.GetForActor(ctx, nil, actorID, entry.AccountID, domain.AccessRead); err != nil {
		return nil, translateStoreError(err)
	}
	return entry, nil
}

func classLabel(err error) string {
	switch domain.Classify(err) {
	case domain.ErrNotFound:
		return "not_found"
	case domain.ErrForbidden:
		return "forbidden"
	case domain.ErrValidation:
		return "validation"
	case domain.ErrConflict:
		return "conflict"
	default:
		return "internal"
	}
}
