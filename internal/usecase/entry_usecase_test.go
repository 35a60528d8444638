package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
	"github.com/iho/walletledger/internal/usecase/mocks"
)

func TestEntryUseCase_Create_SingleEntry(t *testing.T) {
	l := newLedger(t)
	acc := l.standard(t, "100")

	res := l.create(t, usecase.CreateEntryInput{
		AccountID:   acc.ID,
		Description: "  groceries ",
		Amount:      dec("-50.25"),
		Date:        date(2024, 6, 1).Add(15 * time.Hour),
		Type:        domain.EntryTypeExpense,
		IsPaid:      true,
		Tags:        []string{"food", " food", ""},
	})

	require.Len(t, res.Entries, 1)
	e := res.Entries[0]
	assertDecimal(t, "-50.25", e.Amount)
	assert.Equal(t, "groceries", e.Description)
	assert.Equal(t, date(2024, 6, 1), e.Date)
	assert.Equal(t, []string{"food"}, e.Tags)
	assert.True(t, e.IsPaid)
	assert.Nil(t, e.Series)
	assert.Nil(t, e.PurchaseDate)
	assert.Equal(t, []domain.AffectedRange{{AccountID: acc.ID, From: date(2024, 6, 1)}}, res.Affected)

	balance, err := l.balanceUC.AccountBalance(context.Background(), owner, acc.ID)
	require.NoError(t, err)
	assertDecimal(t, "49.75", balance)
}

func TestEntryUseCase_Create_TransferPair(t *testing.T) {
	l := newLedger(t)
	src := l.standard(t, "1000")
	dst := l.standard(t, "0")

	res := l.create(t, usecase.CreateEntryInput{
		AccountID:            src.ID,
		DestinationAccountID: dst.ID,
		Description:          "savings",
		Amount:               dec("100"),
		Date:                 date(2024, 6, 1),
		Type:                 domain.EntryTypeTransfer,
		IsPaid:               true,
		TotalInstallments:    4,
		Recurrence:           &usecase.RecurrenceInput{Frequency: domain.FrequencyMonthly, Count: 3},
	})

	require.Len(t, res.Entries, 2)
	out, in := res.Entries[0], res.Entries[1]
	assert.Equal(t, src.ID, out.AccountID)
	assert.Equal(t, dst.ID, in.AccountID)
	assertDecimal(t, "-100", out.Amount)
	assertDecimal(t, "100", in.Amount)
	assert.NotEmpty(t, out.TransferID)
	assert.Equal(t, out.TransferID, in.TransferID)
	assert.Equal(t, domain.EntryTypeTransfer, out.Type)
	assert.Equal(t, domain.EntryTypeTransfer, in.Type)
	assert.Nil(t, out.Series)
	assert.Len(t, res.Affected, 2)

	ctx := context.Background()
	srcBalance, err := l.balanceUC.AccountBalance(ctx, owner, src.ID)
	require.NoError(t, err)
	dstBalance, err := l.balanceUC.AccountBalance(ctx, owner, dst.ID)
	require.NoError(t, err)
	assertDecimal(t, "900", srcBalance)
	assertDecimal(t, "100", dstBalance)
}

func TestEntryUseCase_Create_CardInvoiceBoundary(t *testing.T) {
	l := newLedger(t)
	card := l.card(t, 10, "5000")

	onClosing := l.create(t, usecase.CreateEntryInput{
		AccountID: card.ID, Amount: dec("10"), Date: date(2024, 3, 10),
		Type: domain.EntryTypeExpense, IsPaid: true,
	}).Entries[0]
	afterClosing := l.create(t, usecase.CreateEntryInput{
		AccountID: card.ID, Amount: dec("20"), Date: date(2024, 3, 11),
		Type: domain.EntryTypeExpense, IsPaid: true,
	}).Entries[0]

	assert.Equal(t, "2024-03", onClosing.InvoiceMonth)
	assert.Equal(t, "2024-04", afterClosing.InvoiceMonth)
	assert.False(t, onClosing.IsPaid)
	assert.False(t, afterClosing.IsPaid)
	require.NotNil(t, onClosing.PurchaseDate)
	assert.Equal(t, date(2024, 3, 10), *onClosing.PurchaseDate)
}

func TestEntryUseCase_Create_PaidTransferSettlesInvoice(t *testing.T) {
	l := newLedger(t)
	checking := l.standard(t, "1000")
	card := l.card(t, 10, "5000")

	l.create(t, usecase.CreateEntryInput{
		AccountID: card.ID, Amount: dec("10"), Date: date(2024, 3, 10), Type: domain.EntryTypeExpense,
	})
	l.create(t, usecase.CreateEntryInput{
		AccountID: card.ID, Amount: dec("20"), Date: date(2024, 3, 11), Type: domain.EntryTypeExpense,
	})

	res := l.create(t, usecase.CreateEntryInput{
		AccountID:            checking.ID,
		DestinationAccountID: card.ID,
		Amount:               dec("10"),
		Date:                 date(2024, 3, 5),
		Type:                 domain.EntryTypeTransfer,
		IsPaid:               true,
	})

	in := res.Entries[1]
	assert.Equal(t, "2024-03", in.InvoiceMonth)
	assert.True(t, in.IsPaid)
	require.Len(t, res.Settled, 1)
	assert.Equal(t, date(2024, 3, 10), res.Settled[0].Date)
	assert.Equal(t, []domain.AffectedRange{
		{AccountID: checking.ID, From: date(2024, 3, 5)},
		{AccountID: card.ID, From: date(2024, 3, 5)},
	}, res.Affected)

	limit, err := l.balanceUC.AvailableLimit(context.Background(), owner, card.ID)
	require.NoError(t, err)
	assertDecimal(t, "4980", limit)
}

func TestEntryUseCase_Create_UnpaidTransferIntoCardSettlesNothing(t *testing.T) {
	l := newLedger(t)
	checking := l.standard(t, "1000")
	card := l.card(t, 10, "5000")

	l.create(t, usecase.CreateEntryInput{
		AccountID: card.ID, Amount: dec("10"), Date: date(2024, 3, 1), Type: domain.EntryTypeExpense,
	})
	res := l.create(t, usecase.CreateEntryInput{
		AccountID: checking.ID, DestinationAccountID: card.ID, Amount: dec("10"),
		Date: date(2024, 3, 5), Type: domain.EntryTypeTransfer,
	})

	assert.Empty(t, res.Settled)
	assert.False(t, res.Entries[1].IsPaid)
}

func TestEntryUseCase_Create_TransferOutOfCardIsBilled(t *testing.T) {
	l := newLedger(t)
	checking := l.standard(t, "0")
	card := l.card(t, 10, "5000")

	res := l.create(t, usecase.CreateEntryInput{
		AccountID: card.ID, DestinationAccountID: checking.ID, Amount: dec("300"),
		Date: date(2024, 3, 20), Type: domain.EntryTypeTransfer, IsPaid: true,
	})

	out := res.Entries[0]
	assert.False(t, out.IsPaid)
	assert.Equal(t, "2024-04", out.InvoiceMonth)
	assertDecimal(t, "-300", out.Amount)
}

func TestEntryUseCase_Create_CardInstallments(t *testing.T) {
	l := newLedger(t)
	card := l.card(t, 10, "5000")

	res := l.create(t, usecase.CreateEntryInput{
		AccountID:         card.ID,
		Description:       "laptop",
		Amount:            dec("1000"),
		Date:              date(2024, 1, 15),
		Type:              domain.EntryTypeExpense,
		IsPaid:            true,
		TotalInstallments: 3,
	})

	require.Len(t, res.Entries, 3)
	wantAmounts := []string{"-333.33", "-333.33", "-333.34"}
	wantDates := []string{"2024-01-15", "2024-02-15", "2024-03-15"}
	wantInvoices := []string{"2024-02", "2024-03", "2024-04"}

	seriesID := res.Entries[0].RecurrenceID()
	require.NotEmpty(t, seriesID)
	for i, e := range res.Entries {
		assertDecimal(t, wantAmounts[i], e.Amount)
		assert.Equal(t, wantDates[i], e.Date.Format("2006-01-02"))
		assert.Equal(t, wantInvoices[i], e.InvoiceMonth)
		assert.False(t, e.IsPaid)
		require.NotNil(t, e.PurchaseDate)
		assert.Equal(t, date(2024, 1, 15), *e.PurchaseDate)
		require.NotNil(t, e.Series)
		assert.Equal(t, seriesID, e.Series.ID)
		assert.Equal(t, domain.SeriesInstallment, e.Series.Kind)
		assert.Equal(t, i+1, e.Series.Position)
		assert.Equal(t, 3, e.Series.Size)
	}

	limit, err := l.balanceUC.AvailableLimit(context.Background(), owner, card.ID)
	require.NoError(t, err)
	assertDecimal(t, "4000", limit)
}

func TestEntryUseCase_Create_StandardInstallmentsPayFirstOnly(t *testing.T) {
	l := newLedger(t)
	acc := l.standard(t, "0")

	res := l.create(t, usecase.CreateEntryInput{
		AccountID: acc.ID, Amount: dec("100"), Date: date(2024, 1, 1),
		Type: domain.EntryTypeIncome, IsPaid: true, TotalInstallments: 4,
	})

	require.Len(t, res.Entries, 4)
	assert.True(t, res.Entries[0].IsPaid)
	for _, e := range res.Entries[1:] {
		assert.False(t, e.IsPaid)
		assertDecimal(t, "25", e.Amount)
		assert.Empty(t, e.InvoiceMonth)
	}
}

func TestEntryUseCase_Create_MonthlyRecurrence(t *testing.T) {
	l := newLedger(t)
	acc := l.standard(t, "0")

	res := l.create(t, usecase.CreateEntryInput{
		AccountID:  acc.ID,
		Amount:     dec("1500"),
		Date:       date(2024, 1, 10),
		Type:       domain.EntryTypeExpense,
		IsPaid:     true,
		Recurrence: &usecase.RecurrenceInput{Frequency: domain.FrequencyMonthly, Count: 3},
	})

	require.Len(t, res.Entries, 3)
	for i, e := range res.Entries {
		assert.Equal(t, date(2024, 1+time.Month(i), 10), e.Date)
		assertDecimal(t, "-1500", e.Amount)
		assert.Equal(t, i == 0, e.IsPaid)
		assert.Equal(t, domain.SeriesRecurrence, e.Series.Kind)
		assert.Equal(t, domain.FrequencyMonthly, e.Series.Frequency)
		assert.Equal(t, i+1, e.Series.Position)
		assert.Equal(t, 3, e.Series.Size)
	}
}

func TestEntryUseCase_Create_RecurrenceCadences(t *testing.T) {
	tests := []struct {
		name       string
		start      time.Time
		recurrence usecase.RecurrenceInput
		wantDates  []time.Time
	}{
		{
			name:       "weekly",
			start:      date(2024, 2, 26),
			recurrence: usecase.RecurrenceInput{Frequency: domain.FrequencyWeekly, Count: 2},
			wantDates:  []time.Time{date(2024, 2, 26), date(2024, 3, 4)},
		},
		{
			name:       "custom interval",
			start:      date(2024, 1, 1),
			recurrence: usecase.RecurrenceInput{Frequency: domain.FrequencyCustom, IntervalDays: 10, Count: 3},
			wantDates:  []time.Time{date(2024, 1, 1), date(2024, 1, 11), date(2024, 1, 21)},
		},
		{
			name:       "yearly from leap day",
			start:      date(2024, 2, 29),
			recurrence: usecase.RecurrenceInput{Frequency: domain.FrequencyYearly, Count: 2},
			wantDates:  []time.Time{date(2024, 2, 29), date(2025, 3, 1)},
		},
		{
			name:       "monthly from the 31st",
			start:      date(2024, 1, 31),
			recurrence: usecase.RecurrenceInput{Frequency: domain.FrequencyMonthly, Count: 2},
			wantDates:  []time.Time{date(2024, 1, 31), date(2024, 3, 2)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger(t)
			acc := l.standard(t, "0")
			rec := tt.recurrence
			res := l.create(t, usecase.CreateEntryInput{
				AccountID: acc.ID, Amount: dec("1"), Date: tt.start,
				Type: domain.EntryTypeIncome, Recurrence: &rec,
			})

			require.Len(t, res.Entries, len(tt.wantDates))
			for i, e := range res.Entries {
				assert.Equal(t, tt.wantDates[i], e.Date)
			}
		})
	}
}

func TestEntryUseCase_Create_ForeverRecurrenceIsCapped(t *testing.T) {
	l := newLedger(t)
	acc := l.standard(t, "0")

	res := l.create(t, usecase.CreateEntryInput{
		AccountID: acc.ID, Amount: dec("9.99"), Date: date(2024, 1, 1), Type: domain.EntryTypeExpense,
		Recurrence: &usecase.RecurrenceInput{Frequency: domain.FrequencyWeekly, Forever: true},
	})

	assert.Len(t, res.Entries, usecase.MaxRecurrenceOccurrences)
}

func TestEntryUseCase_Create_Rejects(t *testing.T) {
	l := newLedger(t)
	acc := l.standard(t, "0")
	other := l.standard(t, "0")
	card := l.card(t, 5, "100")

	base := func() usecase.CreateEntryInput {
		return usecase.CreateEntryInput{
			AccountID: acc.ID, Amount: dec("10"), Date: date(2024, 1, 1), Type: domain.EntryTypeExpense,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*usecase.CreateEntryInput)
		wantErr error
	}{
		{"zero amount", func(in *usecase.CreateEntryInput) { in.Amount = dec("0") }, domain.ErrInvalidAmount},
		{"sub-cent amount", func(in *usecase.CreateEntryInput) { in.Amount = dec("0.001") }, domain.ErrInvalidAmount},
		{"unknown type", func(in *usecase.CreateEntryInput) { in.Type = "REFUND" }, domain.ErrInvalidEntryType},
		{"missing date", func(in *usecase.CreateEntryInput) { in.Date = time.Time{} }, domain.ErrInvalidDate},
		{"date before 1900", func(in *usecase.CreateEntryInput) { in.Date = date(1, 1, 2) }, domain.ErrDateOutOfRange},
		{"transfer without destination", func(in *usecase.CreateEntryInput) { in.Type = domain.EntryTypeTransfer }, domain.ErrMissingDestination},
		{"transfer to itself", func(in *usecase.CreateEntryInput) {
			in.Type = domain.EntryTypeTransfer
			in.DestinationAccountID = acc.ID
		}, domain.ErrSameAccount},
		{"destination on expense", func(in *usecase.CreateEntryInput) { in.DestinationAccountID = other.ID }, domain.ErrUnexpectedDest},
		{"negative installments", func(in *usecase.CreateEntryInput) { in.TotalInstallments = -1 }, domain.ErrInvalidInstallments},
		{"too many installments", func(in *usecase.CreateEntryInput) { in.TotalInstallments = usecase.MaxInstallments + 1 }, domain.ErrInvalidInstallments},
		{"recurrence without count", func(in *usecase.CreateEntryInput) {
			in.Recurrence = &usecase.RecurrenceInput{Frequency: domain.FrequencyMonthly}
		}, domain.ErrInvalidRecurrence},
		{"custom recurrence without interval", func(in *usecase.CreateEntryInput) {
			in.Recurrence = &usecase.RecurrenceInput{Frequency: domain.FrequencyCustom, Count: 2}
		}, domain.ErrInvalidRecurrence},
		{"recurrence on credit card", func(in *usecase.CreateEntryInput) {
			in.AccountID = card.ID
			in.Recurrence = &usecase.RecurrenceInput{Frequency: domain.FrequencyMonthly, Count: 2}
		}, domain.ErrRecurrenceOnCredit},
		{"unknown account", func(in *usecase.CreateEntryInput) { in.AccountID = "missing" }, domain.ErrAccountNotFound},
		{"unknown destination", func(in *usecase.CreateEntryInput) {
			in.Type = domain.EntryTypeTransfer
			in.DestinationAccountID = "missing"
		}, domain.ErrAccountNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := base()
			tt.mutate(&input)
			_, err := l.entryUC.Create(context.Background(), owner, input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	page, err := l.entryUC.ListEntries(context.Background(), owner, usecase.ListEntriesInput{AccountID: acc.ID})
	require.NoError(t, err)
	assert.Empty(t, page.Entries)
}

func TestEntryUseCase_Create_AccessControl(t *testing.T) {
	l := newLedger(t)
	acc := l.standard(t, "0")
	ctx := context.Background()
	input := usecase.CreateEntryInput{
		AccountID: acc.ID, Amount: dec("1"), Date: date(2024, 1, 1), Type: domain.EntryTypeIncome,
	}

	_, err := l.entryUC.Create(ctx, "stranger", input)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	require.NoError(t, l.accountUC.ShareAccount(ctx, owner, acc.ID, "viewer", domain.AccessRead))
	_, err = l.entryUC.Create(ctx, "viewer", input)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	require.NoError(t, l.accountUC.ShareAccount(ctx, owner, acc.ID, "editor", domain.AccessWrite))
	_, err = l.entryUC.Create(ctx, "editor", input)
	assert.NoError(t, err)
}

func TestEntryUseCase_Create_Category(t *testing.T) {
	l := newLedger(t)
	acc := l.standard(t, "0")
	someoneElse := "user-2"
	mine := owner
	l.store.AddCategory(domain.Category{ID: "food", Name: "Food"})
	l.store.AddCategory(domain.Category{ID: "theirs", Name: "Hobby", OwnerID: &someoneElse})
	l.store.AddCategory(domain.Category{ID: "mine", Name: "Pets", OwnerID: &mine})

	for _, id := range []string{"food", "mine"} {
		categoryID := id
		res := l.create(t, usecase.CreateEntryInput{
			AccountID: acc.ID, CategoryID: &categoryID, Amount: dec("1"), Date: date(2024, 1, 1), Type: domain.EntryTypeExpense,
		})
		assert.Equal(t, id, *res.Entries[0].CategoryID)
	}

	for _, id := range []string{"theirs", "missing"} {
		categoryID := id
		_, err := l.entryUC.Create(context.Background(), owner, usecase.CreateEntryInput{
			AccountID: acc.ID, CategoryID: &categoryID, Amount: dec("1"), Date: date(2024, 1, 1), Type: domain.EntryTypeExpense,
		})
		assert.ErrorIs(t, err, domain.ErrCategoryNotFound, id)
	}
}

func TestEntryUseCase_ListEntries_Pages(t *testing.T) {
	l := newLedger(t)
	acc := l.standard(t, "0")
	ctx := context.Background()

	for day := 1; day <= 5; day++ {
		l.create(t, usecase.CreateEntryInput{
			AccountID: acc.ID, Description: "coffee", Amount: dec("3"), Date: date(2024, 1, day), Type: domain.EntryTypeExpense,
		})
	}
	l.create(t, usecase.CreateEntryInput{
		AccountID: acc.ID, Description: "salary", Amount: dec("3000"), Date: date(2024, 1, 3), Type: domain.EntryTypeIncome,
	})

	var seen []time.Time
	cursor := ""
	for pages := 0; ; pages++ {
		require.Less(t, pages, 5)
		page, err := l.entryUC.ListEntries(ctx, owner, usecase.ListEntriesInput{
			AccountID: acc.ID, Text: "COFFEE", Cursor: cursor, Limit: 2,
		})
		require.NoError(t, err)
		for _, e := range page.Entries {
			seen = append(seen, e.Date)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	assert.Equal(t, []time.Time{
		date(2024, 1, 5), date(2024, 1, 4), date(2024, 1, 3), date(2024, 1, 2), date(2024, 1, 1),
	}, seen)

	income := domain.EntryTypeIncome
	page, err := l.entryUC.ListEntries(ctx, owner, usecase.ListEntriesInput{AccountID: acc.ID, Type: &income})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Empty(t, page.NextCursor)

	from, to := date(2024, 1, 2), date(2024, 1, 3)
	page, err = l.entryUC.ListEntries(ctx, owner, usecase.ListEntriesInput{AccountID: acc.ID, From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, page.Entries, 3)

	_, err = l.entryUC.ListEntries(ctx, owner, usecase.ListEntriesInput{AccountID: acc.ID, From: &to, To: &from})
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)

	_, err = l.entryUC.ListEntries(ctx, owner, usecase.ListEntriesInput{AccountID: acc.ID, Cursor: "%%%"})
	assert.ErrorIs(t, err, domain.ErrInvalidCursor)

	_, err = l.entryUC.ListEntries(ctx, "stranger", usecase.ListEntriesInput{AccountID: acc.ID})
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}

func TestEntryUseCase_GetEntry(t *testing.T) {
	l := newLedger(t)
	acc := l.standard(t, "0")
	created := l.create(t, usecase.CreateEntryInput{
		AccountID: acc.ID, Amount: dec("1"), Date: date(2024, 1, 1), Type: domain.EntryTypeIncome,
	}).Entries[0]

	got, err := l.entryUC.GetEntry(context.Background(), owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = l.entryUC.GetEntry(context.Background(), "stranger", created.ID)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = l.entryUC.GetEntry(context.Background(), owner, "missing")
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestEntryUseCase_Create_StoreFailures(t *testing.T) {
	account := &domain.Account{ID: "acc", OwnerID: owner, Type: domain.AccountTypeStandard}
	input := usecase.CreateEntryInput{
		AccountID: "acc", Amount: dec("5"), Date: date(2024, 1, 1), Type: domain.EntryTypeExpense,
	}

	tests := []struct {
		name       string
		setupMocks func(*mocks.MockTransactionManager, *mocks.MockTransaction, *mocks.MockAccountRepository, *mocks.MockEntryRepository)
		wantErr    error
	}{
		{
			name: "begin fails",
			setupMocks: func(txm *mocks.MockTransactionManager, _ *mocks.MockTransaction, _ *mocks.MockAccountRepository, _ *mocks.MockEntryRepository) {
				txm.EXPECT().Begin(gomock.Any()).Return(nil, errors.New("connection refused"))
			},
			wantErr: domain.ErrInternal,
		},
		{
			name: "account foreign key violated",
			setupMocks: func(txm *mocks.MockTransactionManager, tx *mocks.MockTransaction, accounts *mocks.MockAccountRepository, entries *mocks.MockEntryRepository) {
				txm.EXPECT().Begin(gomock.Any()).Return(tx, nil)
				tx.EXPECT().Rollback(gomock.Any()).Return(nil)
				accounts.EXPECT().GetForActor(gomock.Any(), tx, owner, "acc", domain.AccessWrite).Return(account, nil)
				entries.EXPECT().Create(gomock.Any(), tx, gomock.Any()).Return(&domain.ConstraintError{
					Kind:       domain.ConstraintForeignKey,
					Constraint: "transactions_account_id_fkey",
					Table:      "transactions",
				})
			},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name: "commit fails",
			setupMocks: func(txm *mocks.MockTransactionManager, tx *mocks.MockTransaction, accounts *mocks.MockAccountRepository, entries *mocks.MockEntryRepository) {
				txm.EXPECT().Begin(gomock.Any()).Return(tx, nil)
				tx.EXPECT().Rollback(gomock.Any()).Return(nil)
				accounts.EXPECT().GetForActor(gomock.Any(), tx, owner, "acc", domain.AccessWrite).Return(account, nil)
				entries.EXPECT().Create(gomock.Any(), tx, gomock.Any()).Return(nil)
				tx.EXPECT().Commit(gomock.Any()).Return(errors.New("serialization failure"))
			},
			wantErr: domain.ErrInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			txm := mocks.NewMockTransactionManager(ctrl)
			tx := mocks.NewMockTransaction(ctrl)
			accounts := mocks.NewMockAccountRepository(ctrl)
			categories := mocks.NewMockCategoryRepository(ctrl)
			entries := mocks.NewMockEntryRepository(ctrl)
			ids := mocks.NewMockIDGenerator(ctrl)
			ids.EXPECT().Generate().Return("e1").AnyTimes()

			tt.setupMocks(txm, tx, accounts, entries)

			uc := usecase.NewEntryUseCase(txm, accounts, categories, entries, ids)
			_, err := uc.Create(context.Background(), owner, input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
