package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

func TestBalanceUseCase_AccountBalance(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	acc := l.standard(t, "100.50")

	for _, in := range []usecase.CreateEntryInput{
		{Amount: dec("20"), Type: domain.EntryTypeIncome, IsPaid: true},
		{Amount: dec("5.25"), Type: domain.EntryTypeExpense, IsPaid: true},
		{Amount: dec("1000"), Type: domain.EntryTypeExpense},
	} {
		in.AccountID = acc.ID
		in.Date = date(2024, 3, 1)
		l.create(t, in)
	}

	balance, err := l.balanceUC.AccountBalance(ctx, owner, acc.ID)
	require.NoError(t, err)
	assertDecimal(t, "115.25", balance)

	_, err = l.balanceUC.AccountBalance(ctx, "stranger", acc.ID)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = l.balanceUC.AvailableLimit(ctx, owner, acc.ID)
	assert.ErrorIs(t, err, domain.ErrNotCreditAccount)
}

func TestBalanceUseCase_AvailableLimit(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	card := l.card(t, 10, "1000")

	l.create(t, usecase.CreateEntryInput{
		AccountID: card.ID, Amount: dec("300"), Date: date(2024, 3, 1), Type: domain.EntryTypeExpense,
	})
	l.create(t, usecase.CreateEntryInput{
		AccountID: card.ID, Amount: dec("50"), Date: date(2024, 3, 2), Type: domain.EntryTypeIncome,
	})

	limit, err := l.balanceUC.AvailableLimit(ctx, owner, card.ID)
	require.NoError(t, err)
	assertDecimal(t, "700", limit)

	l.create(t, usecase.CreateEntryInput{
		AccountID: card.ID, Amount: dec("900"), Date: date(2024, 3, 3), Type: domain.EntryTypeExpense,
	})
	limit, err = l.balanceUC.AvailableLimit(ctx, owner, card.ID)
	require.NoError(t, err)
	assertDecimal(t, "0", limit)

	balance, err := l.balanceUC.AccountBalance(ctx, owner, card.ID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestBalanceUseCase_ListAccounts(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	acc := l.standard(t, "10")
	card := l.card(t, 10, "500")
	require.NoError(t, l.accountUC.ShareAccount(ctx, owner, acc.ID, "viewer", domain.AccessRead))

	summaries, err := l.balanceUC.ListAccounts(ctx, owner)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byID := map[string]usecase.AccountSummary{}
	for _, s := range summaries {
		byID[s.Account.ID] = s
	}
	assertDecimal(t, "10", byID[acc.ID].Balance)
	assert.Nil(t, byID[acc.ID].AvailableLimit)
	require.NotNil(t, byID[card.ID].AvailableLimit)
	assertDecimal(t, "500", *byID[card.ID].AvailableLimit)

	shared, err := l.balanceUC.ListAccounts(ctx, "viewer")
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, acc.ID, shared[0].Account.ID)
}
