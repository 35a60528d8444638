package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryType_SignedAmount(t *testing.T) {
	ten := decimal.NewFromInt(10)

	assert.True(t, EntryTypeIncome.SignedAmount(ten.Neg(), decimal.Zero).Equal(ten))
	assert.True(t, EntryTypeExpense.SignedAmount(ten, decimal.Zero).Equal(ten.Neg()))
	assert.True(t, EntryTypeTransfer.SignedAmount(ten, decimal.NewFromInt(-1)).Equal(ten.Neg()))
	assert.True(t, EntryTypeTransfer.SignedAmount(ten, decimal.NewFromInt(1)).Equal(ten))
}

func TestFrequency_Step(t *testing.T) {
	unit, n, ok := FrequencyWeekly.Step(0)
	assert.True(t, ok)
	assert.Equal(t, StepDays, unit)
	assert.Equal(t, 7, n)

	unit, n, ok = FrequencyCustom.Step(10)
	assert.True(t, ok)
	assert.Equal(t, StepDays, unit)
	assert.Equal(t, 10, n)

	_, _, ok = FrequencyCustom.Step(0)
	assert.False(t, ok)

	_, _, ok = Frequency("DAILY").Step(0)
	assert.False(t, ok)
}

func TestEntryPatch_Normalize(t *testing.T) {
	_, err := EntryPatch{}.Normalize()
	assert.ErrorIs(t, err, ErrEmptyPatch)

	zero := decimal.Zero
	_, err = EntryPatch{Amount: &zero}.Normalize()
	assert.ErrorIs(t, err, ErrInvalidAmount)

	ancient := date(1, 1, 2)
	_, err = EntryPatch{Date: &ancient}.Normalize()
	assert.ErrorIs(t, err, ErrDateOutOfRange)

	var missing time.Time
	_, err = EntryPatch{Date: &missing}.Normalize()
	assert.ErrorIs(t, err, ErrInvalidDate)

	neg := decimal.RequireFromString("-12.50")
	when := time.Date(2024, 4, 2, 15, 4, 5, 0, time.UTC)
	tags := []string{" food ", "", "food", "rent"}
	p, err := EntryPatch{Amount: &neg, Date: &when, Tags: &tags}.Normalize()
	require.NoError(t, err)
	assert.True(t, p.Amount.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, date(2024, 4, 2), *p.Date)
	assert.Equal(t, []string{"food", "rent"}, *p.Tags)
}

func TestEntryPatch_AffectsBalance(t *testing.T) {
	desc := "coffee"
	paid := true
	assert.False(t, EntryPatch{Description: &desc}.AffectsBalance())
	assert.True(t, EntryPatch{IsPaid: &paid}.AffectsBalance())
}

func TestEntryPatch_Apply(t *testing.T) {
	now := date(2024, 6, 1)
	amount := decimal.NewFromInt(30)
	cat := "cat-1"

	expense := &Entry{Type: EntryTypeExpense, Amount: decimal.NewFromInt(-10), InvoiceMonth: "2024-05"}
	EntryPatch{Amount: &amount, CategoryID: &cat}.Apply(expense, now)
	assert.True(t, expense.Amount.Equal(decimal.NewFromInt(-30)))
	assert.Equal(t, "cat-1", *expense.CategoryID)
	assert.Equal(t, "2024-05", expense.InvoiceMonth)
	assert.Equal(t, now, expense.UpdatedAt)

	source := &Entry{Type: EntryTypeTransfer, Amount: decimal.NewFromInt(-10)}
	EntryPatch{Amount: &amount}.Apply(source, now)
	assert.True(t, source.Amount.Equal(decimal.NewFromInt(-30)))
}

func TestEntryFilter_Matches(t *testing.T) {
	e := &Entry{ID: "b", AccountID: "acc", Date: date(2024, 3, 3), Type: EntryTypeExpense, Description: "Grocery Store"}
	expense := EntryTypeExpense
	income := EntryTypeIncome

	assert.True(t, EntryFilter{AccountID: "acc", Type: &expense, Text: "grocery"}.Matches(e))
	assert.False(t, EntryFilter{Type: &income}.Matches(e))
	assert.False(t, EntryFilter{AccountID: "other"}.Matches(e))

	from := date(2024, 3, 4)
	assert.False(t, EntryFilter{From: &from}.Matches(e))

	assert.True(t, EntryFilter{After: &EntryCursor{Date: date(2024, 3, 3), ID: "c"}}.Matches(e))
	assert.False(t, EntryFilter{After: &EntryCursor{Date: date(2024, 3, 3), ID: "b"}}.Matches(e))
	assert.False(t, EntryFilter{After: &EntryCursor{Date: date(2024, 3, 2), ID: "z"}}.Matches(e))
	assert.True(t, EntryFilter{After: &EntryCursor{Date: date(2024, 3, 4), ID: "a"}}.Matches(e))
}

func TestMergeAffected(t *testing.T) {
	merged := MergeAffected(
		AffectedRange{AccountID: "a", From: date(2024, 3, 10)},
		AffectedRange{AccountID: "b", From: date(2024, 1, 1)},
		AffectedRange{AccountID: "a", From: time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)},
		AffectedRange{AccountID: "a", From: date(2024, 5, 1)},
	)

	require.Len(t, merged, 2)
	assert.Equal(t, AffectedRange{AccountID: "a", From: date(2024, 2, 1)}, merged[0])
	assert.Equal(t, AffectedRange{AccountID: "b", From: date(2024, 1, 1)}, merged[1])
}

func TestNewSeriesGroup(t *testing.T) {
	members := []*Entry{
		{ID: "1", Series: &Series{ID: "r1", Kind: SeriesInstallment, Position: 1, Size: 2}},
		{ID: "2", Series: &Series{ID: "r1", Kind: SeriesInstallment, Position: 2, Size: 2}},
	}
	group := NewSeriesGroup(members)
	assert.Equal(t, "r1", group.ID)
	assert.Equal(t, SeriesInstallment, group.Kind)
	assert.Len(t, group.Members, 2)

	assert.Equal(t, "", NewSeriesGroup(nil).ID)
}
