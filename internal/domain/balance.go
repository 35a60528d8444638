package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SnapshotCalcVersion tags every snapshot row written by the current
// recomputation algorithm.
const SnapshotCalcVersion = 1

// Contribution is how much an amount of the given type moves a running
// balance. Both balance paths (aggregation and snapshots) go through it.
func Contribution(t EntryType, signed decimal.Decimal) decimal.Decimal {
	switch t {
	case EntryTypeIncome:
		return signed.Abs()
	case EntryTypeExpense:
		return signed.Abs().Neg()
	case EntryTypeTransfer:
		return signed
	default:
		return decimal.Zero
	}
}

// TypeTotal is the sum of signed amounts of paid entries of one type.
type TypeTotal struct {
	Type  EntryType
	Total decimal.Decimal
}

// BalanceFromTotals folds per-type totals on top of an initial balance.
// Contribution is linear per type, so folding totals equals folding entries.
func BalanceFromTotals(initial decimal.Decimal, totals []TypeTotal) decimal.Decimal {
	balance := initial
	for _, t := range totals {
		balance = balance.Add(Contribution(t.Type, t.Total))
	}
	return balance
}

// DayBalance is the running balance at the end of a day that had entries.
type DayBalance struct {
	Date    time.Time
	Balance decimal.Decimal
}

// FoldPaid folds paid entries, already ordered by date ascending, into the
// running balance observed at the end of each day that had at least one entry.
func FoldPaid(initial decimal.Decimal, entries []*Entry) []DayBalance {
	var days []DayBalance
	balance := initial
	for _, e := range entries {
		if !e.IsPaid {
			continue
		}
		balance = balance.Add(Contribution(e.Type, e.Amount))
		day := Day(e.Date)
		if n := len(days); n > 0 && days[n-1].Date.Equal(day) {
			days[n-1].Balance = balance
			continue
		}
		days = append(days, DayBalance{Date: day, Balance: balance})
	}
	return days
}

// DailySnapshot is the running balance of an account at the end of a day.
type DailySnapshot struct {
	AccountID   string
	Date        time.Time
	Balance     decimal.Decimal
	CalcVersion int
}

// DailyTotal is the sum of snapshot balances across accounts for one day.
type DailyTotal struct {
	Date    time.Time
	Balance decimal.Decimal
}

// AvailableLimit is the unused part of a credit limit; it never goes negative.
func AvailableLimit(creditLimit, unpaidExpenses decimal.Decimal) decimal.Decimal {
	available := creditLimit.Sub(unpaidExpenses.Abs())
	if available.IsNegative() {
		return decimal.Zero
	}
	return available
}
