package domain

import (
	"github.com/shopspring/decimal"
)

// MinorUnitScale is the number of decimal places kept for every amount.
const MinorUnitScale = 2

// SplitExact divides total minor units into n shares. The first n-1 shares are
// floor(total/n); the last share absorbs the remainder so the shares always sum
// back to total exactly.
func SplitExact(total int64, n int) ([]int64, error) {
	if n < 1 {
		return nil, ErrInvalidInstallments
	}

	base := floorDiv(total, int64(n))
	shares := make([]int64, n)
	for i := 0; i < n-1; i++ {
		shares[i] = base
	}
	shares[n-1] = total - base*int64(n-1)

	return shares, nil
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// ToMinorUnits converts an amount to integer cents. It fails when the amount
// carries more precision than MinorUnitScale.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if !amount.Equal(amount.Truncate(MinorUnitScale)) {
		return 0, ErrInvalidAmount
	}
	return amount.Shift(MinorUnitScale).IntPart(), nil
}

// FromMinorUnits converts integer cents back to a decimal amount.
func FromMinorUnits(units int64) decimal.Decimal {
	return decimal.New(units, -MinorUnitScale)
}

// SplitAmount splits a non-negative amount into n exact shares.
func SplitAmount(amount decimal.Decimal, n int) ([]decimal.Decimal, error) {
	units, err := ToMinorUnits(amount)
	if err != nil {
		return nil, err
	}

	shares, err := SplitExact(units, n)
	if err != nil {
		return nil, err
	}

	result := make([]decimal.Decimal, len(shares))
	for i, s := range shares {
		result[i] = FromMinorUnits(s)
	}
	return result, nil
}
