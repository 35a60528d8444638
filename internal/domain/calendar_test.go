package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeInvoiceMonth(t *testing.T) {
	tests := []struct {
		name       string
		purchase   time.Time
		closingDay int
		want       string
	}{
		{"before closing day", date(2024, 3, 5), 10, "2024-03"},
		{"on closing day", date(2024, 3, 10), 10, "2024-03"},
		{"day after closing day", date(2024, 3, 11), 10, "2024-04"},
		{"december rolls into next year", date(2024, 12, 20), 10, "2025-01"},
		{"closing day 31 in a short month", date(2024, 2, 29), 31, "2024-02"},
		{"jan 31 after closing goes to february", date(2024, 1, 31), 30, "2024-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeInvoiceMonth(tt.purchase, tt.closingDay))
		})
	}
}

func TestShiftInvoiceMonth(t *testing.T) {
	got, err := ShiftInvoiceMonth("2024-11", 3)
	require.NoError(t, err)
	assert.Equal(t, "2025-02", got)

	got, err = ShiftInvoiceMonth("2024-01", -1)
	require.NoError(t, err)
	assert.Equal(t, "2023-12", got)

	_, err = ShiftInvoiceMonth("2024-13", 1)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStepDate(t *testing.T) {
	base := date(2024, 1, 31)

	assert.Equal(t, date(2024, 2, 7), StepDate(base, StepDays, 7))
	assert.Equal(t, date(2024, 3, 2), StepDate(base, StepMonths, 1))
	assert.Equal(t, date(2025, 1, 31), StepDate(base, StepYears, 1))
	assert.Equal(t, base, StepDate(base, StepUnit("weeks"), 1))
}

func TestDay(t *testing.T) {
	in := time.Date(2024, 5, 6, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, date(2024, 5, 6), Day(in))
}
