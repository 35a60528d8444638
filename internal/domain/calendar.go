package domain

import (
	"fmt"
	"time"
)

const invoiceMonthLayout = "2006-01"

// StepUnit is a calendar stepping unit.
type StepUnit string

const (
	StepDays   StepUnit = "days"
	StepMonths StepUnit = "months"
	StepYears  StepUnit = "years"
)

// Day truncates t to UTC midnight of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StepDate adds n units to date. Month and year steps do not clamp the day of
// month: Jan 31 + 1 month lands in early March, the way time.AddDate normalizes.
func StepDate(date time.Time, unit StepUnit, n int) time.Time {
	switch unit {
	case StepDays:
		return date.AddDate(0, 0, n)
	case StepMonths:
		return date.AddDate(0, n, 0)
	case StepYears:
		return date.AddDate(n, 0, 0)
	default:
		return date
	}
}

// InvoiceMonthLabel formats the billing cycle label ("YYYY-MM") of date.
func InvoiceMonthLabel(date time.Time) string {
	return date.Format(invoiceMonthLayout)
}

// ParseInvoiceMonth parses a "YYYY-MM" label into the first day of that month.
func ParseInvoiceMonth(label string) (time.Time, error) {
	t, err := time.Parse(invoiceMonthLayout, label)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invoice month %q", ErrValidation, label)
	}
	return t, nil
}

// ShiftInvoiceMonth moves a "YYYY-MM" label n months forward (or back when n < 0).
func ShiftInvoiceMonth(label string, n int) (string, error) {
	t, err := ParseInvoiceMonth(label)
	if err != nil {
		return "", err
	}
	return InvoiceMonthLabel(t.AddDate(0, n, 0)), nil
}

// ComputeInvoiceMonth returns the billing cycle a purchase belongs to. A
// purchase made after the closing day goes to next month's invoice; the closing
// day itself still belongs to the current one.
func ComputeInvoiceMonth(purchaseDate time.Time, closingDay int) string {
	if purchaseDate.Day() > closingDay {
		firstOfNext := time.Date(purchaseDate.Year(), purchaseDate.Month()+1, 1, 0, 0, 0, 0, time.UTC)
		return InvoiceMonthLabel(firstOfNext)
	}
	return InvoiceMonthLabel(purchaseDate)
}
