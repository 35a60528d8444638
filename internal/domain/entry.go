package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntryType is the economic type of a ledger entry.
type EntryType string

const (
	EntryTypeIncome   EntryType = "INCOME"
	EntryTypeExpense  EntryType = "EXPENSE"
	EntryTypeTransfer EntryType = "TRANSFER"
)

// IsValid reports whether t is a known entry type.
func (t EntryType) IsValid() bool {
	switch t {
	case EntryTypeIncome, EntryTypeExpense, EntryTypeTransfer:
		return true
	}
	return false
}

// SignedAmount applies the sign convention of t to a magnitude. TRANSFER has no
// fixed sign; the caller passes the sign of the leg through reference.
func (t EntryType) SignedAmount(magnitude, reference decimal.Decimal) decimal.Decimal {
	magnitude = magnitude.Abs()
	switch t {
	case EntryTypeIncome:
		return magnitude
	case EntryTypeExpense:
		return magnitude.Neg()
	default:
		if reference.IsNegative() {
			return magnitude.Neg()
		}
		return magnitude
	}
}

// Frequency is the cadence of a recurring series.
type Frequency string

const (
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyYearly  Frequency = "YEARLY"
	FrequencyCustom  Frequency = "CUSTOM"
)

// Step returns the calendar unit and count that separate two occurrences.
func (f Frequency) Step(intervalDays int) (StepUnit, int, bool) {
	switch f {
	case FrequencyWeekly:
		return StepDays, 7, true
	case FrequencyMonthly:
		return StepMonths, 1, true
	case FrequencyYearly:
		return StepYears, 1, true
	case FrequencyCustom:
		if intervalDays < 1 {
			return "", 0, false
		}
		return StepDays, intervalDays, true
	}
	return "", 0, false
}

// SeriesKind tells installment groups and recurring series apart. Both share
// the same grouping key (the recurrence id).
type SeriesKind string

const (
	SeriesInstallment SeriesKind = "INSTALLMENT"
	SeriesRecurrence  SeriesKind = "RECURRENCE"
)

// Series places an entry inside an installment group or recurring series.
type Series struct {
	ID           string
	Kind         SeriesKind
	Position     int
	Size         int
	Frequency    Frequency
	IntervalDays int
}

// Entry is a single persisted ledger transaction.
type Entry struct {
	ID           string
	AccountID    string
	CategoryID   *string
	Description  string
	Amount       decimal.Decimal
	Date         time.Time
	Type         EntryType
	IsPaid       bool
	Tags         []string
	TransferID   string
	Series       *Series
	PurchaseDate *time.Time
	InvoiceMonth string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RecurrenceID returns the grouping key shared by the entry's series, if any.
func (e *Entry) RecurrenceID() string {
	if e.Series == nil {
		return ""
	}
	return e.Series.ID
}

// IsTransfer reports whether the entry is one leg of a transfer pair.
func (e *Entry) IsTransfer() bool {
	return e.TransferID != ""
}

// SeriesGroup is the loaded set of entries sharing one recurrence id.
type SeriesGroup struct {
	ID      string
	Kind    SeriesKind
	Members []*Entry
}

// NewSeriesGroup groups members that share a recurrence id. The kind is taken
// from the members; an empty member list yields a zero group.
func NewSeriesGroup(members []*Entry) SeriesGroup {
	group := SeriesGroup{Members: members}
	for _, m := range members {
		if m.Series != nil {
			group.ID = m.Series.ID
			group.Kind = m.Series.Kind
			break
		}
	}
	return group
}

// EntryPatch is a partial update of an entry. Nil fields are left untouched.
type EntryPatch struct {
	Description  *string
	Amount       *decimal.Decimal
	Date         *time.Time
	IsPaid       *bool
	CategoryID   *string
	Tags         *[]string
	PurchaseDate *time.Time
}

// IsEmpty reports whether the patch changes nothing.
func (p EntryPatch) IsEmpty() bool {
	return p.Description == nil && p.Amount == nil && p.Date == nil && p.IsPaid == nil &&
		p.CategoryID == nil && p.Tags == nil && p.PurchaseDate == nil
}

// AffectsBalance reports whether applying the patch can move a running balance.
func (p EntryPatch) AffectsBalance() bool {
	return p.Amount != nil || p.Date != nil || p.IsPaid != nil
}

// Normalize validates the patch and truncates dates to day granularity.
func (p EntryPatch) Normalize() (EntryPatch, error) {
	if p.IsEmpty() {
		return p, ErrEmptyPatch
	}
	if p.Amount != nil {
		if !p.Amount.Abs().IsPositive() {
			return p, ErrInvalidAmount
		}
		if _, err := ToMinorUnits(*p.Amount); err != nil {
			return p, err
		}
		abs := p.Amount.Abs()
		p.Amount = &abs
	}
	if p.Date != nil {
		if err := ValidateEntryDate(*p.Date); err != nil {
			return p, err
		}
		d := Day(*p.Date)
		p.Date = &d
	}
	if p.PurchaseDate != nil {
		d := Day(*p.PurchaseDate)
		p.PurchaseDate = &d
	}
	if p.Tags != nil {
		tags := NormalizeTags(*p.Tags)
		p.Tags = &tags
	}
	return p, nil
}

// Apply writes the patch onto e. Amounts follow the sign convention of the
// entry's type; the invoice month is never touched.
func (p EntryPatch) Apply(e *Entry, now time.Time) {
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Amount != nil {
		e.Amount = e.Type.SignedAmount(*p.Amount, e.Amount)
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.IsPaid != nil {
		e.IsPaid = *p.IsPaid
	}
	if p.CategoryID != nil {
		id := *p.CategoryID
		e.CategoryID = &id
	}
	if p.Tags != nil {
		e.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.PurchaseDate != nil {
		d := *p.PurchaseDate
		e.PurchaseDate = &d
	}
	e.UpdatedAt = now
}

// NormalizeTags trims, drops empty and de-duplicates tags, keeping order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// EntryCursor is the keyset position used to page through entries.
type EntryCursor struct {
	Date time.Time
	ID   string
}

// EntryFilter selects entries for listing, ordered by (date desc, id desc).
type EntryFilter struct {
	AccountID string
	From      *time.Time
	To        *time.Time
	Type      *EntryType
	Text      string
	After     *EntryCursor
	Limit     int
}

// Matches reports whether e passes every filter except pagination.
func (f EntryFilter) Matches(e *Entry) bool {
	if f.AccountID != "" && e.AccountID != f.AccountID {
		return false
	}
	if f.From != nil && e.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Date.After(*f.To) {
		return false
	}
	if f.Type != nil && e.Type != *f.Type {
		return false
	}
	if f.Text != "" && !strings.Contains(strings.ToLower(e.Description), strings.ToLower(f.Text)) {
		return false
	}
	if f.After != nil {
		// strictly after the cursor in (date desc, id desc) order
		if e.Date.After(f.After.Date) {
			return false
		}
		if e.Date.Equal(f.After.Date) && e.ID >= f.After.ID {
			return false
		}
	}
	return true
}

// AffectedRange names an account whose running balance must be rebuilt from
// a given day forward.
type AffectedRange struct {
	AccountID string
	From      time.Time
}

// MergeAffected collapses ranges per account, keeping the earliest day.
// Order of first appearance is preserved.
func MergeAffected(ranges ...AffectedRange) []AffectedRange {
	index := make(map[string]int, len(ranges))
	var merged []AffectedRange
	for _, r := range ranges {
		from := Day(r.From)
		if i, ok := index[r.AccountID]; ok {
			if from.Before(merged[i].From) {
				merged[i].From = from
			}
			continue
		}
		index[r.AccountID] = len(merged)
		merged = append(merged, AffectedRange{AccountID: r.AccountID, From: from})
	}
	return merged
}

// MutationScope selects whether an update or delete touches one entry or its
// whole series.
type MutationScope string

const (
	ScopeOne MutationScope = "ONE"
	ScopeAll MutationScope = "ALL"
)

// ParseMutationScope parses a scope, defaulting to ScopeOne when empty.
func ParseMutationScope(s string) (MutationScope, error) {
	switch MutationScope(strings.ToUpper(strings.TrimSpace(s))) {
	case "", ScopeOne:
		return ScopeOne, nil
	case ScopeAll:
		return ScopeAll, nil
	}
	return "", ErrInvalidScope
}
