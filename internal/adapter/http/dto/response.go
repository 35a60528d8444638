package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// CreditCardResponse represents card settings in API responses.
type CreditCardResponse struct {
	ClosingDay  int             `json:"closing_day"`
	DueDay      int             `json:"due_day"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	Brand       string          `json:"brand,omitempty"`
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID             string              `json:"id"`
	OwnerID        string              `json:"owner_id"`
	Name           string              `json:"name"`
	Type           string              `json:"type"`
	InitialBalance decimal.Decimal     `json:"initial_balance"`
	CreditCard     *CreditCardResponse `json:"credit_card,omitempty"`
	Balance        *decimal.Decimal    `json:"balance,omitempty"`
	AvailableLimit *decimal.Decimal    `json:"available_limit,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	resp := &AccountResponse{
		ID:             a.ID,
		OwnerID:        a.OwnerID,
		Name:           a.Name,
		Type:           string(a.Type),
		InitialBalance: a.InitialBalance,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
	if c := a.CreditCard; c != nil {
		resp.CreditCard = &CreditCardResponse{
			ClosingDay:  c.ClosingDay,
			DueDay:      c.DueDay,
			CreditLimit: c.CreditLimit,
			Brand:       c.Brand,
		}
	}
	return resp
}

// AccountFromSummary converts an account with its derived figures.
func AccountFromSummary(s usecase.AccountSummary) *AccountResponse {
	resp := AccountFromDomain(s.Account)
	balance := s.Balance
	resp.Balance = &balance
	resp.AvailableLimit = s.AvailableLimit
	return resp
}

// ListAccountsResponse represents a list of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// AccountsFromSummaries converts account summaries to responses.
func AccountsFromSummaries(summaries []usecase.AccountSummary) []*AccountResponse {
	result := make([]*AccountResponse, len(summaries))
	for i, s := range summaries {
		result[i] = AccountFromSummary(s)
	}
	return result
}

// BalanceResponse represents the aggregated balance of an account.
type BalanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// AvailableLimitResponse represents the unused credit of a card.
type AvailableLimitResponse struct {
	AccountID      string          `json:"account_id"`
	AvailableLimit decimal.Decimal `json:"available_limit"`
}

// SeriesResponse places an entry inside its series.
type SeriesResponse struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	Position     int    `json:"position,omitempty"`
	Size         int    `json:"size,omitempty"`
	Frequency    string `json:"frequency,omitempty"`
	IntervalDays int    `json:"interval_days,omitempty"`
}

// EntryResponse represents an entry in API responses.
type EntryResponse struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"account_id"`
	CategoryID   *string         `json:"category_id,omitempty"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Date         string          `json:"date"`
	Type         string          `json:"type"`
	IsPaid       bool            `json:"is_paid"`
	Tags         []string        `json:"tags"`
	TransferID   string          `json:"transfer_id,omitempty"`
	Series       *SeriesResponse `json:"series,omitempty"`
	PurchaseDate *string         `json:"purchase_date,omitempty"`
	InvoiceMonth string          `json:"invoice_month,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}

	resp := &EntryResponse{
		ID:           e.ID,
		AccountID:    e.AccountID,
		CategoryID:   e.CategoryID,
		Description:  e.Description,
		Amount:       e.Amount,
		Date:         e.Date.Format(DateLayout),
		Type:         string(e.Type),
		IsPaid:       e.IsPaid,
		Tags:         tags,
		TransferID:   e.TransferID,
		InvoiceMonth: e.InvoiceMonth,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
	if e.PurchaseDate != nil {
		d := e.PurchaseDate.Format(DateLayout)
		resp.PurchaseDate = &d
	}
	if s := e.Series; s != nil {
		resp.Series = &SeriesResponse{
			ID:           s.ID,
			Kind:         string(s.Kind),
			Position:     s.Position,
			Size:         s.Size,
			Frequency:    string(s.Frequency),
			IntervalDays: s.IntervalDays,
		}
	}
	return resp
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// CreateEntryResponse lists what a creation request wrote.
type CreateEntryResponse struct {
	Entries []*EntryResponse `json:"entries"`
	Settled []*EntryResponse `json:"settled,omitempty"`
}

// CreateEntryFromResult converts a creation result.
func CreateEntryFromResult(r *usecase.CreateEntryResult) *CreateEntryResponse {
	resp := &CreateEntryResponse{Entries: EntriesFromDomain(r.Entries)}
	if len(r.Settled) > 0 {
		resp.Settled = EntriesFromDomain(r.Settled)
	}
	return resp
}

// MutationResponse reports what an update or delete touched.
type MutationResponse struct {
	Count   int64            `json:"count"`
	Entries []*EntryResponse `json:"entries,omitempty"`
}

// MutationFromResult converts a mutation result.
func MutationFromResult(r *usecase.MutationResult) *MutationResponse {
	resp := &MutationResponse{Count: r.Count}
	if len(r.Entries) > 0 {
		resp.Entries = EntriesFromDomain(r.Entries)
	}
	return resp
}

// EntryPageResponse is one page of an entry listing.
type EntryPageResponse struct {
	Entries    []*EntryResponse `json:"entries"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// SnapshotResponse is the balance of an account at the end of one day.
type SnapshotResponse struct {
	AccountID string          `json:"account_id"`
	Date      string          `json:"date"`
	Balance   decimal.Decimal `json:"balance"`
}

// SnapshotFromDomain converts a snapshot.
func SnapshotFromDomain(s domain.DailySnapshot) SnapshotResponse {
	return SnapshotResponse{AccountID: s.AccountID, Date: s.Date.Format(DateLayout), Balance: s.Balance}
}

// SnapshotsFromDomain converts snapshots.
func SnapshotsFromDomain(snapshots []domain.DailySnapshot) []SnapshotResponse {
	result := make([]SnapshotResponse, len(snapshots))
	for i, s := range snapshots {
		result[i] = SnapshotFromDomain(s)
	}
	return result
}

// DailyTotalResponse is the summed balance of several accounts on one day.
type DailyTotalResponse struct {
	Date    string          `json:"date"`
	Balance decimal.Decimal `json:"balance"`
}

// DailyTotalsFromDomain converts daily totals.
func DailyTotalsFromDomain(totals []domain.DailyTotal) []DailyTotalResponse {
	result := make([]DailyTotalResponse, len(totals))
	for i, t := range totals {
		result[i] = DailyTotalResponse{Date: t.Date.Format(DateLayout), Balance: t.Balance}
	}
	return result
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
