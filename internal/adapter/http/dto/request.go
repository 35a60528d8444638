package dto

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// DateLayout is the wire format of calendar days.
const DateLayout = time.DateOnly

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags of a request.
func Validate(req any) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// ParseDate parses a calendar day in DateLayout.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", domain.ErrValidation, s)
	}
	return t, nil
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreditCardRequest carries the card settings of a CREDIT account.
type CreditCardRequest struct {
	ClosingDay  int             `json:"closing_day"  validate:"required,min=1,max=31"`
	DueDay      int             `json:"due_day"      validate:"required,min=1,max=31"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	Brand       string          `json:"brand"        validate:"max=50"`
}

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Name           string             `json:"name"            validate:"required,max=255"`
	Type           string             `json:"type"            validate:"required,oneof=STANDARD CREDIT"`
	InitialBalance decimal.Decimal    `json:"initial_balance"`
	CreditCard     *CreditCardRequest `json:"credit_card,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	input := usecase.CreateAccountInput{
		Name:           r.Name,
		Type:           domain.AccountType(r.Type),
		InitialBalance: r.InitialBalance,
	}
	if r.CreditCard != nil {
		input.CreditCard = &domain.CreditCardInfo{
			ClosingDay:  r.CreditCard.ClosingDay,
			DueDay:      r.CreditCard.DueDay,
			CreditLimit: r.CreditCard.CreditLimit,
			Brand:       r.CreditCard.Brand,
		}
	}
	return input
}

// UpdateCreditCardRequest is a partial update of card settings.
type UpdateCreditCardRequest struct {
	ClosingDay  *int             `json:"closing_day,omitempty"  validate:"omitempty,min=1,max=31"`
	DueDay      *int             `json:"due_day,omitempty"      validate:"omitempty,min=1,max=31"`
	CreditLimit *decimal.Decimal `json:"credit_limit,omitempty"`
	Brand       *string          `json:"brand,omitempty"        validate:"omitempty,max=50"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateCreditCardRequest) ToUseCaseInput() usecase.CreditCardPatch {
	return usecase.CreditCardPatch{
		ClosingDay:  r.ClosingDay,
		DueDay:      r.DueDay,
		CreditLimit: r.CreditLimit,
		Brand:       r.Brand,
	}
}

// ShareAccountRequest grants another user access to an account.
type ShareAccountRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Access string `json:"access"  validate:"required,oneof=read write"`
}

// Level returns the requested access level.
func (r *ShareAccountRequest) Level() domain.AccessLevel {
	if r.Access == "write" {
		return domain.AccessWrite
	}
	return domain.AccessRead
}

// RecurrenceRequest asks for a recurring series.
type RecurrenceRequest struct {
	Frequency    string `json:"frequency"               validate:"required,oneof=WEEKLY MONTHLY YEARLY CUSTOM"`
	IntervalDays int    `json:"interval_days,omitempty" validate:"min=0"`
	Count        int    `json:"count,omitempty"         validate:"min=0"`
	Forever      bool   `json:"forever,omitempty"`
}

// CreateEntryRequest represents a request to create one or many entries.
type CreateEntryRequest struct {
	AccountID            string             `json:"account_id"                       validate:"required"`
	DestinationAccountID string             `json:"destination_account_id,omitempty"`
	CategoryID           *string            `json:"category_id,omitempty"`
	Description          string             `json:"description"`
	Amount               decimal.Decimal    `json:"amount"`
	Date                 string             `json:"date"                             validate:"required,datetime=2006-01-02"`
	Type                 string             `json:"type"                             validate:"required,oneof=INCOME EXPENSE TRANSFER"`
	IsPaid               bool               `json:"is_paid"`
	Tags                 []string           `json:"tags,omitempty"`
	TotalInstallments    int                `json:"total_installments,omitempty"`
	Recurrence           *RecurrenceRequest `json:"recurrence,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateEntryRequest) ToUseCaseInput() (usecase.CreateEntryInput, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return usecase.CreateEntryInput{}, err
	}

	input := usecase.CreateEntryInput{
		AccountID:            r.AccountID,
		DestinationAccountID: r.DestinationAccountID,
		CategoryID:           r.CategoryID,
		Description:          r.Description,
		Amount:               r.Amount,
		Date:                 date,
		Type:                 domain.EntryType(r.Type),
		IsPaid:               r.IsPaid,
		Tags:                 r.Tags,
		TotalInstallments:    r.TotalInstallments,
	}
	if r.Recurrence != nil {
		input.Recurrence = &usecase.RecurrenceInput{
			Frequency:    domain.Frequency(r.Recurrence.Frequency),
			IntervalDays: r.Recurrence.IntervalDays,
			Count:        r.Recurrence.Count,
			Forever:      r.Recurrence.Forever,
		}
	}
	return input, nil
}

// UpdateEntryRequest is a partial update of an entry. Absent fields are left
// untouched.
type UpdateEntryRequest struct {
	Description  *string          `json:"description,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	Date         *string          `json:"date,omitempty"          validate:"omitempty,datetime=2006-01-02"`
	IsPaid       *bool            `json:"is_paid,omitempty"`
	CategoryID   *string          `json:"category_id,omitempty"`
	Tags         *[]string        `json:"tags,omitempty"`
	PurchaseDate *string          `json:"purchase_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// ToPatch converts to a domain patch.
func (r *UpdateEntryRequest) ToPatch() (domain.EntryPatch, error) {
	date, err := parseOptionalDate(r.Date)
	if err != nil {
		return domain.EntryPatch{}, err
	}
	purchaseDate, err := parseOptionalDate(r.PurchaseDate)
	if err != nil {
		return domain.EntryPatch{}, err
	}

	return domain.EntryPatch{
		Description:  r.Description,
		Amount:       r.Amount,
		Date:         date,
		IsPaid:       r.IsPaid,
		CategoryID:   r.CategoryID,
		Tags:         r.Tags,
		PurchaseDate: purchaseDate,
	}, nil
}
