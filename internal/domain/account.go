package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType distinguishes regular accounts from credit cards.
type AccountType string

const (
	AccountTypeStandard AccountType = "STANDARD"
	AccountTypeCredit   AccountType = "CREDIT"
)

// IsValid reports whether t is a known account type.
func (t AccountType) IsValid() bool {
	return t == AccountTypeStandard || t == AccountTypeCredit
}

// CreditCardInfo is embedded in every CREDIT account.
type CreditCardInfo struct {
	ClosingDay  int
	DueDay      int
	CreditLimit decimal.Decimal
	Brand       string
}

// Validate checks the card's calendar days and limit.
func (c *CreditCardInfo) Validate() error {
	if c.ClosingDay < 1 || c.ClosingDay > 31 {
		return ErrInvalidCreditCard
	}
	if c.DueDay < 1 || c.DueDay > 31 {
		return ErrInvalidCreditCard
	}
	if c.CreditLimit.IsNegative() {
		return ErrInvalidCreditCard
	}
	return nil
}

// AccessLevel is the access an actor needs on an account.
type AccessLevel int

const (
	AccessRead AccessLevel = iota
	AccessWrite
)

// Account holds money or, for credit cards, a revolving limit.
type Account struct {
	ID             string
	OwnerID        string
	Name           string
	Type           AccountType
	InitialBalance decimal.Decimal
	CreditCard     *CreditCardInfo
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsCredit reports whether the account is a credit card.
func (a *Account) IsCredit() bool {
	return a.Type == AccountTypeCredit
}

// Card returns the embedded card info of a CREDIT account. A CREDIT account
// without it is a broken stored invariant, not a user error.
func (a *Account) Card() (*CreditCardInfo, error) {
	if a.CreditCard == nil {
		return nil, ErrMissingCreditCardInfo
	}
	return a.CreditCard, nil
}

// Validate checks that card info is present if and only if the account is CREDIT.
func (a *Account) Validate() error {
	if err := ValidateAccountName(a.Name); err != nil {
		return err
	}
	if !a.Type.IsValid() {
		return ErrInvalidAccountType
	}
	if _, err := ToMinorUnits(a.InitialBalance); err != nil {
		return err
	}

	switch {
	case a.IsCredit() && a.CreditCard == nil:
		return ErrInvalidCreditCard
	case !a.IsCredit() && a.CreditCard != nil:
		return ErrCardFieldsOnStandard
	case a.CreditCard != nil:
		return a.CreditCard.Validate()
	}
	return nil
}

// Category classifies entries. A nil OwnerID marks a global category.
type Category struct {
	ID      string
	Name    string
	OwnerID *string
}

// VisibleTo reports whether actorID may attach the category to an entry.
func (c *Category) VisibleTo(actorID string) bool {
	return c.OwnerID == nil || *c.OwnerID == actorID
}
