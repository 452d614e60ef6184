package account

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrEmptyName       = errors.New("account name cannot be empty")
	ErrInvalidCategory = errors.New("invalid account category")
)

// Category classifies an account in the chart of accounts and determines
// the sign convention of its cached balance.
type Category string

const (
	CategoryAsset     Category = "asset"
	CategoryLiability Category = "liability"
	CategoryEquity    Category = "equity"
	CategoryIncome    Category = "income"
	CategoryExpense   Category = "expense"
)

// Valid reports whether c is one of the five chart-of-accounts categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryAsset, CategoryLiability, CategoryEquity, CategoryIncome, CategoryExpense:
		return true
	}
	return false
}

// Well-known system account codes. These resolve the internal accounts the
// orchestrators post against; they are stable codes, not user-chosen names.
const (
	CodePortfolio    = "PORTFOLIO"     // asset: loan receivables
	CodeCapital      = "CAPITAL"       // equity: injected capital
	CodeIncome       = "INCOME"        // income: recognized interest + penalty revenue
	CodeClientCredit = "CLIENT_CREDIT" // liability: borrower overpayments held for refund
)

// Account is an internal ledger account. Balance is a cached projection of
// the account's journal lines, sign-adjusted by category; only the posting
// engine writes it. Accounts are never deleted, only deactivated, because
// historical journal lines reference them permanently.
type Account struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Category  Category   `json:"category"`
	Code      string     `json:"code,omitempty"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	Balance   int64      `json:"balance"` // Stored in cents/minor units
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewAccount creates a new account with a zero balance
func NewAccount(name string, category Category, code string, parentID *uuid.UUID) (*Account, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if !category.Valid() {
		return nil, ErrInvalidCategory
	}

	now := time.Now()
	return &Account{
		ID:        uuid.New(),
		Name:      name,
		Category:  category,
		Code:      code,
		ParentID:  parentID,
		Balance:   0,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// DebitSign returns +1 for categories whose balance grows with debits
// (asset, expense) and -1 for categories whose balance grows with credits
// (liability, equity, income).
func (a *Account) DebitSign() int64 {
	switch a.Category {
	case CategoryAsset, CategoryExpense:
		return 1
	default:
		return -1
	}
}

// LineDelta returns the signed balance change a journal line with the given
// debit and credit amounts causes on this account.
func (a *Account) LineDelta(debit, credit int64) int64 {
	return a.DebitSign() * (debit - credit)
}
