package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/microfin-loan-ledger/internal/domain/account"
	"github.com/microfin-loan-ledger/internal/domain/journal"
	"github.com/microfin-loan-ledger/internal/domain/loan"
	"github.com/microfin-loan-ledger/internal/domain/repayment"
	"github.com/microfin-loan-ledger/internal/domain/shared"
	"github.com/microfin-loan-ledger/internal/engine"
)

// AccountService defines the interface for chart-of-accounts operations
type AccountService interface {
	// CreateAccount creates a new ledger account
	// Returns ErrDuplicateCode if the system code is already taken
	CreateAccount(ctx context.Context, name string, category account.Category, code string, parentID *uuid.UUID) (*account.Account, error)

	// GetAccountByID retrieves an account by its ID
	// Returns ErrAccountNotFound if the account doesn't exist
	GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error)

	// ListAccounts returns the full chart of accounts
	ListAccounts(ctx context.Context) ([]*account.Account, error)

	// DeactivateAccount marks an account inactive; history is kept
	DeactivateAccount(ctx context.Context, id uuid.UUID) error

	// GetAccountEntries returns archived journal entries touching the
	// account, newest first, with the total count for pagination
	GetAccountEntries(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*journal.Entry, int64, error)
}

// LoanService defines the interface for loan book operations
type LoanService interface {
	// CreateLoan registers a pending loan awaiting disbursement
	CreateLoan(ctx context.Context, borrower string, principal, interest, penalty int64) (*loan.Loan, error)

	// GetLoanByID retrieves a loan by its ID
	// Returns ErrLoanNotFound if the loan doesn't exist
	GetLoanByID(ctx context.Context, id uuid.UUID) (*loan.Loan, error)
}

// LedgerService exposes the posting engine's synchronous operations
type LedgerService interface {
	ProcessRepayment(ctx context.Context, params engine.RepaymentParams) (*engine.RepaymentResult, error)
	ReverseRepayment(ctx context.Context, params engine.ReversalParams) (*engine.ReversalResult, error)
	BulkDisburse(ctx context.Context, params engine.DisbursementParams) (*engine.DisbursementResult, error)
	InjectCapital(ctx context.Context, params engine.InjectionParams) (*journal.Entry, error)
	Transfer(ctx context.Context, params engine.TransferParams) (*journal.Entry, error)
	PostAdjustment(ctx context.Context, params engine.AdjustmentParams) (*journal.Entry, error)
	VerifyTrialBalance(ctx context.Context, date time.Time) (*engine.TrialBalanceReport, error)

	// GetRepaymentByID retrieves a repayment record; nil when not found
	GetRepaymentByID(ctx context.Context, id uuid.UUID) (*repayment.Repayment, error)

	// GetJournalEntryByID reads an archived journal entry; nil when not found
	GetJournalEntryByID(ctx context.Context, id uuid.UUID) (*journal.Entry, error)
}

// CommandService publishes financial commands for asynchronous processing
type CommandService interface {
	// SubmitCommand validates and publishes the command to the intake topic.
	// The caller receives the command id for later correlation.
	SubmitCommand(ctx context.Context, cmd *shared.FinancialCommand) (uuid.UUID, error)
}
