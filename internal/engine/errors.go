// Package engine implements the double-entry ledger core: the posting
// engine, the repayment waterfall, bulk disbursement, reversal, treasury
// movements, and the trial balance verifier. All mutations run inside a
// single PostgreSQL transaction with pessimistic row locks taken in a fixed
// global order: repayment, then loans in ascending id order, then accounts
// in ascending id order.
package engine

import (
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/microfin-loan-ledger/internal/domain/loan"
)

// Sentinel errors
var (
	ErrImbalanced    = errors.New("journal entry debits and credits are not equal")
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrEmptyBatch    = errors.New("disbursement batch cannot be empty")
	ErrSameAccount   = errors.New("transfer source and destination must differ")

	// ErrLockTimeout maps PostgreSQL 55P03 and 40P01. Either way the
	// transaction rolled back completely; retrying with the same
	// idempotency key is safe.
	ErrLockTimeout = errors.New("timed out waiting for a row lock")

	// ErrDuplicateCommand surfaces when two commands with the same
	// idempotency key race past the in-transaction check and the unique
	// constraint fires. A retry observes the winner's repayment.
	ErrDuplicateCommand = errors.New("command with this idempotency key already executed")
)

const (
	lockNotAvailableCode = "55P03"
	deadlockDetectedCode = "40P01"
)

// mapLockError converts a PostgreSQL lock_timeout failure or a detected
// deadlock to ErrLockTimeout and passes every other error through unchanged.
func mapLockError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == lockNotAvailableCode || pgErr.Code == deadlockDetectedCode) {
		return ErrLockTimeout
	}
	return err
}

// ErrUnknownAccount indicates a journal line references a nonexistent account
type ErrUnknownAccount struct {
	AccountID uuid.UUID
}

func (e ErrUnknownAccount) Error() string {
	return "journal line references unknown account: " + e.AccountID.String()
}

// Is implements the errors.Is interface for ErrUnknownAccount
func (e ErrUnknownAccount) Is(target error) bool {
	t, ok := target.(ErrUnknownAccount)
	if !ok {
		return false
	}
	if t.AccountID == uuid.Nil {
		return true
	}
	return e.AccountID == t.AccountID
}

// ErrAccountInactive indicates a posting against a deactivated account
type ErrAccountInactive struct {
	AccountID uuid.UUID
}

func (e ErrAccountInactive) Error() string {
	return "account is deactivated: " + e.AccountID.String()
}

// Is implements the errors.Is interface for ErrAccountInactive
func (e ErrAccountInactive) Is(target error) bool {
	t, ok := target.(ErrAccountInactive)
	if !ok {
		return false
	}
	if t.AccountID == uuid.Nil {
		return true
	}
	return e.AccountID == t.AccountID
}

// ErrClosedPeriod indicates an entry date inside a closed finance period
// without a backdate approval
type ErrClosedPeriod struct {
	EntryDate time.Time
}

func (e ErrClosedPeriod) Error() string {
	return "entry date falls in a closed finance period: " + e.EntryDate.Format("2006-01-02")
}

// Is implements the errors.Is interface for ErrClosedPeriod
func (e ErrClosedPeriod) Is(target error) bool {
	t, ok := target.(ErrClosedPeriod)
	if !ok {
		return false
	}
	if t.EntryDate.IsZero() {
		return true
	}
	return e.EntryDate.Equal(t.EntryDate)
}

// ErrLoanNotActive indicates a repayment against a loan outside active status
type ErrLoanNotActive struct {
	LoanID uuid.UUID
	Status loan.Status
}

func (e ErrLoanNotActive) Error() string {
	return "loan " + e.LoanID.String() + " is not active: " + string(e.Status)
}

// Is implements the errors.Is interface for ErrLoanNotActive
func (e ErrLoanNotActive) Is(target error) bool {
	t, ok := target.(ErrLoanNotActive)
	if !ok {
		return false
	}
	if t.LoanID == uuid.Nil {
		return true
	}
	return e.LoanID == t.LoanID
}

// ErrLoanNotReversible indicates the loan has left the active/completed
// states (e.g. defaulted), so silently reactivating it through a reversal
// would contradict its written-off accounting treatment.
type ErrLoanNotReversible struct {
	LoanID uuid.UUID
	Status loan.Status
}

func (e ErrLoanNotReversible) Error() string {
	return "loan " + e.LoanID.String() + " cannot accept a reversal in status: " + string(e.Status)
}

// Is implements the errors.Is interface for ErrLoanNotReversible
func (e ErrLoanNotReversible) Is(target error) bool {
	t, ok := target.(ErrLoanNotReversible)
	if !ok {
		return false
	}
	if t.LoanID == uuid.Nil {
		return true
	}
	return e.LoanID == t.LoanID
}

// ErrAlreadyReversed indicates a second reversal attempt on a repayment
type ErrAlreadyReversed struct {
	RepaymentID uuid.UUID
}

func (e ErrAlreadyReversed) Error() string {
	return "repayment already reversed: " + e.RepaymentID.String()
}

// Is implements the errors.Is interface for ErrAlreadyReversed
func (e ErrAlreadyReversed) Is(target error) bool {
	t, ok := target.(ErrAlreadyReversed)
	if !ok {
		return false
	}
	if t.RepaymentID == uuid.Nil {
		return true
	}
	return e.RepaymentID == t.RepaymentID
}

// ErrInsufficientFunds indicates the source account cannot cover the
// whole disbursement batch
type ErrInsufficientFunds struct {
	AccountID uuid.UUID
	Available int64
	Required  int64
}

func (e ErrInsufficientFunds) Error() string {
	return "account " + e.AccountID.String() + " holds " + strconv.FormatInt(e.Available, 10) +
		" but the batch requires " + strconv.FormatInt(e.Required, 10)
}

// Is implements the errors.Is interface for ErrInsufficientFunds
func (e ErrInsufficientFunds) Is(target error) bool {
	t, ok := target.(ErrInsufficientFunds)
	if !ok {
		return false
	}
	if t.AccountID == uuid.Nil {
		return true
	}
	return e.AccountID == t.AccountID
}

// ErrSystemAccountsMissing indicates the chart of accounts lacks one or
// more of the well-known system accounts. Fatal at startup, never retried.
type ErrSystemAccountsMissing struct {
	Codes []string
}

func (e ErrSystemAccountsMissing) Error() string {
	msg := "system accounts missing:"
	for _, code := range e.Codes {
		msg += " " + code
	}
	return msg
}
