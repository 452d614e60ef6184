package loan

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrEmptyBorrower    = errors.New("borrower cannot be empty")
	ErrInvalidPrincipal = errors.New("principal must be positive")
)

// Status tracks a loan through its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusDefaulted Status = "defaulted"
)

// Loan carries the outstanding obligation buckets the repayment waterfall
// draws down. Amounts are in minor units.
type Loan struct {
	ID                   uuid.UUID `json:"id"`
	Borrower             string    `json:"borrower"`
	PrincipalOutstanding int64     `json:"principal_outstanding"`
	InterestOutstanding  int64     `json:"interest_outstanding"`
	PenaltyOutstanding   int64     `json:"penalty_outstanding"`
	Status               Status    `json:"status"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// NewLoan creates a pending loan awaiting disbursement.
func NewLoan(borrower string, principal, interest, penalty int64) (*Loan, error) {
	if borrower == "" {
		return nil, ErrEmptyBorrower
	}
	if principal <= 0 {
		return nil, ErrInvalidPrincipal
	}

	now := time.Now()
	return &Loan{
		ID:                   uuid.New(),
		Borrower:             borrower,
		PrincipalOutstanding: principal,
		InterestOutstanding:  interest,
		PenaltyOutstanding:   penalty,
		Status:               StatusPending,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

// ApplyPayment subtracts the paid amounts from each outstanding bucket,
// flooring at zero, and completes the loan when nothing remains.
func (l *Loan) ApplyPayment(principalPaid, interestPaid, penaltyPaid int64) {
	l.PrincipalOutstanding = floorZero(l.PrincipalOutstanding - principalPaid)
	l.InterestOutstanding = floorZero(l.InterestOutstanding - interestPaid)
	l.PenaltyOutstanding = floorZero(l.PenaltyOutstanding - penaltyPaid)
	if l.PrincipalOutstanding == 0 {
		l.Status = StatusCompleted
	} else {
		l.Status = StatusActive
	}
	l.UpdatedAt = time.Now()
}

// RestorePayment adds previously-paid amounts back to the outstanding
// buckets and reactivates the loan. Used when a repayment is reversed.
func (l *Loan) RestorePayment(principalPaid, interestPaid, penaltyPaid int64) {
	l.PrincipalOutstanding += principalPaid
	l.InterestOutstanding += interestPaid
	l.PenaltyOutstanding += penaltyPaid
	l.Status = StatusActive
	l.UpdatedAt = time.Now()
}

// Activate transitions a pending loan to active after disbursement.
func (l *Loan) Activate() {
	l.Status = StatusActive
	l.UpdatedAt = time.Now()
}

// Outstanding returns the total obligation across all buckets.
func (l *Loan) Outstanding() int64 {
	return l.PrincipalOutstanding + l.InterestOutstanding + l.PenaltyOutstanding
}

func floorZero(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
