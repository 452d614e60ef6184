package repayment

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines repayment persistence operations
type Repository interface {
	Create(ctx context.Context, repayment *Repayment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Repayment, error)

	// GetByIdempotencyKey returns nil, nil when no repayment carries the
	// key. Called inside the processing transaction before any mutation.
	GetByIdempotencyKey(ctx context.Context, key string) (*Repayment, error)

	// LockForUpdate acquires a pessimistic row lock; reversal locks the
	// repayment before its loan.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Repayment, error)

	MarkReversed(ctx context.Context, id uuid.UUID) error
	WithTx(tx pgx.Tx) Repository
}

// ErrRepaymentNotFound indicates missing repayment
type ErrRepaymentNotFound struct {
	RepaymentID uuid.UUID
}

func (e ErrRepaymentNotFound) Error() string {
	return "repayment not found: " + e.RepaymentID.String()
}

// Is implements the errors.Is interface for ErrRepaymentNotFound
func (e ErrRepaymentNotFound) Is(target error) bool {
	t, ok := target.(ErrRepaymentNotFound)
	if !ok {
		return false
	}
	if t.RepaymentID == uuid.Nil {
		return true
	}
	return e.RepaymentID == t.RepaymentID
}

// ErrDuplicateIdempotencyKey indicates the unique constraint on the
// idempotency key fired, i.e. the command already executed.
type ErrDuplicateIdempotencyKey struct {
	Key string
}

func (e ErrDuplicateIdempotencyKey) Error() string {
	return "repayment with idempotency key already exists: " + e.Key
}
