package loan

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines loan persistence operations
type Repository interface {
	Create(ctx context.Context, loan *Loan) error
	GetByID(ctx context.Context, id uuid.UUID) (*Loan, error)
	Update(ctx context.Context, loan *Loan) error

	// LockForUpdate acquires a pessimistic row lock scoped to the enclosing
	// transaction. Orchestrators lock loans before accounts, and multiple
	// loans in ascending id order, to keep the global lock order acyclic.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Loan, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrLoanNotFound indicates missing loan
type ErrLoanNotFound struct {
	LoanID uuid.UUID
}

func (e ErrLoanNotFound) Error() string {
	return "loan not found: " + e.LoanID.String()
}

// Is implements the errors.Is interface for ErrLoanNotFound
func (e ErrLoanNotFound) Is(target error) bool {
	t, ok := target.(ErrLoanNotFound)
	if !ok {
		return false
	}
	if t.LoanID == uuid.Nil {
		return true
	}
	return e.LoanID == t.LoanID
}
