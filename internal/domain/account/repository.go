package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines account persistence operations
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByCode(ctx context.Context, code string) (*Account, error)
	List(ctx context.Context) ([]*Account, error)
	Deactivate(ctx context.Context, id uuid.UUID) error

	// LockForUpdate acquires a pessimistic row lock scoped to the enclosing
	// transaction; the posting engine locks accounts in ascending id order.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Account, error)

	// ApplyDelta adds a signed amount to the cached balance. Only the
	// posting engine may call it, and only on rows it has locked.
	ApplyDelta(ctx context.Context, id uuid.UUID, delta int64) error

	WithTx(tx pgx.Tx) Repository
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	AccountID uuid.UUID
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.AccountID.String()
}

// Is implements the errors.Is interface for ErrAccountNotFound
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	if t.AccountID == uuid.Nil {
		return true
	}
	return e.AccountID == t.AccountID
}

// ErrDuplicateCode indicates a system code uniqueness violation
type ErrDuplicateCode struct {
	Code string
}

func (e ErrDuplicateCode) Error() string {
	return "account with code already exists: " + e.Code
}
