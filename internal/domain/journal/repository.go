package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DateTotals aggregates posted amounts for one effective date.
type DateTotals struct {
	Debits  int64
	Credits int64
}

// Repository manages journal entry persistence. Entries and lines are
// append-only; there are no update operations.
type Repository interface {
	// CreateEntry inserts the entry and all of its lines.
	CreateEntry(ctx context.Context, entry *Entry) error
	GetEntryByID(ctx context.Context, id uuid.UUID) (*Entry, error)

	// ExistsByReference reports whether any entry carries the given
	// reference type and id. Used to detect prior reversals.
	ExistsByReference(ctx context.Context, referenceType string, referenceID uuid.UUID) (bool, error)

	// TotalsByDate sums debit and credit across all lines of entries whose
	// effective date is exactly date.
	TotalsByDate(ctx context.Context, date time.Time) (DateTotals, error)

	// UnbalancedEntryIDs returns the ids of entries dated date whose own
	// lines do not balance. Non-empty means posting-time validation was
	// bypassed or data was tampered with.
	UnbalancedEntryIDs(ctx context.Context, date time.Time) ([]uuid.UUID, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrEntryNotFound indicates a missing journal entry
type ErrEntryNotFound struct {
	EntryID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "journal entry not found: " + e.EntryID.String()
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	if t.EntryID == uuid.Nil {
		return true
	}
	return e.EntryID == t.EntryID
}
