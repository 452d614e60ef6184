package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Archive is the read-optimized copy of the journal fed by the outbox
// poller. It is eventually consistent with the Postgres journal; the
// Postgres side remains the source of truth.
type Archive interface {
	// Save stores an entry, skipping silently nothing: a duplicate entry id
	// returns ErrDuplicateArchiveEntry so the poller can treat replays as
	// already-done.
	Save(ctx context.Context, entry *Entry) error
	GetByEntryID(ctx context.Context, entryID uuid.UUID) (*Entry, error)

	// GetByAccountID returns entries containing at least one line touching
	// the account, newest first.
	GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Entry, error)
	CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error)
	GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*Entry, error)
}

// ErrDuplicateArchiveEntry indicates the entry was already archived
type ErrDuplicateArchiveEntry struct {
	EntryID uuid.UUID
}

func (e ErrDuplicateArchiveEntry) Error() string {
	return "journal entry already archived: " + e.EntryID.String()
}
