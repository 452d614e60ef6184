package period

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// Period is a finance period. Entries may not be posted into a closed
// period unless a backdate approval covers the entry date.
type Period struct {
	ID       int64     `json:"id"`
	StartsOn time.Time `json:"starts_on"`
	EndsOn   time.Time `json:"ends_on"`
	Closed   bool      `json:"closed"`
}

// BackdateApproval authorizes posting into a closed period for a specific
// entry date.
type BackdateApproval struct {
	ID         int64     `json:"id"`
	EntryDate  time.Time `json:"entry_date"`
	ApprovedBy string    `json:"approved_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// Repository defines finance period persistence operations
type Repository interface {
	Create(ctx context.Context, p *Period) error

	// IsClosed reports whether date falls inside a closed period. Dates not
	// covered by any period are open.
	IsClosed(ctx context.Context, date time.Time) (bool, error)

	// HasBackdateApproval reports whether an approval exists for the date.
	HasBackdateApproval(ctx context.Context, date time.Time) (bool, error)

	Close(ctx context.Context, id int64) error
	ApproveBackdate(ctx context.Context, date time.Time, approvedBy string) error
	WithTx(tx pgx.Tx) Repository
}
