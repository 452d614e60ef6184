package audit

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository defines audit trail persistence operations. The trail is
// append-only; records are never updated or deleted.
type Repository interface {
	Create(ctx context.Context, record *Record) error
	ListByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]*Record, error)
	WithTx(tx pgx.Tx) Repository
}
