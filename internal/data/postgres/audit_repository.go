package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/microfin-loan-ledger/internal/domain/audit"
	"github.com/microfin-loan-ledger/internal/platform/persistence"
)

// AuditRepository implements the audit.Repository interface for PostgreSQL.
// Rows are append-only; there are no update or delete statements.
type AuditRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewAuditRepository creates a new PostgreSQL audit trail repository
func NewAuditRepository(logger *slog.Logger, db *persistence.PostgresDB) audit.Repository {
	return &AuditRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so the audit row commits or
// rolls back together with the mutation it describes.
func (r *AuditRepository) WithTx(tx pgx.Tx) audit.Repository {
	return &AuditRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new audit record
func (r *AuditRepository) Create(ctx context.Context, record *audit.Record) error {
	query := `
		INSERT INTO audit_log (actor, action, entity_type, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		record.Actor,
		record.Action,
		record.EntityType,
		record.EntityID,
		record.Details,
		record.CreatedAt,
	).Scan(&record.ID)
	if err != nil {
		r.logger.Error("Failed to create audit record", "action", record.Action, "error", err)
		return fmt.Errorf("failed to create audit record: %w", err)
	}

	return nil
}

// ListByEntity retrieves audit records for one entity, newest first
func (r *AuditRepository) ListByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]*audit.Record, error) {
	query := `
		SELECT id, actor, action, entity_type, entity_id, details, created_at
		FROM audit_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.querier.Query(ctx, query, entityType, entityID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list audit records", "entity_type", entityType, "entity_id", entityID, "error", err)
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	defer rows.Close()

	var records []*audit.Record
	for rows.Next() {
		var record audit.Record
		err := rows.Scan(
			&record.ID,
			&record.Actor,
			&record.Action,
			&record.EntityType,
			&record.EntityID,
			&record.Details,
			&record.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan audit record", "error", err)
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over audit records", "error", err)
		return nil, fmt.Errorf("error iterating over audit records: %w", err)
	}

	return records, nil
}
