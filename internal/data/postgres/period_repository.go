package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/microfin-loan-ledger/internal/domain/period"
	"github.com/microfin-loan-ledger/internal/platform/persistence"
)

// PeriodRepository implements the period.Repository interface for PostgreSQL
type PeriodRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewPeriodRepository creates a new PostgreSQL finance period repository
func NewPeriodRepository(logger *slog.Logger, db *persistence.PostgresDB) period.Repository {
	return &PeriodRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *PeriodRepository) WithTx(tx pgx.Tx) period.Repository {
	return &PeriodRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new finance period
func (r *PeriodRepository) Create(ctx context.Context, p *period.Period) error {
	query := `
		INSERT INTO finance_periods (starts_on, ends_on, closed)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query, p.StartsOn, p.EndsOn, p.Closed).Scan(&p.ID)
	if err != nil {
		r.logger.Error("Failed to create finance period", "error", err)
		return fmt.Errorf("failed to create finance period: %w", err)
	}

	return nil
}

// IsClosed reports whether date falls inside a closed period. Dates outside
// any period are open.
func (r *PeriodRepository) IsClosed(ctx context.Context, date time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM finance_periods
			WHERE closed = TRUE AND $1 BETWEEN starts_on AND ends_on
		)
	`

	var closed bool
	err := r.querier.QueryRow(ctx, query, date).Scan(&closed)
	if err != nil {
		r.logger.Error("Failed to check period state", "date", date.Format("2006-01-02"), "error", err)
		return false, fmt.Errorf("failed to check period state: %w", err)
	}

	return closed, nil
}

// HasBackdateApproval reports whether an approval exists for the entry date
func (r *PeriodRepository) HasBackdateApproval(ctx context.Context, date time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM backdate_approvals
			WHERE entry_date = $1
		)
	`

	var approved bool
	err := r.querier.QueryRow(ctx, query, date).Scan(&approved)
	if err != nil {
		r.logger.Error("Failed to check backdate approval", "date", date.Format("2006-01-02"), "error", err)
		return false, fmt.Errorf("failed to check backdate approval: %w", err)
	}

	return approved, nil
}

// Close marks a period closed
func (r *PeriodRepository) Close(ctx context.Context, id int64) error {
	query := `
		UPDATE finance_periods
		SET closed = TRUE
		WHERE id = $1
	`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to close finance period", "id", id, "error", err)
		return fmt.Errorf("failed to close finance period: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("finance period not found: %d", id)
	}

	return nil
}

// ApproveBackdate records an approval for posting into a closed period on
// the given entry date
func (r *PeriodRepository) ApproveBackdate(ctx context.Context, date time.Time, approvedBy string) error {
	query := `
		INSERT INTO backdate_approvals (entry_date, approved_by, created_at)
		VALUES ($1, $2, NOW())
	`

	_, err := r.querier.Exec(ctx, query, date, approvedBy)
	if err != nil {
		r.logger.Error("Failed to record backdate approval", "date", date.Format("2006-01-02"), "error", err)
		return fmt.Errorf("failed to record backdate approval: %w", err)
	}

	return nil
}
