package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/microfin-loan-ledger/internal/domain/repayment"
	"github.com/microfin-loan-ledger/internal/platform/persistence"
)

// RepaymentRepository implements the repayment.Repository interface for PostgreSQL
type RepaymentRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewRepaymentRepository creates a new PostgreSQL repayment repository
func NewRepaymentRepository(logger *slog.Logger, db *persistence.PostgresDB) repayment.Repository {
	return &RepaymentRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *RepaymentRepository) WithTx(tx pgx.Tx) repayment.Repository {
	return &RepaymentRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new repayment. The unique constraint on idempotency_key
// backstops the in-transaction duplicate check; a violation maps to
// ErrDuplicateIdempotencyKey.
func (r *RepaymentRepository) Create(ctx context.Context, rep *repayment.Repayment) error {
	query := `
		INSERT INTO repayments (id, loan_id, journal_entry_id, source_account_id, amount_paid, principal_paid, interest_paid, penalty_paid, overpayment, idempotency_key, status, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12, $13)
	`

	_, err := r.querier.Exec(ctx, query,
		rep.ID,
		rep.LoanID,
		rep.JournalEntryID,
		rep.SourceAccountID,
		rep.AmountPaid,
		rep.PrincipalPaid,
		rep.InterestPaid,
		rep.PenaltyPaid,
		rep.Overpayment,
		rep.IdempotencyKey,
		rep.Status,
		rep.CreatedBy,
		rep.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return repayment.ErrDuplicateIdempotencyKey{Key: rep.IdempotencyKey}
		}
		r.logger.Error("Failed to create repayment", "loan_id", rep.LoanID.String(), "error", err)
		return fmt.Errorf("failed to create repayment: %w", err)
	}

	return nil
}

// GetByID retrieves a repayment by its ID
func (r *RepaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*repayment.Repayment, error) {
	query := `
		SELECT id, loan_id, journal_entry_id, source_account_id, amount_paid, principal_paid, interest_paid, penalty_paid, overpayment, COALESCE(idempotency_key, ''), status, created_by, created_at
		FROM repayments
		WHERE id = $1
	`

	rep, err := r.scanOne(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repayment.ErrRepaymentNotFound{RepaymentID: id}
		}
		r.logger.Error("Failed to get repayment", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get repayment: %w", err)
	}

	return rep, nil
}

// GetByIdempotencyKey retrieves a repayment by its idempotency key.
// Returns nil, nil when no repayment carries the key.
func (r *RepaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*repayment.Repayment, error) {
	query := `
		SELECT id, loan_id, journal_entry_id, source_account_id, amount_paid, principal_paid, interest_paid, penalty_paid, overpayment, COALESCE(idempotency_key, ''), status, created_by, created_at
		FROM repayments
		WHERE idempotency_key = $1
	`

	rep, err := r.scanOne(r.querier.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No prior execution of this command
		}
		r.logger.Error("Failed to get repayment by idempotency key", "key", key, "error", err)
		return nil, fmt.Errorf("failed to get repayment by idempotency key: %w", err)
	}

	return rep, nil
}

// LockForUpdate obtains a pessimistic lock on the repayment and returns its
// current state. Reversal locks the repayment before its loan.
func (r *RepaymentRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*repayment.Repayment, error) {
	query := `
		SELECT id, loan_id, journal_entry_id, source_account_id, amount_paid, principal_paid, interest_paid, penalty_paid, overpayment, COALESCE(idempotency_key, ''), status, created_by, created_at
		FROM repayments
		WHERE id = $1
		FOR UPDATE
	`

	rep, err := r.scanOne(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repayment.ErrRepaymentNotFound{RepaymentID: id}
		}
		r.logger.Error("Failed to lock repayment for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock repayment for update: %w", err)
	}

	return rep, nil
}

// MarkReversed flips the repayment status to reversed
func (r *RepaymentRepository) MarkReversed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE repayments
		SET status = $1
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, repayment.StatusReversed, id)
	if err != nil {
		r.logger.Error("Failed to mark repayment reversed", "id", id.String(), "error", err)
		return fmt.Errorf("failed to mark repayment reversed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return repayment.ErrRepaymentNotFound{RepaymentID: id}
	}

	return nil
}

func (r *RepaymentRepository) scanOne(row pgx.Row) (*repayment.Repayment, error) {
	var rep repayment.Repayment
	err := row.Scan(
		&rep.ID,
		&rep.LoanID,
		&rep.JournalEntryID,
		&rep.SourceAccountID,
		&rep.AmountPaid,
		&rep.PrincipalPaid,
		&rep.InterestPaid,
		&rep.PenaltyPaid,
		&rep.Overpayment,
		&rep.IdempotencyKey,
		&rep.Status,
		&rep.CreatedBy,
		&rep.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}
