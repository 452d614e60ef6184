package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/microfin-loan-ledger/internal/domain/loan"
	"github.com/microfin-loan-ledger/internal/platform/persistence"
)

// LoanRepository implements the loan.Repository interface for PostgreSQL
type LoanRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewLoanRepository creates a new PostgreSQL loan repository
func NewLoanRepository(logger *slog.Logger, db *persistence.PostgresDB) loan.Repository {
	return &LoanRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *LoanRepository) WithTx(tx pgx.Tx) loan.Repository {
	return &LoanRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new loan
func (r *LoanRepository) Create(ctx context.Context, l *loan.Loan) error {
	query := `
		INSERT INTO loans (id, borrower, principal_outstanding, interest_outstanding, penalty_outstanding, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		l.ID,
		l.Borrower,
		l.PrincipalOutstanding,
		l.InterestOutstanding,
		l.PenaltyOutstanding,
		l.Status,
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create loan", "error", err)
		return fmt.Errorf("failed to create loan: %w", err)
	}

	return nil
}

// GetByID retrieves a loan by its ID
func (r *LoanRepository) GetByID(ctx context.Context, id uuid.UUID) (*loan.Loan, error) {
	query := `
		SELECT id, borrower, principal_outstanding, interest_outstanding, penalty_outstanding, status, created_at, updated_at
		FROM loans
		WHERE id = $1
	`

	var l loan.Loan
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&l.ID,
		&l.Borrower,
		&l.PrincipalOutstanding,
		&l.InterestOutstanding,
		&l.PenaltyOutstanding,
		&l.Status,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, loan.ErrLoanNotFound{LoanID: id}
		}
		r.logger.Error("Failed to get loan", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}

	return &l, nil
}

// Update persists the loan's outstanding buckets and status. The caller must
// hold the row lock acquired via LockForUpdate in the same transaction.
func (r *LoanRepository) Update(ctx context.Context, l *loan.Loan) error {
	query := `
		UPDATE loans
		SET principal_outstanding = $1, interest_outstanding = $2, penalty_outstanding = $3, status = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := r.querier.Exec(ctx, query,
		l.PrincipalOutstanding,
		l.InterestOutstanding,
		l.PenaltyOutstanding,
		l.Status,
		l.UpdatedAt,
		l.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update loan", "id", l.ID.String(), "error", err)
		return fmt.Errorf("failed to update loan: %w", err)
	}

	if result.RowsAffected() == 0 {
		return loan.ErrLoanNotFound{LoanID: l.ID}
	}

	return nil
}

// LockForUpdate obtains a pessimistic lock on the loan and returns its current
// state. Orchestrators lock loans before accounts, multiple loans in ascending
// id order.
func (r *LoanRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*loan.Loan, error) {
	query := `
		SELECT id, borrower, principal_outstanding, interest_outstanding, penalty_outstanding, status, created_at, updated_at
		FROM loans
		WHERE id = $1
		FOR UPDATE
	`

	var l loan.Loan
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&l.ID,
		&l.Borrower,
		&l.PrincipalOutstanding,
		&l.InterestOutstanding,
		&l.PenaltyOutstanding,
		&l.Status,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, loan.ErrLoanNotFound{LoanID: id}
		}
		r.logger.Error("Failed to lock loan for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock loan for update: %w", err)
	}

	return &l, nil
}
