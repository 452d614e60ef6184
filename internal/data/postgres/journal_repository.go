package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/microfin-loan-ledger/internal/domain/journal"
	"github.com/microfin-loan-ledger/internal/platform/persistence"
)

// JournalRepository implements the journal.Repository interface for PostgreSQL.
// Entries and lines are append-only; no update statements exist here.
type JournalRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewJournalRepository creates a new PostgreSQL journal repository
func NewJournalRepository(logger *slog.Logger, db *persistence.PostgresDB) journal.Repository {
	return &JournalRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations
func (r *JournalRepository) WithTx(tx pgx.Tx) journal.Repository {
	return &JournalRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// CreateEntry inserts the entry header and all of its lines. Callers run this
// inside a transaction so the entry is never visible partially written.
func (r *JournalRepository) CreateEntry(ctx context.Context, entry *journal.Entry) error {
	entryQuery := `
		INSERT INTO journal_entries (id, reference_type, reference_id, description, entry_date, created_by, correlation_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, entryQuery,
		entry.ID,
		entry.ReferenceType,
		entry.ReferenceID,
		entry.Description,
		entry.EntryDate,
		entry.CreatedBy,
		entry.CorrelationID,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create journal entry", "id", entry.ID.String(), "error", err)
		return fmt.Errorf("failed to create journal entry: %w", err)
	}

	lineQuery := `
		INSERT INTO journal_lines (id, entry_id, account_id, debit, credit)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, line := range entry.Lines {
		_, err := r.querier.Exec(ctx, lineQuery,
			line.ID,
			line.EntryID,
			line.AccountID,
			line.Debit,
			line.Credit,
		)
		if err != nil {
			r.logger.Error("Failed to create journal line",
				"entry_id", entry.ID.String(),
				"account_id", line.AccountID.String(),
				"error", err,
			)
			return fmt.Errorf("failed to create journal line: %w", err)
		}
	}

	return nil
}

// GetEntryByID retrieves an entry with its lines
func (r *JournalRepository) GetEntryByID(ctx context.Context, id uuid.UUID) (*journal.Entry, error) {
	entryQuery := `
		SELECT id, reference_type, reference_id, description, entry_date, created_by, COALESCE(correlation_id, ''), created_at
		FROM journal_entries
		WHERE id = $1
	`

	var entry journal.Entry
	err := r.querier.QueryRow(ctx, entryQuery, id).Scan(
		&entry.ID,
		&entry.ReferenceType,
		&entry.ReferenceID,
		&entry.Description,
		&entry.EntryDate,
		&entry.CreatedBy,
		&entry.CorrelationID,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, journal.ErrEntryNotFound{EntryID: id}
		}
		r.logger.Error("Failed to get journal entry", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get journal entry: %w", err)
	}

	lineQuery := `
		SELECT id, entry_id, account_id, debit, credit
		FROM journal_lines
		WHERE entry_id = $1
		ORDER BY id ASC
	`

	rows, err := r.querier.Query(ctx, lineQuery, id)
	if err != nil {
		r.logger.Error("Failed to get journal lines", "entry_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get journal lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line journal.Line
		err := rows.Scan(
			&line.ID,
			&line.EntryID,
			&line.AccountID,
			&line.Debit,
			&line.Credit,
		)
		if err != nil {
			r.logger.Error("Failed to scan journal line", "error", err)
			return nil, fmt.Errorf("failed to scan journal line: %w", err)
		}
		entry.Lines = append(entry.Lines, line)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over journal lines", "error", err)
		return nil, fmt.Errorf("error iterating over journal lines: %w", err)
	}

	return &entry, nil
}

// ExistsByReference reports whether any entry carries the given reference.
// Reversal uses this to reject a second reversal of the same repayment.
func (r *JournalRepository) ExistsByReference(ctx context.Context, referenceType string, referenceID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM journal_entries
			WHERE reference_type = $1 AND reference_id = $2
		)
	`

	var exists bool
	err := r.querier.QueryRow(ctx, query, referenceType, referenceID).Scan(&exists)
	if err != nil {
		r.logger.Error("Failed to check entry reference",
			"reference_type", referenceType,
			"reference_id", referenceID.String(),
			"error", err,
		)
		return false, fmt.Errorf("failed to check entry reference: %w", err)
	}

	return exists, nil
}

// TotalsByDate sums debit and credit across all lines of entries effective
// on the given date.
func (r *JournalRepository) TotalsByDate(ctx context.Context, date time.Time) (journal.DateTotals, error) {
	query := `
		SELECT COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
		FROM journal_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		WHERE e.entry_date = $1
	`

	var totals journal.DateTotals
	err := r.querier.QueryRow(ctx, query, date).Scan(&totals.Debits, &totals.Credits)
	if err != nil {
		r.logger.Error("Failed to sum journal totals", "date", date.Format("2006-01-02"), "error", err)
		return journal.DateTotals{}, fmt.Errorf("failed to sum journal totals: %w", err)
	}

	return totals, nil
}

// UnbalancedEntryIDs returns ids of entries dated date whose own lines do not
// balance. A non-empty result means the posting path was bypassed.
func (r *JournalRepository) UnbalancedEntryIDs(ctx context.Context, date time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT e.id
		FROM journal_entries e
		JOIN journal_lines l ON l.entry_id = e.id
		WHERE e.entry_date = $1
		GROUP BY e.id
		HAVING SUM(l.debit) <> SUM(l.credit)
		ORDER BY e.id ASC
	`

	rows, err := r.querier.Query(ctx, query, date)
	if err != nil {
		r.logger.Error("Failed to find unbalanced entries", "date", date.Format("2006-01-02"), "error", err)
		return nil, fmt.Errorf("failed to find unbalanced entries: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			r.logger.Error("Failed to scan unbalanced entry id", "error", err)
			return nil, fmt.Errorf("failed to scan unbalanced entry id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over unbalanced entries", "error", err)
		return nil, fmt.Errorf("error iterating over unbalanced entries: %w", err)
	}

	return ids, nil
}
