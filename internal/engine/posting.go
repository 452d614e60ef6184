package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/microfin-loan-ledger/internal/domain/account"
	"github.com/microfin-loan-ledger/internal/domain/journal"
)

// Post validates and writes one balanced journal entry inside the caller's
// transaction, applying category-signed deltas to every touched account's
// cached balance. The entry and the balances become visible together at
// commit, never independently.
//
// Accounts are locked FOR UPDATE in ascending id order before any
// validation against their state; this is the engine's slice of the global
// lock order.
func (e *Engine) Post(ctx context.Context, tx pgx.Tx, draft *journal.Draft) (*journal.Entry, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	if !draft.Balanced() {
		debits, credits := draft.Totals()
		e.logger.Warn("Rejected imbalanced draft",
			"reference_type", draft.ReferenceType,
			"debits", debits,
			"credits", credits,
		)
		return nil, ErrImbalanced
	}

	if err := e.checkPeriod(ctx, tx, draft.EntryDate); err != nil {
		return nil, err
	}

	accountRepo := e.accounts.WithTx(tx)
	locked := make(map[uuid.UUID]*account.Account)
	for _, id := range draft.AccountIDs() {
		acc, err := accountRepo.LockForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, account.ErrAccountNotFound{}) {
				return nil, ErrUnknownAccount{AccountID: id}
			}
			return nil, mapLockError(err)
		}
		if !acc.Active {
			return nil, ErrAccountInactive{AccountID: id}
		}
		locked[id] = acc
	}

	entry := &journal.Entry{
		ID:            uuid.New(),
		ReferenceType: draft.ReferenceType,
		ReferenceID:   draft.ReferenceID,
		Description:   draft.Description,
		EntryDate:     draft.EntryDate,
		CreatedBy:     draft.CreatedBy,
		CorrelationID: draft.CorrelationID,
		CreatedAt:     time.Now(),
	}
	deltas := make(map[uuid.UUID]int64, len(locked))
	for _, line := range draft.Lines {
		entry.Lines = append(entry.Lines, journal.Line{
			ID:        uuid.New(),
			EntryID:   entry.ID,
			AccountID: line.AccountID,
			Debit:     line.Debit,
			Credit:    line.Credit,
		})
		deltas[line.AccountID] += locked[line.AccountID].LineDelta(line.Debit, line.Credit)
	}

	if err := e.journals.WithTx(tx).CreateEntry(ctx, entry); err != nil {
		return nil, err
	}

	// Deltas follow the same ascending order the locks were taken in.
	for _, id := range draft.AccountIDs() {
		if deltas[id] == 0 {
			continue
		}
		if err := accountRepo.ApplyDelta(ctx, id, deltas[id]); err != nil {
			return nil, err
		}
	}

	e.logger.Info("Posted journal entry",
		"entry_id", entry.ID.String(),
		"reference_type", entry.ReferenceType,
		"lines", len(entry.Lines),
	)

	return entry, nil
}

// checkPeriod rejects entry dates inside a closed finance period unless a
// backdate approval covers the date.
func (e *Engine) checkPeriod(ctx context.Context, tx pgx.Tx, entryDate time.Time) error {
	periodRepo := e.periods.WithTx(tx)

	closed, err := periodRepo.IsClosed(ctx, entryDate)
	if err != nil {
		return fmt.Errorf("failed to check finance period: %w", err)
	}
	if !closed {
		return nil
	}

	approved, err := periodRepo.HasBackdateApproval(ctx, entryDate)
	if err != nil {
		return fmt.Errorf("failed to check backdate approval: %w", err)
	}
	if !approved {
		return ErrClosedPeriod{EntryDate: entryDate}
	}

	return nil
}

// AdjustmentParams describes a manual journal entry posted outside the
// business orchestrators.
type AdjustmentParams struct {
	Lines         []journal.DraftLine
	Description   string
	EntryDate     time.Time
	Actor         string
	CorrelationID string
}

// PostAdjustment posts a manual adjustment entry in its own transaction,
// including the audit row and the archive outbox row.
func (e *Engine) PostAdjustment(ctx context.Context, params AdjustmentParams) (*journal.Entry, error) {
	var entry *journal.Entry
	err := e.db.ExecuteLedgerTx(ctx, e.lockTimeout, func(tx pgx.Tx) error {
		draft := &journal.Draft{
			ReferenceType: journal.ReferenceAdjustment,
			Description:   params.Description,
			EntryDate:     params.EntryDate,
			CreatedBy:     params.Actor,
			CorrelationID: params.CorrelationID,
			Lines:         params.Lines,
		}

		var postErr error
		entry, postErr = e.Post(ctx, tx, draft)
		if postErr != nil {
			return postErr
		}

		if err := e.recordAudit(ctx, tx, params.Actor, "journal.adjust", "journal_entry", entry.ID.String(), entry); err != nil {
			return err
		}
		return e.enqueueArchive(ctx, tx, entry)
	})
	if err != nil {
		return nil, mapLockError(err)
	}
	return entry, nil
}
