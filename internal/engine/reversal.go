package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/microfin-loan-ledger/internal/domain/journal"
	"github.com/microfin-loan-ledger/internal/domain/loan"
)

// ReversalParams carries one repayment reversal command.
type ReversalParams struct {
	RepaymentID   uuid.UUID
	Reason        string
	Actor         string
	CorrelationID string
	EntryDate     time.Time
}

// ReversalResult reports the mirror entry and the loan's restored state.
type ReversalResult struct {
	JournalEntryID uuid.UUID   `json:"journal_entry_id"`
	LoanStatus     loan.Status `json:"loan_status"`
}

// ReverseRepayment undoes a posted repayment by mirroring every line of its
// original journal entry (debits become credits and vice versa), restoring
// the loan's outstanding buckets, and marking the repayment reversed. The
// original entry is never edited.
//
// A loan that has left the active/completed states cannot accept a
// reversal: force-reactivating a defaulted loan would contradict its
// written-off treatment, so the call fails with ErrLoanNotReversible.
func (e *Engine) ReverseRepayment(ctx context.Context, params ReversalParams) (*ReversalResult, error) {
	if params.EntryDate.IsZero() {
		params.EntryDate = today()
	}

	var result *ReversalResult
	err := e.db.ExecuteLedgerTx(ctx, e.lockTimeout, func(tx pgx.Tx) error {
		journalRepo := e.journals.WithTx(tx)

		rep, err := e.repayments.WithTx(tx).LockForUpdate(ctx, params.RepaymentID)
		if err != nil {
			return mapLockError(err)
		}
		if rep.IsReversed() {
			return ErrAlreadyReversed{RepaymentID: rep.ID}
		}

		// Belt and braces: a reversal entry referencing this repayment means
		// a prior reversal committed even if the status flip was lost.
		reversed, err := journalRepo.ExistsByReference(ctx, journal.ReferenceReversal, rep.ID)
		if err != nil {
			return err
		}
		if reversed {
			return ErrAlreadyReversed{RepaymentID: rep.ID}
		}

		lockedLoan, err := e.loans.WithTx(tx).LockForUpdate(ctx, rep.LoanID)
		if err != nil {
			return mapLockError(err)
		}
		if lockedLoan.Status != loan.StatusActive && lockedLoan.Status != loan.StatusCompleted {
			return ErrLoanNotReversible{LoanID: lockedLoan.ID, Status: lockedLoan.Status}
		}

		original, err := journalRepo.GetEntryByID(ctx, rep.JournalEntryID)
		if err != nil {
			return err
		}

		description := "reversal of repayment " + rep.ID.String()
		if params.Reason != "" {
			description += ": " + params.Reason
		}
		draft := journal.Mirror(original, journal.ReferenceReversal, &rep.ID, description, params.Actor, params.EntryDate)
		draft.CorrelationID = params.CorrelationID

		entry, err := e.Post(ctx, tx, draft)
		if err != nil {
			return err
		}

		lockedLoan.RestorePayment(rep.PrincipalPaid, rep.InterestPaid, rep.PenaltyPaid)
		if err := e.loans.WithTx(tx).Update(ctx, lockedLoan); err != nil {
			return err
		}

		if err := e.repayments.WithTx(tx).MarkReversed(ctx, rep.ID); err != nil {
			return err
		}

		if err := e.recordAudit(ctx, tx, params.Actor, "repayment.reverse", "repayment", rep.ID.String(), map[string]any{
			"journal_entry_id": entry.ID,
			"reason":           params.Reason,
		}); err != nil {
			return err
		}
		if err := e.enqueueArchive(ctx, tx, entry); err != nil {
			return err
		}

		result = &ReversalResult{
			JournalEntryID: entry.ID,
			LoanStatus:     lockedLoan.Status,
		}
		return nil
	})
	if err != nil {
		return nil, mapLockError(err)
	}
	return result, nil
}
