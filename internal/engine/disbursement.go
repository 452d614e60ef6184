package engine

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/microfin-loan-ledger/internal/domain/account"
	"github.com/microfin-loan-ledger/internal/domain/journal"
	"github.com/microfin-loan-ledger/internal/domain/loan"
)

// DisbursementParams carries one bulk disbursement command.
type DisbursementParams struct {
	LoanIDs         []uuid.UUID
	SourceAccountID uuid.UUID
	Actor           string
	CorrelationID   string
	EntryDate       time.Time
}

// DisbursementResult reports which loans were funded and which were skipped.
type DisbursementResult struct {
	JournalEntryID uuid.UUID   `json:"journal_entry_id"`
	DisbursedIDs   []uuid.UUID `json:"disbursed_ids"`
	FailedIDs      []uuid.UUID `json:"failed_ids"`
	TotalDisbursed int64       `json:"total_disbursed"`
}

// BulkDisburse funds a batch of pending loans from one source account in a
// single transaction and a single journal entry. Loans that are missing or
// no longer pending are skipped into FailedIDs without aborting the batch;
// a source balance unable to cover the surviving loans aborts the whole
// batch with ErrInsufficientFunds, funding nothing partially.
func (e *Engine) BulkDisburse(ctx context.Context, params DisbursementParams) (*DisbursementResult, error) {
	if len(params.LoanIDs) == 0 {
		return nil, ErrEmptyBatch
	}
	if params.EntryDate.IsZero() {
		params.EntryDate = today()
	}

	var result *DisbursementResult
	err := e.db.ExecuteLedgerTx(ctx, e.lockTimeout, func(tx pgx.Tx) error {
		loanRepo := e.loans.WithTx(tx)

		// Ascending id order keeps concurrent batches from deadlocking on
		// overlapping loan sets.
		var survivors []*loan.Loan
		var failed []uuid.UUID
		var total int64
		for _, id := range sortedUnique(params.LoanIDs) {
			locked, err := loanRepo.LockForUpdate(ctx, id)
			if err != nil {
				if errors.Is(err, loan.ErrLoanNotFound{}) {
					failed = append(failed, id)
					continue
				}
				return mapLockError(err)
			}
			if locked.Status != loan.StatusPending {
				failed = append(failed, id)
				continue
			}
			survivors = append(survivors, locked)
			total += locked.PrincipalOutstanding
		}

		if len(survivors) == 0 {
			result = &DisbursementResult{FailedIDs: failed}
			return nil
		}

		// The liquidity check needs the source row locked, but locking it
		// alone would invert the account lock order against a concurrent
		// posting that takes portfolio first. Lock both rows ascending here;
		// Post's later locks on the same rows are no-ops.
		accountRepo := e.accounts.WithTx(tx)
		var source *account.Account
		for _, id := range sortedUnique([]uuid.UUID{e.system.Portfolio.ID, params.SourceAccountID}) {
			acc, err := accountRepo.LockForUpdate(ctx, id)
			if err != nil {
				if errors.Is(err, account.ErrAccountNotFound{}) {
					return ErrUnknownAccount{AccountID: id}
				}
				return mapLockError(err)
			}
			if acc.ID == params.SourceAccountID {
				source = acc
			}
		}
		if source.Balance < total {
			return ErrInsufficientFunds{AccountID: source.ID, Available: source.Balance, Required: total}
		}

		draft := &journal.Draft{
			ReferenceType: journal.ReferenceBulkDisbursement,
			Description:   "bulk disbursement",
			EntryDate:     params.EntryDate,
			CreatedBy:     params.Actor,
			CorrelationID: params.CorrelationID,
		}
		for _, l := range survivors {
			draft.Lines = append(draft.Lines,
				journal.DraftLine{AccountID: e.system.Portfolio.ID, Debit: l.PrincipalOutstanding},
				journal.DraftLine{AccountID: params.SourceAccountID, Credit: l.PrincipalOutstanding},
			)
		}

		entry, err := e.Post(ctx, tx, draft)
		if err != nil {
			return err
		}

		disbursed := make([]uuid.UUID, 0, len(survivors))
		for _, l := range survivors {
			l.Activate()
			if err := loanRepo.Update(ctx, l); err != nil {
				return err
			}
			disbursed = append(disbursed, l.ID)
		}

		if err := e.recordAudit(ctx, tx, params.Actor, "disbursement.bulk", "journal_entry", entry.ID.String(), map[string]any{
			"disbursed_ids": disbursed,
			"failed_ids":    failed,
			"total":         total,
		}); err != nil {
			return err
		}
		if err := e.enqueueArchive(ctx, tx, entry); err != nil {
			return err
		}

		result = &DisbursementResult{
			JournalEntryID: entry.ID,
			DisbursedIDs:   disbursed,
			FailedIDs:      failed,
			TotalDisbursed: total,
		}
		return nil
	})
	if err != nil {
		return nil, mapLockError(err)
	}
	return result, nil
}

// sortedUnique returns the ids deduplicated and in ascending byte order,
// the lock order for both loan and account rows.
func sortedUnique(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}
