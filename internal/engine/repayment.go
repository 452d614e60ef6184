package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/microfin-loan-ledger/internal/domain/journal"
	"github.com/microfin-loan-ledger/internal/domain/loan"
	"github.com/microfin-loan-ledger/internal/domain/repayment"
)

// RepaymentParams carries one repayment command.
type RepaymentParams struct {
	LoanID          uuid.UUID
	SourceAccountID uuid.UUID
	Amount          int64 // minor units
	IdempotencyKey  string
	Actor           string
	CorrelationID   string
	EntryDate       time.Time
}

// RepaymentResult reports the outcome of a repayment, including the replayed
// outcome when the idempotency key has already been executed.
type RepaymentResult struct {
	RepaymentID    uuid.UUID              `json:"repayment_id"`
	JournalEntryID uuid.UUID              `json:"journal_entry_id"`
	Distribution   repayment.Distribution `json:"distribution"`
	LoanStatus     loan.Status            `json:"loan_status"`
	Duplicate      bool                   `json:"duplicate"`
}

// ProcessRepayment runs the repayment waterfall in one transaction: lock
// the loan, allocate penalty then interest then principal, post one
// balanced entry, update the loan's buckets, and record the repayment with
// its idempotency key. Overpayment is credited to the client credit
// liability account rather than dropped.
//
// A command whose idempotency key already executed returns the original
// outcome with Duplicate set and performs no mutation.
func (e *Engine) ProcessRepayment(ctx context.Context, params RepaymentParams) (*RepaymentResult, error) {
	if params.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if params.EntryDate.IsZero() {
		params.EntryDate = today()
	}

	var result *RepaymentResult
	err := e.db.ExecuteLedgerTx(ctx, e.lockTimeout, func(tx pgx.Tx) error {
		repaymentRepo := e.repayments.WithTx(tx)

		// Idempotency guard, inside the transaction, before any mutation.
		if params.IdempotencyKey != "" {
			prior, err := repaymentRepo.GetByIdempotencyKey(ctx, params.IdempotencyKey)
			if err != nil {
				return err
			}
			if prior != nil {
				e.logger.Info("Repayment command replayed",
					"idempotency_key", params.IdempotencyKey,
					"repayment_id", prior.ID.String(),
				)
				result = &RepaymentResult{
					RepaymentID:    prior.ID,
					JournalEntryID: prior.JournalEntryID,
					Distribution:   prior.Distribution(),
					Duplicate:      true,
				}
				return nil
			}
		}

		lockedLoan, err := e.loans.WithTx(tx).LockForUpdate(ctx, params.LoanID)
		if err != nil {
			return mapLockError(err)
		}
		if lockedLoan.Status != loan.StatusActive {
			return ErrLoanNotActive{LoanID: lockedLoan.ID, Status: lockedLoan.Status}
		}

		dist := DistributePayment(params.Amount, lockedLoan.PenaltyOutstanding, lockedLoan.InterestOutstanding, lockedLoan.PrincipalOutstanding)

		repaymentID := uuid.New()
		draft := &journal.Draft{
			ReferenceType: journal.ReferenceRepayment,
			ReferenceID:   &repaymentID,
			Description:   "loan repayment " + params.LoanID.String(),
			EntryDate:     params.EntryDate,
			CreatedBy:     params.Actor,
			CorrelationID: params.CorrelationID,
			Lines:         repaymentLines(params.SourceAccountID, e.system, dist, params.Amount),
		}

		entry, err := e.Post(ctx, tx, draft)
		if err != nil {
			return err
		}

		lockedLoan.ApplyPayment(dist.PrincipalPaid, dist.InterestPaid, dist.PenaltyPaid)
		if err := e.loans.WithTx(tx).Update(ctx, lockedLoan); err != nil {
			return err
		}

		rep := &repayment.Repayment{
			ID:              repaymentID,
			LoanID:          params.LoanID,
			JournalEntryID:  entry.ID,
			SourceAccountID: params.SourceAccountID,
			AmountPaid:      params.Amount,
			PrincipalPaid:   dist.PrincipalPaid,
			InterestPaid:    dist.InterestPaid,
			PenaltyPaid:     dist.PenaltyPaid,
			Overpayment:     dist.Overpayment,
			IdempotencyKey:  params.IdempotencyKey,
			Status:          repayment.StatusPosted,
			CreatedBy:       params.Actor,
			CreatedAt:       time.Now(),
		}
		if err := repaymentRepo.Create(ctx, rep); err != nil {
			if errors.Is(err, repayment.ErrDuplicateIdempotencyKey{Key: params.IdempotencyKey}) {
				return ErrDuplicateCommand
			}
			return err
		}

		if err := e.recordAudit(ctx, tx, params.Actor, "repayment.process", "repayment", rep.ID.String(), rep); err != nil {
			return err
		}
		if err := e.enqueueArchive(ctx, tx, entry); err != nil {
			return err
		}

		result = &RepaymentResult{
			RepaymentID:    rep.ID,
			JournalEntryID: entry.ID,
			Distribution:   dist,
			LoanStatus:     lockedLoan.Status,
		}
		return nil
	})
	if err != nil {
		return nil, mapLockError(err)
	}
	return result, nil
}

// repaymentLines builds the balanced line set for one repayment: the source
// account is debited by the full payment; portfolio, income, and client
// credit absorb the waterfall's allocation on the credit side. Zero-amount
// legs are omitted.
func repaymentLines(sourceID uuid.UUID, system *SystemAccounts, dist repayment.Distribution, amount int64) []journal.DraftLine {
	lines := []journal.DraftLine{
		{AccountID: sourceID, Debit: amount},
	}
	if dist.PrincipalPaid > 0 {
		lines = append(lines, journal.DraftLine{AccountID: system.Portfolio.ID, Credit: dist.PrincipalPaid})
	}
	if revenue := dist.InterestPaid + dist.PenaltyPaid; revenue > 0 {
		lines = append(lines, journal.DraftLine{AccountID: system.Income.ID, Credit: revenue})
	}
	if dist.Overpayment > 0 {
		lines = append(lines, journal.DraftLine{AccountID: system.ClientCredit.ID, Credit: dist.Overpayment})
	}
	return lines
}

// today returns the current date at midnight UTC, the default entry date.
func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}
