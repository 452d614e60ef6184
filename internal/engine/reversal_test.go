package engine

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/microfin-loan-ledger/internal/domain/account"
	"github.com/microfin-loan-ledger/internal/domain/journal"
	"github.com/microfin-loan-ledger/internal/domain/loan"
	"github.com/microfin-loan-ledger/internal/domain/repayment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEngine_ReverseRepayment(t *testing.T) {
	ctx := context.Background()

	newPostedRepayment := func(loanID uuid.UUID) *repayment.Repayment {
		return &repayment.Repayment{
			ID:             uuid.New(),
			LoanID:         loanID,
			JournalEntryID: uuid.New(),
			AmountPaid:     200000,
			PenaltyPaid:    30000,
			InterestPaid:   120000,
			PrincipalPaid:  50000,
			Status:         repayment.StatusPosted,
		}
	}

	t.Run("mirrors lines and restores loan buckets", func(t *testing.T) {
		h := newTestHarness(t)
		source := activeAccount(account.CategoryAsset)

		activeLoan := &loan.Loan{
			ID:                   uuid.New(),
			PrincipalOutstanding: 950000,
			Status:               loan.StatusActive,
		}
		rep := newPostedRepayment(activeLoan.ID)

		original := &journal.Entry{
			ID:            rep.JournalEntryID,
			ReferenceType: journal.ReferenceRepayment,
			ReferenceID:   &rep.ID,
			EntryDate:     time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			Lines: []journal.Line{
				{ID: uuid.New(), EntryID: rep.JournalEntryID, AccountID: source.ID, Debit: 200000},
				{ID: uuid.New(), EntryID: rep.JournalEntryID, AccountID: h.system.Portfolio.ID, Credit: 50000},
				{ID: uuid.New(), EntryID: rep.JournalEntryID, AccountID: h.system.Income.ID, Credit: 150000},
			},
		}

		h.repayments.On("LockForUpdate", mock.Anything, rep.ID).Return(rep, nil)
		h.journals.On("ExistsByReference", mock.Anything, journal.ReferenceReversal, rep.ID).Return(false, nil)
		h.loans.On("LockForUpdate", mock.Anything, activeLoan.ID).Return(activeLoan, nil)
		h.journals.On("GetEntryByID", mock.Anything, rep.JournalEntryID).Return(original, nil)
		h.expectOpenPeriod()
		h.accounts.On("LockForUpdate", mock.Anything, source.ID).Return(source, nil)
		h.accounts.On("LockForUpdate", mock.Anything, h.system.Portfolio.ID).Return(h.system.Portfolio, nil)
		h.accounts.On("LockForUpdate", mock.Anything, h.system.Income.ID).Return(h.system.Income, nil)
		h.journals.On("CreateEntry", mock.Anything, mock.MatchedBy(func(entry *journal.Entry) bool {
			if entry.ReferenceType != journal.ReferenceReversal || len(entry.Lines) != 3 {
				return false
			}
			// Every mirrored line swaps sides against its original.
			for i, line := range entry.Lines {
				if line.Debit != original.Lines[i].Credit || line.Credit != original.Lines[i].Debit {
					return false
				}
			}
			return true
		})).Return(nil)
		h.accounts.On("ApplyDelta", mock.Anything, source.ID, int64(-200000)).Return(nil)
		h.accounts.On("ApplyDelta", mock.Anything, h.system.Portfolio.ID, int64(50000)).Return(nil)
		h.accounts.On("ApplyDelta", mock.Anything, h.system.Income.ID, int64(-150000)).Return(nil)
		h.loans.On("Update", mock.Anything, activeLoan).Return(nil)
		h.repayments.On("MarkReversed", mock.Anything, rep.ID).Return(nil)
		h.expectSideEffects()

		result, err := h.engine.ReverseRepayment(ctx, ReversalParams{
			RepaymentID: rep.ID,
			Reason:      "posted against wrong loan",
			Actor:       "supervisor-1",
		})
		require.NoError(t, err)
		assert.Equal(t, loan.StatusActive, result.LoanStatus)

		// Outstanding buckets restored to their pre-repayment values.
		assert.Equal(t, int64(1000000), activeLoan.PrincipalOutstanding)
		assert.Equal(t, int64(120000), activeLoan.InterestOutstanding)
		assert.Equal(t, int64(30000), activeLoan.PenaltyOutstanding)
		h.journals.AssertExpectations(t)
		h.repayments.AssertExpectations(t)
	})

	t.Run("already reversed status", func(t *testing.T) {
		h := newTestHarness(t)
		rep := newPostedRepayment(uuid.New())
		rep.Status = repayment.StatusReversed

		h.repayments.On("LockForUpdate", mock.Anything, rep.ID).Return(rep, nil)

		result, err := h.engine.ReverseRepayment(ctx, ReversalParams{RepaymentID: rep.ID, Actor: "supervisor-1"})
		assert.ErrorIs(t, err, ErrAlreadyReversed{RepaymentID: rep.ID})
		assert.Nil(t, result)
		h.journals.AssertNotCalled(t, "CreateEntry", mock.Anything, mock.Anything)
	})

	t.Run("prior reversal entry exists", func(t *testing.T) {
		h := newTestHarness(t)
		rep := newPostedRepayment(uuid.New())

		h.repayments.On("LockForUpdate", mock.Anything, rep.ID).Return(rep, nil)
		h.journals.On("ExistsByReference", mock.Anything, journal.ReferenceReversal, rep.ID).Return(true, nil)

		_, err := h.engine.ReverseRepayment(ctx, ReversalParams{RepaymentID: rep.ID, Actor: "supervisor-1"})
		assert.ErrorIs(t, err, ErrAlreadyReversed{RepaymentID: rep.ID})
	})

	t.Run("defaulted loan rejects reversal", func(t *testing.T) {
		h := newTestHarness(t)
		defaulted := &loan.Loan{ID: uuid.New(), Status: loan.StatusDefaulted}
		rep := newPostedRepayment(defaulted.ID)

		h.repayments.On("LockForUpdate", mock.Anything, rep.ID).Return(rep, nil)
		h.journals.On("ExistsByReference", mock.Anything, journal.ReferenceReversal, rep.ID).Return(false, nil)
		h.loans.On("LockForUpdate", mock.Anything, defaulted.ID).Return(defaulted, nil)

		_, err := h.engine.ReverseRepayment(ctx, ReversalParams{RepaymentID: rep.ID, Actor: "supervisor-1"})
		assert.ErrorIs(t, err, ErrLoanNotReversible{LoanID: defaulted.ID})
		h.repayments.AssertNotCalled(t, "MarkReversed", mock.Anything, mock.Anything)
	})

	t.Run("completed loan reactivates", func(t *testing.T) {
		h := newTestHarness(t)
		source := activeAccount(account.CategoryAsset)

		completed := &loan.Loan{ID: uuid.New(), Status: loan.StatusCompleted}
		rep := newPostedRepayment(completed.ID)
		rep.PenaltyPaid = 0
		rep.InterestPaid = 0
		rep.PrincipalPaid = 200000

		original := &journal.Entry{
			ID:            rep.JournalEntryID,
			ReferenceType: journal.ReferenceRepayment,
			ReferenceID:   &rep.ID,
			EntryDate:     time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			Lines: []journal.Line{
				{ID: uuid.New(), EntryID: rep.JournalEntryID, AccountID: source.ID, Debit: 200000},
				{ID: uuid.New(), EntryID: rep.JournalEntryID, AccountID: h.system.Portfolio.ID, Credit: 200000},
			},
		}

		h.repayments.On("LockForUpdate", mock.Anything, rep.ID).Return(rep, nil)
		h.journals.On("ExistsByReference", mock.Anything, journal.ReferenceReversal, rep.ID).Return(false, nil)
		h.loans.On("LockForUpdate", mock.Anything, completed.ID).Return(completed, nil)
		h.journals.On("GetEntryByID", mock.Anything, rep.JournalEntryID).Return(original, nil)
		h.expectOpenPeriod()
		h.accounts.On("LockForUpdate", mock.Anything, source.ID).Return(source, nil)
		h.accounts.On("LockForUpdate", mock.Anything, h.system.Portfolio.ID).Return(h.system.Portfolio, nil)
		h.journals.On("CreateEntry", mock.Anything, mock.Anything).Return(nil)
		h.accounts.On("ApplyDelta", mock.Anything, source.ID, int64(-200000)).Return(nil)
		h.accounts.On("ApplyDelta", mock.Anything, h.system.Portfolio.ID, int64(200000)).Return(nil)
		h.loans.On("Update", mock.Anything, completed).Return(nil)
		h.repayments.On("MarkReversed", mock.Anything, rep.ID).Return(nil)
		h.expectSideEffects()

		result, err := h.engine.ReverseRepayment(ctx, ReversalParams{RepaymentID: rep.ID, Actor: "supervisor-1"})
		require.NoError(t, err)
		assert.Equal(t, loan.StatusActive, result.LoanStatus)
		assert.Equal(t, int64(200000), completed.PrincipalOutstanding)
	})
}
