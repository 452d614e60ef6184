package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/microfin-loan-ledger/internal/domain/journal"
	"github.com/microfin-loan-ledger/internal/domain/repayment"
	"github.com/microfin-loan-ledger/internal/engine"
)

// ledgerEngine is the slice of *engine.Engine the service delegates to.
type ledgerEngine interface {
	ProcessRepayment(ctx context.Context, params engine.RepaymentParams) (*engine.RepaymentResult, error)
	ReverseRepayment(ctx context.Context, params engine.ReversalParams) (*engine.ReversalResult, error)
	BulkDisburse(ctx context.Context, params engine.DisbursementParams) (*engine.DisbursementResult, error)
	InjectCapital(ctx context.Context, params engine.InjectionParams) (*journal.Entry, error)
	Transfer(ctx context.Context, params engine.TransferParams) (*journal.Entry, error)
	PostAdjustment(ctx context.Context, params engine.AdjustmentParams) (*journal.Entry, error)
	VerifyTrialBalance(ctx context.Context, date time.Time) (*engine.TrialBalanceReport, error)
}

// LedgerServiceImpl implements the LedgerService interface
type LedgerServiceImpl struct {
	engine        ledgerEngine
	repaymentRepo repayment.Repository
	archive       journal.Archive
	logger        *slog.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(logger *slog.Logger, eng ledgerEngine, repaymentRepo repayment.Repository, archive journal.Archive) LedgerService {
	return &LedgerServiceImpl{
		engine:        eng,
		repaymentRepo: repaymentRepo,
		archive:       archive,
		logger:        logger,
	}
}

func (s *LedgerServiceImpl) ProcessRepayment(ctx context.Context, params engine.RepaymentParams) (*engine.RepaymentResult, error) {
	return s.engine.ProcessRepayment(ctx, params)
}

func (s *LedgerServiceImpl) ReverseRepayment(ctx context.Context, params engine.ReversalParams) (*engine.ReversalResult, error) {
	return s.engine.ReverseRepayment(ctx, params)
}

func (s *LedgerServiceImpl) BulkDisburse(ctx context.Context, params engine.DisbursementParams) (*engine.DisbursementResult, error) {
	return s.engine.BulkDisburse(ctx, params)
}

func (s *LedgerServiceImpl) InjectCapital(ctx context.Context, params engine.InjectionParams) (*journal.Entry, error) {
	return s.engine.InjectCapital(ctx, params)
}

func (s *LedgerServiceImpl) Transfer(ctx context.Context, params engine.TransferParams) (*journal.Entry, error) {
	return s.engine.Transfer(ctx, params)
}

func (s *LedgerServiceImpl) PostAdjustment(ctx context.Context, params engine.AdjustmentParams) (*journal.Entry, error) {
	return s.engine.PostAdjustment(ctx, params)
}

func (s *LedgerServiceImpl) VerifyTrialBalance(ctx context.Context, date time.Time) (*engine.TrialBalanceReport, error) {
	return s.engine.VerifyTrialBalance(ctx, date)
}

// GetRepaymentByID retrieves a repayment record. Returns nil if not found
func (s *LedgerServiceImpl) GetRepaymentByID(ctx context.Context, id uuid.UUID) (*repayment.Repayment, error) {
	rep, err := s.repaymentRepo.GetByID(ctx, id)
	if err != nil {
		var notFound repayment.ErrRepaymentNotFound
		if errors.As(err, &notFound) {
			s.logger.Info("Repayment not found", "repayment_id", id.String())
			return nil, nil
		}
		s.logger.Error("Failed to get repayment by ID", "repayment_id", id.String(), "error", err)
		return nil, err
	}
	return rep, nil
}

// GetJournalEntryByID reads an archived journal entry. Returns nil if not found
func (s *LedgerServiceImpl) GetJournalEntryByID(ctx context.Context, id uuid.UUID) (*journal.Entry, error) {
	entry, err := s.archive.GetByEntryID(ctx, id)
	if err != nil {
		var notFound journal.ErrEntryNotFound
		if errors.As(err, &notFound) {
			s.logger.Info("Journal entry not found in archive", "entry_id", id.String())
			return nil, nil
		}
		s.logger.Error("Failed to get journal entry from archive", "entry_id", id.String(), "error", err)
		return nil, err
	}
	return entry, nil
}
