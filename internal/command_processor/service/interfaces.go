package service

import (
	"context"

	"github.com/microfin-loan-ledger/internal/domain/journal"
	"github.com/microfin-loan-ledger/internal/domain/shared"
	"github.com/microfin-loan-ledger/internal/engine"
)

// ProcessingService defines the interface for processing financial commands.
type ProcessingService interface {
	ProcessCommand(ctx context.Context, cmd *shared.FinancialCommand) error
}

// LedgerEngine is the slice of the posting engine the command processor needs.
type LedgerEngine interface {
	ProcessRepayment(ctx context.Context, params engine.RepaymentParams) (*engine.RepaymentResult, error)
	BulkDisburse(ctx context.Context, params engine.DisbursementParams) (*engine.DisbursementResult, error)
	ReverseRepayment(ctx context.Context, params engine.ReversalParams) (*engine.ReversalResult, error)
	InjectCapital(ctx context.Context, params engine.InjectionParams) (*journal.Entry, error)
	Transfer(ctx context.Context, params engine.TransferParams) (*journal.Entry, error)
}
