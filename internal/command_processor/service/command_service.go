package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/microfin-loan-ledger/internal/domain/account"
	"github.com/microfin-loan-ledger/internal/domain/journal"
	"github.com/microfin-loan-ledger/internal/domain/loan"
	"github.com/microfin-loan-ledger/internal/domain/repayment"
	"github.com/microfin-loan-ledger/internal/domain/shared"
	"github.com/microfin-loan-ledger/internal/engine"
)

// CommandService dispatches financial commands to the posting engine.
type CommandService struct {
	engine LedgerEngine
	logger *slog.Logger
}

func NewCommandService(engine LedgerEngine, logger *slog.Logger) *CommandService {
	return &CommandService{
		engine: engine,
		logger: logger,
	}
}

// ProcessCommand validates the command and executes the engine operation
// matching its type. A duplicate repayment replay is treated as success.
func (s *CommandService) ProcessCommand(ctx context.Context, cmd *shared.FinancialCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	logger := s.logger
	if cmd.CorrelationID != "" {
		logger = s.logger.With("correlation_id", cmd.CorrelationID)
	}

	switch cmd.Type {
	case shared.CommandTypeRepayment:
		result, err := s.engine.ProcessRepayment(ctx, engine.RepaymentParams{
			LoanID:          cmd.Repayment.LoanID,
			SourceAccountID: cmd.Repayment.SourceAccountID,
			Amount:          cmd.Repayment.Amount,
			IdempotencyKey:  cmd.IdempotencyKey,
			Actor:           cmd.Actor,
			CorrelationID:   cmd.CorrelationID,
		})
		if err != nil {
			return fmt.Errorf("repayment command %s failed: %w", cmd.CommandID, err)
		}
		if result.Duplicate {
			logger.Info("Repayment command was a duplicate, original outcome replayed",
				"command_id", cmd.CommandID.String(),
				"repayment_id", result.RepaymentID.String(),
			)
			return nil
		}
		logger.Info("Processed repayment command",
			"command_id", cmd.CommandID.String(),
			"repayment_id", result.RepaymentID.String(),
			"loan_status", result.LoanStatus,
		)
		return nil

	case shared.CommandTypeBulkDisbursement:
		result, err := s.engine.BulkDisburse(ctx, engine.DisbursementParams{
			LoanIDs:         cmd.Disbursement.LoanIDs,
			SourceAccountID: cmd.Disbursement.SourceAccountID,
			Actor:           cmd.Actor,
			CorrelationID:   cmd.CorrelationID,
		})
		if err != nil {
			return fmt.Errorf("bulk disbursement command %s failed: %w", cmd.CommandID, err)
		}
		logger.Info("Processed bulk disbursement command",
			"command_id", cmd.CommandID.String(),
			"disbursed", len(result.DisbursedIDs),
			"failed", len(result.FailedIDs),
			"total_disbursed", result.TotalDisbursed,
		)
		return nil

	case shared.CommandTypeReversal:
		result, err := s.engine.ReverseRepayment(ctx, engine.ReversalParams{
			RepaymentID:   cmd.Reversal.RepaymentID,
			Reason:        cmd.Reversal.Reason,
			Actor:         cmd.Actor,
			CorrelationID: cmd.CorrelationID,
		})
		if err != nil {
			if errors.Is(err, engine.ErrAlreadyReversed{}) {
				logger.Info("Reversal command already applied",
					"command_id", cmd.CommandID.String(),
					"repayment_id", cmd.Reversal.RepaymentID.String(),
				)
				return nil
			}
			return fmt.Errorf("reversal command %s failed: %w", cmd.CommandID, err)
		}
		logger.Info("Processed reversal command",
			"command_id", cmd.CommandID.String(),
			"journal_entry_id", result.JournalEntryID.String(),
		)
		return nil

	case shared.CommandTypeCapitalInjection:
		entry, err := s.engine.InjectCapital(ctx, engine.InjectionParams{
			TargetAccountID: cmd.Injection.TargetAccountID,
			Amount:          cmd.Injection.Amount,
			Description:     cmd.Injection.Description,
			Actor:           cmd.Actor,
			CorrelationID:   cmd.CorrelationID,
		})
		if err != nil {
			return fmt.Errorf("capital injection command %s failed: %w", cmd.CommandID, err)
		}
		logger.Info("Processed capital injection command",
			"command_id", cmd.CommandID.String(),
			"journal_entry_id", entry.ID.String(),
		)
		return nil

	case shared.CommandTypeTransfer:
		entry, err := s.engine.Transfer(ctx, engine.TransferParams{
			FromAccountID: cmd.Transfer.FromAccountID,
			ToAccountID:   cmd.Transfer.ToAccountID,
			Amount:        cmd.Transfer.Amount,
			Description:   cmd.Transfer.Description,
			Actor:         cmd.Actor,
			CorrelationID: cmd.CorrelationID,
		})
		if err != nil {
			return fmt.Errorf("transfer command %s failed: %w", cmd.CommandID, err)
		}
		logger.Info("Processed transfer command",
			"command_id", cmd.CommandID.String(),
			"journal_entry_id", entry.ID.String(),
		)
		return nil

	default:
		return shared.ErrInvalidCommandType
	}
}

// IsNonRetryable reports whether the error is a business rejection that no
// amount of redelivery will fix. Such commands go to the DLQ; everything
// else (lock timeouts, connection errors) is left uncommitted for retry.
func IsNonRetryable(err error) bool {
	nonRetryable := []error{
		shared.ErrInvalidCommandType,
		shared.ErrMissingPayload,
		engine.ErrInvalidAmount,
		engine.ErrEmptyBatch,
		engine.ErrSameAccount,
		engine.ErrImbalanced,
		engine.ErrUnknownAccount{},
		engine.ErrAccountInactive{},
		engine.ErrClosedPeriod{},
		engine.ErrLoanNotActive{},
		engine.ErrLoanNotReversible{},
		engine.ErrAlreadyReversed{},
		engine.ErrInsufficientFunds{},
		account.ErrAccountNotFound{},
		loan.ErrLoanNotFound{},
		repayment.ErrRepaymentNotFound{},
		journal.ErrEntryNotFound{},
	}
	for _, target := range nonRetryable {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
