package shared

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidCommandType = errors.New("invalid financial command type")
	ErrMissingPayload     = errors.New("financial command payload missing for its type")
)

// CommandType defines the asynchronous financial operations
type CommandType string

const (
	CommandTypeRepayment        CommandType = "REPAYMENT"
	CommandTypeBulkDisbursement CommandType = "BULK_DISBURSEMENT"
	CommandTypeReversal         CommandType = "REVERSAL"
	CommandTypeCapitalInjection CommandType = "CAPITAL_INJECTION"
	CommandTypeTransfer         CommandType = "TRANSFER"
)

// FinancialCommand is the Kafka message carrying one queued financial
// operation. Exactly one payload field matching Type is set.
type FinancialCommand struct {
	CommandID      uuid.UUID            `json:"command_id"`
	Type           CommandType          `json:"type"`
	Actor          string               `json:"actor"`
	IdempotencyKey string               `json:"idempotency_key,omitempty"`
	CorrelationID  string               `json:"correlation_id,omitempty"`
	Timestamp      time.Time            `json:"timestamp"`
	Repayment      *RepaymentPayload    `json:"repayment,omitempty"`
	Disbursement   *DisbursementPayload `json:"disbursement,omitempty"`
	Reversal       *ReversalPayload     `json:"reversal,omitempty"`
	Injection      *InjectionPayload    `json:"injection,omitempty"`
	Transfer       *TransferPayload     `json:"transfer,omitempty"`
}

// RepaymentPayload carries a repayment command.
type RepaymentPayload struct {
	LoanID          uuid.UUID `json:"loan_id"`
	SourceAccountID uuid.UUID `json:"source_account_id"`
	Amount          int64     `json:"amount"` // minor units
}

// DisbursementPayload carries a bulk disbursement command.
type DisbursementPayload struct {
	LoanIDs         []uuid.UUID `json:"loan_ids"`
	SourceAccountID uuid.UUID   `json:"source_account_id"`
}

// ReversalPayload carries a repayment reversal command.
type ReversalPayload struct {
	RepaymentID uuid.UUID `json:"repayment_id"`
	Reason      string    `json:"reason"`
}

// InjectionPayload carries a capital injection command.
type InjectionPayload struct {
	TargetAccountID uuid.UUID `json:"target_account_id"`
	Amount          int64     `json:"amount"`
	Description     string    `json:"description"`
}

// TransferPayload carries an internal fund transfer command.
type TransferPayload struct {
	FromAccountID uuid.UUID `json:"from_account_id"`
	ToAccountID   uuid.UUID `json:"to_account_id"`
	Amount        int64     `json:"amount"`
	Description   string    `json:"description"`
}

// Validate checks the command carries the payload its type requires.
func (c *FinancialCommand) Validate() error {
	switch c.Type {
	case CommandTypeRepayment:
		if c.Repayment == nil {
			return ErrMissingPayload
		}
	case CommandTypeBulkDisbursement:
		if c.Disbursement == nil {
			return ErrMissingPayload
		}
	case CommandTypeReversal:
		if c.Reversal == nil {
			return ErrMissingPayload
		}
	case CommandTypeCapitalInjection:
		if c.Injection == nil {
			return ErrMissingPayload
		}
	case CommandTypeTransfer:
		if c.Transfer == nil {
			return ErrMissingPayload
		}
	default:
		return ErrInvalidCommandType
	}
	return nil
}
