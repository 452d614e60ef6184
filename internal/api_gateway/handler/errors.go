package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microfin-loan-ledger/internal/domain/account"
	"github.com/microfin-loan-ledger/internal/domain/journal"
	"github.com/microfin-loan-ledger/internal/domain/loan"
	"github.com/microfin-loan-ledger/internal/domain/repayment"
	"github.com/microfin-loan-ledger/internal/engine"
)

const (
	timeFormat = time.RFC3339
	dateFormat = "2006-01-02"
)

// parseEntryDate parses an optional YYYY-MM-DD field; zero time means
// "use the engine's default of today".
func parseEntryDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateFormat, value)
}

// respondEngineError maps posting engine and domain errors onto HTTP
// statuses: malformed input is 400, missing resources 404, business-rule
// rejections 409, lock timeouts 503 (safe to retry), everything else 500.
func respondEngineError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidAmount),
		errors.Is(err, engine.ErrEmptyBatch),
		errors.Is(err, engine.ErrSameAccount),
		errors.Is(err, engine.ErrImbalanced),
		errors.Is(err, journal.ErrNoLines),
		errors.Is(err, journal.ErrNegativeAmount),
		errors.Is(err, journal.ErrBothSides),
		errors.Is(err, engine.ErrUnknownAccount{}):
		RespondBadRequest(c, err.Error())

	case errors.Is(err, account.ErrAccountNotFound{}),
		errors.Is(err, loan.ErrLoanNotFound{}),
		errors.Is(err, repayment.ErrRepaymentNotFound{}),
		errors.Is(err, journal.ErrEntryNotFound{}):
		RespondNotFound(c, err.Error())

	case errors.Is(err, engine.ErrAccountInactive{}),
		errors.Is(err, engine.ErrLoanNotActive{}),
		errors.Is(err, engine.ErrLoanNotReversible{}),
		errors.Is(err, engine.ErrAlreadyReversed{}),
		errors.Is(err, engine.ErrClosedPeriod{}),
		errors.Is(err, engine.ErrInsufficientFunds{}),
		errors.Is(err, engine.ErrDuplicateCommand):
		RespondConflict(c, err.Error())

	case errors.Is(err, engine.ErrLockTimeout):
		RespondServiceUnavailable(c, "operation timed out waiting for a row lock, retry with the same idempotency key")

	default:
		logger.Error("Unhandled engine error", "error", err)
		RespondInternalError(c)
	}
}
