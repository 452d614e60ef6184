package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/microfin-loan-ledger/internal/api_gateway/middleware"
	"github.com/microfin-loan-ledger/internal/api_gateway/service"
	"github.com/microfin-loan-ledger/internal/domain/repayment"
	"github.com/microfin-loan-ledger/internal/engine"
)

// RepaymentHandler handles HTTP requests for repayment processing
type RepaymentHandler struct {
	ledgerService service.LedgerService
	logger        *slog.Logger
}

// NewRepaymentHandler creates a new repayment handler
func NewRepaymentHandler(logger *slog.Logger, ledgerService service.LedgerService) *RepaymentHandler {
	return &RepaymentHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

// Create processes a repayment synchronously through the posting engine.
// A replayed idempotency key returns the original outcome with 200 instead
// of 201.
func (h *RepaymentHandler) Create(c *gin.Context) {
	var req CreateRepaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	loanID, err := uuid.Parse(req.LoanID)
	if err != nil {
		RespondBadRequest(c, "Invalid loan ID")
		return
	}
	sourceID, err := uuid.Parse(req.SourceAccountID)
	if err != nil {
		RespondBadRequest(c, "Invalid source account ID")
		return
	}
	entryDate, err := parseEntryDate(req.EntryDate)
	if err != nil {
		RespondBadRequest(c, "Invalid entry date, expected YYYY-MM-DD")
		return
	}

	result, err := h.ledgerService.ProcessRepayment(c.Request.Context(), engine.RepaymentParams{
		LoanID:          loanID,
		SourceAccountID: sourceID,
		Amount:          req.Amount,
		IdempotencyKey:  req.IdempotencyKey,
		Actor:           req.Actor,
		CorrelationID:   middleware.GetCorrelationID(c),
		EntryDate:       entryDate,
	})
	if err != nil {
		respondEngineError(c, h.logger, err)
		return
	}

	response := mapRepaymentResultToResponse(result)
	if result.Duplicate {
		RespondOK(c, response)
		return
	}
	RespondCreated(c, response)
}

// GetByID retrieves a repayment record by its ID
func (h *RepaymentHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid repayment ID")
		return
	}

	rep, err := h.ledgerService.GetRepaymentByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get repayment", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}
	if rep == nil {
		RespondNotFound(c, "Repayment not found")
		return
	}

	RespondOK(c, mapRepaymentToResponse(rep))
}

// Reverse undoes a posted repayment by mirroring its journal entry
func (h *RepaymentHandler) Reverse(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid repayment ID")
		return
	}

	var req ReverseRepaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.ledgerService.ReverseRepayment(c.Request.Context(), engine.ReversalParams{
		RepaymentID:   id,
		Reason:        req.Reason,
		Actor:         req.Actor,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		respondEngineError(c, h.logger, err)
		return
	}

	RespondCreated(c, ReversalResponse{
		JournalEntryID: result.JournalEntryID.String(),
		LoanStatus:     string(result.LoanStatus),
	})
}

// mapRepaymentResultToResponse maps an engine result to the response DTO
func mapRepaymentResultToResponse(result *engine.RepaymentResult) RepaymentResponse {
	return RepaymentResponse{
		RepaymentID:    result.RepaymentID.String(),
		JournalEntryID: result.JournalEntryID.String(),
		PenaltyPaid:    result.Distribution.PenaltyPaid,
		InterestPaid:   result.Distribution.InterestPaid,
		PrincipalPaid:  result.Distribution.PrincipalPaid,
		Overpayment:    result.Distribution.Overpayment,
		LoanStatus:     string(result.LoanStatus),
		Duplicate:      result.Duplicate,
	}
}

// mapRepaymentToResponse maps a stored repayment to the response DTO
func mapRepaymentToResponse(rep *repayment.Repayment) RepaymentResponse {
	return RepaymentResponse{
		RepaymentID:    rep.ID.String(),
		JournalEntryID: rep.JournalEntryID.String(),
		PenaltyPaid:    rep.PenaltyPaid,
		InterestPaid:   rep.InterestPaid,
		PrincipalPaid:  rep.PrincipalPaid,
		Overpayment:    rep.Overpayment,
	}
}
