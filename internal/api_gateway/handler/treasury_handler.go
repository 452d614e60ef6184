package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/microfin-loan-ledger/internal/api_gateway/middleware"
	"github.com/microfin-loan-ledger/internal/api_gateway/service"
	"github.com/microfin-loan-ledger/internal/engine"
)

// TreasuryHandler handles HTTP requests for disbursements and fund movements
type TreasuryHandler struct {
	ledgerService service.LedgerService
	logger        *slog.Logger
}

// NewTreasuryHandler creates a new treasury handler
func NewTreasuryHandler(logger *slog.Logger, ledgerService service.LedgerService) *TreasuryHandler {
	return &TreasuryHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

// Disburse funds a batch of pending loans from one source account
func (h *TreasuryHandler) Disburse(c *gin.Context) {
	var req CreateDisbursementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	sourceID, err := uuid.Parse(req.SourceAccountID)
	if err != nil {
		RespondBadRequest(c, "Invalid source account ID")
		return
	}

	loanIDs := make([]uuid.UUID, len(req.LoanIDs))
	for i, raw := range req.LoanIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondBadRequest(c, "Invalid loan ID: "+raw)
			return
		}
		loanIDs[i] = id
	}

	result, err := h.ledgerService.BulkDisburse(c.Request.Context(), engine.DisbursementParams{
		LoanIDs:         loanIDs,
		SourceAccountID: sourceID,
		Actor:           req.Actor,
		CorrelationID:   middleware.GetCorrelationID(c),
	})
	if err != nil {
		respondEngineError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapDisbursementToResponse(result))
}

// Inject posts a capital injection into a cash account
func (h *TreasuryHandler) Inject(c *gin.Context) {
	var req CreateInjectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	targetID, err := uuid.Parse(req.TargetAccountID)
	if err != nil {
		RespondBadRequest(c, "Invalid target account ID")
		return
	}

	entry, err := h.ledgerService.InjectCapital(c.Request.Context(), engine.InjectionParams{
		TargetAccountID: targetID,
		Amount:          req.Amount,
		Description:     req.Description,
		Actor:           req.Actor,
		CorrelationID:   middleware.GetCorrelationID(c),
	})
	if err != nil {
		respondEngineError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapEntryToResponse(entry))
}

// Transfer moves funds between two internal accounts
func (h *TreasuryHandler) Transfer(c *gin.Context) {
	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	fromID, err := uuid.Parse(req.FromAccountID)
	if err != nil {
		RespondBadRequest(c, "Invalid source account ID")
		return
	}
	toID, err := uuid.Parse(req.ToAccountID)
	if err != nil {
		RespondBadRequest(c, "Invalid destination account ID")
		return
	}

	entry, err := h.ledgerService.Transfer(c.Request.Context(), engine.TransferParams{
		FromAccountID: fromID,
		ToAccountID:   toID,
		Amount:        req.Amount,
		Description:   req.Description,
		Actor:         req.Actor,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		respondEngineError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapEntryToResponse(entry))
}

// mapDisbursementToResponse maps an engine result to the response DTO
func mapDisbursementToResponse(result *engine.DisbursementResult) DisbursementResponse {
	disbursed := make([]string, len(result.DisbursedIDs))
	for i, id := range result.DisbursedIDs {
		disbursed[i] = id.String()
	}
	failed := make([]string, len(result.FailedIDs))
	for i, id := range result.FailedIDs {
		failed[i] = id.String()
	}

	entryID := ""
	if result.JournalEntryID != uuid.Nil {
		entryID = result.JournalEntryID.String()
	}

	return DisbursementResponse{
		JournalEntryID: entryID,
		DisbursedIDs:   disbursed,
		FailedIDs:      failed,
		TotalDisbursed: result.TotalDisbursed,
	}
}
