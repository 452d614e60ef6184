package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/microfin-loan-ledger/internal/api_gateway/middleware"
	"github.com/microfin-loan-ledger/internal/api_gateway/service"
	"github.com/microfin-loan-ledger/internal/domain/journal"
	"github.com/microfin-loan-ledger/internal/engine"
)

// JournalHandler handles HTTP requests for journal entries and the trial balance
type JournalHandler struct {
	ledgerService service.LedgerService
	logger        *slog.Logger
}

// NewJournalHandler creates a new journal handler
func NewJournalHandler(logger *slog.Logger, ledgerService service.LedgerService) *JournalHandler {
	return &JournalHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

// CreateAdjustment posts a manual journal adjustment
func (h *JournalHandler) CreateAdjustment(c *gin.Context) {
	var req CreateAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	entryDate, err := parseEntryDate(req.EntryDate)
	if err != nil {
		RespondBadRequest(c, "Invalid entry date, expected YYYY-MM-DD")
		return
	}
	if entryDate.IsZero() {
		entryDate = time.Now().UTC().Truncate(24 * time.Hour)
	}

	lines := make([]journal.DraftLine, len(req.Lines))
	for i, line := range req.Lines {
		accountID, err := uuid.Parse(line.AccountID)
		if err != nil {
			RespondBadRequest(c, "Invalid account ID: "+line.AccountID)
			return
		}
		lines[i] = journal.DraftLine{
			AccountID: accountID,
			Debit:     line.Debit,
			Credit:    line.Credit,
		}
	}

	entry, err := h.ledgerService.PostAdjustment(c.Request.Context(), engine.AdjustmentParams{
		Lines:         lines,
		Description:   req.Description,
		EntryDate:     entryDate,
		Actor:         req.Actor,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		respondEngineError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapEntryToResponse(entry))
}

// GetByID reads a journal entry from the archive
func (h *JournalHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid journal entry ID")
		return
	}

	entry, err := h.ledgerService.GetJournalEntryByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get journal entry", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}
	if entry == nil {
		RespondNotFound(c, "Journal entry not found")
		return
	}

	RespondOK(c, mapEntryToResponse(entry))
}

// TrialBalance runs the trial balance verification for one effective date.
// Defaults to today when no date parameter is given.
func (h *JournalHandler) TrialBalance(c *gin.Context) {
	date := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(dateFormat, raw)
		if err != nil {
			RespondBadRequest(c, "Invalid date, expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	report, err := h.ledgerService.VerifyTrialBalance(c.Request.Context(), date)
	if err != nil {
		h.logger.Error("Trial balance verification failed", "date", date, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, report)
}
