package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/microfin-loan-ledger/internal/api_gateway/service"
	"github.com/microfin-loan-ledger/internal/domain/loan"
)

// LoanHandler handles HTTP requests for loan book operations
type LoanHandler struct {
	loanService service.LoanService
	logger      *slog.Logger
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(logger *slog.Logger, loanService service.LoanService) *LoanHandler {
	return &LoanHandler{
		loanService: loanService,
		logger:      logger,
	}
}

// Create registers a pending loan awaiting disbursement
func (h *LoanHandler) Create(c *gin.Context) {
	var req CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	l, err := h.loanService.CreateLoan(c.Request.Context(), req.Borrower, req.Principal, req.Interest, req.Penalty)
	if err != nil {
		if errors.Is(err, loan.ErrEmptyBorrower) || errors.Is(err, loan.ErrInvalidPrincipal) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to create loan", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapLoanToResponse(l))
}

// GetByID retrieves a loan by its ID, returning 404 if not found
func (h *LoanHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid loan ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid loan ID")
		return
	}

	l, err := h.loanService.GetLoanByID(c.Request.Context(), id)
	if err != nil {
		var loanNotFound loan.ErrLoanNotFound
		if errors.As(err, &loanNotFound) {
			RespondNotFound(c, "Loan not found")
			return
		}
		h.logger.Error("Failed to get loan", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapLoanToResponse(l))
}

// mapLoanToResponse maps a loan entity to a loan response DTO
func mapLoanToResponse(l *loan.Loan) LoanResponse {
	return LoanResponse{
		ID:                   l.ID.String(),
		Borrower:             l.Borrower,
		PrincipalOutstanding: l.PrincipalOutstanding,
		InterestOutstanding:  l.InterestOutstanding,
		PenaltyOutstanding:   l.PenaltyOutstanding,
		Status:               string(l.Status),
		CreatedAt:            l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            l.UpdatedAt.Format(time.RFC3339),
	}
}
