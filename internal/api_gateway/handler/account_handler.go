package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/microfin-loan-ledger/internal/api_gateway/service"
	"github.com/microfin-loan-ledger/internal/domain/account"
)

// AccountHandler handles HTTP requests for chart-of-accounts operations
type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// Create handles creation of a new ledger account
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var parentID *uuid.UUID
	if req.ParentID != "" {
		id, err := uuid.Parse(req.ParentID)
		if err != nil {
			RespondBadRequest(c, "Invalid parent account ID")
			return
		}
		parentID = &id
	}

	acc, err := h.accountService.CreateAccount(c.Request.Context(), req.Name, account.Category(req.Category), req.Code, parentID)
	if err != nil {
		var duplicateCodeErr account.ErrDuplicateCode
		if errors.As(err, &duplicateCodeErr) {
			h.logger.Warn("Attempt to create account with duplicate code", "code", duplicateCodeErr.Code)
			RespondConflict(c, "Account with this code already exists")
			return
		}
		if errors.Is(err, account.ErrEmptyName) || errors.Is(err, account.ErrInvalidCategory) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to create account", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapAccountToResponse(acc))
}

// GetByID retrieves an account by its ID, returning 404 if not found
func (h *AccountHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid account ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	acc, err := h.accountService.GetAccountByID(c.Request.Context(), id)
	if err != nil {
		var accNotFound account.ErrAccountNotFound
		if errors.As(err, &accNotFound) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to get account", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// List returns the full chart of accounts
func (h *AccountHandler) List(c *gin.Context) {
	accounts, err := h.accountService.ListAccounts(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list accounts", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]AccountResponse, len(accounts))
	for i, acc := range accounts {
		responses[i] = mapAccountToResponse(acc)
	}
	RespondOK(c, responses)
}

// Deactivate marks an account inactive; its history remains queryable
func (h *AccountHandler) Deactivate(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	if err := h.accountService.DeactivateAccount(c.Request.Context(), id); err != nil {
		var accNotFound account.ErrAccountNotFound
		if errors.As(err, &accNotFound) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to deactivate account", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondNoContent(c)
}

// GetEntries retrieves archived journal entries touching the account
func (h *AccountHandler) GetEntries(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	entries, total, err := h.accountService.GetAccountEntries(c.Request.Context(), id, pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to get account entries", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]EntryResponse, len(entries))
	for i, entry := range entries {
		responses[i] = mapEntryToResponse(entry)
	}

	RespondWithPaginatedData(c, 200, EntryListResponse{Entries: responses}, pagination.Page, pagination.PerPage, int(total))
}

// mapAccountToResponse maps an account entity to an account response DTO
func mapAccountToResponse(acc *account.Account) AccountResponse {
	parentID := ""
	if acc.ParentID != nil {
		parentID = acc.ParentID.String()
	}
	return AccountResponse{
		ID:        acc.ID.String(),
		Name:      acc.Name,
		Category:  string(acc.Category),
		Code:      acc.Code,
		ParentID:  parentID,
		Balance:   acc.Balance,
		Active:    acc.Active,
		CreatedAt: acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt: acc.UpdatedAt.Format(time.RFC3339),
	}
}
