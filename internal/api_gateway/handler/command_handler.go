package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/microfin-loan-ledger/internal/api_gateway/middleware"
	"github.com/microfin-loan-ledger/internal/api_gateway/service"
	"github.com/microfin-loan-ledger/internal/domain/shared"
)

// CommandHandler accepts financial commands for asynchronous processing
type CommandHandler struct {
	commandService service.CommandService
	logger         *slog.Logger
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(logger *slog.Logger, commandService service.CommandService) *CommandHandler {
	return &CommandHandler{
		commandService: commandService,
		logger:         logger,
	}
}

// Submit validates the command envelope and queues it, answering 202. The
// command processor executes it later; clients poll the referenced resource
// or correlate via the returned command id.
func (h *CommandHandler) Submit(c *gin.Context) {
	var cmd shared.FinancialCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		h.logger.Error("Invalid command body", "error", err)
		RespondBadRequest(c, "Invalid command body: "+err.Error())
		return
	}

	cmd.CorrelationID = middleware.GetCorrelationID(c)

	commandID, err := h.commandService.SubmitCommand(c.Request.Context(), &cmd)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCommandType) || errors.Is(err, shared.ErrMissingPayload) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to submit command", "type", cmd.Type, "error", err)
		RespondInternalError(c)
		return
	}

	RespondAccepted(c, CommandAcceptedResponse{
		CommandID: commandID.String(),
		Status:    "QUEUED",
	})
}
