package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/microfin-loan-ledger/internal/command_processor/service"
	"github.com/microfin-loan-ledger/internal/domain/shared"
	"github.com/microfin-loan-ledger/internal/platform/messaging/producers"
)

// CommandEventHandler handles incoming financial command messages from Kafka
type CommandEventHandler struct {
	processingService service.ProcessingService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewCommandEventHandler creates a new handler
func NewCommandEventHandler(
	logger *slog.Logger,
	processingService service.ProcessingService,
	producer producers.DeadLetterPublisher,
) *CommandEventHandler {
	return &CommandEventHandler{
		processingService: processingService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage processes one Kafka message. Returning nil commits the
// offset; returning an error leaves it uncommitted for redelivery. Messages
// that can never succeed are dead-lettered and committed.
func (h *CommandEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var cmd shared.FinancialCommand
	if err := json.Unmarshal(value, &cmd); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal financial command from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)
		if h.deadLetter(ctx, string(key), value, fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())) {
			return nil
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	// Add correlation ID to logger
	logger := h.logger
	if cmd.CorrelationID != "" {
		logger = h.logger.With("correlation_id", cmd.CorrelationID)
	}

	logger.Info("Received financial command for processing",
		"command_id", cmd.CommandID.String(),
		"type", cmd.Type,
		"actor", cmd.Actor,
	)

	if err := h.processingService.ProcessCommand(ctx, &cmd); err != nil {
		if service.IsNonRetryable(err) {
			logger.Warn("Command rejected by business rules, dead-lettering",
				"command_id", cmd.CommandID.String(),
				"type", cmd.Type,
				"error", err,
			)
			if h.deadLetter(ctx, string(key), value, err.Error()) {
				return nil
			}
			return fmt.Errorf("command %s rejected and DLQ unavailable: %w", cmd.CommandID.String(), err)
		}

		logger.Error("Failed to process command, leaving offset uncommitted",
			"command_id", cmd.CommandID.String(),
			"type", cmd.Type,
			"error", err,
		)
		return fmt.Errorf("processing command %s failed: %w", cmd.CommandID.String(), err)
	}

	logger.Info("Successfully processed command", "command_id", cmd.CommandID.String())
	return nil // Success, commit offset
}

// deadLetter publishes the raw message to the DLQ. Reports whether the
// message was parked so its offset can be committed.
func (h *CommandEventHandler) deadLetter(ctx context.Context, key string, value []byte, reason string) bool {
	if h.producer == nil {
		return false
	}
	if err := h.producer.PublishToDLQ(ctx, key, value, reason); err != nil {
		h.logger.Error("Failed to publish message to DLQ",
			"dlq_error", err,
			"message_key", key,
			"reason", reason,
		)
		return false
	}
	h.logger.Info("Published unprocessable message to DLQ", "message_key", key, "reason", reason)
	return true
}
