package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/microfin-loan-ledger/internal/domain/shared"
	"github.com/microfin-loan-ledger/internal/platform/messaging/producers"
)

// CommandServiceImpl implements the CommandService interface
type CommandServiceImpl struct {
	producer producers.MessagePublisher
	logger   *slog.Logger
}

// NewCommandService creates a new command service
func NewCommandService(logger *slog.Logger, producer producers.MessagePublisher) CommandService {
	return &CommandServiceImpl{
		producer: producer,
		logger:   logger,
	}
}

// SubmitCommand validates the command, stamps id and timestamp, and publishes
// it to the intake topic. The command is keyed by its id so retries of the
// same command land on the same partition.
func (s *CommandServiceImpl) SubmitCommand(ctx context.Context, cmd *shared.FinancialCommand) (uuid.UUID, error) {
	if err := cmd.Validate(); err != nil {
		return uuid.Nil, err
	}

	if cmd.CommandID == uuid.Nil {
		cmd.CommandID = uuid.New()
	}
	if cmd.Timestamp.IsZero() {
		cmd.Timestamp = time.Now().UTC()
	}

	key := cmd.CommandID.String()
	if err := s.producer.Publish(ctx, key, cmd); err != nil {
		s.logger.Error("Failed to publish financial command",
			"command_id", key,
			"type", cmd.Type,
			"error", err,
		)
		return uuid.Nil, err
	}

	s.logger.Info("Financial command published",
		"command_id", key,
		"type", cmd.Type,
		"actor", cmd.Actor,
	)

	return cmd.CommandID, nil
}
