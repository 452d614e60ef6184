package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/microfin-loan-ledger/internal/domain/journal"
	"github.com/microfin-loan-ledger/internal/domain/outbox"
	"github.com/microfin-loan-ledger/internal/domain/shared"
)

// ArchivePublisher replicates outbox messages into the journal archive
type ArchivePublisher interface {
	PublishToArchive(ctx context.Context, message *outbox.Message) error
}

// ArchivePublisherImpl implements ArchivePublisher
type ArchivePublisherImpl struct {
	outboxRepo outbox.Repository
	archive    journal.Archive
	logger     *slog.Logger
}

// NewArchivePublisher creates a new publisher
func NewArchivePublisher(
	outboxRepo outbox.Repository,
	archive journal.Archive,
	logger *slog.Logger,
) ArchivePublisher {
	return &ArchivePublisherImpl{
		outboxRepo: outboxRepo,
		archive:    archive,
		logger:     logger,
	}
}

// PublishToArchive copies one journal entry from the outbox payload into the
// archive and marks the message processed. Replays of an already-archived
// entry are treated as done.
func (p *ArchivePublisherImpl) PublishToArchive(ctx context.Context, message *outbox.Message) error {
	entry, err := message.GetEntry()
	if err != nil {
		p.logger.Error("Failed to unmarshal journal entry from outbox payload",
			"outbox_id", message.ID, "entry_id", message.EntryID, "error", err,
		)
		// A payload that does not parse will never parse; park the message.
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	// Add correlation ID to logger
	logger := p.logger
	if entry.CorrelationID != "" {
		logger = p.logger.With("correlation_id", entry.CorrelationID)
	}

	logger.Info("Attempting to archive journal entry", "outbox_id", message.ID, "entry_id", entry.ID)

	if err := p.archive.Save(ctx, entry); err != nil {
		if errors.Is(err, journal.ErrDuplicateArchiveEntry{EntryID: entry.ID}) {
			logger.Info("Journal entry already archived", "entry_id", entry.ID)
		} else {
			logger.Error("Failed to save journal entry to archive", "entry_id", entry.ID, "error", err)
			return fmt.Errorf("failed to archive journal entry %s: %w", entry.ID, err)
		}
	}

	// Mark outbox message as processed
	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "entry_id", entry.ID, "error", err,
		)
		return fmt.Errorf("archive write for %s OK, but failed to mark outbox %d as PROCESSED: %w", entry.ID, message.ID, err)
	}

	logger.Info("Outbox message successfully archived and marked as PROCESSED", "outbox_id", message.ID, "entry_id", entry.ID)
	return nil
}
