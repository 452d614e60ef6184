// Package mongo provides the MongoDB implementation of the journal archive,
// the read model replicated from PostgreSQL through the outbox.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/microfin-loan-ledger/internal/domain/journal"
)

const (
	// ArchiveCollectionName is the name of the journal archive collection in MongoDB
	ArchiveCollectionName = "journal_entries"
)

// ArchiveRepository implements the journal.Archive interface for MongoDB
type ArchiveRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewArchiveRepository creates a new MongoDB journal archive repository
func NewArchiveRepository(logger *slog.Logger, db *mongo.Database) journal.Archive {
	return &ArchiveRepository{
		db:     db,
		logger: logger,
	}
}

// Save stores a journal entry after checking for duplicates.
// Returns ErrDuplicateArchiveEntry if the entry was already archived, which
// lets the outbox poller treat replays as already-done.
func (r *ArchiveRepository) Save(ctx context.Context, entry *journal.Entry) error {
	collection := r.db.Collection(ArchiveCollectionName)

	existing, err := r.GetByEntryID(ctx, entry.ID)
	if err != nil && !errors.Is(err, journal.ErrEntryNotFound{}) {
		r.logger.Error("Failed to check for existing archive entry",
			"entry_id", entry.ID.String(),
			"error", err)
		return fmt.Errorf("failed to check for existing archive entry: %w", err)
	}

	if existing != nil {
		return journal.ErrDuplicateArchiveEntry{EntryID: entry.ID}
	}

	_, err = collection.InsertOne(ctx, entry)
	if err != nil {
		r.logger.Error("Failed to archive journal entry",
			"entry_id", entry.ID.String(),
			"error", err)
		return fmt.Errorf("failed to archive journal entry: %w", err)
	}

	return nil
}

// GetByEntryID retrieves an archived entry by its journal entry ID.
// Returns ErrEntryNotFound if the entry has not been archived.
func (r *ArchiveRepository) GetByEntryID(ctx context.Context, entryID uuid.UUID) (*journal.Entry, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{"id": entryID}
	var entry journal.Entry
	err := collection.FindOne(ctx, filter).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, journal.ErrEntryNotFound{EntryID: entryID}
		}
		r.logger.Error("Failed to get archived entry",
			"entry_id", entryID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get archived entry: %w", err)
	}

	return &entry, nil
}

// GetByAccountID retrieves paginated archived entries with at least one line
// touching the account. Results are sorted by creation time descending.
func (r *ArchiveRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*journal.Entry, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{"lines.account_id": accountID}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}). // Sort by created_at in descending order
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get archived entries",
			"account_id", accountID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get archived entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*journal.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode archived entries",
			"account_id", accountID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode archived entries: %w", err)
	}

	return entries, nil
}

// CountByAccountID counts archived entries touching an account
func (r *ArchiveRepository) CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{"lines.account_id": accountID}
	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count archived entries",
			"account_id", accountID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count archived entries: %w", err)
	}

	return count, nil
}

// GetByTimeRange retrieves paginated archived entries within the specified time window.
// Results are sorted by creation time in descending order for recent-first access.
func (r *ArchiveRepository) GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*journal.Entry, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{
		"created_at": bson.M{
			"$gte": startTime,
			"$lte": endTime,
		},
	}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}). // Sort by created_at in descending order
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get archived entries by time range",
			"start_time", startTime,
			"end_time", endTime,
			"error", err)
		return nil, fmt.Errorf("failed to get archived entries by time range: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*journal.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode archived entries",
			"start_time", startTime,
			"end_time", endTime,
			"error", err)
		return nil, fmt.Errorf("failed to decode archived entries: %w", err)
	}

	return entries, nil
}
