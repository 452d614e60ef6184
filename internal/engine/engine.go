package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/microfin-loan-ledger/internal/domain/account"
	"github.com/microfin-loan-ledger/internal/domain/audit"
	"github.com/microfin-loan-ledger/internal/domain/journal"
	"github.com/microfin-loan-ledger/internal/domain/loan"
	"github.com/microfin-loan-ledger/internal/domain/outbox"
	"github.com/microfin-loan-ledger/internal/domain/period"
	"github.com/microfin-loan-ledger/internal/domain/repayment"
)

// TxRunner runs a function inside a database transaction carrying a
// statement-scoped row lock timeout. *persistence.PostgresDB satisfies it.
type TxRunner interface {
	ExecuteLedgerTx(ctx context.Context, lockTimeout time.Duration, fn func(tx pgx.Tx) error) error
}

// Engine wires the posting engine and the business orchestrators over the
// domain repositories. All mutating methods run one transaction each.
type Engine struct {
	db          TxRunner
	lockTimeout time.Duration
	accounts    account.Repository
	journals    journal.Repository
	loans       loan.Repository
	repayments  repayment.Repository
	periods     period.Repository
	audits      audit.Repository
	outboxes    outbox.Repository
	system      *SystemAccounts
	alerts      AlertPublisher
	logger      *slog.Logger
}

// New creates the ledger engine. The system accounts must already be
// resolved via ResolveSystemAccounts. alerts may be nil when no alert
// topic is wired (imbalances are still logged at Error).
func New(
	db TxRunner,
	lockTimeout time.Duration,
	accounts account.Repository,
	journals journal.Repository,
	loans loan.Repository,
	repayments repayment.Repository,
	periods period.Repository,
	audits audit.Repository,
	outboxes outbox.Repository,
	system *SystemAccounts,
	alerts AlertPublisher,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		db:          db,
		lockTimeout: lockTimeout,
		accounts:    accounts,
		journals:    journals,
		loans:       loans,
		repayments:  repayments,
		periods:     periods,
		audits:      audits,
		outboxes:    outboxes,
		system:      system,
		alerts:      alerts,
		logger:      logger,
	}
}

// recordAudit writes one audit row through the transaction so the trail
// commits or rolls back together with the mutation it describes.
func (e *Engine) recordAudit(ctx context.Context, tx pgx.Tx, actor, action, entityType, entityID string, details any) error {
	record, err := audit.NewRecord(actor, action, entityType, entityID, details)
	if err != nil {
		return err
	}
	return e.audits.WithTx(tx).Create(ctx, record)
}

// enqueueArchive writes the outbox row replicating the committed entry to
// the journal archive.
func (e *Engine) enqueueArchive(ctx context.Context, tx pgx.Tx, entry *journal.Entry) error {
	message, err := outbox.NewMessage(entry)
	if err != nil {
		return err
	}
	return e.outboxes.WithTx(tx).Create(ctx, message)
}
