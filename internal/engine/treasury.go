package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/microfin-loan-ledger/internal/domain/journal"
)

// InjectionParams carries one capital injection command.
type InjectionParams struct {
	TargetAccountID uuid.UUID
	Amount          int64
	Description     string
	Actor           string
	CorrelationID   string
	EntryDate       time.Time
}

// InjectCapital posts injected funds: debit the target cash account, credit
// the capital equity account.
func (e *Engine) InjectCapital(ctx context.Context, params InjectionParams) (*journal.Entry, error) {
	if params.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if params.EntryDate.IsZero() {
		params.EntryDate = today()
	}

	description := params.Description
	if description == "" {
		description = "capital injection"
	}

	var entry *journal.Entry
	err := e.db.ExecuteLedgerTx(ctx, e.lockTimeout, func(tx pgx.Tx) error {
		draft := &journal.Draft{
			ReferenceType: journal.ReferenceInjection,
			Description:   description,
			EntryDate:     params.EntryDate,
			CreatedBy:     params.Actor,
			CorrelationID: params.CorrelationID,
			Lines: []journal.DraftLine{
				{AccountID: params.TargetAccountID, Debit: params.Amount},
				{AccountID: e.system.Capital.ID, Credit: params.Amount},
			},
		}

		var postErr error
		entry, postErr = e.Post(ctx, tx, draft)
		if postErr != nil {
			return postErr
		}

		if err := e.recordAudit(ctx, tx, params.Actor, "treasury.inject", "journal_entry", entry.ID.String(), params); err != nil {
			return err
		}
		return e.enqueueArchive(ctx, tx, entry)
	})
	if err != nil {
		return nil, mapLockError(err)
	}
	return entry, nil
}

// TransferParams carries one internal fund transfer command.
type TransferParams struct {
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        int64
	Description   string
	Actor         string
	CorrelationID string
	EntryDate     time.Time
}

// Transfer moves funds between two internal accounts: debit the
// destination, credit the source.
func (e *Engine) Transfer(ctx context.Context, params TransferParams) (*journal.Entry, error) {
	if params.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if params.FromAccountID == params.ToAccountID {
		return nil, ErrSameAccount
	}
	if params.EntryDate.IsZero() {
		params.EntryDate = today()
	}

	description := params.Description
	if description == "" {
		description = "internal transfer"
	}

	var entry *journal.Entry
	err := e.db.ExecuteLedgerTx(ctx, e.lockTimeout, func(tx pgx.Tx) error {
		draft := &journal.Draft{
			ReferenceType: journal.ReferenceTransfer,
			Description:   description,
			EntryDate:     params.EntryDate,
			CreatedBy:     params.Actor,
			CorrelationID: params.CorrelationID,
			Lines: []journal.DraftLine{
				{AccountID: params.ToAccountID, Debit: params.Amount},
				{AccountID: params.FromAccountID, Credit: params.Amount},
			},
		}

		var postErr error
		entry, postErr = e.Post(ctx, tx, draft)
		if postErr != nil {
			return postErr
		}

		if err := e.recordAudit(ctx, tx, params.Actor, "treasury.transfer", "journal_entry", entry.ID.String(), params); err != nil {
			return err
		}
		return e.enqueueArchive(ctx, tx, entry)
	})
	if err != nil {
		return nil, mapLockError(err)
	}
	return entry, nil
}
