package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/microfin-loan-ledger/internal/domain/account"
	"github.com/microfin-loan-ledger/internal/domain/journal"
)

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	accountRepo account.Repository
	archive     journal.Archive
}

// NewAccountService creates a new account service
func NewAccountService(accountRepo account.Repository, archive journal.Archive) AccountService {
	return &AccountServiceImpl{
		accountRepo: accountRepo,
		archive:     archive,
	}
}

// CreateAccount creates a new ledger account, checking for duplicate system codes
func (s *AccountServiceImpl) CreateAccount(ctx context.Context, name string, category account.Category, code string, parentID *uuid.UUID) (*account.Account, error) {
	if code != "" {
		existing, err := s.accountRepo.GetByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, account.ErrDuplicateCode{Code: code}
		}
	}

	acc, err := account.NewAccount(name, category, code, parentID)
	if err != nil {
		return nil, err
	}

	if err := s.accountRepo.Create(ctx, acc); err != nil {
		return nil, err
	}

	return acc, nil
}

// GetAccountByID retrieves an account by its ID, returns ErrAccountNotFound if not found
func (s *AccountServiceImpl) GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return s.accountRepo.GetByID(ctx, id)
}

// ListAccounts returns the full chart of accounts
func (s *AccountServiceImpl) ListAccounts(ctx context.Context) ([]*account.Account, error) {
	return s.accountRepo.List(ctx)
}

// DeactivateAccount marks an account inactive
func (s *AccountServiceImpl) DeactivateAccount(ctx context.Context, id uuid.UUID) error {
	return s.accountRepo.Deactivate(ctx, id)
}

// GetAccountEntries retrieves paginated archived journal entries for an account
// Returns entries, total count, and any error
func (s *AccountServiceImpl) GetAccountEntries(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*journal.Entry, int64, error) {
	offset := (page - 1) * perPage

	entries, err := s.archive.GetByAccountID(ctx, accountID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.archive.CountByAccountID(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
