package postgres

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/microfin-loan-ledger/internal/domain/account"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestAccountRepository_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AccountRepository{querier: mock, logger: logger}

	acc := &account.Account{
		ID:        uuid.New(),
		Name:      "Loan Portfolio",
		Category:  account.CategoryAsset,
		Code:      account.CodePortfolio,
		Balance:   0,
		Active:    true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	query := `
		INSERT INTO accounts \(id, name, category, code, parent_id, balance, active, created_at, updated_at\)
		VALUES \(\$1, \$2, \$3, NULLIF\(\$4, ''\), \$5, \$6, \$7, \$8, \$9\)
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(acc.ID, acc.Name, acc.Category, acc.Code, acc.ParentID, acc.Balance, acc.Active, acc.CreatedAt, acc.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.Create(ctx, acc)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		expectedErr := errors.New("db error")
		mock.ExpectExec(query).
			WithArgs(acc.ID, acc.Name, acc.Category, acc.Code, acc.ParentID, acc.Balance, acc.Active, acc.CreatedAt, acc.UpdatedAt).
			WillReturnError(expectedErr)

		err := repo.Create(ctx, acc)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create account")
		assert.ErrorIs(t, err, expectedErr) // Check underlying error if wrapped
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AccountRepository{querier: mock, logger: logger}
	accID := uuid.New()
	now := time.Now()

	expectedAccount := &account.Account{
		ID:        accID,
		Name:      "Interest Income",
		Category:  account.CategoryIncome,
		Code:      account.CodeIncome,
		Balance:   25000,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		SELECT id, name, category, COALESCE\(code, ''\), parent_id, balance, active, created_at, updated_at
		FROM accounts
		WHERE id = \$1
	`
	rows := pgxmock.NewRows([]string{"id", "name", "category", "code", "parent_id", "balance", "active", "created_at", "updated_at"}).
		AddRow(expectedAccount.ID, expectedAccount.Name, expectedAccount.Category, expectedAccount.Code, expectedAccount.ParentID, expectedAccount.Balance, expectedAccount.Active, expectedAccount.CreatedAt, expectedAccount.UpdatedAt)

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(accID).WillReturnRows(rows)

		acc, err := repo.GetByID(ctx, accID)
		assert.NoError(t, err)
		assert.Equal(t, expectedAccount, acc)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(accID).WillReturnError(pgx.ErrNoRows)

		acc, err := repo.GetByID(ctx, accID)
		assert.Error(t, err)
		assert.Nil(t, acc)
		var accNotFoundErr account.ErrAccountNotFound
		assert.ErrorAs(t, err, &accNotFoundErr)
		assert.Equal(t, accID, accNotFoundErr.AccountID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("some db error")
		mock.ExpectQuery(query).WithArgs(accID).WillReturnError(dbErr)

		acc, err := repo.GetByID(ctx, accID)
		assert.Error(t, err)
		assert.Nil(t, acc)
		assert.Contains(t, err.Error(), "failed to get account")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_GetByCode(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AccountRepository{querier: mock, logger: logger}
	now := time.Now()

	expectedAccount := &account.Account{
		ID:        uuid.New(),
		Name:      "Owner Capital",
		Category:  account.CategoryEquity,
		Code:      account.CodeCapital,
		Balance:   1000000,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		SELECT id, name, category, COALESCE\(code, ''\), parent_id, balance, active, created_at, updated_at
		FROM accounts
		WHERE code = \$1
	`
	rows := pgxmock.NewRows([]string{"id", "name", "category", "code", "parent_id", "balance", "active", "created_at", "updated_at"}).
		AddRow(expectedAccount.ID, expectedAccount.Name, expectedAccount.Category, expectedAccount.Code, expectedAccount.ParentID, expectedAccount.Balance, expectedAccount.Active, expectedAccount.CreatedAt, expectedAccount.UpdatedAt)

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(account.CodeCapital).WillReturnRows(rows)

		acc, err := repo.GetByCode(ctx, account.CodeCapital)
		assert.NoError(t, err)
		assert.Equal(t, expectedAccount, acc)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(account.CodeCapital).WillReturnError(pgx.ErrNoRows)

		acc, err := repo.GetByCode(ctx, account.CodeCapital)
		assert.NoError(t, err) // No error, just nil account
		assert.Nil(t, acc)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("some db error")
		mock.ExpectQuery(query).WithArgs(account.CodeCapital).WillReturnError(dbErr)

		acc, err := repo.GetByCode(ctx, account.CodeCapital)
		assert.Error(t, err)
		assert.Nil(t, acc)
		assert.Contains(t, err.Error(), "failed to get account by code")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_ApplyDelta(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AccountRepository{querier: mock, logger: logger}
	accID := uuid.New()
	delta := int64(-500)

	query := `
		UPDATE accounts
		SET balance = balance \+ \$1, updated_at = NOW\(\)
		WHERE id = \$2
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(delta, accID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.ApplyDelta(ctx, accID, delta)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(delta, accID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0)) // 0 rows affected

		err := repo.ApplyDelta(ctx, accID, delta)
		assert.Error(t, err)
		var accNotFoundErr account.ErrAccountNotFound
		assert.ErrorAs(t, err, &accNotFoundErr)
		assert.Equal(t, accID, accNotFoundErr.AccountID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("apply delta db error")
		mock.ExpectExec(query).
			WithArgs(delta, accID).
			WillReturnError(dbErr)

		err := repo.ApplyDelta(ctx, accID, delta)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to apply balance delta")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_LockForUpdate(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AccountRepository{querier: mock, logger: logger}
	accID := uuid.New()
	now := time.Now()

	expectedAccount := &account.Account{
		ID:        accID,
		Name:      "Client Wallet",
		Category:  account.CategoryLiability,
		Balance:   2000,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		SELECT id, name, category, COALESCE\(code, ''\), parent_id, balance, active, created_at, updated_at
		FROM accounts
		WHERE id = \$1
		FOR UPDATE
	`
	rows := pgxmock.NewRows([]string{"id", "name", "category", "code", "parent_id", "balance", "active", "created_at", "updated_at"}).
		AddRow(expectedAccount.ID, expectedAccount.Name, expectedAccount.Category, expectedAccount.Code, expectedAccount.ParentID, expectedAccount.Balance, expectedAccount.Active, expectedAccount.CreatedAt, expectedAccount.UpdatedAt)

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(accID).WillReturnRows(rows)

		acc, err := repo.LockForUpdate(ctx, accID)
		assert.NoError(t, err)
		assert.Equal(t, expectedAccount, acc)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(accID).WillReturnError(pgx.ErrNoRows)

		acc, err := repo.LockForUpdate(ctx, accID)
		assert.Error(t, err)
		assert.Nil(t, acc)
		var accNotFoundErr account.ErrAccountNotFound
		assert.ErrorAs(t, err, &accNotFoundErr)
		assert.Equal(t, accID, accNotFoundErr.AccountID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("lock db error")
		mock.ExpectQuery(query).WithArgs(accID).WillReturnError(dbErr)

		acc, err := repo.LockForUpdate(ctx, accID)
		assert.Error(t, err)
		assert.Nil(t, acc)
		assert.Contains(t, err.Error(), "failed to lock account for update")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_WithTx(t *testing.T) {
	logger := newTestLogger()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	// Original repository with a pool
	originalRepo := &AccountRepository{querier: mockPool, logger: logger}

	mockPool.ExpectBegin()
	pgxTx, err := mockPool.Begin(context.Background())
	require.NoError(t, err)

	txRepo := originalRepo.WithTx(pgxTx)

	assert.NotNil(t, txRepo)
	assert.Equal(t, originalRepo.logger, txRepo.(*AccountRepository).logger)
	assert.Equal(t, pgxTx, txRepo.(*AccountRepository).querier, "Querier in new repo should be the transaction")

	assert.NoError(t, mockPool.ExpectationsWereMet())
}
