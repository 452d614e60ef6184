package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/microfin-loan-ledger/internal/domain/journal"
	"github.com/microfin-loan-ledger/internal/domain/loan"
	"github.com/microfin-loan-ledger/internal/domain/repayment"
	"github.com/microfin-loan-ledger/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepaymentRepository struct {
	mock.Mock
}

func (m *MockRepaymentRepository) Create(ctx context.Context, rep *repayment.Repayment) error {
	args := m.Called(ctx, rep)
	return args.Error(0)
}

func (m *MockRepaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*repayment.Repayment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repayment.Repayment), args.Error(1)
}

func (m *MockRepaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*repayment.Repayment, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repayment.Repayment), args.Error(1)
}

func (m *MockRepaymentRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*repayment.Repayment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repayment.Repayment), args.Error(1)
}

func (m *MockRepaymentRepository) MarkReversed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepaymentRepository) WithTx(tx pgx.Tx) repayment.Repository {
	return m
}

var _ repayment.Repository = (*MockRepaymentRepository)(nil)

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) ProcessRepayment(ctx context.Context, params engine.RepaymentParams) (*engine.RepaymentResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.RepaymentResult), args.Error(1)
}

func (m *mockEngine) ReverseRepayment(ctx context.Context, params engine.ReversalParams) (*engine.ReversalResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.ReversalResult), args.Error(1)
}

func (m *mockEngine) BulkDisburse(ctx context.Context, params engine.DisbursementParams) (*engine.DisbursementResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.DisbursementResult), args.Error(1)
}

func (m *mockEngine) InjectCapital(ctx context.Context, params engine.InjectionParams) (*journal.Entry, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*journal.Entry), args.Error(1)
}

func (m *mockEngine) Transfer(ctx context.Context, params engine.TransferParams) (*journal.Entry, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*journal.Entry), args.Error(1)
}

func (m *mockEngine) PostAdjustment(ctx context.Context, params engine.AdjustmentParams) (*journal.Entry, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*journal.Entry), args.Error(1)
}

func (m *mockEngine) VerifyTrialBalance(ctx context.Context, date time.Time) (*engine.TrialBalanceReport, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.TrialBalanceReport), args.Error(1)
}

func newLedgerServiceForTest(eng ledgerEngine, repo repayment.Repository, archive journal.Archive) LedgerService {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	return NewLedgerService(logger, eng, repo, archive)
}

func TestLedgerService_Delegation(t *testing.T) {
	ctx := context.Background()

	t.Run("ProcessRepayment", func(t *testing.T) {
		eng := new(mockEngine)
		svc := newLedgerServiceForTest(eng, new(MockRepaymentRepository), new(MockArchive))

		params := engine.RepaymentParams{
			LoanID:          uuid.New(),
			SourceAccountID: uuid.New(),
			Amount:          10000,
			IdempotencyKey:  "cmd-1",
			Actor:           "teller-7",
		}
		expected := &engine.RepaymentResult{
			RepaymentID: uuid.New(),
			LoanStatus:  loan.StatusActive,
		}
		eng.On("ProcessRepayment", ctx, params).Return(expected, nil)

		result, err := svc.ProcessRepayment(ctx, params)

		require.NoError(t, err)
		assert.Equal(t, expected, result)
		eng.AssertExpectations(t)
	})

	t.Run("VerifyTrialBalance", func(t *testing.T) {
		eng := new(mockEngine)
		svc := newLedgerServiceForTest(eng, new(MockRepaymentRepository), new(MockArchive))

		date := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
		report := &engine.TrialBalanceReport{Date: date, IsBalanced: true}
		eng.On("VerifyTrialBalance", ctx, date).Return(report, nil)

		got, err := svc.VerifyTrialBalance(ctx, date)

		require.NoError(t, err)
		assert.Equal(t, report, got)
		eng.AssertExpectations(t)
	})
}

func TestLedgerService_GetRepaymentByID(t *testing.T) {
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		repo := new(MockRepaymentRepository)
		svc := newLedgerServiceForTest(new(mockEngine), repo, new(MockArchive))

		rep := &repayment.Repayment{ID: uuid.New(), AmountPaid: 10000}
		repo.On("GetByID", ctx, rep.ID).Return(rep, nil)

		got, err := svc.GetRepaymentByID(ctx, rep.ID)

		require.NoError(t, err)
		assert.Equal(t, rep, got)
	})

	t.Run("NotFoundReturnsNil", func(t *testing.T) {
		repo := new(MockRepaymentRepository)
		svc := newLedgerServiceForTest(new(mockEngine), repo, new(MockArchive))

		id := uuid.New()
		repo.On("GetByID", ctx, id).Return(nil, repayment.ErrRepaymentNotFound{RepaymentID: id})

		got, err := svc.GetRepaymentByID(ctx, id)

		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("RepositoryFailurePropagates", func(t *testing.T) {
		repo := new(MockRepaymentRepository)
		svc := newLedgerServiceForTest(new(mockEngine), repo, new(MockArchive))

		id := uuid.New()
		repo.On("GetByID", ctx, id).Return(nil, assert.AnError)

		got, err := svc.GetRepaymentByID(ctx, id)

		assert.Nil(t, got)
		assert.Error(t, err)
	})
}

func TestLedgerService_GetJournalEntryByID(t *testing.T) {
	ctx := context.Background()

	t.Run("NotFoundReturnsNil", func(t *testing.T) {
		archive := new(MockArchive)
		svc := newLedgerServiceForTest(new(mockEngine), new(MockRepaymentRepository), archive)

		id := uuid.New()
		archive.On("GetByEntryID", ctx, id).Return(nil, journal.ErrEntryNotFound{EntryID: id})

		got, err := svc.GetJournalEntryByID(ctx, id)

		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Found", func(t *testing.T) {
		archive := new(MockArchive)
		svc := newLedgerServiceForTest(new(mockEngine), new(MockRepaymentRepository), archive)

		entry := &journal.Entry{ID: uuid.New(), ReferenceType: "repayment"}
		archive.On("GetByEntryID", ctx, entry.ID).Return(entry, nil)

		got, err := svc.GetJournalEntryByID(ctx, entry.ID)

		require.NoError(t, err)
		assert.Equal(t, entry, got)
	})
}
