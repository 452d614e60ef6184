package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/microfin-loan-ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProcessingService struct {
	mock.Mock
}

func (m *MockProcessingService) ProcessCommand(ctx context.Context, cmd *shared.FinancialCommand) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

var _ ProcessingService = (*MockProcessingService)(nil)

func newTestCommand() *shared.FinancialCommand {
	return &shared.FinancialCommand{
		CommandID: uuid.New(),
		Type:      shared.CommandTypeRepayment,
		Repayment: &shared.RepaymentPayload{
			LoanID:          uuid.New(),
			SourceAccountID: uuid.New(),
			Amount:          100,
		},
	}
}

func TestWorkerPoolProcessingService(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	ctx := context.Background()

	t.Run("processes command through base service", func(t *testing.T) {
		base := new(MockProcessingService)
		pool, err := NewWorkerPoolProcessingService(base, WorkerPoolConfig{Size: 2}, logger)
		require.NoError(t, err)
		defer pool.Shutdown()

		cmd := newTestCommand()
		base.On("ProcessCommand", ctx, mock.MatchedBy(func(c *shared.FinancialCommand) bool {
			return c.CommandID == cmd.CommandID
		})).Return(nil).Once()

		err = pool.ProcessCommand(ctx, cmd)
		require.NoError(t, err)
		base.AssertExpectations(t)
	})

	t.Run("propagates base service error", func(t *testing.T) {
		base := new(MockProcessingService)
		pool, err := NewWorkerPoolProcessingService(base, WorkerPoolConfig{Size: 2}, logger)
		require.NoError(t, err)
		defer pool.Shutdown()

		baseErr := errors.New("processing failed")
		base.On("ProcessCommand", ctx, mock.Anything).Return(baseErr).Once()

		err = pool.ProcessCommand(ctx, newTestCommand())
		assert.ErrorIs(t, err, baseErr)
	})

	t.Run("handles concurrent commands", func(t *testing.T) {
		base := new(MockProcessingService)
		pool, err := NewWorkerPoolProcessingService(base, WorkerPoolConfig{Size: 4}, logger)
		require.NoError(t, err)
		defer pool.Shutdown()

		base.On("ProcessCommand", ctx, mock.Anything).Return(nil).Times(10)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, pool.ProcessCommand(ctx, newTestCommand()))
			}()
		}
		wg.Wait()
		base.AssertExpectations(t)
	})

	t.Run("capacity reporting", func(t *testing.T) {
		base := new(MockProcessingService)
		pool, err := NewWorkerPoolProcessingService(base, WorkerPoolConfig{Size: 3}, logger)
		require.NoError(t, err)
		defer pool.Shutdown()

		assert.Equal(t, 3, pool.Capacity())
	})
}
