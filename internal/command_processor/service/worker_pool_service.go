package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/microfin-loan-ledger/internal/domain/shared"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolProcessingService fans command processing out over a bounded
// goroutine pool while keeping the caller's synchronous error contract.
type WorkerPoolProcessingService struct {
	baseService ProcessingService
	pool        *ants.Pool
	logger      *slog.Logger
	// Use a mutex to protect access to the results map
	mu      sync.Mutex
	results map[string]chan error
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolProcessingService(
	baseService ProcessingService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolProcessingService, error) {
	// Create a new worker pool with the specified size
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolProcessingService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
		results:     make(map[string]chan error),
	}, nil
}

// ProcessCommand submits a financial command to the worker pool for processing.
func (s *WorkerPoolProcessingService) ProcessCommand(ctx context.Context, cmd *shared.FinancialCommand) error {
	logger := s.logger
	if cmd.CorrelationID != "" {
		logger = s.logger.With("correlation_id", cmd.CorrelationID)
	}

	logger.Info("Submitting command to worker pool",
		"command_id", cmd.CommandID.String(),
		"type", cmd.Type,
	)

	// Create a channel to receive the result of the command processing
	resultChan := make(chan error, 1)

	// Store the result channel in the result map
	commandID := cmd.CommandID.String()
	s.mu.Lock()
	s.results[commandID] = resultChan
	s.mu.Unlock()

	// Create a copy of the command to avoid data races
	cmdCopy := *cmd

	// Submit the task to the worker pool
	err := s.pool.Submit(func() {
		// Process the command using the base service
		err := s.baseService.ProcessCommand(ctx, &cmdCopy)

		// Send the result to the channel
		resultChan <- err

		// Remove the result channel from the map
		s.mu.Lock()
		delete(s.results, commandID)
		close(resultChan)
		s.mu.Unlock()
	})

	if err != nil {
		// If we couldn't submit the task to the pool, remove the result channel
		s.mu.Lock()
		delete(s.results, commandID)
		close(resultChan)
		s.mu.Unlock()

		logger.Error("Failed to submit command to worker pool",
			"command_id", cmd.CommandID.String(),
			"error", err,
		)
		return err
	}

	// Wait for the result from the worker
	return <-resultChan
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolProcessingService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolProcessingService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolProcessingService) Capacity() int {
	return s.pool.Cap()
}
