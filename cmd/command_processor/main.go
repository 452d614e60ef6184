package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/microfin-loan-ledger/internal/command_processor/consumer"
	"github.com/microfin-loan-ledger/internal/command_processor/outbox_poller"
	"github.com/microfin-loan-ledger/internal/command_processor/service"
	"github.com/microfin-loan-ledger/internal/config"
	"github.com/microfin-loan-ledger/internal/data/mongo"
	"github.com/microfin-loan-ledger/internal/data/postgres"
	"github.com/microfin-loan-ledger/internal/engine"
	"github.com/microfin-loan-ledger/internal/logger"
	"github.com/microfin-loan-ledger/internal/platform/messaging/consumers"
	"github.com/microfin-loan-ledger/internal/platform/messaging/producers"
	"github.com/microfin-loan-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("command_processor")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Command Processor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	journalRepo := postgres.NewJournalRepository(log, postgresDB)
	loanRepo := postgres.NewLoanRepository(log, postgresDB)
	repaymentRepo := postgres.NewRepaymentRepository(log, postgresDB)
	periodRepo := postgres.NewPeriodRepository(log, postgresDB)
	auditRepo := postgres.NewAuditRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	archiveRepo := mongo.NewArchiveRepository(log, mongoDB.Database())

	// Initialize Kafka consumer
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	// Initialize Kafka DLQ producer
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	// dlqProducer might be nil if DLQTopic is not configured. Handler should be nil-safe.

	// Alert producer for trial balance imbalances surfaced by the engine
	alertProducer, err := producers.NewAlertProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize alert Kafka producer", "error", err)
		os.Exit(1)
	}

	// The engine refuses to start without the seeded system accounts
	systemAccounts, err := engine.ResolveSystemAccounts(appCtx, log, accountRepo)
	if err != nil {
		log.Error("Failed to resolve system accounts", "error", err)
		os.Exit(1)
	}

	ledgerEngine := engine.New(
		postgresDB,
		cfg.Engine.LockTimeout,
		accountRepo,
		journalRepo,
		loanRepo,
		repaymentRepo,
		periodRepo,
		auditRepo,
		outboxRepo,
		systemAccounts,
		alertProducer,
		log,
	)

	// Initialize processing service wrapped in a worker pool
	var processingService service.ProcessingService
	baseService := service.NewCommandService(ledgerEngine, log)
	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{Size: cfg.WorkerPool.Size},
		log.With("component", "worker_pool"),
	)
	if err != nil {
		log.Error("Failed to create worker pool service, falling back to base service", "error", err)
		processingService = baseService
	} else {
		log.Info("Created worker pool processing service", "pool_size", cfg.WorkerPool.Size)
		processingService = workerPoolService
	}

	// Initialize command event handler
	commandEventHandler := consumer.NewCommandEventHandler(
		log,
		processingService,
		dlqProducer,
	)

	// Initialize outbox poller
	archivePublisher := outbox_poller.NewArchivePublisher(
		outboxRepo,
		archiveRepo,
		log,
	)
	poller := outbox_poller.NewPoller(
		&cfg.Outbox,
		outboxRepo,
		archivePublisher,
		log,
	)

	// Create error channel for service errors
	errChan := make(chan error, 2)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start Kafka consumer in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.CommandTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, cfg.Kafka.CommandTopic, cfg.Kafka.ConsumerGroup, commandEventHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	// Start outbox poller in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Outbox Poller",
			"interval", cfg.Outbox.PollingInterval.String(),
			"batch_size", cfg.Outbox.BatchSize,
		)
		poller.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Shutdown the worker pool if it was created
	if wpService, ok := processingService.(*service.WorkerPoolProcessingService); ok {
		log.Info("Shutting down worker pool", "running_workers", wpService.Running())
		wpService.Shutdown()
	}

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Wait for all goroutines to finish
	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// Close DLQ Kafka producer
	if dlqProducer != nil { // dlqProducer can be nil if DLQTopic was not configured
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}

	if err = alertProducer.Close(); err != nil {
		log.Error("Error closing alert Kafka producer", "error", err)
	}

	// Close Kafka consumer
	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Close MongoDB connection
	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Command Processor shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Command Processor shutdown completed with errors")
	} else {
		log.Info("Command Processor shutdown completed successfully")
	}
}
