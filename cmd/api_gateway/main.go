package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/microfin-loan-ledger/internal/api_gateway"
	"github.com/microfin-loan-ledger/internal/api_gateway/service"
	"github.com/microfin-loan-ledger/internal/config"
	"github.com/microfin-loan-ledger/internal/data/mongo"
	"github.com/microfin-loan-ledger/internal/data/postgres"
	"github.com/microfin-loan-ledger/internal/engine"
	"github.com/microfin-loan-ledger/internal/logger"
	"github.com/microfin-loan-ledger/internal/platform/messaging/producers"
	"github.com/microfin-loan-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

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

	// Initialize Kafka producer for the command intake topic
	commandProducer, err := producers.NewFinancialCommandProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize command Kafka producer", "error", err)
		os.Exit(1)
	}

	// Alert producer for trial balance imbalances surfaced by the engine
	alertProducer, err := producers.NewAlertProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize alert Kafka producer", "error", err)
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

	// Initialize services
	accountService := service.NewAccountService(accountRepo, archiveRepo)
	loanService := service.NewLoanService(loanRepo)
	ledgerService := service.NewLedgerService(log, ledgerEngine, repaymentRepo, archiveRepo)
	commandService := service.NewCommandService(log, commandProducer)

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, accountService, loanService, ledgerService, commandService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = commandProducer.Close(); err != nil {
		log.Error("Error closing command Kafka producer", "error", err)
	}

	if err = alertProducer.Close(); err != nil {
		log.Error("Error closing alert Kafka producer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
