package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microfin-loan-ledger/internal/api_gateway/handler"
	"github.com/microfin-loan-ledger/internal/api_gateway/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	accountHandler *handler.AccountHandler,
	loanHandler *handler.LoanHandler,
	repaymentHandler *handler.RepaymentHandler,
	treasuryHandler *handler.TreasuryHandler,
	journalHandler *handler.JournalHandler,
	commandHandler *handler.CommandHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Chart of accounts
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountHandler.Create)
			accounts.GET("", accountHandler.List)
			accounts.GET("/:id", accountHandler.GetByID)
			accounts.DELETE("/:id", accountHandler.Deactivate)
			accounts.GET("/:id/entries", accountHandler.GetEntries)
		}

		// Loan book
		loans := v1.Group("/loans")
		{
			loans.POST("", loanHandler.Create)
			loans.GET("/:id", loanHandler.GetByID)
		}

		// Repayment processing
		repayments := v1.Group("/repayments")
		{
			repayments.POST("", repaymentHandler.Create)
			repayments.GET("/:id", repaymentHandler.GetByID)
			repayments.POST("/:id/reverse", repaymentHandler.Reverse)
		}

		// Treasury operations
		v1.POST("/disbursements", treasuryHandler.Disburse)
		treasury := v1.Group("/treasury")
		{
			treasury.POST("/injections", treasuryHandler.Inject)
			treasury.POST("/transfers", treasuryHandler.Transfer)
		}

		// Journal and trial balance
		entries := v1.Group("/journal-entries")
		{
			entries.POST("", journalHandler.CreateAdjustment)
			entries.GET("/:id", journalHandler.GetByID)
		}
		v1.GET("/trial-balance", journalHandler.TrialBalance)

		// Asynchronous command intake
		v1.POST("/commands", commandHandler.Submit)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
