package handler

import "github.com/microfin-loan-ledger/internal/domain/journal"

// CreateAccountRequest represents a request to create a ledger account
type CreateAccountRequest struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category" binding:"required,oneof=asset liability equity income expense"`
	Code     string `json:"code,omitempty"`
	ParentID string `json:"parent_id,omitempty" binding:"omitempty,uuid"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Code      string `json:"code,omitempty"`
	ParentID  string `json:"parent_id,omitempty"`
	Balance   int64  `json:"balance"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// CreateLoanRequest represents a request to register a loan
type CreateLoanRequest struct {
	Borrower  string `json:"borrower" binding:"required"`
	Principal int64  `json:"principal" binding:"required,gt=0"`
	Interest  int64  `json:"interest" binding:"min=0"`
	Penalty   int64  `json:"penalty" binding:"min=0"`
}

// LoanResponse represents a loan in API responses
type LoanResponse struct {
	ID                   string `json:"id"`
	Borrower             string `json:"borrower"`
	PrincipalOutstanding int64  `json:"principal_outstanding"`
	InterestOutstanding  int64  `json:"interest_outstanding"`
	PenaltyOutstanding   int64  `json:"penalty_outstanding"`
	Status               string `json:"status"`
	CreatedAt            string `json:"created_at"`
	UpdatedAt            string `json:"updated_at"`
}

// CreateRepaymentRequest represents a request to process a repayment
type CreateRepaymentRequest struct {
	LoanID          string `json:"loan_id" binding:"required,uuid"`
	SourceAccountID string `json:"source_account_id" binding:"required,uuid"`
	Amount          int64  `json:"amount" binding:"required,gt=0"`
	IdempotencyKey  string `json:"idempotency_key,omitempty"`
	Actor           string `json:"actor" binding:"required"`
	EntryDate       string `json:"entry_date,omitempty"` // YYYY-MM-DD, defaults to today
}

// RepaymentResponse represents a processed repayment in API responses
type RepaymentResponse struct {
	RepaymentID    string `json:"repayment_id"`
	JournalEntryID string `json:"journal_entry_id"`
	PenaltyPaid    int64  `json:"penalty_paid"`
	InterestPaid   int64  `json:"interest_paid"`
	PrincipalPaid  int64  `json:"principal_paid"`
	Overpayment    int64  `json:"overpayment"`
	LoanStatus     string `json:"loan_status"`
	Duplicate      bool   `json:"duplicate"`
}

// ReverseRepaymentRequest represents a request to reverse a repayment
type ReverseRepaymentRequest struct {
	Reason string `json:"reason" binding:"required"`
	Actor  string `json:"actor" binding:"required"`
}

// ReversalResponse represents a posted reversal in API responses
type ReversalResponse struct {
	JournalEntryID string `json:"journal_entry_id"`
	LoanStatus     string `json:"loan_status"`
}

// CreateDisbursementRequest represents a bulk disbursement request
type CreateDisbursementRequest struct {
	LoanIDs         []string `json:"loan_ids" binding:"required,min=1,dive,uuid"`
	SourceAccountID string   `json:"source_account_id" binding:"required,uuid"`
	Actor           string   `json:"actor" binding:"required"`
}

// DisbursementResponse represents a bulk disbursement outcome
type DisbursementResponse struct {
	JournalEntryID string   `json:"journal_entry_id,omitempty"`
	DisbursedIDs   []string `json:"disbursed_ids"`
	FailedIDs      []string `json:"failed_ids"`
	TotalDisbursed int64    `json:"total_disbursed"`
}

// CreateInjectionRequest represents a capital injection request
type CreateInjectionRequest struct {
	TargetAccountID string `json:"target_account_id" binding:"required,uuid"`
	Amount          int64  `json:"amount" binding:"required,gt=0"`
	Description     string `json:"description,omitempty"`
	Actor           string `json:"actor" binding:"required"`
}

// CreateTransferRequest represents an internal fund transfer request
type CreateTransferRequest struct {
	FromAccountID string `json:"from_account_id" binding:"required,uuid"`
	ToAccountID   string `json:"to_account_id" binding:"required,uuid"`
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	Description   string `json:"description,omitempty"`
	Actor         string `json:"actor" binding:"required"`
}

// AdjustmentLine is one prospective posting in a manual adjustment
type AdjustmentLine struct {
	AccountID string `json:"account_id" binding:"required,uuid"`
	Debit     int64  `json:"debit" binding:"min=0"`
	Credit    int64  `json:"credit" binding:"min=0"`
}

// CreateAdjustmentRequest represents a manual journal adjustment request
type CreateAdjustmentRequest struct {
	Lines       []AdjustmentLine `json:"lines" binding:"required,min=2,dive"`
	Description string           `json:"description" binding:"required"`
	Actor       string           `json:"actor" binding:"required"`
	EntryDate   string           `json:"entry_date,omitempty"` // YYYY-MM-DD
}

// EntryResponse represents a posted journal entry in API responses
type EntryResponse struct {
	ID            string         `json:"id"`
	ReferenceType string         `json:"reference_type"`
	ReferenceID   string         `json:"reference_id,omitempty"`
	Description   string         `json:"description"`
	EntryDate     string         `json:"entry_date"`
	CreatedBy     string         `json:"created_by"`
	CreatedAt     string         `json:"created_at"`
	Lines         []LineResponse `json:"lines"`
}

// LineResponse represents one journal line in API responses
type LineResponse struct {
	AccountID string `json:"account_id"`
	Debit     int64  `json:"debit"`
	Credit    int64  `json:"credit"`
}

// EntryListResponse represents a list of journal entries
type EntryListResponse struct {
	Entries []EntryResponse `json:"entries"`
}

// CommandAcceptedResponse acknowledges an async command submission
type CommandAcceptedResponse struct {
	CommandID string `json:"command_id"`
	Status    string `json:"status"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

// mapEntryToResponse maps a journal entry to its response DTO
func mapEntryToResponse(entry *journal.Entry) EntryResponse {
	lines := make([]LineResponse, len(entry.Lines))
	for i, line := range entry.Lines {
		lines[i] = LineResponse{
			AccountID: line.AccountID.String(),
			Debit:     line.Debit,
			Credit:    line.Credit,
		}
	}

	referenceID := ""
	if entry.ReferenceID != nil {
		referenceID = entry.ReferenceID.String()
	}

	return EntryResponse{
		ID:            entry.ID.String(),
		ReferenceType: entry.ReferenceType,
		ReferenceID:   referenceID,
		Description:   entry.Description,
		EntryDate:     entry.EntryDate.Format("2006-01-02"),
		CreatedBy:     entry.CreatedBy,
		CreatedAt:     entry.CreatedAt.Format(timeFormat),
		Lines:         lines,
	}
}
