package repayment

import (
	"time"

	"github.com/google/uuid"
)

// Status marks whether a repayment still stands or has been reversed.
type Status string

const (
	StatusPosted   Status = "posted"
	StatusReversed Status = "reversed"
)

// Distribution is the waterfall allocation of a single payment across the
// loan's obligation buckets. Amounts are in minor units.
type Distribution struct {
	PenaltyPaid   int64 `json:"penalty_paid"`
	InterestPaid  int64 `json:"interest_paid"`
	PrincipalPaid int64 `json:"principal_paid"`
	Overpayment   int64 `json:"overpayment"`
	IsFullyPaid   bool  `json:"is_fully_paid"`
}

// Repayment records one posted payment against a loan together with its
// waterfall distribution and the journal entry it produced. The idempotency
// key is unique per command; its uniqueness constraint is what makes the
// guard atomic with the posting.
type Repayment struct {
	ID              uuid.UUID `json:"id"`
	LoanID          uuid.UUID `json:"loan_id"`
	JournalEntryID  uuid.UUID `json:"journal_entry_id"`
	SourceAccountID uuid.UUID `json:"source_account_id"`
	AmountPaid      int64     `json:"amount_paid"`
	PrincipalPaid   int64     `json:"principal_paid"`
	InterestPaid    int64     `json:"interest_paid"`
	PenaltyPaid     int64     `json:"penalty_paid"`
	Overpayment     int64     `json:"overpayment"`
	IdempotencyKey  string    `json:"idempotency_key,omitempty"`
	Status          Status    `json:"status"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// IsReversed reports whether the repayment has been undone.
func (r *Repayment) IsReversed() bool {
	return r.Status == StatusReversed
}

// Distribution returns the stored waterfall allocation.
func (r *Repayment) Distribution() Distribution {
	return Distribution{
		PenaltyPaid:   r.PenaltyPaid,
		InterestPaid:  r.InterestPaid,
		PrincipalPaid: r.PrincipalPaid,
		Overpayment:   r.Overpayment,
	}
}
