package journal

import (
	"bytes"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Draft validation errors
var (
	ErrNoLines        = errors.New("journal entry must have at least two lines")
	ErrNegativeAmount = errors.New("journal line amounts must be non-negative")
	ErrBothSides      = errors.New("journal line must have exactly one of debit or credit set")
)

// Reference types tag the business operation that produced an entry.
const (
	ReferenceRepayment        = "repayment"
	ReferenceBulkDisbursement = "bulk_disbursement"
	ReferenceReversal         = "reversal"
	ReferenceInjection        = "injection"
	ReferenceTransfer         = "transfer"
	ReferenceAdjustment       = "adjustment"
	ReferenceWriteOff         = "write_off"
)

// Entry is an atomic, balanced set of debit/credit postings representing one
// financial event. Entries are immutable once written; a correction is a new
// reversal entry, never an edit.
type Entry struct {
	ID            uuid.UUID  `json:"id" bson:"id"`
	ReferenceType string     `json:"reference_type" bson:"reference_type"`
	ReferenceID   *uuid.UUID `json:"reference_id,omitempty" bson:"reference_id,omitempty"`
	Description   string     `json:"description" bson:"description"`
	EntryDate     time.Time  `json:"entry_date" bson:"entry_date"` // effective date, may be backdated
	CreatedBy     string     `json:"created_by" bson:"created_by"`
	CorrelationID string     `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`
	Lines         []Line     `json:"lines" bson:"lines"`
}

// Line is a single debit or credit posting within an entry, tied to one
// account. Exactly one of Debit/Credit is non-zero.
type Line struct {
	ID        uuid.UUID `json:"id" bson:"id"`
	EntryID   uuid.UUID `json:"entry_id" bson:"entry_id"`
	AccountID uuid.UUID `json:"account_id" bson:"account_id"`
	Debit     int64     `json:"debit" bson:"debit"`   // minor units, >= 0
	Credit    int64     `json:"credit" bson:"credit"` // minor units, >= 0
}

// Draft is the posting engine's input: a fully-formed line set for one entry,
// not yet validated or assigned ids.
type Draft struct {
	ReferenceType string
	ReferenceID   *uuid.UUID
	Description   string
	EntryDate     time.Time
	CreatedBy     string
	CorrelationID string
	Lines         []DraftLine
}

// DraftLine is one prospective posting within a Draft.
type DraftLine struct {
	AccountID uuid.UUID
	Debit     int64
	Credit    int64
}

// Validate checks line shape: at least two lines, non-negative amounts, and
// exactly one side set per line. Balance is checked separately so callers can
// distinguish malformed lines from an imbalanced set.
func (d *Draft) Validate() error {
	if len(d.Lines) < 2 {
		return ErrNoLines
	}
	for _, line := range d.Lines {
		if line.Debit < 0 || line.Credit < 0 {
			return ErrNegativeAmount
		}
		if (line.Debit == 0) == (line.Credit == 0) {
			return ErrBothSides
		}
	}
	return nil
}

// Totals returns the summed debit and credit amounts across all lines.
func (d *Draft) Totals() (debits, credits int64) {
	for _, line := range d.Lines {
		debits += line.Debit
		credits += line.Credit
	}
	return debits, credits
}

// Balanced reports whether total debits equal total credits exactly.
// Amounts are integer minor units, so no rounding tolerance applies.
func (d *Draft) Balanced() bool {
	debits, credits := d.Totals()
	return debits == credits
}

// AccountIDs returns the distinct account ids referenced by the draft in
// ascending byte order. This is the engine's account lock order.
func (d *Draft) AccountIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(d.Lines))
	ids := make([]uuid.UUID, 0, len(d.Lines))
	for _, line := range d.Lines {
		if _, ok := seen[line.AccountID]; ok {
			continue
		}
		seen[line.AccountID] = struct{}{}
		ids = append(ids, line.AccountID)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	return ids
}

// Mirror returns a draft whose lines are the exact inverse of the entry's
// lines (debit and credit swapped, same amounts). A mirrored entry always
// balances because the original did.
func Mirror(original *Entry, referenceType string, referenceID *uuid.UUID, description, createdBy string, entryDate time.Time) *Draft {
	lines := make([]DraftLine, len(original.Lines))
	for i, line := range original.Lines {
		lines[i] = DraftLine{
			AccountID: line.AccountID,
			Debit:     line.Credit,
			Credit:    line.Debit,
		}
	}
	return &Draft{
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
		Description:   description,
		EntryDate:     entryDate,
		CreatedBy:     createdBy,
		Lines:         lines,
	}
}
