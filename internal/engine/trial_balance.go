package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/microfin-loan-ledger/internal/domain/shared"
)

// AlertPublisher delivers operational alerts to the alert topic. The engine
// never absorbs an imbalance silently, but alert delivery failure must not
// fail the verification itself.
type AlertPublisher interface {
	Publish(ctx context.Context, alert shared.Alert) error
}

// TrialBalanceReport summarizes all journal lines effective on one date.
type TrialBalanceReport struct {
	Date               time.Time   `json:"date"`
	TotalDebits        int64       `json:"total_debits"`
	TotalCredits       int64       `json:"total_credits"`
	Difference         int64       `json:"difference"`
	IsBalanced         bool        `json:"is_balanced"`
	UnbalancedEntryIDs []uuid.UUID `json:"unbalanced_entry_ids,omitempty"`
}

// VerifyTrialBalance aggregates every line posted with the given effective
// date and checks exact debit/credit equality, both in total and per entry.
// The check is read-only; amounts are integer minor units, so no rounding
// tolerance applies. An imbalance is logged at Error and published to the
// alert topic.
func (e *Engine) VerifyTrialBalance(ctx context.Context, date time.Time) (*TrialBalanceReport, error) {
	totals, err := e.journals.TotalsByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	unbalanced, err := e.journals.UnbalancedEntryIDs(ctx, date)
	if err != nil {
		return nil, err
	}

	report := &TrialBalanceReport{
		Date:               date,
		TotalDebits:        totals.Debits,
		TotalCredits:       totals.Credits,
		Difference:         totals.Debits - totals.Credits,
		IsBalanced:         totals.Debits == totals.Credits && len(unbalanced) == 0,
		UnbalancedEntryIDs: unbalanced,
	}

	if !report.IsBalanced {
		e.logger.Error("Trial balance imbalance detected",
			"date", date.Format("2006-01-02"),
			"total_debits", report.TotalDebits,
			"total_credits", report.TotalCredits,
			"unbalanced_entries", len(unbalanced),
		)
		if e.alerts != nil {
			alert := shared.Alert{
				Type:    shared.AlertTypeTrialBalanceImbalance,
				Date:    date.Format("2006-01-02"),
				Message: "trial balance debits and credits diverge",
				Details: report,
			}
			if pubErr := e.alerts.Publish(ctx, alert); pubErr != nil {
				e.logger.Error("Failed to publish trial balance alert", "error", pubErr)
			}
		}
	}

	return report, nil
}
