package engine

import (
	"github.com/microfin-loan-ledger/internal/domain/repayment"
)

// DistributePayment allocates a payment across the loan's obligation
// buckets in strict priority order: penalty, then interest, then principal.
// Whatever survives all three buckets is overpayment. Amounts are minor
// units; the allocation conserves the payment exactly.
func DistributePayment(amount, penaltyOutstanding, interestOutstanding, principalOutstanding int64) repayment.Distribution {
	remaining := amount

	penaltyPaid := minInt64(remaining, penaltyOutstanding)
	remaining -= penaltyPaid

	interestPaid := minInt64(remaining, interestOutstanding)
	remaining -= interestPaid

	principalPaid := minInt64(remaining, principalOutstanding)
	remaining -= principalPaid

	return repayment.Distribution{
		PenaltyPaid:   penaltyPaid,
		InterestPaid:  interestPaid,
		PrincipalPaid: principalPaid,
		Overpayment:   remaining,
		IsFullyPaid:   principalPaid == principalOutstanding && interestPaid == interestOutstanding && penaltyPaid == penaltyOutstanding,
	}
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
