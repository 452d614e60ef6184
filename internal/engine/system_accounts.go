package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/microfin-loan-ledger/internal/domain/account"
)

// SystemAccounts holds the internal accounts the orchestrators post
// against, resolved once at startup by their stable business codes.
type SystemAccounts struct {
	Portfolio    *account.Account // asset: loan receivables
	Capital      *account.Account // equity: injected capital
	Income       *account.Account // income: interest + penalty revenue
	ClientCredit *account.Account // liability: borrower overpayments
}

// ResolveSystemAccounts loads the four well-known accounts by code.
// A missing account returns ErrSystemAccountsMissing and is fatal: the
// service must not start against an incomplete chart of accounts.
func ResolveSystemAccounts(ctx context.Context, logger *slog.Logger, repo account.Repository) (*SystemAccounts, error) {
	codes := []string{account.CodePortfolio, account.CodeCapital, account.CodeIncome, account.CodeClientCredit}
	resolved := make(map[string]*account.Account, len(codes))
	var missing []string

	for _, code := range codes {
		acc, err := repo.GetByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve system account %s: %w", code, err)
		}
		if acc == nil {
			missing = append(missing, code)
			continue
		}
		resolved[code] = acc
	}

	if len(missing) > 0 {
		return nil, ErrSystemAccountsMissing{Codes: missing}
	}

	logger.Info("Resolved system accounts",
		"portfolio", resolved[account.CodePortfolio].ID.String(),
		"capital", resolved[account.CodeCapital].ID.String(),
		"income", resolved[account.CodeIncome].ID.String(),
		"client_credit", resolved[account.CodeClientCredit].ID.String(),
	)

	return &SystemAccounts{
		Portfolio:    resolved[account.CodePortfolio],
		Capital:      resolved[account.CodeCapital],
		Income:       resolved[account.CodeIncome],
		ClientCredit: resolved[account.CodeClientCredit],
	}, nil
}
