package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/microfin-loan-ledger/internal/domain/loan"
)

// LoanServiceImpl implements the LoanService interface
type LoanServiceImpl struct {
	loanRepo loan.Repository
}

// NewLoanService creates a new loan service
func NewLoanService(loanRepo loan.Repository) LoanService {
	return &LoanServiceImpl{
		loanRepo: loanRepo,
	}
}

// CreateLoan registers a pending loan awaiting disbursement
func (s *LoanServiceImpl) CreateLoan(ctx context.Context, borrower string, principal, interest, penalty int64) (*loan.Loan, error) {
	l, err := loan.NewLoan(borrower, principal, interest, penalty)
	if err != nil {
		return nil, err
	}

	if err := s.loanRepo.Create(ctx, l); err != nil {
		return nil, err
	}

	return l, nil
}

// GetLoanByID retrieves a loan by its ID, returns ErrLoanNotFound if not found
func (s *LoanServiceImpl) GetLoanByID(ctx context.Context, id uuid.UUID) (*loan.Loan, error) {
	return s.loanRepo.GetByID(ctx, id)
}
