package engine

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/microfin-loan-ledger/internal/domain/account"
	"github.com/microfin-loan-ledger/internal/domain/audit"
	"github.com/microfin-loan-ledger/internal/domain/journal"
	"github.com/microfin-loan-ledger/internal/domain/loan"
	"github.com/microfin-loan-ledger/internal/domain/outbox"
	"github.com/microfin-loan-ledger/internal/domain/period"
	"github.com/microfin-loan-ledger/internal/domain/repayment"
	"github.com/microfin-loan-ledger/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// Mock implementations of the engine's dependencies

// fakeTxRunner runs the transaction function directly with a nil pgx.Tx.
// The repository mocks ignore the transaction handle.
type fakeTxRunner struct{}

func (fakeTxRunner) ExecuteLedgerTx(ctx context.Context, lockTimeout time.Duration, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) Create(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepo) GetByCode(ctx context.Context, code string) (*account.Account, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepo) List(ctx context.Context) ([]*account.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*account.Account), args.Error(1)
}

func (m *MockAccountRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAccountRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepo) ApplyDelta(ctx context.Context, id uuid.UUID, delta int64) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

func (m *MockAccountRepo) WithTx(tx pgx.Tx) account.Repository {
	return m
}

type MockJournalRepo struct {
	mock.Mock
}

func (m *MockJournalRepo) CreateEntry(ctx context.Context, entry *journal.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockJournalRepo) GetEntryByID(ctx context.Context, id uuid.UUID) (*journal.Entry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*journal.Entry), args.Error(1)
}

func (m *MockJournalRepo) ExistsByReference(ctx context.Context, referenceType string, referenceID uuid.UUID) (bool, error) {
	args := m.Called(ctx, referenceType, referenceID)
	return args.Bool(0), args.Error(1)
}

func (m *MockJournalRepo) TotalsByDate(ctx context.Context, date time.Time) (journal.DateTotals, error) {
	args := m.Called(ctx, date)
	return args.Get(0).(journal.DateTotals), args.Error(1)
}

func (m *MockJournalRepo) UnbalancedEntryIDs(ctx context.Context, date time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockJournalRepo) WithTx(tx pgx.Tx) journal.Repository {
	return m
}

type MockLoanRepo struct {
	mock.Mock
}

func (m *MockLoanRepo) Create(ctx context.Context, l *loan.Loan) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockLoanRepo) GetByID(ctx context.Context, id uuid.UUID) (*loan.Loan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loan.Loan), args.Error(1)
}

func (m *MockLoanRepo) Update(ctx context.Context, l *loan.Loan) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockLoanRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*loan.Loan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loan.Loan), args.Error(1)
}

func (m *MockLoanRepo) WithTx(tx pgx.Tx) loan.Repository {
	return m
}

type MockRepaymentRepo struct {
	mock.Mock
}

func (m *MockRepaymentRepo) Create(ctx context.Context, rep *repayment.Repayment) error {
	args := m.Called(ctx, rep)
	return args.Error(0)
}

func (m *MockRepaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*repayment.Repayment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repayment.Repayment), args.Error(1)
}

func (m *MockRepaymentRepo) GetByIdempotencyKey(ctx context.Context, key string) (*repayment.Repayment, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repayment.Repayment), args.Error(1)
}

func (m *MockRepaymentRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*repayment.Repayment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repayment.Repayment), args.Error(1)
}

func (m *MockRepaymentRepo) MarkReversed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepaymentRepo) WithTx(tx pgx.Tx) repayment.Repository {
	return m
}

type MockPeriodRepo struct {
	mock.Mock
}

func (m *MockPeriodRepo) Create(ctx context.Context, p *period.Period) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPeriodRepo) IsClosed(ctx context.Context, date time.Time) (bool, error) {
	args := m.Called(ctx, date)
	return args.Bool(0), args.Error(1)
}

func (m *MockPeriodRepo) HasBackdateApproval(ctx context.Context, date time.Time) (bool, error) {
	args := m.Called(ctx, date)
	return args.Bool(0), args.Error(1)
}

func (m *MockPeriodRepo) Close(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPeriodRepo) ApproveBackdate(ctx context.Context, date time.Time, approvedBy string) error {
	args := m.Called(ctx, date, approvedBy)
	return args.Error(0)
}

func (m *MockPeriodRepo) WithTx(tx pgx.Tx) period.Repository {
	return m
}

type MockAuditRepo struct {
	mock.Mock
}

func (m *MockAuditRepo) Create(ctx context.Context, record *audit.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockAuditRepo) ListByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]*audit.Record, error) {
	args := m.Called(ctx, entityType, entityID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Record), args.Error(1)
}

func (m *MockAuditRepo) WithTx(tx pgx.Tx) audit.Repository {
	return m
}

type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetByEntryID(ctx context.Context, entryID uuid.UUID) (*outbox.Message, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	return m
}

type MockAlertPublisher struct {
	mock.Mock
}

func (m *MockAlertPublisher) Publish(ctx context.Context, alert shared.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

// testHarness bundles an Engine with all of its mocks.
type testHarness struct {
	engine     *Engine
	accounts   *MockAccountRepo
	journals   *MockJournalRepo
	loans      *MockLoanRepo
	repayments *MockRepaymentRepo
	periods    *MockPeriodRepo
	audits     *MockAuditRepo
	outboxes   *MockOutboxRepo
	alerts     *MockAlertPublisher
	system     *SystemAccounts
}

func newTestSystemAccounts() *SystemAccounts {
	return &SystemAccounts{
		Portfolio:    &account.Account{ID: uuid.New(), Name: "Loan Portfolio", Category: account.CategoryAsset, Code: account.CodePortfolio, Active: true},
		Capital:      &account.Account{ID: uuid.New(), Name: "Owner Capital", Category: account.CategoryEquity, Code: account.CodeCapital, Active: true},
		Income:       &account.Account{ID: uuid.New(), Name: "Interest Income", Category: account.CategoryIncome, Code: account.CodeIncome, Active: true},
		ClientCredit: &account.Account{ID: uuid.New(), Name: "Client Credit", Category: account.CategoryLiability, Code: account.CodeClientCredit, Active: true},
	}
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	h := &testHarness{
		accounts:   new(MockAccountRepo),
		journals:   new(MockJournalRepo),
		loans:      new(MockLoanRepo),
		repayments: new(MockRepaymentRepo),
		periods:    new(MockPeriodRepo),
		audits:     new(MockAuditRepo),
		outboxes:   new(MockOutboxRepo),
		alerts:     new(MockAlertPublisher),
		system:     newTestSystemAccounts(),
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h.engine = New(
		fakeTxRunner{},
		5*time.Second,
		h.accounts,
		h.journals,
		h.loans,
		h.repayments,
		h.periods,
		h.audits,
		h.outboxes,
		h.system,
		h.alerts,
		logger,
	)
	return h
}

// expectOpenPeriod stubs the finance period checks as open for any date.
func (h *testHarness) expectOpenPeriod() {
	h.periods.On("IsClosed", mock.Anything, mock.Anything).Return(false, nil)
}

// expectSideEffects stubs audit and outbox writes to succeed.
func (h *testHarness) expectSideEffects() {
	h.audits.On("Create", mock.Anything, mock.Anything).Return(nil)
	h.outboxes.On("Create", mock.Anything, mock.Anything).Return(nil)
}
