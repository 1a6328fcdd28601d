package loan

import (
	"context"

	"loan-ledger/internal/domain/customer"
	"loan-ledger/internal/event"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateLoan(ctx context.Context, l *Loan) error {
	return m.Called(ctx, l).Error(0)
}

func (m *MockRepository) GetLoanByID(ctx context.Context, loanID string) (*Loan, error) {
	args := m.Called(ctx, loanID)
	var l *Loan
	if args.Get(0) != nil {
		l = args.Get(0).(*Loan)
	}
	return l, args.Error(1)
}

func (m *MockRepository) ListLoans(ctx context.Context, filter ListFilter) ([]*Loan, error) {
	args := m.Called(ctx, filter)
	var loans []*Loan
	if args.Get(0) != nil {
		loans = args.Get(0).([]*Loan)
	}
	return loans, args.Error(1)
}

func (m *MockRepository) ActiveLoanIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	var ids []string
	if args.Get(0) != nil {
		ids = args.Get(0).([]string)
	}
	return ids, args.Error(1)
}

func (m *MockRepository) DeleteLoan(ctx context.Context, loanID string) error {
	return m.Called(ctx, loanID).Error(0)
}

func (m *MockRepository) HasActiveLoanForIDProof(ctx context.Context, idType customer.IDType, idNumber string) (bool, error) {
	args := m.Called(ctx, idType, idNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ListCollections(ctx context.Context, loanID string) ([]Collection, error) {
	args := m.Called(ctx, loanID)
	var cols []Collection
	if args.Get(0) != nil {
		cols = args.Get(0).([]Collection)
	}
	return cols, args.Error(1)
}

func (m *MockRepository) RecentCollections(ctx context.Context, limit int) ([]Collection, error) {
	args := m.Called(ctx, limit)
	var cols []Collection
	if args.Get(0) != nil {
		cols = args.Get(0).([]Collection)
	}
	return cols, args.Error(1)
}

func (m *MockRepository) AllCollections(ctx context.Context) ([]Collection, error) {
	args := m.Called(ctx)
	var cols []Collection
	if args.Get(0) != nil {
		cols = args.Get(0).([]Collection)
	}
	return cols, args.Error(1)
}

func (m *MockRepository) GetLoanForUpdateInTx(ctx context.Context, tx pgx.Tx, loanID string) (*Loan, error) {
	args := m.Called(ctx, tx, loanID)
	var l *Loan
	if args.Get(0) != nil {
		l = args.Get(0).(*Loan)
	}
	return l, args.Error(1)
}

func (m *MockRepository) ListCollectionsInTx(ctx context.Context, tx pgx.Tx, loanID string) ([]Collection, error) {
	args := m.Called(ctx, tx, loanID)
	var cols []Collection
	if args.Get(0) != nil {
		cols = args.Get(0).([]Collection)
	}
	return cols, args.Error(1)
}

func (m *MockRepository) UpdateInstallmentsInTx(ctx context.Context, tx pgx.Tx, loanID string, installments []Installment) error {
	return m.Called(ctx, tx, loanID, installments).Error(0)
}

func (m *MockRepository) InsertCollectionInTx(ctx context.Context, tx pgx.Tx, c Collection) error {
	return m.Called(ctx, tx, c).Error(0)
}

func (m *MockRepository) UpdateLoanStatusInTx(ctx context.Context, tx pgx.Tx, loanID string, status LoanStatus) error {
	return m.Called(ctx, tx, loanID, status).Error(0)
}

func (m *MockRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	var tx pgx.Tx
	if args.Get(0) != nil {
		tx = args.Get(0).(pgx.Tx)
	}
	return tx, args.Error(1)
}

func (m *MockRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	return m.Called(ctx, tx).Error(0)
}

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) CreateCustomer(ctx context.Context, input customer.NewCustomerInput) (*customer.Customer, error) {
	args := m.Called(ctx, input)
	var c *customer.Customer
	if args.Get(0) != nil {
		c = args.Get(0).(*customer.Customer)
	}
	return c, args.Error(1)
}

func (m *MockCustomerService) GetCustomer(ctx context.Context, customerID string) (*customer.Customer, error) {
	args := m.Called(ctx, customerID)
	var c *customer.Customer
	if args.Get(0) != nil {
		c = args.Get(0).(*customer.Customer)
	}
	return c, args.Error(1)
}

func (m *MockCustomerService) ListCustomers(ctx context.Context, search string) ([]*customer.Customer, error) {
	args := m.Called(ctx, search)
	var cs []*customer.Customer
	if args.Get(0) != nil {
		cs = args.Get(0).([]*customer.Customer)
	}
	return cs, args.Error(1)
}

func (m *MockCustomerService) CountCustomers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockCustomerService) DeleteCustomer(ctx context.Context, customerID string) error {
	return m.Called(ctx, customerID).Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishLoanCreated(ctx context.Context, e event.LoanCreatedEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockEventPublisher) PublishCollectionRecorded(ctx context.Context, e event.CollectionRecordedEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockEventPublisher) PublishLoanClosed(ctx context.Context, e event.LoanClosedEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockEventPublisher) PublishLoanPreClosed(ctx context.Context, e event.LoanClosedEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockEventPublisher) PublishLoanOverdue(ctx context.Context, e event.LoanOverdueEvent) error {
	return m.Called(ctx, e).Error(0)
}

var (
	_ Repository               = (*MockRepository)(nil)
	_ customer.CustomerService = (*MockCustomerService)(nil)
	_ EventPublisher           = (*MockEventPublisher)(nil)
)
