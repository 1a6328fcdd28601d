package loan

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"loan-ledger/internal/domain/customer"
	"loan-ledger/internal/event"
	"loan-ledger/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

type serviceFixture struct {
	svc  *loanServiceImpl
	repo *MockRepository
	cs   *MockCustomerService
	pub  *MockEventPublisher
}

func newServiceFixture(now time.Time) serviceFixture {
	repo := new(MockRepository)
	cs := new(MockCustomerService)
	pub := new(MockEventPublisher)

	svc := NewLoanService(repo, cs, pub, time.UTC, logger).(*loanServiceImpl)
	svc.now = func() time.Time { return now }
	svc.newID = func() string { return "loan-new" }
	svc.reconciler = fixedReconciler()

	return serviceFixture{svc: svc, repo: repo, cs: cs, pub: pub}
}

func (f serviceFixture) expectLockedLoan(l *Loan, collections []Collection) {
	f.repo.On("BeginTx", mock.Anything).Return(nil, nil).Once()
	f.repo.On("GetLoanForUpdateInTx", mock.Anything, mock.Anything, l.ID).Return(l, nil).Once()
	f.repo.On("ListCollectionsInTx", mock.Anything, mock.Anything, l.ID).Return(collections, nil).Once()
}

func TestCreateLoan(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.March, 1, 15, 0, 0, 0, time.UTC)
	borrower := &customer.Customer{ID: "cust-1", IDType: customer.IDPanCard, IDNumber: "ABCDE1234F"}

	t.Run("Success", func(t *testing.T) {
		f := newServiceFixture(now)
		f.cs.On("GetCustomer", ctx, "cust-1").Return(borrower, nil).Once()
		f.repo.On("HasActiveLoanForIDProof", ctx, customer.IDPanCard, "ABCDE1234F").Return(false, nil).Once()
		f.repo.On("CreateLoan", ctx, mock.MatchedBy(func(l *Loan) bool {
			return l.ID == "loan-new" && len(l.Installments) == 70 && l.Status == StatusActive
		})).Return(nil).Once()
		f.pub.On("PublishLoanCreated", ctx, mock.MatchedBy(func(e event.LoanCreatedEvent) bool {
			return e.LoanID == "loan-new" && e.DisbursedAmount.Equal(d(5600))
		})).Return(nil).Once()

		l, err := f.svc.CreateLoan(ctx, CreateLoanRequest{
			CustomerID: "cust-1",
			Principal:  d(7000),
			Plan:       PlanDaily,
		})

		require.NoError(t, err)
		assert.Equal(t, date(2024, time.March, 1), l.DisbursementDate)
		assert.True(t, l.InterestRate.Equal(d(20)))
		assert.Equal(t, date(2024, time.March, 2), l.Installments[0].DueDate)
		f.repo.AssertExpectations(t)
		f.pub.AssertExpectations(t)
	})

	t.Run("Weekly single week uses reduced rate", func(t *testing.T) {
		f := newServiceFixture(now)
		f.cs.On("GetCustomer", ctx, "cust-1").Return(borrower, nil).Once()
		f.repo.On("HasActiveLoanForIDProof", ctx, mock.Anything, mock.Anything).Return(false, nil).Once()
		f.repo.On("CreateLoan", ctx, mock.Anything).Return(nil).Once()
		f.pub.On("PublishLoanCreated", ctx, mock.Anything).Return(nil).Once()

		l, err := f.svc.CreateLoan(ctx, CreateLoanRequest{CustomerID: "cust-1", Principal: d(1000), Plan: PlanWeekly, Term: 1})

		require.NoError(t, err)
		assert.True(t, l.InterestRate.Equal(d(12)))
		assert.True(t, l.DisbursedAmount.Equal(d(880)))
	})

	t.Run("Customer not found", func(t *testing.T) {
		f := newServiceFixture(now)
		f.cs.On("GetCustomer", ctx, "ghost").Return(nil, apperrors.ErrNotFound).Once()

		_, err := f.svc.CreateLoan(ctx, CreateLoanRequest{CustomerID: "ghost", Principal: d(1000), Plan: PlanMonthly})

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		f.repo.AssertNotCalled(t, "CreateLoan", mock.Anything, mock.Anything)
	})

	t.Run("Active loan exists for ID proof", func(t *testing.T) {
		f := newServiceFixture(now)
		f.cs.On("GetCustomer", ctx, "cust-1").Return(borrower, nil).Once()
		f.repo.On("HasActiveLoanForIDProof", ctx, customer.IDPanCard, "ABCDE1234F").Return(true, nil).Once()

		_, err := f.svc.CreateLoan(ctx, CreateLoanRequest{CustomerID: "cust-1", Principal: d(1000), Plan: PlanMonthly})

		assert.ErrorIs(t, err, apperrors.ErrLoanActive)
		f.repo.AssertNotCalled(t, "CreateLoan", mock.Anything, mock.Anything)
	})

	t.Run("Invalid plan", func(t *testing.T) {
		f := newServiceFixture(now)

		_, err := f.svc.CreateLoan(ctx, CreateLoanRequest{CustomerID: "cust-1", Principal: d(1000), Plan: "yearly"})

		assert.ErrorIs(t, err, apperrors.ErrInvalidPlan)
		f.cs.AssertNotCalled(t, "GetCustomer", mock.Anything, mock.Anything)
	})

	t.Run("Principal with fractions of a cent", func(t *testing.T) {
		f := newServiceFixture(now)

		_, err := f.svc.CreateLoan(ctx, CreateLoanRequest{CustomerID: "cust-1", Principal: decimal.RequireFromString("1000.005"), Plan: PlanDaily})

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		f.cs.AssertNotCalled(t, "GetCustomer", mock.Anything, mock.Anything)
	})

	t.Run("Non-positive principal", func(t *testing.T) {
		f := newServiceFixture(now)

		_, err := f.svc.CreateLoan(ctx, CreateLoanRequest{CustomerID: "cust-1", Principal: decimal.Zero, Plan: PlanDaily})

		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestGetLoan_RefreshesOverdue(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(time.Date(2024, time.January, 16, 8, 0, 0, 0, time.UTC))
	f.repo.On("GetLoanByID", ctx, "loan-1").Return(explicitLoan(300, 100, 100, 100), nil).Once()

	l, err := f.svc.GetLoan(ctx, "loan-1")

	require.NoError(t, err)
	assert.Equal(t, InstallmentOverdue, l.Installments[0].Status)
	assert.Equal(t, InstallmentOverdue, l.Installments[1].Status)
	assert.Equal(t, InstallmentPending, l.Installments[2].Status)
}

func TestGetLoan_NotFound(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(time.Now())
	f.repo.On("GetLoanByID", ctx, "missing").Return(nil, apperrors.ErrNotFound).Once()

	_, err := f.svc.GetLoan(ctx, "missing")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetOutstanding(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC))
	l := explicitLoan(1000, 500, 500)
	l.Installments[0].PaidAmount = d(500)
	l.Installments[0].Status = InstallmentPaid
	f.repo.On("GetLoanByID", ctx, "loan-1").Return(l, nil).Once()
	f.repo.On("ListCollections", ctx, "loan-1").Return([]Collection{collection(500), collection(200)}, nil).Once()

	b, err := f.svc.GetOutstanding(ctx, "loan-1")

	require.NoError(t, err)
	assert.True(t, b.Collected.Equal(d(700)))
	assert.True(t, b.Outstanding.Equal(d(300)))
	require.NotNil(t, b.NextDue)
	assert.Equal(t, 2, b.NextDue.Number)
}

func TestSuggestedCollection(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC))
	l := explicitLoan(1000, 500, 500)
	l.Installments[0].PaidAmount = d(200)
	f.repo.On("GetLoanByID", ctx, "loan-1").Return(l, nil).Once()
	f.repo.On("ListCollections", ctx, "loan-1").Return([]Collection{collection(200)}, nil).Once()

	amount, err := f.svc.SuggestedCollection(ctx, "loan-1")

	require.NoError(t, err)
	assert.True(t, amount.Equal(d(300)), "got %s", amount)
}

func TestRecordCollection(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.January, 10, 11, 0, 0, 0, time.UTC)

	t.Run("Spills across installments", func(t *testing.T) {
		f := newServiceFixture(now)
		l := explicitLoan(7000, 3500, 3500)
		f.expectLockedLoan(l, nil)
		f.repo.On("InsertCollectionInTx", ctx, mock.Anything, mock.MatchedBy(func(c Collection) bool {
			return c.Amount.Equal(d(4000)) && c.LoanID == "loan-1"
		})).Return(nil).Once()
		f.repo.On("UpdateInstallmentsInTx", ctx, mock.Anything, "loan-1", mock.MatchedBy(func(insts []Installment) bool {
			return insts[0].Status == InstallmentPaid && insts[1].PaidAmount.Equal(d(500))
		})).Return(nil).Once()
		f.repo.On("CommitTx", ctx, mock.Anything).Return(nil).Once()
		f.pub.On("PublishCollectionRecorded", ctx, mock.MatchedBy(func(e event.CollectionRecordedEvent) bool {
			return e.Outstanding.Equal(d(3000))
		})).Return(nil).Once()

		receipt, err := f.svc.RecordCollection(ctx, "loan-1", d(4000), time.Time{})

		require.NoError(t, err)
		assert.Equal(t, StatusActive, receipt.Loan.Status)
		assert.True(t, receipt.Outstanding.Equal(d(3000)))
		assert.Equal(t, date(2024, time.January, 10), receipt.Collection.Date)
		f.repo.AssertNotCalled(t, "UpdateLoanStatusInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.repo.AssertNotCalled(t, "RollbackTx", mock.Anything, mock.Anything)
		f.repo.AssertExpectations(t)
		f.pub.AssertExpectations(t)
	})

	t.Run("Final payment closes the loan", func(t *testing.T) {
		f := newServiceFixture(now)
		l := explicitLoan(1000, 500, 500)
		f.expectLockedLoan(l, []Collection{collection(400)})
		f.repo.On("InsertCollectionInTx", ctx, mock.Anything, mock.Anything).Return(nil).Once()
		f.repo.On("UpdateInstallmentsInTx", ctx, mock.Anything, "loan-1", mock.Anything).Return(nil).Once()
		f.repo.On("UpdateLoanStatusInTx", ctx, mock.Anything, "loan-1", StatusClosed).Return(nil).Once()
		f.repo.On("CommitTx", ctx, mock.Anything).Return(nil).Once()
		f.pub.On("PublishCollectionRecorded", ctx, mock.Anything).Return(nil).Once()
		f.pub.On("PublishLoanClosed", ctx, mock.MatchedBy(func(e event.LoanClosedEvent) bool {
			return !e.PreClosed && e.LoanID == "loan-1"
		})).Return(nil).Once()

		receipt, err := f.svc.RecordCollection(ctx, "loan-1", d(600), date(2024, time.January, 9))

		require.NoError(t, err)
		assert.Equal(t, StatusClosed, receipt.Loan.Status)
		assert.True(t, receipt.Outstanding.IsZero())
		f.repo.AssertExpectations(t)
		f.pub.AssertExpectations(t)
	})

	t.Run("Overpayment rolls back", func(t *testing.T) {
		f := newServiceFixture(now)
		l := explicitLoan(5000, 2500, 2500)
		f.expectLockedLoan(l, []Collection{collection(3800)})
		f.repo.On("RollbackTx", ctx, mock.Anything).Return(nil).Once()

		_, err := f.svc.RecordCollection(ctx, "loan-1", d(1500), time.Time{})

		var over *apperrors.OverpaymentError
		require.True(t, errors.As(err, &over))
		assert.True(t, over.Max.Equal(d(1200)))
		f.repo.AssertNotCalled(t, "InsertCollectionInTx", mock.Anything, mock.Anything, mock.Anything)
		f.repo.AssertNotCalled(t, "CommitTx", mock.Anything, mock.Anything)
		f.repo.AssertExpectations(t)
	})

	t.Run("Unknown loan", func(t *testing.T) {
		f := newServiceFixture(now)
		f.repo.On("BeginTx", ctx).Return(nil, nil).Once()
		f.repo.On("GetLoanForUpdateInTx", ctx, mock.Anything, "ghost").Return(nil, apperrors.ErrNotFound).Once()
		f.repo.On("RollbackTx", ctx, mock.Anything).Return(nil).Once()

		_, err := f.svc.RecordCollection(ctx, "ghost", d(100), time.Time{})

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("Persistence failure rolls back", func(t *testing.T) {
		f := newServiceFixture(now)
		f.expectLockedLoan(explicitLoan(1000, 1000), nil)
		f.repo.On("InsertCollectionInTx", ctx, mock.Anything, mock.Anything).Return(apperrors.ErrDatabase).Once()
		f.repo.On("RollbackTx", ctx, mock.Anything).Return(nil).Once()

		_, err := f.svc.RecordCollection(ctx, "loan-1", d(100), time.Time{})

		assert.ErrorIs(t, err, apperrors.ErrInternalServer)
		f.pub.AssertNotCalled(t, "PublishCollectionRecorded", mock.Anything, mock.Anything)
	})
}

func TestPreCloseLoan(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.January, 10, 11, 0, 0, 0, time.UTC)

	t.Run("Settles outstanding balance", func(t *testing.T) {
		f := newServiceFixture(now)
		l := explicitLoan(1000, 500, 500)
		l.Installments[0].PaidAmount = d(500)
		l.Installments[0].Status = InstallmentPaid
		l.Installments[1].PaidAmount = d(200)
		f.expectLockedLoan(l, []Collection{collection(700)})
		f.repo.On("InsertCollectionInTx", ctx, mock.Anything, mock.MatchedBy(func(c Collection) bool {
			return c.Amount.Equal(d(300))
		})).Return(nil).Once()
		f.repo.On("UpdateInstallmentsInTx", ctx, mock.Anything, "loan-1", mock.Anything).Return(nil).Once()
		f.repo.On("UpdateLoanStatusInTx", ctx, mock.Anything, "loan-1", StatusClosed).Return(nil).Once()
		f.repo.On("CommitTx", ctx, mock.Anything).Return(nil).Once()
		f.pub.On("PublishCollectionRecorded", ctx, mock.Anything).Return(nil).Once()
		f.pub.On("PublishLoanPreClosed", ctx, mock.MatchedBy(func(e event.LoanClosedEvent) bool {
			return e.PreClosed
		})).Return(nil).Once()

		receipt, err := f.svc.PreCloseLoan(ctx, "loan-1", time.Time{})

		require.NoError(t, err)
		assert.True(t, receipt.Collection.Amount.Equal(d(300)))
		assert.Equal(t, StatusClosed, receipt.Loan.Status)
		for _, inst := range receipt.Loan.Installments {
			assert.Equal(t, InstallmentPaid, inst.Status)
		}
		f.repo.AssertExpectations(t)
		f.pub.AssertExpectations(t)
	})

	t.Run("Already settled", func(t *testing.T) {
		f := newServiceFixture(now)
		l := explicitLoan(1000, 1000)
		l.Status = StatusClosed
		f.expectLockedLoan(l, []Collection{collection(1000)})
		f.repo.On("RollbackTx", ctx, mock.Anything).Return(nil).Once()

		_, err := f.svc.PreCloseLoan(ctx, "loan-1", time.Time{})

		assert.ErrorIs(t, err, apperrors.ErrAlreadySettled)
		f.repo.AssertNotCalled(t, "InsertCollectionInTx", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDeleteLoan(t *testing.T) {
	ctx := context.Background()

	t.Run("Active loan cannot be deleted", func(t *testing.T) {
		f := newServiceFixture(time.Now())
		f.repo.On("GetLoanByID", ctx, "loan-1").Return(explicitLoan(100, 100), nil).Once()

		err := f.svc.DeleteLoan(ctx, "loan-1")

		assert.ErrorIs(t, err, apperrors.ErrLoanActive)
		f.repo.AssertNotCalled(t, "DeleteLoan", mock.Anything, mock.Anything)
	})

	t.Run("Closed loan is deleted", func(t *testing.T) {
		f := newServiceFixture(time.Now())
		l := explicitLoan(100, 100)
		l.Status = StatusClosed
		f.repo.On("GetLoanByID", ctx, "loan-1").Return(l, nil).Once()
		f.repo.On("DeleteLoan", ctx, "loan-1").Return(nil).Once()

		assert.NoError(t, f.svc.DeleteLoan(ctx, "loan-1"))
		f.repo.AssertExpectations(t)
	})
}

func TestRefreshLoanStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Publishes newly overdue installments", func(t *testing.T) {
		f := newServiceFixture(time.Date(2024, time.January, 16, 0, 0, 0, 0, time.UTC))
		l := explicitLoan(300, 100, 100, 100)
		l.Installments[0].Status = InstallmentOverdue
		f.expectLockedLoan(l, []Collection{collection(50)})
		f.repo.On("UpdateInstallmentsInTx", ctx, mock.Anything, "loan-1", mock.Anything).Return(nil).Once()
		f.repo.On("CommitTx", ctx, mock.Anything).Return(nil).Once()
		f.pub.On("PublishLoanOverdue", ctx, mock.MatchedBy(func(e event.LoanOverdueEvent) bool {
			return e.OverdueCount == 2 && len(e.NewlyOverdue) == 1 && e.NewlyOverdue[0] == 2 && e.OutstandingBalance.Equal(d(250))
		})).Return(nil).Once()

		res, err := f.svc.RefreshLoanStatus(ctx, "loan-1")

		require.NoError(t, err)
		assert.Equal(t, []int{2}, res.NewlyOverdue)
		f.repo.AssertExpectations(t)
		f.pub.AssertExpectations(t)
	})

	t.Run("Nothing changed", func(t *testing.T) {
		f := newServiceFixture(time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC))
		f.expectLockedLoan(explicitLoan(300, 100, 100, 100), nil)
		f.repo.On("CommitTx", ctx, mock.Anything).Return(nil).Once()

		res, err := f.svc.RefreshLoanStatus(ctx, "loan-1")

		require.NoError(t, err)
		assert.Empty(t, res.NewlyOverdue)
		f.repo.AssertNotCalled(t, "UpdateInstallmentsInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.pub.AssertNotCalled(t, "PublishLoanOverdue", mock.Anything, mock.Anything)
	})
}

func TestRecentCollections_DefaultLimit(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(time.Now())
	f.repo.On("RecentCollections", ctx, defaultRecentCollections).Return([]Collection{collection(10)}, nil).Once()

	cols, err := f.svc.RecentCollections(ctx, 0)

	require.NoError(t, err)
	assert.Len(t, cols, 1)
}
