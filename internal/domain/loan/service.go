package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"loan-ledger/internal/domain/customer"
	"loan-ledger/internal/event"
	"loan-ledger/internal/infrastructure/monitoring"
	"loan-ledger/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type CreateLoanRequest struct {
	CustomerID       string
	Principal        decimal.Decimal
	Plan             Plan
	Term             int
	DisbursementDate time.Time
}

// Balance is the read model of a loan's repayment position.
type Balance struct {
	LoanID       string
	TotalAmount  decimal.Decimal
	Collected    decimal.Decimal
	Outstanding  decimal.Decimal
	NextDue      *Installment
	OverdueCount int
}

type Receipt struct {
	Collection  Collection
	Loan        *Loan
	Outstanding decimal.Decimal
}

type OverdueRefresh struct {
	Loan         *Loan
	NewlyOverdue []int
	Outstanding  decimal.Decimal
}

type LoanService interface {
	PreviewTerms(ctx context.Context, principal decimal.Decimal, plan Plan, term int) (LoanTerms, error)

	CreateLoan(ctx context.Context, req CreateLoanRequest) (*Loan, error)

	GetLoan(ctx context.Context, loanID string) (*Loan, error)

	ListLoans(ctx context.Context, filter ListFilter) ([]*Loan, error)

	ActiveLoanIDs(ctx context.Context) ([]string, error)

	GetOutstanding(ctx context.Context, loanID string) (*Balance, error)

	ListCollections(ctx context.Context, loanID string) ([]Collection, error)

	RecentCollections(ctx context.Context, limit int) ([]Collection, error)

	AllCollections(ctx context.Context) ([]Collection, error)

	RecordCollection(ctx context.Context, loanID string, amount decimal.Decimal, date time.Time) (*Receipt, error)

	PreCloseLoan(ctx context.Context, loanID string, date time.Time) (*Receipt, error)

	SuggestedCollection(ctx context.Context, loanID string) (decimal.Decimal, error)

	DeleteLoan(ctx context.Context, loanID string) error

	RefreshLoanStatus(ctx context.Context, loanID string) (*OverdueRefresh, error)
}

type EventPublisher interface {
	PublishLoanCreated(ctx context.Context, event event.LoanCreatedEvent) error
	PublishCollectionRecorded(ctx context.Context, event event.CollectionRecordedEvent) error
	PublishLoanClosed(ctx context.Context, event event.LoanClosedEvent) error
	PublishLoanPreClosed(ctx context.Context, event event.LoanClosedEvent) error
	PublishLoanOverdue(ctx context.Context, event event.LoanOverdueEvent) error
}

const defaultRecentCollections = 10

type loanServiceImpl struct {
	repo            Repository
	customerService customer.CustomerService
	pub             EventPublisher
	reconciler      *Reconciler
	location        *time.Location
	now             func() time.Time
	newID           func() string
	logger          *slog.Logger
}

func NewLoanService(r Repository, cs customer.CustomerService, pub EventPublisher, loc *time.Location, logger *slog.Logger) LoanService {
	if pub == nil {
		pub = event.NewLogPublisher(logger)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &loanServiceImpl{
		repo:            r,
		customerService: cs,
		pub:             pub,
		reconciler:      NewReconciler(),
		location:        loc,
		now:             time.Now,
		newID:           uuid.NewString,
		logger:          logger.With("component", "loanService"),
	}
}

func (s *loanServiceImpl) today() time.Time {
	return DayIn(s.now(), s.location)
}

func (s *loanServiceImpl) PreviewTerms(_ context.Context, principal decimal.Decimal, plan Plan, term int) (LoanTerms, error) {
	if !principal.IsPositive() {
		return LoanTerms{}, apperrors.NewValidationError("principal", "must be greater than zero")
	}
	if !IsMoneyAmount(principal) {
		return LoanTerms{}, apperrors.NewValidationError("principal", fmt.Sprintf("must have at most %d decimal places", MoneyScale))
	}
	return ComputeTerms(principal, RateFor(plan, term), plan, term)
}

func (s *loanServiceImpl) CreateLoan(ctx context.Context, req CreateLoanRequest) (*Loan, error) {
	logger := s.logger.With("customerID", req.CustomerID, "plan", req.Plan)
	logger.InfoContext(ctx, "Creating new loan")

	terms, err := s.PreviewTerms(ctx, req.Principal, req.Plan, req.Term)
	if err != nil {
		logger.WarnContext(ctx, "Invalid loan terms", "error", err)
		return nil, err
	}

	cust, err := s.customerService.GetCustomer(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.WarnContext(ctx, "Customer not found", "error", err)
			return nil, fmt.Errorf("%w: customer %s not found", apperrors.ErrValidation, req.CustomerID)
		}
		logger.ErrorContext(ctx, "Failed to get customer details from customer service", "error", err)
		return nil, fmt.Errorf("failed to verify customer: %w", err)
	}

	active, err := s.repo.HasActiveLoanForIDProof(ctx, cust.IDType, cust.IDNumber)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to check existing loans", "error", err)
		return nil, fmt.Errorf("failed to check existing loans: %w", err)
	}
	if active {
		logger.WarnContext(ctx, "Customer already has an active loan")
		return nil, fmt.Errorf("%w: an active loan already exists for this ID proof", apperrors.ErrLoanActive)
	}

	disbursed := DateOf(req.DisbursementDate)
	if req.DisbursementDate.IsZero() {
		disbursed = s.today()
	}

	schedule, err := GenerateSchedule(terms, disbursed)
	if err != nil {
		logger.WarnContext(ctx, "Failed to generate loan schedule", "error", err)
		return nil, err
	}

	now := s.now().UTC()
	l := &Loan{
		ID:               s.newID(),
		CustomerID:       cust.ID,
		LoanTerms:        terms,
		DisbursementDate: disbursed,
		Status:           StatusActive,
		Installments:     schedule,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.CreateLoan(ctx, l); err != nil {
		logger.ErrorContext(ctx, "Failed to save loan and schedule", "error", err)
		return nil, fmt.Errorf("failed to save loan and schedule: %w", err)
	}
	monitoring.RecordLoanCreated()

	created := event.LoanCreatedEvent{
		Timestamp:        now,
		LoanID:           l.ID,
		CustomerID:       l.CustomerID,
		Plan:             string(l.Plan),
		Principal:        l.Principal,
		DisbursedAmount:  l.DisbursedAmount,
		InstallmentCount: l.InstallmentCount,
		DisbursementDate: l.DisbursementDate,
	}
	if pubErr := s.pub.PublishLoanCreated(ctx, created); pubErr != nil {
		logger.ErrorContext(ctx, "Loan created, but failed to publish creation event", "error", pubErr)
	}

	logger.InfoContext(ctx, "Loan created successfully", "loanID", l.ID)
	return l, nil
}

func (s *loanServiceImpl) GetLoan(ctx context.Context, loanID string) (*Loan, error) {
	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		return nil, s.loanLookupError(ctx, loanID, err)
	}
	l.Installments = RefreshStatus(l.Installments, s.today())
	return l, nil
}

func (s *loanServiceImpl) ListLoans(ctx context.Context, filter ListFilter) ([]*Loan, error) {
	loans, err := s.repo.ListLoans(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list loans", "status", filter.Status, "error", err)
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	today := s.today()
	for _, l := range loans {
		l.Installments = RefreshStatus(l.Installments, today)
	}
	return loans, nil
}

func (s *loanServiceImpl) ActiveLoanIDs(ctx context.Context) ([]string, error) {
	ids, err := s.repo.ActiveLoanIDs(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list active loans", "error", err)
		return nil, fmt.Errorf("failed to list active loans: %w", err)
	}
	return ids, nil
}

func (s *loanServiceImpl) GetOutstanding(ctx context.Context, loanID string) (*Balance, error) {
	l, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	collections, err := s.ListCollections(ctx, loanID)
	if err != nil {
		return nil, err
	}

	return &Balance{
		LoanID:       l.ID,
		TotalAmount:  l.TotalAmount,
		Collected:    TotalCollected(l.ID, collections),
		Outstanding:  OutstandingBalance(l, collections),
		NextDue:      NextDue(l.Installments),
		OverdueCount: OverdueCount(l.Installments),
	}, nil
}

func (s *loanServiceImpl) ListCollections(ctx context.Context, loanID string) ([]Collection, error) {
	collections, err := s.repo.ListCollections(ctx, loanID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list collections", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("failed to list collections for loan %s: %w", loanID, err)
	}
	return collections, nil
}

func (s *loanServiceImpl) RecentCollections(ctx context.Context, limit int) ([]Collection, error) {
	if limit <= 0 {
		limit = defaultRecentCollections
	}
	collections, err := s.repo.RecentCollections(ctx, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list recent collections", "error", err)
		return nil, fmt.Errorf("failed to list recent collections: %w", err)
	}
	return collections, nil
}

func (s *loanServiceImpl) AllCollections(ctx context.Context) ([]Collection, error) {
	collections, err := s.repo.AllCollections(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list collections", "error", err)
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return collections, nil
}

// RecordCollection allocates a payment inside a transaction holding the loan row lock,
// so concurrent collections on one loan are applied one after another.
func (s *loanServiceImpl) RecordCollection(ctx context.Context, loanID string, amount decimal.Decimal, date time.Time) (receipt *Receipt, err error) {
	logger := s.logger.With("loanID", loanID, "amount", amount.String())
	logger.InfoContext(ctx, "Recording collection")

	defer func() {
		monitoring.RecordCollection(collectionOutcome(err), amount.InexactFloat64())
	}()

	if date.IsZero() {
		date = s.today()
	}

	var l *Loan
	var settlement *Settlement
	var outstanding decimal.Decimal
	err = s.inLockedLoan(ctx, loanID, func(tx pgx.Tx, locked *Loan, collections []Collection) error {
		locked.Installments = RefreshStatus(locked.Installments, s.today())

		var allocErr error
		settlement, allocErr = s.reconciler.Allocate(locked, collections, amount, date)
		if allocErr != nil {
			return allocErr
		}
		if err := s.persistSettlement(ctx, tx, locked, settlement); err != nil {
			return err
		}
		outstanding = locked.TotalAmount.Sub(TotalCollected(loanID, collections)).Sub(amount)
		l = locked
		return nil
	})
	if err != nil {
		logger.WarnContext(ctx, "Collection rejected", "error", err)
		return nil, err
	}

	previous := l.Status
	l.Installments = settlement.Installments
	l.Status = settlement.Status

	recorded := event.CollectionRecordedEvent{
		Timestamp:    s.now().UTC(),
		CollectionID: settlement.Collection.ID,
		LoanID:       l.ID,
		CustomerID:   l.CustomerID,
		Amount:       settlement.Collection.Amount,
		Date:         settlement.Collection.Date,
		Outstanding:  outstanding,
	}
	if pubErr := s.pub.PublishCollectionRecorded(ctx, recorded); pubErr != nil {
		logger.ErrorContext(ctx, "Collection recorded, but failed to publish event", "error", pubErr)
	}
	if previous != StatusClosed && l.Status == StatusClosed {
		s.publishClosed(ctx, l, settlement.Collection.Date, false)
	}

	logger.InfoContext(ctx, "Collection recorded", "collectionID", settlement.Collection.ID, "status", l.Status)
	return &Receipt{Collection: settlement.Collection, Loan: l, Outstanding: outstanding}, nil
}

func (s *loanServiceImpl) PreCloseLoan(ctx context.Context, loanID string, date time.Time) (receipt *Receipt, err error) {
	logger := s.logger.With("loanID", loanID)
	logger.InfoContext(ctx, "Pre-closing loan")

	defer func() {
		monitoring.RecordPreClosure(preClosureOutcome(err))
	}()

	if date.IsZero() {
		date = s.today()
	}

	var l *Loan
	var settlement *Settlement
	err = s.inLockedLoan(ctx, loanID, func(tx pgx.Tx, locked *Loan, collections []Collection) error {
		var closeErr error
		settlement, closeErr = s.reconciler.PreClose(locked, collections, date)
		if closeErr != nil {
			return closeErr
		}
		l = locked
		return s.persistSettlement(ctx, tx, locked, settlement)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadySettled) {
			logger.InfoContext(ctx, "Loan already settled, nothing to pre-close")
		} else {
			logger.WarnContext(ctx, "Pre-closure failed", "error", err)
		}
		return nil, err
	}

	l.Installments = settlement.Installments
	l.Status = settlement.Status

	recorded := event.CollectionRecordedEvent{
		Timestamp:    s.now().UTC(),
		CollectionID: settlement.Collection.ID,
		LoanID:       l.ID,
		CustomerID:   l.CustomerID,
		Amount:       settlement.Collection.Amount,
		Date:         settlement.Collection.Date,
		Outstanding:  decimal.Zero,
	}
	if pubErr := s.pub.PublishCollectionRecorded(ctx, recorded); pubErr != nil {
		logger.ErrorContext(ctx, "Pre-closure recorded, but failed to publish collection event", "error", pubErr)
	}
	s.publishClosed(ctx, l, settlement.Collection.Date, true)

	logger.InfoContext(ctx, "Loan pre-closed", "collectionID", settlement.Collection.ID, "amount", settlement.Collection.Amount.String())
	return &Receipt{Collection: settlement.Collection, Loan: l, Outstanding: decimal.Zero}, nil
}

func (s *loanServiceImpl) SuggestedCollection(ctx context.Context, loanID string) (decimal.Decimal, error) {
	balance, err := s.GetOutstanding(ctx, loanID)
	if err != nil {
		return decimal.Zero, err
	}
	if !balance.Outstanding.IsPositive() {
		return decimal.Zero, nil
	}
	if balance.NextDue == nil {
		return balance.Outstanding, nil
	}
	return decimal.Min(balance.NextDue.Remaining(), balance.Outstanding), nil
}

func (s *loanServiceImpl) DeleteLoan(ctx context.Context, loanID string) error {
	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		return s.loanLookupError(ctx, loanID, err)
	}
	if l.Status != StatusClosed {
		s.logger.WarnContext(ctx, "Refusing to delete active loan", "loanID", loanID)
		return fmt.Errorf("%w: loan %s", apperrors.ErrLoanActive, loanID)
	}
	if err := s.repo.DeleteLoan(ctx, loanID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete loan", "loanID", loanID, "error", err)
		return fmt.Errorf("failed to delete loan %s: %w", loanID, err)
	}
	s.logger.InfoContext(ctx, "Loan deleted", "loanID", loanID)
	return nil
}

// RefreshLoanStatus persists the overdue projection and reports the installments
// that turned overdue since the last refresh.
func (s *loanServiceImpl) RefreshLoanStatus(ctx context.Context, loanID string) (*OverdueRefresh, error) {
	today := s.today()

	var result *OverdueRefresh
	err := s.inLockedLoan(ctx, loanID, func(tx pgx.Tx, locked *Loan, collections []Collection) error {
		refreshed := RefreshStatus(locked.Installments, today)

		var newly []int
		for i := range refreshed {
			if refreshed[i].Status != locked.Installments[i].Status {
				newly = append(newly, refreshed[i].Number)
			}
		}
		if len(newly) > 0 {
			if err := s.repo.UpdateInstallmentsInTx(ctx, tx, locked.ID, refreshed); err != nil {
				return err
			}
		}

		locked.Installments = refreshed
		result = &OverdueRefresh{
			Loan:         locked,
			NewlyOverdue: newly,
			Outstanding:  OutstandingBalance(locked, collections),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(result.NewlyOverdue) > 0 {
		overdue := event.LoanOverdueEvent{
			Timestamp:          s.now().UTC(),
			LoanID:             result.Loan.ID,
			CustomerID:         result.Loan.CustomerID,
			OverdueCount:       OverdueCount(result.Loan.Installments),
			NewlyOverdue:       result.NewlyOverdue,
			OutstandingBalance: result.Outstanding,
		}
		if pubErr := s.pub.PublishLoanOverdue(ctx, overdue); pubErr != nil {
			s.logger.ErrorContext(ctx, "Failed to publish overdue event", "loanID", loanID, "error", pubErr)
		}
	}
	return result, nil
}

// inLockedLoan runs fn in a transaction after locking the loan row. The transaction is
// committed only when fn succeeds.
func (s *loanServiceImpl) inLockedLoan(ctx context.Context, loanID string, fn func(tx pgx.Tx, l *Loan, collections []Collection) error) (err error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return fmt.Errorf("%w: could not begin transaction: %w", apperrors.ErrInternalServer, err)
	}

	defer func() {
		if p := recover(); p != nil {
			s.logger.ErrorContext(ctx, "Panic occurred inside loan transaction", "loanID", loanID, "error", p)
			_ = s.repo.RollbackTx(ctx, tx)
			panic(p)
		} else if err != nil {
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	l, err := s.repo.GetLoanForUpdateInTx(ctx, tx, loanID)
	if err != nil {
		return s.loanLookupError(ctx, loanID, err)
	}
	collections, err := s.repo.ListCollectionsInTx(ctx, tx, loanID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load collections", "loanID", loanID, "error", err)
		return fmt.Errorf("%w: could not load collections: %w", apperrors.ErrInternalServer, err)
	}

	if err = fn(tx, l, collections); err != nil {
		return err
	}

	if err = s.repo.CommitTx(ctx, tx); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "loanID", loanID, "error", err)
		return fmt.Errorf("%w: could not commit transaction: %w", apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *loanServiceImpl) persistSettlement(ctx context.Context, tx pgx.Tx, l *Loan, st *Settlement) error {
	if err := s.repo.InsertCollectionInTx(ctx, tx, st.Collection); err != nil {
		return fmt.Errorf("%w: could not insert collection: %w", apperrors.ErrInternalServer, err)
	}
	if err := s.repo.UpdateInstallmentsInTx(ctx, tx, l.ID, st.Installments); err != nil {
		return fmt.Errorf("%w: could not update installments: %w", apperrors.ErrInternalServer, err)
	}
	if st.Status != l.Status {
		if err := s.repo.UpdateLoanStatusInTx(ctx, tx, l.ID, st.Status); err != nil {
			return fmt.Errorf("%w: could not update loan status: %w", apperrors.ErrInternalServer, err)
		}
	}
	return nil
}

func (s *loanServiceImpl) publishClosed(ctx context.Context, l *Loan, closedOn time.Time, preClosed bool) {
	closed := event.LoanClosedEvent{
		Timestamp:   s.now().UTC(),
		LoanID:      l.ID,
		CustomerID:  l.CustomerID,
		TotalAmount: l.TotalAmount,
		ClosedOn:    closedOn,
		PreClosed:   preClosed,
	}
	var err error
	if preClosed {
		err = s.pub.PublishLoanPreClosed(ctx, closed)
	} else {
		err = s.pub.PublishLoanClosed(ctx, closed)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish loan closed event", "loanID", l.ID, "error", err)
	}
}

func (s *loanServiceImpl) loanLookupError(ctx context.Context, loanID string, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, pgx.ErrNoRows) {
		s.logger.WarnContext(ctx, "Loan not found", "loanID", loanID)
		return fmt.Errorf("%w: loan %s not found", apperrors.ErrNotFound, loanID)
	}
	s.logger.ErrorContext(ctx, "Failed to get loan", "loanID", loanID, "error", err)
	return fmt.Errorf("%w: failed to get loan %s: %w", apperrors.ErrInternalServer, loanID, err)
}

func collectionOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, apperrors.ErrNonPositiveAmount):
		return "invalid_amount"
	case errors.Is(err, apperrors.ErrOverpayment):
		return "overpayment"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	default:
		return "failure_internal"
	}
}

func preClosureOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, apperrors.ErrAlreadySettled):
		return "already_settled"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	default:
		return "failure_internal"
	}
}
