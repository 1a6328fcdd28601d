package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"loan-ledger/internal/domain/loan"
)

type LoanReader interface {
	ListLoans(ctx context.Context, filter loan.ListFilter) ([]*loan.Loan, error)
	AllCollections(ctx context.Context) ([]loan.Collection, error)
}

type CustomerCounter interface {
	CountCustomers(ctx context.Context) (int, error)
}

type ReportService interface {
	Dashboard(ctx context.Context) (Summary, error)
}

type reportServiceImpl struct {
	loans     LoanReader
	customers CustomerCounter
	location  *time.Location
	now       func() time.Time
	logger    *slog.Logger
}

func NewReportService(loans LoanReader, customers CustomerCounter, loc *time.Location, logger *slog.Logger) ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &reportServiceImpl{
		loans:     loans,
		customers: customers,
		location:  loc,
		now:       time.Now,
		logger:    logger.With("component", "reportService"),
	}
}

func (s *reportServiceImpl) Dashboard(ctx context.Context) (Summary, error) {
	loans, err := s.loans.ListLoans(ctx, loan.ListFilter{})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load loans for dashboard", "error", err)
		return Summary{}, fmt.Errorf("failed to load loans: %w", err)
	}
	collections, err := s.loans.AllCollections(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load collections for dashboard", "error", err)
		return Summary{}, fmt.Errorf("failed to load collections: %w", err)
	}
	customers, err := s.customers.CountCustomers(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to count customers for dashboard", "error", err)
		return Summary{}, fmt.Errorf("failed to count customers: %w", err)
	}

	summary := Summarize(loans, collections, customers, loan.DayIn(s.now(), s.location))
	s.logger.DebugContext(ctx, "Dashboard computed", "activeLoans", summary.ActiveLoans, "overdueLoans", summary.OverdueLoans)
	return summary, nil
}
