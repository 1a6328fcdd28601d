package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"loan-ledger/internal/domain/loan"
	"loan-ledger/internal/infrastructure/monitoring"
	"loan-ledger/internal/pkg/apperrors"

	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// LoanStatusRefresher is the part of the loan service the sweep drives.
type LoanStatusRefresher interface {
	ActiveLoanIDs(ctx context.Context) ([]string, error)
	RefreshLoanStatus(ctx context.Context, loanID string) (*loan.OverdueRefresh, error)
}

type SweepResult struct {
	Loans        int
	Processed    int
	OverdueLoans int
	NewlyOverdue int
	Overdue      int
	Errors       int
}

// OverdueSweepJob persists the overdue projection for every active loan. The refresh
// publishes loan.overdue for loans that gained overdue installments.
type OverdueSweepJob struct {
	loans       LoanStatusRefresher
	concurrency int
	logger      *slog.Logger
}

func NewOverdueSweepJob(loans LoanStatusRefresher, concurrency int, logger *slog.Logger) *OverdueSweepJob {
	if loans == nil || logger == nil {
		panic("OverdueSweepJob dependencies cannot be nil")
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &OverdueSweepJob{
		loans:       loans,
		concurrency: concurrency,
		logger:      logger.With("job", "OverdueSweep"),
	}
}

func (j *OverdueSweepJob) Run(ctx context.Context) (res SweepResult, err error) {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting overdue sweep job.")

	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		monitoring.RecordSweep(status, time.Since(startTime))
	}()

	activeLoanIDs, err := j.loans.ActiveLoanIDs(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to get active loan IDs, aborting job.", slog.Any("error", err))
		return res, fmt.Errorf("cannot run job, failed to get active loans: %w", err)
	}
	res.Loans = len(activeLoanIDs)
	j.logger.InfoContext(ctx, "Fetched active loan IDs.", slog.Int("count", res.Loans))

	var processed, overdueLoans, newlyOverdue, overdue, errorCount atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)
	for _, loanID := range activeLoanIDs {
		g.Go(func() error {
			logCtx := j.logger.With(slog.String("loanID", loanID))

			refresh, refreshErr := j.loans.RefreshLoanStatus(gctx, loanID)
			if refreshErr != nil {
				if errors.Is(refreshErr, apperrors.ErrNotFound) {
					logCtx.WarnContext(ctx, "Loan disappeared during sweep", slog.Any("error", refreshErr))
				} else {
					logCtx.ErrorContext(ctx, "Failed to refresh loan status", slog.Any("error", refreshErr))
					errorCount.Add(1)
				}
				// per-loan failures must not cancel the remaining loans
				return nil
			}

			count := loan.OverdueCount(refresh.Loan.Installments)
			if count > 0 {
				overdueLoans.Add(1)
				overdue.Add(int32(count))
			}
			if n := len(refresh.NewlyOverdue); n > 0 {
				newlyOverdue.Add(int32(n))
				logCtx.InfoContext(ctx, "Installments turned overdue.", slog.Any("numbers", refresh.NewlyOverdue))
			}
			processed.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	res.Processed = int(processed.Load())
	res.OverdueLoans = int(overdueLoans.Load())
	res.NewlyOverdue = int(newlyOverdue.Load())
	res.Overdue = int(overdue.Load())
	res.Errors = int(errorCount.Load())

	monitoring.SetOverdueInstallments(res.Overdue)

	summaryLog := j.logger.With(
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("total_active_loans", res.Loans),
		slog.Int("loans_processed", res.Processed),
		slog.Int("loans_overdue", res.OverdueLoans),
		slog.Int("installments_newly_overdue", res.NewlyOverdue),
		slog.Int("errors_encountered", res.Errors),
	)
	if res.Errors > 0 {
		summaryLog.WarnContext(ctx, "Overdue sweep job finished with errors.")
		return res, fmt.Errorf("job completed with %d errors", res.Errors)
	}
	summaryLog.InfoContext(ctx, "Overdue sweep job finished successfully.")
	return res, nil
}
