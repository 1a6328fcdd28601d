package loan

import (
	"fmt"
	"time"

	"loan-ledger/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

// GenerateSchedule lays out terms.InstallmentCount installments after startDate.
// Every installment carries InstallmentAmount except the last, which absorbs the
// rounding remainder so the schedule sums to TotalAmount.
func GenerateSchedule(terms LoanTerms, startDate time.Time) ([]Installment, error) {
	if terms.InstallmentCount <= 0 {
		return nil, fmt.Errorf("%w: installment count must be positive", apperrors.ErrInvalidArgument)
	}
	start := DateOf(startDate)

	schedule := make([]Installment, 0, terms.InstallmentCount)
	accumulated := decimal.Zero

	for i := 0; i < terms.InstallmentCount; i++ {
		dueDate, err := dueDateFor(terms.Plan, start, i)
		if err != nil {
			return nil, err
		}

		amount := terms.InstallmentAmount
		if i == terms.InstallmentCount-1 {
			amount = terms.TotalAmount.Sub(accumulated)
			if !amount.IsPositive() {
				return nil, fmt.Errorf("%w: principal %s is too small for %d %s installments",
					apperrors.ErrInvalidArgument, terms.Principal.String(), terms.InstallmentCount, terms.Plan)
			}
		}

		schedule = append(schedule, Installment{
			Number:     i + 1,
			DueDate:    dueDate,
			Amount:     amount,
			Status:     InstallmentPending,
			PaidAmount: decimal.Zero,
		})
		accumulated = accumulated.Add(amount)
	}

	return schedule, nil
}

func dueDateFor(plan Plan, start time.Time, i int) (time.Time, error) {
	switch plan {
	case PlanDaily:
		return start.AddDate(0, 0, i+1), nil
	case PlanWeekly:
		return start.AddDate(0, 0, (i+1)*7), nil
	case PlanMonthly:
		return addMonthsClamped(start, i+1), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", apperrors.ErrInvalidPlan, plan)
}

// addMonthsClamped keeps the day of month, clamped to the last day of the target month.
// time.AddDate would normalize Jan 31 + 1 month into March.
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, 0, 0, 0, 0, t.Location())
}
