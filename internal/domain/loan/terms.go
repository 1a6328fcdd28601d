package loan

import (
	"fmt"
	"strings"

	"loan-ledger/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

type Plan string

const (
	PlanDaily   Plan = "daily"
	PlanWeekly  Plan = "weekly"
	PlanMonthly Plan = "monthly"
)

const (
	DailyInstallments         = 70
	DefaultWeeklyInstallments = 10
	MonthlyInstallments       = 1
)

var (
	standardRate   = decimal.NewFromInt(20)
	singleWeekRate = decimal.NewFromInt(12)
	hundred        = decimal.NewFromInt(100)
)

// ParsePlan accepts a plan name in any letter case.
func ParsePlan(s string) (Plan, error) {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PlanDaily, PlanWeekly, PlanMonthly:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidPlan, s)
}

type LoanTerms struct {
	Principal         decimal.Decimal
	InterestRate      decimal.Decimal
	Plan              Plan
	InstallmentCount  int
	TotalInterest     decimal.Decimal
	DisbursedAmount   decimal.Decimal
	TotalAmount       decimal.Decimal
	InstallmentAmount decimal.Decimal
}

// RateFor returns the flat interest percentage charged for a plan.
func RateFor(plan Plan, term int) decimal.Decimal {
	if plan == PlanWeekly && term == 1 {
		return singleWeekRate
	}
	return standardRate
}

// ComputeTerms derives the loan terms. Interest is deducted from the disbursement,
// so the borrower repays exactly the principal.
func ComputeTerms(principal, rate decimal.Decimal, plan Plan, term int) (LoanTerms, error) {
	var count int
	switch plan {
	case PlanDaily:
		count = DailyInstallments
	case PlanWeekly:
		count = DefaultWeeklyInstallments
		if term > 0 {
			count = term
		}
	case PlanMonthly:
		count = MonthlyInstallments
	default:
		return LoanTerms{}, fmt.Errorf("%w: %q", apperrors.ErrInvalidPlan, plan)
	}

	totalInterest := principal.Mul(rate).Div(hundred)
	totalAmount := principal

	return LoanTerms{
		Principal:         principal,
		InterestRate:      rate,
		Plan:              plan,
		InstallmentCount:  count,
		TotalInterest:     totalInterest,
		DisbursedAmount:   principal.Sub(totalInterest),
		TotalAmount:       totalAmount,
		InstallmentAmount: totalAmount.Div(decimal.NewFromInt(int64(count))).Round(0),
	}, nil
}
