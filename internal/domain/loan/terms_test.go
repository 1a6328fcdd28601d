package loan

import (
	"testing"

	"loan-ledger/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestRateFor(t *testing.T) {
	tests := []struct {
		name string
		plan Plan
		term int
		want decimal.Decimal
	}{
		{"daily", PlanDaily, 0, d(20)},
		{"monthly", PlanMonthly, 3, d(20)},
		{"weekly single week", PlanWeekly, 1, d(12)},
		{"weekly ten weeks", PlanWeekly, 10, d(20)},
		{"weekly without term", PlanWeekly, 0, d(20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(RateFor(tt.plan, tt.term)), "got %s", RateFor(tt.plan, tt.term))
		})
	}
}

func TestComputeTerms_Monthly(t *testing.T) {
	terms, err := ComputeTerms(d(10000), d(20), PlanMonthly, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, terms.InstallmentCount)
	assert.True(t, terms.TotalInterest.Equal(d(2000)))
	assert.True(t, terms.DisbursedAmount.Equal(d(8000)))
	assert.True(t, terms.TotalAmount.Equal(d(10000)))
	assert.True(t, terms.InstallmentAmount.Equal(d(10000)))
}

func TestComputeTerms_Daily(t *testing.T) {
	terms, err := ComputeTerms(d(7000), RateFor(PlanDaily, 0), PlanDaily, 5)
	require.NoError(t, err)

	assert.Equal(t, DailyInstallments, terms.InstallmentCount)
	assert.True(t, terms.InstallmentAmount.Equal(d(100)))
	assert.True(t, terms.TotalInterest.Equal(d(1400)))
}

func TestComputeTerms_WeeklyInstallmentCount(t *testing.T) {
	tests := []struct {
		name string
		term int
		want int
	}{
		{"explicit term", 4, 4},
		{"zero term falls back to default", 0, DefaultWeeklyInstallments},
		{"negative term falls back to default", -3, DefaultWeeklyInstallments},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms, err := ComputeTerms(d(1000), d(20), PlanWeekly, tt.term)
			require.NoError(t, err)
			assert.Equal(t, tt.want, terms.InstallmentCount)
		})
	}
}

func TestComputeTerms_RoundsInstallmentAmount(t *testing.T) {
	terms, err := ComputeTerms(d(1000), d(20), PlanWeekly, 3)
	require.NoError(t, err)

	assert.True(t, terms.InstallmentAmount.Equal(d(333)), "got %s", terms.InstallmentAmount)
}

func TestComputeTerms_InvalidPlan(t *testing.T) {
	_, err := ComputeTerms(d(1000), d(20), Plan("yearly"), 0)

	assert.ErrorIs(t, err, apperrors.ErrInvalidPlan)
}

func TestComputeTerms_Consistency(t *testing.T) {
	principals := []decimal.Decimal{d(500), d(7000), d(12345), decimal.RequireFromString("9999.50")}
	plans := []struct {
		plan Plan
		term int
	}{
		{PlanDaily, 0}, {PlanWeekly, 1}, {PlanWeekly, 7}, {PlanMonthly, 0},
	}

	for _, p := range principals {
		for _, pl := range plans {
			rate := RateFor(pl.plan, pl.term)
			terms, err := ComputeTerms(p, rate, pl.plan, pl.term)
			require.NoError(t, err)

			assert.True(t, terms.DisbursedAmount.Add(terms.TotalInterest).Equal(p))

			drift := terms.InstallmentAmount.Mul(d(int64(terms.InstallmentCount))).Sub(terms.TotalAmount).Abs()
			tolerance := decimal.NewFromFloat(0.5).Mul(d(int64(terms.InstallmentCount)))
			assert.True(t, drift.LessThanOrEqual(tolerance), "drift %s for %s/%s", drift, p, pl.plan)
		}
	}
}

func TestParsePlan(t *testing.T) {
	p, err := ParsePlan(" Weekly ")
	require.NoError(t, err)
	assert.Equal(t, PlanWeekly, p)

	_, err = ParsePlan("fortnightly")
	assert.ErrorIs(t, err, apperrors.ErrInvalidPlan)
}
