package loan

import (
	"testing"
	"time"

	"loan-ledger/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func mustTerms(t *testing.T, principal int64, plan Plan, term int) LoanTerms {
	t.Helper()
	terms, err := ComputeTerms(d(principal), RateFor(plan, term), plan, term)
	require.NoError(t, err)
	return terms
}

func TestGenerateSchedule_Daily(t *testing.T) {
	start := date(2024, time.March, 1)
	schedule, err := GenerateSchedule(mustTerms(t, 7000, PlanDaily, 0), start)
	require.NoError(t, err)

	require.Len(t, schedule, 70)
	for i, inst := range schedule {
		assert.Equal(t, i+1, inst.Number)
		assert.Equal(t, start.AddDate(0, 0, i+1), inst.DueDate)
		assert.True(t, inst.Amount.Equal(d(100)))
		assert.Equal(t, InstallmentPending, inst.Status)
		assert.True(t, inst.PaidAmount.IsZero())
		assert.Nil(t, inst.PaidDate)
	}
	assert.Equal(t, date(2024, time.May, 10), schedule[69].DueDate)
}

func TestGenerateSchedule_Weekly(t *testing.T) {
	start := date(2024, time.January, 10)
	schedule, err := GenerateSchedule(mustTerms(t, 4000, PlanWeekly, 4), start)
	require.NoError(t, err)

	require.Len(t, schedule, 4)
	assert.Equal(t, date(2024, time.January, 17), schedule[0].DueDate)
	assert.Equal(t, date(2024, time.February, 7), schedule[3].DueDate)
}

func TestGenerateSchedule_Monthly(t *testing.T) {
	schedule, err := GenerateSchedule(mustTerms(t, 10000, PlanMonthly, 0), date(2024, time.May, 15))
	require.NoError(t, err)

	require.Len(t, schedule, 1)
	assert.Equal(t, date(2024, time.June, 15), schedule[0].DueDate)
	assert.True(t, schedule[0].Amount.Equal(d(10000)))
}

func TestGenerateSchedule_MonthlyClampsDayOfMonth(t *testing.T) {
	tests := []struct {
		start time.Time
		want  time.Time
	}{
		{date(2024, time.January, 31), date(2024, time.February, 29)},
		{date(2023, time.January, 31), date(2023, time.February, 28)},
		{date(2024, time.March, 31), date(2024, time.April, 30)},
		{date(2024, time.December, 31), date(2025, time.January, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.start.Format("2006-01-02"), func(t *testing.T) {
			schedule, err := GenerateSchedule(mustTerms(t, 1000, PlanMonthly, 0), tt.start)
			require.NoError(t, err)
			assert.Equal(t, tt.want, schedule[0].DueDate)
		})
	}
}

func TestGenerateSchedule_CarriesRoundingRemainder(t *testing.T) {
	terms := mustTerms(t, 1000, PlanWeekly, 3)
	schedule, err := GenerateSchedule(terms, date(2024, time.January, 1))
	require.NoError(t, err)

	assert.True(t, schedule[0].Amount.Equal(d(333)))
	assert.True(t, schedule[1].Amount.Equal(d(333)))
	assert.True(t, schedule[2].Amount.Equal(d(334)))

	sum := decimal.Zero
	for _, inst := range schedule {
		sum = sum.Add(inst.Amount)
	}
	assert.True(t, sum.Equal(terms.TotalAmount))
}

func TestGenerateSchedule_LengthAndOrdering(t *testing.T) {
	cases := []LoanTerms{
		mustTerms(t, 7000, PlanDaily, 0),
		mustTerms(t, 5000, PlanWeekly, 0),
		mustTerms(t, 5000, PlanWeekly, 13),
		mustTerms(t, 5000, PlanMonthly, 0),
	}

	for _, terms := range cases {
		schedule, err := GenerateSchedule(terms, date(2024, time.August, 31))
		require.NoError(t, err)
		require.Len(t, schedule, terms.InstallmentCount)
		for i := 1; i < len(schedule); i++ {
			assert.True(t, schedule[i].DueDate.After(schedule[i-1].DueDate))
		}
	}
}

func TestGenerateSchedule_PrincipalTooSmall(t *testing.T) {
	// 105 / 70 rounds to 2, leaving nothing for the final installment.
	terms := mustTerms(t, 105, PlanDaily, 0)
	_, err := GenerateSchedule(terms, date(2024, time.January, 1))

	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestGenerateSchedule_NormalizesStartDate(t *testing.T) {
	start := time.Date(2024, time.January, 1, 18, 30, 0, 0, time.UTC)
	schedule, err := GenerateSchedule(mustTerms(t, 700, PlanDaily, 0), start)
	require.NoError(t, err)

	assert.Equal(t, date(2024, time.January, 2), schedule[0].DueDate)
}
