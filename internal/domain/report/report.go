package report

import (
	"time"

	"loan-ledger/internal/domain/loan"

	"github.com/shopspring/decimal"
)

type Period struct {
	Disbursed decimal.Decimal `json:"disbursed"`
	Collected decimal.Decimal `json:"collected"`
}

// Summary is the portfolio snapshot shown on the operator dashboard.
type Summary struct {
	TotalCustomers    int             `json:"totalCustomers"`
	ActiveLoans       int             `json:"activeLoans"`
	ClosedLoans       int             `json:"closedLoans"`
	OverdueLoans      int             `json:"overdueLoans"`
	TotalDisbursed    decimal.Decimal `json:"totalDisbursed"`
	OutstandingAmount decimal.Decimal `json:"outstandingAmount"`
	TotalCollected    decimal.Decimal `json:"totalCollected"`
	Daily             Period          `json:"daily"`
	Weekly            Period          `json:"weekly"`
	Monthly           Period          `json:"monthly"`
	GeneratedOn       time.Time       `json:"generatedOn"`
}

// Summarize aggregates loans and collections as of today. The weekly window covers the
// seven days before today, the monthly window starts on the same day one month earlier.
func Summarize(loans []*loan.Loan, collections []loan.Collection, customers int, today time.Time) Summary {
	today = loan.DateOf(today)
	weekAgo := today.AddDate(0, 0, -7)
	monthAgo := today.AddDate(0, -1, 0)

	s := Summary{
		TotalCustomers:    customers,
		TotalDisbursed:    decimal.Zero,
		OutstandingAmount: decimal.Zero,
		TotalCollected:    decimal.Zero,
		Daily:             Period{Disbursed: decimal.Zero, Collected: decimal.Zero},
		Weekly:            Period{Disbursed: decimal.Zero, Collected: decimal.Zero},
		Monthly:           Period{Disbursed: decimal.Zero, Collected: decimal.Zero},
		GeneratedOn:       today,
	}

	collectedByLoan := make(map[string]decimal.Decimal)
	for _, c := range collections {
		s.TotalCollected = s.TotalCollected.Add(c.Amount)
		collectedByLoan[c.LoanID] = collectedByLoan[c.LoanID].Add(c.Amount)

		day := loan.DateOf(c.Date)
		if day.Equal(today) {
			s.Daily.Collected = s.Daily.Collected.Add(c.Amount)
		}
		if !day.Before(weekAgo) {
			s.Weekly.Collected = s.Weekly.Collected.Add(c.Amount)
		}
		if !day.Before(monthAgo) {
			s.Monthly.Collected = s.Monthly.Collected.Add(c.Amount)
		}
	}

	for _, l := range loans {
		s.TotalDisbursed = s.TotalDisbursed.Add(l.DisbursedAmount)

		switch l.Status {
		case loan.StatusActive:
			s.ActiveLoans++
			s.OutstandingAmount = s.OutstandingAmount.Add(l.TotalAmount.Sub(collectedByLoan[l.ID]))
			if hasOverdue(l.Installments, today) {
				s.OverdueLoans++
			}
		case loan.StatusClosed:
			s.ClosedLoans++
		}

		day := loan.DateOf(l.DisbursementDate)
		if day.Equal(today) {
			s.Daily.Disbursed = s.Daily.Disbursed.Add(l.DisbursedAmount)
		}
		if !day.Before(weekAgo) {
			s.Weekly.Disbursed = s.Weekly.Disbursed.Add(l.DisbursedAmount)
		}
		if !day.Before(monthAgo) {
			s.Monthly.Disbursed = s.Monthly.Disbursed.Add(l.DisbursedAmount)
		}
	}

	return s
}

func hasOverdue(installments []loan.Installment, today time.Time) bool {
	for _, inst := range installments {
		if inst.IsOpen() && inst.DueDate.Before(today) {
			return true
		}
	}
	return false
}
