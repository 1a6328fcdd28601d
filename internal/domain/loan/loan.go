package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	StatusActive LoanStatus = "active"
	StatusClosed LoanStatus = "closed"
)

type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "pending"
	InstallmentOverdue InstallmentStatus = "overdue"
	InstallmentPaid    InstallmentStatus = "paid"
)

type Loan struct {
	ID         string
	CustomerID string
	LoanTerms
	DisbursementDate time.Time
	Status           LoanStatus
	Installments     []Installment
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Installment struct {
	Number     int
	DueDate    time.Time
	Amount     decimal.Decimal
	Status     InstallmentStatus
	PaidAmount decimal.Decimal
	PaidDate   *time.Time
}

// Remaining is the part of the installment amount not yet covered by payments.
func (i Installment) Remaining() decimal.Decimal {
	r := i.Amount.Sub(i.PaidAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

func (i Installment) IsOpen() bool {
	return i.Status == InstallmentPending || i.Status == InstallmentOverdue
}

// Collection is an immutable payment event recorded against a loan.
type Collection struct {
	ID         string
	LoanID     string
	CustomerID string
	Amount     decimal.Decimal
	Date       time.Time
	CreatedAt  time.Time
}

// MoneyScale is the number of decimal places amounts are stored with.
const MoneyScale = 2

// IsMoneyAmount reports whether d fits MoneyScale without rounding.
func IsMoneyAmount(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyScale))
}

// DateOf returns the calendar date of t as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayIn returns the calendar date t falls on in loc, as midnight UTC.
func DayIn(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(t.In(loc))
}

func cloneInstallments(src []Installment) []Installment {
	out := make([]Installment, len(src))
	for i, inst := range src {
		out[i] = inst
		if inst.PaidDate != nil {
			pd := *inst.PaidDate
			out[i].PaidDate = &pd
		}
	}
	return out
}
