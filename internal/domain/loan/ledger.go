package loan

import (
	"fmt"
	"time"

	"loan-ledger/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Settlement is the result of a ledger mutation. The caller must persist the
// installments, the collection and the status together or not at all.
type Settlement struct {
	Installments []Installment
	Collection   Collection
	Status       LoanStatus
}

// RefreshStatus marks pending installments due before today as overdue.
// The input slice is left untouched.
func RefreshStatus(installments []Installment, today time.Time) []Installment {
	day := DateOf(today)
	out := cloneInstallments(installments)
	for i := range out {
		if out[i].Status == InstallmentPending && out[i].DueDate.Before(day) {
			out[i].Status = InstallmentOverdue
		}
	}
	return out
}

// TotalCollected sums the collections recorded against loanID.
func TotalCollected(loanID string, collections []Collection) decimal.Decimal {
	total := decimal.Zero
	for _, c := range collections {
		if c.LoanID == loanID {
			total = total.Add(c.Amount)
		}
	}
	return total
}

// OutstandingBalance is derived from the collection history, never stored.
func OutstandingBalance(l *Loan, collections []Collection) decimal.Decimal {
	return l.TotalAmount.Sub(TotalCollected(l.ID, collections))
}

// NextDue returns the earliest open installment, or nil when none remain.
func NextDue(installments []Installment) *Installment {
	var next *Installment
	for i := range installments {
		inst := &installments[i]
		if !inst.IsOpen() {
			continue
		}
		if next == nil || inst.DueDate.Before(next.DueDate) {
			next = inst
		}
	}
	return next
}

func OverdueCount(installments []Installment) int {
	n := 0
	for _, inst := range installments {
		if inst.Status == InstallmentOverdue {
			n++
		}
	}
	return n
}

type Reconciler struct {
	now   func() time.Time
	newID func() string
}

func NewReconciler() *Reconciler {
	return &Reconciler{now: time.Now, newID: uuid.NewString}
}

// Allocate applies amount to the oldest open installments first, spilling any
// remainder forward, and records the payment as a new collection.
func (r *Reconciler) Allocate(l *Loan, collections []Collection, amount decimal.Decimal, date time.Time) (*Settlement, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: got %s", apperrors.ErrNonPositiveAmount, amount.String())
	}
	if !IsMoneyAmount(amount) {
		return nil, fmt.Errorf("%w: amount %s has more than %d decimal places", apperrors.ErrInvalidArgument, amount.String(), MoneyScale)
	}

	collected := TotalCollected(l.ID, collections)
	outstanding := l.TotalAmount.Sub(collected)
	if amount.GreaterThan(outstanding) {
		limit := outstanding
		if limit.IsNegative() {
			limit = decimal.Zero
		}
		return nil, &apperrors.OverpaymentError{Requested: amount, Max: limit}
	}

	paidOn := DateOf(date)
	installments := cloneInstallments(l.Installments)
	remaining := amount

	for i := range installments {
		if !remaining.IsPositive() {
			break
		}
		inst := &installments[i]
		if !inst.IsOpen() {
			continue
		}
		capacity := inst.Remaining()
		if !capacity.IsPositive() {
			continue
		}

		applied := decimal.Min(remaining, capacity)
		inst.PaidAmount = inst.PaidAmount.Add(applied)
		remaining = remaining.Sub(applied)

		if inst.PaidAmount.GreaterThanOrEqual(inst.Amount) {
			inst.Status = InstallmentPaid
			pd := paidOn
			inst.PaidDate = &pd
		}
	}

	status := l.Status
	if collected.Add(amount).GreaterThanOrEqual(l.TotalAmount) {
		status = StatusClosed
	}

	return &Settlement{
		Installments: installments,
		Collection:   r.newCollection(l, amount, paidOn),
		Status:       status,
	}, nil
}

// PreClose settles the whole outstanding balance in one collection and marks
// every open installment paid.
func (r *Reconciler) PreClose(l *Loan, collections []Collection, date time.Time) (*Settlement, error) {
	outstanding := OutstandingBalance(l, collections)
	if l.Status == StatusClosed || !outstanding.IsPositive() {
		return nil, fmt.Errorf("%w: loan %s", apperrors.ErrAlreadySettled, l.ID)
	}

	settledOn := DateOf(date)
	installments := cloneInstallments(l.Installments)
	for i := range installments {
		inst := &installments[i]
		if !inst.IsOpen() {
			continue
		}
		inst.Status = InstallmentPaid
		inst.PaidAmount = inst.Amount
		pd := settledOn
		inst.PaidDate = &pd
	}

	return &Settlement{
		Installments: installments,
		Collection:   r.newCollection(l, outstanding, settledOn),
		Status:       StatusClosed,
	}, nil
}

func (r *Reconciler) newCollection(l *Loan, amount decimal.Decimal, date time.Time) Collection {
	return Collection{
		ID:         r.newID(),
		LoanID:     l.ID,
		CustomerID: l.CustomerID,
		Amount:     amount,
		Date:       date,
		CreatedAt:  r.now().UTC(),
	}
}
