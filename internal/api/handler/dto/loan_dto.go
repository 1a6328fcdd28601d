package dto

import (
	"time"

	"loan-ledger/internal/domain/loan"

	"github.com/shopspring/decimal"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type PreviewLoanRequest struct {
	Principal decimal.Decimal `json:"principal"`
	Plan      string          `json:"plan" validate:"required"`
	Term      int             `json:"term" validate:"gte=0"`
}

type CreateLoanRequest struct {
	CustomerID       string          `json:"customerId" validate:"required"`
	Principal        decimal.Decimal `json:"principal"`
	Plan             string          `json:"plan" validate:"required"`
	Term             int             `json:"term" validate:"gte=0"`
	DisbursementDate string          `json:"disbursementDate" validate:"omitempty,datetime=2006-01-02"`
}

type RecordCollectionRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func (r PreviewLoanRequest) amounts() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{"principal": r.Principal}
}

func (r CreateLoanRequest) amounts() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{"principal": r.Principal}
}

func (r RecordCollectionRequest) amounts() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{"amount": r.Amount}
}

type PreCloseRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type TermsResponse struct {
	Principal         string `json:"principal"`
	InterestRate      string `json:"interestRate"`
	Plan              string `json:"plan"`
	InstallmentCount  int    `json:"installmentCount"`
	TotalInterest     string `json:"totalInterest"`
	DisbursedAmount   string `json:"disbursedAmount"`
	TotalAmount       string `json:"totalAmount"`
	InstallmentAmount string `json:"installmentAmount"`
}

func NewTermsResponse(t loan.LoanTerms) TermsResponse {
	return TermsResponse{
		Principal:         money(t.Principal),
		InterestRate:      t.InterestRate.String(),
		Plan:              string(t.Plan),
		InstallmentCount:  t.InstallmentCount,
		TotalInterest:     money(t.TotalInterest),
		DisbursedAmount:   money(t.DisbursedAmount),
		TotalAmount:       money(t.TotalAmount),
		InstallmentAmount: money(t.InstallmentAmount),
	}
}

type InstallmentResponse struct {
	Number     int     `json:"number"`
	DueDate    string  `json:"dueDate"`
	Amount     string  `json:"amount"`
	PaidAmount string  `json:"paidAmount"`
	Remaining  string  `json:"remaining"`
	Status     string  `json:"status"`
	PaidDate   *string `json:"paidDate,omitempty"`
}

func NewInstallmentResponse(inst loan.Installment) InstallmentResponse {
	resp := InstallmentResponse{
		Number:     inst.Number,
		DueDate:    formatDate(inst.DueDate),
		Amount:     money(inst.Amount),
		PaidAmount: money(inst.PaidAmount),
		Remaining:  money(inst.Remaining()),
		Status:     string(inst.Status),
	}
	if inst.PaidDate != nil {
		pd := formatDate(*inst.PaidDate)
		resp.PaidDate = &pd
	}
	return resp
}

type LoanResponse struct {
	ID               string `json:"id"`
	CustomerID       string `json:"customerId"`
	TermsResponse
	DisbursementDate string                `json:"disbursementDate"`
	Status           string                `json:"status"`
	OverdueCount     int                   `json:"overdueCount"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
	Installments     []InstallmentResponse `json:"installments,omitempty"`
}

func NewLoanResponse(l *loan.Loan, includeSchedule bool) LoanResponse {
	resp := LoanResponse{
		ID:               l.ID,
		CustomerID:       l.CustomerID,
		TermsResponse:    NewTermsResponse(l.LoanTerms),
		DisbursementDate: formatDate(l.DisbursementDate),
		Status:           string(l.Status),
		OverdueCount:     loan.OverdueCount(l.Installments),
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
	if includeSchedule {
		resp.Installments = make([]InstallmentResponse, len(l.Installments))
		for i, inst := range l.Installments {
			resp.Installments[i] = NewInstallmentResponse(inst)
		}
	}
	return resp
}

type LoanListResponse struct {
	Loans []LoanResponse `json:"loans"`
	Count int            `json:"count"`
}

func NewLoanListResponse(loans []*loan.Loan) LoanListResponse {
	resp := LoanListResponse{Loans: make([]LoanResponse, len(loans)), Count: len(loans)}
	for i, l := range loans {
		resp.Loans[i] = NewLoanResponse(l, false)
	}
	return resp
}

type OutstandingResponse struct {
	LoanID              string               `json:"loanId"`
	TotalAmount         string               `json:"totalAmount"`
	Collected           string               `json:"collected"`
	Outstanding         string               `json:"outstanding"`
	OverdueCount        int                  `json:"overdueCount"`
	SuggestedCollection string               `json:"suggestedCollection"`
	NextDue             *InstallmentResponse `json:"nextDue,omitempty"`
}

func NewOutstandingResponse(b *loan.Balance, suggested decimal.Decimal) OutstandingResponse {
	resp := OutstandingResponse{
		LoanID:              b.LoanID,
		TotalAmount:         money(b.TotalAmount),
		Collected:           money(b.Collected),
		Outstanding:         money(b.Outstanding),
		OverdueCount:        b.OverdueCount,
		SuggestedCollection: money(suggested),
	}
	if b.NextDue != nil {
		next := NewInstallmentResponse(*b.NextDue)
		resp.NextDue = &next
	}
	return resp
}

type CollectionResponse struct {
	ID         string    `json:"id"`
	LoanID     string    `json:"loanId"`
	CustomerID string    `json:"customerId"`
	Amount     string    `json:"amount"`
	Date       string    `json:"date"`
	CreatedAt  time.Time `json:"createdAt"`
}

func NewCollectionResponse(c loan.Collection) CollectionResponse {
	return CollectionResponse{
		ID:         c.ID,
		LoanID:     c.LoanID,
		CustomerID: c.CustomerID,
		Amount:     money(c.Amount),
		Date:       formatDate(c.Date),
		CreatedAt:  c.CreatedAt,
	}
}

func NewCollectionListResponse(collections []loan.Collection) []CollectionResponse {
	resp := make([]CollectionResponse, len(collections))
	for i, c := range collections {
		resp[i] = NewCollectionResponse(c)
	}
	return resp
}

type ReceiptResponse struct {
	Collection  CollectionResponse `json:"collection"`
	LoanStatus  string             `json:"loanStatus"`
	Outstanding string             `json:"outstanding"`
	Loan        LoanResponse       `json:"loan"`
}

func NewReceiptResponse(r *loan.Receipt) ReceiptResponse {
	return ReceiptResponse{
		Collection:  NewCollectionResponse(r.Collection),
		LoanStatus:  string(r.Loan.Status),
		Outstanding: money(r.Outstanding),
		Loan:        NewLoanResponse(r.Loan, true),
	}
}
