package event

import (
	"time"

	"github.com/shopspring/decimal"
)

type CustomerEventPayload struct {
	CustomerID string    `json:"customerId"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	IDType     string    `json:"idType"`
	IDNumber   string    `json:"idNumber"`
	CreatedAt  time.Time `json:"createdAt"`
}

type CustomerCreatedEvent struct {
	Timestamp time.Time            `json:"timestamp"`
	Payload   CustomerEventPayload `json:"payload"`
}

type CustomerDeletedEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	CustomerID string    `json:"customerId"`
}

type LoanCreatedEvent struct {
	Timestamp        time.Time       `json:"timestamp"`
	LoanID           string          `json:"loanId"`
	CustomerID       string          `json:"customerId"`
	Plan             string          `json:"plan"`
	Principal        decimal.Decimal `json:"principal"`
	DisbursedAmount  decimal.Decimal `json:"disbursedAmount"`
	InstallmentCount int             `json:"installmentCount"`
	DisbursementDate time.Time       `json:"disbursementDate"`
}

type CollectionRecordedEvent struct {
	Timestamp    time.Time       `json:"timestamp"`
	CollectionID string          `json:"collectionId"`
	LoanID       string          `json:"loanId"`
	CustomerID   string          `json:"customerId"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	Outstanding  decimal.Decimal `json:"outstanding"`
}

// LoanClosedEvent is published both for regular payoff and for pre-closure.
type LoanClosedEvent struct {
	Timestamp   time.Time       `json:"timestamp"`
	LoanID      string          `json:"loanId"`
	CustomerID  string          `json:"customerId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	ClosedOn    time.Time       `json:"closedOn"`
	PreClosed   bool            `json:"preClosed"`
}

type LoanOverdueEvent struct {
	Timestamp          time.Time       `json:"timestamp"`
	LoanID             string          `json:"loanId"`
	CustomerID         string          `json:"customerId"`
	OverdueCount       int             `json:"overdueCount"`
	NewlyOverdue       []int           `json:"newlyOverdue"`
	OutstandingBalance decimal.Decimal `json:"outstandingBalance"`
}
