package loan

import (
	"context"

	"loan-ledger/internal/domain/customer"

	"github.com/jackc/pgx/v5"
)

type ListFilter struct {
	Status LoanStatus
	// Search matches customer name, phone or the loan ID.
	Search string
}

type Repository interface {
	CreateLoan(ctx context.Context, loan *Loan) error

	GetLoanByID(ctx context.Context, loanID string) (*Loan, error)

	ListLoans(ctx context.Context, filter ListFilter) ([]*Loan, error)

	ActiveLoanIDs(ctx context.Context) ([]string, error)

	DeleteLoan(ctx context.Context, loanID string) error

	HasActiveLoanForIDProof(ctx context.Context, idType customer.IDType, idNumber string) (bool, error)

	ListCollections(ctx context.Context, loanID string) ([]Collection, error)

	RecentCollections(ctx context.Context, limit int) ([]Collection, error)

	AllCollections(ctx context.Context) ([]Collection, error)

	// GetLoanForUpdateInTx locks the loan row until tx ends.
	GetLoanForUpdateInTx(ctx context.Context, tx pgx.Tx, loanID string) (*Loan, error)

	ListCollectionsInTx(ctx context.Context, tx pgx.Tx, loanID string) ([]Collection, error)

	UpdateInstallmentsInTx(ctx context.Context, tx pgx.Tx, loanID string, installments []Installment) error

	InsertCollectionInTx(ctx context.Context, tx pgx.Tx, collection Collection) error

	UpdateLoanStatusInTx(ctx context.Context, tx pgx.Tx, loanID string, status LoanStatus) error

	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error
}
