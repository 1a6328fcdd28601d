package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"loan-ledger/internal/domain/customer"
	"loan-ledger/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

const customerColumns = `id, name, phone, email, address, id_type, id_number, occupation, monthly_income, kyc_status, created_at, updated_at`

const (
	insertCustomerSQL = `
        INSERT INTO customers (id, name, phone, email, address, id_type, id_number, occupation, monthly_income, kyc_status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	selectCustomerByIDSQL = `SELECT ` + customerColumns + `
        FROM customers
        WHERE id = $1`

	selectCustomerByIDProofSQL = `SELECT ` + customerColumns + `
        FROM customers
        WHERE id_type = $1 AND id_number = $2`

	searchCustomersSQL = `SELECT ` + customerColumns + `
        FROM customers
        WHERE $1 = '' OR name ILIKE '%' || $1 || '%' OR phone ILIKE '%' || $1 || '%' OR id_number ILIKE '%' || $1 || '%'
        ORDER BY created_at DESC`

	countCustomersSQL = `SELECT COUNT(*) FROM customers`

	customerHasActiveLoanSQL = `SELECT EXISTS (SELECT 1 FROM loans WHERE customer_id = $1 AND status = 'active')`

	deleteCustomerSQL = `DELETE FROM customers WHERE id = $1`
)

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBPool cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "CustomerRepository"),
	}
}

func (r *CustomerRepository) Create(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}
	r.logger.InfoContext(ctx, "Attempting to insert new customer", slog.String("customerID", cust.ID))

	_, err := r.db.Exec(ctx, insertCustomerSQL,
		cust.ID,
		cust.Name,
		cust.Phone,
		cust.Email,
		cust.Address,
		string(cust.IDType),
		cust.IDNumber,
		cust.Occupation,
		cust.MonthlyIncome,
		string(cust.KYCStatus),
		cust.CreatedAt,
		cust.UpdatedAt,
	)
	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) {
			r.logger.WarnContext(ctx, "Failed to insert customer due to unique constraint violation", slog.String("idType", string(cust.IDType)))
			return translatedErr
		}
		r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to insert customer: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.String("customerID", cust.ID))
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID string) (*customer.Customer, error) {
	cust, err := scanCustomer(r.db.QueryRow(ctx, selectCustomerByIDSQL, customerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Customer not found", slog.String("customerID", customerID))
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan customer by ID", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get customer by ID: %w", apperrors.ErrDatabase, err)
	}
	return cust, nil
}

func (r *CustomerRepository) FindByIDProof(ctx context.Context, idType customer.IDType, idNumber string) (*customer.Customer, error) {
	cust, err := scanCustomer(r.db.QueryRow(ctx, selectCustomerByIDProofSQL, string(idType), idNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan customer by ID proof", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get customer by ID proof: %w", apperrors.ErrDatabase, err)
	}
	return cust, nil
}

// Search matches name, phone or ID number case-insensitively. An empty query lists everyone.
func (r *CustomerRepository) Search(ctx context.Context, query string) ([]*customer.Customer, error) {
	rows, err := r.db.Query(ctx, searchCustomersSQL, query)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query customers", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query customers: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	customers := make([]*customer.Customer, 0)
	for rows.Next() {
		cust, err := scanCustomer(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan customer row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan customer row: %w", apperrors.ErrDatabase, err)
		}
		customers = append(customers, cust)
	}

	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating customer rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating customer rows: %w", apperrors.ErrDatabase, err)
	}

	r.logger.DebugContext(ctx, "Finished searching customers", slog.Int("count", len(customers)))
	return customers, nil
}

func (r *CustomerRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, countCustomersSQL).Scan(&n); err != nil {
		r.logger.ErrorContext(ctx, "Failed to count customers", slog.Any("error", err))
		return 0, fmt.Errorf("%w: failed to count customers: %w", apperrors.ErrDatabase, err)
	}
	return n, nil
}

func (r *CustomerRepository) HasActiveLoan(ctx context.Context, customerID string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, customerHasActiveLoanSQL, customerID).Scan(&exists); err != nil {
		r.logger.ErrorContext(ctx, "Failed to check active loans", slog.Any("error", err))
		return false, fmt.Errorf("%w: failed to check active loans: %w", apperrors.ErrDatabase, err)
	}
	return exists, nil
}

// Delete relies on ON DELETE CASCADE to drop the customer's loans and collections.
func (r *CustomerRepository) Delete(ctx context.Context, customerID string) error {
	r.logger.InfoContext(ctx, "Attempting to delete customer", slog.String("customerID", customerID))

	cmdTag, err := r.db.Exec(ctx, deleteCustomerSQL, customerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to execute delete customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to delete customer: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Delete affected zero rows, customer likely not found")
		return apperrors.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Customer deleted successfully")
	return nil
}

func scanCustomer(row pgx.Row) (*customer.Customer, error) {
	var (
		cust   customer.Customer
		idType string
		kyc    string
	)
	err := row.Scan(
		&cust.ID,
		&cust.Name,
		&cust.Phone,
		&cust.Email,
		&cust.Address,
		&idType,
		&cust.IDNumber,
		&cust.Occupation,
		&cust.MonthlyIncome,
		&kyc,
		&cust.CreatedAt,
		&cust.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	cust.IDType = customer.IDType(idType)
	cust.KYCStatus = customer.KYCStatus(kyc)
	return &cust, nil
}
