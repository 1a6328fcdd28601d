package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"loan-ledger/internal/domain/customer"
	"loan-ledger/internal/domain/loan"
	"loan-ledger/internal/infrastructure/monitoring"
	"loan-ledger/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

// querier is satisfied by both the pool and an open transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ loan.Repository = (*LoanRepository)(nil)

var errMsgFormat = "%w: %w"

const loanColumns = `l.id, l.customer_id, l.principal, l.interest_rate, l.plan, l.installment_count,
        l.total_interest, l.disbursed_amount, l.total_amount, l.installment_amount,
        l.disbursement_date, l.status, l.created_at, l.updated_at`

const (
	insertLoanSQL = `
        INSERT INTO loans (id, customer_id, principal, interest_rate, plan, installment_count,
            total_interest, disbursed_amount, total_amount, installment_amount,
            disbursement_date, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	insertInstallmentSQL = `
        INSERT INTO installments (loan_id, number, due_date, amount, paid_amount, status, paid_date)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`

	selectLoanByIDSQL = `SELECT ` + loanColumns + `
        FROM loans l
        WHERE l.id = $1`

	selectLoanForUpdateSQL = selectLoanByIDSQL + `
        FOR UPDATE`

	selectLoansSQL = `SELECT ` + loanColumns + `
        FROM loans l
        JOIN customers c ON c.id = l.customer_id
        WHERE ($1 = '' OR l.status = $1)
          AND ($2 = '' OR c.name ILIKE '%' || $2 || '%' OR c.phone ILIKE '%' || $2 || '%' OR l.id ILIKE '%' || $2 || '%')
        ORDER BY l.created_at DESC`

	selectInstallmentsSQL = `
        SELECT loan_id, number, due_date, amount, paid_amount, status, paid_date
        FROM installments
        WHERE loan_id = ANY($1)
        ORDER BY loan_id, number ASC`

	selectActiveLoanIDsSQL = `SELECT id FROM loans WHERE status = $1 ORDER BY created_at`

	deleteLoanSQL = `DELETE FROM loans WHERE id = $1`

	activeLoanForIDProofSQL = `
        SELECT EXISTS (
            SELECT 1 FROM loans l
            JOIN customers c ON c.id = l.customer_id
            WHERE c.id_type = $1 AND c.id_number = $2 AND l.status = $3)`

	collectionColumns = `id, loan_id, customer_id, amount, collected_on, created_at`

	selectCollectionsByLoanSQL = `SELECT ` + collectionColumns + `
        FROM collections
        WHERE loan_id = $1
        ORDER BY collected_on ASC, created_at ASC`

	selectRecentCollectionsSQL = `SELECT ` + collectionColumns + `
        FROM collections
        ORDER BY created_at DESC
        LIMIT $1`

	selectAllCollectionsSQL = `SELECT ` + collectionColumns + `
        FROM collections
        ORDER BY collected_on ASC`

	insertCollectionSQL = `
        INSERT INTO collections (id, loan_id, customer_id, amount, collected_on, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`

	updateInstallmentSQL = `
        UPDATE installments
        SET paid_amount = $1, status = $2, paid_date = $3
        WHERE loan_id = $4 AND number = $5`

	updateLoanStatusSQL = `UPDATE loans SET status = $1, updated_at = NOW() WHERE id = $2`
)

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

func (r *LoanRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return tx, nil
}

func (r *LoanRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *LoanRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.ErrorContext(ctx, "Failed to rollback transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

// CreateLoan stores the loan and its full schedule atomically.
func (r *LoanRepository) CreateLoan(ctx context.Context, l *loan.Loan) (err error) {
	startTime := time.Now()
	defer func() { monitoring.RecordDBQuery("CreateLoan", queryStatus(err), time.Since(startTime)) }()

	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = r.RollbackTx(ctx, tx)
		}
	}()

	_, err = tx.Exec(ctx, insertLoanSQL,
		l.ID, l.CustomerID, l.Principal, l.InterestRate, string(l.Plan), l.InstallmentCount,
		l.TotalInterest, l.DisbursedAmount, l.TotalAmount, l.InstallmentAmount,
		l.DisbursementDate, string(l.Status), l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan", "loan_id", l.ID, "error", err)
		return translateDBError(err, r.logger)
	}

	for _, inst := range l.Installments {
		_, err = tx.Exec(ctx, insertInstallmentSQL,
			l.ID, inst.Number, inst.DueDate, inst.Amount, inst.PaidAmount, string(inst.Status), inst.PaidDate,
		)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed inserting installment", "loan_id", l.ID, "number", inst.Number, "error", err)
			return fmt.Errorf("%w: failed inserting installment %d: %w", apperrors.ErrDatabase, inst.Number, err)
		}
	}

	if err = r.CommitTx(ctx, tx); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "Loan created in DB", "loan_id", l.ID, "num_installments", len(l.Installments))
	return nil
}

func (r *LoanRepository) GetLoanByID(ctx context.Context, loanID string) (*loan.Loan, error) {
	startTime := time.Now()
	l, err := r.loadLoan(ctx, r.db, selectLoanByIDSQL, loanID)
	monitoring.RecordDBQuery("GetLoanByID", queryStatus(err), time.Since(startTime))
	return l, err
}

func (r *LoanRepository) GetLoanForUpdateInTx(ctx context.Context, tx pgx.Tx, loanID string) (*loan.Loan, error) {
	return r.loadLoan(ctx, tx, selectLoanForUpdateSQL, loanID)
}

func (r *LoanRepository) loadLoan(ctx context.Context, q querier, query, loanID string) (*loan.Loan, error) {
	l, err := scanLoan(q.QueryRow(ctx, query, loanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found", "loan_id", loanID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get loan by ID", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	schedules, err := r.installmentsFor(ctx, q, []string{loanID})
	if err != nil {
		return nil, err
	}
	l.Installments = schedules[loanID]
	return l, nil
}

func (r *LoanRepository) ListLoans(ctx context.Context, filter loan.ListFilter) ([]*loan.Loan, error) {
	startTime := time.Now()
	loans, err := r.listLoans(ctx, filter)
	monitoring.RecordDBQuery("ListLoans", queryStatus(err), time.Since(startTime))
	return loans, err
}

func (r *LoanRepository) listLoans(ctx context.Context, filter loan.ListFilter) ([]*loan.Loan, error) {
	rows, err := r.db.Query(ctx, selectLoansSQL, string(filter.Status), filter.Search)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query loans", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	loans := make([]*loan.Loan, 0)
	ids := make([]string, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan loan row", "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		loans = append(loans, l)
		ids = append(ids, l.ID)
	}
	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating loan rows", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	if len(loans) == 0 {
		return loans, nil
	}
	schedules, err := r.installmentsFor(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for _, l := range loans {
		l.Installments = schedules[l.ID]
	}
	return loans, nil
}

func (r *LoanRepository) installmentsFor(ctx context.Context, q querier, loanIDs []string) (map[string][]loan.Installment, error) {
	rows, err := q.Query(ctx, selectInstallmentsSQL, loanIDs)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query installments", "loan_ids", loanIDs, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	out := make(map[string][]loan.Installment, len(loanIDs))
	for rows.Next() {
		var (
			loanID string
			inst   loan.Installment
			status string
		)
		if err := rows.Scan(&loanID, &inst.Number, &inst.DueDate, &inst.Amount, &inst.PaidAmount, &status, &inst.PaidDate); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan installment row", "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		inst.Status = loan.InstallmentStatus(status)
		out[loanID] = append(out[loanID], inst)
	}
	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating installment rows", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return out, nil
}

func (r *LoanRepository) ActiveLoanIDs(ctx context.Context) ([]string, error) {
	logCtx := r.logger.With(slog.String("operation", "ActiveLoanIDs"))

	rows, err := r.db.Query(ctx, selectActiveLoanIDsSQL, string(loan.StatusActive))
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to query active loan IDs", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query active loans: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	loanIDs := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			logCtx.ErrorContext(ctx, "Failed to scan active loan ID row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed scanning active loan ID: %w", apperrors.ErrDatabase, err)
		}
		loanIDs = append(loanIDs, id)
	}
	if err = rows.Err(); err != nil {
		logCtx.ErrorContext(ctx, "Error iterating active loan ID rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating active loan IDs: %w", apperrors.ErrDatabase, err)
	}

	logCtx.DebugContext(ctx, "Finished getting active loan IDs", slog.Int("count", len(loanIDs)))
	return loanIDs, nil
}

func (r *LoanRepository) DeleteLoan(ctx context.Context, loanID string) error {
	cmdTag, err := r.db.Exec(ctx, deleteLoanSQL, loanID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete loan", "loan_id", loanID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: loan %s", apperrors.ErrNotFound, loanID)
	}
	r.logger.InfoContext(ctx, "Loan deleted from DB", "loan_id", loanID)
	return nil
}

func (r *LoanRepository) HasActiveLoanForIDProof(ctx context.Context, idType customer.IDType, idNumber string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, activeLoanForIDProofSQL, string(idType), idNumber, string(loan.StatusActive)).Scan(&exists)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to check active loan for ID proof", "id_type", idType, "error", err)
		return false, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return exists, nil
}

func (r *LoanRepository) ListCollections(ctx context.Context, loanID string) ([]loan.Collection, error) {
	return r.queryCollections(ctx, r.db, "ListCollections", selectCollectionsByLoanSQL, loanID)
}

func (r *LoanRepository) ListCollectionsInTx(ctx context.Context, tx pgx.Tx, loanID string) ([]loan.Collection, error) {
	return r.queryCollections(ctx, tx, "ListCollectionsInTx", selectCollectionsByLoanSQL, loanID)
}

func (r *LoanRepository) RecentCollections(ctx context.Context, limit int) ([]loan.Collection, error) {
	return r.queryCollections(ctx, r.db, "RecentCollections", selectRecentCollectionsSQL, limit)
}

func (r *LoanRepository) AllCollections(ctx context.Context) ([]loan.Collection, error) {
	return r.queryCollections(ctx, r.db, "AllCollections", selectAllCollectionsSQL)
}

func (r *LoanRepository) queryCollections(ctx context.Context, q querier, name, query string, args ...any) (cols []loan.Collection, err error) {
	startTime := time.Now()
	defer func() { monitoring.RecordDBQuery(name, queryStatus(err), time.Since(startTime)) }()

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query collections", "query", name, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	cols = make([]loan.Collection, 0)
	for rows.Next() {
		var c loan.Collection
		if err = rows.Scan(&c.ID, &c.LoanID, &c.CustomerID, &c.Amount, &c.Date, &c.CreatedAt); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan collection row", "query", name, "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		cols = append(cols, c)
	}
	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating collection rows", "query", name, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return cols, nil
}

func (r *LoanRepository) InsertCollectionInTx(ctx context.Context, tx pgx.Tx, c loan.Collection) error {
	_, err := tx.Exec(ctx, insertCollectionSQL, c.ID, c.LoanID, c.CustomerID, c.Amount, c.Date, c.CreatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert collection", "loan_id", c.LoanID, "error", err)
		return translateDBError(err, r.logger)
	}
	return nil
}

func (r *LoanRepository) UpdateInstallmentsInTx(ctx context.Context, tx pgx.Tx, loanID string, installments []loan.Installment) error {
	for _, inst := range installments {
		cmdTag, err := tx.Exec(ctx, updateInstallmentSQL, inst.PaidAmount, string(inst.Status), inst.PaidDate, loanID, inst.Number)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to update installment", "loan_id", loanID, "number", inst.Number, "error", err)
			return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		if cmdTag.RowsAffected() != 1 {
			r.logger.ErrorContext(ctx, "Installment update affected zero rows", "loan_id", loanID, "number", inst.Number)
			return fmt.Errorf("%w: installment %d update affected zero rows", apperrors.ErrDatabase, inst.Number)
		}
	}
	return nil
}

func (r *LoanRepository) UpdateLoanStatusInTx(ctx context.Context, tx pgx.Tx, loanID string, status loan.LoanStatus) error {
	cmdTag, err := tx.Exec(ctx, updateLoanStatusSQL, string(status), loanID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update loan status", "loan_id", loanID, "status", status, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() != 1 {
		r.logger.ErrorContext(ctx, "Loan status update affected zero rows", "loan_id", loanID, "status", status)
		return fmt.Errorf("%w: loan status update affected zero rows", apperrors.ErrDatabase)
	}
	r.logger.InfoContext(ctx, "Loan status updated in DB", "loan_id", loanID, "new_status", status)
	return nil
}

func scanLoan(row pgx.Row) (*loan.Loan, error) {
	var (
		l      loan.Loan
		plan   string
		status string
	)
	err := row.Scan(
		&l.ID, &l.CustomerID, &l.Principal, &l.InterestRate, &plan, &l.InstallmentCount,
		&l.TotalInterest, &l.DisbursedAmount, &l.TotalAmount, &l.InstallmentAmount,
		&l.DisbursementDate, &status, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Plan = loan.Plan(plan)
	l.Status = loan.LoanStatus(status)
	return &l, nil
}

func queryStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func translateDBError(err error, contextLogger *slog.Logger) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			contextLogger.Warn("Database unique constraint violation", "detail", pgErr.Detail, "constraint", pgErr.ConstraintName)
			return fmt.Errorf("%w: %s", apperrors.ErrAlreadyExists, pgErr.ConstraintName)
		}
		contextLogger.Error("PostgreSQL specific error", "code", pgErr.Code, "message", pgErr.Message, "detail", pgErr.Detail)
		return fmt.Errorf("%w: db error code %s", apperrors.ErrDatabase, pgErr.Code)
	}

	contextLogger.Error("Generic database error", "error", err)
	return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
}
