package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("resource not found")

	ErrInvalidArgument = errors.New("invalid argument")

	ErrValidation = errors.New("validation failed")

	ErrAlreadyExists = errors.New("resource already exists")

	ErrDatabase = errors.New("database error")

	ErrInternalServer = errors.New("internal server error")

	ErrUnauthorized = errors.New("unauthorized")

	ErrForbidden = errors.New("forbidden")

	ErrConflict = errors.New("resource conflict")

	ErrInvalidPlan = errors.New("invalid repayment plan")

	ErrNonPositiveAmount = errors.New("amount must be greater than zero")

	ErrOverpayment = errors.New("amount exceeds outstanding balance")

	// ErrAlreadySettled is informational: the loan has nothing left to settle.
	ErrAlreadySettled = errors.New("loan is already fully paid")

	ErrLoanActive = errors.New("loan is still active")
)

type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

func NewValidationError(field, message string) error {

	return fmt.Errorf("%w: %w", ErrValidation, &ValidationError{Field: field, Message: message})
}

// OverpaymentError carries the largest amount the loan can still accept.
type OverpaymentError struct {
	Requested decimal.Decimal
	Max       decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("%s: requested %s, maximum allowed %s", ErrOverpayment, e.Requested.StringFixed(2), e.Max.StringFixed(2))
}

func (e *OverpaymentError) Unwrap() error {
	return ErrOverpayment
}

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func WrapDatabaseError(cause error, message string) error {
	return &AppError{
		Code:    "DB_ERROR",
		Message: message,
		Cause:   fmt.Errorf("%w: %w", ErrDatabase, cause),
	}
}
