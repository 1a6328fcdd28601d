package dto

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"loan-ledger/internal/domain/loan"
	"loan-ledger/internal/pkg/apperrors"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	// Max is set on overpayment errors to the largest amount the loan still accepts.
	Max string `json:"max,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks struct tags and reports the first failing field as an apperrors validation error.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return validateAmounts(req)
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err)
	}
	fe := fieldErrs[0]
	return apperrors.NewValidationError(fe.Field(), describe(fe))
}

// amountsRequest is implemented by requests carrying money fields.
type amountsRequest interface {
	amounts() map[string]decimal.Decimal
}

func validateAmounts(req any) error {
	ar, ok := req.(amountsRequest)
	if !ok {
		return nil
	}
	fields := ar.amounts()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !loan.IsMoneyAmount(fields[name]) {
			return apperrors.NewValidationError(name, fmt.Sprintf("must have at most %d decimal places", loan.MoneyScale))
		}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// ParseDate returns the zero time for an empty string.
func ParseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(field, "must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

func formatDate(t time.Time) string {
	return t.Format(DateLayout)
}

type TokenRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
