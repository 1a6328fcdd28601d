package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"loan-ledger/internal/api/handler/dto"
	"loan-ledger/internal/pkg/apperrors"
)

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// decodeOptionalJSON treats an empty body as an empty object.
func decodeOptionalJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	if err := decodeJSON(r, v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// decodeAndValidate decodes the body into req and runs its struct tag checks.
func decodeAndValidate(r *http.Request, req interface{}) error {
	if err := decodeJSON(r, req); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err)
	}
	return dto.Validate(req)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func respondError(w http.ResponseWriter, err error) {
	status, code, message := http.StatusInternalServerError, "INTERNAL", "An unexpected error occurred."
	detail := dto.ErrorDetail{}

	var validationError *apperrors.ValidationError
	var overpayment *apperrors.OverpaymentError
	var appErr *apperrors.AppError

	switch {
	case errors.As(err, &overpayment):
		status, code, message = http.StatusUnprocessableEntity, "OVERPAYMENT", overpayment.Error()
		detail.Max = overpayment.Max.StringFixed(2)
	case errors.As(err, &validationError):
		status, code, message = http.StatusBadRequest, "VALIDATION_ERROR", validationError.Message
		detail.Field = validationError.Field
	case errors.Is(err, apperrors.ErrNotFound):
		status, code, message = http.StatusNotFound, "NOT_FOUND", "Resource not found."
	case errors.Is(err, apperrors.ErrInvalidArgument), errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrInvalidPlan), errors.Is(err, apperrors.ErrNonPositiveAmount):
		status, code, message = http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, apperrors.ErrAlreadySettled):
		status, code, message = http.StatusConflict, "ALREADY_SETTLED", "Loan is already fully paid."
	case errors.Is(err, apperrors.ErrLoanActive):
		status, code, message = http.StatusConflict, "LOAN_ACTIVE", err.Error()
	case errors.Is(err, apperrors.ErrAlreadyExists), errors.Is(err, apperrors.ErrConflict):
		status, code, message = http.StatusConflict, "CONFLICT", err.Error()
	case errors.Is(err, apperrors.ErrUnauthorized):
		status, code, message = http.StatusUnauthorized, "UNAUTHORIZED", "Invalid credentials."
	case errors.Is(err, apperrors.ErrForbidden):
		status, code, message = http.StatusForbidden, "FORBIDDEN", "Forbidden."
	case errors.As(err, &appErr):
		slog.Default().Error("Application error", "error", err)
		message = appErr.Message
	default:
		slog.Default().Error("Unhandled internal error", "error", err)
	}

	detail.Code = code
	detail.Message = message
	respondJSON(w, status, dto.ErrorResponse{Error: detail})
}
