package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"loan-ledger/internal/api/handler/dto"
	"loan-ledger/internal/domain/loan"
	"loan-ledger/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
)

const maxRecentCollections = 100

type LoanHandler struct {
	service loan.LoanService
	logger  *slog.Logger
}

func NewLoanHandler(s loan.LoanService, l *slog.Logger) *LoanHandler {
	if s == nil {
		panic("loan service cannot be nil")
	}
	return &LoanHandler{
		service: s,
		logger:  l.With("component", "LoanHandler"),
	}
}

func getLoanIDFromURL(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "loanID"))
	if id == "" {
		return "", fmt.Errorf("%w: loanID not found in URL path", apperrors.ErrInvalidArgument)
	}
	return id, nil
}

// PreviewLoan handles POST /loans/preview
//
// @Summary Preview loan terms
// @Description Computes interest, disbursed amount and installment size for a principal and plan without creating a loan.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.PreviewLoanRequest true "Principal, plan (daily, weekly, monthly) and optional weekly term"
// @Success 200 {object} dto.TermsResponse "Computed terms"
// @Failure 400 {object} dto.ErrorResponse "Invalid principal or plan"
// @Router /loans/preview [post]
// @Security BearerAuth
func (h *LoanHandler) PreviewLoan(w http.ResponseWriter, r *http.Request) {
	var req dto.PreviewLoanRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}
	plan, err := loan.ParsePlan(req.Plan)
	if err != nil {
		respondError(w, err)
		return
	}

	terms, err := h.service.PreviewTerms(r.Context(), req.Principal, plan, req.Term)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewTermsResponse(terms))
}

// CreateLoan handles POST /loans
//
// @Summary Originate a loan
// @Description Creates a loan and its repayment schedule for an existing customer. Only one active loan is allowed per ID proof.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.CreateLoanRequest true "Loan creation request payload"
// @Success 201 {object} dto.LoanResponse "Loan successfully created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or validation error"
// @Failure 409 {object} dto.ErrorResponse "Customer already has an active loan"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [post]
// @Security BearerAuth
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLoanRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Invalid create loan request", slog.Any("error", err))
		respondError(w, err)
		return
	}
	plan, err := loan.ParsePlan(req.Plan)
	if err != nil {
		respondError(w, err)
		return
	}
	disbursed, err := dto.ParseDate("disbursementDate", req.DisbursementDate)
	if err != nil {
		respondError(w, err)
		return
	}

	created, err := h.service.CreateLoan(r.Context(), loan.CreateLoanRequest{
		CustomerID:       req.CustomerID,
		Principal:        req.Principal,
		Plan:             plan,
		Term:             req.Term,
		DisbursementDate: disbursed,
	})
	if err != nil {
		h.logger.Log(r.Context(), lookupLevel(err), "Service failed to create loan", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewLoanResponse(created, true))
}

// ListLoans handles GET /loans
//
// @Summary List loans
// @Tags Loans
// @Produce json
// @Param status query string false "Filter by status (active, closed)"
// @Param search query string false "Customer name, phone or loan ID fragment"
// @Success 200 {object} dto.LoanListResponse "Loans"
// @Failure 400 {object} dto.ErrorResponse "Unknown status"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [get]
// @Security BearerAuth
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := loan.LoanStatus(strings.ToLower(strings.TrimSpace(q.Get("status"))))
	switch status {
	case "", loan.StatusActive, loan.StatusClosed:
	default:
		respondError(w, apperrors.NewValidationError("status", "must be one of: active closed"))
		return
	}

	loans, err := h.service.ListLoans(r.Context(), loan.ListFilter{Status: status, Search: strings.TrimSpace(q.Get("search"))})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanListResponse(loans))
}

// GetLoan handles GET /loans/{loanID}
//
// @Summary Retrieve loan details
// @Description Returns the loan with installment statuses refreshed against today. Add include=schedule for the installment list.
// @Tags Loans
// @Produce json
// @Param loanID path string true "Loan ID"
// @Param include query string false "Use 'schedule' to include installments"
// @Success 200 {object} dto.LoanResponse "Loan details successfully retrieved"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID} [get]
// @Security BearerAuth
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	l, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	includeSchedule := r.URL.Query().Get("include") == "schedule"
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(l, includeSchedule))
}

// GetOutstanding handles GET /loans/{loanID}/outstanding
//
// @Summary Retrieve outstanding balance
// @Description Returns collected and outstanding amounts, the next due installment and the suggested collection amount.
// @Tags Loans
// @Produce json
// @Param loanID path string true "Loan ID"
// @Success 200 {object} dto.OutstandingResponse "Outstanding balance"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/outstanding [get]
// @Security BearerAuth
func (h *LoanHandler) GetOutstanding(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	balance, err := h.service.GetOutstanding(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}
	suggested, err := h.service.SuggestedCollection(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewOutstandingResponse(balance, suggested))
}

// ListCollections handles GET /loans/{loanID}/collections
//
// @Summary List collections of a loan
// @Tags Collections
// @Produce json
// @Param loanID path string true "Loan ID"
// @Success 200 {array} dto.CollectionResponse "Collections, oldest first"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/collections [get]
// @Security BearerAuth
func (h *LoanHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	collections, err := h.service.ListCollections(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewCollectionListResponse(collections))
}

// RecordCollection handles POST /loans/{loanID}/collections
//
// @Summary Record a collection
// @Description Applies a payment to the oldest open installments first. Amounts above the outstanding balance are rejected with the maximum allowed amount.
// @Tags Collections
// @Accept json
// @Produce json
// @Param loanID path string true "Loan ID"
// @Param request body dto.RecordCollectionRequest true "Amount and optional date (defaults to today)"
// @Success 201 {object} dto.ReceiptResponse "Collection recorded"
// @Failure 400 {object} dto.ErrorResponse "Invalid amount or date"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 422 {object} dto.ErrorResponse "Amount exceeds outstanding balance"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/collections [post]
// @Security BearerAuth
func (h *LoanHandler) RecordCollection(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.RecordCollectionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}
	date, err := dto.ParseDate("date", req.Date)
	if err != nil {
		respondError(w, err)
		return
	}

	receipt, err := h.service.RecordCollection(r.Context(), loanID, req.Amount, date)
	if err != nil {
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Collection recorded", slog.String("loanID", loanID), slog.String("collectionID", receipt.Collection.ID))
	respondJSON(w, http.StatusCreated, dto.NewReceiptResponse(receipt))
}

// PreCloseLoan handles POST /loans/{loanID}/preclose
//
// @Summary Pre-close a loan
// @Description Settles the whole outstanding balance in one collection and closes the loan. Requires the admin role.
// @Tags Loans
// @Accept json
// @Produce json
// @Param loanID path string true "Loan ID"
// @Param request body dto.PreCloseRequest false "Optional settlement date (defaults to today)"
// @Success 200 {object} dto.ReceiptResponse "Loan pre-closed"
// @Failure 403 {object} dto.ErrorResponse "Admin role required"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 409 {object} dto.ErrorResponse "Loan is already fully paid"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/preclose [post]
// @Security BearerAuth
func (h *LoanHandler) PreCloseLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.PreCloseRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := dto.Validate(&req); err != nil {
		respondError(w, err)
		return
	}
	date, err := dto.ParseDate("date", req.Date)
	if err != nil {
		respondError(w, err)
		return
	}

	receipt, err := h.service.PreCloseLoan(r.Context(), loanID, date)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewReceiptResponse(receipt))
}

// DeleteLoan handles DELETE /loans/{loanID}
//
// @Summary Delete a closed loan
// @Description Removes a closed loan with its schedule and collections. Requires the admin role.
// @Tags Loans
// @Param loanID path string true "Loan ID"
// @Success 204 "Loan deleted"
// @Failure 403 {object} dto.ErrorResponse "Admin role required"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 409 {object} dto.ErrorResponse "Loan is still active"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID} [delete]
// @Security BearerAuth
func (h *LoanHandler) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.DeleteLoan(r.Context(), loanID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// RecentCollections handles GET /collections/recent
//
// @Summary Latest collections across all loans
// @Tags Collections
// @Produce json
// @Param limit query int false "Number of collections (default 10, max 100)"
// @Success 200 {array} dto.CollectionResponse "Most recent collections first"
// @Failure 400 {object} dto.ErrorResponse "Invalid limit"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /collections/recent [get]
// @Security BearerAuth
func (h *LoanHandler) RecentCollections(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRecentCollections {
			respondError(w, apperrors.NewValidationError("limit", fmt.Sprintf("must be between 1 and %d", maxRecentCollections)))
			return
		}
		limit = n
	}

	collections, err := h.service.RecentCollections(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewCollectionListResponse(collections))
}
