package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mw "loan-ledger/internal/api/middleware"
	"loan-ledger/internal/config"
	"loan-ledger/internal/domain/customer"
	"loan-ledger/internal/domain/loan"
	"loan-ledger/internal/domain/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const routerSecret = "router-secret"

type stubLoans struct {
	loan.LoanService
	deleted []string
}

func (s *stubLoans) DeleteLoan(_ context.Context, loanID string) error {
	s.deleted = append(s.deleted, loanID)
	return nil
}

type stubCustomers struct {
	customer.CustomerService
}

type stubReports struct {
	report.ReportService
}

type stubDB struct{}

func (stubDB) Ping(context.Context) error { return nil }

func newTestRouter(t *testing.T, loans *stubLoans) http.Handler {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{
			Auth: config.AuthConfig{Enabled: true, JWTSecret: routerSecret, TokenTTL: time.Hour},
		},
		Metrics: config.MetricsConfig{Path: "/metrics"},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return SetupRouter(Dependencies{
		Loans:     loans,
		Customers: stubCustomers{},
		Reports:   stubReports{},
		DB:        stubDB{},
	}, cfg, logger)
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	token, err := mw.IssueToken(routerSecret, "user-"+role, role, time.Hour, time.Now())
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouterPublicEndpoints(t *testing.T) {
	router := newTestRouter(t, &stubLoans{})

	for _, path := range []string{"/health", "/metrics"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouterRequiresToken(t *testing.T) {
	router := newTestRouter(t, &stubLoans{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/loans/L1", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterAdminOnlyRoutes(t *testing.T) {
	loans := &stubLoans{}
	router := newTestRouter(t, loans)

	tests := []struct {
		name   string
		method string
		path   string
		role   string
		want   int
	}{
		{name: "operator cannot delete loan", method: http.MethodDelete, path: "/loans/L1", role: mw.RoleOperator, want: http.StatusForbidden},
		{name: "operator cannot pre-close", method: http.MethodPost, path: "/loans/L1/preclose", role: mw.RoleOperator, want: http.StatusForbidden},
		{name: "operator cannot delete customer", method: http.MethodDelete, path: "/customers/C1", role: mw.RoleOperator, want: http.StatusForbidden},
		{name: "admin deletes loan", method: http.MethodDelete, path: "/loans/L1", role: mw.RoleAdmin, want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Authorization", bearer(t, tt.role))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}

	assert.Equal(t, []string{"L1"}, loans.deleted)
}
