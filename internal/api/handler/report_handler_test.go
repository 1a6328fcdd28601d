package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"loan-ledger/internal/api/handler/dto"
	"loan-ledger/internal/domain/report"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Dashboard(ctx context.Context) (report.Summary, error) {
	args := m.Called(ctx)
	return args.Get(0).(report.Summary), args.Error(1)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestReportHandlerDashboard(t *testing.T) {
	t.Run("renders summary", func(t *testing.T) {
		svc := new(MockReportService)
		svc.On("Dashboard", mock.Anything).Return(report.Summary{
			TotalCustomers:    3,
			ActiveLoans:       2,
			ClosedLoans:       1,
			OverdueLoans:      1,
			TotalDisbursed:    decimal.NewFromInt(9280),
			OutstandingAmount: decimal.NewFromInt(7900),
			TotalCollected:    decimal.NewFromInt(3100),
			Daily:             report.Period{Disbursed: decimal.Zero, Collected: decimal.NewFromInt(250)},
			Weekly:            report.Period{Disbursed: decimal.NewFromInt(5600), Collected: decimal.NewFromInt(600)},
			Monthly:           report.Period{Disbursed: decimal.NewFromInt(9280), Collected: decimal.NewFromInt(3100)},
			GeneratedOn:       time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		}, nil).Once()
		h := NewReportHandler(svc, logger)

		w := httptest.NewRecorder()
		h.Dashboard(w, httptest.NewRequest(http.MethodGet, "/reports/dashboard", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.DashboardResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, 3, resp.TotalCustomers)
		assert.Equal(t, "9280.00", resp.TotalDisbursed)
		assert.Equal(t, "7900.00", resp.OutstandingAmount)
		assert.Equal(t, "250.00", resp.Daily.Collected)
		assert.Equal(t, "5600.00", resp.Weekly.Disbursed)
		assert.Equal(t, "2024-02-01", resp.GeneratedOn)
		svc.AssertExpectations(t)
	})

	t.Run("service failure", func(t *testing.T) {
		svc := new(MockReportService)
		svc.On("Dashboard", mock.Anything).Return(report.Summary{}, errors.New("boom")).Once()
		h := NewReportHandler(svc, logger)

		w := httptest.NewRecorder()
		h.Dashboard(w, httptest.NewRequest(http.MethodGet, "/reports/dashboard", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHealthHandler(t *testing.T) {
	t.Run("database up", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewHealthHandler(stubPinger{}, logger).Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok","database":"up"}`, w.Body.String())
	})

	t.Run("database down", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewHealthHandler(stubPinger{err: errors.New("refused")}, logger).Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
