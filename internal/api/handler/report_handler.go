package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"loan-ledger/internal/api/handler/dto"
	"loan-ledger/internal/domain/report"
)

type ReportHandler struct {
	service report.ReportService
	logger  *slog.Logger
}

func NewReportHandler(s report.ReportService, l *slog.Logger) *ReportHandler {
	return &ReportHandler{service: s, logger: l.With("component", "ReportHandler")}
}

// Dashboard handles GET /reports/dashboard
//
// @Summary Portfolio dashboard
// @Description Customer and loan counts, disbursed, outstanding and collected totals, plus daily, weekly and monthly activity.
// @Tags Reports
// @Produce json
// @Success 200 {object} dto.DashboardResponse "Portfolio summary"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /reports/dashboard [get]
// @Security BearerAuth
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to build dashboard", slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewDashboardResponse(summary))
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	timeout time.Duration
	logger  *slog.Logger
}

func NewHealthHandler(db Pinger, l *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, timeout: 2 * time.Second, logger: l.With("component", "HealthHandler")}
}

// Health handles GET /health
//
// @Summary Liveness and database check
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse "Service and database are up"
// @Failure 503 {object} dto.HealthResponse "Database unreachable"
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.WarnContext(r.Context(), "Database ping failed", slog.Any("error", err))
		respondJSON(w, http.StatusServiceUnavailable, dto.HealthResponse{Status: "degraded", Database: "down"})
		return
	}
	respondJSON(w, http.StatusOK, dto.HealthResponse{Status: "ok", Database: "up"})
}
