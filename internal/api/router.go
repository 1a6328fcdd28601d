package api

import (
	"log/slog"
	"net/http"
	"time"

	"loan-ledger/internal/api/handler"
	mw "loan-ledger/internal/api/middleware"
	"loan-ledger/internal/config"
	"loan-ledger/internal/domain/customer"
	"loan-ledger/internal/domain/loan"
	"loan-ledger/internal/domain/report"

	_ "loan-ledger/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Dependencies are the services and clients the HTTP layer is built on. Redis is optional.
type Dependencies struct {
	Loans     loan.LoanService
	Customers customer.CustomerService
	Reports   report.ReportService
	DB        handler.Pinger
	Redis     *redis.Client
}

func SetupRouter(deps Dependencies, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, deps.Redis, cfg, logger)
	setupMetricsEndpoint(router, cfg, logger)
	setupSwaggerEndpoint(router, logger)

	router.Get("/health", handler.NewHealthHandler(deps.DB, logger).Health)

	authHandler := handler.NewAuthHandler(cfg.Server.Auth, logger)
	router.Post("/auth/token", authHandler.GenerateBearerToken)

	router.Group(func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		setupCustomerRoutes(r, deps.Customers, logger)
		setupLoanRoutes(r, deps.Loans, logger)
		r.Get("/reports/dashboard", handler.NewReportHandler(deps.Reports, logger).Dashboard)
	})

	return router
}

func setupMiddleware(router *chi.Mux, redisClient *redis.Client, cfg *config.Config, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, redisClient, logger).Middleware)
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

func setupCustomerRoutes(r chi.Router, svc customer.CustomerService, logger *slog.Logger) {
	h := handler.NewCustomerHandler(svc, logger)
	adminOnly := mw.RequireRole(mw.RoleAdmin, logger)

	r.Route("/customers", func(r chi.Router) {
		r.Post("/", h.CreateCustomer)
		r.Get("/", h.ListCustomers)
		r.Route("/{customerID}", func(r chi.Router) {
			r.Get("/", h.GetCustomer)
			r.With(adminOnly).Delete("/", h.DeleteCustomer)
		})
	})
}

func setupLoanRoutes(r chi.Router, svc loan.LoanService, logger *slog.Logger) {
	h := handler.NewLoanHandler(svc, logger)
	adminOnly := mw.RequireRole(mw.RoleAdmin, logger)

	r.Route("/loans", func(r chi.Router) {
		r.Post("/preview", h.PreviewLoan)
		r.Post("/", h.CreateLoan)
		r.Get("/", h.ListLoans)
		r.Route("/{loanID}", func(r chi.Router) {
			r.Get("/", h.GetLoan)
			r.Get("/outstanding", h.GetOutstanding)
			r.Get("/collections", h.ListCollections)
			r.Post("/collections", h.RecordCollection)
			r.With(adminOnly).Post("/preclose", h.PreCloseLoan)
			r.With(adminOnly).Delete("/", h.DeleteLoan)
		})
	})

	r.Get("/collections/recent", h.RecentCollections)
}
