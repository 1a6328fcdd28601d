package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loan-ledger/internal/api"
	"loan-ledger/internal/batch"
	"loan-ledger/internal/config"
	"loan-ledger/internal/domain/customer"
	"loan-ledger/internal/domain/loan"
	"loan-ledger/internal/domain/report"
	"loan-ledger/internal/event"
	"loan-ledger/internal/infrastructure/database/postgres"
	"loan-ledger/internal/infrastructure/logging"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

type services struct {
	loans     loan.LoanService
	customers customer.CustomerService
	reports   report.ReportService
}

// @title Loan Ledger API
// @version 1.0
// @description Microfinance loan origination, repayment schedules and collections.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, logger := initializeApp()

	dbPool := initializeDatabase(cfg, logger)
	defer closeDatabase(dbPool, logger)

	pub, rabbitConn := initializePublisher(cfg, logger)
	if rabbitConn != nil {
		defer closeRabbitMQ(rabbitConn, logger)
	}

	redisClient := initializeRedis(cfg.Redis, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	svc := initializeServices(dbPool, pub, cfg, logger)

	sweepJob := batch.NewOverdueSweepJob(svc.loans, cfg.Batch.Concurrency, logger)
	cronScheduler := startBatchJobs(cfg, logger, sweepJob)

	router := api.SetupRouter(api.Dependencies{
		Loans:     svc.loans,
		Customers: svc.customers,
		Reports:   svc.reports,
		DB:        dbPool,
		Redis:     redisClient,
	}, cfg, logger)

	metricsSrv := startMetricsServer(cfg, logger)
	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(srv, metricsSrv, cronScheduler, shutdownChan, serverErrors, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed())

	return cfg, logger
}

func initializeDatabase(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	logger.Info("Initializing database connection pool...")
	ctx := context.Background()
	dbPool, err := postgres.NewConnectionPool(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, dbPool, logger); err != nil {
			logger.Error("Failed to apply database migrations", "error", err)
			dbPool.Close()
			os.Exit(1)
		}
	}
	return dbPool
}

func closeDatabase(dbPool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("Closing database connection pool...")
	dbPool.Close()
}

// initializePublisher falls back to logging events when RabbitMQ is disabled or unreachable.
func initializePublisher(cfg *config.Config, logger *slog.Logger) (event.EventPublisher, *amqp.Connection) {
	if !cfg.RabbitMQ.Enabled {
		logger.Info("RabbitMQ disabled, domain events will only be logged.")
		return event.NewLogPublisher(logger), nil
	}

	conn, err := connectRabbitMQ(rabbitMQURI(cfg.RabbitMQ), logger)
	if err != nil {
		logger.Error("RabbitMQ unavailable, domain events will only be logged.", slog.Any("error", err))
		return event.NewLogPublisher(logger), nil
	}

	pub, err := event.NewRabbitMQEventPublisher(conn, cfg.RabbitMQ.ExchangeName, logger)
	if err != nil {
		logger.Error("Failed to create RabbitMQ publisher, domain events will only be logged.", slog.Any("error", err))
		closeRabbitMQ(conn, logger)
		return event.NewLogPublisher(logger), nil
	}
	return pub, conn
}

func rabbitMQURI(cfg config.RabbitMQConfig) string {
	host := cfg.Host
	if cfg.Port != 0 {
		host = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}
	if cfg.Username != "" {
		return fmt.Sprintf("amqp://%s:%s@%s/", cfg.Username, cfg.Password, host)
	}
	return fmt.Sprintf("amqp://%s/", host)
}

func connectRabbitMQ(uri string, logger *slog.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	retryCount := 5
	for i := 1; i <= retryCount; i++ {
		conn, err = amqp.Dial(uri)
		if err == nil {
			logger.Info("Successfully connected to RabbitMQ")

			go func() {
				blockChan := conn.NotifyBlocked(make(chan amqp.Blocking))
				closeChan := conn.NotifyClose(make(chan *amqp.Error))

				select {
				case b := <-blockChan:
					logger.Warn("RabbitMQ connection blocked", "reason", b.Reason)
				case e := <-closeChan:
					if e != nil {
						logger.Error("RabbitMQ connection closed", slog.Any("error", e))
					}
				}
			}()

			return conn, nil
		}
		logger.Warn("Failed to connect to RabbitMQ, retrying...",
			slog.Int("attempt", i),
			slog.Int("max_attempts", retryCount),
			slog.Any("error", err),
		)
		time.Sleep(time.Duration(i*2) * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", retryCount, err)
}

func closeRabbitMQ(conn *amqp.Connection, logger *slog.Logger) {
	logger.Info("Closing RabbitMQ connection...")
	if err := conn.Close(); err != nil {
		logger.Error("Error closing RabbitMQ connection", slog.Any("error", err))
	}
}

// initializeRedis returns nil when no address is configured; the rate limiter then keeps
// its counters in process.
func initializeRedis(cfg config.RedisConfig, logger *slog.Logger) *redis.Client {
	if cfg.Addr == "" {
		logger.Info("Redis not configured, rate limiting will be per instance.")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis ping failed, rate limiter will fail open until it recovers", "addr", cfg.Addr, slog.Any("error", err))
	} else {
		logger.Info("Connected to Redis", "addr", cfg.Addr)
	}
	return client
}

func initializeServices(dbPool *pgxpool.Pool, pub event.EventPublisher, cfg *config.Config, logger *slog.Logger) services {
	logger.Info("Initializing application components...")
	loc := cfg.Ledger.Location()

	loanRepo := postgres.NewLoanRepository(dbPool, logger)
	customerRepo := postgres.NewCustomerRepository(dbPool, logger)

	customerService := customer.NewCustomerService(customerRepo, pub, logger)
	loanService := loan.NewLoanService(loanRepo, customerService, pub, loc, logger)
	reportService := report.NewReportService(loanService, customerService, loc, logger)

	return services{
		loans:     loanService,
		customers: customerService,
		reports:   reportService,
	}
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on port %d", cfg.Server.Port))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors, shutdownChan
}

// startMetricsServer exposes /metrics on a dedicated port for scrapers that should not
// reach the API. It returns nil when the port is unset or equal to the API port.
func startMetricsServer(cfg *config.Config, logger *slog.Logger) *http.Server {
	if cfg.Metrics.Port == 0 || cfg.Metrics.Port == cfg.Server.Port {
		return nil
	}
	path := cfg.Metrics.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Metrics server listening", "port", cfg.Metrics.Port, "path", path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", slog.Any("error", err))
		}
	}()
	return srv
}

func handleShutdown(srv, metricsSrv *http.Server, cronScheduler *cron.Cron, shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	var triggerReason string
	select {
	case sig := <-shutdownChan:
		triggerReason = "signal: " + sig.String()
		logger.Info("Shutdown signal received.", "signal", sig.String())
	case err := <-serverErrors:
		if err != nil {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			os.Exit(1)
		}
		triggerReason = "server exited"
		logger.Info("Server goroutine finished before signal.")
	}

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	logger.Info("Stopping cron scheduler...")
	cronCtx := cronScheduler.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Metrics server shutdown failed", slog.Any("error", err))
		}
	}

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", "error", err)
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	select {
	case err := <-serverErrors:
		if err != nil {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}

	logger.Info("Application shutdown process complete.")
}

func startBatchJobs(cfg *config.Config, logger *slog.Logger, sweepJob *batch.OverdueSweepJob) *cron.Cron {
	logger.Info("Initializing batch job scheduler...")
	c := cron.New(cron.WithLocation(cfg.Ledger.Location()))

	scheduleSpec := cfg.Batch.OverdueSweepSchedule
	if scheduleSpec == "" {
		scheduleSpec = "0 1 * * *"
		logger.Warn("Overdue sweep schedule not configured, using default", "schedule", scheduleSpec)
	}
	jobTimeout := cfg.Batch.OverdueSweepTimeout
	if jobTimeout <= 0 {
		jobTimeout = 30 * time.Minute
	}

	jobID, err := c.AddJob(scheduleSpec, cron.FuncJob(func() {
		jobLogger := logger.With("job_name", "OverdueSweep")
		jobLogger.Info("Cron triggered: running overdue sweep.")

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		res, runErr := sweepJob.Run(ctx)
		if runErr != nil {
			jobLogger.Error("Overdue sweep finished with error", slog.Any("error", runErr))
			return
		}
		jobLogger.Info("Overdue sweep finished successfully.", "loans", res.Loans, "newly_overdue", res.NewlyOverdue)
	}))
	if err != nil {
		logger.Error("Failed to schedule overdue sweep", "schedule", scheduleSpec, slog.Any("error", err))
	} else {
		logger.Info("Scheduled overdue sweep", "schedule", scheduleSpec, "job_id", jobID)
	}

	c.Start()
	logger.Info("Cron scheduler started.")
	return c
}
