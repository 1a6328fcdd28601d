package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type LedgerMetrics struct {
	CollectionsTotal    *prometheus.CounterVec
	CollectedAmount     prometheus.Counter
	PreClosuresTotal    *prometheus.CounterVec
	LoansCreatedTotal   prometheus.Counter
	OverdueInstallments prometheus.Gauge
	SweepDuration       *prometheus.HistogramVec
}

var (
	HTTP = HTTPMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loan_ledger_http_requests_total",
				Help: "Total number of HTTP requests received.",
			},
			[]string{"method", "path", "code"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loan_ledger_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "code"},
		),
	}

	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loan_ledger_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Ledger = LedgerMetrics{
		CollectionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loan_ledger_collections_total",
				Help: "Collections attempted, partitioned by outcome.",
			},
			[]string{"outcome"},
		),
		CollectedAmount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "loan_ledger_collected_amount_total",
				Help: "Sum of all successfully recorded collections.",
			},
		),
		PreClosuresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loan_ledger_preclosures_total",
				Help: "Pre-closure attempts, partitioned by outcome.",
			},
			[]string{"outcome"},
		),
		LoansCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "loan_ledger_loans_created_total",
				Help: "Total number of loans originated.",
			},
		),
		OverdueInstallments: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "loan_ledger_overdue_installments",
				Help: "Overdue installments across active loans as of the last sweep.",
			},
		),
		SweepDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loan_ledger_overdue_sweep_duration_seconds",
				Help:    "Duration of overdue sweep runs.",
				Buckets: []float64{.1, .5, 1, 5, 15, 60, 300},
			},
			[]string{"status"},
		),
	}
)

func RecordHTTPRequest(method, path, code string, duration time.Duration) {
	HTTP.RequestsTotal.WithLabelValues(method, path, code).Inc()
	HTTP.RequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

// RecordCollection counts the attempt. amount is only added for successful collections.
func RecordCollection(outcome string, amount float64) {
	Ledger.CollectionsTotal.WithLabelValues(outcome).Inc()
	if outcome == "success" && amount > 0 {
		Ledger.CollectedAmount.Add(amount)
	}
}

func RecordPreClosure(outcome string) {
	Ledger.PreClosuresTotal.WithLabelValues(outcome).Inc()
}

func RecordLoanCreated() {
	Ledger.LoansCreatedTotal.Inc()
}

func SetOverdueInstallments(n int) {
	Ledger.OverdueInstallments.Set(float64(n))
}

func RecordSweep(status string, duration time.Duration) {
	Ledger.SweepDuration.WithLabelValues(status).Observe(duration.Seconds())
}
