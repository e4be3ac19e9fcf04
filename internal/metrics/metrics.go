package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_requests_latency_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Ledger
	TopUpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "top_ups_total",
			Help: "Top-up attempts by result",
		},
		[]string{"result"}, // success|failure
	)
	InvoiceTransfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoice_transfers_total",
			Help: "Processed invoices by outcome",
		},
		[]string{"outcome"}, // paid|declined|skipped|failed|duplicate
	)
	LockContention = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "account_lock_contention_total",
			Help: "Account lock acquisitions that found the account already locked",
		},
	)
	GatewayAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_attempts_total",
			Help: "Payment gateway transfer attempts by result",
		},
		[]string{"result"}, // ok|timeout|declined|error
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

// Handler serves /metrics.
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestLatency)
	prometheus.MustRegister(TopUpsTotal)
	prometheus.MustRegister(InvoiceTransfersTotal)
	prometheus.MustRegister(LockContention)
	prometheus.MustRegister(GatewayAttempts)
	prometheus.MustRegister(WorkerQueueDepth)
}
