package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rent_http_requests_total",
			Help: "Total HTTP requests by method, route and status.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rent_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	PaymentsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rent_payments_created_total",
			Help: "Payments created by method.",
		},
		[]string{"method"},
	)

	PaymentTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rent_payment_transitions_total",
			Help: "Payment status transitions by target status.",
		},
		[]string{"status"},
	)

	ProcessorFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rent_payment_processor_failures_total",
			Help: "Failed create-intent calls to the payment processor.",
		},
	)

	ReadingsAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rent_meter_readings_appended_total",
			Help: "Meter readings stored by meter type.",
		},
		[]string{"meter_type"},
	)

	ReadingRegressions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rent_meter_reading_regressions_total",
			Help: "Readings lower than their predecessor.",
		},
		[]string{"meter_type"},
	)

	RemindersSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rent_reminders_sent_total",
			Help: "Rent reminders by channel and result.",
		},
		[]string{"channel", "result"},
	)
)
