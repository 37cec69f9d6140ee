package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for business-level observability.
type BusinessMetrics struct {
	// Cart
	CartsCreated  *prometheus.CounterVec
	CartItemsAdd  *prometheus.CounterVec
	CartsMerged   prometheus.Counter
	CartsScrubbed prometheus.Counter
	CartValue     prometheus.Histogram

	// Reservations
	ReservationsCreated  prometheus.Counter
	ReservationsExtended prometheus.Counter
	ReservationsReleased *prometheus.CounterVec
	ReservationConflicts *prometheus.CounterVec

	// Checkout funnel
	CheckoutsStarted   prometheus.Counter
	CheckoutsReused    prometheus.Counter
	CheckoutsCompleted prometheus.Counter
	CheckoutsExpired   prometheus.Counter
	CheckoutsCancelled prometheus.Counter

	// Orders
	OrdersCreated  prometheus.Counter
	OrderReplays   prometheus.Counter
	OrderValue     prometheus.Histogram
	OrderItemCount prometheus.Histogram

	// Payments
	PaymentVerifications *prometheus.CounterVec

	// Background jobs
	JobsProcessed *prometheus.CounterVec
	JobsFailed    *prometheus.CounterVec
	JobDuration   *prometheus.HistogramVec

	// Email delivery
	EmailSent   prometheus.Counter
	EmailFailed prometheus.Counter
}

// NewBusinessMetrics creates and registers all business metrics.
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "idunn"
	}
	subsystem := "business"

	counter := func(name, help string) prometheus.Counter {
		return promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
		})
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
		}, labels)
	}

	return &BusinessMetrics{
		CartsCreated: counterVec("carts_created_total",
			"Total carts created", "owner_type"),
		CartItemsAdd: counterVec("cart_items_added_total",
			"Total add to cart actions", "result"),
		CartsMerged:   counter("carts_merged_total", "Total guest carts merged into user carts"),
		CartsScrubbed: counter("carts_scrubbed_total", "Total carts with contact details scrubbed after order"),
		CartValue: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name:    "cart_value_cents",
			Help:    "Cart total at checkout initiation",
			Buckets: prometheus.ExponentialBuckets(500, 2.5, 8),
		}),

		ReservationsCreated:  counter("reservations_created_total", "Total inventory reservations created"),
		ReservationsExtended: counter("reservations_extended_total", "Total reservation extensions and renewals"),
		ReservationsReleased: counterVec("reservations_released_total",
			"Total reservations released", "reason"),
		ReservationConflicts: counterVec("reservation_conflicts_total",
			"Total oversold conflicts detected", "action"),

		CheckoutsStarted:   counter("checkouts_started_total", "Total checkouts initiated"),
		CheckoutsReused:    counter("checkouts_reused_total", "Total pending checkouts refreshed instead of created"),
		CheckoutsCompleted: counter("checkouts_completed_total", "Total successful checkouts"),
		CheckoutsExpired:   counter("checkouts_expired_total", "Total checkouts expired by the sweep"),
		CheckoutsCancelled: counter("checkouts_cancelled_total", "Total checkouts cancelled"),

		OrdersCreated: counter("orders_created_total", "Total orders created"),
		OrderReplays:  counter("order_replays_total", "Total idempotent order creation replays"),
		OrderValue: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name:    "order_value_cents",
			Help:    "Order total in cents",
			Buckets: prometheus.ExponentialBuckets(500, 2.5, 8),
		}),
		OrderItemCount: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name:    "order_item_count",
			Help:    "Distinct lines per order",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}),

		PaymentVerifications: counterVec("payment_verifications_total",
			"Total payment intent verifications", "status"),

		JobsProcessed: counterVec("jobs_processed_total",
			"Total background job runs", "job"),
		JobsFailed: counterVec("jobs_failed_total",
			"Total background job failures", "job"),
		JobDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name:    "job_duration_seconds",
			Help:    "Background job run time",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),

		EmailSent:   counter("email_sent_total", "Total emails sent"),
		EmailFailed: counter("email_failed_total", "Total email send failures"),
	}
}
