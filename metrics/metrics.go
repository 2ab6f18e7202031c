package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	CheckoutsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkouts_started_total",
			Help: "Number of orders created at checkout",
		},
	)

	PaymentsReconciled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_reconciled_total",
			Help: "Payments driven to a terminal state, by status",
		},
		[]string{"status"},
	)

	EnrollmentsActivated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "enrollments_activated_total",
			Help: "Enrollment rows created after payment confirmation",
		},
	)

	EnrollmentActivationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "enrollment_activation_failures_total",
			Help: "Confirmed payments whose enrollment insert kept failing",
		},
	)

	CheckoutProcessingTime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "checkout_processing_time_seconds",
			Help: "Time taken to create the order/payment pair",
		},
	)
)

func Register() {
	prometheus.MustRegister(
		CheckoutsStarted,
		PaymentsReconciled,
		EnrollmentsActivated,
		EnrollmentActivationFailures,
		CheckoutProcessingTime,
	)
}
