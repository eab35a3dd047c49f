package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkflowsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "travelease_workflows_opened_total",
		Help: "Booking workflows opened",
	})

	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "travelease_bookings_created_total",
		Help: "Bookings accepted by the remote booking service",
	})

	BookingsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "travelease_bookings_cancelled_total",
		Help: "Bookings cancelled by the user",
	})

	PaymentsInitiated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "travelease_payments_initiated_total",
		Help: "Payment initiations that produced a gateway payload",
	})

	RedirectsServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "travelease_redirects_served_total",
		Help: "Auto-submitting redirect pages served",
	})
)
