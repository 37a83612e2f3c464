package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coworking",
			Name:      "booking_total",
			Help:      "Count of booking attempts by outcome.",
		},
		[]string{"outcome"},
	)

	bookingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "coworking",
			Name:      "booking_duration_seconds",
			Help:      "Time spent evaluating a booking request.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	suggestionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coworking",
			Name:      "suggestion_total",
			Help:      "Count of alternative searches by kind and result.",
		},
		[]string{"kind", "found"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coworking",
			Name:      "http_requests_total",
			Help:      "Count of API requests by handler.",
		},
		[]string{"handler"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingTotal, bookingDuration, suggestionTotal, httpRequests)
	})
}

func IncBooking(outcome string) {
	bookingTotal.WithLabelValues(outcome).Inc()
}

func ObserveBookingDuration(d time.Duration) {
	bookingDuration.Observe(d.Seconds())
}

func IncSuggestion(kind string, found bool) {
	suggestionTotal.WithLabelValues(kind, strconv.FormatBool(found)).Inc()
}

func IncHTTP(handler string) {
	httpRequests.WithLabelValues(handler).Inc()
}
