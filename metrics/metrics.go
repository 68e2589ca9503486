package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// RequestsTotal counts label requests by front end and outcome kind.
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "plantapp",
		Subsystem: "labels",
		Name:      "requests_total",
		Help:      "Total number of label requests, labeled by source and result (ok, service, transport).",
	}, []string{"source", "result"})

	// RequestDurationSeconds is the time spent waiting on the vision service per request.
	RequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "plantapp",
		Subsystem: "labels",
		Name:      "request_duration_seconds",
		Help:      "Time to obtain labels for one image, including client setup.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"result"})

	// InFlight is the current number of label requests waiting on the vision service.
	InFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "plantapp",
		Subsystem: "labels",
		Name:      "in_flight",
		Help:      "Current number of label requests in flight.",
	})

	// LabelsReturned observes how many labels successful requests carry.
	LabelsReturned = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "plantapp",
		Subsystem: "labels",
		Name:      "labels_per_image",
		Help:      "Number of labels returned per successfully labeled image.",
		Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
	})

	// EventPublishErrorTotal counts label events that could not be published.
	EventPublishErrorTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "plantapp",
		Subsystem: "events",
		Name:      "publish_error_total",
		Help:      "Total number of label events that failed to publish.",
	})
)

// Register registers label metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			RequestDurationSeconds,
			InFlight,
			LabelsReturned,
			EventPublishErrorTotal,
		)
	})
}
