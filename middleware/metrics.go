package middleware

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for constructions served over HTTP.
type Metrics struct {
	constructions *prometheus.CounterVec   // By type and outcome
	duration      *prometheus.HistogramVec // By type
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		constructions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "artisan",
			Name:      "constructions_total",
			Help:      "Total number of constructions by outcome",
		}, []string{"type", "outcome"}), // outcome: ok, decode_error, invalid, error
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "artisan",
			Name:      "construction_duration_seconds",
			Help:      "Construction duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"type"}),
	}
}

// Observe records one construction. A nil receiver records nothing.
func (m *Metrics) Observe(typeName string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.constructions.WithLabelValues(typeName, Outcome(err)).Inc()
	m.duration.WithLabelValues(typeName).Observe(d.Seconds())
}

// Outcome classifies a construction result for the outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case StatusFor(err) == http.StatusBadRequest:
		return "decode_error"
	case StatusFor(err) == http.StatusUnprocessableEntity:
		return "invalid"
	}
	return "error"
}
