package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Run metrics
	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optimizer_generations_total",
			Help: "Total number of generations evolved",
		},
		[]string{"symbol"},
	)

	evaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optimizer_evaluations_total",
			Help: "Total number of fitness evaluations, by cache outcome",
		},
		[]string{"symbol", "outcome"},
	)

	// Convergence metrics
	bestEquityRatio = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "optimizer_best_equity_ratio",
			Help: "Best final-equity ratio found so far",
		},
		[]string{"symbol"},
	)

	avgEquityRatio = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "optimizer_avg_equity_ratio",
			Help: "Average final-equity ratio across the current Pareto front",
		},
		[]string{"symbol"},
	)

	paretoFrontSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "optimizer_pareto_front_size",
			Help: "Size of the current Pareto front",
		},
		[]string{"symbol"},
	)

	generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "optimizer_generation_duration_seconds",
			Help:    "Distribution of per-generation wall time",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"symbol"},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optimizer_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type"},
	)
)

func init() {
	// Register metrics
	prometheus.MustRegister(generationsTotal)
	prometheus.MustRegister(evaluationsTotal)
	prometheus.MustRegister(bestEquityRatio)
	prometheus.MustRegister(avgEquityRatio)
	prometheus.MustRegister(paretoFrontSize)
	prometheus.MustRegister(generationDuration)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordGeneration records a completed generation
func RecordGeneration(symbol string, seconds float64) {
	generationsTotal.WithLabelValues(symbol).Inc()
	generationDuration.WithLabelValues(symbol).Observe(seconds)
}

// RecordEvaluations records fitness evaluation counts by cache outcome
func RecordEvaluations(symbol string, hits, misses uint64) {
	evaluationsTotal.WithLabelValues(symbol, "cache_hit").Add(float64(hits))
	evaluationsTotal.WithLabelValues(symbol, "cache_miss").Add(float64(misses))
}

// UpdateBestEquityRatio updates the best equity-ratio gauge
func UpdateBestEquityRatio(symbol string, ratio float64) {
	bestEquityRatio.WithLabelValues(symbol).Set(ratio)
}

// UpdateAvgEquityRatio updates the front-average equity-ratio gauge
func UpdateAvgEquityRatio(symbol string, ratio float64) {
	avgEquityRatio.WithLabelValues(symbol).Set(ratio)
}

// UpdateParetoFrontSize updates the Pareto front size gauge
func UpdateParetoFrontSize(symbol string, size int) {
	paretoFrontSize.WithLabelValues(symbol).Set(float64(size))
}

// RecordError records an error metric
func RecordError(errorType string) {
	errorsTotal.WithLabelValues(errorType).Inc()
}
