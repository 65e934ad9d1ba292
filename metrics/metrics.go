// Package metrics provides Prometheus metrics for the vademecum API.
// HTTP metrics:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//   - rate_limiter_buckets_total: Gauge of tracked client buckets
//
// Dataset metrics:
//   - vademecum_dataset_compounds, vademecum_dataset_brands: snapshot sizes
//   - vademecum_dataset_loads_total: Counter with a result label (success, failure)
//   - vademecum_search_results: Histogram with a scope label
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	LoadSuccess = "success"
	LoadFailure = "failure"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen in last ~5 minutes)",
		},
	)

	DatasetCompounds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vademecum_dataset_compounds",
			Help: "Compounds in the current dataset snapshot",
		},
	)

	DatasetBrands = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vademecum_dataset_brands",
			Help: "Brands in the current dataset snapshot",
		},
	)

	DatasetLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vademecum_dataset_loads_total",
			Help: "Dataset fetches by result",
		},
		[]string{"result"},
	)

	SearchResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vademecum_search_results",
			Help:    "Number of records returned per search",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"scope"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(DatasetCompounds)
	prometheus.MustRegister(DatasetBrands)
	prometheus.MustRegister(DatasetLoadsTotal)
	prometheus.MustRegister(SearchResults)
}

// RecordDatasetLoad updates the dataset gauges after a fetch. Sizes are only
// touched on success so a failed reload keeps reporting the live snapshot.
func RecordDatasetLoad(compounds, brands int, err error) {
	if err != nil {
		DatasetLoadsTotal.WithLabelValues(LoadFailure).Inc()
		return
	}
	DatasetLoadsTotal.WithLabelValues(LoadSuccess).Inc()
	DatasetCompounds.Set(float64(compounds))
	DatasetBrands.Set(float64(brands))
}
