// Package metrics provides Prometheus metrics collection for the review dashboard.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration tracks HTTP request duration by method, path, and status code.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)

	// HTTPRequestTotal tracks total HTTP requests by method, path, and status code.
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	// CacheOperationsTotal tracks cache operations.
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Total number of cache operations",
		},
		[]string{"operation", "result"},
	)

	// UpstreamRequestsTotal tracks calls to the external APIs by API name,
	// endpoint and response status code.
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of upstream API requests",
		},
		[]string{"api", "endpoint", "status"},
	)

	// UpstreamRetriesTotal tracks retry attempts against the external APIs.
	UpstreamRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_retries_total",
			Help: "Total number of upstream API retries",
		},
		[]string{"api", "endpoint"},
	)

	// UpstreamRequestDuration tracks upstream API request duration.
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Upstream API request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"api", "endpoint"},
	)

	// HygieneClassificationsTotal tracks classifier runs per category.
	HygieneClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hygiene_classifications_total",
			Help: "Total number of hygiene classifications",
		},
		[]string{"category"},
	)
)

// PrometheusMiddleware returns a Gin middleware that collects HTTP metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		duration := time.Since(start).Seconds()
		statusCode := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method

		HTTPRequestDuration.WithLabelValues(method, path, statusCode).Observe(duration)
		HTTPRequestTotal.WithLabelValues(method, path, statusCode).Inc()
	}
}

// RecordCacheOperation records metrics for a cache operation.
func RecordCacheOperation(operation, result string) {
	CacheOperationsTotal.WithLabelValues(operation, result).Inc()
}

// RecordUpstreamRequest records one upstream API call.
func RecordUpstreamRequest(api, endpoint string, statusCode int, duration time.Duration) {
	UpstreamRequestsTotal.WithLabelValues(api, endpoint, strconv.Itoa(statusCode)).Inc()
	UpstreamRequestDuration.WithLabelValues(api, endpoint).Observe(duration.Seconds())
}

// RecordUpstreamRetry records one retry attempt against an upstream API.
func RecordUpstreamRetry(api, endpoint string) {
	UpstreamRetriesTotal.WithLabelValues(api, endpoint).Inc()
}

// RecordHygieneClassification records one classifier run for a category.
func RecordHygieneClassification(category string) {
	HygieneClassificationsTotal.WithLabelValues(category).Inc()
}
