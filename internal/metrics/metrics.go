// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ActiveRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Number of in-flight HTTP requests",
		},
	)

	PostUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "post_uploads_total",
			Help: "Post uploads by outcome and file type",
		},
		[]string{"result", "file_type"},
	)

	PostUploadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "post_upload_duration_seconds",
			Help:    "Time spent staging, storing and persisting an upload",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	PostDeletes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "post_deletes_total",
			Help: "Post deletion attempts by outcome",
		},
		[]string{"result"},
	)
)

// Register adds every collector to reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ActiveRequests,
		PostUploads,
		PostUploadDuration,
		PostDeletes,
	)
}
