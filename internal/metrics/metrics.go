package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestCounter counts HTTP requests by status code, method, and path
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castellan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"status", "method", "path"},
	)

	// RequestDuration measures HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "castellan_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status", "method", "path"},
	)

	// AttemptsRecorded counts puzzle attempts by outcome
	AttemptsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castellan_puzzle_attempts_total",
			Help: "Total number of puzzle attempts recorded",
		},
		[]string{"completed"},
	)

	// CalibrationsRun counts calibration passes by outcome (applied, noop, gated, stale)
	CalibrationsRun = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castellan_calibrations_total",
			Help: "Total number of puzzle difficulty calibration passes",
		},
		[]string{"outcome"},
	)

	// RatingDelta observes the applied rating change of each calibration
	RatingDelta = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "castellan_calibration_rating_delta",
			Help:    "Applied rating change per calibration",
			Buckets: []float64{-500, -200, -100, -50, 0, 50, 100, 200, 500, 1000},
		},
	)
)
