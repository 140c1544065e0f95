package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/njchilds90/antideriv"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "antideriv_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"route", "code"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "antideriv_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{"route"})

	stageLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "antideriv_stage_duration_seconds",
		Help:    "Reconstruction stage latency by stage and status",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
	}, []string{"stage", "status"})

	solveOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "antideriv_solve_outcomes_total",
		Help: "Constraint solve outcomes",
	}, []string{"outcome"})
)

// promObserver feeds engine stage timings into Prometheus.
type promObserver struct{}

func (promObserver) ObserveStage(stage string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	stageLatency.WithLabelValues(stage, status).Observe(d.Seconds())
}

func (promObserver) ObserveOutcome(o antideriv.Outcome) {
	solveOutcomes.WithLabelValues(o.String()).Inc()
}
