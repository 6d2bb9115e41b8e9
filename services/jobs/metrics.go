package jobs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_runs_total",
			Help: "Background job runs partitioned by job and outcome",
		},
		[]string{"job", "outcome"},
	)

	jobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "job_duration_seconds",
			Help:    "Background job run time in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)

	callsUpsertedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calls_upserted_total",
		Help: "Call records written by the provider sync",
	})

	callsBroadcastTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calls_broadcast_total",
		Help: "Transcribed calls pushed to dashboard clients",
	})

	callsAnalyzedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calls_analyzed_total",
			Help: "Calls run through lead analysis partitioned by outcome",
		},
		[]string{"outcome"},
	)
)

// observe records one job run
func observe(job string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	jobRunsTotal.WithLabelValues(job, outcome).Inc()
	jobDuration.WithLabelValues(job).Observe(time.Since(start).Seconds())
}
