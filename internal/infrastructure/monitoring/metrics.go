package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	SimulationsTotal   *prometheus.CounterVec
	ScheduleCacheTotal *prometheus.CounterVec
	ExportsTotal       prometheus.Counter
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loandash_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		SimulationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loandash_simulations_total",
				Help: "Total number of schedule simulations, by outcome.",
			},
			[]string{"outcome"},
		),
		ScheduleCacheTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loandash_schedule_cache_total",
				Help: "Schedule cache lookups, by result.",
			},
			[]string{"result"},
		),
		ExportsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "loandash_schedule_exports_total",
				Help: "Total number of CSV schedule exports served.",
			},
		),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordSimulation(converged bool) {
	outcome := "converged"
	if !converged {
		outcome = "did_not_converge"
	}
	Business.SimulationsTotal.WithLabelValues(outcome).Inc()
}

func RecordScheduleCache(result string) {
	Business.ScheduleCacheTotal.WithLabelValues(result).Inc()
}

func RecordExport() {
	Business.ExportsTotal.Inc()
}
