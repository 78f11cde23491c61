package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OperationsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "operations_ingested_total",
		Help: "Total number of investment operations ingested",
	}, []string{"source", "status"})

	OperationsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "operations_deleted_total",
		Help: "Total number of investment operations deleted",
	})

	ImportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "operations_import_duration_seconds",
		Help:    "Duration of operation file imports",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	DarfCalculations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "darf_calculations_total",
		Help: "Total number of DARF group calculations",
	}, []string{"asset_type", "trade_category", "exempt"})

	CostBasisComputations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cost_basis_computations_total",
		Help: "Total number of per-asset cost basis computations",
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total number of cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total number of cache misses",
	})

	DatabaseQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "database_queries_total",
		Help: "Total number of database queries",
	}, []string{"query_type", "status"})

	DatabaseQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "database_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query_type"})

	ScheduledJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduled_jobs_total",
		Help: "Total number of scheduled job runs",
	}, []string{"job", "status"})
)

func RecordCacheHit() {
	CacheHits.Inc()
}

func RecordCacheMiss() {
	CacheMisses.Inc()
}

func RecordDatabaseQuery(queryType string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DatabaseQueries.WithLabelValues(queryType, status).Inc()
	DatabaseQueryDuration.WithLabelValues(queryType).Observe(duration.Seconds())
}

func RecordOperationsIngested(source, status string, count int) {
	OperationsIngested.WithLabelValues(source, status).Add(float64(count))
}

func RecordDarfCalculation(assetType, tradeCategory string, exempt bool) {
	DarfCalculations.WithLabelValues(assetType, tradeCategory, strconv.FormatBool(exempt)).Inc()
}

func RecordScheduledJob(job string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ScheduledJobs.WithLabelValues(job, status).Inc()
}

type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{
		start: time.Now(),
	}
}

func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(time.Since(t.start).Seconds())
}

func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
