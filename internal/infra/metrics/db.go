package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(dbPoolConns, dbPoolEmptyAcquires, dbPoolAcquireWait) }

// PoolStats is a snapshot of the product database pool.
type PoolStats struct {
	Total, Idle, InUse, Max int32
	EmptyAcquires           int64 // cumulative acquires that had to wait
	AcquireWait             time.Duration
}

var (
	dbPoolConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_connections",
			Help: "Connections in the product database pool by state.",
		},
		[]string{"state"}, // total | idle | in_use | max
	)
	dbPoolEmptyAcquires = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "db_pool_empty_acquires",
		Help: "Cumulative acquires that found no idle connection.",
	})
	dbPoolAcquireWait = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "db_pool_acquire_wait_seconds",
		Help: "Cumulative time spent waiting for a pool connection.",
	})
)

func SetDBPoolStats(s PoolStats) {
	dbPoolConns.WithLabelValues("total").Set(float64(s.Total))
	dbPoolConns.WithLabelValues("idle").Set(float64(s.Idle))
	dbPoolConns.WithLabelValues("in_use").Set(float64(s.InUse))
	dbPoolConns.WithLabelValues("max").Set(float64(s.Max))
	dbPoolEmptyAcquires.Set(float64(s.EmptyAcquires))
	dbPoolAcquireWait.Set(s.AcquireWait.Seconds())
}
