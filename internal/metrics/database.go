package metrics

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Database pool metrics
var (
	DBConnectionsOpen = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_open",
			Help:      "Total number of open database connections",
		},
	)

	DBConnectionsInUse = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_in_use",
			Help:      "Number of database connections currently in use",
		},
	)

	DBConnectionsIdle = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_idle",
			Help:      "Number of idle database connections",
		},
	)

	DBConnectionsMaxOpen = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_max_open",
			Help:      "Maximum number of open database connections allowed",
		},
	)
)

// PoolStats is the backend-neutral view of a connection pool.
type PoolStats struct {
	Open    int
	InUse   int
	Idle    int
	MaxOpen int
}

// SQLStats reads pool statistics from a database/sql handle (SQLite).
func SQLStats(db *sql.DB) func() PoolStats {
	return func() PoolStats {
		s := db.Stats()
		return PoolStats{Open: s.OpenConnections, InUse: s.InUse, Idle: s.Idle, MaxOpen: s.MaxOpenConnections}
	}
}

// PgxStats reads pool statistics from a pgx pool (PostgreSQL).
func PgxStats(pool *pgxpool.Pool) func() PoolStats {
	return func() PoolStats {
		s := pool.Stat()
		return PoolStats{
			Open:    int(s.TotalConns()),
			InUse:   int(s.AcquiredConns()),
			Idle:    int(s.IdleConns()),
			MaxOpen: int(s.MaxConns()),
		}
	}
}

// DBCollector periodically copies pool statistics into the gauges.
type DBCollector struct {
	stats    func() PoolStats
	stopChan chan struct{}
}

func NewDBCollector(stats func() PoolStats) *DBCollector {
	return &DBCollector{
		stats:    stats,
		stopChan: make(chan struct{}),
	}
}

// Start blocks until ctx is done or Stop is called.
func (c *DBCollector) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.collect()
	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *DBCollector) Stop() {
	close(c.stopChan)
}

func (c *DBCollector) collect() {
	if c.stats == nil {
		return
	}
	s := c.stats()
	DBConnectionsOpen.Set(float64(s.Open))
	DBConnectionsInUse.Set(float64(s.InUse))
	DBConnectionsIdle.Set(float64(s.Idle))
	DBConnectionsMaxOpen.Set(float64(s.MaxOpen))
}
