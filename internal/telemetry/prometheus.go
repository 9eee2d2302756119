package telemetry

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/spawncore/engine/internal/pool"
)

// Collector exports pool metrics to prometheus. The scrape handler runs on
// its own goroutine while the manager is owning-goroutine-only, so the
// collector never reads the manager directly: the telemetry system publishes
// a snapshot each interval and scrapes read the latest one atomically.
type Collector struct {
	snap atomic.Pointer[pool.GlobalSnapshot]

	pools    *prometheus.Desc
	active   *prometheus.Desc
	inactive *prometheus.Desc

	poolActive *prometheus.Desc
	spawned    *prometheus.Desc
	despawned  *prometheus.Desc
	created    *prometheus.Desc
	destroyed  *prometheus.Desc
	expansions *prometheus.Desc
	culls      *prometheus.Desc
	reuseEffcy *prometheus.Desc
}

func NewCollector() *Collector {
	poolLabels := []string{"pool"}
	return &Collector{
		pools:    prometheus.NewDesc("spawncore_pools", "Registered pool count.", nil, nil),
		active:   prometheus.NewDesc("spawncore_active", "Active instances across all pools.", nil, nil),
		inactive: prometheus.NewDesc("spawncore_inactive", "Inactive instances across all pools.", nil, nil),

		poolActive: prometheus.NewDesc("spawncore_pool_active", "Active instances in one pool.", poolLabels, nil),
		spawned:    prometheus.NewDesc("spawncore_pool_spawned_total", "Lifetime spawns.", poolLabels, nil),
		despawned:  prometheus.NewDesc("spawncore_pool_despawned_total", "Lifetime despawns.", poolLabels, nil),
		created:    prometheus.NewDesc("spawncore_pool_created_total", "Lifetime instance creations.", poolLabels, nil),
		destroyed:  prometheus.NewDesc("spawncore_pool_destroyed_total", "Lifetime instance destructions.", poolLabels, nil),
		expansions: prometheus.NewDesc("spawncore_pool_expansions_total", "Lifetime capacity expansions.", poolLabels, nil),
		culls:      prometheus.NewDesc("spawncore_pool_culls_total", "Lifetime cull passes.", poolLabels, nil),
		reuseEffcy: prometheus.NewDesc("spawncore_pool_reuse_efficiency", "Fraction of spawns served without allocation.", poolLabels, nil),
	}
}

// Publish stores the latest snapshot for scraping. Called by the telemetry
// system on the owning goroutine.
func (c *Collector) Publish(g pool.GlobalSnapshot) {
	c.snap.Store(&g)
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.pools
	ch <- c.active
	ch <- c.inactive
	ch <- c.poolActive
	ch <- c.spawned
	ch <- c.despawned
	ch <- c.created
	ch <- c.destroyed
	ch <- c.expansions
	ch <- c.culls
	ch <- c.reuseEffcy
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	g := c.snap.Load()
	if g == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.pools, prometheus.GaugeValue, float64(g.PoolCount))
	ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, float64(g.Active))
	ch <- prometheus.MustNewConstMetric(c.inactive, prometheus.GaugeValue, float64(g.Inactive))

	for id, s := range g.Pools {
		ch <- prometheus.MustNewConstMetric(c.poolActive, prometheus.GaugeValue, float64(s.CurrentActive()), id)
		ch <- prometheus.MustNewConstMetric(c.spawned, prometheus.CounterValue, float64(s.Spawned), id)
		ch <- prometheus.MustNewConstMetric(c.despawned, prometheus.CounterValue, float64(s.Despawned), id)
		ch <- prometheus.MustNewConstMetric(c.created, prometheus.CounterValue, float64(s.Created), id)
		ch <- prometheus.MustNewConstMetric(c.destroyed, prometheus.CounterValue, float64(s.Destroyed), id)
		ch <- prometheus.MustNewConstMetric(c.expansions, prometheus.CounterValue, float64(s.Expansions), id)
		ch <- prometheus.MustNewConstMetric(c.culls, prometheus.CounterValue, float64(s.Culls), id)
		ch <- prometheus.MustNewConstMetric(c.reuseEffcy, prometheus.GaugeValue, s.ReuseEfficiency(), id)
	}
}
