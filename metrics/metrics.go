// Package metrics exposes Prometheus instrumentation for the poll
// pipeline on a private registry, so importing applications cannot
// collide with the default one.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns every metric the pipeline reports.
type Collector struct {
	registry *prometheus.Registry

	pollCycles        *prometheus.CounterVec
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	fetchDuration     *prometheus.HistogramVec
	activeTrains      prometheus.Gauge
	snapshotTimestamp prometheus.Gauge
}

// NewCollector builds a collector with all metrics registered on a
// fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		pollCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "raillive_poll_cycles_total",
			Help: "Poll cycles by feed kind and outcome.",
		}, []string{"feed", "outcome"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raillive_cache_hits_total",
			Help: "Static table reads served from the disk cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raillive_cache_misses_total",
			Help: "Static table reads that went to the relay.",
		}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "raillive_fetch_duration_seconds",
			Help:    "Duration of individual relay requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		activeTrains: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "raillive_active_trains",
			Help: "Trains with a position in the latest snapshot.",
		}),
		snapshotTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "raillive_snapshot_timestamp_seconds",
			Help: "Unix time the latest snapshot was assembled.",
		}),
	}
	c.registry.MustRegister(
		c.pollCycles,
		c.cacheHits,
		c.cacheMisses,
		c.fetchDuration,
		c.activeTrains,
		c.snapshotTimestamp,
	)
	return c
}

// IncPollCycle counts one poll cycle for a feed ("realtime" or
// "static") with an outcome ("ok" or "error").
func (c *Collector) IncPollCycle(feed, outcome string) {
	c.pollCycles.WithLabelValues(feed, outcome).Inc()
}

func (c *Collector) IncCacheHit()  { c.cacheHits.Inc() }
func (c *Collector) IncCacheMiss() { c.cacheMisses.Inc() }

// ObserveFetch records the duration of one relay request. The label is
// the endpoint path without query parameters, keeping the label set
// bounded by the number of endpoints.
func (c *Collector) ObserveFetch(endpoint string, d time.Duration) {
	c.fetchDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// SetActiveTrains publishes the active-train count of a snapshot.
func (c *Collector) SetActiveTrains(n int) {
	c.activeTrains.Set(float64(n))
}

// SetSnapshotTime publishes when the latest snapshot was assembled.
func (c *Collector) SetSnapshotTime(t time.Time) {
	c.snapshotTimestamp.Set(float64(t.Unix()))
}

// Handler serves the collector's registry in the Prometheus exposition
// format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
