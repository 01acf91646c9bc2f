// Package metrics provides observability for the engine and the sync server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers engine and sync-server counters.
type Collector struct {
	registry *prometheus.Registry

	SnapshotWrites      prometheus.Counter
	SnapshotWriteErrors prometheus.Counter
	RemotePushes        prometheus.Counter
	RemotePushErrors    prometheus.Counter
	LootRolls           prometheus.Counter
	LootNoDrops         prometheus.Counter
	ConfigFetches       prometheus.Counter
	ConfigCacheHits     prometheus.Counter
	WSClientsActive     prometheus.Gauge
	DocumentReads       prometheus.Counter
	DocumentWrites      prometheus.Counter
}

// NewCollector registers all counters on a private registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		SnapshotWrites: factory.NewCounter(prometheus.CounterOpts{
			Name: "glow_snapshot_writes_total",
			Help: "Debounced local snapshot writes performed.",
		}),
		SnapshotWriteErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "glow_snapshot_write_errors_total",
			Help: "Local snapshot writes that failed.",
		}),
		RemotePushes: factory.NewCounter(prometheus.CounterOpts{
			Name: "glow_remote_pushes_total",
			Help: "Best-effort remote state pushes attempted.",
		}),
		RemotePushErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "glow_remote_push_errors_total",
			Help: "Remote state pushes that failed.",
		}),
		LootRolls: factory.NewCounter(prometheus.CounterOpts{
			Name: "glow_loot_rolls_total",
			Help: "Loot rolls resolved.",
		}),
		LootNoDrops: factory.NewCounter(prometheus.CounterOpts{
			Name: "glow_loot_no_drops_total",
			Help: "Loot rolls that resolved to an empty pool.",
		}),
		ConfigFetches: factory.NewCounter(prometheus.CounterOpts{
			Name: "glow_config_fetches_total",
			Help: "Odds-config fetches that went to the network.",
		}),
		ConfigCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "glow_config_cache_hits_total",
			Help: "Odds-config reads served from the local cache.",
		}),
		WSClientsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "glow_ws_clients_active",
			Help: "Active websocket activity-feed clients.",
		}),
		DocumentReads: factory.NewCounter(prometheus.CounterOpts{
			Name: "glow_document_reads_total",
			Help: "User documents served by glow-syncd.",
		}),
		DocumentWrites: factory.NewCounter(prometheus.CounterOpts{
			Name: "glow_document_writes_total",
			Help: "User documents merged by glow-syncd.",
		}),
	}
}

// Handler exposes the collector's registry over HTTP.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
