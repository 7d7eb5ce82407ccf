// Package metrics defines the Prometheus collectors shared across the
// feed cache, the change bus, and the websocket hub.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FeedCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livefeed_cache_hits_total",
		Help: "Feed reads served from the cache",
	})

	FeedCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livefeed_cache_misses_total",
		Help: "Feed reads that fell through to the durable store",
	})

	FeedCacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livefeed_cache_invalidations_total",
		Help: "Explicit feed cache invalidations after successful writes",
	})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livefeed_events_published_total",
		Help: "Change events published to the bus, by kind",
	}, []string{"kind"})

	EventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livefeed_events_received_total",
		Help: "Change events received from the bus, by kind",
	}, []string{"kind"})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livefeed_events_dropped_total",
		Help: "Bus events dropped because the local subscriber was backed up",
	})

	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "livefeed_websocket_connected_clients",
		Help: "Currently connected websocket clients on this instance",
	})

	SlowClientsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livefeed_websocket_slow_clients_evicted_total",
		Help: "Clients disconnected because their send buffer was full",
	})

	BroadcastsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livefeed_websocket_broadcasts_total",
		Help: "Fan-out broadcasts delivered to local clients",
	})
)
