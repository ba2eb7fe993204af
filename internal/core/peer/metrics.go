package peer

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors a Peer reports into. One set is
// shared across every Peer in the process; per-peer labels would be
// unbounded cardinality for a node that may see many thousands of remote
// identities, so labels stop at address family.
type Metrics struct {
	Paths            *prometheus.GaugeVec
	PushDirectPaths  prometheus.Counter
	ClusterRedirects prometheus.Counter
	PathsEvicted     prometheus.Counter
}

// NewMetrics registers the peer package's collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Paths: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "overlay",
			Subsystem: "peer",
			Name:      "paths",
			Help:      "Number of live path-table entries per address family.",
		}, []string{"family"}),
		PushDirectPaths: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "overlay",
			Subsystem: "peer",
			Name:      "push_direct_paths_total",
			Help:      "Total PUSH_DIRECT_PATHS packets sent.",
		}),
		ClusterRedirects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "overlay",
			Subsystem: "peer",
			Name:      "cluster_redirects_total",
			Help:      "Total cluster-issued path redirects emitted.",
		}),
		PathsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "overlay",
			Subsystem: "peer",
			Name:      "paths_evicted_total",
			Help:      "Total path-table slots reclaimed by eviction, clean, or reset.",
		}),
	}
	reg.MustRegister(m.Paths, m.PushDirectPaths, m.ClusterRedirects, m.PathsEvicted)
	return m
}

// noopMetrics is used when a Peer is constructed without a metrics
// registry (e.g. in unit tests).
func noopMetrics() *Metrics {
	return &Metrics{
		Paths: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "overlay_peer_paths_noop",
			Help: "unregistered placeholder",
		}, []string{"family"}),
		PushDirectPaths:  prometheus.NewCounter(prometheus.CounterOpts{Name: "overlay_peer_push_noop"}),
		ClusterRedirects: prometheus.NewCounter(prometheus.CounterOpts{Name: "overlay_peer_redirect_noop"}),
		PathsEvicted:     prometheus.NewCounter(prometheus.CounterOpts{Name: "overlay_peer_evicted_noop"}),
	}
}
