package farmstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the store's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	mutations         *prometheus.CounterVec
	ordersPlaced      prometheus.Counter
	checkoutRejected  *prometheus.CounterVec
	storageUnreadable *prometheus.CounterVec
	versionConflicts  prometheus.Counter
	remoteChanges     prometheus.Counter
	broadcastFailures prometheus.Counter
}

// NewMetrics registers the store collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		mutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farmbe",
			Subsystem: "store",
			Name:      "mutations_total",
			Help:      "Committed store mutations by operation.",
		}, []string{"op"}),
		ordersPlaced: f.NewCounter(prometheus.CounterOpts{
			Namespace: "farmbe",
			Subsystem: "store",
			Name:      "orders_placed_total",
			Help:      "Orders created by successful checkouts.",
		}),
		checkoutRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farmbe",
			Subsystem: "store",
			Name:      "checkout_rejected_total",
			Help:      "Checkouts rejected before any mutation, by reason.",
		}, []string{"reason"}),
		storageUnreadable: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farmbe",
			Subsystem: "store",
			Name:      "storage_unreadable_total",
			Help:      "Persisted collections that failed to decode and were read as empty.",
		}, []string{"collection"}),
		versionConflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: "farmbe",
			Subsystem: "store",
			Name:      "version_conflicts_total",
			Help:      "Commits retried because another writer got there first.",
		}),
		remoteChanges: f.NewCounter(prometheus.CounterOpts{
			Namespace: "farmbe",
			Subsystem: "store",
			Name:      "remote_changes_total",
			Help:      "Change events received from other processes.",
		}),
		broadcastFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "farmbe",
			Subsystem: "store",
			Name:      "broadcast_failures_total",
			Help:      "Change events that could not be published.",
		}),
	}
}

func (m *Metrics) mutation(op Op) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(string(op)).Inc()
	if op == OpPlaceOrder {
		m.ordersPlaced.Inc()
	}
}

func (m *Metrics) rejected(reason string) {
	if m == nil {
		return
	}
	m.checkoutRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) unreadable(collection string) {
	if m == nil {
		return
	}
	m.storageUnreadable.WithLabelValues(collection).Inc()
}

func (m *Metrics) conflict() {
	if m == nil {
		return
	}
	m.versionConflicts.Inc()
}

func (m *Metrics) remote() {
	if m == nil {
		return
	}
	m.remoteChanges.Inc()
}

func (m *Metrics) broadcastFailed() {
	if m == nil {
		return
	}
	m.broadcastFailures.Inc()
}
