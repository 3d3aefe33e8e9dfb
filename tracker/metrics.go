// ABOUTME: Prometheus instruments for the pipeline engine
// ABOUTME: Registered on the caller's registry so tests stay isolated
package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/harperreed/outreach/models"
)

// Metrics groups the tracker's collectors.
type Metrics struct {
	// operations counts mutations by operation and outcome.
	operations *prometheus.CounterVec

	// observations counts reconcile inputs by result (accepted, ignored, skipped).
	observations *prometheus.CounterVec

	// swept counts pending records evicted by the retention sweeper.
	swept prometheus.Counter

	// storageErrors counts failed loads and saves.
	storageErrors *prometheus.CounterVec

	// records tracks the size of each set after the last successful save.
	records *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "outreach",
			Subsystem: "tracker",
			Name:      "operations_total",
			Help:      "Pipeline mutations by operation and outcome",
		}, []string{"operation", "outcome"}),
		observations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "outreach",
			Subsystem: "reconcile",
			Name:      "observations_total",
			Help:      "Observed connections by reconcile result",
		}, []string{"result"}),
		swept: f.NewCounter(prometheus.CounterOpts{
			Namespace: "outreach",
			Subsystem: "sweeper",
			Name:      "removed_total",
			Help:      "Stale pending records removed",
		}),
		storageErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "outreach",
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Failed store calls by kind (load, save)",
		}, []string{"kind"}),
		records: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "outreach",
			Subsystem: "pipeline",
			Name:      "records",
			Help:      "Records per set after the last successful save",
		}, []string{"set"}),
	}
}

func (m *Metrics) observeSnapshot(snap models.Snapshot) {
	m.records.WithLabelValues(string(models.SetPending)).Set(float64(len(snap.Pending)))
	m.records.WithLabelValues(string(models.SetTracked)).Set(float64(len(snap.Tracked)))
}
