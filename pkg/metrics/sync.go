package metrics

import "github.com/prometheus/client_golang/prometheus"

// SyncMetrics counts contact sync outcomes by trigger source.
type SyncMetrics struct {
	synced     *prometheus.CounterVec
	suppressed *prometheus.CounterVec
	failures   *prometheus.CounterVec
}

// NewSyncMetrics registers the sync counters on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	synced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "contact_sync_total",
		Help: "Contacts pushed to the CRM.",
	}, []string{"source"})
	suppressed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "contact_sync_suppressed_total",
		Help: "Syncs skipped by suppression rules or dedupe.",
	}, []string{"source"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "contact_sync_failures_total",
		Help: "Contact syncs that errored.",
	}, []string{"source"})
	reg.MustRegister(synced, suppressed, failures)
	return &SyncMetrics{
		synced:     synced,
		suppressed: suppressed,
		failures:   failures,
	}
}

// IncSynced increments the synced counter for the source.
func (s *SyncMetrics) IncSynced(source string) {
	if s == nil || s.synced == nil {
		return
	}
	s.synced.WithLabelValues(normalizeLabel(source)).Inc()
}

// IncSuppressed increments the suppressed counter for the source.
func (s *SyncMetrics) IncSuppressed(source string) {
	if s == nil || s.suppressed == nil {
		return
	}
	s.suppressed.WithLabelValues(normalizeLabel(source)).Inc()
}

// IncFailure increments the failure counter for the source.
func (s *SyncMetrics) IncFailure(source string) {
	if s == nil || s.failures == nil {
		return
	}
	s.failures.WithLabelValues(normalizeLabel(source)).Inc()
}
