package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records metadata for shop inventory sync passes.
type SyncMetrics struct {
	duration *prometheus.HistogramVec
	items    *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shop_sync_duration_seconds",
		Help:    "Duration of shop inventory sync passes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"shop"})
	items := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_sync_items_total",
		Help: "Shop inventory rows written by sync passes.",
	}, []string{"shop", "outcome"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_sync_failures_total",
		Help: "Sync passes that could not complete at all.",
	}, []string{"shop"})
	reg.MustRegister(duration, items, failures)
	return &SyncMetrics{
		duration: duration,
		items:    items,
		failures: failures,
	}
}

// ObserveDuration records the duration of a sync pass for the shop.
func (m *SyncMetrics) ObserveDuration(shop string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(shop)).Observe(duration.Seconds())
}

// AddItems increments the per-outcome item counter for the shop.
func (m *SyncMetrics) AddItems(shop, outcome string, count int) {
	if m == nil || m.items == nil || count <= 0 {
		return
	}
	m.items.WithLabelValues(normalizeLabel(shop), outcome).Add(float64(count))
}

// IncFailure increments the whole-pass failure counter for the shop.
func (m *SyncMetrics) IncFailure(shop string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(shop)).Inc()
}

func normalizeLabel(shop string) string {
	if shop == "" {
		return "unknown"
	}
	return shop
}
