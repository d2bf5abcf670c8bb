package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestSyncMetricsRegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSyncMetrics(reg)

	m.ObserveDuration("shop-a", 250*time.Millisecond)
	m.AddItems("shop-a", "updated", 3)
	m.AddItems("shop-a", "failed", 1)
	m.AddItems("shop-a", "updated", 0)
	m.IncFailure("")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	byName := map[string]*dto.MetricFamily{}
	for _, fam := range families {
		byName[fam.GetName()] = fam
	}

	items, ok := byName["shop_sync_items_total"]
	if !ok {
		t.Fatal("expected shop_sync_items_total to be registered")
	}
	total := 0.0
	for _, metric := range items.GetMetric() {
		total += metric.GetCounter().GetValue()
	}
	if total != 4 {
		t.Fatalf("expected 4 items counted, got %v", total)
	}

	failures, ok := byName["shop_sync_failures_total"]
	if !ok {
		t.Fatal("expected shop_sync_failures_total to be registered")
	}
	metric := failures.GetMetric()[0]
	if got := metric.GetLabel()[0].GetValue(); got != "unknown" {
		t.Fatalf("expected empty shop label normalized to unknown, got %q", got)
	}
}

func TestSyncMetricsNilSafe(t *testing.T) {
	var m *SyncMetrics
	m.ObserveDuration("shop", time.Second)
	m.AddItems("shop", "updated", 1)
	m.IncFailure("shop")

	empty := NewSyncMetrics(nil)
	empty.ObserveDuration("shop", time.Second)
	empty.AddItems("shop", "updated", 1)
	empty.IncFailure("shop")
}
