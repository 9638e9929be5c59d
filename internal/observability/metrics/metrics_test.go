package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordGeneration(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newFunnelMetrics(registry, Config{
		ServiceName: "stagelink",
		Environment: "test",
	})

	metrics.RecordGeneration("success", 120*time.Millisecond)
	metrics.RecordGeneration("success", 80*time.Millisecond)
	metrics.RecordGeneration("conflict", 10*time.Millisecond)

	if got := testutil.ToFloat64(metrics.generations.WithLabelValues("success")); got != 2 {
		t.Fatalf("expected 2 successful generations, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.generations.WithLabelValues("conflict")); got != 1 {
		t.Fatalf("expected 1 conflicting generation, got %v", got)
	}
}

func TestRecordTransition(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newFunnelMetrics(registry, Config{ServiceName: "stagelink"})

	metrics.RecordTransition("REJECTED", "success")
	metrics.RecordTransition("REJECTED", "invalid_transition")

	if got := testutil.ToFloat64(metrics.transitions.WithLabelValues("REJECTED", "success")); got != 1 {
		t.Fatalf("expected 1 successful transition, got %v", got)
	}
}
