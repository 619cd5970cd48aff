package ports_test

import (
	"testing"
	"time"

	"github.com/emiliopalmerini/garminetl/internal/adapters/otel"
	"github.com/emiliopalmerini/garminetl/internal/adapters/storage"
	"github.com/emiliopalmerini/garminetl/internal/adapters/turso"
	"github.com/emiliopalmerini/garminetl/internal/ports"
)

// Compile-time interface conformance checks.

func TestSnapshotStoreConformance(t *testing.T) {
	var _ ports.SnapshotStore = (*storage.SnapshotStorage)(nil)
}

func TestSourceConformance(t *testing.T) {
	var _ ports.SourceOpener = (*turso.Opener)(nil)
	var _ ports.Source = (*turso.Source)(nil)
}

func TestMetricsExporterConformance(t *testing.T) {
	var _ ports.MetricsExporter = (*otel.Exporter)(nil)
	var _ ports.MetricsExporter = (*otel.NoOpExporter)(nil)
}

func TestStageMetricsDuration(t *testing.T) {
	start := time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC)
	m := &ports.StageMetrics{StartedAt: start, EndedAt: start.Add(90 * time.Second)}
	if got := m.Duration(); got != 90*time.Second {
		t.Errorf("Duration() = %v, want 90s", got)
	}
}
