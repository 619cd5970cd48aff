package ports

import (
	"context"
	"time"
)

// MetricsExporter exports pipeline metrics to an external observability system.
type MetricsExporter interface {
	// ExportStageMetrics exports the metrics of a completed stage.
	ExportStageMetrics(ctx context.Context, m *StageMetrics) error
	// Close shuts down the exporter and flushes any pending metrics.
	Close(ctx context.Context) error
}

// StageMetrics summarizes one stage run.
type StageMetrics struct {
	RunID string
	Stage string

	TablesWritten int64
	RowsWritten   int64
	// Interpolated values per monitoring signal.
	InjectedValues map[string]int64
	DaysDropped    int64

	StartedAt time.Time
	EndedAt   time.Time
}

// Duration returns the wall time of the stage.
func (m *StageMetrics) Duration() time.Duration {
	return m.EndedAt.Sub(m.StartedAt)
}
