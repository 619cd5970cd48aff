package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/emiliopalmerini/garminetl/internal/config"
	"github.com/emiliopalmerini/garminetl/internal/ports"
)

// Runner wires the stages to the snapshot store and reports each run to the
// metrics exporter.
type Runner struct {
	store    ports.SnapshotStore
	opener   ports.SourceOpener
	exporter ports.MetricsExporter
	schema   *config.Schema
	dbDir    string
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewRunner(store ports.SnapshotStore, opener ports.SourceOpener, exporter ports.MetricsExporter, schema *config.Schema, dbDir string, log logrus.FieldLogger) *Runner {
	return &Runner{
		store:    store,
		opener:   opener,
		exporter: exporter,
		schema:   schema,
		dbDir:    dbDir,
		log:      log,
		now:      time.Now,
	}
}

// Stages lists the stage names in execution order.
var Stages = []string{StageRaw, StageInterim, StageProcessed}

// Run executes one stage by name, reading the previous stage from the store.
func (r *Runner) Run(ctx context.Context, stage string) (*ports.Manifest, error) {
	return r.run(ctx, uuid.NewString(), stage)
}

// RunAll executes every stage in order under one run id.
func (r *Runner) RunAll(ctx context.Context) ([]*ports.Manifest, error) {
	runID := uuid.NewString()
	r.log.WithField("run_id", runID).Info("pipeline started")
	var out []*ports.Manifest
	for _, stage := range Stages {
		m, err := r.run(ctx, runID, stage)
		if err != nil {
			return out, err
		}
		out = append(out, m)
	}
	r.log.WithField("run_id", runID).Info("pipeline complete")
	return out, nil
}

func (r *Runner) run(ctx context.Context, runID, stage string) (*ports.Manifest, error) {
	log := r.log.WithFields(logrus.Fields{"run_id": runID, "stage": stage})
	log.Info("stage started")
	metrics := &ports.StageMetrics{RunID: runID, Stage: stage, StartedAt: r.now()}

	var (
		tables Tables
		err    error
	)
	switch stage {
	case StageRaw:
		tables, err = NewExtractor(r.opener, r.dbDir, r.schema.Databases, r.log).Extract(ctx)
	case StageInterim:
		var raw Tables
		if raw, err = r.load(ctx, StageRaw); err == nil {
			tables, err = NewCleaner(r.schema.Clean, r.log).Clean(ctx, raw)
		}
	case StageProcessed:
		var interim Tables
		if interim, err = r.load(ctx, StageInterim); err == nil {
			var res *TransformResult
			if res, err = NewTransformer(r.schema.Transform, r.log).Transform(ctx, interim); err == nil {
				tables = res.Tables
				metrics.InjectedValues = res.Injected
				metrics.DaysDropped = int64(len(res.DaysDropped))
			}
		}
	default:
		return nil, fmt.Errorf("unknown stage %q", stage)
	}
	if err != nil {
		log.WithError(err).Error("stage failed")
		return nil, fmt.Errorf("%s stage: %w", stage, err)
	}

	manifest := &ports.Manifest{RunID: runID, Stage: stage, StartedAt: metrics.StartedAt}
	for _, f := range tables.Sorted() {
		manifest.Tables = append(manifest.Tables, ports.TableManifest{Name: f.Name(), Rows: f.Len(), Columns: f.Names()})
	}
	manifest.FinishedAt = r.now()
	if err := r.store.Save(ctx, stage, tables.Sorted(), manifest); err != nil {
		return nil, fmt.Errorf("failed to save %s snapshots: %w", stage, err)
	}

	metrics.EndedAt = manifest.FinishedAt
	metrics.TablesWritten = int64(len(tables))
	metrics.RowsWritten = tables.Rows()
	if err := r.exporter.ExportStageMetrics(ctx, metrics); err != nil {
		log.WithError(err).Warn("failed to export stage metrics")
	}

	log.WithFields(logrus.Fields{
		"tables":   metrics.TablesWritten,
		"rows":     metrics.RowsWritten,
		"duration": metrics.Duration(),
	}).Info("stage complete")
	return manifest, nil
}

func (r *Runner) load(ctx context.Context, stage string) (Tables, error) {
	frames, err := r.store.Load(ctx, stage)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s snapshots: %w", stage, err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: no %s snapshots, run the previous stage first", ErrMissingTable, stage)
	}
	return NewTables(frames), nil
}
