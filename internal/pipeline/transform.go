package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/emiliopalmerini/garminetl/internal/config"
	"github.com/emiliopalmerini/garminetl/internal/frame"
	"github.com/emiliopalmerini/garminetl/internal/logging"
)

// Processed table names.
const (
	TableMonitoring = "garmin_monitoring"
	TableDays       = "garmin_days"
	TableWeeks      = "garmin_weeks"
	TableMonths     = "garmin_months"
	TableRunning    = "garmin_running"
)

// TransformResult holds the processed tables and the counters reported for the run.
type TransformResult struct {
	Tables      Tables
	Injected    map[string]int64
	DaysDropped []time.Time
}

// Transformer builds the processed tables from the cleaned snapshots.
type Transformer struct {
	cfg config.Transform
	log logrus.FieldLogger
}

func NewTransformer(cfg config.Transform, log logrus.FieldLogger) *Transformer {
	return &Transformer{cfg: cfg, log: logging.Stage(log, StageProcessed)}
}

// Transform runs every transformation step. Any missing table or column the steps
// need fails the whole stage; the activities table and its children are optional.
func (tr *Transformer) Transform(ctx context.Context, interim Tables) (*TransformResult, error) {
	cfg := tr.cfg
	out := make(Tables)

	mon, injected, err := mergeMonitoring(interim, cfg.Monitoring)
	if err != nil {
		return nil, fmt.Errorf("failed to merge monitoring: %w", err)
	}
	for signal, n := range injected {
		tr.log.WithFields(logrus.Fields{"signal": signal, "values": n}).Info("values injected")
	}

	acts, ok := interim[cfg.Activities.Table]
	if !ok {
		tr.log.WithField("table", cfg.Activities.Table).Warn("activities table absent, no activity data")
	}
	mon, err = tagActivities(mon, cfg.Monitoring.Key, acts, cfg.Activities)
	if err != nil {
		return nil, fmt.Errorf("failed to tag activities: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	days, conflicts, err := mergeDaily(interim, cfg.Daily)
	if err != nil {
		return nil, fmt.Errorf("failed to merge daily tables: %w", err)
	}
	for _, c := range conflicts {
		tr.log.WithField("column", c).Warn("daily sources disagree, both columns kept")
	}

	var running *frame.Frame
	if acts != nil {
		rt, err := filterRunning(interim, acts, cfg.Activities)
		if err != nil {
			return nil, fmt.Errorf("failed to filter running activities: %w", err)
		}
		for k, f := range rt {
			out[k] = f
		}
		running = rt[TableRunning]
		tr.log.WithField("activities", running.Len()).Info("running activities kept")
	}

	days, err = shiftNight(days, cfg.Daily.NightShift)
	if err != nil {
		return nil, fmt.Errorf("failed to shift night data: %w", err)
	}
	days, err = addSleepTimes(days, cfg.Daily)
	if err != nil {
		return nil, fmt.Errorf("failed to convert sleep times: %w", err)
	}
	days, err = addRunningRollup(days, cfg.Daily.Key, running, cfg.Activities)
	if err != nil {
		return nil, fmt.Errorf("failed to add running rollup: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	signals := make([]string, 0, 3)
	for _, sig := range cfg.Monitoring.Signals() {
		signals = append(signals, sig.Column)
	}
	insufficient, err := insufficientDays(mon, cfg.Monitoring.Key, signals, cfg.Sufficiency)
	if err != nil {
		return nil, fmt.Errorf("failed to measure coverage: %w", err)
	}
	total := days.Len()
	days, dropped, err := filterDays(days, cfg.Daily.Key, insufficient, cfg.Sufficiency.Essential)
	if err != nil {
		return nil, fmt.Errorf("failed to filter days: %w", err)
	}
	for _, d := range dropped {
		tr.log.WithField("day", d.Format(frame.DateLayout)).Debug("day removed")
	}
	tr.log.WithFields(logrus.Fields{"removed": len(dropped), "days": total}).Info("insufficient days removed")

	weeks, err := resample(days, cfg.Daily.Key, Weekly, cfg.Resample.SumColumns, TableWeeks)
	if err != nil {
		return nil, fmt.Errorf("failed to resample weeks: %w", err)
	}
	months, err := resample(days, cfg.Daily.Key, Monthly, cfg.Resample.SumColumns, TableMonths)
	if err != nil {
		return nil, fmt.Errorf("failed to resample months: %w", err)
	}

	finals := []struct {
		frame  *frame.Frame
		key    string
		cols   []string
		rename map[string]string
		round  config.Rounding
	}{
		{mon, cfg.Monitoring.Key, cfg.Monitoring.Output, cfg.Monitoring.Rename, config.Rounding{OneDecimal: cfg.Monitoring.OneDecimal}},
		{days, cfg.Daily.Key, cfg.Output.Days, cfg.Output.Rename, cfg.Rounding},
		{weeks, cfg.Daily.Key, cfg.Output.Bucket, cfg.Output.Rename, cfg.Rounding},
		{months, cfg.Daily.Key, cfg.Output.Bucket, cfg.Output.Rename, cfg.Rounding},
	}
	for _, fin := range finals {
		f, err := selectOutput(roundColumns(fin.frame, fin.round), fin.key, fin.cols, fin.rename)
		if err != nil {
			return nil, fmt.Errorf("failed to select %s columns: %w", fin.frame.Name(), err)
		}
		out[f.Name()] = f
	}

	tr.log.WithFields(logrus.Fields{
		"tables": len(out),
		"rows":   out.Rows(),
	}).Info("transformation complete")
	return &TransformResult{Tables: out, Injected: injected, DaysDropped: dropped}, nil
}

// selectOutput orders the output columns, key first, and applies the renames.
func selectOutput(f *frame.Frame, key string, cols []string, rename map[string]string) (*frame.Frame, error) {
	names := cols
	if !slices.Contains(cols, key) {
		names = append([]string{key}, cols...)
	}
	sel, err := f.Select(names...)
	if err != nil {
		return nil, err
	}
	return sel.Rename(rename), nil
}
