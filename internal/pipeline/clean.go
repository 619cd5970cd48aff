package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/emiliopalmerini/garminetl/internal/config"
	"github.com/emiliopalmerini/garminetl/internal/frame"
	"github.com/emiliopalmerini/garminetl/internal/logging"
)

// Cleaner applies the cleaning steps to the raw snapshots, in order.
type Cleaner struct {
	cfg config.Clean
	log logrus.FieldLogger
}

func NewCleaner(cfg config.Clean, log logrus.FieldLogger) *Cleaner {
	return &Cleaner{cfg: cfg, log: logging.Stage(log, StageInterim)}
}

// Clean returns new cleaned snapshots; the input is not modified.
func (c *Cleaner) Clean(ctx context.Context, raw Tables) (Tables, error) {
	tables := make(Tables, len(raw))
	for k, f := range raw {
		tables[k] = f
	}

	steps := []struct {
		name string
		fn   func(Tables) error
	}{
		{"drop duplicate tables", c.dropDuplicateTables},
		{"drop empty columns", c.dropEmptyColumns},
		{"apply cutoff", c.applyCutoff},
		{"coerce temporal columns", c.coerceTemporal},
		{"report duplicate rows", c.reportDuplicateRows},
		{"infer column types", c.inferTypes},
		{"drop constant and manual columns", c.dropColumns},
		{"align time offset", c.alignTimeOffset},
		{"sort by day", c.sortByDay},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := step.fn(tables); err != nil {
			return nil, fmt.Errorf("failed to %s: %w", step.name, err)
		}
		c.log.WithField("step", step.name).Debug("step complete")
	}

	c.log.WithFields(logrus.Fields{
		"tables": len(tables),
		"rows":   tables.Rows(),
	}).Info("cleaning complete")
	return tables, nil
}

func (c *Cleaner) dropDuplicateTables(t Tables) error {
	for _, pair := range c.cfg.Duplicates {
		keep, okKeep := t[pair.Keep]
		drop, okDrop := t[pair.Drop]
		if !okKeep || !okDrop {
			continue
		}
		if !keep.Equal(drop) {
			c.log.WithFields(logrus.Fields{"keep": pair.Keep, "drop": pair.Drop}).Warn("tables expected to be equal differ, both kept")
			continue
		}
		delete(t, pair.Drop)
		c.log.WithField("table", pair.Drop).Info("duplicate table removed")
	}
	return nil
}

func (c *Cleaner) dropEmptyColumns(t Tables) error {
	removed := 0
	for k, f := range t {
		var empty []string
		for _, s := range f.Series() {
			if s.AllNull() {
				empty = append(empty, s.Name())
			}
		}
		if len(empty) == 0 {
			continue
		}
		t[k] = f.DropIfPresent(empty...)
		removed += len(empty)
		c.log.WithFields(logrus.Fields{"table": k, "columns": empty}).Debug("empty columns removed")
	}
	c.log.WithField("columns", removed).Info("empty columns removed")
	return nil
}

func (c *Cleaner) applyCutoff(t Tables) error {
	cutoff, err := c.cfg.CutoffTime()
	if err != nil {
		return err
	}
	for _, m := range []map[string]string{c.cfg.DayColumns, c.cfg.TimestampColumns} {
		for key, col := range m {
			f, ok := t[key]
			if !ok {
				continue
			}
			s, err := f.Column(col)
			if err != nil {
				return err
			}
			ts, err := frame.ToTime(s, "")
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			f, err = f.With(ts)
			if err != nil {
				return err
			}
			before := f.Len()
			f = f.Filter(func(i int) bool {
				v, ok := ts.Time(i)
				return !ok || !v.Before(cutoff)
			})
			t[key] = f
			if dropped := before - f.Len(); dropped > 0 {
				c.log.WithFields(logrus.Fields{"table": key, "rows": dropped}).Info("rows before cutoff removed")
			}
		}
	}
	return nil
}

func (c *Cleaner) coerceTemporal(t Tables) error {
	for col, keys := range c.cfg.DatetimeColumns {
		for _, key := range keys {
			if err := c.coerce(t, key, col, func(s *frame.Series) (*frame.Series, error) {
				return frame.ToTime(s, c.cfg.DatetimeFormat)
			}); err != nil {
				return err
			}
		}
	}
	for col, keys := range c.cfg.DurationColumns {
		for _, key := range keys {
			if err := c.coerce(t, key, col, frame.ToDuration); err != nil {
				return err
			}
		}
	}
	return nil
}

// coerce converts one configured column. A missing table is skipped; a missing
// column in a present table is an error.
func (c *Cleaner) coerce(t Tables, key, col string, fn func(*frame.Series) (*frame.Series, error)) error {
	f, ok := t[key]
	if !ok {
		c.log.WithField("table", key).Debug("table absent, coercion skipped")
		return nil
	}
	s, err := f.Column(col)
	if err != nil {
		return err
	}
	out, err := fn(s)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	f, err = f.With(out)
	if err != nil {
		return err
	}
	t[key] = f
	return nil
}

func (c *Cleaner) reportDuplicateRows(t Tables) error {
	for _, k := range t.Keys() {
		if dups := t[k].DuplicateRows(); len(dups) > 0 {
			c.log.WithFields(logrus.Fields{"table": k, "rows": len(dups)}).Warn("duplicate rows found")
		}
	}
	return nil
}

func (c *Cleaner) inferTypes(t Tables) error {
	for k, f := range t {
		var converted []*frame.Series
		for _, s := range f.Series() {
			if s.Kind() != frame.KindString {
				continue
			}
			if n, ok := frame.TryNumeric(s); ok {
				converted = append(converted, n)
				continue
			}
			if ts, ok := frame.TryTime(s); ok {
				converted = append(converted, ts)
			}
		}
		if len(converted) == 0 {
			continue
		}
		out, err := f.With(converted...)
		if err != nil {
			return err
		}
		t[k] = out
	}
	return nil
}

func (c *Cleaner) dropColumns(t Tables) error {
	for k, f := range t {
		var constant []string
		for _, s := range f.Series() {
			if s.Unique() == 1 {
				constant = append(constant, s.Name())
			}
		}
		if len(constant) > 0 {
			c.log.WithFields(logrus.Fields{"table": k, "columns": constant}).Debug("constant columns removed")
		}
		f = f.DropIfPresent(constant...)

		if manual, ok := c.cfg.DropColumns[k]; ok {
			for _, col := range manual {
				if !f.Has(col) {
					c.log.WithFields(logrus.Fields{"table": k, "column": col}).Debug("manual drop column absent")
				}
			}
			f = f.DropIfPresent(manual...)
		}
		t[k] = f
	}
	return nil
}

func (c *Cleaner) alignTimeOffset(t Tables) error {
	off := c.cfg.TimeOffset
	if off.Reference == "" {
		return nil
	}
	ref, ok := t[off.Reference]
	if !ok {
		c.log.WithField("table", off.Reference).Warn("time offset reference absent, not checked")
		return nil
	}
	refMax, err := maxTime(ref, off.Column)
	if err != nil {
		return err
	}

	aligned := true
	for _, key := range off.Others {
		other, ok := t[key]
		if !ok {
			aligned = false
			break
		}
		otherMax, err := maxTime(other, off.Column)
		if err != nil {
			return err
		}
		if otherMax.Sub(refMax) != off.Expected {
			aligned = false
			break
		}
	}
	if !aligned {
		c.log.WithFields(logrus.Fields{
			"table":    off.Reference,
			"expected": off.Expected,
		}).Warn("time offset does not match, timestamps left unchanged")
		return nil
	}

	s, err := ref.Column(off.Column)
	if err != nil {
		return err
	}
	shifted, err := s.Map(frame.KindTime, func(v any) any {
		if v == nil {
			return nil
		}
		return v.(time.Time).Add(off.Expected)
	})
	if err != nil {
		return err
	}
	out, err := ref.With(shifted)
	if err != nil {
		return err
	}
	t[off.Reference] = out
	c.log.WithFields(logrus.Fields{"table": off.Reference, "shift": off.Expected}).Info("timestamps shifted")
	return nil
}

func (c *Cleaner) sortByDay(t Tables) error {
	for _, key := range c.cfg.SortByDay {
		f, ok := t[key]
		if !ok {
			continue
		}
		col := c.cfg.DayColumns[key]
		if col == "" {
			col = "day"
		}
		sorted, err := f.SortBy(col)
		if err != nil {
			return err
		}
		t[key] = sorted
	}
	return nil
}

func maxTime(f *frame.Frame, col string) (time.Time, error) {
	s, err := f.Column(col)
	if err != nil {
		return time.Time{}, err
	}
	if s.Kind() != frame.KindTime {
		return time.Time{}, fmt.Errorf("%s.%s is %s, want time", f.Name(), col, s.Kind())
	}
	v, _ := s.MaxTime()
	return v, nil
}
