package pipeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/emiliopalmerini/garminetl/internal/config"
	"github.com/emiliopalmerini/garminetl/internal/frame"
)

// Calendar columns added to the minute grid.
const (
	colYear       = "year"
	colMonth      = "month"
	colDay        = "day"
	colDayOfWeek  = "day_of_week"
	colWeekOfYear = "week_of_year"
	colInActivity = "in_activity"
	colActivityID = "activity_id"
)

// mergeMonitoring joins the monitoring signals onto a minute grid spanning all of
// them, adds calendar columns and the activity sentinel flag, and interpolates short
// gaps. It returns the injected count per signal column.
func mergeMonitoring(t Tables, cfg config.Monitoring) (*frame.Frame, map[string]int64, error) {
	var (
		sources     []*frame.Frame
		first, last time.Time
		found       bool
	)
	for _, sig := range cfg.Signals() {
		src, err := t.Get(sig.Table)
		if err != nil {
			return nil, nil, err
		}
		src, err = src.Select(cfg.Key, sig.Column)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", sig.Table, err)
		}
		key, _ := src.Column(cfg.Key)
		if key.Kind() != frame.KindTime {
			return nil, nil, fmt.Errorf("%s.%s is %s, want time", sig.Table, cfg.Key, key.Kind())
		}
		if lo, ok := key.MinTime(); ok {
			hi, _ := key.MaxTime()
			if !found || lo.Before(first) {
				first = lo
			}
			if !found || hi.After(last) {
				last = hi
			}
			found = true
		}
		sources = append(sources, firstPerKey(src, cfg.Key))
	}
	if !found {
		return nil, nil, fmt.Errorf("monitoring sources have no timestamps")
	}

	merged := frame.Must(TableMonitoring, frame.TimeGrid(cfg.Key, first, last, time.Minute))
	for _, src := range sources {
		var err error
		merged, err = merged.LeftJoin(src, cfg.Key, frame.DefaultSuffixes)
		if err != nil {
			return nil, nil, err
		}
	}

	merged, err := withCalendar(merged, cfg.Key)
	if err != nil {
		return nil, nil, err
	}

	stress, err := merged.Column(cfg.Stress.Column)
	if err != nil {
		return nil, nil, err
	}
	merged, err = merged.With(inActivity(stress))
	if err != nil {
		return nil, nil, err
	}

	injected := make(map[string]int64, 3)
	for _, sig := range cfg.Signals() {
		s, err := merged.Column(sig.Column)
		if err != nil {
			return nil, nil, err
		}
		var block func(float64) bool
		if sig.Column == cfg.Stress.Column {
			block = func(v float64) bool { return v < 0 }
		}
		filled, flags, n, err := interpolateSeries(s, cfg.InterpolationLimit, block)
		if err != nil {
			return nil, nil, err
		}
		merged, err = merged.With(filled, flags)
		if err != nil {
			return nil, nil, err
		}
		injected[sig.Column] = n
	}
	return merged, injected, nil
}

// firstPerKey keeps the first row of every key value.
func firstPerKey(f *frame.Frame, key string) *frame.Frame {
	k, err := f.Column(key)
	if err != nil {
		return f
	}
	seen := make(map[int64]bool, k.Len())
	return f.Filter(func(i int) bool {
		t, ok := k.Time(i)
		if !ok {
			return false
		}
		if seen[t.UnixNano()] {
			return false
		}
		seen[t.UnixNano()] = true
		return true
	})
}

func withCalendar(f *frame.Frame, key string) (*frame.Frame, error) {
	ts, err := f.Column(key)
	if err != nil {
		return nil, err
	}
	n := ts.Len()
	year, month, day := make([]any, n), make([]any, n), make([]any, n)
	dow, week := make([]any, n), make([]any, n)
	for i := 0; i < n; i++ {
		t, ok := ts.Time(i)
		if !ok {
			continue
		}
		_, w := t.ISOWeek()
		year[i] = int64(t.Year())
		month[i] = int64(t.Month())
		day[i] = int64(t.Day())
		// Monday is 0.
		dow[i] = int64((t.Weekday() + 6) % 7)
		week[i] = int64(w)
	}
	return f.With(
		frame.MustSeries(colYear, frame.KindInt, year...),
		frame.MustSeries(colMonth, frame.KindInt, month...),
		frame.MustSeries(colDay, frame.KindInt, day...),
		frame.MustSeries(colDayOfWeek, frame.KindInt, dow...),
		frame.MustSeries(colWeekOfYear, frame.KindInt, week...),
	)
}

// inActivity flags the stress sentinels: 2 for -2, 1 for -1, otherwise 0.
func inActivity(stress *frame.Series) *frame.Series {
	out := make([]any, stress.Len())
	for i := range out {
		v, ok := stress.Float(i)
		switch {
		case ok && v == -2:
			out[i] = int64(2)
		case ok && v == -1:
			out[i] = int64(1)
		default:
			out[i] = int64(0)
		}
	}
	return frame.MustSeries(colInActivity, frame.KindInt, out...)
}

// tagActivities sets activity_id on every minute inside an activity's start and stop
// times, inclusive. Activities are applied in table order, so a later overlapping
// activity wins.
func tagActivities(mon *frame.Frame, key string, acts *frame.Frame, cfg config.Activities) (*frame.Frame, error) {
	ts, err := mon.Column(key)
	if err != nil {
		return nil, err
	}
	if acts == nil {
		return mon.With(frame.MustSeries(colActivityID, frame.KindString, make([]any, mon.Len())...))
	}
	ids, err := acts.Column(cfg.ID)
	if err != nil {
		return nil, err
	}
	starts, err := acts.Column(cfg.Start)
	if err != nil {
		return nil, err
	}
	stops, err := acts.Column(cfg.Stop)
	if err != nil {
		return nil, err
	}

	n := ts.Len()
	times := make([]time.Time, n)
	for i := 0; i < n; i++ {
		times[i], _ = ts.Time(i)
	}
	tags := make([]any, n)
	for a := 0; a < acts.Len(); a++ {
		start, ok1 := starts.Time(a)
		stop, ok2 := stops.Time(a)
		id := ids.At(a)
		if !ok1 || !ok2 || id == nil {
			continue
		}
		i := sort.Search(n, func(i int) bool { return !times[i].Before(start) })
		for ; i < n && !times[i].After(stop); i++ {
			tags[i] = id
		}
	}
	col, err := frame.NewSeries(colActivityID, ids.Kind(), tags)
	if err != nil {
		return nil, err
	}
	return mon.With(col)
}
