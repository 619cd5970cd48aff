package pipeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/emiliopalmerini/garminetl/internal/config"
	"github.com/emiliopalmerini/garminetl/internal/frame"
)

// Running rollup columns added to the daily table.
const (
	ColRunningActivities = "running_activities"
	ColRunningCalories   = "running_calories"
	ColRunningDistance   = "running_distance"
)

// filterRunning keeps the running activities and the child rows that belong to them.
// Child tables absent from t are skipped.
func filterRunning(t Tables, acts *frame.Frame, cfg config.Activities) (Tables, error) {
	sport, err := acts.Column(cfg.Sport)
	if err != nil {
		return nil, err
	}
	running := acts.Filter(func(i int) bool {
		v, ok := sport.String(i)
		return ok && v == cfg.Running
	})
	running = running.DropIfPresent(cfg.RunningDrop...)
	running = roundDurations(running, cfg.RoundSeconds).Named(TableRunning)

	ids, err := running.Column(cfg.ID)
	if err != nil {
		return nil, err
	}
	keep := make(map[any]bool, ids.Len())
	for i := 0; i < ids.Len(); i++ {
		if v := ids.At(i); v != nil {
			keep[v] = true
		}
	}

	out := Tables{TableRunning: running}
	names := make([]string, 0, len(cfg.ChildTables))
	for name := range cfg.ChildTables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		child, ok := t[cfg.ChildTables[name]]
		if !ok {
			continue
		}
		cid, err := child.Column(cfg.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", child.Name(), err)
		}
		if cid.Kind() != ids.Kind() {
			return nil, fmt.Errorf("%s.%s is %s, activities use %s", child.Name(), cfg.ID, cid.Kind(), ids.Kind())
		}
		filtered := child.Filter(func(i int) bool {
			v := cid.At(i)
			return v != nil && keep[v]
		})
		out[name] = roundDurations(filtered, cfg.RoundSeconds).Named(name)
	}
	return out, nil
}

// roundDurations rounds the named duration columns to whole seconds. Other kinds and
// absent columns are left alone.
func roundDurations(f *frame.Frame, cols []string) *frame.Frame {
	var rounded []*frame.Series
	for _, name := range cols {
		s, err := f.Column(name)
		if err != nil || s.Kind() != frame.KindDuration {
			continue
		}
		r, _ := s.Map(frame.KindDuration, func(v any) any {
			if v == nil {
				return nil
			}
			return v.(time.Duration).Round(time.Second)
		})
		rounded = append(rounded, r)
	}
	return with(f, rounded)
}

// addRunningRollup adds per day running totals to days, zero on days without a run,
// and removes the columns the rollup replaces.
func addRunningRollup(days *frame.Frame, key string, running *frame.Frame, cfg config.Activities) (*frame.Frame, error) {
	type totals struct {
		count    int64
		calories float64
		distance float64
	}
	byDay := map[int64]*totals{}

	if running != nil {
		start, err := running.Column(cfg.Start)
		if err != nil {
			return nil, err
		}
		calories, err := running.Column(cfg.Calories)
		if err != nil {
			return nil, err
		}
		distance, err := running.Column(cfg.Distance)
		if err != nil {
			return nil, err
		}
		for i := 0; i < running.Len(); i++ {
			st, ok := start.Time(i)
			if !ok {
				continue
			}
			d := frame.TruncateDay(st).UnixNano()
			tot := byDay[d]
			if tot == nil {
				tot = &totals{}
				byDay[d] = tot
			}
			tot.count++
			if v, ok := calories.Float(i); ok {
				tot.calories += v
			}
			if v, ok := distance.Float(i); ok {
				tot.distance += v
			}
		}
	}

	k, err := days.Column(key)
	if err != nil {
		return nil, err
	}
	n := days.Len()
	count, cal, dist := make([]any, n), make([]any, n), make([]any, n)
	for i := 0; i < n; i++ {
		count[i], cal[i], dist[i] = int64(0), 0.0, 0.0
		day, ok := k.Time(i)
		if !ok {
			continue
		}
		if tot := byDay[day.UnixNano()]; tot != nil {
			count[i], cal[i], dist[i] = tot.count, tot.calories, tot.distance
		}
	}
	out, err := days.With(
		frame.MustSeries(ColRunningActivities, frame.KindInt, count...),
		frame.MustSeries(ColRunningCalories, frame.KindFloat, cal...),
		frame.MustSeries(ColRunningDistance, frame.KindFloat, dist...),
	)
	if err != nil {
		return nil, err
	}
	return out.DropIfPresent(cfg.DailyReplaced...), nil
}
