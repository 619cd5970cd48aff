package pipeline

import (
	"sort"
	"time"

	"github.com/emiliopalmerini/garminetl/internal/config"
	"github.com/emiliopalmerini/garminetl/internal/frame"
)

// insufficientDays returns the calendar days whose count of minutes missing any of
// the signals exceeds threshold times the minutes in a day.
func insufficientDays(mon *frame.Frame, key string, signals []string, cfg config.Sufficiency) (map[int64]bool, error) {
	ts, err := mon.Column(key)
	if err != nil {
		return nil, err
	}
	cols := make([]*frame.Series, 0, len(signals))
	for _, name := range signals {
		s, err := mon.Column(name)
		if err != nil {
			return nil, err
		}
		cols = append(cols, s)
	}

	missing := map[int64]int{}
	for i := 0; i < mon.Len(); i++ {
		t, ok := ts.Time(i)
		if !ok {
			continue
		}
		for _, s := range cols {
			if s.IsNull(i) {
				missing[frame.TruncateDay(t).UnixNano()]++
				break
			}
		}
	}

	limit := cfg.Threshold * float64(cfg.MinutesPerDay)
	out := map[int64]bool{}
	for day, n := range missing {
		if float64(n) > limit {
			out[day] = true
		}
	}
	return out, nil
}

// filterDays removes the insufficient days and every day missing an essential
// column. The removed days are returned in order.
func filterDays(days *frame.Frame, key string, insufficient map[int64]bool, essential []string) (*frame.Frame, []time.Time, error) {
	k, err := days.Column(key)
	if err != nil {
		return nil, nil, err
	}
	cols := make([]*frame.Series, 0, len(essential))
	for _, name := range essential {
		s, err := days.Column(name)
		if err != nil {
			return nil, nil, err
		}
		cols = append(cols, s)
	}

	var removed []time.Time
	out := days.Filter(func(i int) bool {
		t, ok := k.Time(i)
		if !ok {
			return false
		}
		drop := insufficient[t.UnixNano()]
		for _, s := range cols {
			if drop {
				break
			}
			drop = s.IsNull(i)
		}
		if drop {
			removed = append(removed, t)
		}
		return !drop
	})
	sort.Slice(removed, func(a, b int) bool { return removed[a].Before(removed[b]) })
	return out, removed, nil
}
