package frame

import (
	"fmt"
	"time"
)

// Suffixes renames overlapping non key columns in a join.
type Suffixes struct {
	Left  string
	Right string
}

// DefaultSuffixes matches the usual _x/_y convention.
var DefaultSuffixes = Suffixes{Left: "_x", Right: "_y"}

// LeftJoin keeps every row of f, in order, and appends the columns of right whose key
// matches. A left row with several matches is repeated once per match; a left row with
// none gets nulls. Both key columns must share a kind.
func (f *Frame) LeftJoin(right *Frame, on string, sfx Suffixes) (*Frame, error) {
	lk, err := f.Column(on)
	if err != nil {
		return nil, err
	}
	rk, err := right.Column(on)
	if err != nil {
		return nil, err
	}
	if lk.Kind() != rk.Kind() {
		return nil, fmt.Errorf("join %s with %s on %q: key kinds %s and %s differ", f.name, right.name, on, lk.Kind(), rk.Kind())
	}

	matches := make(map[any][]int, rk.Len())
	for i := 0; i < rk.Len(); i++ {
		v := rk.At(i)
		if v == nil {
			continue
		}
		k := cellKey(v)
		matches[k] = append(matches[k], i)
	}

	var leftRows, rightRows []int
	for i := 0; i < lk.Len(); i++ {
		v := lk.At(i)
		var hits []int
		if v != nil {
			hits = matches[cellKey(v)]
		}
		if len(hits) == 0 {
			leftRows = append(leftRows, i)
			rightRows = append(rightRows, -1)
			continue
		}
		for _, r := range hits {
			leftRows = append(leftRows, i)
			rightRows = append(rightRows, r)
		}
	}

	cols := make([]*Series, 0, len(f.cols)+len(right.cols)-1)
	for _, c := range f.cols {
		s := c.Take(leftRows)
		if c.Name() != on && right.Has(c.Name()) {
			s = s.Renamed(c.Name() + sfx.Left)
		}
		cols = append(cols, s)
	}
	for _, c := range right.cols {
		if c.Name() == on {
			continue
		}
		out := make([]any, len(rightRows))
		for i, r := range rightRows {
			if r >= 0 {
				out[i] = c.At(r)
			}
		}
		name := c.Name()
		if f.Has(name) {
			name += sfx.Right
		}
		cols = append(cols, &Series{name: name, kind: c.Kind(), values: out})
	}
	joined, err := New(f.name, cols...)
	if err != nil {
		return nil, err
	}
	joined.rows = len(leftRows)
	return joined, nil
}

// TimeGrid returns a time series from start to end inclusive in steps of step.
func TimeGrid(name string, start, end time.Time, step time.Duration) *Series {
	var ts []time.Time
	for t := start; !t.After(end); t = t.Add(step) {
		ts = append(ts, t)
	}
	return Times(name, ts)
}

// DayGrid returns one midnight per calendar day from start to end inclusive.
func DayGrid(name string, start, end time.Time) *Series {
	var ts []time.Time
	first := TruncateDay(start)
	last := TruncateDay(end)
	for t := first; !t.After(last); t = t.AddDate(0, 0, 1) {
		ts = append(ts, t)
	}
	return Times(name, ts)
}

// TruncateDay returns midnight of t's calendar day in t's location.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
