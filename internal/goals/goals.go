// Package goals derives goal thresholds from the resampled tables.
package goals

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/emiliopalmerini/garminetl/internal/frame"
	"github.com/emiliopalmerini/garminetl/internal/util"
)

// ErrNoData is returned when a table has no bucket eligible for goals.
var ErrNoData = errors.New("no eligible buckets")

// Direction tells whether a metric improves upward or downward.
type Direction int

const (
	HigherIsBetter Direction = iota
	LowerIsBetter
)

// Unit converts a stored value for display.
type Unit int

const (
	Count Unit = iota
	Minutes
	Hours
)

func (u Unit) String() string {
	switch u {
	case Minutes:
		return "min"
	case Hours:
		return "h"
	}
	return ""
}

// Metric is one goal-tracked column.
type Metric struct {
	Column    string
	Label     string
	Group     string
	Direction Direction
	Unit      Unit
	// Clock marks offsets from midnight shown as a time of day.
	Clock bool
}

// Value returns row i of s in the metric's unit. Durations are converted from
// seconds; ok is false for nulls.
func (m Metric) Value(s *frame.Series, i int) (float64, bool) {
	v, ok := s.Float(i)
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	if s.Kind() != frame.KindDuration {
		return v, true
	}
	switch m.Unit {
	case Minutes:
		return v / 60, true
	case Hours:
		return v / 3600, true
	}
	return v, true
}

// Met reports whether value reaches goal.
func (m Metric) Met(value, goal float64) bool {
	if m.Direction == LowerIsBetter {
		return value <= goal
	}
	return value >= goal
}

// DefaultMetrics are the dashboard goals, grouped by section.
var DefaultMetrics = []Metric{
	{Column: "steps", Label: "Daily steps", Group: "Moderate activity"},
	{Column: "calories", Label: "Daily calories", Group: "Moderate activity"},
	{Column: "moderate_activity_time", Label: "Moderate activity", Group: "Moderate activity", Unit: Minutes},
	{Column: "vigorous_activity_time", Label: "Vigorous activity", Group: "Vigorous activity", Unit: Minutes},
	{Column: "running_activities", Label: "Running sessions", Group: "Vigorous activity"},
	{Column: "running_distance", Label: "Running distance", Group: "Vigorous activity"},
	{Column: "resting_hr", Label: "Resting heart rate", Group: "Rest", Direction: LowerIsBetter},
	{Column: "stress_avg", Label: "Average stress", Group: "Rest", Direction: LowerIsBetter},
	{Column: "bb_min", Label: "Body battery low", Group: "Rest"},
	{Column: "bb_charged", Label: "Body battery charged", Group: "Sleep"},
	{Column: "bb_max", Label: "Body battery high", Group: "Sleep"},
	{Column: "start_sleep_time", Label: "Bedtime", Group: "Sleep", Direction: LowerIsBetter, Unit: Minutes, Clock: true},
	{Column: "total_sleep", Label: "Total sleep", Group: "Sleep", Unit: Hours},
	{Column: "deep_sleep", Label: "Deep sleep", Group: "Sleep", Unit: Hours},
	{Column: "rem_sleep", Label: "REM sleep", Group: "Sleep", Unit: Hours},
	{Column: "awake", Label: "Awake", Group: "Sleep", Direction: LowerIsBetter, Unit: Hours},
	{Column: "avg_rr_sleep", Label: "Sleep respiration", Group: "Sleep"},
}

// Goal is the threshold computed for one metric.
type Goal struct {
	Metric Metric
	// Mean over the reference year buckets.
	Mean float64
	// Sample standard deviation over all buckets.
	Std  float64
	Goal float64
	// Buckets in the reference year.
	Samples int
}

// Valid reports whether the reference year had data for the metric.
func (g Goal) Valid() bool { return g.Samples > 0 && !math.IsNaN(g.Goal) }

// Eligible keeps the buckets built from at least minDays days.
func Eligible(f *frame.Frame, countCol string, minDays int) (*frame.Frame, error) {
	counts, err := f.Column(countCol)
	if err != nil {
		return nil, err
	}
	return f.Filter(func(i int) bool {
		return util.CellInt(counts.At(i)) >= int64(minDays)
	}), nil
}

// Compute derives goal = mean ± coef·std for each metric, the sign set by the
// metric's direction. key is the bucket label column used to find the reference year.
// Metrics missing from f are skipped.
func Compute(f *frame.Frame, key string, year int, coef float64, metrics []Metric) ([]Goal, error) {
	if f.Len() == 0 {
		return nil, ErrNoData
	}
	labels, err := f.Column(key)
	if err != nil {
		return nil, err
	}
	if labels.Kind() != frame.KindTime {
		return nil, fmt.Errorf("bucket column %q is %s, want time", key, labels.Kind())
	}

	out := make([]Goal, 0, len(metrics))
	for _, m := range metrics {
		s, err := f.Column(m.Column)
		if err != nil {
			continue
		}
		var all, ref []float64
		for i := 0; i < f.Len(); i++ {
			v, ok := m.Value(s, i)
			if !ok {
				continue
			}
			all = append(all, v)
			if t, ok := labels.Time(i); ok && t.Year() == year {
				ref = append(ref, v)
			}
		}
		g := Goal{Metric: m, Mean: mean(ref), Std: stddev(all), Samples: len(ref)}
		if m.Direction == LowerIsBetter {
			g.Goal = g.Mean - coef*g.Std
		} else {
			g.Goal = g.Mean + coef*g.Std
		}
		out = append(out, g)
	}
	return out, nil
}

// YearMean averages a metric over the buckets labelled in year.
func YearMean(f *frame.Frame, key string, year int, m Metric) (float64, bool) {
	labels, err := f.Column(key)
	if err != nil {
		return 0, false
	}
	s, err := f.Column(m.Column)
	if err != nil {
		return 0, false
	}
	var vals []float64
	for i := 0; i < f.Len(); i++ {
		t, ok := labels.Time(i)
		if !ok || t.Year() != year {
			continue
		}
		if v, ok := m.Value(s, i); ok {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return 0, false
	}
	return mean(vals), true
}

// Years returns the distinct label years in ascending order.
func Years(f *frame.Frame, key string) []int {
	labels, err := f.Column(key)
	if err != nil {
		return nil
	}
	first, ok := labels.MinTime()
	if !ok {
		return nil
	}
	last, _ := labels.MaxTime()
	seen := map[int]bool{}
	for i := 0; i < labels.Len(); i++ {
		if t, ok := labels.Time(i); ok {
			seen[t.Year()] = true
		}
	}
	var out []int
	for y := first.Year(); y <= last.Year(); y++ {
		if seen[y] {
			out = append(out, y)
		}
	}
	return out
}

// ReferenceYear returns preferred when it has data, else the year before the latest one.
func ReferenceYear(years []int, preferred int) int {
	switch {
	case len(years) == 0:
		return preferred
	case slices.Contains(years, preferred):
		return preferred
	case len(years) == 1:
		return years[0]
	}
	return years[len(years)-2]
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

// stddev is the sample standard deviation; NaN below two values.
func stddev(v []float64) float64 {
	if len(v) < 2 {
		return math.NaN()
	}
	m := mean(v)
	var ss float64
	for _, x := range v {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(v)-1))
}
