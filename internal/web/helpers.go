package web

import (
	"fmt"
	"math"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/emiliopalmerini/garminetl/internal/frame"
	"github.com/emiliopalmerini/garminetl/internal/goals"
	"github.com/emiliopalmerini/garminetl/internal/util"
)

const (
	minCoef = -2.0
	maxCoef = 2.0
)

// parseWeekStart reads a YYYY-MM-DD Monday, defaulting to the Monday on or before now.
func parseWeekStart(q url.Values, now time.Time) (time.Time, error) {
	raw := q.Get("start")
	if raw == "" {
		return util.MostRecentMonday(now), nil
	}
	t, err := time.Parse(frame.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: start %q is not a date", errBadRequest, raw)
	}
	if t.Weekday() != time.Monday {
		return time.Time{}, fmt.Errorf("%w: start %s is a %s, want a Monday", errBadRequest, raw, t.Weekday())
	}
	return t, nil
}

// parseCoef reads the goal multiplier, rounded to the slider step of 0.1.
func parseCoef(q url.Values, def float64) (float64, error) {
	raw := q.Get("coef")
	if raw == "" {
		return def, nil
	}
	c, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(c) {
		return 0, fmt.Errorf("%w: coef %q is not a number", errBadRequest, raw)
	}
	if c < minCoef || c > maxCoef {
		return 0, fmt.Errorf("%w: coef %v outside [%v, %v]", errBadRequest, c, minCoef, maxCoef)
	}
	return math.Round(c*10) / 10, nil
}

// parseYear reads the reference year, which must be one of years.
func parseYear(q url.Values, years []int, def int) (int, error) {
	raw := q.Get("year")
	if raw == "" {
		return goals.ReferenceYear(years, def), nil
	}
	y, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: year %q is not a number", errBadRequest, raw)
	}
	if !slices.Contains(years, y) {
		return 0, fmt.Errorf("%w: no data for year %d", errBadRequest, y)
	}
	return y, nil
}

// formatValue renders a metric value in its display unit.
func formatValue(m goals.Metric, v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	switch {
	case m.Clock:
		return util.FormatClock(v * 60)
	case m.Unit == goals.Minutes:
		return util.FormatDuration(v * 60)
	case m.Unit == goals.Hours:
		return util.FormatDuration(v * 3600)
	case math.Abs(v) >= 10000:
		return util.FormatNumber(int64(math.Round(v)))
	case v == math.Trunc(v):
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// formatDelta renders value - goal with an explicit sign.
func formatDelta(m goals.Metric, value, goal float64) string {
	d := value - goal
	sign := "+"
	if d < 0 {
		sign = "-"
	}
	abs := math.Abs(d)
	if m.Clock {
		// A clock delta is a plain duration.
		return sign + util.FormatDuration(abs*60)
	}
	return sign + formatValue(m, abs)
}

// chartUnit labels a chart axis.
func chartUnit(m goals.Metric) string {
	if m.Clock {
		return "min from midnight"
	}
	return m.Unit.String()
}

// metricValues returns the metric's display values for every row of f.
func metricValues(f *frame.Frame, m goals.Metric) ([]float64, []bool) {
	vals := make([]float64, f.Len())
	valid := make([]bool, f.Len())
	s, err := f.Column(m.Column)
	if err != nil {
		return vals, valid
	}
	for i := range vals {
		vals[i], valid[i] = m.Value(s, i)
	}
	return vals, valid
}

// summarize averages the valid values, or sums them when sum is set.
func summarize(vals []float64, valid []bool, sum bool) (float64, bool) {
	var total float64
	n := 0
	for i, v := range vals {
		if valid[i] {
			total += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	if sum {
		return total, true
	}
	return total / float64(n), true
}
