package pipeline

import (
	"fmt"

	"github.com/emiliopalmerini/garminetl/internal/frame"
)

// interpolate fills interior runs of at most limit null rows linearly between the
// measured values on either side. Blocked rows are never filled and never used as an
// anchor, so a run touching one stays null. Rows are assumed equally spaced.
func interpolate(values []float64, valid, blocked []bool, limit int) (out []float64, outValid, injected []bool) {
	n := len(values)
	out = make([]float64, n)
	outValid = make([]bool, n)
	injected = make([]bool, n)
	copy(out, values)
	for i := range values {
		outValid[i] = valid[i] && !blocked[i]
	}

	anchor := func(i int) bool { return i >= 0 && i < n && valid[i] && !blocked[i] }

	for i := 0; i < n; {
		if valid[i] || blocked[i] {
			i++
			continue
		}
		start := i
		for i < n && !valid[i] && !blocked[i] {
			i++
		}
		end := i // first row after the run
		length := end - start
		if length > limit || !anchor(start-1) || !anchor(end) {
			continue
		}
		lo, hi := values[start-1], values[end]
		step := (hi - lo) / float64(length+1)
		for k := 0; k < length; k++ {
			out[start+k] = lo + step*float64(k+1)
			outValid[start+k] = true
			injected[start+k] = true
		}
	}
	return out, outValid, injected
}

// interpolateSeries interpolates a numeric series and returns the filled series, as
// float, and its injected flags named <name>_injected. Rows where block returns true
// are nulled.
func interpolateSeries(s *frame.Series, limit int, block func(v float64) bool) (*frame.Series, *frame.Series, int64, error) {
	if s.Kind() != frame.KindInt && s.Kind() != frame.KindFloat {
		return nil, nil, 0, fmt.Errorf("cannot interpolate %s column %q", s.Kind(), s.Name())
	}
	n := s.Len()
	values := make([]float64, n)
	valid := make([]bool, n)
	blocked := make([]bool, n)
	for i := 0; i < n; i++ {
		v, ok := s.Float(i)
		if !ok {
			continue
		}
		values[i] = v
		valid[i] = true
		blocked[i] = block != nil && block(v)
	}

	out, outValid, injected := interpolate(values, valid, blocked, limit)

	filled := make([]any, n)
	flags := make([]any, n)
	var count int64
	for i := 0; i < n; i++ {
		if outValid[i] {
			filled[i] = out[i]
		}
		flags[i] = injected[i]
		if injected[i] {
			count++
		}
	}
	return frame.MustSeries(s.Name(), frame.KindFloat, filled...),
		frame.MustSeries(s.Name()+"_injected", frame.KindBool, flags...),
		count, nil
}
