package pipeline

import (
	"math"
	"time"

	"github.com/emiliopalmerini/garminetl/internal/config"
	"github.com/emiliopalmerini/garminetl/internal/frame"
)

// roundColumns applies the display rounding. Columns absent from f, or of a kind the
// rule does not apply to, are left alone. Integer rounding yields int columns.
func roundColumns(f *frame.Frame, r config.Rounding) *frame.Frame {
	var out []*frame.Series
	for _, name := range r.OneDecimal {
		if s, ok := floatColumn(f, name); ok {
			out = append(out, mapFloat(s, frame.KindFloat, func(v float64) any {
				return math.RoundToEven(v*10) / 10
			}))
		}
	}
	f = with(f, out)

	out = nil
	for _, name := range r.Integer {
		if s, ok := floatColumn(f, name); ok {
			out = append(out, mapFloat(s, frame.KindInt, func(v float64) any {
				return int64(math.RoundToEven(v))
			}))
		}
	}
	f = with(f, out)

	return roundDurations(roundTimes(f, r.Seconds), r.Seconds)
}

func floatColumn(f *frame.Frame, name string) (*frame.Series, bool) {
	s, err := f.Column(name)
	if err != nil || s.Kind() != frame.KindFloat {
		return nil, false
	}
	return s, true
}

func mapFloat(s *frame.Series, kind frame.Kind, fn func(float64) any) *frame.Series {
	vals := make([]any, s.Len())
	for i := range vals {
		if v, ok := s.Float(i); ok {
			vals[i] = fn(v)
		}
	}
	return frame.MustSeries(s.Name(), kind, vals...)
}

func roundTimes(f *frame.Frame, cols []string) *frame.Frame {
	var out []*frame.Series
	for _, name := range cols {
		s, err := f.Column(name)
		if err != nil || s.Kind() != frame.KindTime {
			continue
		}
		r, _ := s.Map(frame.KindTime, func(v any) any {
			if v == nil {
				return nil
			}
			return v.(time.Time).Round(time.Second)
		})
		out = append(out, r)
	}
	return with(f, out)
}

// with replaces same-length columns built from f itself.
func with(f *frame.Frame, cols []*frame.Series) *frame.Frame {
	if len(cols) == 0 {
		return f
	}
	out, err := f.With(cols...)
	if err != nil {
		panic(err)
	}
	return out
}
