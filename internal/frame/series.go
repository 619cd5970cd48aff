// Package frame provides small immutable, typed, nullable tables used by every
// pipeline stage.
package frame

import (
	"fmt"
	"time"
)

// Kind is the storage type of a series.
type Kind uint8

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
	KindTime
	KindDuration
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	case KindDuration:
		return "duration"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Numeric reports whether values of the kind can be averaged.
func (k Kind) Numeric() bool {
	return k == KindInt || k == KindFloat || k == KindTime || k == KindDuration
}

// Series is a named column. A nil value is null; other values must match the kind:
// int64, float64, bool, string, time.Time or time.Duration.
type Series struct {
	name   string
	kind   Kind
	values []any
}

// NewSeries builds a series, checking every non-null value against kind.
func NewSeries(name string, kind Kind, values []any) (*Series, error) {
	for i, v := range values {
		if v == nil {
			continue
		}
		if !kindMatches(kind, v) {
			return nil, fmt.Errorf("series %q row %d: %T is not %s", name, i, v, kind)
		}
	}
	return &Series{name: name, kind: kind, values: values}, nil
}

// MustSeries is NewSeries that panics; meant for literals in tests and grids.
func MustSeries(name string, kind Kind, values ...any) *Series {
	s, err := NewSeries(name, kind, values)
	if err != nil {
		panic(err)
	}
	return s
}

// Times builds a time series with no nulls.
func Times(name string, values []time.Time) *Series {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return &Series{name: name, kind: KindTime, values: out}
}

func kindMatches(kind Kind, v any) bool {
	switch v.(type) {
	case int64:
		return kind == KindInt
	case float64:
		return kind == KindFloat
	case bool:
		return kind == KindBool
	case string:
		return kind == KindString
	case time.Time:
		return kind == KindTime
	case time.Duration:
		return kind == KindDuration
	}
	return false
}

func (s *Series) Name() string { return s.name }
func (s *Series) Kind() Kind   { return s.kind }
func (s *Series) Len() int     { return len(s.values) }

// At returns the raw value at row i, nil for null.
func (s *Series) At(i int) any { return s.values[i] }

// IsNull reports whether row i is null.
func (s *Series) IsNull(i int) bool { return s.values[i] == nil }

// Values returns a copy of the underlying values.
func (s *Series) Values() []any {
	out := make([]any, len(s.values))
	copy(out, s.values)
	return out
}

// Renamed returns the same data under another name.
func (s *Series) Renamed(name string) *Series {
	return &Series{name: name, kind: s.kind, values: s.values}
}

// Float returns row i as a float64. Int, time (unix seconds) and duration (seconds)
// values are converted; ok is false for nulls and non numeric kinds.
func (s *Series) Float(i int) (float64, bool) {
	switch v := s.values[i].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case time.Duration:
		return v.Seconds(), true
	case time.Time:
		return float64(v.UnixNano()) / 1e9, true
	}
	return 0, false
}

// Time returns row i as a time.Time.
func (s *Series) Time(i int) (time.Time, bool) {
	t, ok := s.values[i].(time.Time)
	return t, ok
}

// Duration returns row i as a time.Duration.
func (s *Series) Duration(i int) (time.Duration, bool) {
	d, ok := s.values[i].(time.Duration)
	return d, ok
}

// String returns row i as a string.
func (s *Series) String(i int) (string, bool) {
	v, ok := s.values[i].(string)
	return v, ok
}

// NullCount returns the number of null rows.
func (s *Series) NullCount() int {
	n := 0
	for _, v := range s.values {
		if v == nil {
			n++
		}
	}
	return n
}

// AllNull reports whether every row is null. An empty series is all null.
func (s *Series) AllNull() bool {
	return s.NullCount() == len(s.values)
}

// Unique returns the number of distinct non-null values.
func (s *Series) Unique() int {
	seen := make(map[any]struct{})
	for _, v := range s.values {
		if v == nil {
			continue
		}
		seen[cellKey(v)] = struct{}{}
	}
	return len(seen)
}

// Equal reports whether both series hold the same kind and values, nulls matching nulls.
// Names are not compared.
func (s *Series) Equal(o *Series) bool {
	if s.kind != o.kind || len(s.values) != len(o.values) {
		return false
	}
	for i := range s.values {
		if !cellEqual(s.values[i], o.values[i]) {
			return false
		}
	}
	return true
}

// Shift moves values by n rows: positive n moves them down, negative n moves them up.
// Vacated rows are null.
func (s *Series) Shift(n int) *Series {
	out := make([]any, len(s.values))
	for i := range out {
		j := i - n
		if j >= 0 && j < len(s.values) {
			out[i] = s.values[j]
		}
	}
	return &Series{name: s.name, kind: s.kind, values: out}
}

// Map applies fn to every row and returns a series of the given kind.
func (s *Series) Map(kind Kind, fn func(v any) any) (*Series, error) {
	out := make([]any, len(s.values))
	for i, v := range s.values {
		out[i] = fn(v)
	}
	return NewSeries(s.name, kind, out)
}

// Take returns the rows at the given indexes in order.
func (s *Series) Take(rows []int) *Series {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = s.values[r]
	}
	return &Series{name: s.name, kind: s.kind, values: out}
}

// MinTime and MaxTime return the extreme non-null times of a time series.
func (s *Series) MinTime() (time.Time, bool) {
	return s.extremeTime(func(a, b time.Time) bool { return a.Before(b) })
}

func (s *Series) MaxTime() (time.Time, bool) {
	return s.extremeTime(func(a, b time.Time) bool { return a.After(b) })
}

func (s *Series) extremeTime(better func(a, b time.Time) bool) (time.Time, bool) {
	var best time.Time
	found := false
	for _, v := range s.values {
		t, ok := v.(time.Time)
		if !ok {
			continue
		}
		if !found || better(t, best) {
			best, found = t, true
		}
	}
	return best, found
}

// cellKey normalizes a value so it can be used as a map key.
func cellKey(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UnixNano()
	}
	return v
}

func cellEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return a == b
}
