package frame

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the layout of calendar day columns.
const DateLayout = "2006-01-02"

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04",
	DateLayout,
}

// ParseTimestamp parses the timestamp shapes found in the source databases. Values
// are naive wall clock and are returned in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return naive(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ParseTimestampLayout parses s with an explicit layout.
func ParseTimestampLayout(layout, s string) (time.Time, error) {
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		// Fractional seconds are common even when the layout omits them.
		if t2, err2 := ParseTimestamp(s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return naive(t), nil
}

// ParseDuration parses "HH:MM:SS[.ffffff]" with an optional "N days " or "N day, " prefix.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	var days int64
	if i := strings.Index(s, "day"); i > 0 {
		n, err := strconv.ParseInt(strings.TrimSpace(s[:i]), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		days = n
		s = strings.TrimLeft(s[i+3:], "s, ")
	}
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	h, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration hours %q: %w", s, err)
	}
	m, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration minutes %q: %w", s, err)
	}
	sec, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration seconds %q: %w", s, err)
	}
	total := time.Duration(days)*24*time.Hour +
		time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(math.Round(sec*1e6))*time.Microsecond
	return total, nil
}

// ToTime coerces a column to KindTime. Strings are parsed with layout, or with the
// tolerant parser when layout is empty. Existing times are kept. A value that does
// not parse is an error.
func ToTime(s *Series, layout string) (*Series, error) {
	if s.kind == KindTime {
		return s, nil
	}
	out := make([]any, s.Len())
	for i, v := range s.values {
		if v == nil {
			continue
		}
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("column %q row %d: cannot convert %s to time", s.name, i, s.kind)
		}
		if str == "" {
			continue
		}
		var (
			t   time.Time
			err error
		)
		if layout == "" {
			t, err = ParseTimestamp(str)
		} else {
			t, err = ParseTimestampLayout(layout, str)
		}
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", s.name, i, err)
		}
		out[i] = t
	}
	return &Series{name: s.name, kind: KindTime, values: out}, nil
}

// ToDuration coerces a string column to KindDuration.
func ToDuration(s *Series) (*Series, error) {
	if s.kind == KindDuration {
		return s, nil
	}
	out := make([]any, s.Len())
	for i, v := range s.values {
		if v == nil {
			continue
		}
		var (
			d   time.Duration
			err error
		)
		switch x := v.(type) {
		case string:
			if x == "" {
				continue
			}
			d, err = ParseDuration(x)
		case float64:
			d = time.Duration(x * float64(time.Second))
		case int64:
			d = time.Duration(x) * time.Second
		default:
			err = fmt.Errorf("cannot convert %T to duration", v)
		}
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", s.name, i, err)
		}
		out[i] = d
	}
	return &Series{name: s.name, kind: KindDuration, values: out}, nil
}

// TryNumeric converts a string column to int, or float when any value has a fraction.
// ok is false, and s is returned unchanged, when any non-null value does not parse or
// every value is null.
func TryNumeric(s *Series) (*Series, bool) {
	if s.kind != KindString {
		return s, false
	}
	ints := make([]any, s.Len())
	floats := make([]any, s.Len())
	isInt := true
	seen := false
	for i, v := range s.values {
		if v == nil {
			continue
		}
		str := strings.TrimSpace(v.(string))
		if n, err := strconv.ParseInt(str, 10, 64); err == nil {
			ints[i] = n
			floats[i] = float64(n)
			seen = true
			continue
		}
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return s, false
		}
		isInt = false
		floats[i] = f
		seen = true
	}
	if !seen {
		return s, false
	}
	if isInt {
		return &Series{name: s.name, kind: KindInt, values: ints}, true
	}
	return &Series{name: s.name, kind: KindFloat, values: floats}, true
}

// TryTime converts a string column to time when every non-null value parses.
func TryTime(s *Series) (*Series, bool) {
	if s.kind != KindString {
		return s, false
	}
	out := make([]any, s.Len())
	seen := false
	for i, v := range s.values {
		if v == nil {
			continue
		}
		t, err := ParseTimestamp(v.(string))
		if err != nil {
			return s, false
		}
		out[i] = t
		seen = true
	}
	if !seen {
		return s, false
	}
	return &Series{name: s.name, kind: KindTime, values: out}, true
}

func naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
