package frame

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// ErrColumnNotFound is returned when an expected column is absent.
	ErrColumnNotFound = errors.New("column not found")
	// ErrLengthMismatch is returned when series of different lengths are combined.
	ErrLengthMismatch = errors.New("series length mismatch")
)

// Frame is an immutable named table. Methods that change shape return a new Frame
// sharing unchanged series with the receiver.
type Frame struct {
	name  string
	cols  []*Series
	index map[string]int
	rows  int
}

// New builds a frame from series of equal length. Later series with a duplicate
// name replace earlier ones.
func New(name string, cols ...*Series) (*Frame, error) {
	f := &Frame{name: name, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if i == 0 {
			f.rows = c.Len()
		} else if c.Len() != f.rows {
			return nil, fmt.Errorf("%w: %s.%s has %d rows, want %d", ErrLengthMismatch, name, c.Name(), c.Len(), f.rows)
		}
		if j, ok := f.index[c.Name()]; ok {
			f.cols[j] = c
			continue
		}
		f.index[c.Name()] = len(f.cols)
		f.cols = append(f.cols, c)
	}
	return f, nil
}

// Must is New that panics.
func Must(name string, cols ...*Series) *Frame {
	f, err := New(name, cols...)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Frame) Name() string { return f.name }
func (f *Frame) Len() int     { return f.rows }
func (f *Frame) Width() int   { return len(f.cols) }

// Named returns the frame under a different name.
func (f *Frame) Named(name string) *Frame {
	return &Frame{name: name, cols: f.cols, index: f.index, rows: f.rows}
}

// Names returns the column names in order.
func (f *Frame) Names() []string {
	out := make([]string, len(f.cols))
	for i, c := range f.cols {
		out[i] = c.Name()
	}
	return out
}

// Series returns the columns in order.
func (f *Frame) Series() []*Series {
	out := make([]*Series, len(f.cols))
	copy(out, f.cols)
	return out
}

// Has reports whether a column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Column returns the named column or ErrColumnNotFound.
func (f *Frame) Column(name string) (*Series, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrColumnNotFound, f.name, name)
	}
	return f.cols[i], nil
}

// With returns a frame with the series appended, or replacing the column of the same name
// in place.
func (f *Frame) With(cols ...*Series) (*Frame, error) {
	all := make([]*Series, 0, len(f.cols)+len(cols))
	all = append(all, f.cols...)
	all = append(all, cols...)
	if len(f.cols) == 0 && len(cols) > 0 {
		return New(f.name, all...)
	}
	for _, c := range cols {
		if c.Len() != f.rows {
			return nil, fmt.Errorf("%w: %s.%s has %d rows, want %d", ErrLengthMismatch, f.name, c.Name(), c.Len(), f.rows)
		}
	}
	return New(f.name, all...)
}

// Select returns the named columns in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	cols := make([]*Series, 0, len(names))
	for _, n := range names {
		c, err := f.Column(n)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	out, err := New(f.name, cols...)
	if err != nil {
		return nil, err
	}
	out.rows = f.rows
	return out, nil
}

// Drop removes the named columns; every name must exist.
func (f *Frame) Drop(names ...string) (*Frame, error) {
	for _, n := range names {
		if !f.Has(n) {
			return nil, fmt.Errorf("%w: %s.%s", ErrColumnNotFound, f.name, n)
		}
	}
	return f.DropIfPresent(names...), nil
}

// DropIfPresent removes the named columns that exist and ignores the rest.
func (f *Frame) DropIfPresent(names ...string) *Frame {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := make([]*Series, 0, len(f.cols))
	for _, c := range f.cols {
		if !drop[c.Name()] {
			kept = append(kept, c)
		}
	}
	out := Must(f.name, kept...)
	out.rows = f.rows
	return out
}

// Rename renames columns using old -> new pairs. Unknown old names are ignored.
func (f *Frame) Rename(mapping map[string]string) *Frame {
	cols := make([]*Series, len(f.cols))
	for i, c := range f.cols {
		if n, ok := mapping[c.Name()]; ok {
			cols[i] = c.Renamed(n)
		} else {
			cols[i] = c
		}
	}
	out := Must(f.name, cols...)
	out.rows = f.rows
	return out
}

// Take returns the given rows in order.
func (f *Frame) Take(rows []int) *Frame {
	cols := make([]*Series, len(f.cols))
	for i, c := range f.cols {
		cols[i] = c.Take(rows)
	}
	out := Must(f.name, cols...)
	out.rows = len(rows)
	return out
}

// Filter keeps the rows for which keep returns true.
func (f *Frame) Filter(keep func(row int) bool) *Frame {
	rows := make([]int, 0, f.rows)
	for i := 0; i < f.rows; i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return f.Take(rows)
}

// SortBy returns the frame stably sorted ascending on a column. Nulls sort last.
func (f *Frame) SortBy(name string) (*Frame, error) {
	c, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	rows := make([]int, f.rows)
	for i := range rows {
		rows[i] = i
	}
	sort.SliceStable(rows, func(a, b int) bool {
		return less(c.At(rows[a]), c.At(rows[b]))
	})
	return f.Take(rows), nil
}

// Row returns row i as a column name -> value map.
func (f *Frame) Row(i int) map[string]any {
	out := make(map[string]any, len(f.cols))
	for _, c := range f.cols {
		out[c.Name()] = c.At(i)
	}
	return out
}

// Equal reports whether both frames have the same columns in the same order with equal
// series. Frame names are not compared.
func (f *Frame) Equal(o *Frame) bool {
	if f.rows != o.rows || len(f.cols) != len(o.cols) {
		return false
	}
	for i, c := range f.cols {
		if c.Name() != o.cols[i].Name() || !c.Equal(o.cols[i]) {
			return false
		}
	}
	return true
}

// DuplicateRows returns the indexes of rows that repeat an earlier row exactly.
func (f *Frame) DuplicateRows() []int {
	seen := make(map[string]struct{}, f.rows)
	var dups []int
	for i := 0; i < f.rows; i++ {
		k := f.rowKey(i)
		if _, ok := seen[k]; ok {
			dups = append(dups, i)
			continue
		}
		seen[k] = struct{}{}
	}
	return dups
}

func (f *Frame) rowKey(i int) string {
	var b strings.Builder
	for _, c := range f.cols {
		v := c.At(i)
		if v == nil {
			b.WriteString("\x00null")
		} else {
			fmt.Fprintf(&b, "\x00%v", cellKey(v))
		}
	}
	return b.String()
}

func less(a, b any) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	switch x := a.(type) {
	case int64:
		return x < b.(int64)
	case float64:
		return x < b.(float64)
	case string:
		return x < b.(string)
	case bool:
		return !x && b.(bool)
	case time.Time:
		return x.Before(b.(time.Time))
	case time.Duration:
		return x < b.(time.Duration)
	}
	return false
}
