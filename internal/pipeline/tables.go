// Package pipeline implements the extract, clean and transform stages over table
// snapshots.
package pipeline

import (
	"errors"
	"fmt"
	"sort"

	"github.com/emiliopalmerini/garminetl/internal/frame"
)

// Stage names double as the snapshot directories.
const (
	StageRaw       = "raw"
	StageInterim   = "interim"
	StageProcessed = "processed"
)

// ErrMissingTable is returned when a stage needs a snapshot that is absent.
var ErrMissingTable = errors.New("table not found")

// Tables holds the snapshots of one stage by key.
type Tables map[string]*frame.Frame

// NewTables indexes frames by name.
func NewTables(frames []*frame.Frame) Tables {
	t := make(Tables, len(frames))
	for _, f := range frames {
		t[f.Name()] = f
	}
	return t
}

// Get returns the snapshot stored under key or ErrMissingTable.
func (t Tables) Get(key string) (*frame.Frame, error) {
	f, ok := t[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingTable, key)
	}
	return f, nil
}

// Put stores f under its own name.
func (t Tables) Put(f *frame.Frame) {
	t[f.Name()] = f
}

// Keys returns the snapshot keys in sorted order.
func (t Tables) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Sorted returns the snapshots ordered by key.
func (t Tables) Sorted() []*frame.Frame {
	out := make([]*frame.Frame, 0, len(t))
	for _, k := range t.Keys() {
		out = append(out, t[k])
	}
	return out
}

// Rows returns the total row count.
func (t Tables) Rows() int64 {
	var n int64
	for _, f := range t {
		n += int64(f.Len())
	}
	return n
}
