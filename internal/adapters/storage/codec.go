package storage

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/golang/snappy"

	"github.com/emiliopalmerini/garminetl/internal/frame"
)

// snapshot is the gob form of a frame. Each column stores its values densely in the
// slice matching its kind; Null marks the rows whose slot is a placeholder.
type snapshot struct {
	Name    string
	Rows    int
	Columns []snapshotColumn
}

type snapshotColumn struct {
	Name    string
	Kind    uint8
	Null    []bool
	Ints    []int64
	Floats  []float64
	Bools   []bool
	Strings []string
}

func encodeFrame(f *frame.Frame) ([]byte, error) {
	snap := snapshot{Name: f.Name(), Rows: f.Len()}
	for _, s := range f.Series() {
		snap.Columns = append(snap.Columns, encodeSeries(s))
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&snap); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", f.Name(), err)
	}
	return snappy.Encode(nil, buf.Bytes()), nil
}

func decodeFrame(data []byte) (*frame.Frame, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}

	var snap snapshot
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	cols := make([]*frame.Series, 0, len(snap.Columns))
	for _, c := range snap.Columns {
		s, err := decodeSeries(c, snap.Rows)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s.%s: %w", snap.Name, c.Name, err)
		}
		cols = append(cols, s)
	}
	return frame.New(snap.Name, cols...)
}

func encodeSeries(s *frame.Series) snapshotColumn {
	n := s.Len()
	c := snapshotColumn{Name: s.Name(), Kind: uint8(s.Kind()), Null: make([]bool, n)}
	switch s.Kind() {
	case frame.KindInt, frame.KindTime, frame.KindDuration:
		c.Ints = make([]int64, n)
	case frame.KindFloat:
		c.Floats = make([]float64, n)
	case frame.KindBool:
		c.Bools = make([]bool, n)
	case frame.KindString:
		c.Strings = make([]string, n)
	}
	for i := 0; i < n; i++ {
		switch v := s.At(i).(type) {
		case nil:
			c.Null[i] = true
		case int64:
			c.Ints[i] = v
		case time.Time:
			c.Ints[i] = v.UnixNano()
		case time.Duration:
			c.Ints[i] = int64(v)
		case float64:
			c.Floats[i] = v
		case bool:
			c.Bools[i] = v
		case string:
			c.Strings[i] = v
		}
	}
	return c
}

func decodeSeries(c snapshotColumn, rows int) (*frame.Series, error) {
	if len(c.Null) != rows {
		return nil, fmt.Errorf("%w: %d null flags for %d rows", frame.ErrLengthMismatch, len(c.Null), rows)
	}
	kind := frame.Kind(c.Kind)
	values := make([]any, rows)
	for i := 0; i < rows; i++ {
		if c.Null[i] {
			continue
		}
		switch kind {
		case frame.KindInt:
			values[i] = c.Ints[i]
		case frame.KindTime:
			values[i] = time.Unix(0, c.Ints[i]).UTC()
		case frame.KindDuration:
			values[i] = time.Duration(c.Ints[i])
		case frame.KindFloat:
			values[i] = c.Floats[i]
		case frame.KindBool:
			values[i] = c.Bools[i]
		case frame.KindString:
			values[i] = c.Strings[i]
		default:
			return nil, fmt.Errorf("unknown kind %d", c.Kind)
		}
	}
	return frame.NewSeries(c.Name, kind, values)
}
