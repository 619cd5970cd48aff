package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/emiliopalmerini/garminetl/internal/frame"
	"github.com/emiliopalmerini/garminetl/internal/logging"
	"github.com/emiliopalmerini/garminetl/internal/ports"
)

var testLog = logging.Discard()

func ts(s string) time.Time {
	t, err := frame.ParseTimestamp(s)
	if err != nil {
		panic(err)
	}
	return t
}

// minutes returns n timestamps one minute apart starting at start.
func minutes(start string, n int) []time.Time {
	t0 := ts(start)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = t0.Add(time.Duration(i) * time.Minute)
	}
	return out
}

func dayRange(start string, n int) []time.Time {
	t0 := ts(start)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = t0.AddDate(0, 0, i)
	}
	return out
}

func ints(vals ...int) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = int64(v)
	}
	return out
}

func repeat(v any, n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func column(f *frame.Frame, name string) []any {
	s, err := f.Column(name)
	if err != nil {
		panic(err)
	}
	return s.Values()
}

type fakeSource struct {
	tables map[string]*frame.Frame
	closed bool
}

func (s *fakeSource) Tables(context.Context) ([]ports.TableInfo, error) {
	var out []ports.TableInfo
	for name, f := range s.tables {
		out = append(out, ports.TableInfo{Name: name, Rows: int64(f.Len())})
	}
	return out, nil
}

func (s *fakeSource) ReadTable(_ context.Context, table string) (*frame.Frame, error) {
	f, ok := s.tables[table]
	if !ok {
		return nil, fmt.Errorf("no such table: %s", table)
	}
	return f, nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type fakeOpener struct {
	sources map[string]*fakeSource
	opened  []string
}

func (o *fakeOpener) Open(_ context.Context, path string) (ports.Source, error) {
	o.opened = append(o.opened, path)
	src, ok := o.sources[path]
	if !ok {
		return nil, fmt.Errorf("open %s: no such file", path)
	}
	return src, nil
}

type memoryStore struct {
	mu        sync.Mutex
	stages    map[string][]*frame.Frame
	manifests map[string]*ports.Manifest
}

func newMemoryStore() *memoryStore {
	return &memoryStore{stages: map[string][]*frame.Frame{}, manifests: map[string]*ports.Manifest{}}
}

func (m *memoryStore) Save(_ context.Context, stage string, tables []*frame.Frame, man *ports.Manifest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages[stage] = tables
	m.manifests[stage] = man
	return nil
}

func (m *memoryStore) Load(_ context.Context, stage string) ([]*frame.Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stages[stage], nil
}

func (m *memoryStore) LoadTable(ctx context.Context, stage, name string) (*frame.Frame, error) {
	frames, _ := m.Load(ctx, stage)
	for _, f := range frames {
		if f.Name() == name {
			return f, nil
		}
	}
	return nil, ErrMissingTable
}

func (m *memoryStore) Manifest(_ context.Context, stage string) (*ports.Manifest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.manifests[stage], nil
}

type recordingExporter struct {
	stages []*ports.StageMetrics
}

func (e *recordingExporter) ExportStageMetrics(_ context.Context, m *ports.StageMetrics) error {
	e.stages = append(e.stages, m)
	return nil
}

func (e *recordingExporter) Close(context.Context) error { return nil }
