package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/emiliopalmerini/garminetl/internal/frame"
	"github.com/emiliopalmerini/garminetl/internal/ports"
)

const (
	snapExt      = ".snap"
	csvExt       = ".csv"
	manifestName = "manifest.json"
)

// SnapshotStorage keeps each stage's tables under <baseDir>/<stage> as a snappy
// compressed gob file plus a CSV copy.
type SnapshotStorage struct {
	baseDir string
}

func NewSnapshotStorage(baseDir string) (*SnapshotStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &SnapshotStorage{baseDir: baseDir}, nil
}

// Save removes the stage's previous tables, then writes the new ones and the manifest.
func (s *SnapshotStorage) Save(ctx context.Context, stage string, tables []*frame.Frame, m *ports.Manifest) error {
	dir := s.stageDir(stage)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create stage directory: %w", err)
	}
	if err := s.clear(dir); err != nil {
		return err
	}

	for _, f := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.writeTable(dir, f); err != nil {
			return err
		}
	}

	if m == nil {
		return nil
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestName), data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func (s *SnapshotStorage) Load(ctx context.Context, stage string) ([]*frame.Frame, error) {
	paths, err := filepath.Glob(filepath.Join(s.stageDir(stage), "*"+snapExt))
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	sort.Strings(paths)

	tables := make([]*frame.Frame, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := readSnapshot(p)
		if err != nil {
			return nil, err
		}
		tables = append(tables, f)
	}
	return tables, nil
}

func (s *SnapshotStorage) LoadTable(ctx context.Context, stage, name string) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return readSnapshot(filepath.Join(s.stageDir(stage), name+snapExt))
}

func (s *SnapshotStorage) Manifest(ctx context.Context, stage string) (*ports.Manifest, error) {
	data, err := os.ReadFile(filepath.Join(s.stageDir(stage), manifestName))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m ports.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &m, nil
}

func (s *SnapshotStorage) writeTable(dir string, f *frame.Frame) error {
	data, err := encodeFrame(f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, f.Name()+snapExt), data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", f.Name(), err)
	}

	out, err := os.Create(filepath.Join(dir, f.Name()+csvExt))
	if err != nil {
		return fmt.Errorf("failed to create csv %s: %w", f.Name(), err)
	}
	defer func() { _ = out.Close() }()

	if err := writeCSV(out, f); err != nil {
		return fmt.Errorf("failed to write csv %s: %w", f.Name(), err)
	}
	return out.Close()
}

func (s *SnapshotStorage) clear(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read stage directory: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, snapExt) || strings.HasSuffix(name, csvExt) || name == manifestName) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}
	return nil
}

func (s *SnapshotStorage) stageDir(stage string) string {
	return filepath.Join(s.baseDir, stage)
}

func readSnapshot(path string) (*frame.Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	f, err := decodeFrame(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return f, nil
}
