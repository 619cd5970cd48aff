package ports

import (
	"context"
	"time"

	"github.com/emiliopalmerini/garminetl/internal/frame"
)

// SnapshotStore persists the tables produced by one pipeline stage.
type SnapshotStore interface {
	// Save replaces the stage's tables and writes its manifest.
	Save(ctx context.Context, stage string, tables []*frame.Frame, m *Manifest) error
	// Load returns every table of a stage, sorted by name.
	Load(ctx context.Context, stage string) ([]*frame.Frame, error)
	// LoadTable returns one table of a stage.
	LoadTable(ctx context.Context, stage, name string) (*frame.Frame, error)
	// Manifest returns the manifest written by the last Save of a stage.
	Manifest(ctx context.Context, stage string) (*Manifest, error)
}

// Manifest describes one stage run.
type Manifest struct {
	RunID      string          `json:"run_id"`
	Stage      string          `json:"stage"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Tables     []TableManifest `json:"tables"`
}

// TableManifest is the shape of one saved table.
type TableManifest struct {
	Name    string   `json:"name"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
}
