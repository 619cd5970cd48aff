package ports

import (
	"context"

	"github.com/emiliopalmerini/garminetl/internal/frame"
)

// TableInfo is a source table and its row count.
type TableInfo struct {
	Name string
	Rows int64
}

// Source reads tables from one source database.
type Source interface {
	Tables(ctx context.Context) ([]TableInfo, error)
	ReadTable(ctx context.Context, table string) (*frame.Frame, error)
	Close() error
}

// SourceOpener opens the source database stored in a file.
type SourceOpener interface {
	Open(ctx context.Context, path string) (Source, error)
}
