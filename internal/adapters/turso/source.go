package turso

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/emiliopalmerini/garminetl/internal/frame"
	"github.com/emiliopalmerini/garminetl/internal/ports"
)

// Opener opens GarminDB files as sources.
type Opener struct{}

func NewOpener() *Opener {
	return &Opener{}
}

func (o *Opener) Open(ctx context.Context, path string) (ports.Source, error) {
	db, err := NewDB(ctx, path)
	if err != nil {
		return nil, err
	}
	return NewSource(db), nil
}

// Source reads whole tables from one database.
type Source struct {
	db *sql.DB
}

func NewSource(db *sql.DB) *Source {
	return &Source{db: db}
}

// Tables lists the user tables with their row counts, sorted by name.
func (s *Source) Tables(ctx context.Context) ([]ports.TableInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	_ = rows.Close()

	tables := make([]ports.TableInfo, 0, len(names))
	for _, name := range names {
		var n int64
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(name)).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count rows of %s: %w", name, err)
		}
		tables = append(tables, ports.TableInfo{Name: name, Rows: n})
	}
	return tables, nil
}

// ReadTable reads every row of a table. Column kinds are inferred from the stored values.
func (s *Source) ReadTable(ctx context.Context, table string) (*frame.Frame, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(table))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}

	values := make([][]any, len(names))
	for rows.Next() {
		cells := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		for i, v := range cells {
			values[i] = append(values[i], normalize(v))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}

	cols := make([]*frame.Series, len(names))
	for i, name := range names {
		col, err := inferSeries(name, values[i])
		if err != nil {
			return nil, fmt.Errorf("failed to build %s.%s: %w", table, name, err)
		}
		cols[i] = col
	}
	return frame.New(table, cols...)
}

func (s *Source) Close() error {
	return s.db.Close()
}

func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case time.Time:
		return time.Date(x.Year(), x.Month(), x.Day(), x.Hour(), x.Minute(), x.Second(), x.Nanosecond(), time.UTC)
	}
	return v
}

// inferSeries picks the narrowest kind holding every value. Ints mixed with floats
// widen to float; any other mix falls back to strings.
func inferSeries(name string, values []any) (*frame.Series, error) {
	var ints, floats, strs, times int
	for _, v := range values {
		switch v.(type) {
		case int64:
			ints++
		case float64:
			floats++
		case string:
			strs++
		case time.Time:
			times++
		}
	}
	if values == nil {
		values = []any{}
	}

	switch {
	case strs == 0 && times == 0 && floats == 0 && ints > 0:
		return frame.NewSeries(name, frame.KindInt, values)
	case strs == 0 && times == 0 && floats > 0:
		out := make([]any, len(values))
		for i, v := range values {
			switch x := v.(type) {
			case int64:
				out[i] = float64(x)
			case float64:
				out[i] = x
			}
		}
		return frame.NewSeries(name, frame.KindFloat, out)
	case ints == 0 && floats == 0 && strs == 0 && times > 0:
		return frame.NewSeries(name, frame.KindTime, values)
	}

	out := make([]any, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case nil:
		case string:
			out[i] = x
		case time.Time:
			out[i] = x.Format("2006-01-02 15:04:05.999999")
		default:
			out[i] = fmt.Sprint(x)
		}
	}
	return frame.NewSeries(name, frame.KindString, out)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
