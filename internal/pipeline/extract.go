package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/emiliopalmerini/garminetl/internal/config"
	"github.com/emiliopalmerini/garminetl/internal/logging"
	"github.com/emiliopalmerini/garminetl/internal/ports"
)

// DatabaseInfo lists the tables found in one source database.
type DatabaseInfo struct {
	Name   string
	File   string
	Tables []ports.TableInfo
}

// Extractor copies the allow-listed tables out of the source databases.
type Extractor struct {
	opener    ports.SourceOpener
	dbDir     string
	databases []config.Database
	log       logrus.FieldLogger
}

func NewExtractor(opener ports.SourceOpener, dbDir string, databases []config.Database, log logrus.FieldLogger) *Extractor {
	return &Extractor{
		opener:    opener,
		dbDir:     dbDir,
		databases: databases,
		log:       logging.Stage(log, StageRaw),
	}
}

// Extract reads every allow-listed, non-empty table. Tables are keyed <database>_<table>.
// A database that cannot be opened aborts the run.
func (e *Extractor) Extract(ctx context.Context) (Tables, error) {
	out := make(Tables)
	for _, db := range e.databases {
		if err := e.extractDatabase(ctx, db, out); err != nil {
			return nil, err
		}
	}

	cols := 0
	for _, f := range out {
		cols += f.Width()
	}
	e.log.WithFields(logrus.Fields{
		"tables":  len(out),
		"rows":    out.Rows(),
		"columns": cols,
	}).Info("extraction complete")
	return out, nil
}

func (e *Extractor) extractDatabase(ctx context.Context, db config.Database, out Tables) error {
	src, err := e.opener.Open(ctx, filepath.Join(e.dbDir, db.File))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", db.File, err)
	}
	defer func() { _ = src.Close() }()

	infos, err := src.Tables(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tables of %s: %w", db.File, err)
	}
	rows := make(map[string]int64, len(infos))
	empty := 0
	for _, info := range infos {
		if info.Rows == 0 {
			empty++
			continue
		}
		rows[info.Name] = info.Rows
	}

	log := e.log.WithField("database", db.File)
	log.WithFields(logrus.Fields{
		"tables": len(infos),
		"empty":  empty,
	}).Info("database opened")

	for _, table := range db.Tables {
		if _, ok := rows[table]; !ok {
			log.WithField("table", table).Warn("table missing or empty, skipped")
			continue
		}
		f, err := src.ReadTable(ctx, table)
		if err != nil {
			return fmt.Errorf("failed to read %s.%s: %w", db.File, table, err)
		}
		f = f.Named(db.Key(table))
		out.Put(f)
		log.WithFields(logrus.Fields{
			"table":   f.Name(),
			"rows":    f.Len(),
			"columns": f.Width(),
		}).Debug("table extracted")
	}
	return nil
}

// Inspect lists every table and its row count per database without filtering.
func (e *Extractor) Inspect(ctx context.Context) ([]DatabaseInfo, error) {
	out := make([]DatabaseInfo, 0, len(e.databases))
	for _, db := range e.databases {
		src, err := e.opener.Open(ctx, filepath.Join(e.dbDir, db.File))
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", db.File, err)
		}
		infos, err := src.Tables(ctx)
		_ = src.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to list tables of %s: %w", db.File, err)
		}
		out = append(out, DatabaseInfo{Name: db.Name, File: db.File, Tables: infos})
	}
	return out, nil
}
