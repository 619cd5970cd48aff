package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/emiliopalmerini/garminetl/internal/adapters/otel"
	"github.com/emiliopalmerini/garminetl/internal/adapters/storage"
	"github.com/emiliopalmerini/garminetl/internal/adapters/turso"
	"github.com/emiliopalmerini/garminetl/internal/config"
	"github.com/emiliopalmerini/garminetl/internal/logging"
	"github.com/emiliopalmerini/garminetl/internal/pipeline"
	"github.com/emiliopalmerini/garminetl/internal/ports"
)

// AppContext holds all shared dependencies for CLI commands.
type AppContext struct {
	Config   *config.Config
	Schema   *config.Schema
	Log      *logrus.Logger
	Store    ports.SnapshotStore
	Opener   ports.SourceOpener
	Exporter ports.MetricsExporter
}

// NewAppContext loads the configuration and schema and builds the adapters.
func NewAppContext(ctx context.Context) (*AppContext, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	schema, err := config.LoadSchema(cfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	store, err := storage.NewSnapshotStorage(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize snapshot storage: %w", err)
	}

	return &AppContext{
		Config:   cfg,
		Schema:   schema,
		Log:      log,
		Store:    store,
		Opener:   turso.NewOpener(),
		Exporter: newExporter(ctx, cfg.OTEL, log),
	}, nil
}

// newExporter falls back to a no-op exporter when OTEL is off or unreachable.
func newExporter(ctx context.Context, c config.OTEL, log logrus.FieldLogger) ports.MetricsExporter {
	if !c.Enabled {
		return otel.NewNoOpExporter()
	}
	exp, err := otel.NewExporter(ctx, otel.ConfigFrom(c))
	if err != nil {
		log.WithError(err).Warn("metrics disabled")
		return otel.NewNoOpExporter()
	}
	return exp
}

// Runner returns a pipeline runner over the app's adapters.
func (a *AppContext) Runner() *pipeline.Runner {
	return pipeline.NewRunner(a.Store, a.Opener, a.Exporter, a.Schema, a.Config.DBDir, a.Log)
}

// Close flushes the metrics exporter.
func (a *AppContext) Close(ctx context.Context) error {
	if a.Exporter != nil {
		return a.Exporter.Close(ctx)
	}
	return nil
}
