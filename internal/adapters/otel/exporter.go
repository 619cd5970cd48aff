package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/emiliopalmerini/garminetl/internal/ports"
)

const (
	serviceName    = "garminetl"
	serviceVersion = "1.0.0"
)

// Exporter exports pipeline stage metrics to an OTEL Collector.
type Exporter struct {
	provider      *sdkmetric.MeterProvider
	meter         metric.Meter
	tablesTotal   metric.Int64Counter
	rowsTotal     metric.Int64Counter
	injectedTotal metric.Int64Counter
	droppedTotal  metric.Int64Counter
	durationHist  metric.Float64Histogram
	runsTotal     metric.Int64Counter
}

// NewExporter creates a new OTEL metrics exporter.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, fmt.Errorf("OTEL exporter is disabled or endpoint not configured")
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	e, err := newExporter(provider)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}
	return e, nil
}

func newExporter(provider *sdkmetric.MeterProvider) (*Exporter, error) {
	meter := provider.Meter(serviceName)

	tablesTotal, err := meter.Int64Counter(
		"garminetl_tables_written_total",
		metric.WithDescription("Tables written by pipeline stages"),
		metric.WithUnit("{table}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tables counter: %w", err)
	}

	rowsTotal, err := meter.Int64Counter(
		"garminetl_rows_written_total",
		metric.WithDescription("Rows written by pipeline stages"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rows counter: %w", err)
	}

	injectedTotal, err := meter.Int64Counter(
		"garminetl_injected_values_total",
		metric.WithDescription("Monitoring values filled by interpolation"),
		metric.WithUnit("{value}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating injected counter: %w", err)
	}

	droppedTotal, err := meter.Int64Counter(
		"garminetl_days_dropped_total",
		metric.WithDescription("Days removed for insufficient data"),
		metric.WithUnit("{day}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped days counter: %w", err)
	}

	durationHist, err := meter.Float64Histogram(
		"garminetl_stage_duration_seconds",
		metric.WithDescription("Stage duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	runsTotal, err := meter.Int64Counter(
		"garminetl_stage_runs_total",
		metric.WithDescription("Total number of stage runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating runs counter: %w", err)
	}

	return &Exporter{
		provider:      provider,
		meter:         meter,
		tablesTotal:   tablesTotal,
		rowsTotal:     rowsTotal,
		injectedTotal: injectedTotal,
		droppedTotal:  droppedTotal,
		durationHist:  durationHist,
		runsTotal:     runsTotal,
	}, nil
}

// ExportStageMetrics exports the metrics of a completed stage.
func (e *Exporter) ExportStageMetrics(ctx context.Context, m *ports.StageMetrics) error {
	opt := metric.WithAttributes(
		attribute.String("stage", m.Stage),
		attribute.String("run_id", m.RunID),
	)

	e.tablesTotal.Add(ctx, m.TablesWritten, opt)
	e.rowsTotal.Add(ctx, m.RowsWritten, opt)
	e.durationHist.Record(ctx, m.Duration().Seconds(), opt)
	e.runsTotal.Add(ctx, 1, opt)

	if m.DaysDropped > 0 {
		e.droppedTotal.Add(ctx, m.DaysDropped, opt)
	}
	for signal, n := range m.InjectedValues {
		e.injectedTotal.Add(ctx, n, metric.WithAttributes(
			attribute.String("stage", m.Stage),
			attribute.String("signal", signal),
		))
	}

	return nil
}

// Close shuts down the exporter and flushes any pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
