package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"navpulse/internal/config"
)

const (
	ServiceName = "navpulse"
	MeterName   = "navpulse"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Job            string
	TraceExporter  string // "stdout", "none"
}

// OTelProviders holds the OpenTelemetry providers of one batch run
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Registry       *promclient.Registry
	Tracer         trace.Tracer
	Meter          metric.Meter
	Metrics        *PipelineMetrics
	Logger         *slog.Logger
}

// NewOTelConfig derives the OpenTelemetry configuration for a job
func NewOTelConfig(job string, cfg config.TelemetryConfig) *OTelConfig {
	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: config.AppVersion,
		Job:            job,
		TraceExporter:  cfg.TraceExporter,
	}
}

// InitializeOTel sets up tracing and a prometheus-backed meter on a private registry
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = NewOTelConfig("navpulse", config.Default().Telemetry)
	}
	if logger == nil {
		logger = GetLogger()
	}

	ctx := context.Background()

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		attribute.String("navpulse.job", cfg.Job),
		attribute.String("service.instance.id", generateInstanceID()),
	)

	providers := &OTelProviders{Logger: logger}

	if err := initializeTracing(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	logger.DebugContext(ctx, "OpenTelemetry initialization complete",
		slog.String("job", cfg.Job),
		slog.String("trace_exporter", cfg.TraceExporter))

	return providers, nil
}

func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.TraceExporter {
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint(), stdouttrace.WithWriter(os.Stderr))
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(exporter),
			sdktrace.WithResource(res),
		)
		providers.TracerProvider = tp
		providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
		otel.SetTracerProvider(tp)
	case "", "none":
		providers.Tracer = noop.NewTracerProvider().Tracer(MeterName)
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	providers.Logger.DebugContext(ctx, "Tracing initialized", slog.String("exporter", cfg.TraceExporter))
	return nil
}

func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	registry := promclient.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	providers.Registry = registry
	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))

	metrics, err := CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return err
	}
	providers.Metrics = metrics

	providers.Logger.DebugContext(ctx, "Metrics initialized", slog.String("exporter", "prometheus"))
	return nil
}

// PipelineMetrics holds the batch job instruments
type PipelineMetrics struct {
	RowsLoaded     metric.Int64Counter
	CellsMissing   metric.Int64Counter
	StepDuration   metric.Float64Histogram
	StepFailures   metric.Int64Counter
	RulesMined     metric.Int64Counter
	ChartsRendered metric.Int64Counter
	FilesWritten   metric.Int64Counter
}

// CreatePipelineMetrics registers the job instruments on meter
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	rowsLoaded, err := meter.Int64Counter(
		"navpulse_rows_loaded",
		metric.WithDescription("Rows read from input tables"),
	)
	if err != nil {
		return nil, err
	}

	cellsMissing, err := meter.Int64Counter(
		"navpulse_cells_missing",
		metric.WithDescription("Numeric cells degraded to missing during normalization"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"navpulse_step_duration",
		metric.WithDescription("Pipeline step duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stepFailures, err := meter.Int64Counter(
		"navpulse_step_failures",
		metric.WithDescription("Pipeline steps that returned an error"),
	)
	if err != nil {
		return nil, err
	}

	rulesMined, err := meter.Int64Counter(
		"navpulse_rules_mined",
		metric.WithDescription("Association rules surviving the threshold filter"),
	)
	if err != nil {
		return nil, err
	}

	chartsRendered, err := meter.Int64Counter(
		"navpulse_charts_rendered",
		metric.WithDescription("PNG charts written"),
	)
	if err != nil {
		return nil, err
	}

	filesWritten, err := meter.Int64Counter(
		"navpulse_files_written",
		metric.WithDescription("Output tables written"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		RowsLoaded:     rowsLoaded,
		CellsMissing:   cellsMissing,
		StepDuration:   stepDuration,
		StepFailures:   stepFailures,
		RulesMined:     rulesMined,
		ChartsRendered: chartsRendered,
		FilesWritten:   filesWritten,
	}, nil
}

// RecordStep records duration and outcome of one pipeline step. Nil metrics is a no-op.
func (m *PipelineMetrics) RecordStep(ctx context.Context, stepID string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
		m.StepFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("step.id", stepID)))
	}
	m.StepDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("step.id", stepID),
		attribute.String("status", status),
	))
}

// Counter selects one of the PipelineMetrics counters
type Counter int

const (
	CounterRowsLoaded Counter = iota
	CounterCellsMissing
	CounterRulesMined
	CounterChartsRendered
	CounterFilesWritten
)

// Add increments the selected counter by n. Nil metrics is a no-op.
func (m *PipelineMetrics) Add(ctx context.Context, which Counter, n int, attrs ...attribute.KeyValue) {
	if m == nil || n == 0 {
		return
	}

	var c metric.Int64Counter
	switch which {
	case CounterRowsLoaded:
		c = m.RowsLoaded
	case CounterCellsMissing:
		c = m.CellsMissing
	case CounterRulesMined:
		c = m.RulesMined
	case CounterChartsRendered:
		c = m.ChartsRendered
	case CounterFilesWritten:
		c = m.FilesWritten
	}
	if c == nil {
		return
	}
	c.Add(ctx, int64(n), metric.WithAttributes(attrs...))
}

// WriteMetricsTextfile dumps the registry in the node-exporter textfile format
func (p *OTelProviders) WriteMetricsTextfile(path string) error {
	if p == nil || p.Registry == nil || path == "" {
		return nil
	}
	if err := promclient.WriteToTextfile(path, p.Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Shutdown flushes and shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	p.Logger.DebugContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanAttributes sets attributes on the current span
func SetSpanAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(attrs...)
}
