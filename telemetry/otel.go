package telemetry

import (
	"context"
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Global telemetry handles
var (
	Tracer = otel.Tracer("github.com/agentgap/agentgap")
	Meter  = otel.Meter("github.com/agentgap/agentgap")

	// PrometheusRegistry for scraping; the OTEL exporter registers itself here
	PrometheusRegistry *promclient.Registry

	PagesFetched      metric.Int64Counter
	RecordsNormalized metric.Int64Counter
	RecordsSkipped    metric.Int64Counter
	AssetsKept        metric.Int64Counter
	RunDuration       metric.Float64Histogram
)

// Config for OTEL initialization
type Config struct {
	ServiceName    string
	ServiceVersion string
	OTELEndpoint   string
	Insecure       bool
}

// InitOTEL initializes OpenTelemetry with traces and metrics
func InitOTEL(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "agentgap"
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	traceShutdown, err := setupTraceProvider(ctx, cfg, res)
	if err != nil {
		return nil, fmt.Errorf("failed to setup traces: %w", err)
	}

	metricShutdown, err := setupMetricProvider(res)
	if err != nil {
		_ = traceShutdown(ctx)
		return nil, fmt.Errorf("failed to setup metrics: %w", err)
	}

	if err := initInstruments(); err != nil {
		_ = traceShutdown(ctx)
		_ = metricShutdown(ctx)
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return func(ctx context.Context) error {
		var err error
		if e := traceShutdown(ctx); e != nil {
			err = fmt.Errorf("trace shutdown failed: %w", e)
		}
		if e := metricShutdown(ctx); e != nil && err == nil {
			err = fmt.Errorf("metric shutdown failed: %w", e)
		}
		return err
	}, nil
}

// setupTraceProvider configures the trace provider with an OTLP exporter
func setupTraceProvider(ctx context.Context, cfg Config, res *resource.Resource) (func(context.Context) error, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.OTELEndpoint),
	}

	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithDialOption(
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		))
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(5*time.Second),
		),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	Tracer = provider.Tracer("github.com/agentgap/agentgap")

	return provider.Shutdown, nil
}

// setupMetricProvider configures metrics with a Prometheus pull exporter
func setupMetricProvider(res *resource.Resource) (func(context.Context) error, error) {
	registry := promclient.NewRegistry()
	PrometheusRegistry = registry

	exporter, err := prometheus.New(
		prometheus.WithRegisterer(registry),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	otel.SetMeterProvider(provider)
	Meter = provider.Meter("github.com/agentgap/agentgap")

	return provider.Shutdown, nil
}

func initInstruments() error {
	var err error

	PagesFetched, err = Meter.Int64Counter("agentgap.pages.fetched.total",
		metric.WithDescription("Total asset pages fetched from the platform"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create pages_fetched counter: %w", err)
	}

	RecordsNormalized, err = Meter.Int64Counter("agentgap.records.normalized.total",
		metric.WithDescription("Total raw records successfully normalized"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create records_normalized counter: %w", err)
	}

	RecordsSkipped, err = Meter.Int64Counter("agentgap.records.skipped.total",
		metric.WithDescription("Total malformed raw records skipped"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create records_skipped counter: %w", err)
	}

	AssetsKept, err = Meter.Int64Counter("agentgap.assets.kept.total",
		metric.WithDescription("Total assets surviving the exclusion filters"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create assets_kept counter: %w", err)
	}

	RunDuration, err = Meter.Float64Histogram("agentgap.run.duration.seconds",
		metric.WithDescription("Duration of pipeline runs"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create run_duration histogram: %w", err)
	}

	return nil
}

// CountPage records one fetched page and its record count.
func CountPage(ctx context.Context, records int) {
	if PagesFetched != nil {
		PagesFetched.Add(ctx, 1, metric.WithAttributes(attribute.Int("records", records)))
	}
}
