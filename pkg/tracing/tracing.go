// Package tracing installs the OpenTelemetry tracer provider used by the
// ledger, the aggregation engine and the HTTP middleware.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/arnaszs/servizas/pkg/config"
	"github.com/arnaszs/servizas/pkg/logger"
)

const batchTimeout = 5 * time.Second

// Shutdown flushes and stops the provider.
type Shutdown func(context.Context) error

// Init sets the global tracer provider and W3C propagators. With tracing
// disabled the global no-op provider stays and Shutdown does nothing.
func Init(ctx context.Context, cfg config.TracingConfig, serviceName, env string, logg *logger.Logger) (Shutdown, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := newExporter(ctx, cfg, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("build trace exporter: %w", err)
	}
	tp, err := NewProvider(ctx, cfg, serviceName, env,
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(batchTimeout)),
	)
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{
			"service":  serviceName,
			"endpoint": cfg.OTLPEndpoint,
			"sampler":  SampleRatio(cfg.SampleRatio),
		})
		logg.Info(ctx, "otel tracing initialized")
	}
	return tp.Shutdown, nil
}

// NewProvider builds a provider tagged with the service resource and a
// parent-based ratio sampler. Extra options attach exporters or processors.
func NewProvider(ctx context.Context, cfg config.TracingConfig, serviceName, env string, opts ...sdktrace.TracerProviderOption) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", strings.TrimSpace(serviceName)),
		attribute.String("deployment.environment", strings.TrimSpace(env)),
	))
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	base := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(SampleRatio(cfg.SampleRatio)))),
		sdktrace.WithResource(res),
	}
	return sdktrace.NewTracerProvider(append(base, opts...)...), nil
}

// SampleRatio clamps ratio to [0, 1].
func SampleRatio(ratio float64) float64 {
	switch {
	case ratio < 0:
		return 0
	case ratio > 1:
		return 1
	default:
		return ratio
	}
}

func newExporter(ctx context.Context, cfg config.TracingConfig, out io.Writer) (sdktrace.SpanExporter, error) {
	endpoint := strings.TrimSpace(cfg.OTLPEndpoint)
	if endpoint == "" {
		return stdouttrace.New(stdouttrace.WithWriter(out))
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if cfg.OTLPInsecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}
