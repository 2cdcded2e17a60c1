package instrument

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Instrumentation hands out tracers and meters by scope name.
type Instrumentation interface {
	Tracer(name string) trace.Tracer
	Meter(name string) metric.Meter
	Shutdown(ctx context.Context) error
}

// Config drives OpenTelemetry initialization.
type Config struct {
	Enabled          bool
	ServiceName      string
	ServiceVersion   string
	Environment      string
	OTLPEndpoint     string
	OTLPSecure       bool
	TraceSampleRatio float64
	// MetricsInterval defaults to one minute when zero.
	MetricsInterval time.Duration
	// MaskFields are log attribute keys whose values are replaced before output.
	MaskFields []string
}

// Scope names. Each layer of the twofa module traces under its own scope so
// spans and counters can be filtered per layer.
const (
	ScopeHTTP      = "http.server"
	ScopeUsecase   = "twofa.usecase"
	ScopeDatabase  = "twofa.outbound.db"
	ScopeMessaging = "twofa.outbound.mq"
)

// Providers is an Instrumentation over explicit tracer and meter providers.
type Providers struct {
	tp        trace.TracerProvider
	mp        metric.MeterProvider
	shutdowns []func(context.Context) error
}

// NewWithProviders wraps existing providers, such as an SDK meter provider
// backed by a manual reader in tests. Nil providers fall back to noop.
// Shutdown calls Shutdown on any provider that has one.
func NewWithProviders(tp trace.TracerProvider, mp metric.MeterProvider) *Providers {
	p := &Providers{tp: tp, mp: mp}
	if p.tp == nil {
		p.tp = tracenoop.NewTracerProvider()
	}
	if p.mp == nil {
		p.mp = metricnoop.NewMeterProvider()
	}

	for _, v := range []any{p.tp, p.mp} {
		if s, ok := v.(interface{ Shutdown(context.Context) error }); ok {
			p.shutdowns = append(p.shutdowns, s.Shutdown)
		}
	}

	return p
}

// NewNoop returns an Instrumentation that records nothing.
func NewNoop() Instrumentation {
	return NewWithProviders(nil, nil)
}

// Tracer returns the tracer for scope name.
func (p *Providers) Tracer(name string) trace.Tracer {
	return p.tp.Tracer(name)
}

// Meter returns the meter for scope name.
func (p *Providers) Meter(name string) metric.Meter {
	return p.mp.Meter(name)
}

// Shutdown flushes and stops every provider, joining their errors.
func (p *Providers) Shutdown(ctx context.Context) error {
	errs := make([]error, 0, len(p.shutdowns))
	for _, fn := range p.shutdowns {
		errs = append(errs, fn(ctx))
	}
	return errors.Join(errs...)
}

// New builds the OTLP-backed Instrumentation and installs the JSON logger.
// When disabled only the logger is installed and a noop is returned.
func New(ctx context.Context, cfg *Config) (Instrumentation, error) {
	if cfg == nil {
		return NewNoop(), nil
	}
	if !cfg.Enabled {
		initLogging(cfg.ServiceName, nil, cfg.MaskFields)
		return NewNoop(), nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("env", cfg.Environment),
		),
	)
	if err != nil {
		return nil, err
	}

	exp, err := newExporters(ctx, cfg)
	if err != nil {
		return nil, err
	}

	interval := cfg.MetricsInterval
	if interval <= 0 {
		interval = time.Minute
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(min(max(cfg.TraceSampleRatio, 0), 1)))),
		sdktrace.WithBatcher(exp.trace),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp.metric, sdkmetric.WithInterval(interval))),
	)
	lp := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exp.log)),
	)

	initLogging(cfg.ServiceName, lp, cfg.MaskFields)

	p := NewWithProviders(tp, mp)
	p.shutdowns = append(p.shutdowns, lp.Shutdown)

	return p, nil
}

type exporters struct {
	trace  *otlptrace.Exporter
	metric *otlpmetricgrpc.Exporter
	log    *otlploggrpc.Exporter
}

func newExporters(ctx context.Context, cfg *Config) (exporters, error) {
	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}
	logOpts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if !cfg.OTLPSecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
		logOpts = append(logOpts, otlploggrpc.WithInsecure())
	}

	var (
		exp exporters
		err error
	)
	if exp.trace, err = otlptracegrpc.New(ctx, traceOpts...); err != nil {
		return exp, fmt.Errorf("instrument: trace exporter: %w", err)
	}
	if exp.log, err = otlploggrpc.New(ctx, logOpts...); err != nil {
		return exp, fmt.Errorf("instrument: log exporter: %w", err)
	}
	if exp.metric, err = otlpmetricgrpc.New(ctx, metricOpts...); err != nil {
		return exp, fmt.Errorf("instrument: metric exporter: %w", err)
	}

	return exp, nil
}
