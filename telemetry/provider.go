// Package telemetry wires OpenTelemetry tracing and a Prometheus scrape
// endpoint for the pricefeed verifier. Spans go through the global tracer, so
// a Provider with tracing off still yields valid no-op spans.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	metricsdk "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

const (
	serviceName    = "pricefeed"
	serviceVersion = "1.0.0"

	// MetricsPath is where the scrape endpoint serves metrics.
	MetricsPath = "/metrics"
)

// Config selects which telemetry outputs a Provider starts. Tracing is on
// when OTLPEndpoint is set; the scrape endpoint is on when MetricsAddr is set.
type Config struct {
	OTLPEndpoint string
	SampleRate   float64
	Environment  string
	MetricsAddr  string
}

// Provider owns the trace exporter, the meter provider and the scrape server.
type Provider struct {
	cfg Config

	tracerProvider *tracesdk.TracerProvider

	meterProvider *metricsdk.MeterProvider
	commands      metric.Int64Counter
	listener      net.Listener
	server        *http.Server
}

// NewProvider starts the outputs cfg asks for. An empty Config is valid and
// returns an inert provider.
func NewProvider(cfg Config) (*Provider, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}

	p := &Provider{cfg: cfg}
	if cfg.OTLPEndpoint == "" && cfg.MetricsAddr == "" {
		return p, nil
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
		attribute.String("environment", cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if cfg.OTLPEndpoint != "" {
		if err := p.startTracing(res); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}
	if cfg.MetricsAddr != "" {
		if err := p.startMetrics(res); err != nil {
			_ = p.Shutdown(context.Background())
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	return p, nil
}

func validateConfig(cfg Config) error {
	if cfg.SampleRate < 0 || cfg.SampleRate > 1 {
		return fmt.Errorf("sample rate must be between 0 and 1, got %v", cfg.SampleRate)
	}
	if cfg.OTLPEndpoint != "" {
		if _, err := url.Parse(cfg.OTLPEndpoint); err != nil {
			return fmt.Errorf("invalid otlp endpoint: %w", err)
		}
	}
	if cfg.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(cfg.MetricsAddr); err != nil {
			return fmt.Errorf("invalid metrics address: %w", err)
		}
	}
	return nil
}

func (p *Provider) startTracing(res *resource.Resource) error {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(p.cfg.OTLPEndpoint, "http://"), "https://")

	exporter, err := otlptrace.New(context.Background(), otlptracehttp.NewClient(
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
		otlptracehttp.WithURLPath("/v1/traces"),
	))
	if err != nil {
		return fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	p.tracerProvider = tracesdk.NewTracerProvider(
		tracesdk.WithBatcher(exporter, tracesdk.WithBatchTimeout(time.Second)),
		tracesdk.WithResource(res),
		tracesdk.WithSampler(tracesdk.ParentBased(tracesdk.TraceIDRatioBased(p.cfg.SampleRate))),
	)
	otel.SetTracerProvider(p.tracerProvider)
	return nil
}

// startMetrics exports OpenTelemetry instruments through a private registry
// and serves it together with the default registry, where the keeper's
// verification counters live.
func (p *Provider) startMetrics(res *resource.Resource) error {
	reg := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	p.meterProvider = metricsdk.NewMeterProvider(
		metricsdk.WithResource(res),
		metricsdk.WithReader(exporter),
	)
	p.commands, err = p.meterProvider.Meter(serviceName).Int64Counter(
		"pricefeed.commands",
		metric.WithDescription("CLI commands run, by command and outcome"),
	)
	if err != nil {
		return fmt.Errorf("failed to create command counter: %w", err)
	}

	p.listener, err = net.Listen("tcp", p.cfg.MetricsAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", p.cfg.MetricsAddr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(MetricsPath, promhttp.HandlerFor(
		prometheus.Gatherers{prometheus.DefaultGatherer, reg},
		promhttp.HandlerOpts{},
	))
	p.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := p.server.Serve(p.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			otel.Handle(fmt.Errorf("metrics server: %w", err))
		}
	}()
	return nil
}

// MetricsAddr returns the address the scrape endpoint is bound to, or "" when
// it is off. With a ":0" port this is the port the kernel picked.
func (p *Provider) MetricsAddr() string {
	if p.listener == nil {
		return ""
	}
	return p.listener.Addr().String()
}

// RecordCommand counts one CLI command run. It is a no-op while the scrape
// endpoint is off.
func (p *Provider) RecordCommand(ctx context.Context, command string, err error) {
	if p.commands == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.commands.Add(ctx, 1, metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("outcome", outcome),
	))
}

// HealthCheck reports whether every configured output finished starting.
func (p *Provider) HealthCheck() error {
	if p.cfg.OTLPEndpoint != "" && p.tracerProvider == nil {
		return errors.New("tracer provider not initialized")
	}
	if p.cfg.MetricsAddr != "" && (p.meterProvider == nil || p.server == nil) {
		return errors.New("metrics endpoint not initialized")
	}
	return nil
}

// Shutdown flushes pending spans, stops the meter provider and closes the
// scrape endpoint.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error

	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
		}
	}
	if p.server != nil {
		if err := p.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop metrics server: %w", err))
		}
	} else if p.listener != nil {
		_ = p.listener.Close()
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
		}
	}

	return errors.Join(errs...)
}
