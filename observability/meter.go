package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/reqkit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string        `yaml:"service_name" mapstructure:"service_name"`
	ServiceVersion string        `yaml:"service_version" mapstructure:"service_version"`
	Environment    string        `yaml:"environment" mapstructure:"environment"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure       bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval       time.Duration `yaml:"interval" mapstructure:"interval"`
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider with an OTLP HTTP
// exporter and installs it globally. The caller must Shutdown the provider.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// ClientMetrics holds the instruments recorded by the HTTP client.
type ClientMetrics struct {
	attempts      metric.Int64Counter
	retries       metric.Int64Counter
	cancellations metric.Int64Counter
	inFlight      metric.Int64UpDownCounter
	callDuration  metric.Float64Histogram
}

// NewClientMetrics creates client instruments on the given meter.
func NewClientMetrics(meter metric.Meter) (*ClientMetrics, error) {
	attempts, err := meter.Int64Counter("http.client.attempts",
		metric.WithDescription("Outbound HTTP attempts, including retries"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.client.attempts counter: %w", err)
	}

	retries, err := meter.Int64Counter("http.client.retries",
		metric.WithDescription("Outbound HTTP retries"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.client.retries counter: %w", err)
	}

	cancellations, err := meter.Int64Counter("http.client.cancellations",
		metric.WithDescription("In-flight calls aborted through the cancellation registry"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.client.cancellations counter: %w", err)
	}

	inFlight, err := meter.Int64UpDownCounter("http.client.in_flight",
		metric.WithDescription("Calls currently registered for cancellation"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.client.in_flight gauge: %w", err)
	}

	callDuration, err := meter.Float64Histogram("http.client.call.duration",
		metric.WithDescription("Duration of logical calls including retries"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.client.call.duration histogram: %w", err)
	}

	return &ClientMetrics{
		attempts:      attempts,
		retries:       retries,
		cancellations: cancellations,
		inFlight:      inFlight,
		callDuration:  callDuration,
	}, nil
}

// RecordAttempt counts one outbound attempt.
func (m *ClientMetrics) RecordAttempt(ctx context.Context, method, url string) {
	m.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("url", url),
	))
}

// RecordRetry counts one retry.
func (m *ClientMetrics) RecordRetry(ctx context.Context, method, url string) {
	m.retries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("url", url),
	))
}

// RecordCancellations counts n aborted calls.
func (m *ClientMetrics) RecordCancellations(ctx context.Context, n int) {
	if n <= 0 {
		return
	}
	m.cancellations.Add(ctx, int64(n))
}

// RecordCallStart marks a call as in flight.
func (m *ClientMetrics) RecordCallStart(ctx context.Context) {
	m.inFlight.Add(ctx, 1)
}

// RecordCallEnd marks a call as finished and records its duration.
func (m *ClientMetrics) RecordCallEnd(ctx context.Context, method, status string, duration time.Duration) {
	m.inFlight.Add(ctx, -1)
	m.callDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("status", status),
	))
}
