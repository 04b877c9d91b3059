// Package metrics installs the global OpenTelemetry meter provider and
// exposes the Prometheus scrape handler.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
)

const defaultPushInterval = 15 * time.Second

// ErrNoReaders is returned when Options enables no exporter.
var ErrNoReaders = errors.New("metrics: no exporter enabled")

type MetricProvider interface {
	Meter(name string, options ...metric.MeterOption) metric.Meter
	Shutdown(ctx context.Context) error
}

// Options selects the exporters. Prometheus and OTLP may both be enabled.
type Options struct {
	ServiceName string
	// Prometheus registers a pull reader on the default registry served by
	// Handler.
	Prometheus bool
	// OTLPEndpoint, when set, pushes to a collector over gRPC.
	OTLPEndpoint string
	OTLPHeaders  map[string]string
	Insecure     bool
	PushInterval time.Duration
}

func readers(ctx context.Context, opts Options) ([]sdkmetric.Reader, error) {
	var out []sdkmetric.Reader

	if opts.Prometheus {
		exp, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("prometheus exporter: %w", err)
		}
		out = append(out, exp)
	}

	if opts.OTLPEndpoint != "" {
		grpcOpts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpointURL(opts.OTLPEndpoint),
			otlpmetricgrpc.WithHeaders(opts.OTLPHeaders),
		}
		if opts.Insecure {
			grpcOpts = append(grpcOpts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, fmt.Errorf("otlp metric exporter: %w", err)
		}

		interval := opts.PushInterval
		if interval <= 0 {
			interval = defaultPushInterval
		}
		out = append(out, sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval)))
	}

	if len(out) == 0 {
		return nil, ErrNoReaders
	}
	return out, nil
}

// NewMetricProvider builds a meter provider with the enabled readers and
// installs it globally. Instruments created earlier stay no-ops.
func NewMetricProvider(ctx context.Context, opts Options) (MetricProvider, error) {
	rs, err := readers(ctx, opts)
	if err != nil {
		return nil, err
	}

	sdkOpts := make([]sdkmetric.Option, 0, len(rs)+1)
	for _, r := range rs {
		sdkOpts = append(sdkOpts, sdkmetric.WithReader(r))
	}
	sdkOpts = append(sdkOpts, sdkmetric.WithResource(
		resource.NewSchemaless(semconv.ServiceNameKey.String(opts.ServiceName)),
	))

	mp := sdkmetric.NewMeterProvider(sdkOpts...)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Handler serves the Prometheus exposition format from the default registry,
// which the prometheus reader writes to.
func Handler() http.Handler {
	return promhttp.Handler()
}
