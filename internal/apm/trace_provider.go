package apm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/crosschain-arb/internal/logger"
)

type Provider string

const (
	ZipkinProvider  Provider = "zipkin"
	OTLPProvider    Provider = "otlp"
	ConsoleProvider Provider = "console"
	EmptyProvider   Provider = "none"
)

// ParseProvider maps a config value to a Provider. Unknown values are an error.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ZipkinProvider, OTLPProvider, ConsoleProvider, EmptyProvider:
		return p, nil
	case "":
		return EmptyProvider, nil
	default:
		return "", fmt.Errorf("unknown trace provider %q", s)
	}
}

type TraceProvider interface {
	Stop() error
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

type emptyTraceProvider struct{}

// NewEmptyTraceProvider leaves the global no-op tracer in place.
func NewEmptyTraceProvider() TraceProvider {
	return emptyTraceProvider{}
}

func (emptyTraceProvider) Stop() error {
	return nil
}

// TracerOptions configures the exporter.
type TracerOptions struct {
	ServiceName string
	Endpoint    string
	// Headers is a comma separated list of key=value pairs.
	Headers string
	// Protocol selects the OTLP transport: "grpc" (default) or "http/protobuf".
	Protocol string
}

// NewTraceProvider installs a global tracer provider exporting to provider.
func NewTraceProvider(ctx context.Context, provider Provider, opts TracerOptions, log logger.LoggerInterface) (TraceProvider, error) {
	if provider == EmptyProvider {
		return NewEmptyTraceProvider(), nil
	}

	exp, err := newExporter(ctx, provider, opts)
	if err != nil {
		return nil, fmt.Errorf("trace exporter %s: %w", provider, err)
	}

	rsrc, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(opts.ServiceName),
			attribute.String("otel.provider", string(provider)),
		))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(rsrc),
	)

	// Set global trace provider
	otel.SetTracerProvider(tp)

	// Set trace propagator
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	log.Info(ctx, "tracing enabled", "provider", provider, "endpoint", opts.Endpoint)

	return &traceProvider{
		tp,
	}, nil
}

func newExporter(ctx context.Context, provider Provider, opts TracerOptions) (sdktrace.SpanExporter, error) {
	switch provider {
	case ConsoleProvider:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())

	case ZipkinProvider:
		if opts.Endpoint == "" {
			return nil, fmt.Errorf("endpoint is required")
		}
		return zipkin.New(opts.Endpoint)

	case OTLPProvider:
		if opts.Endpoint == "" {
			return nil, fmt.Errorf("endpoint is required")
		}
		headers, err := ParseHeaders(opts.Headers)
		if err != nil {
			return nil, err
		}
		if opts.Protocol == "http/protobuf" {
			return otlptracehttp.New(ctx,
				otlptracehttp.WithEndpointURL(opts.Endpoint),
				otlptracehttp.WithHeaders(headers),
			)
		}
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpointURL(opts.Endpoint),
			otlptracegrpc.WithHeaders(headers),
		)

	default:
		return nil, fmt.Errorf("unsupported provider")
	}
}

// ParseHeaders parses "k1=v1,k2=v2".
func ParseHeaders(raw string) (map[string]string, error) {
	headers := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid header %q, expected key=value", pair)
		}
		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return headers, nil
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
	defer cancel()

	if err := o.tp.Shutdown(ctx); err != nil {
		return err
	}

	return nil
}
