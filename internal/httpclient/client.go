// Package httpclient is a small instrumented HTTP client for JSON APIs: OTEL
// spans and metrics per attempt, bounded retries for idempotent GETs, and
// header redaction in traces.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptrace"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTimeout         = 10 * time.Second
	defaultMaxConnsPerHost = 5
	defaultIdleConnTimeout = 2 * time.Minute
	defaultBackoff         = 500 * time.Millisecond
	maxRetryAfter          = 30 * time.Second

	instrumentationName = "crosschain-arb/httpclient"
)

// RetryPolicy bounds retries of GET requests on transport errors, 429 and 5xx.
type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int
	// Backoff is the wait before the first retry; it doubles each attempt.
	// A Retry-After header on a 429 takes precedence, capped at 30s.
	Backoff time.Duration
}

// Config configures a Client. Only BaseURL is required.
type Config struct {
	// Provider names the upstream in spans and metrics.
	Provider string
	BaseURL  string
	Timeout  time.Duration
	Headers  map[string]string
	// Sensitive headers are masked when headers are recorded on spans.
	Sensitive []string
	Retry     RetryPolicy

	Transport     http.RoundTripper
	MeterProvider metric.MeterProvider
}

// Client issues requests against one base URL.
type Client struct {
	http      *http.Client
	provider  string
	baseURL   string
	headers   map[string]string
	sensitive map[string]bool
	retry     RetryPolicy
	tracer    trace.Tracer
	requests  metric.Int64Counter
	latency   metric.Float64Histogram
	sleep     func(ctx context.Context, d time.Duration) error
}

// New builds a Client.
func New(cfg Config) (*Client, error) {
	if cfg.Provider == "" {
		cfg.Provider = "default"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Retry.Backoff <= 0 {
		cfg.Retry.Backoff = defaultBackoff
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			DialContext:     (&net.Dialer{KeepAlive: 10 * time.Second}).DialContext,
			MaxConnsPerHost: defaultMaxConnsPerHost,
			IdleConnTimeout: defaultIdleConnTimeout,
		}
	}

	mp := cfg.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	requests, err := meter.Int64Counter("http_client_requests_total",
		metric.WithDescription("Outbound HTTP attempts by provider, endpoint and outcome"))
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram("http_client_request_duration_ms",
		metric.WithDescription("Outbound HTTP attempt latency"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	sensitive := make(map[string]bool, len(cfg.Sensitive))
	for _, h := range cfg.Sensitive {
		sensitive[strings.ToLower(h)] = true
	}

	return &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: otelhttp.NewTransport(transport,
				otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
					return otelhttptrace.NewClientTrace(ctx)
				}),
			),
		},
		provider:  cfg.Provider,
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		headers:   cfg.Headers,
		sensitive: sensitive,
		retry:     cfg.Retry,
		tracer:    otel.Tracer(instrumentationName),
		requests:  requests,
		latency:   latency,
		sleep:     sleepCtx,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// maskedHeaders renders h for a span, hiding sensitive values.
func (c *Client) maskedHeaders(h http.Header) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(h))
	for k, v := range h {
		key := strings.ToLower(k)
		val := strings.Join(v, ",")
		if c.sensitive[key] {
			val = "*****"
		}
		attrs = append(attrs, attribute.String("http.request.header."+key, val))
	}
	return attrs
}
