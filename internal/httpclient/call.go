package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 4 << 20

// StatusHandler turns a response into an error. It runs for every status,
// so it must return nil for the ones it accepts.
type StatusHandler func(status int, body []byte) error

// Call describes one logical GET. Endpoint is a low-cardinality label for
// metrics; Path may carry identifiers.
type Call struct {
	Endpoint string
	Path     string
	Query    url.Values
	// Into receives the decoded JSON body of a 2xx response.
	Into     any
	OnStatus StatusHandler
	// Attrs are added to the span and to the metric labels.
	Attrs []attribute.KeyValue
}

// Response is the final attempt of a Call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Attempts   int
}

// Get runs call, retrying per the client's RetryPolicy. When OnStatus rejects
// the final response, both the response and that error are returned.
func (c *Client) Get(ctx context.Context, call Call) (*Response, error) {
	target := c.url(call.Path, call.Query)
	backoff := c.retry.Backoff

	for attempt := 1; ; attempt++ {
		resp, err := c.attempt(ctx, call, target, attempt)
		if attempt > c.retry.MaxRetries || !retryable(ctx, resp, err) {
			return c.finish(call, resp, err)
		}

		wait := backoff
		if d, ok := retryAfter(resp); ok {
			wait = d
		}
		if c.sleep(ctx, wait) != nil {
			return c.finish(call, resp, err)
		}
		backoff *= 2
	}
}

func (c *Client) finish(call Call, resp *Response, err error) (*Response, error) {
	if err != nil {
		return resp, err
	}
	if call.OnStatus != nil {
		if herr := call.OnStatus(resp.StatusCode, resp.Body); herr != nil {
			return resp, herr
		}
	}
	if call.Into != nil && resp.StatusCode < 300 && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, call.Into); err != nil {
			return resp, fmt.Errorf("decode %s response: %w", call.Endpoint, err)
		}
	}
	return resp, nil
}

func (c *Client) attempt(ctx context.Context, call Call, target string, n int) (*Response, error) {
	attrs := append([]attribute.KeyValue{
		attribute.String("provider", c.provider),
		attribute.String("endpoint", call.Endpoint),
	}, call.Attrs...)

	ctx, span := c.tracer.Start(ctx, c.provider+"."+call.Endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
		trace.WithAttributes(
			attribute.String("http.url", target),
			attribute.Int("http.attempt", n),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := c.do(ctx, target, span)
	outcome := outcomeOf(resp, err)

	mattrs := metric.WithAttributes(append(attrs, attribute.String("outcome", outcome))...)
	c.requests.Add(ctx, 1, mattrs)
	c.latency.Record(ctx, float64(time.Since(start).Microseconds())/1000, mattrs)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return nil, err
	}
	resp.Attempts = n
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, target string, span trace.Span) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	span.AddEvent("request.headers", trace.WithAttributes(c.maskedHeaders(req.Header)...))

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return &Response{StatusCode: res.StatusCode, Header: res.Header, Body: body}, nil
}

// url joins the base URL, path and encoded query. An absolute path is used as is.
func (c *Client) url(path string, query url.Values) string {
	full := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		full = c.baseURL + "/" + strings.TrimPrefix(path, "/")
	}
	if len(query) == 0 {
		return full
	}
	sep := "?"
	if strings.Contains(full, "?") {
		sep = "&"
	}
	return full + sep + query.Encode()
}

func retryable(ctx context.Context, resp *Response, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		return true
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
}

// retryAfter reads a delay-seconds Retry-After header.
func retryAfter(resp *Response) (time.Duration, bool) {
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		return 0, false
	}
	secs, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After")))
	if err != nil || secs < 0 {
		return 0, false
	}
	return min(time.Duration(secs)*time.Second, maxRetryAfter), true
}

func outcomeOf(resp *Response, err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case err != nil:
		var uerr *url.Error
		if errors.As(err, &uerr) && uerr.Timeout() {
			return "timeout"
		}
		return "transport_error"
	case resp.StatusCode >= 500:
		return "server_error"
	case resp.StatusCode == http.StatusTooManyRequests:
		return "rate_limited"
	case resp.StatusCode >= 400:
		return "client_error"
	default:
		return "ok"
	}
}
