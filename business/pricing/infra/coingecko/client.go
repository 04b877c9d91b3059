package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/fd1az/crosschain-arb/internal/apperror"
	"github.com/fd1az/crosschain-arb/internal/httpclient"
	"github.com/fd1az/crosschain-arb/internal/logger"
)

const (
	// DefaultBaseURL is the public API root.
	DefaultBaseURL = "https://api.coingecko.com/api/v3"

	// DefaultAPIKeyHeader is the demo-tier key header.
	DefaultAPIKeyHeader = "x-cg-demo-api-key"

	httpTimeout = 10 * time.Second
)

// HTTPClientConfig holds configuration for the CoinGecko HTTP client.
type HTTPClientConfig struct {
	BaseURL      string        // API base URL (empty = default)
	APIKey       string        // optional
	APIKeyHeader string        // header carrying APIKey
	Timeout      time.Duration // per request
	MaxRetries   int           // GET retries on 429/5xx
}

// HTTPClient provides CoinGecko REST API access.
type HTTPClient struct {
	client *httpclient.Client
	logger logger.LoggerInterface
}

// NewHTTPClient creates a new CoinGecko HTTP client.
func NewHTTPClient(cfg HTTPClientConfig, log logger.LoggerInterface) (*HTTPClient, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = httpTimeout
	}

	keyHeader := cfg.APIKeyHeader
	if keyHeader == "" {
		keyHeader = DefaultAPIKeyHeader
	}

	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers[keyHeader] = cfg.APIKey
	}

	client, err := httpclient.New(httpclient.Config{
		Provider:  "coingecko",
		BaseURL:   baseURL,
		Timeout:   timeout,
		Headers:   headers,
		Sensitive: []string{keyHeader},
		Retry:     httpclient.RetryPolicy{MaxRetries: cfg.MaxRetries, Backoff: 500 * time.Millisecond},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &HTTPClient{
		client: client,
		logger: log,
	}, nil
}

// GetContractCoin fetches coin data by contract address on an asset platform.
func (c *HTTPClient) GetContractCoin(ctx context.Context, platform, address string) (*CoinResponse, error) {
	var result CoinResponse
	_, err := c.client.Get(ctx, httpclient.Call{
		Endpoint: "contract",
		Path:     fmt.Sprintf("/coins/%s/contract/%s", url.PathEscape(platform), url.PathEscape(address)),
		Into:     &result,
		OnStatus: coingeckoErrorHandler,
		Attrs:    []attribute.KeyValue{attribute.String("platform", platform)},
	})
	if err != nil {
		return nil, wrapRequestError(err, platform)
	}

	c.logger.Debug(ctx, "fetched contract coin",
		"platform", platform,
		"address", address,
		"coin", result.ID)

	return &result, nil
}

// GetCoin fetches a coin by its CoinGecko id, including its platform contracts.
func (c *HTTPClient) GetCoin(ctx context.Context, id string) (*CoinResponse, error) {
	var result CoinResponse
	_, err := c.client.Get(ctx, httpclient.Call{
		Endpoint: "coin",
		Path:     "/coins/" + url.PathEscape(id),
		Query: url.Values{
			"localization":   {"false"},
			"tickers":        {"false"},
			"market_data":    {"false"},
			"community_data": {"false"},
			"developer_data": {"false"},
		},
		Into:     &result,
		OnStatus: coingeckoErrorHandler,
	})
	if err != nil {
		return nil, wrapRequestError(err, id)
	}

	c.logger.Debug(ctx, "fetched coin", "coin", id, "platforms", len(result.Platforms))
	return &result, nil
}

// Ping checks API reachability.
func (c *HTTPClient) Ping(ctx context.Context) error {
	_, err := c.client.Get(ctx, httpclient.Call{
		Endpoint: "ping",
		Path:     "/ping",
		OnStatus: coingeckoErrorHandler,
	})
	if err != nil {
		return wrapRequestError(err, "ping")
	}
	return nil
}

// wrapRequestError keeps AppErrors from the error handler and classifies the rest
// as transport failures.
func wrapRequestError(err error, subject string) error {
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.External(apperror.CodeCoinGeckoRequestFailed, subject, err)
}

// coingeckoErrorHandler maps CoinGecko error responses onto error codes.
func coingeckoErrorHandler(statusCode int, body []byte) error {
	if statusCode < 400 {
		return nil
	}

	var cause error = fmt.Errorf("HTTP %d: %s", statusCode, string(body))
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && (apiErr.Message != "" || apiErr.Status != nil) {
		cause = &apiErr
	}

	switch statusCode {
	case http.StatusNotFound:
		return apperror.New(apperror.CodeTokenNotListed, apperror.WithCause(cause))
	case http.StatusTooManyRequests:
		return apperror.New(apperror.CodeCoinGeckoRateLimited, apperror.WithCause(cause))
	default:
		return apperror.New(apperror.CodeCoinGeckoRequestFailed,
			apperror.WithCause(cause),
			apperror.WithContext(fmt.Sprintf("HTTP %d", statusCode)),
			apperror.WithStatusCode(http.StatusBadGateway))
	}
}
