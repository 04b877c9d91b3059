package apperror

import "net/http"

// Code is a stable, machine-readable error identifier.
type Code string

// General codes
const (
	CodeInvalidInput         Code = "INVALID_INPUT"
	CodeInvalidFormat        Code = "INVALID_FORMAT"
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeInternalError        Code = "INTERNAL_ERROR"
	CodeUnknownError         Code = "UNKNOWN_ERROR"
)

// Request validation
const (
	CodeInvalidTokenID   Code = "INVALID_TOKEN_ID"
	CodeInvalidChain     Code = "INVALID_CHAIN"
	CodeEmptyChainSet    Code = "INVALID_CHAIN_SET"
	CodeInvalidMinProfit Code = "INVALID_MIN_PROFIT"
	CodeInvalidTradeSize Code = "INVALID_TRADE_SIZE"
	CodeUnsupportedToken Code = "UNSUPPORTED_TOKEN_FOR_CHAIN"
)

// Price source
const (
	CodeCoinGeckoRequestFailed Code = "COINGECKO_REQUEST_FAILED"
	CodeCoinGeckoRateLimited   Code = "COINGECKO_RATE_LIMITED"
	CodeTokenNotListed         Code = "TOKEN_NOT_FOUND"
	CodePriceUnavailable       Code = "PRICE_UNAVAILABLE"
	CodeInvalidQuote           Code = "INVALID_QUOTE"
	CodeCircuitOpen            Code = "CIRCUIT_OPEN"
	CodeQuotaExhausted         Code = "REQUEST_QUOTA_EXHAUSTED"
)

// Infrastructure
const (
	CodeCostTableInvalid      Code = "COST_TABLE_INVALID"
	CodeCostTableLoad         Code = "COST_TABLE_LOAD_FAILED"
	CodeWebSocketAcceptFailed Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed       Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError    Code = "WEBSOCKET_SEND_ERROR"
	CodeRedisConnectionFailed Code = "REDIS_CONNECTION_FAILED"
)

type codeInfo struct {
	message string
	status  int
}

// catalog holds the default message and HTTP status of every code.
var catalog = map[Code]codeInfo{
	CodeInvalidInput:         {"Invalid input provided", http.StatusBadRequest},
	CodeInvalidFormat:        {"Invalid data format", http.StatusBadRequest},
	CodeExternalServiceError: {"External service error", http.StatusServiceUnavailable},
	CodeServiceTimeout:       {"Service request timeout", http.StatusGatewayTimeout},
	CodeInternalError:        {"Internal server error", http.StatusInternalServerError},
	CodeUnknownError:         {"An unknown error occurred", http.StatusInternalServerError},

	CodeInvalidTokenID:   {"Token id must be a CoinGecko id, an EVM address or a Solana mint", http.StatusBadRequest},
	CodeInvalidChain:     {"Unsupported chain", http.StatusBadRequest},
	CodeEmptyChainSet:    {"At least one chain is required", http.StatusBadRequest},
	CodeInvalidMinProfit: {"Minimum profit must be a non-negative amount", http.StatusBadRequest},
	CodeInvalidTradeSize: {"Notional amount must be positive", http.StatusBadRequest},
	CodeUnsupportedToken: {"Token format is not supported on this chain", http.StatusBadRequest},

	CodeCoinGeckoRequestFailed: {"CoinGecko request failed", http.StatusBadGateway},
	CodeCoinGeckoRateLimited:   {"CoinGecko rate limit reached", http.StatusTooManyRequests},
	CodeTokenNotListed:         {"Token is not listed on this chain", http.StatusNotFound},
	CodePriceUnavailable:       {"No USD price available", http.StatusNotFound},
	CodeInvalidQuote:           {"Price source returned an unusable quote", http.StatusBadGateway},
	CodeCircuitOpen:            {"Upstream temporarily disabled after repeated failures", http.StatusServiceUnavailable},
	CodeQuotaExhausted:         {"Request quota exhausted before the deadline", http.StatusTooManyRequests},

	CodeCostTableInvalid:      {"Cost table is invalid", http.StatusInternalServerError},
	CodeCostTableLoad:         {"Cost table could not be loaded", http.StatusInternalServerError},
	CodeWebSocketAcceptFailed: {"WebSocket upgrade failed", http.StatusBadRequest},
	CodeWebSocketClosed:       {"WebSocket connection is closed", http.StatusGone},
	CodeWebSocketSendError:    {"WebSocket write failed", http.StatusInternalServerError},
	CodeRedisConnectionFailed: {"Redis connection failed", http.StatusServiceUnavailable},
}

func (c Code) info() codeInfo {
	if info, ok := catalog[c]; ok {
		return info
	}
	return codeInfo{message: string(c), status: http.StatusInternalServerError}
}
