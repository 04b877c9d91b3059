package coingecko

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CoinResponse is the subset of the /coins/{id} and
// /coins/{platform}/contract/{address} payloads we read.
type CoinResponse struct {
	ID         string            `json:"id"`
	Symbol     string            `json:"symbol"`
	Name       string            `json:"name"`
	Platforms  map[string]string `json:"platforms"`
	MarketData *MarketData       `json:"market_data"`
}

// MarketData holds per-currency figures keyed by currency code ("usd").
type MarketData struct {
	CurrentPrice             map[string]decimal.Decimal `json:"current_price"`
	MarketCap                map[string]decimal.Decimal `json:"market_cap"`
	TotalVolume              map[string]decimal.Decimal `json:"total_volume"`
	PriceChangePercentage24h *decimal.Decimal           `json:"price_change_percentage_24h"`
}

// USD returns the USD figure in m, if present.
func usd(m map[string]decimal.Decimal) (decimal.Decimal, bool) {
	v, ok := m["usd"]
	return v, ok
}

// usdPtr returns a pointer to the USD figure, or nil when absent.
func usdPtr(m map[string]decimal.Decimal) *decimal.Decimal {
	if v, ok := usd(m); ok {
		return &v
	}
	return nil
}

// APIError is CoinGecko's error envelope. Both shapes appear in the wild:
// {"error":"coin not found"} and {"status":{"error_code":429,"error_message":"..."}}.
type APIError struct {
	Message string `json:"error"`
	Status  *struct {
		Code    int    `json:"error_code"`
		Message string `json:"error_message"`
	} `json:"status"`
}

func (e *APIError) Error() string {
	if e.Status != nil {
		return fmt.Sprintf("coingecko API error %d: %s", e.Status.Code, e.Status.Message)
	}
	return fmt.Sprintf("coingecko API error: %s", e.Message)
}
