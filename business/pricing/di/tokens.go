// Package di contains dependency injection tokens for the pricing context.
package di

import (
	"github.com/fd1az/crosschain-arb/business/pricing/app"
	"github.com/fd1az/crosschain-arb/business/pricing/infra/coingecko"
	"github.com/fd1az/crosschain-arb/internal/di"
	"github.com/fd1az/crosschain-arb/internal/ratelimit"
)

// Public service tokens - exposed to other modules
var (
	Aggregator = di.NewToken[*app.Aggregator]("pricing.Aggregator")
)

// Private dependency tokens - internal to pricing module
var (
	CoinGecko   = di.NewToken[*coingecko.Provider]("pricing:coingecko")
	RateLimiter = di.NewToken[ratelimit.Limiter]("pricing:rateLimiter")
)

// Helper functions for type-safe access
func GetAggregator(c di.ServiceRegistry) *app.Aggregator {
	return di.GetToken(c, Aggregator)
}

func GetCoinGecko(c di.ServiceRegistry) *coingecko.Provider {
	return di.GetToken(c, CoinGecko)
}

func GetRateLimiter(c di.ServiceRegistry) ratelimit.Limiter {
	return di.GetToken(c, RateLimiter)
}
