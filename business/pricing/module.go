// Package pricing implements the pricing bounded context: per-chain token quotes.
package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/fd1az/crosschain-arb/business/pricing/app"
	pricingDI "github.com/fd1az/crosschain-arb/business/pricing/di"
	"github.com/fd1az/crosschain-arb/business/pricing/infra/coingecko"
	"github.com/fd1az/crosschain-arb/internal/config"
	"github.com/fd1az/crosschain-arb/internal/di"
	"github.com/fd1az/crosschain-arb/internal/logger"
	"github.com/fd1az/crosschain-arb/internal/monolith"
	"github.com/fd1az/crosschain-arb/internal/ratelimit"
	"github.com/fd1az/crosschain-arb/internal/redisclient"
)

const rateLimitKey = "coingecko"

// Module implements the pricing bounded context.
type Module struct{}

// RegisterServices registers all pricing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Shared limiter when Redis is available, local token bucket otherwise.
	di.RegisterToken(c, pricingDI.RateLimiter, func(sr di.ServiceRegistry) ratelimit.Limiter {
		cfg := sr.Get("config").(*config.Config)
		if rc, ok := sr.Get("redis").(*redisclient.Client); ok && rc != nil {
			return ratelimit.NewDistributed(rc.Underlying(), rateLimitKey, cfg.CoinGecko.RequestsPerMinute, time.Minute)
		}
		return ratelimit.New(cfg.CoinGecko.RequestsPerMinute)
	})

	// Register CoinGecko provider - private dependency
	di.RegisterToken(c, pricingDI.CoinGecko, func(sr di.ServiceRegistry) *coingecko.Provider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		client, err := coingecko.NewHTTPClient(coingecko.HTTPClientConfig{
			BaseURL:      cfg.CoinGecko.BaseURL,
			APIKey:       cfg.CoinGecko.APIKey,
			APIKeyHeader: cfg.CoinGecko.APIKeyHeader,
			Timeout:      cfg.CoinGecko.RequestTimeout,
			MaxRetries:   cfg.CoinGecko.MaxRetries,
		}, log)
		if err != nil {
			panic("failed to create coingecko client: " + err.Error())
		}

		return coingecko.NewProvider(client, pricingDI.GetRateLimiter(sr), coingecko.ProviderConfig{
			PlatformCacheTTL: cfg.CoinGecko.PlatformCacheTTL,
		}, log)
	})

	// Register Aggregator (public - exposed to other modules)
	di.RegisterToken(c, pricingDI.Aggregator, func(sr di.ServiceRegistry) *app.Aggregator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		agg, err := app.NewAggregator(pricingDI.GetCoinGecko(sr), app.AggregatorConfig{
			ChainTimeout:   cfg.Scanner.ChainTimeout,
			MaxConcurrency: cfg.Scanner.MaxConcurrency,
		}, log)
		if err != nil {
			panic("failed to create aggregator: " + err.Error())
		}
		return agg
	})

	return nil
}

// Startup checks CoinGecko reachability, registers the breaker health check and
// ties the provider's cache to monolith shutdown.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	provider := pricingDI.GetCoinGecko(mono.Services())

	// Don't fail startup if CoinGecko is down; quotes degrade to absent.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := provider.Ping(pingCtx); err != nil {
		log.Warn(ctx, "coingecko unreachable at startup, quotes will be absent until it recovers", "error", err)
	}

	mono.OnClose(provider.Close)

	mono.RegisterHealthCheck("coingecko", func(context.Context) (bool, string) {
		open := 0
		for _, state := range provider.BreakerStates() {
			if state == gobreaker.StateOpen {
				open++
			}
		}
		if open == len(provider.BreakerStates()) {
			return false, "all chain breakers open"
		}
		if open > 0 {
			return true, fmt.Sprintf("%d chain breaker(s) open", open)
		}
		return true, "ok"
	})

	log.Info(ctx, "pricing module started", "source", provider.Name())
	return nil
}
