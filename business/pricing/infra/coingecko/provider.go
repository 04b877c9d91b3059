// Package coingecko implements the CoinGecko price source.
package coingecko

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/fd1az/crosschain-arb/business/pricing/app"
	"github.com/fd1az/crosschain-arb/business/pricing/domain"
	"github.com/fd1az/crosschain-arb/internal/apperror"
	"github.com/fd1az/crosschain-arb/internal/asset"
	"github.com/fd1az/crosschain-arb/internal/cache"
	"github.com/fd1az/crosschain-arb/internal/circuitbreaker"
	"github.com/fd1az/crosschain-arb/internal/logger"
	"github.com/fd1az/crosschain-arb/internal/ratelimit"
)

const (
	sourceName = "coingecko"

	defaultPlatformCacheTTL = time.Hour
	cacheCleanupInterval    = 10 * time.Minute
)

// API is the part of HTTPClient the provider needs.
type API interface {
	GetContractCoin(ctx context.Context, platform, address string) (*CoinResponse, error)
	GetCoin(ctx context.Context, id string) (*CoinResponse, error)
	Ping(ctx context.Context) error
}

// ProviderConfig holds provider configuration.
type ProviderConfig struct {
	PlatformCacheTTL time.Duration
}

// Provider prices tokens per chain through the CoinGecko contract endpoint.
// Coin ids are first resolved to per-platform contract addresses.
type Provider struct {
	api     API
	limiter ratelimit.Limiter
	logger  logger.LoggerInterface

	// One breaker per chain so an outage on one platform does not block the rest.
	// Built once in NewProvider and only read afterwards.
	breakers map[domain.Chain]*circuitbreaker.CircuitBreaker[*domain.ChainQuote]

	platforms    *cache.Cache[string, map[string]string]
	platformsTTL time.Duration
	resolve      singleflight.Group

	now func() time.Time
}

var _ app.PriceSource = (*Provider)(nil)

// NewProvider creates a CoinGecko price source.
func NewProvider(api API, limiter ratelimit.Limiter, cfg ProviderConfig, log logger.LoggerInterface) *Provider {
	ttl := cfg.PlatformCacheTTL
	if ttl <= 0 {
		ttl = defaultPlatformCacheTTL
	}

	p := &Provider{
		api:          api,
		limiter:      limiter,
		logger:       log,
		breakers:     make(map[domain.Chain]*circuitbreaker.CircuitBreaker[*domain.ChainQuote]),
		platforms:    cache.New[string, map[string]string](cacheCleanupInterval),
		platformsTTL: ttl,
		now:          time.Now,
	}

	for _, chain := range domain.AllChains() {
		cbCfg := circuitbreaker.DefaultConfig("coingecko-" + string(chain))
		cbCfg.IsSuccessful = countsAsSuccess
		cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
			log.Warn(context.Background(), "price source circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		}
		p.breakers[chain] = circuitbreaker.New[*domain.ChainQuote](cbCfg)
	}

	return p
}

// countsAsSuccess keeps "this token has no listing" answers from tripping a
// breaker; only transport and server failures count.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	switch apperror.GetCode(err) {
	case apperror.CodeTokenNotListed, apperror.CodePriceUnavailable, apperror.CodeUnsupportedToken:
		return true
	}
	return false
}

// Name identifies the source in metrics and logs.
func (p *Provider) Name() string {
	return sourceName
}

// GetQuote returns the token's USD price on chain.
func (p *Provider) GetQuote(ctx context.Context, token asset.TokenID, chain domain.Chain) (*domain.ChainQuote, error) {
	platform := chain.PlatformID()
	if platform == "" || !chain.Accepts(token.Kind()) {
		return nil, apperror.New(apperror.CodeUnsupportedToken, apperror.WithContext(string(chain)))
	}

	address := token.String()
	if token.Kind() == asset.KindCoinID {
		platforms, err := p.platformsFor(ctx, token.String())
		if err != nil {
			return nil, err
		}
		address = platforms[platform]
		if address == "" {
			return nil, apperror.New(apperror.CodeTokenNotListed,
				apperror.WithContext(token.String()+" has no contract on "+platform))
		}
	}

	cb := p.breakers[chain]
	if cb.State() == gobreaker.StateOpen {
		return nil, circuitOpen(chain, gobreaker.ErrOpenState)
	}

	// The slot is taken outside the breaker: a local quota shortfall says
	// nothing about CoinGecko's health.
	if err := p.wait(ctx, string(chain)); err != nil {
		return nil, err
	}

	quote, err := cb.Execute(func() (*domain.ChainQuote, error) {
		return p.fetchQuote(ctx, chain, platform, address)
	})
	if circuitbreaker.IsOpen(err) {
		return nil, circuitOpen(chain, err)
	}
	return quote, err
}

func circuitOpen(chain domain.Chain, cause error) error {
	return apperror.New(apperror.CodeCircuitOpen,
		apperror.WithCause(cause),
		apperror.WithContext(string(chain)))
}

func (p *Provider) fetchQuote(ctx context.Context, chain domain.Chain, platform, address string) (*domain.ChainQuote, error) {
	coin, err := p.api.GetContractCoin(ctx, platform, address)
	if err != nil {
		return nil, err
	}

	return toChainQuote(chain, coin, p.now())
}

func toChainQuote(chain domain.Chain, coin *CoinResponse, fetchedAt time.Time) (*domain.ChainQuote, error) {
	if coin == nil || coin.MarketData == nil {
		return nil, apperror.New(apperror.CodePriceUnavailable, apperror.WithContext(string(chain)))
	}

	price, ok := usd(coin.MarketData.CurrentPrice)
	if !ok || !price.IsPositive() {
		return nil, apperror.New(apperror.CodePriceUnavailable, apperror.WithContext(string(chain)))
	}

	return &domain.ChainQuote{
		Chain:          chain,
		Price:          price,
		MarketCap:      usdPtr(coin.MarketData.MarketCap),
		Volume24h:      usdPtr(coin.MarketData.TotalVolume),
		PriceChange24h: coin.MarketData.PriceChangePercentage24h,
		Source:         sourceName,
		FetchedAt:      fetchedAt,
	}, nil
}

// wait takes a request slot from the shared limiter.
func (p *Provider) wait(ctx context.Context, subject string) error {
	err := p.limiter.Wait(ctx)
	if errors.Is(err, ratelimit.ErrQuotaExhausted) {
		return apperror.New(apperror.CodeQuotaExhausted,
			apperror.WithCause(err),
			apperror.WithContext(subject))
	}
	return err
}

// platformsFor resolves a coin id to its platform→contract map. Concurrent
// callers for the same id share one request.
func (p *Provider) platformsFor(ctx context.Context, coinID string) (map[string]string, error) {
	if platforms, ok := p.platforms.Get(ctx, coinID); ok {
		return platforms, nil
	}

	v, err, _ := p.resolve.Do(coinID, func() (any, error) {
		if platforms, ok := p.platforms.Get(ctx, coinID); ok {
			return platforms, nil
		}
		if err := p.wait(ctx, coinID); err != nil {
			return nil, err
		}
		coin, err := p.api.GetCoin(ctx, coinID)
		if err != nil {
			return nil, err
		}

		platforms := make(map[string]string, len(coin.Platforms))
		for k, v := range coin.Platforms {
			if k != "" && v != "" {
				platforms[k] = v
			}
		}
		p.platforms.Set(ctx, coinID, platforms, p.platformsTTL)
		p.logger.Debug(ctx, "resolved coin platforms", "coin", coinID, "platforms", len(platforms))
		return platforms, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]string), nil
}

// BreakerStates reports each chain's breaker state.
func (p *Provider) BreakerStates() map[domain.Chain]gobreaker.State {
	states := make(map[domain.Chain]gobreaker.State, len(p.breakers))
	for chain, cb := range p.breakers {
		states[chain] = cb.State()
	}
	return states
}

// Ping checks API reachability.
func (p *Provider) Ping(ctx context.Context) error {
	return p.api.Ping(ctx)
}

// Close releases the platform cache.
func (p *Provider) Close() {
	p.platforms.Close()
}
