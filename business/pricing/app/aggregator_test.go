package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/crosschain-arb/business/pricing/domain"
	"github.com/fd1az/crosschain-arb/internal/apperror"
	"github.com/fd1az/crosschain-arb/internal/asset"
	"github.com/fd1az/crosschain-arb/internal/logger"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

// fakeSource answers per chain with a price, an error or a delay.
type fakeSource struct {
	prices map[domain.Chain]string
	errs   map[domain.Chain]error
	delays map[domain.Chain]time.Duration

	mu    sync.Mutex
	calls []domain.Chain
	inFly atomic.Int32
	peak  atomic.Int32
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) GetQuote(ctx context.Context, token asset.TokenID, chain domain.Chain) (*domain.ChainQuote, error) {
	f.mu.Lock()
	f.calls = append(f.calls, chain)
	f.mu.Unlock()

	n := f.inFly.Add(1)
	defer f.inFly.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if d := f.delays[chain]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.errs[chain]; err != nil {
		return nil, err
	}
	price, ok := f.prices[chain]
	if !ok {
		return nil, apperror.New(apperror.CodeTokenNotListed)
	}
	return &domain.ChainQuote{Chain: chain, Price: decimal.RequireFromString(price), Source: "fake"}, nil
}

func (f *fakeSource) called() []domain.Chain {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Chain(nil), f.calls...)
}

func newTestAggregator(t *testing.T, src PriceSource, cfg AggregatorConfig) *Aggregator {
	t.Helper()
	agg, err := NewAggregator(src, cfg, &mockLogger{})
	require.NoError(t, err)
	return agg
}

func TestFetchQuotes_PartialFailureIsContained(t *testing.T) {
	src := &fakeSource{
		prices: map[domain.Chain]string{
			domain.ChainEthereum: "1.00",
			domain.ChainPolygon:  "1.02",
			domain.ChainBase:     "0",
		},
		errs: map[domain.Chain]error{
			domain.ChainArbitrum: apperror.External(apperror.CodeCoinGeckoRequestFailed, "arbitrum", errors.New("502")),
		},
		delays: map[domain.Chain]time.Duration{
			domain.ChainOptimism: time.Second,
		},
	}
	agg := newTestAggregator(t, src, AggregatorConfig{ChainTimeout: 50 * time.Millisecond})

	chains := []domain.Chain{
		domain.ChainBSC, domain.ChainOptimism, domain.ChainBase,
		domain.ChainArbitrum, domain.ChainPolygon, domain.ChainEthereum,
	}
	set, err := agg.FetchQuotes(context.Background(), "chainlink", chains)
	require.NoError(t, err)

	assert.Len(t, set.Results, 6, "exactly one entry per requested chain")
	assert.Equal(t, 2, set.PresentCount())

	present := set.Present()
	require.Len(t, present, 2)
	assert.Equal(t, domain.ChainEthereum, present[0].Chain)
	assert.Equal(t, domain.ChainPolygon, present[1].Chain)

	assert.Equal(t, domain.ReasonUpstreamError, set.Results[domain.ChainArbitrum].Reason)
	assert.Equal(t, domain.ReasonTimeout, set.Results[domain.ChainOptimism].Reason)
	assert.Equal(t, domain.ReasonNoPrice, set.Results[domain.ChainBase].Reason)
	assert.Equal(t, domain.ReasonNotListed, set.Results[domain.ChainBSC].Reason)
}

func TestFetchQuotes_ConcurrentFanOut(t *testing.T) {
	delay := 100 * time.Millisecond
	src := &fakeSource{
		prices: map[domain.Chain]string{},
		delays: map[domain.Chain]time.Duration{},
	}
	for _, c := range domain.DefaultChains() {
		src.prices[c] = "2"
		src.delays[c] = delay
	}
	agg := newTestAggregator(t, src, AggregatorConfig{ChainTimeout: time.Second})

	start := time.Now()
	set, err := agg.FetchQuotes(context.Background(), "chainlink", domain.DefaultChains())
	require.NoError(t, err)
	elapsed := time.Since(start)

	assert.Equal(t, 6, set.PresentCount())
	assert.Less(t, elapsed, 3*delay, "latency should track the slowest chain, not the sum")
	assert.Greater(t, src.peak.Load(), int32(1))
}

func TestFetchQuotes_RespectsConcurrencyLimit(t *testing.T) {
	src := &fakeSource{prices: map[domain.Chain]string{}, delays: map[domain.Chain]time.Duration{}}
	for _, c := range domain.AllChains() {
		src.prices[c] = "1"
		src.delays[c] = 20 * time.Millisecond
	}
	agg := newTestAggregator(t, src, AggregatorConfig{ChainTimeout: time.Second, MaxConcurrency: 2})

	_, err := agg.FetchQuotes(context.Background(), "chainlink", domain.AllChains())
	require.NoError(t, err)
	assert.LessOrEqual(t, src.peak.Load(), int32(2))
}

func TestFetchQuotes_TokenKindMismatchSkipsOutboundCall(t *testing.T) {
	src := &fakeSource{prices: map[domain.Chain]string{domain.ChainEthereum: "1", domain.ChainSolana: "1"}}
	agg := newTestAggregator(t, src, AggregatorConfig{})

	set, err := agg.FetchQuotes(context.Background(),
		"0x514910771af9ca656af840dff83e8264ecf986ca",
		[]domain.Chain{domain.ChainEthereum, domain.ChainSolana})
	require.NoError(t, err)

	assert.True(t, set.Results[domain.ChainEthereum].IsPresent())
	assert.Equal(t, domain.ReasonUnsupportedToken, set.Results[domain.ChainSolana].Reason)
	assert.Equal(t, []domain.Chain{domain.ChainEthereum}, src.called())
}

func TestFetchQuotes_InvalidInputBeforeAnyCall(t *testing.T) {
	tests := []struct {
		name    string
		tokenID string
		chains  []domain.Chain
		code    apperror.Code
	}{
		{"empty token", "", domain.DefaultChains(), apperror.CodeInvalidTokenID},
		{"malformed token", "0xnothex", domain.DefaultChains(), apperror.CodeInvalidTokenID},
		{"empty chains", "chainlink", nil, apperror.CodeEmptyChainSet},
		{"unknown chain", "chainlink", []domain.Chain{"fantom"}, apperror.CodeInvalidChain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{}
			agg := newTestAggregator(t, src, AggregatorConfig{})

			_, err := agg.FetchQuotes(context.Background(), tt.tokenID, tt.chains)
			require.Error(t, err)
			assert.Equal(t, tt.code, apperror.GetCode(err))
			assert.Empty(t, src.called())
		})
	}
}

func TestFetchQuotes_ParentCancelled(t *testing.T) {
	src := &fakeSource{
		prices: map[domain.Chain]string{domain.ChainEthereum: "1"},
		delays: map[domain.Chain]time.Duration{domain.ChainEthereum: time.Second},
	}
	agg := newTestAggregator(t, src, AggregatorConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := agg.FetchQuotes(ctx, "chainlink", []domain.Chain{domain.ChainEthereum})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchQuotes_RateLimitedChains(t *testing.T) {
	src := &fakeSource{
		prices: map[domain.Chain]string{domain.ChainEthereum: "1.00"},
		errs: map[domain.Chain]error{
			domain.ChainPolygon:  apperror.New(apperror.CodeQuotaExhausted, apperror.WithContext("polygon")),
			domain.ChainArbitrum: apperror.External(apperror.CodeCoinGeckoRateLimited, "arbitrum", errors.New("429")),
		},
	}
	agg := newTestAggregator(t, src, AggregatorConfig{ChainTimeout: time.Second})

	set, err := agg.FetchQuotes(context.Background(), "chainlink",
		[]domain.Chain{domain.ChainEthereum, domain.ChainPolygon, domain.ChainArbitrum})
	require.NoError(t, err)

	assert.Equal(t, 1, set.PresentCount())
	assert.Equal(t, domain.ReasonRateLimited, set.Results[domain.ChainPolygon].Reason)
	assert.Equal(t, domain.ReasonRateLimited, set.Results[domain.ChainArbitrum].Reason)
}
