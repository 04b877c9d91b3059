package app

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/crosschain-arb/business/pricing/domain"
	"github.com/fd1az/crosschain-arb/internal/apm"
	"github.com/fd1az/crosschain-arb/internal/apperror"
	"github.com/fd1az/crosschain-arb/internal/asset"
	"github.com/fd1az/crosschain-arb/internal/logger"
)

const (
	meterName  = "github.com/fd1az/crosschain-arb/business/pricing"
	tracerName = "pricing.aggregator"

	defaultChainTimeout   = 10 * time.Second
	defaultMaxConcurrency = 8
)

// AggregatorConfig tunes the per-chain fan-out.
type AggregatorConfig struct {
	ChainTimeout   time.Duration
	MaxConcurrency int
}

type aggregatorMetrics struct {
	quotes   metric.Int64Counter
	duration metric.Float64Histogram
}

// Aggregator queries every requested chain concurrently and reports one
// result per chain. A failing chain becomes an absent entry; it never fails
// the whole call.
type Aggregator struct {
	source  PriceSource
	cfg     AggregatorConfig
	logger  logger.LoggerInterface
	tracer  apm.Tracer
	metrics *aggregatorMetrics
	now     func() time.Time
}

// NewAggregator creates an Aggregator over source.
func NewAggregator(source PriceSource, cfg AggregatorConfig, log logger.LoggerInterface) (*Aggregator, error) {
	if cfg.ChainTimeout <= 0 {
		cfg.ChainTimeout = defaultChainTimeout
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = defaultMaxConcurrency
	}

	a := &Aggregator{
		source: source,
		cfg:    cfg,
		logger: log,
		tracer: apm.NewTracer(tracerName),
		now:    time.Now,
	}
	if err := a.initMetrics(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Aggregator) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	a.metrics = &aggregatorMetrics{}

	a.metrics.quotes, err = meter.Int64Counter(
		"price_quotes_total",
		metric.WithDescription("Per-chain quote outcomes"),
		metric.WithUnit("{quote}"),
	)
	if err != nil {
		return err
	}

	a.metrics.duration, err = meter.Float64Histogram(
		"price_quote_duration_ms",
		metric.WithDescription("Per-chain quote latency"),
		metric.WithUnit("ms"),
	)
	return err
}

// ValidateRequest parses tokenID and chains the way FetchQuotes does, without
// any outbound call. Chains come back deduplicated in canonical order.
func ValidateRequest(tokenID string, chains []domain.Chain) (asset.TokenID, []domain.Chain, error) {
	token, err := asset.ParseTokenID(tokenID)
	if err != nil {
		return asset.TokenID{}, nil, apperror.Validation(apperror.CodeInvalidTokenID, err.Error())
	}
	if len(chains) == 0 {
		return asset.TokenID{}, nil, apperror.Validation(apperror.CodeEmptyChainSet, "chains must not be empty")
	}
	for _, c := range chains {
		if !c.Valid() {
			return asset.TokenID{}, nil, apperror.Validation(apperror.CodeInvalidChain, string(c))
		}
	}
	return token, domain.Canonical(chains), nil
}

// FetchQuotes returns one result per requested chain.
func (a *Aggregator) FetchQuotes(ctx context.Context, tokenID string, chains []domain.Chain) (domain.QuoteSet, error) {
	token, chains, err := ValidateRequest(tokenID, chains)
	if err != nil {
		return domain.QuoteSet{}, err
	}

	ctx, span := a.tracer.StartSpanFromContext(ctx, "pricing.fetch_quotes",
		attribute.String("token", token.String()),
		attribute.String("token.kind", token.Kind().String()),
		attribute.Int("chains", len(chains)),
	)
	defer span.End()

	// Each goroutine owns one slot; nothing else is shared.
	results := make([]domain.QuoteResult, len(chains))

	var g errgroup.Group
	g.SetLimit(a.cfg.MaxConcurrency)
	for i, chain := range chains {
		g.Go(func() error {
			results[i] = a.fetchOne(ctx, token, chain)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		span.NoticeError(err)
		return domain.QuoteSet{}, err
	}

	set := domain.QuoteSet{
		TokenID:   token.String(),
		Results:   make(map[domain.Chain]domain.QuoteResult, len(results)),
		FetchedAt: a.now(),
	}
	for _, r := range results {
		set.Results[r.Chain] = r
	}

	span.SetAttributes(attribute.Int("chains.present", set.PresentCount()))
	return set, nil
}

func (a *Aggregator) fetchOne(ctx context.Context, token asset.TokenID, chain domain.Chain) domain.QuoteResult {
	if !chain.Accepts(token.Kind()) {
		a.record(ctx, chain, domain.ReasonUnsupportedToken, 0)
		return domain.Absent(chain, domain.ReasonUnsupportedToken)
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.ChainTimeout)
	defer cancel()

	start := a.now()
	quote, err := a.source.GetQuote(ctx, token, chain)
	elapsed := time.Since(start)

	if err != nil {
		reason := classify(ctx, err)
		a.record(ctx, chain, reason, elapsed)
		a.logger.Warn(ctx, "chain quote unavailable",
			"chain", chain,
			"token", token.String(),
			"reason", reason,
			"error", err,
		)
		return domain.Absent(chain, reason)
	}

	if quote == nil || !quote.Price.IsPositive() {
		a.record(ctx, chain, domain.ReasonNoPrice, elapsed)
		a.logger.Debug(ctx, "chain quote has no usable price", "chain", chain, "token", token.String())
		return domain.Absent(chain, domain.ReasonNoPrice)
	}

	q := *quote
	q.Chain = chain
	if q.FetchedAt.IsZero() {
		q.FetchedAt = a.now()
	}

	a.record(ctx, chain, domain.ReasonNone, elapsed)
	return domain.Present(q)
}

// classify maps a source error to an absence reason.
func classify(ctx context.Context, err error) domain.AbsenceReason {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.ReasonTimeout
	}
	switch apperror.GetCode(err) {
	case apperror.CodeTokenNotListed:
		return domain.ReasonNotListed
	case apperror.CodePriceUnavailable, apperror.CodeInvalidQuote:
		return domain.ReasonNoPrice
	case apperror.CodeUnsupportedToken:
		return domain.ReasonUnsupportedToken
	case apperror.CodeCircuitOpen:
		return domain.ReasonCircuitOpen
	case apperror.CodeQuotaExhausted, apperror.CodeCoinGeckoRateLimited:
		return domain.ReasonRateLimited
	default:
		return domain.ReasonUpstreamError
	}
}

func (a *Aggregator) record(ctx context.Context, chain domain.Chain, reason domain.AbsenceReason, elapsed time.Duration) {
	outcome := "present"
	if reason != domain.ReasonNone {
		outcome = string(reason)
	}
	// Detached from ctx so timed-out chains are still counted.
	mctx := context.WithoutCancel(ctx)
	attrs := metric.WithAttributes(
		attribute.String("chain", string(chain)),
		attribute.String("outcome", outcome),
		attribute.String("source", a.source.Name()),
	)
	a.metrics.quotes.Add(mctx, 1, attrs)
	if reason != domain.ReasonNone {
		a.tracer.SpanFromContext(ctx).AddEvent("chain.absent",
			attribute.String("chain", string(chain)),
			attribute.String("reason", string(reason)),
		)
	}
	if elapsed > 0 {
		a.metrics.duration.Record(mctx, float64(elapsed.Microseconds())/1000, attrs)
	}
}
