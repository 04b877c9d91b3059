package app

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/crosschain-arb/business/arbitrage/domain"
	pricingApp "github.com/fd1az/crosschain-arb/business/pricing/app"
	pricingDomain "github.com/fd1az/crosschain-arb/business/pricing/domain"
	"github.com/fd1az/crosschain-arb/internal/apm"
	"github.com/fd1az/crosschain-arb/internal/apperror"
	"github.com/fd1az/crosschain-arb/internal/logger"
)

const (
	meterName  = "github.com/fd1az/crosschain-arb/business/arbitrage"
	tracerName = "arbitrage.scanner"

	defaultMaxResults = 10
)

var defaultNotionalAmount = decimal.NewFromInt(10000)

// ScannerConfig holds the defaults applied to requests that omit them. A zero
// MinProfitUSD is a real threshold of zero, not "unset".
type ScannerConfig struct {
	DefaultChains  []pricingDomain.Chain
	MinProfitUSD   decimal.Decimal
	NotionalAmount decimal.Decimal
	MaxResults     int
}

// ScanRequest asks for opportunities on one token. Nil and empty fields take
// the scanner defaults.
type ScanRequest struct {
	TokenID        string
	Chains         []pricingDomain.Chain
	MinProfitUSD   *decimal.Decimal
	NotionalAmount *decimal.Decimal
}

type scannerMetrics struct {
	scans         metric.Int64Counter
	opportunities metric.Int64Counter
	duration      metric.Float64Histogram
}

// Scanner derives cross-chain opportunities from one quote snapshot per call.
// It keeps no state between calls.
type Scanner struct {
	quotes     QuoteAggregator
	calculator *ProfitCalculator
	cfg        ScannerConfig
	logger     logger.LoggerInterface
	tracer     apm.Tracer
	metrics    *scannerMetrics
	now        func() time.Time
	newID      func() string
}

// NewScanner creates a Scanner.
func NewScanner(
	quotes QuoteAggregator,
	calculator *ProfitCalculator,
	cfg ScannerConfig,
	log logger.LoggerInterface,
) (*Scanner, error) {
	if len(cfg.DefaultChains) == 0 {
		cfg.DefaultChains = pricingDomain.DefaultChains()
	}
	if cfg.MinProfitUSD.IsNegative() {
		return nil, apperror.Validation(apperror.CodeInvalidMinProfit, cfg.MinProfitUSD.String())
	}
	if !cfg.NotionalAmount.IsPositive() {
		cfg.NotionalAmount = defaultNotionalAmount
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}

	s := &Scanner{
		quotes:     quotes,
		calculator: calculator,
		cfg:        cfg,
		logger:     log,
		tracer:     apm.NewTracer(tracerName),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	if err := s.initMetrics(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scanner) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &scannerMetrics{}

	s.metrics.scans, err = meter.Int64Counter(
		"arbitrage_scans_total",
		metric.WithDescription("Completed opportunity scans"),
		metric.WithUnit("{scan}"),
	)
	if err != nil {
		return err
	}

	s.metrics.opportunities, err = meter.Int64Counter(
		"arbitrage_opportunities_total",
		metric.WithDescription("Opportunities above threshold, before truncation"),
		metric.WithUnit("{opportunity}"),
	)
	if err != nil {
		return err
	}

	s.metrics.duration, err = meter.Float64Histogram(
		"arbitrage_scan_duration_ms",
		metric.WithDescription("End to end scan latency"),
		metric.WithUnit("ms"),
	)
	return err
}

// Config returns the effective defaults.
func (s *Scanner) Config() ScannerConfig {
	cfg := s.cfg
	cfg.DefaultChains = append([]pricingDomain.Chain(nil), s.cfg.DefaultChains...)
	return cfg
}

// Costs returns the cost model used for every scan.
func (s *Scanner) Costs() *domain.CostModel {
	return s.calculator.Costs()
}

type resolvedRequest struct {
	tokenID   string
	chains    []pricingDomain.Chain
	minProfit decimal.Decimal
	notional  decimal.Decimal
}

// resolve applies defaults and validates everything before any outbound call.
func (s *Scanner) resolve(req ScanRequest) (resolvedRequest, error) {
	chains := req.Chains
	if len(chains) == 0 {
		chains = s.cfg.DefaultChains
	}

	token, chains, err := pricingApp.ValidateRequest(req.TokenID, chains)
	if err != nil {
		return resolvedRequest{}, err
	}

	minProfit := s.cfg.MinProfitUSD
	if req.MinProfitUSD != nil {
		minProfit = *req.MinProfitUSD
	}
	if minProfit.IsNegative() {
		return resolvedRequest{}, apperror.Validation(apperror.CodeInvalidMinProfit, minProfit.String())
	}

	notional := s.cfg.NotionalAmount
	if req.NotionalAmount != nil {
		notional = *req.NotionalAmount
	}
	if !notional.IsPositive() {
		return resolvedRequest{}, apperror.Validation(apperror.CodeInvalidTradeSize, notional.String())
	}

	return resolvedRequest{
		tokenID:   token.String(),
		chains:    chains,
		minProfit: minProfit,
		notional:  notional,
	}, nil
}

// Validate applies the same checks as Scan without fetching anything.
func (s *Scanner) Validate(req ScanRequest) error {
	_, err := s.resolve(req)
	return err
}

// Scan fetches one quote per chain and returns the best opportunities after
// costs, best net profit first.
func (s *Scanner) Scan(ctx context.Context, req ScanRequest) (*domain.ScanResult, error) {
	r, err := s.resolve(req)
	if err != nil {
		return nil, err
	}

	start := s.now()
	ctx, span := s.tracer.StartSpanFromContext(ctx, "arbitrage.scan",
		attribute.String("token", r.tokenID),
		attribute.Int("chains", len(r.chains)),
		attribute.String("notional", r.notional.String()),
	)
	defer span.End()

	quotes, err := s.quotes.FetchQuotes(ctx, r.tokenID, r.chains)
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}

	present := quotes.Present()
	result := &domain.ScanResult{
		ID:             s.newID(),
		TokenID:        r.tokenID,
		Opportunities:  []domain.Opportunity{},
		ChainsScanned:  len(present),
		NotionalAmount: r.notional,
		MinProfitUSD:   r.minProfit,
		Quotes:         quotes,
		Timestamp:      s.now(),
	}

	if len(present) < 2 {
		s.logger.Info(ctx, "not enough chains quoted to compare",
			"token", r.tokenID,
			"requested", len(r.chains),
			"quoted", len(present),
		)
		s.record(ctx, result, start)
		return result, nil
	}

	byChain := make(map[pricingDomain.Chain]pricingDomain.ChainQuote, len(present))
	chains := make([]pricingDomain.Chain, 0, len(present))
	for _, q := range present {
		byChain[q.Chain] = q
		chains = append(chains, q.Chain)
	}

	var found []domain.Opportunity
	for _, dir := range domain.Directions(chains) {
		if opp, ok := s.calculator.Evaluate(byChain[dir.Buy], byChain[dir.Sell], r.notional, r.minProfit); ok {
			found = append(found, opp)
		}
	}

	// Stable keeps enumeration order among equal net profits.
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].NetProfit.GreaterThan(found[j].NetProfit)
	})

	result.TotalOpportunities = len(found)
	if len(found) > s.cfg.MaxResults {
		found = found[:s.cfg.MaxResults]
	}
	if len(found) > 0 {
		result.Opportunities = found
	}

	span.SetAttributes(
		attribute.Int("chains.scanned", result.ChainsScanned),
		attribute.Int("opportunities", result.TotalOpportunities),
	)
	s.logger.Info(ctx, "scan complete",
		"scan_id", result.ID,
		"token", r.tokenID,
		"chains_scanned", result.ChainsScanned,
		"opportunities", result.TotalOpportunities,
	)
	s.record(ctx, result, start)
	return result, nil
}

// ListRoutes returns every ordered chain pair with its raw price gap, largest
// gap first. No costs are deducted and nothing is filtered.
func (s *Scanner) ListRoutes(ctx context.Context, tokenID string, chains []pricingDomain.Chain) ([]domain.Route, error) {
	r, err := s.resolve(ScanRequest{TokenID: tokenID, Chains: chains})
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.StartSpanFromContext(ctx, "arbitrage.list_routes",
		attribute.String("token", r.tokenID),
	)
	defer span.End()

	quotes, err := s.quotes.FetchQuotes(ctx, r.tokenID, r.chains)
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}

	present := quotes.Present()
	routes := make([]domain.Route, 0, len(present)*max(len(present)-1, 0))
	for i, from := range present {
		for j, to := range present {
			if i == j {
				continue
			}
			routes = append(routes, s.calculator.Route(from, to))
		}
	}

	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].ProfitPercentage.GreaterThan(routes[j].ProfitPercentage)
	})

	span.SetAttributes(attribute.Int("routes", len(routes)))
	return routes, nil
}

// Prices returns the raw per-chain quotes.
func (s *Scanner) Prices(ctx context.Context, tokenID string, chains []pricingDomain.Chain) (pricingDomain.QuoteSet, error) {
	r, err := s.resolve(ScanRequest{TokenID: tokenID, Chains: chains})
	if err != nil {
		return pricingDomain.QuoteSet{}, err
	}
	return s.quotes.FetchQuotes(ctx, r.tokenID, r.chains)
}

// record stamps the elapsed time and emits scan metrics.
func (s *Scanner) record(ctx context.Context, result *domain.ScanResult, start time.Time) {
	result.Elapsed = s.now().Sub(start)

	attrs := metric.WithAttributes(attribute.Bool("compared", result.ChainsScanned >= 2))
	s.metrics.scans.Add(ctx, 1, attrs)
	s.metrics.opportunities.Add(ctx, int64(result.TotalOpportunities))
	s.metrics.duration.Record(ctx, float64(result.Elapsed.Microseconds())/1000, attrs)
}
