package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/crosschain-arb/business/arbitrage/domain"
	pricingDomain "github.com/fd1az/crosschain-arb/business/pricing/domain"
	"github.com/fd1az/crosschain-arb/internal/apperror"
)

// scanRequestBody is the POST /api/arbitrage/scan payload. Numbers may be
// sent as JSON numbers or strings.
type scanRequestBody struct {
	TokenID        string           `json:"tokenId"`
	Chains         []string         `json:"chains,omitempty"`
	MinProfitUSD   *decimal.Decimal `json:"minProfitUSD,omitempty"`
	NotionalAmount *decimal.Decimal `json:"notionalAmount,omitempty"`
}

type bridgeDTO struct {
	Protocol    string  `json:"protocol"`
	CostUSD     float64 `json:"costUSD"`
	TimeMinutes int     `json:"timeMinutes"`
}

type costsDTO struct {
	BuyFee     float64 `json:"buyFee"`
	SellFee    float64 `json:"sellFee"`
	BuyGas     float64 `json:"buyGas"`
	SellGas    float64 `json:"sellGas"`
	BridgeCost float64 `json:"bridgeCost"`
	Total      float64 `json:"total"`
}

type opportunityDTO struct {
	BuyChain             string    `json:"buyChain"`
	SellChain            string    `json:"sellChain"`
	BuyPrice             float64   `json:"buyPrice"`
	SellPrice            float64   `json:"sellPrice"`
	PriceDifference      float64   `json:"priceDifference"`
	GrossProfit          float64   `json:"grossProfit"`
	Costs                costsDTO  `json:"costs"`
	NetProfit            float64   `json:"netProfit"`
	NetProfitPercentage  float64   `json:"netProfitPercentage"`
	Bridge               bridgeDTO `json:"bridge"`
	RiskLevel            string    `json:"riskLevel"`
	RiskScore            int       `json:"riskScore"`
	ExecutionTimeMinutes int       `json:"executionTimeMinutes"`
	NotionalAmount       float64   `json:"notionalAmount"`
}

type quoteDTO struct {
	Price          float64    `json:"price"`
	MarketCap      *float64   `json:"marketCap,omitempty"`
	Volume24h      *float64   `json:"volume24h,omitempty"`
	PriceChange24h *float64   `json:"priceChange24h,omitempty"`
	Source         string     `json:"source,omitempty"`
	FetchedAt      *time.Time `json:"fetchedAt,omitempty"`
}

type scanResultDTO struct {
	ScanID             string               `json:"scanId"`
	TokenID            string               `json:"tokenId"`
	Timestamp          time.Time            `json:"timestamp"`
	ElapsedMs          int64                `json:"elapsedMs"`
	ChainsScanned      int                  `json:"chainsScanned"`
	TotalOpportunities int                  `json:"totalOpportunities"`
	NotionalAmount     float64              `json:"notionalAmount"`
	MinProfitUSD       float64              `json:"minProfitUSD"`
	Opportunities      []opportunityDTO     `json:"opportunities"`
	Prices             map[string]*quoteDTO `json:"prices"`
	Unavailable        map[string]string    `json:"unavailable,omitempty"`
}

type routeDTO struct {
	From             string    `json:"from"`
	To               string    `json:"to"`
	FromPrice        float64   `json:"fromPrice"`
	ToPrice          float64   `json:"toPrice"`
	PriceDiff        float64   `json:"priceDiff"`
	ProfitPercentage float64   `json:"profitPercentage"`
	Bridge           bridgeDTO `json:"bridge"`
}

type routesDTO struct {
	TokenID string     `json:"tokenId"`
	Count   int        `json:"count"`
	Routes  []routeDTO `json:"routes"`
}

type pricesDTO struct {
	TokenID     string               `json:"tokenId"`
	Timestamp   time.Time            `json:"timestamp"`
	Prices      map[string]*quoteDTO `json:"prices"`
	Unavailable map[string]string    `json:"unavailable,omitempty"`
}

type chainDTO struct {
	ID            string  `json:"id"`
	Platform      string  `json:"platform"`
	EVM           bool    `json:"evm"`
	HighRisk      bool    `json:"highRisk"`
	Default       bool    `json:"default"`
	DexFeePercent float64 `json:"dexFeePercent"`
	SwapGasUSD    float64 `json:"swapGasUSD"`
}

type chainBridgeDTO struct {
	Chains [2]string `json:"chains"`
	bridgeDTO
}

type chainsDTO struct {
	Chains        []chainDTO       `json:"chains"`
	Bridges       []chainBridgeDTO `json:"bridges"`
	DefaultBridge bridgeDTO        `json:"defaultBridge"`
}

// streamMessage is one WebSocket frame on /api/arbitrage/stream.
type streamMessage struct {
	Type  string         `json:"type"`
	Data  *scanResultDTO `json:"data,omitempty"`
	Error *apperror.Body `json:"error,omitempty"`
}

func toBridgeDTO(b domain.BridgeInfo) bridgeDTO {
	return bridgeDTO{
		Protocol:    b.Protocol,
		CostUSD:     b.CostUSD.InexactFloat64(),
		TimeMinutes: b.TimeMinutes,
	}
}

func toOpportunityDTO(o domain.Opportunity) opportunityDTO {
	return opportunityDTO{
		BuyChain:        string(o.Buy),
		SellChain:       string(o.Sell),
		BuyPrice:        o.BuyPrice.InexactFloat64(),
		SellPrice:       o.SellPrice.InexactFloat64(),
		PriceDifference: o.PriceDifference.InexactFloat64(),
		GrossProfit:     o.GrossProfit.InexactFloat64(),
		Costs: costsDTO{
			BuyFee:     o.Costs.BuyFee.InexactFloat64(),
			SellFee:    o.Costs.SellFee.InexactFloat64(),
			BuyGas:     o.Costs.BuyGas.InexactFloat64(),
			SellGas:    o.Costs.SellGas.InexactFloat64(),
			BridgeCost: o.Costs.BridgeCost.InexactFloat64(),
			Total:      o.Costs.Total.InexactFloat64(),
		},
		NetProfit:            o.NetProfit.InexactFloat64(),
		NetProfitPercentage:  o.NetProfitPercentage.InexactFloat64(),
		Bridge:               toBridgeDTO(o.Bridge),
		RiskLevel:            string(o.Risk.Level),
		RiskScore:            o.Risk.Score,
		ExecutionTimeMinutes: o.ExecutionTimeMinutes,
		NotionalAmount:       o.NotionalAmount.InexactFloat64(),
	}
}

func optionalFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

// toQuoteDTOs renders every requested chain; absent chains map to nil and
// their reason goes to the second map.
func toQuoteDTOs(set pricingDomain.QuoteSet) (map[string]*quoteDTO, map[string]string) {
	prices := make(map[string]*quoteDTO, len(set.Results))
	var unavailable map[string]string
	for chain, r := range set.Results {
		if !r.IsPresent() {
			prices[string(chain)] = nil
			if unavailable == nil {
				unavailable = make(map[string]string)
			}
			unavailable[string(chain)] = string(r.Reason)
			continue
		}
		q := r.Quote
		dto := &quoteDTO{
			Price:          q.Price.InexactFloat64(),
			MarketCap:      optionalFloat(q.MarketCap),
			Volume24h:      optionalFloat(q.Volume24h),
			PriceChange24h: optionalFloat(q.PriceChange24h),
			Source:         q.Source,
		}
		if !q.FetchedAt.IsZero() {
			fetched := q.FetchedAt
			dto.FetchedAt = &fetched
		}
		prices[string(chain)] = dto
	}
	return prices, unavailable
}

func toScanResultDTO(r *domain.ScanResult) *scanResultDTO {
	opps := make([]opportunityDTO, 0, len(r.Opportunities))
	for _, o := range r.Opportunities {
		opps = append(opps, toOpportunityDTO(o))
	}
	prices, unavailable := toQuoteDTOs(r.Quotes)
	return &scanResultDTO{
		ScanID:             r.ID,
		TokenID:            r.TokenID,
		Timestamp:          r.Timestamp,
		ElapsedMs:          r.Elapsed.Milliseconds(),
		ChainsScanned:      r.ChainsScanned,
		TotalOpportunities: r.TotalOpportunities,
		NotionalAmount:     r.NotionalAmount.InexactFloat64(),
		MinProfitUSD:       r.MinProfitUSD.InexactFloat64(),
		Opportunities:      opps,
		Prices:             prices,
		Unavailable:        unavailable,
	}
}

func toRouteDTO(r domain.Route) routeDTO {
	return routeDTO{
		From:             string(r.From),
		To:               string(r.To),
		FromPrice:        r.FromPrice.InexactFloat64(),
		ToPrice:          r.ToPrice.InexactFloat64(),
		PriceDiff:        r.PriceDiff.InexactFloat64(),
		ProfitPercentage: r.ProfitPercentage.InexactFloat64(),
		Bridge:           toBridgeDTO(r.Bridge),
	}
}

func toChainsDTO(costs *domain.CostModel, defaults []pricingDomain.Chain) chainsDTO {
	isDefault := make(map[pricingDomain.Chain]bool, len(defaults))
	for _, c := range defaults {
		isDefault[c] = true
	}

	out := chainsDTO{DefaultBridge: toBridgeDTO(costs.DefaultBridge())}
	for _, c := range pricingDomain.AllChains() {
		cc := costs.Chain(c)
		out.Chains = append(out.Chains, chainDTO{
			ID:            string(c),
			Platform:      c.PlatformID(),
			EVM:           c.IsEVM(),
			HighRisk:      costs.IsHighRisk(c),
			Default:       isDefault[c],
			DexFeePercent: cc.DexFeePercent.InexactFloat64(),
			SwapGasUSD:    cc.SwapGasUSD.InexactFloat64(),
		})
	}
	for _, b := range costs.Bridges() {
		out.Bridges = append(out.Bridges, chainBridgeDTO{
			Chains:    [2]string{string(b.A), string(b.B)},
			bridgeDTO: toBridgeDTO(b.Info),
		})
	}
	return out
}
