package domain

import (
	"time"

	"github.com/shopspring/decimal"

	pricingDomain "github.com/fd1az/crosschain-arb/business/pricing/domain"
)

// Costs itemises everything deducted from gross profit.
type Costs struct {
	BuyFee     decimal.Decimal
	SellFee    decimal.Decimal
	BuyGas     decimal.Decimal
	SellGas    decimal.Decimal
	BridgeCost decimal.Decimal
	Total      decimal.Decimal
}

// Opportunity is a profitable buy/sell leg after costs. Values are fixed at
// construction.
type Opportunity struct {
	Direction
	BuyPrice             decimal.Decimal
	SellPrice            decimal.Decimal
	PriceDifference      decimal.Decimal
	GrossProfit          decimal.Decimal
	Costs                Costs
	NetProfit            decimal.Decimal
	NetProfitPercentage  decimal.Decimal
	Bridge               BridgeInfo
	Risk                 Risk
	ExecutionTimeMinutes int
	NotionalAmount       decimal.Decimal
}

// RiskLevel returns the risk bucket.
func (o *Opportunity) RiskLevel() RiskLevel {
	return o.Risk.Level
}

// ScanResult is the outcome of one scan.
type ScanResult struct {
	ID                 string
	TokenID            string
	Opportunities      []Opportunity
	TotalOpportunities int
	ChainsScanned      int
	NotionalAmount     decimal.Decimal
	MinProfitUSD       decimal.Decimal
	Quotes             pricingDomain.QuoteSet
	Timestamp          time.Time
	Elapsed            time.Duration
}

// Best returns the top opportunity, or nil when there is none.
func (r *ScanResult) Best() *Opportunity {
	if len(r.Opportunities) == 0 {
		return nil
	}
	return &r.Opportunities[0]
}

// Route is a raw price gap between two chains, before any costs.
type Route struct {
	From             pricingDomain.Chain
	To               pricingDomain.Chain
	FromPrice        decimal.Decimal
	ToPrice          decimal.Decimal
	PriceDiff        decimal.Decimal
	ProfitPercentage decimal.Decimal
	Bridge           BridgeInfo
}
