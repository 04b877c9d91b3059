// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"github.com/shopspring/decimal"

	"github.com/fd1az/crosschain-arb/business/arbitrage/domain"
	pricingDomain "github.com/fd1az/crosschain-arb/business/pricing/domain"
)

var hundred = decimal.NewFromInt(100)

// ProfitCalculator prices a single buy/sell leg against a CostModel.
type ProfitCalculator struct {
	costs *domain.CostModel
}

// NewProfitCalculator creates a new ProfitCalculator over costs.
func NewProfitCalculator(costs *domain.CostModel) *ProfitCalculator {
	return &ProfitCalculator{costs: costs}
}

// Costs returns the underlying cost model.
func (c *ProfitCalculator) Costs() *domain.CostModel {
	return c.costs
}

// Evaluate buys notional units on buy.Chain and sells them on sell.Chain.
// It reports false when the sell side is not more expensive or the net
// profit does not strictly exceed minProfit.
func (c *ProfitCalculator) Evaluate(
	buy, sell pricingDomain.ChainQuote,
	notional, minProfit decimal.Decimal,
) (domain.Opportunity, bool) {
	priceDiff := sell.Price.Sub(buy.Price)
	if !priceDiff.IsPositive() {
		return domain.Opportunity{}, false
	}

	buyCost := notional.Mul(buy.Price)
	sellRevenue := notional.Mul(sell.Price)
	gross := sellRevenue.Sub(buyCost)

	bridge := c.costs.Bridge(buy.Chain, sell.Chain)

	costs := domain.Costs{
		BuyFee:     buyCost.Mul(c.costs.DexFeePercent(buy.Chain)).Div(hundred),
		SellFee:    sellRevenue.Mul(c.costs.DexFeePercent(sell.Chain)).Div(hundred),
		BuyGas:     c.costs.SwapGasUSD(buy.Chain),
		SellGas:    c.costs.SwapGasUSD(sell.Chain),
		BridgeCost: bridge.CostUSD,
	}
	costs.Total = costs.BuyFee.
		Add(costs.SellFee).
		Add(costs.BuyGas).
		Add(costs.SellGas).
		Add(costs.BridgeCost)

	net := gross.Sub(costs.Total)
	if !net.GreaterThan(minProfit) {
		return domain.Opportunity{}, false
	}

	margin := gross.Div(buyCost).Mul(hundred)

	return domain.Opportunity{
		Direction:            domain.Direction{Buy: buy.Chain, Sell: sell.Chain},
		BuyPrice:             buy.Price,
		SellPrice:            sell.Price,
		PriceDifference:      priceDiff,
		GrossProfit:          gross,
		Costs:                costs,
		NetProfit:            net,
		NetProfitPercentage:  net.Div(buyCost).Mul(hundred),
		Bridge:               bridge,
		Risk:                 c.costs.AssessRisk(margin, bridge.TimeMinutes, buy.Chain, sell.Chain),
		ExecutionTimeMinutes: bridge.TimeMinutes,
		NotionalAmount:       notional,
	}, true
}

// Route describes the raw price gap from one chain to another.
func (c *ProfitCalculator) Route(from, to pricingDomain.ChainQuote) domain.Route {
	diff := to.Price.Sub(from.Price)
	return domain.Route{
		From:             from.Chain,
		To:               to.Chain,
		FromPrice:        from.Price,
		ToPrice:          to.Price,
		PriceDiff:        diff,
		ProfitPercentage: diff.Div(from.Price).Mul(hundred),
		Bridge:           c.costs.Bridge(from.Chain, to.Chain),
	}
}
