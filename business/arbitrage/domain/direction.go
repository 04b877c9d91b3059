package domain

import (
	pricingDomain "github.com/fd1az/crosschain-arb/business/pricing/domain"
)

// Direction is one ordered leg: buy on Buy, bridge, sell on Sell.
type Direction struct {
	Buy  pricingDomain.Chain
	Sell pricingDomain.Chain
}

// String returns a human-readable description of the direction.
func (d Direction) String() string {
	return string(d.Buy) + " → " + string(d.Sell)
}

// Directions enumerates every ordered pair of distinct chains, outer loop
// over the buy side, both in the order given.
func Directions(chains []pricingDomain.Chain) []Direction {
	if len(chains) < 2 {
		return nil
	}
	out := make([]Direction, 0, len(chains)*(len(chains)-1))
	for _, buy := range chains {
		for _, sell := range chains {
			if buy == sell {
				continue
			}
			out = append(out, Direction{Buy: buy, Sell: sell})
		}
	}
	return out
}
