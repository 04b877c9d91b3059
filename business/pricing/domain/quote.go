package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChainQuote is one chain's USD price observation for a token.
type ChainQuote struct {
	Chain          Chain
	Price          decimal.Decimal
	MarketCap      *decimal.Decimal
	Volume24h      *decimal.Decimal
	PriceChange24h *decimal.Decimal
	Source         string
	FetchedAt      time.Time
}

// Valid reports whether the quote can take part in a scan.
func (q ChainQuote) Valid() bool {
	return q.Chain.Valid() && q.Price.IsPositive()
}

// AbsenceReason says why a chain produced no quote.
type AbsenceReason string

const (
	ReasonNone             AbsenceReason = ""
	ReasonUnsupportedToken AbsenceReason = "unsupported_token"
	ReasonNotListed        AbsenceReason = "not_listed"
	ReasonNoPrice          AbsenceReason = "no_price"
	ReasonTimeout          AbsenceReason = "timeout"
	ReasonUpstreamError    AbsenceReason = "upstream_error"
	ReasonCircuitOpen      AbsenceReason = "circuit_open"
	ReasonRateLimited      AbsenceReason = "rate_limited"
)

// QuoteResult is either a present quote or an absence with a reason.
type QuoteResult struct {
	Chain  Chain
	Quote  *ChainQuote
	Reason AbsenceReason
}

// Present builds a present result.
func Present(q ChainQuote) QuoteResult {
	return QuoteResult{Chain: q.Chain, Quote: &q}
}

// Absent builds an absent result.
func Absent(chain Chain, reason AbsenceReason) QuoteResult {
	return QuoteResult{Chain: chain, Reason: reason}
}

// IsPresent reports whether the result carries a quote.
func (r QuoteResult) IsPresent() bool {
	return r.Quote != nil
}

// QuoteSet holds exactly one result per requested chain.
type QuoteSet struct {
	TokenID   string
	Results   map[Chain]QuoteResult
	FetchedAt time.Time
}

// Present returns the present quotes in canonical chain order.
func (s QuoteSet) Present() []ChainQuote {
	out := make([]ChainQuote, 0, len(s.Results))
	for _, c := range s.Chains() {
		if r := s.Results[c]; r.IsPresent() {
			out = append(out, *r.Quote)
		}
	}
	return out
}

// Chains returns the requested chains in canonical order.
func (s QuoteSet) Chains() []Chain {
	chains := make([]Chain, 0, len(s.Results))
	for c := range s.Results {
		chains = append(chains, c)
	}
	return Canonical(chains)
}

// PresentCount counts chains with a quote.
func (s QuoteSet) PresentCount() int {
	n := 0
	for _, r := range s.Results {
		if r.IsPresent() {
			n++
		}
	}
	return n
}
