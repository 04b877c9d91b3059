// Package app contains application services and port definitions for the pricing context.
package app

import (
	"context"

	"github.com/fd1az/crosschain-arb/business/pricing/domain"
	"github.com/fd1az/crosschain-arb/internal/asset"
)

// PriceSource fetches a single chain's USD quote for a token.
//
// Implementations return apperror values so the aggregator can tell
// "not listed" from "upstream down"; the aggregator never propagates them.
type PriceSource interface {
	Name() string
	GetQuote(ctx context.Context, token asset.TokenID, chain domain.Chain) (*domain.ChainQuote, error)
}
