package app

import (
	"context"

	"github.com/fd1az/crosschain-arb/business/arbitrage/domain"
	pricingDomain "github.com/fd1az/crosschain-arb/business/pricing/domain"
)

// QuoteAggregator is the price side of a scan.
type QuoteAggregator interface {
	FetchQuotes(ctx context.Context, tokenID string, chains []pricingDomain.Chain) (pricingDomain.QuoteSet, error)
}

// ScanRunner runs one scan. Implemented by Scanner.
type ScanRunner interface {
	Scan(ctx context.Context, req ScanRequest) (*domain.ScanResult, error)
}

// Reporter defines the interface for reporting scan results.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// Report delivers one completed scan.
	Report(result *domain.ScanResult)

	// ReportError delivers a scan that failed.
	ReportError(err error)

	// Stop gracefully shuts down the reporter.
	Stop() error
}
