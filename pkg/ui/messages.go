// Package ui provides the Bubble Tea TUI for the cross-chain scanner.
package ui

import (
	"time"

	"github.com/fd1az/crosschain-arb/business/arbitrage/domain"
)

// Message types for TUI updates

// ScanResultMsg is sent when a scan completes.
type ScanResultMsg struct {
	Result  *domain.ScanResult
	Latency time.Duration
}

// ScanErrorMsg is sent when a scan fails.
type ScanErrorMsg struct {
	Err error
}

// TickMsg is sent periodically so relative times stay fresh.
type TickMsg struct{}
