package infra

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/crosschain-arb/business/arbitrage/domain"
	"github.com/fd1az/crosschain-arb/pkg/ui"
)

// sender is the part of *tea.Program the reporter needs.
type sender interface {
	Send(msg tea.Msg)
}

// TUIReporter implements Reporter by forwarding scans to a Bubble Tea program.
// The program's lifecycle belongs to the caller.
type TUIReporter struct {
	program sender
}

// NewTUIReporter creates a TUIReporter for program.
func NewTUIReporter(program *tea.Program) *TUIReporter {
	return &TUIReporter{program: program}
}

// Start is a no-op; the program is run by the caller.
func (r *TUIReporter) Start(ctx context.Context) error {
	return nil
}

// Report sends a completed scan to the TUI.
func (r *TUIReporter) Report(result *domain.ScanResult) {
	r.program.Send(ui.ScanResultMsg{Result: result, Latency: result.Elapsed})
}

// ReportError sends a failed scan to the TUI.
func (r *TUIReporter) ReportError(err error) {
	r.program.Send(ui.ScanErrorMsg{Err: err})
}

// Stop is a no-op; quitting the program is up to the caller.
func (r *TUIReporter) Stop() error {
	return nil
}
