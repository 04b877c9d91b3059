// Package infra contains infrastructure adapters for the arbitrage context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fd1az/crosschain-arb/business/arbitrage/domain"
	"github.com/fd1az/crosschain-arb/pkg/ui/components"
)

const rule = "================================================================================"
const thinRule = "--------------------------------------------------------------------------------"

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleReporter creates a ConsoleReporter writing to out, or stdout when
// out is nil.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{out: out}
}

// Start prints the banner.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "Cross-Chain Arbitrage Scanner")
	fmt.Fprintln(r.out, "=============================")
	return nil
}

// Report prints one scan: the quotes, then every opportunity with its costs.
func (r *ConsoleReporter) Report(result *domain.ScanResult) {
	if result == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	w := r.out
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "SCAN %s\n", result.TokenID)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Scan ID:        %s\n", result.ID)
	fmt.Fprintf(w, "Timestamp:      %s\n", result.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(w, "Notional:       %s tokens\n", result.NotionalAmount.String())
	fmt.Fprintf(w, "Min profit:     %s\n", components.FormatUSD(result.MinProfitUSD))
	fmt.Fprintf(w, "Chains quoted:  %d/%d\n", result.ChainsScanned, len(result.Quotes.Results))

	fmt.Fprintln(w, thinRule)
	fmt.Fprintln(w, "PRICES")
	for _, chain := range result.Quotes.Chains() {
		q := result.Quotes.Results[chain]
		if !q.IsPresent() {
			fmt.Fprintf(w, "  %-12s unavailable (%s)\n", chain, q.Reason)
			continue
		}
		fmt.Fprintf(w, "  %-12s %s\n", chain, components.FormatPrice(q.Quote.Price))
	}

	fmt.Fprintln(w, thinRule)
	if len(result.Opportunities) == 0 {
		fmt.Fprintln(w, "No opportunities above threshold")
		fmt.Fprintln(w, rule)
		return
	}

	fmt.Fprintf(w, "OPPORTUNITIES (showing %d of %d)\n", len(result.Opportunities), result.TotalOpportunities)
	for i := range result.Opportunities {
		writeOpportunity(w, i+1, &result.Opportunities[i])
	}
	fmt.Fprintln(w, rule)
}

func writeOpportunity(w io.Writer, rank int, o *domain.Opportunity) {
	fmt.Fprintf(w, "\n#%d %s\n", rank, o.Direction)
	fmt.Fprintf(w, "  Buy / Sell:     %s / %s\n", components.FormatPrice(o.BuyPrice), components.FormatPrice(o.SellPrice))
	fmt.Fprintf(w, "  Gross:          %s\n", components.FormatUSD(o.GrossProfit))
	fmt.Fprintf(w, "  DEX fees:       %s + %s\n", components.FormatUSD(o.Costs.BuyFee), components.FormatUSD(o.Costs.SellFee))
	fmt.Fprintf(w, "  Gas:            %s + %s\n", components.FormatUSD(o.Costs.BuyGas), components.FormatUSD(o.Costs.SellGas))
	fmt.Fprintf(w, "  Bridge:         %s via %s (~%dm)\n",
		components.FormatUSD(o.Costs.BridgeCost), o.Bridge.Protocol, o.Bridge.TimeMinutes)
	fmt.Fprintf(w, "  Total costs:    %s\n", components.FormatUSD(o.Costs.Total))
	fmt.Fprintf(w, "  Net:            %s (%s%%)\n", components.FormatUSD(o.NetProfit), o.NetProfitPercentage.StringFixed(2))
	fmt.Fprintf(w, "  Risk:           %s (score %d)\n", o.Risk.Level, o.Risk.Score)
}

// ReportError prints a failed scan.
func (r *ConsoleReporter) ReportError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "[%s] scan failed: %s\n", time.Now().Format("15:04:05"), strings.TrimSpace(err.Error()))
}

// Stop prints the footer.
func (r *ConsoleReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Scanner stopped")
	return nil
}
