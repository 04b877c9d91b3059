// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// PriceRow is one chain in the price table. Price is nil when the chain
// returned no quote; Reason then says why.
type PriceRow struct {
	Chain     string
	Price     *decimal.Decimal
	Change24h *decimal.Decimal
	Volume24h *decimal.Decimal
	Reason    string
}

// PricesComponent renders the per-chain price table.
type PricesComponent struct {
	rows  []PriceRow
	token string
}

// NewPricesComponent creates a new prices component.
func NewPricesComponent() *PricesComponent {
	return &PricesComponent{
		rows: make([]PriceRow, 0),
	}
}

// Update replaces the price rows.
func (p *PricesComponent) Update(token string, rows []PriceRow) {
	p.token = token
	p.rows = rows
}

// Spread returns the widest relative gap between quoted chains, in percent.
func (p *PricesComponent) Spread() (decimal.Decimal, bool) {
	var lo, hi *decimal.Decimal
	for _, row := range p.rows {
		if row.Price == nil {
			continue
		}
		if lo == nil || row.Price.LessThan(*lo) {
			lo = row.Price
		}
		if hi == nil || row.Price.GreaterThan(*hi) {
			hi = row.Price
		}
	}
	if lo == nil || hi == nil || !lo.IsPositive() || lo == hi {
		return decimal.Zero, false
	}
	return hi.Sub(*lo).Div(*lo).Mul(decimal.NewFromInt(100)), true
}

// View renders the prices component.
func (p *PricesComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	positiveStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	negativeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	if len(p.rows) == 0 {
		return dimStyle.Render("Waiting for price data...")
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("PRICES (%s)", shorten(p.token, 18))))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "  %-10s  %14s  %9s  %10s\n", "Chain", "Price", "24h", "Volume")
	b.WriteString(dimStyle.Render("  "+strings.Repeat("─", 49)) + "\n")

	for _, row := range p.rows {
		if row.Price == nil {
			fmt.Fprintf(&b, "  %-10s  %s\n", row.Chain, dimStyle.Render(fmt.Sprintf("%14s  (%s)", "n/a", row.Reason)))
			continue
		}

		change := dimStyle.Render(fmt.Sprintf("%9s", "-"))
		if row.Change24h != nil {
			style := positiveStyle
			if row.Change24h.IsNegative() {
				style = negativeStyle
			}
			change = style.Render(fmt.Sprintf("%9s", FormatPercent(*row.Change24h)))
		}

		volume := "-"
		if row.Volume24h != nil {
			volume = FormatCompact(*row.Volume24h)
		}

		fmt.Fprintf(&b, "  %-10s  %14s  %s  %10s\n", row.Chain, FormatPrice(*row.Price), change, volume)
	}

	if spread, ok := p.Spread(); ok {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("  Max spread: %s\n", headerStyle.Render(FormatPercent(spread))))
	}

	return b.String()
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	half := (n - 1) / 2
	return s[:half] + "…" + s[len(s)-half:]
}
