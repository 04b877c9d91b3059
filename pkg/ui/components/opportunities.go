package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// OpportunityRow is one line of the opportunities table.
type OpportunityRow struct {
	Route      string
	NetProfit  decimal.Decimal
	NetPercent decimal.Decimal
	TotalCosts decimal.Decimal
	Bridge     string
	BridgeTime int
	Risk       string
}

// OpportunitiesComponent renders the ranked opportunities of the last scan.
type OpportunitiesComponent struct {
	rows    []OpportunityRow
	total   int
	offset  int
	visible int
}

// NewOpportunitiesComponent creates a component that shows visible rows at a time.
func NewOpportunitiesComponent(visible int) *OpportunitiesComponent {
	return &OpportunitiesComponent{
		rows:    make([]OpportunityRow, 0),
		visible: visible,
	}
}

// Set replaces the rows. total is the count before truncation.
func (o *OpportunitiesComponent) Set(rows []OpportunityRow, total int) {
	o.rows = rows
	o.total = total
	if o.offset > max(len(rows)-o.visible, 0) {
		o.offset = 0
	}
}

// Clear clears all opportunities.
func (o *OpportunitiesComponent) Clear() {
	o.rows = make([]OpportunityRow, 0)
	o.total = 0
	o.offset = 0
}

// Len returns the number of rows held.
func (o *OpportunitiesComponent) Len() int {
	return len(o.rows)
}

// ScrollUp moves the window up one row.
func (o *OpportunitiesComponent) ScrollUp() {
	if o.offset > 0 {
		o.offset--
	}
}

// ScrollDown moves the window down one row.
func (o *OpportunitiesComponent) ScrollDown() {
	if o.offset < len(o.rows)-o.visible {
		o.offset++
	}
}

// View renders the opportunities component.
func (o *OpportunitiesComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	profitStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))

	if len(o.rows) == 0 {
		return headerStyle.Render("OPPORTUNITIES") + "\n\n" + dimStyle.Render("  None above threshold")
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("OPPORTUNITIES (%d of %d)", len(o.rows), o.total)))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "  %-20s %11s %8s %10s  %-24s %6s\n", "Route", "Net", "Net %", "Costs", "Bridge", "Risk")
	b.WriteString(dimStyle.Render("  "+strings.Repeat("─", 86)) + "\n")

	end := min(o.offset+o.visible, len(o.rows))
	for _, row := range o.rows[o.offset:end] {
		fmt.Fprintf(&b, "  %-20s %s %8s %10s  %-24s %s\n",
			row.Route,
			profitStyle.Render(fmt.Sprintf("%11s", FormatUSD(row.NetProfit))),
			FormatPercent(row.NetPercent),
			FormatUSD(row.TotalCosts),
			shorten(fmt.Sprintf("%s %dm", row.Bridge, row.BridgeTime), 24),
			riskStyle(row.Risk).Render(fmt.Sprintf("%6s", row.Risk)),
		)
	}

	if len(o.rows) > o.visible {
		b.WriteString(dimStyle.Render(fmt.Sprintf("\n  rows %d-%d of %d", o.offset+1, end, len(o.rows))))
	}

	return b.String()
}

func riskStyle(level string) lipgloss.Style {
	switch level {
	case "High":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	case "Medium":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	}
}
