package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// Stats holds running totals across scans.
type Stats struct {
	Scans           int64
	WithOpportunity int64
	ChainsScanned   int
	ChainsRequested int
	BestNet         decimal.Decimal
	LastLatency     time.Duration
	Errors          int64
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update updates the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// Stats returns the current totals.
func (s *StatsComponent) Stats() Stats {
	return s.stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	hitRate := float64(0)
	if s.stats.Scans > 0 {
		hitRate = float64(s.stats.WithOpportunity) / float64(s.stats.Scans) * 100
	}

	errorsDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	if s.stats.Errors > 0 {
		errorsDisplay = errorStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Scans: %s  │  With opportunity: %s (%.1f%%)  │  Best net: %s\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Scans)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.WithOpportunity)),
			hitRate,
			valueStyle.Render(FormatUSD(s.stats.BestNet)),
		) +
		fmt.Sprintf("Chains: %s  │  Last scan: %s  │  Errors: %s",
			valueStyle.Render(fmt.Sprintf("%d/%d", s.stats.ChainsScanned, s.stats.ChainsRequested)),
			valueStyle.Render(fmt.Sprintf("%dms", s.stats.LastLatency.Milliseconds())),
			errorsDisplay,
		)
}
