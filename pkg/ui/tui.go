package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/crosschain-arb/business/arbitrage/domain"
	pricingDomain "github.com/fd1az/crosschain-arb/business/pricing/domain"
	"github.com/fd1az/crosschain-arb/pkg/ui/components"
)

const (
	maxErrors       = 3
	maxActivity     = 8
	visibleRows     = 10
	tickInterval    = time.Second
	minSideBySideWd = 120
)

// Options configures the dashboard.
type Options struct {
	TokenID  string
	Chains   []string
	Interval time.Duration
	// OnRefresh asks the scan loop for an immediate scan. Must not block.
	OnRefresh func()
}

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	// Components
	prices        *components.PricesComponent
	opportunities *components.OpportunitiesComponent
	stats         *components.StatsComponent
	spinner       spinner.Model
	help          help.Model
	keys          KeyMap

	opts Options

	// State
	ready        bool
	quitting     bool
	paused       bool
	width        int
	height       int
	lastScanID   string
	lastUpdate   time.Time
	errors       []ErrorEntry
	activityFeed []string
	now          func() time.Time
}

// New creates a new TUI model.
func New(opts Options) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	return Model{
		prices:        components.NewPricesComponent(),
		opportunities: components.NewOpportunitiesComponent(visibleRows),
		stats:         components.NewStatsComponent(),
		spinner:       s,
		help:          help.New(),
		keys:          DefaultKeyMap(),
		opts:          opts,
		errors:        make([]ErrorEntry, 0, maxErrors),
		activityFeed:  make([]string, 0, maxActivity),
		now:           time.Now,
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			if m.opts.OnRefresh != nil {
				m.opts.OnRefresh()
			}
			m.activityFeed = addActivity(m.activityFeed, m.stamp()+" manual scan requested")
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, m.keys.Clear):
			m.opportunities.Clear()
			m.activityFeed = m.activityFeed[:0]
		case key.Matches(msg, m.keys.ClearErrors):
			m.errors = m.errors[:0]
		case key.Matches(msg, m.keys.Up):
			m.opportunities.ScrollUp()
		case key.Matches(msg, m.keys.Down):
			m.opportunities.ScrollDown()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		return m, tickCmd()

	case ScanResultMsg:
		if msg.Result == nil {
			return m, nil
		}
		m.applyResult(msg.Result, msg.Latency)

	case ScanErrorMsg:
		stats := m.stats.Stats()
		stats.Errors++
		m.stats.Update(stats)

		m.errors = append(m.errors, ErrorEntry{Message: msg.Err.Error(), Timestamp: m.now()})
		if len(m.errors) > maxErrors {
			m.errors = m.errors[len(m.errors)-maxErrors:]
		}
	}

	return m, nil
}

// applyResult folds one scan into the components. Counters move even while
// paused; the tables do not.
func (m *Model) applyResult(r *domain.ScanResult, latency time.Duration) {
	stats := m.stats.Stats()
	stats.Scans++
	stats.ChainsScanned = r.ChainsScanned
	stats.ChainsRequested = len(r.Quotes.Results)
	stats.LastLatency = latency
	if best := r.Best(); best != nil {
		stats.WithOpportunity++
		if best.NetProfit.GreaterThan(stats.BestNet) {
			stats.BestNet = best.NetProfit
		}
	}
	m.stats.Update(stats)

	if m.paused {
		return
	}

	m.lastScanID = r.ID
	m.lastUpdate = m.now()
	m.prices.Update(r.TokenID, PriceRows(r.Quotes))
	m.opportunities.Set(OpportunityRows(r.Opportunities), r.TotalOpportunities)

	activity := fmt.Sprintf("%s %d/%d chains, %d opportunities",
		m.stamp(), r.ChainsScanned, len(r.Quotes.Results), r.TotalOpportunities)
	if best := r.Best(); best != nil {
		activity += fmt.Sprintf(", best %s %s", best.Direction, components.FormatUSD(best.NetProfit))
	}
	m.activityFeed = addActivity(m.activityFeed, activity)
}

func (m Model) stamp() string {
	return m.now().Format("15:04:05")
}

// PriceRows converts a quote set to table rows in canonical chain order.
func PriceRows(set pricingDomain.QuoteSet) []components.PriceRow {
	chains := set.Chains()
	rows := make([]components.PriceRow, 0, len(chains))
	for _, c := range chains {
		r := set.Results[c]
		row := components.PriceRow{Chain: string(c), Reason: string(r.Reason)}
		if r.IsPresent() {
			price := r.Quote.Price
			row.Price = &price
			row.Change24h = r.Quote.PriceChange24h
			row.Volume24h = r.Quote.Volume24h
		}
		rows = append(rows, row)
	}
	return rows
}

// OpportunityRows converts opportunities to table rows, keeping their order.
func OpportunityRows(opps []domain.Opportunity) []components.OpportunityRow {
	rows := make([]components.OpportunityRow, 0, len(opps))
	for _, o := range opps {
		rows = append(rows, components.OpportunityRow{
			Route:      o.Direction.String(),
			NetProfit:  o.NetProfit,
			NetPercent: o.NetProfitPercentage,
			TotalCosts: o.Costs.Total,
			Bridge:     o.Bridge.Protocol,
			BridgeTime: o.Bridge.TimeMinutes,
			Risk:       string(o.Risk.Level),
		})
	}
	return rows
}

func addActivity(feed []string, entry string) []string {
	feed = append([]string{entry}, feed...)
	if len(feed) > maxActivity {
		feed = feed[:maxActivity]
	}
	return feed
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" Cross-Chain Arbitrage Scanner "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	if m.lastScanID == "" && m.stats.Stats().Scans == 0 {
		b.WriteString(fmt.Sprintf("  %s Waiting for the first scan of %s...\n\n", m.spinner.View(), m.opts.TokenID))
	} else {
		left := m.prices.View()

		var right strings.Builder
		right.WriteString(m.opportunities.View())
		right.WriteString("\n\n")
		right.WriteString(m.renderActivityFeed())

		if m.width > minSideBySideWd {
			l := BoxStyle.Width(m.width*2/5 - 2).Render(left)
			r := BoxStyle.Width(m.width*3/5 - 2).Render(right.String())
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, l, r))
		} else {
			b.WriteString(BoxStyle.Width(max(m.width-4, 20)).Render(left))
			b.WriteString("\n")
			b.WriteString(BoxStyle.Width(max(m.width-4, 20)).Render(right.String()))
		}
		b.WriteString("\n\n")
		b.WriteString(m.stats.View())
		b.WriteString("\n\n")
	}

	if len(m.errors) > 0 {
		errorStyle := lipgloss.NewStyle().Foreground(ColorDanger)
		errorHeader := lipgloss.NewStyle().Bold(true).Foreground(ColorDanger)

		b.WriteString(errorHeader.Render("ERRORS"))
		b.WriteString(MutedValue.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := m.now().Sub(err.Timestamp).Round(time.Second)
			b.WriteString(errorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.paused {
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(ColorWarning).Render("⏸ PAUSED"))
		b.WriteString(" • ")
	}
	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m Model) renderActivityFeed() string {
	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render("LIVE ACTIVITY"))
	sb.WriteString("\n\n")

	if len(m.activityFeed) == 0 {
		sb.WriteString(MutedValue.Render("  No scans yet"))
		return sb.String()
	}
	for _, activity := range m.activityFeed {
		sb.WriteString(MutedValue.Render("  " + activity))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderStatusBar() string {
	parts := []string{
		StatusConnected.Render("● " + m.opts.TokenID),
		fmt.Sprintf("Chains: %s", strings.Join(m.opts.Chains, ",")),
	}
	if m.opts.Interval > 0 {
		parts = append(parts, fmt.Sprintf("Every %s", m.opts.Interval))
	}
	if m.lastScanID != "" {
		parts = append(parts, MutedValue.Render("Scan "+shortID(m.lastScanID)))
	}
	if !m.lastUpdate.IsZero() {
		ago := m.now().Sub(m.lastUpdate).Round(time.Second)
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}
	return strings.Join(parts, "  │  ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// NewProgram builds the Bubble Tea program. It exits when ctx is done.
func NewProgram(ctx context.Context, m Model) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
}
