package infra

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/crosschain-arb/business/arbitrage/app"
	"github.com/fd1az/crosschain-arb/business/arbitrage/domain"
	pricingDomain "github.com/fd1az/crosschain-arb/business/pricing/domain"
	"github.com/fd1az/crosschain-arb/pkg/ui"
)

var (
	_ app.Reporter = (*ConsoleReporter)(nil)
	_ app.Reporter = (*TUIReporter)(nil)
)

func sampleResult() *domain.ScanResult {
	d := decimal.RequireFromString
	return &domain.ScanResult{
		ID:                 "scan-1",
		TokenID:            "chainlink",
		TotalOpportunities: 1,
		ChainsScanned:      2,
		NotionalAmount:     d("10000"),
		MinProfitUSD:       d("50"),
		Timestamp:          time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Elapsed:            120 * time.Millisecond,
		Quotes: pricingDomain.QuoteSet{
			TokenID: "chainlink",
			Results: map[pricingDomain.Chain]pricingDomain.QuoteResult{
				pricingDomain.ChainEthereum: pricingDomain.Present(pricingDomain.ChainQuote{Chain: pricingDomain.ChainEthereum, Price: d("1.10")}),
				pricingDomain.ChainPolygon:  pricingDomain.Present(pricingDomain.ChainQuote{Chain: pricingDomain.ChainPolygon, Price: d("1.00")}),
				pricingDomain.ChainSolana:   pricingDomain.Absent(pricingDomain.ChainSolana, pricingDomain.ReasonTimeout),
			},
		},
		Opportunities: []domain.Opportunity{{
			Direction:   domain.Direction{Buy: pricingDomain.ChainPolygon, Sell: pricingDomain.ChainEthereum},
			BuyPrice:    d("1.00"),
			SellPrice:   d("1.10"),
			GrossProfit: d("1000"),
			Costs: domain.Costs{
				BuyFee: d("30"), SellFee: d("33"), BuyGas: d("2"), SellGas: d("25"),
				BridgeCost: d("8"), Total: d("98"),
			},
			NetProfit:           d("902"),
			NetProfitPercentage: d("9.02"),
			Bridge:              domain.BridgeInfo{CostUSD: d("8"), TimeMinutes: 20, Protocol: "Polygon PoS Bridge"},
			Risk:                domain.Risk{Level: domain.RiskLow, Score: 2},
		}},
	}
}

func TestConsoleReporter_Report(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	require.NoError(t, r.Start(context.Background()))
	r.Report(sampleResult())
	require.NoError(t, r.Stop())

	out := buf.String()
	assert.Contains(t, out, "SCAN chainlink")
	assert.Contains(t, out, "Chains quoted:  2/3")
	assert.Contains(t, out, "solana       unavailable (timeout)")
	assert.Contains(t, out, "#1 polygon → ethereum")
	assert.Contains(t, out, "$8.00 via Polygon PoS Bridge (~20m)")
	assert.Contains(t, out, "Net:            $902.00 (9.02%)")
	assert.Contains(t, out, "Low (score 2)")
	assert.Contains(t, out, "Scanner stopped")
}

func TestConsoleReporter_NoOpportunities(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	result := sampleResult()
	result.Opportunities = nil
	result.TotalOpportunities = 0
	r.Report(result)
	r.ReportError(errors.New("upstream down"))

	assert.Contains(t, buf.String(), "No opportunities above threshold")
	assert.Contains(t, buf.String(), "scan failed: upstream down")
}

type fakeProgram struct {
	msgs []tea.Msg
}

func (f *fakeProgram) Send(msg tea.Msg) { f.msgs = append(f.msgs, msg) }

func TestTUIReporter_ForwardsMessages(t *testing.T) {
	p := &fakeProgram{}
	r := &TUIReporter{program: p}

	result := sampleResult()
	r.Report(result)
	r.ReportError(errors.New("boom"))

	require.Len(t, p.msgs, 2)
	msg, ok := p.msgs[0].(ui.ScanResultMsg)
	require.True(t, ok)
	assert.Same(t, result, msg.Result)
	assert.Equal(t, 120*time.Millisecond, msg.Latency)

	errMsg, ok := p.msgs[1].(ui.ScanErrorMsg)
	require.True(t, ok)
	assert.EqualError(t, errMsg.Err, "boom")
}
