package costtable

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/crosschain-arb/business/arbitrage/domain"
	pricingDomain "github.com/fd1az/crosschain-arb/business/pricing/domain"
	"github.com/fd1az/crosschain-arb/internal/apperror"
)

func TestDefault(t *testing.T) {
	m, err := Default()
	require.NoError(t, err)

	assert.True(t, m.SwapGasUSD(pricingDomain.ChainEthereum).Equal(decimal.NewFromInt(25)))
	assert.True(t, m.DexFeePercent(pricingDomain.ChainBSC).Equal(decimal.RequireFromString("0.25")))

	bridge := m.Bridge(pricingDomain.ChainBase, pricingDomain.ChainOptimism)
	assert.Equal(t, "Across", bridge.Protocol)
	assert.Equal(t, 3, bridge.TimeMinutes)

	fallback := m.Bridge(pricingDomain.ChainAvalanche, pricingDomain.ChainSolana)
	assert.Equal(t, "Generic Bridge", fallback.Protocol)
	assert.True(t, fallback.CostUSD.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, 30, fallback.TimeMinutes)

	assert.True(t, m.IsHighRisk(pricingDomain.ChainBSC))
	assert.False(t, m.IsHighRisk(pricingDomain.ChainSolana))
	assert.Len(t, m.Bridges(), 12)

	// The file restates the built-in policy.
	assert.Equal(t, domain.DefaultRiskPolicy().HighThreshold, m.RiskPolicy().HighThreshold)
	assert.Len(t, m.RiskPolicy().Margin, 3)
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	m, err := Load("")
	require.NoError(t, err)
	assert.Len(t, m.Bridges(), 12)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "costs.toml")
	content := `
high_risk_chains = []

[chains.ethereum]
dex_fee_percent = 0.05
swap_gas_usd = 40

[[bridges]]
chains = ["solana", "ethereum"]
cost_usd = 9.5
time_minutes = 12
protocol = "Wormhole"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	m, err := Load(path)
	require.NoError(t, err)

	assert.True(t, m.DexFeePercent(pricingDomain.ChainEthereum).Equal(decimal.RequireFromString("0.05")))
	assert.True(t, m.SwapGasUSD(pricingDomain.ChainEthereum).Equal(decimal.NewFromInt(40)))
	assert.True(t, m.Bridge(pricingDomain.ChainEthereum, pricingDomain.ChainSolana).CostUSD.Equal(decimal.RequireFromString("9.5")))
	assert.False(t, m.IsHighRisk(pricingDomain.ChainBSC), "explicit empty list clears the default")

	// Sections left out keep the built-in defaults.
	assert.Equal(t, domain.DefaultBridge.Protocol, m.DefaultBridge().Protocol)
	assert.True(t, m.SwapGasUSD(pricingDomain.ChainBase).Equal(domain.DefaultChainCosts.SwapGasUSD))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Equal(t, apperror.CodeCostTableLoad, apperror.GetCode(err))
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantCode apperror.Code
	}{
		{
			name:     "syntax",
			data:     "[chains.ethereum\n",
			wantCode: apperror.CodeCostTableLoad,
		},
		{
			name:     "unknown_key",
			data:     "[chains.ethereum]\ndex_fee = 0.3\n",
			wantCode: apperror.CodeCostTableInvalid,
		},
		{
			name:     "unknown_chain",
			data:     "[chains.fantom]\ndex_fee_percent = 0.3\nswap_gas_usd = 1\n",
			wantCode: apperror.CodeCostTableInvalid,
		},
		{
			name:     "bridge_with_three_chains",
			data:     "[[bridges]]\nchains = [\"ethereum\", \"base\", \"bsc\"]\ncost_usd = 1\ntime_minutes = 1\nprotocol = \"X\"\n",
			wantCode: apperror.CodeCostTableInvalid,
		},
		{
			name:     "negative_fee",
			data:     "[chains.base]\ndex_fee_percent = -1\nswap_gas_usd = 1\n",
			wantCode: apperror.CodeCostTableInvalid,
		},
		{
			name:     "bridge_without_cost",
			data:     "[[bridges]]\nchains = [\"base\", \"bsc\"]\ntime_minutes = 1\nprotocol = \"X\"\n",
			wantCode: apperror.CodeCostTableInvalid,
		},
		{
			name:     "zero_medium_threshold",
			data:     "[risk]\nmedium_threshold = 0\n",
			wantCode: apperror.CodeCostTableInvalid,
		},
		{
			name:     "medium_above_high",
			data:     "[risk]\nmedium_threshold = 7\n",
			wantCode: apperror.CodeCostTableInvalid,
		},
		{
			name:     "duplicate_bridge",
			data:     "[[bridges]]\nchains = [\"base\", \"bsc\"]\ncost_usd = 1\ntime_minutes = 1\nprotocol = \"X\"\n[[bridges]]\nchains = [\"bsc\", \"base\"]\ncost_usd = 2\ntime_minutes = 2\nprotocol = \"Y\"\n",
			wantCode: apperror.CodeCostTableInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data, tt.name)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperror.GetCode(err))
		})
	}
}

func TestParse_PartialRiskKeepsStockPolicy(t *testing.T) {
	m, err := Parse("[risk]\nhigh_risk_points = 2\n", "partial")
	require.NoError(t, err)

	policy := m.RiskPolicy()
	stock := domain.DefaultRiskPolicy()
	assert.Equal(t, 2, policy.HighRiskPoints)
	assert.Equal(t, stock.HighThreshold, policy.HighThreshold)
	assert.Equal(t, stock.MediumThreshold, policy.MediumThreshold)
	assert.Len(t, policy.Margin, len(stock.Margin))
	assert.Len(t, policy.BridgeTime, len(stock.BridgeTime))

	// 1% margin (3) and a 60 minute bridge (3).
	risk := policy.Assess(decimal.NewFromInt(1), 60, false)
	assert.Equal(t, domain.RiskHigh, risk.Level)
	assert.Equal(t, 6, risk.Score)
}

func TestParse_PartialRiskTierListReplaced(t *testing.T) {
	m, err := Parse("[[risk.margin]]\nbelow_percent = 1\npoints = 4\n", "tiers")
	require.NoError(t, err)

	policy := m.RiskPolicy()
	require.Len(t, policy.Margin, 1)
	assert.Equal(t, 4, policy.Margin[0].Points)
	assert.Len(t, policy.BridgeTime, len(domain.DefaultRiskPolicy().BridgeTime))
}

func TestParse_PartialChainKeepsDefaults(t *testing.T) {
	data := `
[defaults.chain]
swap_gas_usd = 7

[chains.ethereum]
dex_fee_percent = 0.05

[chains.base]
swap_gas_usd = 0.4
`
	m, err := Parse(data, "partial")
	require.NoError(t, err)

	assert.True(t, m.DexFeePercent(pricingDomain.ChainEthereum).Equal(decimal.RequireFromString("0.05")))
	assert.True(t, m.SwapGasUSD(pricingDomain.ChainEthereum).Equal(decimal.NewFromInt(7)), "gas falls back to the table default")

	assert.True(t, m.SwapGasUSD(pricingDomain.ChainBase).Equal(decimal.RequireFromString("0.4")))
	assert.True(t, m.DexFeePercent(pricingDomain.ChainBase).Equal(domain.DefaultChainCosts.DexFeePercent), "fee falls back to the built-in default")

	assert.True(t, m.SwapGasUSD(pricingDomain.ChainSolana).Equal(decimal.NewFromInt(7)))
}

func TestParse_PartialDefaultBridge(t *testing.T) {
	m, err := Parse("[defaults.bridge]\ncost_usd = 35\n", "bridge")
	require.NoError(t, err)

	b := m.DefaultBridge()
	assert.True(t, b.CostUSD.Equal(decimal.NewFromInt(35)))
	assert.Equal(t, domain.DefaultBridge.TimeMinutes, b.TimeMinutes)
	assert.Equal(t, domain.DefaultBridge.Protocol, b.Protocol)
}
