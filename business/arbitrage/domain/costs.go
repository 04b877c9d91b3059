// Package domain contains the core domain types for the arbitrage context.
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	pricingDomain "github.com/fd1az/crosschain-arb/business/pricing/domain"
	"github.com/fd1az/crosschain-arb/internal/apperror"
)

// DefaultBridge is used for any chain pair missing from the bridge table.
var DefaultBridge = BridgeInfo{
	CostUSD:     decimal.NewFromInt(20),
	TimeMinutes: 30,
	Protocol:    "Generic Bridge",
}

// DefaultChainCosts applies to chains the cost table does not list.
var DefaultChainCosts = ChainCosts{
	DexFeePercent: decimal.RequireFromString("0.3"),
	SwapGasUSD:    decimal.NewFromInt(10),
}

// DefaultHighRiskChains is the high-risk set when none is configured.
var DefaultHighRiskChains = []pricingDomain.Chain{pricingDomain.ChainBSC}

// BridgeInfo is the cost of moving funds between two chains.
type BridgeInfo struct {
	CostUSD     decimal.Decimal
	TimeMinutes int
	Protocol    string
}

// ChainCosts are the per-swap costs on one chain.
type ChainCosts struct {
	DexFeePercent decimal.Decimal // e.g. 0.3 for 0.3%
	SwapGasUSD    decimal.Decimal
}

// BridgeRoute binds a BridgeInfo to an unordered chain pair.
type BridgeRoute struct {
	A, B pricingDomain.Chain
	Info BridgeInfo
}

// CostModelSpec is the raw input for NewCostModel. Nil fields fall back to
// the package defaults; a nil HighRisk means DefaultHighRiskChains.
type CostModelSpec struct {
	Chains        map[pricingDomain.Chain]ChainCosts
	Bridges       []BridgeRoute
	DefaultBridge *BridgeInfo
	DefaultChain  *ChainCosts
	HighRisk      []pricingDomain.Chain
	Risk          *RiskPolicy
}

// pairKey orders the two chains so lookups are direction independent.
type pairKey struct {
	lo, hi pricingDomain.Chain
}

func keyOf(a, b pricingDomain.Chain) pairKey {
	if a.Index() > b.Index() {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// CostModel holds fee, gas and bridge costs. It is immutable once built and
// safe for concurrent use.
type CostModel struct {
	chains        map[pricingDomain.Chain]ChainCosts
	bridges       map[pairKey]BridgeInfo
	defaultBridge BridgeInfo
	defaultChain  ChainCosts
	highRisk      map[pricingDomain.Chain]bool
	risk          RiskPolicy
}

// NewCostModel validates spec and builds a CostModel from a private copy of it.
func NewCostModel(spec CostModelSpec) (*CostModel, error) {
	m := &CostModel{
		chains:        make(map[pricingDomain.Chain]ChainCosts, len(spec.Chains)),
		bridges:       make(map[pairKey]BridgeInfo, len(spec.Bridges)),
		defaultBridge: DefaultBridge,
		defaultChain:  DefaultChainCosts,
		highRisk:      make(map[pricingDomain.Chain]bool),
		risk:          DefaultRiskPolicy(),
	}

	if spec.DefaultBridge != nil {
		if err := validateBridge(*spec.DefaultBridge); err != nil {
			return nil, invalidTable("default bridge: %v", err)
		}
		m.defaultBridge = *spec.DefaultBridge
	}
	if spec.DefaultChain != nil {
		if err := validateChainCosts(*spec.DefaultChain); err != nil {
			return nil, invalidTable("default chain: %v", err)
		}
		m.defaultChain = *spec.DefaultChain
	}

	for chain, costs := range spec.Chains {
		if !chain.Valid() {
			return nil, invalidTable("unknown chain %q", chain)
		}
		if err := validateChainCosts(costs); err != nil {
			return nil, invalidTable("chain %s: %v", chain, err)
		}
		m.chains[chain] = costs
	}

	for _, route := range spec.Bridges {
		if !route.A.Valid() || !route.B.Valid() {
			return nil, invalidTable("bridge %s-%s: unknown chain", route.A, route.B)
		}
		if route.A == route.B {
			return nil, invalidTable("bridge %s-%s: endpoints must differ", route.A, route.B)
		}
		if err := validateBridge(route.Info); err != nil {
			return nil, invalidTable("bridge %s-%s: %v", route.A, route.B, err)
		}
		key := keyOf(route.A, route.B)
		if _, dup := m.bridges[key]; dup {
			return nil, invalidTable("bridge %s-%s listed twice", route.A, route.B)
		}
		m.bridges[key] = route.Info
	}

	highRisk := spec.HighRisk
	if highRisk == nil {
		highRisk = DefaultHighRiskChains
	}
	for _, chain := range highRisk {
		if !chain.Valid() {
			return nil, invalidTable("unknown high-risk chain %q", chain)
		}
		m.highRisk[chain] = true
	}

	if spec.Risk != nil {
		if err := spec.Risk.Validate(); err != nil {
			return nil, invalidTable("risk policy: %v", err)
		}
		m.risk = spec.Risk.clone()
	}

	return m, nil
}

// MustCostModel is NewCostModel for static tables known to be valid.
func MustCostModel(spec CostModelSpec) *CostModel {
	m, err := NewCostModel(spec)
	if err != nil {
		panic(err)
	}
	return m
}

// Bridge returns the bridge for the unordered pair {a, b}, or the default.
func (m *CostModel) Bridge(a, b pricingDomain.Chain) BridgeInfo {
	if info, ok := m.bridges[keyOf(a, b)]; ok {
		return info
	}
	return m.defaultBridge
}

// HasBridge reports whether {a, b} has an explicit table entry.
func (m *CostModel) HasBridge(a, b pricingDomain.Chain) bool {
	_, ok := m.bridges[keyOf(a, b)]
	return ok
}

// Chain returns the swap costs for chain.
func (m *CostModel) Chain(chain pricingDomain.Chain) ChainCosts {
	if costs, ok := m.chains[chain]; ok {
		return costs
	}
	return m.defaultChain
}

// DexFeePercent returns the swap fee on chain as a percentage.
func (m *CostModel) DexFeePercent(chain pricingDomain.Chain) decimal.Decimal {
	return m.Chain(chain).DexFeePercent
}

// SwapGasUSD returns the flat swap gas cost on chain.
func (m *CostModel) SwapGasUSD(chain pricingDomain.Chain) decimal.Decimal {
	return m.Chain(chain).SwapGasUSD
}

// IsHighRisk reports whether chain is in the high-risk set.
func (m *CostModel) IsHighRisk(chain pricingDomain.Chain) bool {
	return m.highRisk[chain]
}

// RiskPolicy returns a copy of the scoring policy.
func (m *CostModel) RiskPolicy() RiskPolicy {
	return m.risk.clone()
}

// DefaultBridge returns the fallback bridge.
func (m *CostModel) DefaultBridge() BridgeInfo {
	return m.defaultBridge
}

// Bridges lists the explicit bridge table in canonical chain order.
func (m *CostModel) Bridges() []BridgeRoute {
	out := make([]BridgeRoute, 0, len(m.bridges))
	chains := pricingDomain.AllChains()
	for i, a := range chains {
		for _, b := range chains[i+1:] {
			if info, ok := m.bridges[pairKey{lo: a, hi: b}]; ok {
				out = append(out, BridgeRoute{A: a, B: b, Info: info})
			}
		}
	}
	return out
}

// AssessRisk scores one buy/sell leg under the model's policy.
func (m *CostModel) AssessRisk(marginPercent decimal.Decimal, bridgeMinutes int, buy, sell pricingDomain.Chain) Risk {
	return m.risk.Assess(marginPercent, bridgeMinutes, m.IsHighRisk(buy) || m.IsHighRisk(sell))
}

func validateChainCosts(c ChainCosts) error {
	if c.DexFeePercent.IsNegative() || c.DexFeePercent.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return fmt.Errorf("dex fee %s%% out of range [0, 100)", c.DexFeePercent)
	}
	if c.SwapGasUSD.IsNegative() {
		return fmt.Errorf("negative swap gas %s", c.SwapGasUSD)
	}
	return nil
}

func validateBridge(b BridgeInfo) error {
	if b.CostUSD.IsNegative() {
		return fmt.Errorf("negative bridge cost %s", b.CostUSD)
	}
	if b.TimeMinutes < 0 {
		return fmt.Errorf("negative bridge time %d", b.TimeMinutes)
	}
	if b.Protocol == "" {
		return fmt.Errorf("missing protocol")
	}
	return nil
}

func invalidTable(format string, args ...any) error {
	return apperror.New(apperror.CodeCostTableInvalid,
		apperror.WithContext(fmt.Sprintf(format, args...)))
}
