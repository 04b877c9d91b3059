// Package costtable loads the swap and bridge cost model from TOML.
package costtable

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/fd1az/crosschain-arb/business/arbitrage/domain"
	pricingDomain "github.com/fd1az/crosschain-arb/business/pricing/domain"
	"github.com/fd1az/crosschain-arb/internal/apperror"
)

//go:embed default_costs.toml
var defaultCosts string

type file struct {
	HighRiskChains *[]string             `toml:"high_risk_chains"`
	Defaults       defaultsSection       `toml:"defaults"`
	Chains         map[string]chainEntry `toml:"chains"`
	Bridges        []bridgeEntry         `toml:"bridges"`
	Risk           *riskSection          `toml:"risk"`
}

type defaultsSection struct {
	Chain  *chainEntry  `toml:"chain"`
	Bridge *bridgeEntry `toml:"bridge"`
}

// Omitted keys are nil so they can fall back to a default instead of zero.
type chainEntry struct {
	DexFeePercent *float64 `toml:"dex_fee_percent"`
	SwapGasUSD    *float64 `toml:"swap_gas_usd"`
}

type bridgeEntry struct {
	Chains      []string `toml:"chains"`
	CostUSD     *float64 `toml:"cost_usd"`
	TimeMinutes *int     `toml:"time_minutes"`
	Protocol    *string  `toml:"protocol"`
}

type riskSection struct {
	HighRiskPoints  *int              `toml:"high_risk_points"`
	HighThreshold   *int              `toml:"high_threshold"`
	MediumThreshold *int              `toml:"medium_threshold"`
	Margin          *[]marginTier     `toml:"margin"`
	BridgeTime      *[]bridgeTimeTier `toml:"bridge_time"`
}

type marginTier struct {
	BelowPercent float64 `toml:"below_percent"`
	Points       int     `toml:"points"`
}

type bridgeTimeTier struct {
	AboveMinutes int `toml:"above_minutes"`
	Points       int `toml:"points"`
}

// Default returns the cost model built from the embedded table.
func Default() (*domain.CostModel, error) {
	return Parse(defaultCosts, "default_costs.toml")
}

// Load reads the table at path, or the embedded default when path is empty.
func Load(path string) (*domain.CostModel, error) {
	if path == "" {
		return Default()
	}

	var f file
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, apperror.New(apperror.CodeCostTableLoad, apperror.WithCause(err), apperror.WithContext(path))
	}
	return build(f, md, path)
}

// Parse decodes a table from TOML text. name is only used in errors.
func Parse(data, name string) (*domain.CostModel, error) {
	var f file
	md, err := toml.Decode(data, &f)
	if err != nil {
		return nil, apperror.New(apperror.CodeCostTableLoad, apperror.WithCause(err), apperror.WithContext(name))
	}
	return build(f, md, name)
}

func build(f file, md toml.MetaData, name string) (*domain.CostModel, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, apperror.New(apperror.CodeCostTableInvalid,
			apperror.WithContext(fmt.Sprintf("%s: unknown keys %s", name, strings.Join(keys, ", "))))
	}

	spec := domain.CostModelSpec{
		Chains: make(map[pricingDomain.Chain]domain.ChainCosts, len(f.Chains)),
	}

	defaultChain := domain.DefaultChainCosts
	if f.Defaults.Chain != nil {
		defaultChain = f.Defaults.Chain.costs(domain.DefaultChainCosts)
		spec.DefaultChain = &defaultChain
	}
	if f.Defaults.Bridge != nil {
		if len(f.Defaults.Bridge.Chains) > 0 {
			return nil, invalid(name, fmt.Errorf("defaults.bridge must not name chains"))
		}
		info := f.Defaults.Bridge.info(domain.DefaultBridge)
		spec.DefaultBridge = &info
	}

	for key, entry := range f.Chains {
		chain, err := pricingDomain.ParseChain(key)
		if err != nil {
			return nil, invalid(name, err)
		}
		spec.Chains[chain] = entry.costs(defaultChain)
	}

	for i, entry := range f.Bridges {
		if len(entry.Chains) != 2 {
			return nil, invalid(name, fmt.Errorf("bridges[%d]: want exactly two chains, got %d", i, len(entry.Chains)))
		}
		if entry.CostUSD == nil || entry.TimeMinutes == nil || entry.Protocol == nil {
			return nil, invalid(name, fmt.Errorf("bridges[%d]: cost_usd, time_minutes and protocol are required", i))
		}
		a, err := pricingDomain.ParseChain(entry.Chains[0])
		if err != nil {
			return nil, invalid(name, fmt.Errorf("bridges[%d]: %w", i, err))
		}
		b, err := pricingDomain.ParseChain(entry.Chains[1])
		if err != nil {
			return nil, invalid(name, fmt.Errorf("bridges[%d]: %w", i, err))
		}
		spec.Bridges = append(spec.Bridges, domain.BridgeRoute{A: a, B: b, Info: entry.info(domain.BridgeInfo{})})
	}

	if f.HighRiskChains != nil {
		chains, err := pricingDomain.ParseChains(*f.HighRiskChains)
		if err != nil {
			return nil, invalid(name, err)
		}
		// Non-nil even when empty so an explicit [] clears the default set.
		spec.HighRisk = append([]pricingDomain.Chain{}, chains...)
	}

	if f.Risk != nil {
		policy := f.Risk.policy(domain.DefaultRiskPolicy())
		spec.Risk = &policy
	}

	// NewCostModel already returns a coded error.
	return domain.NewCostModel(spec)
}

// costs overlays the keys present in e on base.
func (e chainEntry) costs(base domain.ChainCosts) domain.ChainCosts {
	out := base
	if e.DexFeePercent != nil {
		out.DexFeePercent = decimal.NewFromFloat(*e.DexFeePercent)
	}
	if e.SwapGasUSD != nil {
		out.SwapGasUSD = decimal.NewFromFloat(*e.SwapGasUSD)
	}
	return out
}

func (e bridgeEntry) info(base domain.BridgeInfo) domain.BridgeInfo {
	out := base
	if e.CostUSD != nil {
		out.CostUSD = decimal.NewFromFloat(*e.CostUSD)
	}
	if e.TimeMinutes != nil {
		out.TimeMinutes = *e.TimeMinutes
	}
	if e.Protocol != nil {
		out.Protocol = *e.Protocol
	}
	return out
}

// policy overlays the section on base. A tier list, when given, replaces
// the stock list as a whole.
func (r riskSection) policy(base domain.RiskPolicy) domain.RiskPolicy {
	p := base
	if r.HighRiskPoints != nil {
		p.HighRiskPoints = *r.HighRiskPoints
	}
	if r.HighThreshold != nil {
		p.HighThreshold = *r.HighThreshold
	}
	if r.MediumThreshold != nil {
		p.MediumThreshold = *r.MediumThreshold
	}
	if r.Margin != nil {
		p.Margin = make([]domain.MarginTier, 0, len(*r.Margin))
		for _, t := range *r.Margin {
			p.Margin = append(p.Margin, domain.MarginTier{BelowPercent: decimal.NewFromFloat(t.BelowPercent), Points: t.Points})
		}
	}
	if r.BridgeTime != nil {
		p.BridgeTime = make([]domain.BridgeTimeTier, 0, len(*r.BridgeTime))
		for _, t := range *r.BridgeTime {
			p.BridgeTime = append(p.BridgeTime, domain.BridgeTimeTier{AboveMinutes: t.AboveMinutes, Points: t.Points})
		}
	}
	return p
}

func invalid(name string, err error) error {
	return apperror.New(apperror.CodeCostTableInvalid, apperror.WithCause(err), apperror.WithContext(name))
}
