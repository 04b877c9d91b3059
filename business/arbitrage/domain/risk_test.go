package domain

import (
	"testing"

	pricingDomain "github.com/fd1az/crosschain-arb/business/pricing/domain"
)

func TestRiskPolicy_Assess(t *testing.T) {
	policy := DefaultRiskPolicy()

	tests := []struct {
		name      string
		margin    string
		minutes   int
		highRisk  bool
		wantScore int
		wantLevel RiskLevel
	}{
		{"wide_margin_fast_bridge", "12", 3, false, 0, RiskLow},
		{"margin_exactly_10", "10", 5, false, 0, RiskLow},
		{"margin_just_below_10", "9.99", 5, false, 1, RiskLow},
		{"margin_below_5", "4", 5, false, 2, RiskLow},
		{"margin_below_2", "1.5", 5, false, 3, RiskMedium},
		{"bridge_over_5", "12", 6, false, 1, RiskLow},
		{"bridge_exactly_15", "12", 15, false, 1, RiskLow},
		{"bridge_over_15", "12", 20, false, 2, RiskLow},
		{"bridge_exactly_30", "12", 30, false, 2, RiskLow},
		{"bridge_over_30", "12", 45, false, 3, RiskMedium},
		{"high_risk_chain_only", "12", 0, true, 1, RiskLow},
		{"medium_mix", "4", 20, false, 4, RiskMedium},
		{"high_at_six", "1", 31, false, 6, RiskHigh},
		{"max_score", "0.5", 60, true, 7, RiskHigh},
		{"medium_boundary_with_bsc", "4", 0, true, 3, RiskMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.Assess(d(tt.margin), tt.minutes, tt.highRisk)
			if got.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d", got.Score, tt.wantScore)
			}
			if got.Level != tt.wantLevel {
				t.Errorf("Level = %s, want %s", got.Level, tt.wantLevel)
			}
		})
	}
}

func TestCostModel_AssessRisk_EitherChain(t *testing.T) {
	m := MustCostModel(CostModelSpec{})

	buySide := m.AssessRisk(d("12"), 0, pricingDomain.ChainBSC, pricingDomain.ChainEthereum)
	sellSide := m.AssessRisk(d("12"), 0, pricingDomain.ChainEthereum, pricingDomain.ChainBSC)
	neither := m.AssessRisk(d("12"), 0, pricingDomain.ChainEthereum, pricingDomain.ChainBase)

	if buySide.Score != 1 || sellSide.Score != 1 {
		t.Errorf("high-risk leg scores = %d, %d, want 1, 1", buySide.Score, sellSide.Score)
	}
	if neither.Score != 0 {
		t.Errorf("low-risk leg score = %d, want 0", neither.Score)
	}
}

func TestRiskPolicy_Custom(t *testing.T) {
	policy := RiskPolicy{
		Margin:          []MarginTier{{BelowPercent: d("1"), Points: 5}},
		HighRiskPoints:  0,
		HighThreshold:   5,
		MediumThreshold: 2,
	}
	if err := policy.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	got := policy.Assess(d("0.5"), 120, true)
	if got.Level != RiskHigh || got.Score != 5 {
		t.Errorf("Assess() = %+v, want High/5", got)
	}
}

func TestRiskPolicy_ValidateThresholds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *RiskPolicy)
	}{
		{"zero_medium", func(p *RiskPolicy) { p.MediumThreshold = 0 }},
		{"medium_above_high", func(p *RiskPolicy) { p.MediumThreshold = p.HighThreshold + 1 }},
		{"negative_bonus", func(p *RiskPolicy) { p.HighRiskPoints = -1 }},
		{"negative_tier_points", func(p *RiskPolicy) { p.Margin[0].Points = -3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultRiskPolicy()
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("Validate() error = nil, want error")
			}
		})
	}

	if err := DefaultRiskPolicy().Validate(); err != nil {
		t.Errorf("stock policy: Validate() error = %v", err)
	}
}

func TestDirections(t *testing.T) {
	chains := []pricingDomain.Chain{pricingDomain.ChainEthereum, pricingDomain.ChainPolygon, pricingDomain.ChainBase}

	got := Directions(chains)
	if len(got) != 6 {
		t.Fatalf("len(Directions()) = %d, want 6", len(got))
	}
	want := []Direction{
		{pricingDomain.ChainEthereum, pricingDomain.ChainPolygon},
		{pricingDomain.ChainEthereum, pricingDomain.ChainBase},
		{pricingDomain.ChainPolygon, pricingDomain.ChainEthereum},
		{pricingDomain.ChainPolygon, pricingDomain.ChainBase},
		{pricingDomain.ChainBase, pricingDomain.ChainEthereum},
		{pricingDomain.ChainBase, pricingDomain.ChainPolygon},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Directions()[%d] = %v, want %v", i, got[i], want[i])
		}
		if got[i].Buy == got[i].Sell {
			t.Errorf("Directions()[%d] pairs a chain with itself", i)
		}
	}

	if Directions(chains[:1]) != nil {
		t.Error("Directions() of one chain should be nil")
	}
}
