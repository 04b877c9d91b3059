package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RiskLevel is the coarse risk bucket of an opportunity.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// MarginTier adds Points when the gross margin is below BelowPercent.
type MarginTier struct {
	BelowPercent decimal.Decimal
	Points       int
}

// BridgeTimeTier adds Points when the bridge takes longer than AboveMinutes.
type BridgeTimeTier struct {
	AboveMinutes int
	Points       int
}

// RiskPolicy turns margin, bridge time and chain exposure into a score.
// Tiers are checked in order and the first match wins.
type RiskPolicy struct {
	Margin          []MarginTier
	BridgeTime      []BridgeTimeTier
	HighRiskPoints  int
	HighThreshold   int
	MediumThreshold int
}

// Risk is a scored assessment.
type Risk struct {
	Level RiskLevel
	Score int
}

// DefaultRiskPolicy returns the stock thresholds.
func DefaultRiskPolicy() RiskPolicy {
	return RiskPolicy{
		Margin: []MarginTier{
			{BelowPercent: decimal.NewFromInt(2), Points: 3},
			{BelowPercent: decimal.NewFromInt(5), Points: 2},
			{BelowPercent: decimal.NewFromInt(10), Points: 1},
		},
		BridgeTime: []BridgeTimeTier{
			{AboveMinutes: 30, Points: 3},
			{AboveMinutes: 15, Points: 2},
			{AboveMinutes: 5, Points: 1},
		},
		HighRiskPoints:  1,
		HighThreshold:   6,
		MediumThreshold: 3,
	}
}

// Assess scores a leg. The result depends only on the arguments.
func (p RiskPolicy) Assess(marginPercent decimal.Decimal, bridgeMinutes int, highRiskChain bool) Risk {
	score := 0

	for _, tier := range p.Margin {
		if marginPercent.LessThan(tier.BelowPercent) {
			score += tier.Points
			break
		}
	}

	for _, tier := range p.BridgeTime {
		if bridgeMinutes > tier.AboveMinutes {
			score += tier.Points
			break
		}
	}

	if highRiskChain {
		score += p.HighRiskPoints
	}

	level := RiskLow
	switch {
	case score >= p.HighThreshold:
		level = RiskHigh
	case score >= p.MediumThreshold:
		level = RiskMedium
	}

	return Risk{Level: level, Score: score}
}

// Validate checks that tiers are ordered so first-match is meaningful and that
// a zero score can only band Low.
func (p RiskPolicy) Validate() error {
	for i := 1; i < len(p.Margin); i++ {
		if !p.Margin[i].BelowPercent.GreaterThan(p.Margin[i-1].BelowPercent) {
			return fmt.Errorf("margin tiers must be strictly ascending")
		}
	}
	for i := 1; i < len(p.BridgeTime); i++ {
		if p.BridgeTime[i].AboveMinutes >= p.BridgeTime[i-1].AboveMinutes {
			return fmt.Errorf("bridge time tiers must be strictly descending")
		}
	}
	if p.MediumThreshold < 1 {
		return fmt.Errorf("medium threshold must be at least 1, got %d", p.MediumThreshold)
	}
	if p.MediumThreshold > p.HighThreshold {
		return fmt.Errorf("medium threshold %d above high threshold %d", p.MediumThreshold, p.HighThreshold)
	}
	if p.HighRiskPoints < 0 {
		return fmt.Errorf("high risk points must not be negative")
	}
	for _, t := range p.Margin {
		if t.Points < 0 {
			return fmt.Errorf("margin tier points must not be negative")
		}
	}
	for _, t := range p.BridgeTime {
		if t.Points < 0 {
			return fmt.Errorf("bridge time tier points must not be negative")
		}
	}
	return nil
}

func (p RiskPolicy) clone() RiskPolicy {
	out := p
	out.Margin = append([]MarginTier(nil), p.Margin...)
	out.BridgeTime = append([]BridgeTimeTier(nil), p.BridgeTime...)
	return out
}
