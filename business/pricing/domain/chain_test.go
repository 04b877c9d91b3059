package domain

import (
	"reflect"
	"testing"

	"github.com/fd1az/crosschain-arb/internal/asset"
)

func TestParseChains_CanonicalOrder(t *testing.T) {
	got, err := ParseChains([]string{"bsc", "Ethereum", "base", "ethereum", " arbitrum "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Chain{ChainEthereum, ChainArbitrum, ChainBase, ChainBSC}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseChains() = %v, want %v", got, want)
	}
}

func TestParseChain_Unknown(t *testing.T) {
	if _, err := ParseChain("fantom"); err == nil {
		t.Error("expected error for unsupported chain")
	}
}

func TestChain_PlatformID(t *testing.T) {
	tests := []struct {
		chain Chain
		want  string
	}{
		{ChainEthereum, "ethereum"},
		{ChainPolygon, "polygon-pos"},
		{ChainArbitrum, "arbitrum-one"},
		{ChainOptimism, "optimistic-ethereum"},
		{ChainBase, "base"},
		{ChainBSC, "binance-smart-chain"},
		{ChainAvalanche, "avalanche"},
		{ChainSolana, "solana"},
	}
	for _, tt := range tests {
		if got := tt.chain.PlatformID(); got != tt.want {
			t.Errorf("%s.PlatformID() = %q, want %q", tt.chain, got, tt.want)
		}
	}
}

func TestChain_Accepts(t *testing.T) {
	tests := []struct {
		name  string
		chain Chain
		kind  asset.Kind
		want  bool
	}{
		{"evm address on ethereum", ChainEthereum, asset.KindEVMAddress, true},
		{"evm address on solana", ChainSolana, asset.KindEVMAddress, false},
		{"mint on solana", ChainSolana, asset.KindSolanaMint, true},
		{"mint on polygon", ChainPolygon, asset.KindSolanaMint, false},
		{"coin id anywhere", ChainBSC, asset.KindCoinID, true},
		{"unknown chain", Chain("fantom"), asset.KindCoinID, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.chain.Accepts(tt.kind); got != tt.want {
				t.Errorf("Accepts() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultChains_AreCanonical(t *testing.T) {
	d := DefaultChains()
	if !reflect.DeepEqual(d, Canonical(d)) {
		t.Errorf("default chains not in canonical order: %v", d)
	}
	if len(d) != 6 {
		t.Errorf("len(DefaultChains()) = %d, want 6", len(d))
	}
}
