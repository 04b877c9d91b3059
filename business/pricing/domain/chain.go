// Package domain contains the core domain types for the pricing context.
package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fd1az/crosschain-arb/internal/asset"
)

// Chain is a supported blockchain network.
type Chain string

// Declaration order is the canonical iteration order for every multi-chain result.
const (
	ChainEthereum  Chain = "ethereum"
	ChainPolygon   Chain = "polygon"
	ChainArbitrum  Chain = "arbitrum"
	ChainOptimism  Chain = "optimism"
	ChainBase      Chain = "base"
	ChainBSC       Chain = "bsc"
	ChainAvalanche Chain = "avalanche"
	ChainSolana    Chain = "solana"
)

var allChains = []Chain{
	ChainEthereum,
	ChainPolygon,
	ChainArbitrum,
	ChainOptimism,
	ChainBase,
	ChainBSC,
	ChainAvalanche,
	ChainSolana,
}

var chainIndex = func() map[Chain]int {
	m := make(map[Chain]int, len(allChains))
	for i, c := range allChains {
		m[c] = i
	}
	return m
}()

// CoinGecko asset platform ids.
var platformIDs = map[Chain]string{
	ChainEthereum:  "ethereum",
	ChainPolygon:   "polygon-pos",
	ChainArbitrum:  "arbitrum-one",
	ChainOptimism:  "optimistic-ethereum",
	ChainBase:      "base",
	ChainBSC:       "binance-smart-chain",
	ChainAvalanche: "avalanche",
	ChainSolana:    "solana",
}

// AllChains returns every supported chain in canonical order.
func AllChains() []Chain {
	out := make([]Chain, len(allChains))
	copy(out, allChains)
	return out
}

// DefaultChains is the set scanned when a request names none.
func DefaultChains() []Chain {
	return []Chain{ChainEthereum, ChainPolygon, ChainArbitrum, ChainOptimism, ChainBase, ChainBSC}
}

// ParseChain accepts a chain name case-insensitively.
func ParseChain(s string) (Chain, error) {
	c := Chain(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := chainIndex[c]; !ok {
		return "", fmt.Errorf("unsupported chain %q", s)
	}
	return c, nil
}

// ParseChains parses names, drops duplicates and returns canonical order.
func ParseChains(names []string) ([]Chain, error) {
	chains := make([]Chain, 0, len(names))
	for _, n := range names {
		c, err := ParseChain(n)
		if err != nil {
			return nil, err
		}
		chains = append(chains, c)
	}
	return Canonical(chains), nil
}

// Canonical returns a deduplicated copy of chains in declaration order.
// Unknown chains are dropped.
func Canonical(chains []Chain) []Chain {
	seen := make(map[Chain]bool, len(chains))
	out := make([]Chain, 0, len(chains))
	for _, c := range chains {
		if _, ok := chainIndex[c]; !ok || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return chainIndex[out[i]] < chainIndex[out[j]] })
	return out
}

// Valid reports whether c is a supported chain.
func (c Chain) Valid() bool {
	_, ok := chainIndex[c]
	return ok
}

// Index is the position of c in the canonical order, or -1.
func (c Chain) Index() int {
	if i, ok := chainIndex[c]; ok {
		return i
	}
	return -1
}

// PlatformID returns the CoinGecko asset platform id.
func (c Chain) PlatformID() string {
	return platformIDs[c]
}

// IsEVM reports whether contract addresses on c are 20-byte hex.
func (c Chain) IsEVM() bool {
	return c.Valid() && c != ChainSolana
}

// Accepts reports whether a token of the given kind can be priced on c
// without first resolving it.
func (c Chain) Accepts(kind asset.Kind) bool {
	switch kind {
	case asset.KindEVMAddress:
		return c.IsEVM()
	case asset.KindSolanaMint:
		return c == ChainSolana
	case asset.KindCoinID:
		return c.Valid()
	default:
		return false
	}
}

func (c Chain) String() string {
	return string(c)
}
