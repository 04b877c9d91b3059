// Package asset parses the token identifiers accepted by the scanner.
// A token is named either by its EVM contract address, its Solana mint,
// or its CoinGecko coin id; the kind decides which chains it can be priced on.
package asset

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"
)

// Kind classifies a token identifier.
type Kind int

const (
	KindEVMAddress Kind = iota + 1
	KindSolanaMint
	KindCoinID
)

func (k Kind) String() string {
	switch k {
	case KindEVMAddress:
		return "evm_address"
	case KindSolanaMint:
		return "solana_mint"
	case KindCoinID:
		return "coin_id"
	default:
		return "unknown"
	}
}

const (
	maxTokenIDLength = 128
	solanaMintBytes  = 32
)

var coinIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// TokenID is a validated token identifier.
type TokenID struct {
	raw  string
	kind Kind
}

// ParseTokenID validates raw and classifies it.
func ParseTokenID(raw string) (TokenID, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return TokenID{}, fmt.Errorf("token id is empty")
	}
	if len(s) > maxTokenIDLength {
		return TokenID{}, fmt.Errorf("token id longer than %d characters", maxTokenIDLength)
	}

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if !common.IsHexAddress(s) {
			return TokenID{}, fmt.Errorf("malformed contract address %q", s)
		}
		return TokenID{raw: strings.ToLower(common.HexToAddress(s).Hex()), kind: KindEVMAddress}, nil
	}

	if isSolanaMint(s) {
		return TokenID{raw: s, kind: KindSolanaMint}, nil
	}

	lower := strings.ToLower(s)
	if !coinIDPattern.MatchString(lower) {
		return TokenID{}, fmt.Errorf("malformed token id %q", s)
	}
	return TokenID{raw: lower, kind: KindCoinID}, nil
}

func isSolanaMint(s string) bool {
	if len(s) < 32 || len(s) > 44 {
		return false
	}
	decoded, err := base58.Decode(s)
	return err == nil && len(decoded) == solanaMintBytes
}

// Kind returns the identifier kind.
func (id TokenID) Kind() Kind {
	return id.kind
}

// String returns the normalized identifier: lowercase hex for EVM addresses,
// the mint as given for Solana, lowercase for coin ids.
func (id TokenID) String() string {
	return id.raw
}

// IsZero reports whether id was never parsed.
func (id TokenID) IsZero() bool {
	return id.kind == 0
}

// Checksum returns the EIP-55 form of an EVM address, or the identifier unchanged.
func (id TokenID) Checksum() string {
	if id.kind != KindEVMAddress {
		return id.raw
	}
	return common.HexToAddress(id.raw).Hex()
}
