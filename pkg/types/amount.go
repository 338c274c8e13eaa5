package types

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// ParseAmount accepts a decimal string or a 0x-prefixed hex string of an
// unsigned integer that fits in 256 bits. Signs, whitespace and exponents are rejected.
func ParseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}

	var (
		value *big.Int
		ok    bool
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if !isHex(s[2:]) {
			return nil, fmt.Errorf("%q is not a valid hex integer", s)
		}
		value, ok = new(big.Int).SetString(s[2:], 16)
	} else {
		if !isDecimal(s) {
			return nil, fmt.Errorf("%q is not a decimal or 0x-prefixed hex integer", s)
		}
		value, ok = new(big.Int).SetString(s, 10)
	}
	if !ok {
		return nil, fmt.Errorf("%q is not an integer", s)
	}

	amount, overflow := uint256.FromBig(value)
	if overflow {
		return nil, fmt.Errorf("%q exceeds 256 bits", s)
	}
	return amount, nil
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
