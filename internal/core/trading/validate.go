package trading

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var conditionIDPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// ParseTokenID accepts an ERC-1155 outcome token id: a base-10 uint256.
func ParseTokenID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("token id is required")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("token id %q must be a base-10 integer", s)
		}
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() == 0 || n.BitLen() > 256 {
		return "", fmt.Errorf("token id %q is not a valid uint256", s)
	}
	return n.String(), nil
}

// ParseConditionID accepts a 0x-prefixed 32-byte market condition id.
func ParseConditionID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !conditionIDPattern.MatchString(s) {
		return "", fmt.Errorf("condition id %q must be 0x followed by 64 hex characters", s)
	}
	return strings.ToLower(s), nil
}

// ParsePositive parses a decimal argument that must be > 0.
func ParsePositive(name, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q is not a number", name, s)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s must be > 0, got %s", name, d)
	}
	return d, nil
}

// ParsePrice parses a probability price strictly between 0 and 1.
func ParsePrice(s string) (decimal.Decimal, error) {
	d, err := ParsePositive("price", s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.LessThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("price must be < 1, got %s", d)
	}
	return d, nil
}
