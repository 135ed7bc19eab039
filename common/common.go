package common

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// IsValid reports whether the side is BUY or SELL
func (s Side) IsValid() bool {
	return s == Buy || s == Sell
}

// Opposite returns the side that nets out s
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Sign returns 1 for BUY and -1 for SELL
func (s Side) Sign() decimal.Decimal {
	if s == Sell {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// ParseSide converts a case insensitive string into a Side
func ParseSide(s string) (Side, error) {
	side := Side(strings.ToUpper(strings.TrimSpace(s)))
	if !side.IsValid() {
		return "", fmt.Errorf("unrecognised side '%v'", s)
	}
	return side, nil
}

// ParseOrderType converts a case insensitive string into an OrderType.
// An empty string is a market order
func ParseOrderType(s string) (OrderType, error) {
	switch OrderType(strings.ToUpper(strings.TrimSpace(s))) {
	case "", Market:
		return Market, nil
	case Limit:
		return Limit, nil
	default:
		return "", fmt.Errorf("unrecognised order type '%v'", s)
	}
}

// IsDust reports whether an amount is too small to be kept as a position
func IsDust(d decimal.Decimal) bool {
	return d.Abs().LessThan(Epsilon)
}

// SortedKeys returns the keys of a string keyed map in ascending order
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
