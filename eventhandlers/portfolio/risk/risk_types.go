package risk

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrExceedsMaxPosition is returned when an order would take a position
	// past its size limit
	ErrExceedsMaxPosition = errors.New("order exceeds maximum position size")
	// ErrExceedsMaxNotional is returned when an order's notional value is too large
	ErrExceedsMaxNotional = errors.New("order exceeds maximum order notional")

	errNegativeLimit = errors.New("risk limits cannot be negative")
)

// Risk holds position and order limits. Limits are only checked when
// EnforceLimits is set and a zero limit means unlimited
type Risk struct {
	EnforceLimits          bool
	MaxPositionSize        map[string]decimal.Decimal
	DefaultMaxPositionSize decimal.Decimal
	MaxOrderNotional       decimal.Decimal
}
