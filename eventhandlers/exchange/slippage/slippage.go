package slippage

import (
	"math"
	"strings"

	"github.com/quantreplay/backtester/common"
	"github.com/shopspring/decimal"
)

// Model names a slippage model
type Model string

// Supported slippage models
const (
	Zero       Model = "zero"
	Linear     Model = "linear"
	SquareRoot Model = "square_root"
)

var (
	basisPointDivisor = decimal.NewFromInt(10000)
	linearSizeCap     = decimal.NewFromInt(10)
)

// ParseModel returns the model for a config name. Unknown names resolve to
// Zero with ok false so the caller can warn
func ParseModel(name string) (m Model, ok bool) {
	switch Model(strings.ToLower(strings.TrimSpace(name))) {
	case Zero:
		return Zero, true
	case Linear:
		return Linear, true
	case SquareRoot:
		return SquareRoot, true
	default:
		return Zero, false
	}
}

// CalculateSlippage returns the absolute price adjustment for an order of
// size at the reference price
//
//	linear:      ref * bps / 10000 * min(|size|, 10) / 10
//	square_root: ref * bps / 10000 * sqrt(|size|)
func CalculateSlippage(m Model, referencePrice, size, bps decimal.Decimal) decimal.Decimal {
	rate := referencePrice.Mul(bps).Div(basisPointDivisor)
	size = size.Abs()
	switch m {
	case Linear:
		return rate.Mul(decimal.Min(size, linearSizeCap)).Div(linearSizeCap)
	case SquareRoot:
		return rate.Mul(decimal.NewFromFloat(math.Sqrt(size.InexactFloat64())))
	default:
		return decimal.Zero
	}
}

// ApplySlippageToPrice moves the reference price against the order: up for
// buys, down for sells
func ApplySlippageToPrice(side common.Side, referencePrice, slip decimal.Decimal) decimal.Decimal {
	if side == common.Sell {
		return referencePrice.Sub(slip)
	}
	return referencePrice.Add(slip)
}
