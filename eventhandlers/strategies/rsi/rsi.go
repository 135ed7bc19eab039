package rsi

import (
	"fmt"

	"github.com/quantreplay/backtester/common"
	"github.com/quantreplay/backtester/eventhandlers/strategies/base"
	"github.com/quantreplay/backtester/eventtypes/order"
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-ta/indicators"
)

const (
	// Name is the strategy name
	Name         = "rsi"
	rsiPeriodKey = "rsi-period"
	rsiLowKey    = "rsi-low"
	rsiHighKey   = "rsi-high"
	sizeKey      = "size"
	description  = `The relative strength index is a technical indicator used in the analysis of financial markets. It is intended to chart the current and historical strength or weakness of a stock or market based on the closing prices of a recent trading period`
)

// Strategy is an implementation of the Handler interface
type Strategy struct {
	rsiPeriod int
	rsiLow    float64
	rsiHigh   float64
	size      decimal.Decimal
}

// Name returns the name of the strategy
func (s *Strategy) Name() string {
	return Name
}

// Description provides a nice overview of the strategy
func (s *Strategy) Description() string {
	return description
}

// OnStep buys size of a flat symbol when its RSI is at or below the low
// level and sells the whole long position when RSI is at or above the high
// level. Symbols without more closes than the period are skipped
func (s *Strategy) OnStep(ctx *base.StepContext, _ base.Parameters) (base.Decision, error) {
	if ctx == nil || ctx.Snapshot == nil {
		return base.NoOrders(), common.ErrNilArguments
	}
	var orders []order.Request
	for _, sym := range common.SortedKeys(ctx.Snapshot.Symbols) {
		if !ctx.Snapshot.HasDataAtTime(sym) {
			continue
		}
		latest, ok := s.latestRSI(ctx.Snapshot.Symbols[sym].Closes())
		if !ok {
			continue
		}
		held := ctx.Portfolio.Positions[sym]
		switch {
		case latest >= s.rsiHigh && held.IsPositive():
			orders = append(orders, order.Request{Symbol: sym, Side: common.Sell, Size: held, Type: common.Market})
		case latest <= s.rsiLow && held.IsZero():
			orders = append(orders, order.Request{Symbol: sym, Side: common.Buy, Size: s.size, Type: common.Market})
		}
	}
	return base.Place(orders...), nil
}

func (s *Strategy) latestRSI(closes []decimal.Decimal) (float64, bool) {
	if len(closes) <= s.rsiPeriod {
		return 0, false
	}
	values := make([]float64, len(closes))
	for i := range closes {
		values[i] = closes[i].InexactFloat64()
	}
	r := indicators.RSI(values, s.rsiPeriod)
	if len(r) == 0 {
		return 0, false
	}
	return r[len(r)-1], true
}

// SetCustomSettings allows a user to modify the RSI limits in their config
func (s *Strategy) SetCustomSettings(p base.Parameters) error {
	if err := p.CheckKeys(rsiPeriodKey, rsiLowKey, rsiHighKey, sizeKey); err != nil {
		return err
	}
	period, err := p.GetInt(rsiPeriodKey, s.rsiPeriod)
	if err != nil {
		return err
	}
	low, err := p.GetFloat(rsiLowKey, s.rsiLow)
	if err != nil {
		return err
	}
	high, err := p.GetFloat(rsiHighKey, s.rsiHigh)
	if err != nil {
		return err
	}
	size, err := p.GetDecimal(sizeKey, s.size)
	if err != nil {
		return err
	}
	switch {
	case period <= 0:
		return fmt.Errorf("%w provided %v value must be positive: %v", base.ErrInvalidCustomSettings, rsiPeriodKey, period)
	case low <= 0 || high <= 0 || low >= high || high > 100:
		return fmt.Errorf("%w %v %v and %v %v must satisfy 0 < low < high <= 100", base.ErrInvalidCustomSettings, rsiLowKey, low, rsiHighKey, high)
	case !size.IsPositive():
		return fmt.Errorf("%w provided %v value must be positive: %v", base.ErrInvalidCustomSettings, sizeKey, size)
	}
	s.rsiPeriod, s.rsiLow, s.rsiHigh, s.size = period, low, high, size
	return nil
}

// SetDefaults sets the custom settings to their default values
func (s *Strategy) SetDefaults() {
	s.rsiHigh = 70
	s.rsiLow = 30
	s.rsiPeriod = 14
	s.size = decimal.NewFromInt(1)
}
