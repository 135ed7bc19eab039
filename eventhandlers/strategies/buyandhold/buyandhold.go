package buyandhold

import (
	"fmt"

	"github.com/quantreplay/backtester/common"
	"github.com/quantreplay/backtester/eventhandlers/strategies/base"
	"github.com/quantreplay/backtester/eventtypes/order"
	"github.com/shopspring/decimal"
)

const (
	// Name is the strategy name
	Name        = "buyandhold"
	sizeKey     = "size"
	symbolsKey  = "symbols"
	description = `Buys a fixed size of every symbol the first time it has a price and holds it until the end of the run`
)

// Strategy is an implementation of the Handler interface
type Strategy struct {
	size    decimal.Decimal
	symbols []string
	bought  map[string]bool
}

// Name returns the name of the strategy
func (s *Strategy) Name() string {
	return Name
}

// Description provides a nice overview of the strategy
func (s *Strategy) Description() string {
	return description
}

// OnStep buys any symbol that has a price and has not yet been bought
func (s *Strategy) OnStep(ctx *base.StepContext, _ base.Parameters) (base.Decision, error) {
	if ctx == nil || ctx.Snapshot == nil {
		return base.NoOrders(), common.ErrNilArguments
	}
	if s.bought == nil {
		s.bought = make(map[string]bool)
	}
	symbols := s.symbols
	if len(symbols) == 0 {
		symbols = common.SortedKeys(ctx.Snapshot.Symbols)
	}
	var orders []order.Request
	for _, sym := range symbols {
		if s.bought[sym] {
			continue
		}
		if _, ok := ctx.Snapshot.ClosePrice(sym); !ok {
			continue
		}
		s.bought[sym] = true
		if !ctx.Portfolio.Positions[sym].IsZero() {
			continue
		}
		orders = append(orders, order.Request{
			Symbol: sym,
			Side:   common.Buy,
			Size:   s.size,
			Type:   common.Market,
		})
	}
	return base.Place(orders...), nil
}

// SetCustomSettings allows a user to set the order size and symbol list
func (s *Strategy) SetCustomSettings(p base.Parameters) error {
	if err := p.CheckKeys(sizeKey, symbolsKey); err != nil {
		return err
	}
	size, err := p.GetDecimal(sizeKey, s.size)
	if err != nil {
		return err
	}
	if !size.IsPositive() {
		return fmt.Errorf("%w %v must be positive, received %v", base.ErrInvalidCustomSettings, sizeKey, size)
	}
	s.size = size
	s.symbols, err = p.GetStringSlice(symbolsKey)
	return err
}

// SetDefaults sets the custom settings to their default values
func (s *Strategy) SetDefaults() {
	s.size = decimal.NewFromInt(1)
	s.symbols = nil
	s.bought = nil
}
