package dollarcostaverage

import (
	"fmt"

	"github.com/quantreplay/backtester/common"
	"github.com/quantreplay/backtester/eventhandlers/strategies/base"
	"github.com/quantreplay/backtester/eventtypes/order"
	"github.com/shopspring/decimal"
)

const (
	// Name is the strategy name
	Name        = "dollarcostaverage"
	sizeKey     = "size"
	everyKey    = "every"
	description = `Dollar-cost averaging (DCA) is an investment strategy in which an investor divides up the total amount to be invested across periodic purchases of a target asset in an effort to reduce the impact of volatility on the overall purchase. The purchases occur regardless of the asset's price and at regular intervals`
)

// Strategy is an implementation of the Handler interface
type Strategy struct {
	size  decimal.Decimal
	every int64
}

// Name returns the name of the strategy
func (s *Strategy) Name() string {
	return Name
}

// Description provides a nice overview of the strategy
func (s *Strategy) Description() string {
	return description
}

// OnStep buys size of every symbol with a candle at this step, once every
// configured number of steps
func (s *Strategy) OnStep(ctx *base.StepContext, _ base.Parameters) (base.Decision, error) {
	if ctx == nil || ctx.Snapshot == nil {
		return base.NoOrders(), common.ErrNilArguments
	}
	if s.every > 1 && ctx.Offset%s.every != 0 {
		return base.NoOrders(), nil
	}
	var orders []order.Request
	for _, sym := range common.SortedKeys(ctx.Snapshot.Symbols) {
		if !ctx.Snapshot.HasDataAtTime(sym) {
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

// SetCustomSettings allows a user to set the order size and step interval
func (s *Strategy) SetCustomSettings(p base.Parameters) error {
	if err := p.CheckKeys(sizeKey, everyKey); err != nil {
		return err
	}
	size, err := p.GetDecimal(sizeKey, s.size)
	if err != nil {
		return err
	}
	if !size.IsPositive() {
		return fmt.Errorf("%w %v must be positive, received %v", base.ErrInvalidCustomSettings, sizeKey, size)
	}
	every, err := p.GetInt(everyKey, int(s.every))
	if err != nil {
		return err
	}
	if every <= 0 {
		return fmt.Errorf("%w %v must be positive, received %v", base.ErrInvalidCustomSettings, everyKey, every)
	}
	s.size = size
	s.every = int64(every)
	return nil
}

// SetDefaults sets the custom settings to their default values
func (s *Strategy) SetDefaults() {
	s.size = decimal.NewFromInt(1)
	s.every = 1
}
