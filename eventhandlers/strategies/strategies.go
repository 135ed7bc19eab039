package strategies

import (
	"fmt"
	"strings"

	"github.com/quantreplay/backtester/eventhandlers/strategies/base"
	"github.com/quantreplay/backtester/eventhandlers/strategies/buyandhold"
	"github.com/quantreplay/backtester/eventhandlers/strategies/dollarcostaverage"
	"github.com/quantreplay/backtester/eventhandlers/strategies/rsi"
	"github.com/quantreplay/backtester/eventhandlers/strategies/script"
)

// LoadStrategyByName returns a fresh instance of the named strategy with
// defaults applied
func LoadStrategyByName(name string) (Handler, error) {
	strats := GetStrategies()
	for i := range strats {
		if !strings.EqualFold(name, strats[i].Name()) {
			continue
		}
		strats[i].SetDefaults()
		return strats[i], nil
	}
	return nil, fmt.Errorf("strategy '%v' %w", name, base.ErrStrategyNotFound)
}

// GetStrategies returns new instances of every built in strategy
func GetStrategies() []Handler {
	return []Handler{
		new(buyandhold.Strategy),
		new(dollarcostaverage.Strategy),
		new(rsi.Strategy),
		new(script.Strategy),
	}
}

// NewFunc wraps fn as a named strategy
func NewFunc(name string, fn func(*base.StepContext, base.Parameters) (base.Decision, error)) *Func {
	return &Func{name: name, fn: fn}
}

// Name returns the name of the strategy
func (f *Func) Name() string {
	return f.name
}

// Description provides a nice overview of the strategy
func (f *Func) Description() string {
	return "user supplied strategy function"
}

// OnStep calls the wrapped function
func (f *Func) OnStep(ctx *base.StepContext, p base.Parameters) (base.Decision, error) {
	if f.fn == nil {
		return base.NoOrders(), nil
	}
	return f.fn(ctx, p)
}

// SetCustomSettings accepts anything, parameters are passed to every call
func (f *Func) SetCustomSettings(base.Parameters) error {
	return nil
}

// SetDefaults is a no-op for a function strategy
func (f *Func) SetDefaults() {}
