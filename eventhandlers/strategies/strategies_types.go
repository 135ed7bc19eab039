package strategies

import (
	"github.com/quantreplay/backtester/eventhandlers/strategies/base"
)

// Handler is the capability a trading strategy implements. OnStep is called
// once per step, synchronously, with the visible market data and the
// portfolio's cash and positions
type Handler interface {
	Name() string
	Description() string
	OnStep(*base.StepContext, base.Parameters) (base.Decision, error)
	SetCustomSettings(base.Parameters) error
	SetDefaults()
}

// Func adapts a plain function into a Handler
type Func struct {
	name string
	fn   func(*base.StepContext, base.Parameters) (base.Decision, error)
}
