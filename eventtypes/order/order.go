package order

import (
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/quantreplay/backtester/common"
	"github.com/quantreplay/backtester/eventtypes/event"
	"github.com/shopspring/decimal"
)

// Validate returns the first problem that prevents a request from executing
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Symbol) == "" {
		return ErrEmptySymbol
	}
	if !r.Side.IsValid() {
		return fmt.Errorf("%w, received '%v'", ErrInvalidSide, r.Side)
	}
	if !r.Size.IsPositive() {
		return fmt.Errorf("%w, received %v", ErrInvalidSize, r.Size)
	}
	switch r.Type {
	case "", common.Market, common.Limit:
	default:
		return fmt.Errorf("%w, received '%v'", ErrInvalidType, r.Type)
	}
	return nil
}

// New creates an order event from a valid request. The ID is derived from
// the run, step and position in the batch so identical runs produce
// identical IDs
func New(runID uuid.UUID, offset int64, index int, b event.Base, r Request) *Order {
	if r.Type == "" {
		r.Type = common.Market
	}
	b.Offset = offset
	b.Symbol = r.Symbol
	return &Order{
		Base:    b,
		ID:      uuid.NewV5(runID, fmt.Sprintf("%d/%d/%s", offset, index, r.Symbol)).String(),
		Request: r,
	}
}

// GetKind returns event.Order
func (o *Order) GetKind() event.Kind {
	return event.Order
}

// Notional returns size multiplied by a price
func (r *Request) Notional(price decimal.Decimal) decimal.Decimal {
	return r.Size.Mul(price)
}
