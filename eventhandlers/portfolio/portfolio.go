package portfolio

import (
	"fmt"
	"time"

	"github.com/quantreplay/backtester/common"
	"github.com/quantreplay/backtester/eventtypes/fill"
	"github.com/shopspring/decimal"
)

// New returns a portfolio holding only cash
func New(initialCapital decimal.Decimal) (*Portfolio, error) {
	if initialCapital.IsNegative() {
		return nil, fmt.Errorf("%w: %v", errNegativeCapital, initialCapital)
	}
	return &Portfolio{
		initialCapital: initialCapital,
		cash:           initialCapital,
		positions:      make(map[string]*Position),
	}, nil
}

// ApplyFill updates the position and cash for an executed fill and records
// the trade
func (p *Portfolio) ApplyFill(f *fill.Fill) error {
	if f == nil {
		return common.ErrNilEvent
	}
	if !f.Side.IsValid() || !f.Amount.IsPositive() {
		return fmt.Errorf("%w: side %v amount %v", errInvalidFill, f.Side, f.Amount)
	}
	p.UpdatePosition(f.GetSymbol(), f.SignedAmount(), f.PurchasePrice, f.GetTime())
	p.cash = p.cash.Add(f.CashDelta())
	p.RecordTrade(f)
	return nil
}

// UpdatePosition merges a signed size change into the position table.
// Extending a position re-blends the average price weighted by size.
// Reducing or reversing keeps the existing average price. A position whose
// size falls below common.Epsilon is removed
func (p *Portfolio) UpdatePosition(symbol string, size, price decimal.Decimal, t time.Time) {
	pos, ok := p.positions[symbol]
	if !ok {
		if common.IsDust(size) {
			return
		}
		p.positions[symbol] = &Position{
			Symbol:       symbol,
			Size:         size,
			AveragePrice: price,
			LastUpdated:  t,
		}
		return
	}
	newSize := pos.Size.Add(size)
	if common.IsDust(newSize) {
		delete(p.positions, symbol)
		return
	}
	if pos.Size.Sign()*size.Sign() > 0 {
		pos.AveragePrice = pos.AveragePrice.Mul(pos.Size.Abs()).
			Add(price.Mul(size.Abs())).
			Div(newSize.Abs())
	}
	pos.Size = newSize
	pos.LastUpdated = t
}

// RecordTrade appends a fill to the trade ledger
func (p *Portfolio) RecordTrade(f *fill.Fill) {
	p.trades = append(p.trades, Trade{
		Time:       f.GetTime(),
		Symbol:     f.GetSymbol(),
		Side:       f.Side,
		Size:       f.Amount.Abs(),
		Price:      f.PurchasePrice,
		Commission: f.Commission,
		Value:      f.Amount.Abs().Mul(f.PurchasePrice),
	})
}

// MarkToMarket returns cash plus every position valued at its price. A held
// symbol missing from prices contributes nothing
func (p *Portfolio) MarkToMarket(prices map[string]decimal.Decimal) decimal.Decimal {
	equity := p.cash
	for sym, pos := range p.positions {
		px, ok := prices[sym]
		if !ok {
			continue
		}
		equity = equity.Add(pos.Size.Mul(px))
	}
	return equity
}

// RecordEquity appends an equity sample
func (p *Portfolio) RecordEquity(t time.Time, value decimal.Decimal) {
	p.equityCurve = append(p.equityCurve, EquitySample{Time: t, Value: value})
}

// InitialCapital returns the capital the portfolio started with
func (p *Portfolio) InitialCapital() decimal.Decimal {
	return p.initialCapital
}

// Cash returns the current cash balance
func (p *Portfolio) Cash() decimal.Decimal {
	return p.cash
}

// Position returns a copy of the position for a symbol
func (p *Portfolio) Position(symbol string) (Position, bool) {
	pos, ok := p.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// PositionSize returns the signed size held in a symbol, zero when flat
func (p *Portfolio) PositionSize(symbol string) decimal.Decimal {
	if pos, ok := p.positions[symbol]; ok {
		return pos.Size
	}
	return decimal.Zero
}

// Positions returns copies of every open position ordered by symbol
func (p *Portfolio) Positions() []Position {
	keys := common.SortedKeys(p.positions)
	resp := make([]Position, len(keys))
	for i := range keys {
		resp[i] = *p.positions[keys[i]]
	}
	return resp
}

// PositionSizes returns symbol to signed size for every open position
func (p *Portfolio) PositionSizes() map[string]decimal.Decimal {
	resp := make(map[string]decimal.Decimal, len(p.positions))
	for sym, pos := range p.positions {
		resp[sym] = pos.Size
	}
	return resp
}

// View returns the cash and position sizes a strategy is allowed to see
func (p *Portfolio) View() View {
	return View{Cash: p.cash, Positions: p.PositionSizes()}
}

// EquityCurve returns a copy of the equity samples
func (p *Portfolio) EquityCurve() []EquitySample {
	return append([]EquitySample(nil), p.equityCurve...)
}

// Trades returns a copy of the trade ledger
func (p *Portfolio) Trades() []Trade {
	return append([]Trade(nil), p.trades...)
}
