package data

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/quantreplay/backtester/common"
	"github.com/shopspring/decimal"
)

// NewSnapshotProvider returns a provider positioned before the first step
func NewSnapshotProvider(h Holder) (*SnapshotProvider, error) {
	if h == nil {
		return nil, common.ErrNilArguments
	}
	p := &SnapshotProvider{
		holder:  h,
		symbols: h.Symbols(),
		cursors: make(map[string]*cursor),
	}
	for i := range p.symbols {
		p.cursors[p.symbols[i]] = &cursor{}
	}
	return p, nil
}

// Snapshot advances every symbol's cursor to t and returns what is visible.
// Times must be requested in non-decreasing order
func (p *SnapshotProvider) Snapshot(t time.Time) (*Snapshot, error) {
	if p == nil {
		return nil, fmt.Errorf("%w SnapshotProvider", common.ErrNilPointer)
	}
	if p.started && t.Before(p.last) {
		return nil, fmt.Errorf("%w: %v before %v", errTimeWentBackwards, t, p.last)
	}
	if p.started && t.After(p.last) {
		p.offset++
	}
	p.started = true
	p.last = t

	snap := &Snapshot{
		Time:    t,
		Offset:  p.offset,
		Symbols: make(map[string]SymbolView, len(p.symbols)),
	}
	for _, sym := range p.symbols {
		s, err := p.holder.GetDataForSymbol(sym)
		if err != nil {
			return nil, err
		}
		c := p.cursors[sym]
		for c.candle < len(s.Candles) && !s.Candles[c.candle].Time.After(t) {
			c.candle++
		}
		for c.book < len(s.Books) && !s.Books[c.book].Time.After(t) {
			c.book++
		}
		for c.trade < len(s.Trades) && !s.Trades[c.trade].Time.After(t) {
			c.trade++
		}
		view := SymbolView{
			candles: s.Candles[:c.candle:c.candle],
			trades:  s.Trades[:c.trade:c.trade],
		}
		if c.book > 0 {
			view.book, view.hasBook = s.Books[c.book-1], true
		}
		snap.Symbols[sym] = view
	}
	return snap, nil
}

// NewSymbolView builds a view over copies of the given rows, rows must be
// in time order
func NewSymbolView(candles []Candle, book *BookTop, trades []Trade) SymbolView {
	v := SymbolView{
		candles: slices.Clone(candles),
		trades:  slices.Clone(trades),
	}
	if book != nil {
		v.book, v.hasBook = *book, true
	}
	return v
}

// Len returns the number of visible candles
func (v SymbolView) Len() int {
	return len(v.candles)
}

// Candle returns the visible candle at index i, oldest first
func (v SymbolView) Candle(i int) (Candle, bool) {
	if i < 0 || i >= len(v.candles) {
		return Candle{}, false
	}
	return v.candles[i], true
}

// Latest returns the most recent visible candle
func (v SymbolView) Latest() (Candle, bool) {
	return v.Candle(len(v.candles) - 1)
}

// History returns a copy of every visible candle
func (v SymbolView) History() []Candle {
	return slices.Clone(v.candles)
}

// Closes returns every visible close price in time order
func (v SymbolView) Closes() []decimal.Decimal {
	resp := make([]decimal.Decimal, len(v.candles))
	for i := range v.candles {
		resp[i] = v.candles[i].Close
	}
	return resp
}

// Book returns the latest book top at or before the step
func (v SymbolView) Book() (BookTop, bool) {
	return v.book, v.hasBook
}

// Trades returns a copy of every visible trade print
func (v SymbolView) Trades() []Trade {
	return slices.Clone(v.trades)
}

// LatestTrade returns the most recent visible trade print
func (v SymbolView) LatestTrade() (Trade, bool) {
	if len(v.trades) == 0 {
		return Trade{}, false
	}
	return v.trades[len(v.trades)-1], true
}

// Clone returns a snapshot with its own symbol map so that changes to the
// map are not seen by the holder of the original
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	resp := *s
	resp.Symbols = maps.Clone(s.Symbols)
	return &resp
}

// ClosePrice returns the last visible close for a symbol, the reference price
// for execution and marking
func (s *Snapshot) ClosePrice(symbol string) (decimal.Decimal, bool) {
	if s == nil {
		return decimal.Zero, false
	}
	c, ok := s.Symbols[symbol].Latest()
	if !ok {
		return decimal.Zero, false
	}
	return c.Close, true
}

// ClosePrices returns the last visible close of every symbol that has one
func (s *Snapshot) ClosePrices() map[string]decimal.Decimal {
	resp := make(map[string]decimal.Decimal)
	if s == nil {
		return resp
	}
	for sym, v := range s.Symbols {
		if c, ok := v.Latest(); ok {
			resp[sym] = c.Close
		}
	}
	return resp
}

// HasDataAtTime reports whether a symbol has a candle exactly at the
// snapshot time
func (s *Snapshot) HasDataAtTime(symbol string) bool {
	c, ok := s.Symbols[symbol].Latest()
	return ok && c.Time.Equal(s.Time)
}
