package kline

import (
	"github.com/quantreplay/backtester/data"
	"github.com/quantreplay/backtester/eventtypes/event"
)

// New creates a market event from a candle
func New(offset int64, symbol string, c *data.Candle) *Kline {
	return &Kline{
		Base: event.Base{
			Offset: offset,
			Time:   c.Time,
			Symbol: symbol,
		},
		Open:   c.Open,
		High:   c.High,
		Low:    c.Low,
		Close:  c.Close,
		Volume: c.Volume,
	}
}

// GetKind returns event.Market
func (k *Kline) GetKind() event.Kind {
	return event.Market
}
