package data

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quantreplay/backtester/common"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// Setup creates a basic map
func (h *HandlerPerSymbol) Setup() {
	if h.data == nil {
		h.data = make(map[string]*Series)
	}
}

// SetDataForSymbol validates a series, sorts it by time and stores it
func (h *HandlerPerSymbol) SetDataForSymbol(s *Series) error {
	if s == nil {
		return common.ErrNilArguments
	}
	h.Setup()
	s.Symbol = strings.TrimSpace(s.Symbol)
	if s.Symbol == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSeries, errEmptySymbol)
	}
	if _, ok := h.data[s.Symbol]; ok {
		return fmt.Errorf("%w: %s", errDuplicateSymbol, s.Symbol)
	}
	s.SortStream()
	if err := s.Validate(); err != nil {
		return err
	}
	h.data[s.Symbol] = s
	return nil
}

// GetDataForSymbol returns the series for a symbol
func (h *HandlerPerSymbol) GetDataForSymbol(symbol string) (*Series, error) {
	s, ok := h.data[symbol]
	if !ok {
		return nil, fmt.Errorf("%w for %v", ErrHandlerNotFound, symbol)
	}
	return s, nil
}

// GetAllData returns all set data in the data map
func (h *HandlerPerSymbol) GetAllData() map[string]*Series {
	return h.data
}

// Symbols returns every loaded symbol in ascending order
func (h *HandlerPerSymbol) Symbols() []string {
	return common.SortedKeys(h.data)
}

// SortStream sorts candles, books and trades by time. Sorting is stable so
// rows sharing a timestamp keep their load order
func (s *Series) SortStream() {
	sort.SliceStable(s.Candles, func(i, j int) bool {
		return s.Candles[i].Time.Before(s.Candles[j].Time)
	})
	sort.SliceStable(s.Books, func(i, j int) bool {
		return s.Books[i].Time.Before(s.Books[j].Time)
	})
	sort.SliceStable(s.Trades, func(i, j int) bool {
		return s.Trades[i].Time.Before(s.Trades[j].Time)
	})
}

// Validate checks a sorted series for malformed rows. Every problem found
// is returned, not just the first
func (s *Series) Validate() error {
	var errs error
	for i := range s.Candles {
		c := &s.Candles[i]
		if c.Time.IsZero() {
			errs = multierr.Append(errs, fmt.Errorf("%w: %w: %v candle %d", ErrInvalidSeries, errZeroTime, s.Symbol, i))
		}
		if anyNegative(c.Open, c.High, c.Low, c.Close, c.Volume) {
			errs = multierr.Append(errs, fmt.Errorf("%w: %w: %v candle at %v", ErrInvalidSeries, errNegativeValue, s.Symbol, c.Time))
		}
		if i > 0 && c.Time.Equal(s.Candles[i-1].Time) {
			errs = multierr.Append(errs, fmt.Errorf("%w: %w: %v at %v", ErrInvalidSeries, errDuplicateTime, s.Symbol, c.Time))
		}
	}
	for i := range s.Books {
		b := &s.Books[i]
		if anyNegative(b.BidPrice, b.BidSize, b.AskPrice, b.AskSize) {
			errs = multierr.Append(errs, fmt.Errorf("%w: %w: %v book at %v", ErrInvalidSeries, errNegativeValue, s.Symbol, b.Time))
		}
	}
	for i := range s.Trades {
		if anyNegative(s.Trades[i].Price, s.Trades[i].Size) {
			errs = multierr.Append(errs, fmt.Errorf("%w: %w: %v trade at %v", ErrInvalidSeries, errNegativeValue, s.Symbol, s.Trades[i].Time))
		}
	}
	return errs
}

func anyNegative(values ...decimal.Decimal) bool {
	for i := range values {
		if values[i].IsNegative() {
			return true
		}
	}
	return false
}
