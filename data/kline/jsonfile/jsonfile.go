package jsonfile

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/buger/jsonparser"
	"github.com/quantreplay/backtester/common"
	"github.com/quantreplay/backtester/data"
	"github.com/quantreplay/backtester/log"
	"github.com/shopspring/decimal"
)

var (
	errMissingField = errors.New("missing field")
	errNoCandles    = errors.New("no candles array")
)

// LoadData reads a json document of the form
//
//	{"symbol": "BTC-USD", "candles": [...], "books": [...], "trades": [...]}
//
// Numbers may be json numbers or strings. A symbol in the document is
// overridden by a non-empty symbol argument
func LoadData(symbol, path string) (*data.Series, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(symbol, b)
}

// Parse converts a json document into a series
func Parse(symbol string, b []byte) (*data.Series, error) {
	resp := &data.Series{Symbol: symbol}
	if resp.Symbol == "" {
		s, err := jsonparser.GetString(b, "symbol")
		if err != nil && !errors.Is(err, jsonparser.KeyPathNotFoundError) {
			return nil, err
		}
		resp.Symbol = s
	}
	if _, typ, _, err := jsonparser.Get(b, "candles"); err != nil || typ != jsonparser.Array {
		return nil, fmt.Errorf("%w for %v", errNoCandles, resp.Symbol)
	}

	var parseErr error
	_, err := jsonparser.ArrayEach(b, func(v []byte, _ jsonparser.ValueType, _ int, _ error) {
		if parseErr != nil {
			return
		}
		var c data.Candle
		c.Time, parseErr = getTime(v)
		if parseErr != nil {
			return
		}
		var d []decimal.Decimal
		d, parseErr = getDecimals(v, "open", "high", "low", "close", "volume")
		if parseErr != nil {
			return
		}
		c.Open, c.High, c.Low, c.Close, c.Volume = d[0], d[1], d[2], d[3], d[4]
		resp.Candles = append(resp.Candles, c)
	}, "candles")
	if err = firstErr(parseErr, err); err != nil {
		return nil, fmt.Errorf("candles: %w", err)
	}

	_, err = jsonparser.ArrayEach(b, func(v []byte, _ jsonparser.ValueType, _ int, _ error) {
		if parseErr != nil {
			return
		}
		var bt data.BookTop
		bt.Time, parseErr = getTime(v)
		if parseErr != nil {
			return
		}
		var d []decimal.Decimal
		d, parseErr = getDecimals(v, "bid-price", "bid-size", "ask-price", "ask-size")
		if parseErr != nil {
			return
		}
		bt.BidPrice, bt.BidSize, bt.AskPrice, bt.AskSize = d[0], d[1], d[2], d[3]
		resp.Books = append(resp.Books, bt)
	}, "books")
	if err = optional(firstErr(parseErr, err)); err != nil {
		return nil, fmt.Errorf("books: %w", err)
	}

	_, err = jsonparser.ArrayEach(b, func(v []byte, _ jsonparser.ValueType, _ int, _ error) {
		if parseErr != nil {
			return
		}
		var tr data.Trade
		tr.Time, parseErr = getTime(v)
		if parseErr != nil {
			return
		}
		var d []decimal.Decimal
		d, parseErr = getDecimals(v, "price", "size")
		if parseErr != nil {
			return
		}
		tr.Price, tr.Size = d[0], d[1]
		if side, sideErr := jsonparser.GetString(v, "side"); sideErr == nil && side != "" {
			tr.Side, parseErr = common.ParseSide(side)
			if parseErr != nil {
				return
			}
		}
		resp.Trades = append(resp.Trades, tr)
	}, "trades")
	if err = optional(firstErr(parseErr, err)); err != nil {
		return nil, fmt.Errorf("trades: %w", err)
	}
	log.Debugf(log.Data, "loaded %d candles, %d books, %d trades for %v from json", len(resp.Candles), len(resp.Books), len(resp.Trades), resp.Symbol)
	return resp, nil
}

func firstErr(errs ...error) error {
	for i := range errs {
		if errs[i] != nil {
			return errs[i]
		}
	}
	return nil
}

// optional ignores a missing array
func optional(err error) error {
	if errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return nil
	}
	return err
}

func getTime(v []byte) (t time.Time, err error) {
	raw, typ, _, err := jsonparser.Get(v, "time")
	if err != nil || typ == jsonparser.NotExist {
		return t, fmt.Errorf("%w 'time'", errMissingField)
	}
	return data.ParseTime(string(raw))
}

func getDecimals(v []byte, keys ...string) ([]decimal.Decimal, error) {
	resp := make([]decimal.Decimal, len(keys))
	for i := range keys {
		raw, typ, _, err := jsonparser.Get(v, keys[i])
		if err != nil || (typ != jsonparser.String && typ != jsonparser.Number) {
			return nil, fmt.Errorf("%w '%v'", errMissingField, keys[i])
		}
		resp[i], err = decimal.NewFromString(string(raw))
		if err != nil {
			return nil, fmt.Errorf("'%v': %w", keys[i], err)
		}
	}
	return resp, nil
}
