package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quantreplay/backtester/data"
	gctdb "github.com/quantreplay/backtester/database"
	"github.com/quantreplay/backtester/log"
	"github.com/shopspring/decimal"
)

var errNoConnection = errors.New("database not connected")

// InsertCandles stores a series' candles, used to seed a database from files
func InsertCandles(ctx context.Context, db *gctdb.Instance, s *data.Series) error {
	if !db.IsConnected() {
		return errNoConnection
	}
	tx, err := db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	q := db.Rebind("INSERT INTO candle (symbol, timestamp, open, high, low, close, volume) VALUES (?, ?, ?, ?, ?, ?, ?)")
	for i := range s.Candles {
		c := &s.Candles[i]
		_, err = tx.ExecContext(ctx, q, s.Symbol, c.Time.Unix(), c.Open.String(), c.High.String(), c.Low.String(), c.Close.String(), c.Volume.String())
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Errorln(log.Data, rbErr)
			}
			return err
		}
	}
	return tx.Commit()
}

// LoadData returns the candles for a symbol between start and end inclusive.
// A zero start or end leaves that side of the range open
func LoadData(ctx context.Context, db *gctdb.Instance, symbol string, start, end time.Time) (*data.Series, error) {
	if !db.IsConnected() {
		return nil, errNoConnection
	}
	lo, hi := int64(-1<<62), int64(1<<62)
	if !start.IsZero() {
		lo = start.Unix()
	}
	if !end.IsZero() {
		hi = end.Unix()
	}
	rows, err := db.SQL.QueryContext(ctx,
		db.Rebind("SELECT timestamp, open, high, low, close, volume FROM candle WHERE symbol = ? AND timestamp >= ? AND timestamp <= ? ORDER BY timestamp"),
		symbol, lo, hi)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Errorln(log.Data, closeErr)
		}
	}()

	resp := &data.Series{Symbol: symbol}
	for rows.Next() {
		var ts int64
		var o, h, l, c, v string
		if err := rows.Scan(&ts, &o, &h, &l, &c, &v); err != nil {
			return nil, err
		}
		candle := data.Candle{Time: time.Unix(ts, 0).UTC()}
		for _, pair := range []struct {
			dst *decimal.Decimal
			src string
		}{{&candle.Open, o}, {&candle.High, h}, {&candle.Low, l}, {&candle.Close, c}, {&candle.Volume, v}} {
			*pair.dst, err = decimal.NewFromString(pair.src)
			if err != nil {
				return nil, fmt.Errorf("%v at %v: %w", symbol, candle.Time, err)
			}
		}
		resp.Candles = append(resp.Candles, candle)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	log.Debugf(log.Data, "loaded %d candles for %v from %v", len(resp.Candles), symbol, db.Driver())
	return resp, nil
}
