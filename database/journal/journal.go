// Package journal stores completed backtest runs, their trades and equity
// curves in a SQL database
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/quantreplay/backtester/common"
	"github.com/quantreplay/backtester/database"
	"github.com/quantreplay/backtester/engine"
	"github.com/quantreplay/backtester/eventhandlers/portfolio"
	"github.com/quantreplay/backtester/log"
	"github.com/shopspring/decimal"
)

// Open connects to the journal database, migrating it to the current schema
func Open(ctx context.Context, cfg *database.Config) (*Store, error) {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s, err := New(db)
	if err != nil {
		if closeErr := db.CloseConnection(); closeErr != nil {
			log.Errorln(log.Journal, closeErr)
		}
		return nil, err
	}
	return s, nil
}

// New wraps a connection opened with database.Open
func New(db *database.Instance) (*Store, error) {
	if !db.IsConnected() {
		return nil, errNoConnection
	}
	return &Store{db: db}, nil
}

// Close disconnects the store
func (s *Store) Close() error {
	return s.db.CloseConnection()
}

// SaveRun writes a completed run in a single transaction
func (s *Store) SaveRun(ctx context.Context, meta *engine.RunMetaData, res *engine.Results) (err error) {
	if s == nil || !s.db.IsConnected() {
		return errNoConnection
	}
	if meta == nil {
		return fmt.Errorf("%w run metadata", common.ErrNilArguments)
	}
	if res == nil {
		return errNilResults
	}
	stats, err := json.Marshal(res.Statistics)
	if err != nil {
		return err
	}

	tx, err := s.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginTx %w", err)
	}
	defer func() {
		if err != nil {
			if errRB := tx.Rollback(); errRB != nil {
				log.Errorf(log.Journal, "SaveRun tx.Rollback %v", errRB)
			}
		}
	}()

	_, err = tx.ExecContext(ctx, s.db.Rebind(`INSERT INTO backtest_run
		(id, strategy, nickname, date_started, date_ended, steps, initial_capital, final_equity, statistics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		meta.ID.String(), meta.Strategy, meta.Nickname,
		meta.DateStarted.UnixMilli(), meta.DateEnded.UnixMilli(), res.Diagnostics.Steps,
		res.InitialCapital.String(), res.FinalEquity.String(), string(stats))
	if err != nil {
		return err
	}
	if err = insertTrades(ctx, tx, s.db.Rebind, meta.ID, res.Trades); err != nil {
		return err
	}
	if err = insertEquity(ctx, tx, s.db.Rebind, meta.ID, res.EquityCurve); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	log.Debugf(log.Journal, "saved run %v with %v trades and %v equity samples", meta.ID, len(res.Trades), len(res.EquityCurve))
	return nil
}

func insertTrades(ctx context.Context, tx *sql.Tx, rebind func(string) string, id uuid.UUID, trades []portfolio.Trade) error {
	q := rebind(`INSERT INTO backtest_trade
		(run_id, seq, timestamp, symbol, side, size, price, commission, value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for i := range trades {
		t := &trades[i]
		_, err := tx.ExecContext(ctx, q, id.String(), i, t.Time.UnixMilli(), t.Symbol, string(t.Side),
			t.Size.String(), t.Price.String(), t.Commission.String(), t.Value.String())
		if err != nil {
			return fmt.Errorf("insert trade %v: %w", i, err)
		}
	}
	return nil
}

func insertEquity(ctx context.Context, tx *sql.Tx, rebind func(string) string, id uuid.UUID, curve []portfolio.EquitySample) error {
	q := rebind(`INSERT INTO backtest_equity (run_id, seq, timestamp, value) VALUES (?, ?, ?, ?)`)
	for i := range curve {
		_, err := tx.ExecContext(ctx, q, id.String(), i, curve[i].Time.UnixMilli(), curve[i].Value.String())
		if err != nil {
			return fmt.Errorf("insert equity sample %v: %w", i, err)
		}
	}
	return nil
}

// Runs returns every stored run, most recent first
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	if s == nil || !s.db.IsConnected() {
		return nil, errNoConnection
	}
	rows, err := s.db.SQL.QueryContext(ctx, `SELECT id, strategy, nickname, date_started, date_ended, steps, initial_capital, final_equity, statistics
		FROM backtest_run ORDER BY date_started DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var resp []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		resp = append(resp, r)
	}
	return resp, rows.Err()
}

// GetRun returns a stored run by ID
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	if s == nil || !s.db.IsConnected() {
		return nil, errNoConnection
	}
	row := s.db.SQL.QueryRowContext(ctx, s.db.Rebind(`SELECT id, strategy, nickname, date_started, date_ended, steps, initial_capital, final_equity, statistics
		FROM backtest_run WHERE id = ?`), id.String())
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%v %w", id, errRunNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Trades returns a stored run's trades in execution order
func (s *Store) Trades(ctx context.Context, id uuid.UUID) ([]portfolio.Trade, error) {
	if s == nil || !s.db.IsConnected() {
		return nil, errNoConnection
	}
	rows, err := s.db.SQL.QueryContext(ctx, s.db.Rebind(`SELECT timestamp, symbol, side, size, price, commission, value
		FROM backtest_trade WHERE run_id = ? ORDER BY seq`), id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var resp []portfolio.Trade
	for rows.Next() {
		var (
			ts                                   int64
			side, size, price, commission, value string
			t                                    portfolio.Trade
		)
		if err = rows.Scan(&ts, &t.Symbol, &side, &size, &price, &commission, &value); err != nil {
			return nil, err
		}
		t.Time = time.UnixMilli(ts).UTC()
		if t.Side, err = common.ParseSide(side); err != nil {
			return nil, err
		}
		d, err := parseDecimals(size, price, commission, value)
		if err != nil {
			return nil, err
		}
		t.Size, t.Price, t.Commission, t.Value = d[0], d[1], d[2], d[3]
		resp = append(resp, t)
	}
	return resp, rows.Err()
}

// EquityCurve returns a stored run's equity samples in step order
func (s *Store) EquityCurve(ctx context.Context, id uuid.UUID) ([]portfolio.EquitySample, error) {
	if s == nil || !s.db.IsConnected() {
		return nil, errNoConnection
	}
	rows, err := s.db.SQL.QueryContext(ctx, s.db.Rebind(`SELECT timestamp, value FROM backtest_equity WHERE run_id = ? ORDER BY seq`), id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var resp []portfolio.EquitySample
	for rows.Next() {
		var ts int64
		var v string
		if err = rows.Scan(&ts, &v); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, err
		}
		resp = append(resp, portfolio.EquitySample{Time: time.UnixMilli(ts).UTC(), Value: d})
	}
	return resp, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r                  Run
		id, initial, final string
		started, ended     int64
	)
	if err := sc.Scan(&id, &r.Strategy, &r.Nickname, &started, &ended, &r.Steps, &initial, &final, &r.Statistics); err != nil {
		return r, err
	}
	var err error
	if r.ID, err = uuid.FromString(id); err != nil {
		return r, err
	}
	r.DateStarted = time.UnixMilli(started).UTC()
	r.DateEnded = time.UnixMilli(ended).UTC()
	d, err := parseDecimals(initial, final)
	if err != nil {
		return r, err
	}
	r.InitialCapital, r.FinalEquity = d[0], d[1]
	return r, nil
}

func parseDecimals(values ...string) ([]decimal.Decimal, error) {
	resp := make([]decimal.Decimal, len(values))
	for i := range values {
		var err error
		if resp[i], err = decimal.NewFromString(values[i]); err != nil {
			return nil, err
		}
	}
	return resp, nil
}
