package engine

import (
	"context"
	"fmt"

	"github.com/quantreplay/backtester/common"
	"github.com/quantreplay/backtester/config"
	"github.com/quantreplay/backtester/data"
	"github.com/quantreplay/backtester/data/kline/csv"
	dbkline "github.com/quantreplay/backtester/data/kline/database"
	"github.com/quantreplay/backtester/data/kline/jsonfile"
	"github.com/quantreplay/backtester/database"
	"github.com/quantreplay/backtester/eventhandlers/strategies"
	"github.com/quantreplay/backtester/log"
)

// NewFromConfig loads the configured data and strategy and returns a
// BackTest ready to run
func NewFromConfig(ctx context.Context, cfg *config.Config) (*BackTest, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w config", common.ErrNilArguments)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.StrategySettings.Name == "" {
		return nil, errNoStrategyName
	}
	strategy, err := strategies.LoadStrategyByName(cfg.StrategySettings.Name)
	if err != nil {
		return nil, err
	}
	holder, err := LoadData(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(cfg, holder, strategy)
}

// LoadData reads every configured data source into a single holder
func LoadData(ctx context.Context, cfg *config.Config) (*data.HandlerPerSymbol, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w config", common.ErrNilArguments)
	}
	ds := cfg.DataSettings
	if ds.CSVData == nil && ds.JSONData == nil && ds.DatabaseData == nil {
		return nil, errNoDataSource
	}
	holder := &data.HandlerPerSymbol{}
	holder.Setup()

	if ds.CSVData != nil {
		for _, sym := range common.SortedKeys(ds.CSVData.Paths) {
			s, err := csv.LoadData(sym, csv.Paths{
				Candles: ds.CSVData.Paths[sym],
				Books:   ds.CSVData.BookPaths[sym],
				Trades:  ds.CSVData.TradePaths[sym],
			})
			if err != nil {
				return nil, fmt.Errorf("csv data %v: %w", sym, err)
			}
			if err = holder.SetDataForSymbol(s); err != nil {
				return nil, err
			}
		}
	}
	if ds.JSONData != nil {
		for _, sym := range common.SortedKeys(ds.JSONData.Paths) {
			s, err := jsonfile.LoadData(sym, ds.JSONData.Paths[sym])
			if err != nil {
				return nil, fmt.Errorf("json data %v: %w", sym, err)
			}
			if err = holder.SetDataForSymbol(s); err != nil {
				return nil, err
			}
		}
	}
	if ds.DatabaseData != nil {
		if err := loadDatabaseData(ctx, ds.DatabaseData, holder); err != nil {
			return nil, err
		}
	}
	log.Infof(log.Data, "loaded %v symbols", len(holder.Symbols()))
	return holder, nil
}

func loadDatabaseData(ctx context.Context, cfg *config.DatabaseData, holder *data.HandlerPerSymbol) (err error) {
	db, err := database.Open(ctx, &cfg.Config)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.CloseConnection(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	for _, sym := range cfg.Symbols {
		s, err := dbkline.LoadData(ctx, db, sym, cfg.StartDate, cfg.EndDate)
		if err != nil {
			return fmt.Errorf("database data %v: %w", sym, err)
		}
		if err = holder.SetDataForSymbol(s); err != nil {
			return err
		}
	}
	return nil
}
