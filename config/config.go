package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/quantreplay/backtester/database"
	"github.com/quantreplay/backtester/eventhandlers/strategies/base"
	"github.com/quantreplay/backtester/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"go.uber.org/multierr"
)

// ReadConfigFromFile will take a config from a path. The format is chosen by
// file extension, .json or .toml
func ReadConfigFromFile(path string) (*Config, error) {
	fileData, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadConfig(fileData)
	case ".toml":
		return LoadTOMLConfig(fileData)
	default:
		return nil, fmt.Errorf("%w: %v", errUnsupportedFormat, filepath.Ext(path))
	}
}

// LoadConfig unmarshalls json byte data into a config struct
func LoadConfig(data []byte) (*Config, error) {
	resp := new(Config)
	if err := json.Unmarshal(data, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// LoadTOMLConfig decodes toml byte data into a config struct
func LoadTOMLConfig(data []byte) (*Config, error) {
	resp := new(Config)
	if _, err := toml.Decode(string(data), resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ApplyEnvOverrides loads envFile when set, or a .env in the working
// directory when present, then applies BACKTESTER_* variables over the
// config
func (c *Config) ApplyEnvOverrides(envFile string) error {
	if c == nil {
		return errNilConfig
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return err
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	var errs error
	errs = multierr.Append(errs, setDecimal(&c.PortfolioSettings.InitialCapital, envCapital))
	errs = multierr.Append(errs, setDecimal(&c.PortfolioSettings.CommissionRate, envCommission))
	setString(&c.PortfolioSettings.SlippageModel, envSlippageModel)
	errs = multierr.Append(errs, setDecimal(&c.PortfolioSettings.SlippageBPS, envSlippageBPS))
	errs = multierr.Append(errs, setBool(&c.OutputSettings.Verbose, envVerbose))
	setString(&c.Logging.Level, envLogLevel)

	if v := os.Getenv(envDatabaseDSN); v != "" && c.DataSettings.DatabaseData != nil {
		c.DataSettings.DatabaseData.Config.DSN = v
	}
	if v := os.Getenv(envDatabaseDriver); v != "" && c.DataSettings.DatabaseData != nil {
		c.DataSettings.DatabaseData.Config.Driver = v
	}
	if v := os.Getenv(envJournalDSN); v != "" {
		if c.OutputSettings.JournalDatabase == nil {
			c.OutputSettings.JournalDatabase = &database.Config{Driver: database.DBSQLite3}
		}
		c.OutputSettings.JournalDatabase.DSN = v
	}
	if v := os.Getenv(envJournalDriver); v != "" && c.OutputSettings.JournalDatabase != nil {
		c.OutputSettings.JournalDatabase.Driver = v
	}
	if v := os.Getenv(envArchiveBucket); v != "" {
		if c.OutputSettings.Archive == nil {
			c.OutputSettings.Archive = &ArchiveSettings{}
		}
		c.OutputSettings.Archive.Bucket = v
	}
	return errs
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDecimal(dst *decimal.Decimal, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%v: %w", key, err)
	}
	*dst = d
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := cast.ToBoolE(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%v: %w", key, err)
	}
	*dst = b
	return nil
}

// Validate checks all config settings and returns every problem found
func (c *Config) Validate() error {
	if c == nil {
		return errNilConfig
	}
	return multierr.Combine(
		c.validatePortfolioSettings(),
		c.validateRiskSettings(),
		c.validateDataSettings(),
		c.validateOutputSettings(),
	)
}

func (c *Config) validatePortfolioSettings() (errs error) {
	if c.PortfolioSettings.InitialCapital.IsNegative() {
		errs = multierr.Append(errs, fmt.Errorf("%w: %v", errNegativeCapital, c.PortfolioSettings.InitialCapital))
	}
	if c.PortfolioSettings.CommissionRate.IsNegative() {
		errs = multierr.Append(errs, fmt.Errorf("%w: %v", errNegativeCommission, c.PortfolioSettings.CommissionRate))
	}
	if c.PortfolioSettings.SlippageBPS.IsNegative() {
		errs = multierr.Append(errs, fmt.Errorf("%w: %v", errNegativeSlippage, c.PortfolioSettings.SlippageBPS))
	}
	if c.StatisticSettings.PeriodsPerYear < 0 {
		errs = multierr.Append(errs, errInvalidPeriodsPerYear)
	}
	return errs
}

func (c *Config) validateRiskSettings() (errs error) {
	r := c.RiskSettings
	if r.DefaultMaxPositionSize.IsNegative() {
		errs = multierr.Append(errs, fmt.Errorf("%w default-max-position-size %v", errNegativeRisk, r.DefaultMaxPositionSize))
	}
	if r.MaxOrderNotional.IsNegative() {
		errs = multierr.Append(errs, fmt.Errorf("%w max-order-notional %v", errNegativeRisk, r.MaxOrderNotional))
	}
	for sym, v := range r.MaxPositionSize {
		if v.IsNegative() {
			errs = multierr.Append(errs, fmt.Errorf("%w max-position-size %v %v", errNegativeRisk, sym, v))
		}
	}
	return errs
}

func (c *Config) validateDataSettings() (errs error) {
	seen := make(map[string]string)
	claim := func(source, sym string) {
		if strings.TrimSpace(sym) == "" {
			errs = multierr.Append(errs, fmt.Errorf("%w in %v", errEmptySymbol, source))
			return
		}
		if prev, ok := seen[sym]; ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: %v in %v and %v", errDuplicateSymbol, sym, prev, source))
			return
		}
		seen[sym] = source
	}
	checkPaths := func(source string, paths map[string]string, register bool) {
		for sym, p := range paths {
			if register {
				claim(source, sym)
			}
			if strings.TrimSpace(p) == "" {
				errs = multierr.Append(errs, fmt.Errorf("%w for %v in %v", errEmptyPath, sym, source))
			}
		}
	}
	if csv := c.DataSettings.CSVData; csv != nil {
		checkPaths("csv-data", csv.Paths, true)
		checkPaths("csv-data book-paths", csv.BookPaths, false)
		checkPaths("csv-data trade-paths", csv.TradePaths, false)
	}
	if j := c.DataSettings.JSONData; j != nil {
		checkPaths("json-data", j.Paths, true)
	}
	if db := c.DataSettings.DatabaseData; db != nil {
		if len(db.Symbols) == 0 {
			errs = multierr.Append(errs, errNoDatabaseSymbols)
		}
		for i := range db.Symbols {
			claim("database-data", db.Symbols[i])
		}
		if db.StartDate.IsZero() != db.EndDate.IsZero() {
			errs = multierr.Append(errs, errStartEndUnset)
		}
		if !db.StartDate.IsZero() && !db.EndDate.IsZero() && !db.StartDate.Before(db.EndDate) {
			errs = multierr.Append(errs, fmt.Errorf("%w: %v to %v", errBadDate, db.StartDate, db.EndDate))
		}
		if db.Config.DSN == "" {
			errs = multierr.Append(errs, fmt.Errorf("database-data: %w", database.ErrNoDatabaseProvided))
		}
	}
	return errs
}

func (c *Config) validateOutputSettings() (errs error) {
	if c.OutputSettings.ProgressInterval < 0 {
		errs = multierr.Append(errs, errNegativeProgress)
	}
	if c.OutputSettings.JournalDatabase != nil && c.OutputSettings.JournalDatabase.DSN == "" {
		errs = multierr.Append(errs, fmt.Errorf("journal-database: %w", database.ErrNoDatabaseProvided))
	}
	if c.OutputSettings.Archive != nil && c.OutputSettings.Archive.Bucket == "" {
		errs = multierr.Append(errs, errArchiveBucketUnset)
	}
	return errs
}

// StrategyParameters returns a copy of the strategy custom settings
func (c *Config) StrategyParameters() base.Parameters {
	resp := make(base.Parameters, len(c.StrategySettings.CustomSettings))
	for k, v := range c.StrategySettings.CustomSettings {
		resp[k] = v
	}
	return resp
}

// GetProgressInterval returns how many steps pass between progress lines
func (c *Config) GetProgressInterval() int {
	if c.OutputSettings.ProgressInterval <= 0 {
		return DefaultProgressInterval
	}
	return c.OutputSettings.ProgressInterval
}

// LoggerConfig converts the run's logging settings into a logger config,
// starting from the logger defaults
func (c *Config) LoggerConfig() *log.Config {
	resp := log.GenDefaultSettings()
	l := c.Logging
	if l.Enabled != nil {
		enabled := *l.Enabled
		resp.Enabled = &enabled
	}
	if l.Level != "" {
		resp.Level = l.Level
	} else if !c.OutputSettings.Verbose {
		resp.Level = "INFO|WARN|ERROR"
	}
	if l.Output != "" {
		resp.Output = l.Output
	}
	if l.FileName != "" {
		resp.LoggerFileConfig.FileName = l.FileName
	}
	if l.MaxSizeMB > 0 {
		resp.LoggerFileConfig.MaxSize = l.MaxSizeMB
	}
	if l.MaxBackups > 0 {
		resp.LoggerFileConfig.MaxBackups = l.MaxBackups
	}
	show := l.ShowLogSystemName
	resp.AdvancedSettings.ShowLogSystemName = &show
	return resp
}

// GenerateExampleConfig returns a config with working defaults for a single
// csv symbol
func GenerateExampleConfig() *Config {
	return &Config{
		Nickname: "example",
		Goal:     "buy 0.1 BTC-USD at the first candle and hold",
		StrategySettings: StrategySettings{
			Name:           "buyandhold",
			CustomSettings: map[string]any{"size": "0.1"},
		},
		PortfolioSettings: PortfolioSettings{
			InitialCapital: decimal.NewFromInt(10000),
			CommissionRate: decimal.RequireFromString("0.001"),
			SlippageModel:  "linear",
			SlippageBPS:    decimal.NewFromInt(10),
		},
		DataSettings: DataSettings{
			CSVData: &CSVData{Paths: map[string]string{"BTC-USD": filepath.Join("testdata", "btc-usd.csv")}},
		},
		StatisticSettings: StatisticSettings{PeriodsPerYear: 252},
		OutputSettings: OutputSettings{
			Verbose:          true,
			ProgressInterval: DefaultProgressInterval,
		},
		Logging: Logging{Level: "INFO|WARN|ERROR", Output: "console"},
	}
}

// WriteExampleConfig writes the example config to path in the format its
// extension names
func WriteExampleConfig(path string) error {
	cfg := GenerateExampleConfig()
	var b []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		var err error
		b, err = json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
	case ".toml":
		var sb strings.Builder
		if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
			return err
		}
		b = []byte(sb.String())
	default:
		return fmt.Errorf("%w: %v", errUnsupportedFormat, filepath.Ext(path))
	}
	return os.WriteFile(filepath.Clean(path), b, 0o600)
}
