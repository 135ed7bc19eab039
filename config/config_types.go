package config

import (
	"errors"
	"time"

	"github.com/quantreplay/backtester/database"
	"github.com/shopspring/decimal"
)

// Environment variables applied over a loaded config
const (
	envPrefix         = "BACKTESTER_"
	envCapital        = envPrefix + "INITIAL_CAPITAL"
	envCommission     = envPrefix + "COMMISSION_RATE"
	envSlippageModel  = envPrefix + "SLIPPAGE_MODEL"
	envSlippageBPS    = envPrefix + "SLIPPAGE_BPS"
	envVerbose        = envPrefix + "VERBOSE"
	envDatabaseDriver = envPrefix + "DATABASE_DRIVER"
	envDatabaseDSN    = envPrefix + "DATABASE_DSN"
	envJournalDriver  = envPrefix + "JOURNAL_DRIVER"
	envJournalDSN     = envPrefix + "JOURNAL_DSN"
	envArchiveBucket  = envPrefix + "ARCHIVE_BUCKET"
	envLogLevel       = envPrefix + "LOG_LEVEL"

	// DefaultProgressInterval is how many steps pass between progress lines
	DefaultProgressInterval = 1000
)

var (
	errNilConfig             = errors.New("nil config")
	errNegativeCapital       = errors.New("initial capital cannot be negative")
	errNegativeCommission    = errors.New("commission rate cannot be negative")
	errNegativeSlippage      = errors.New("slippage bps cannot be negative")
	errNegativeRisk          = errors.New("risk limits cannot be negative")
	errEmptySymbol           = errors.New("data source has an empty symbol")
	errEmptyPath             = errors.New("data source has an empty path")
	errDuplicateSymbol       = errors.New("symbol configured by more than one data source")
	errStartEndUnset         = errors.New("database data start and end dates must both be set")
	errBadDate               = errors.New("start date must be before end date")
	errNoDatabaseSymbols     = errors.New("database data requires at least one symbol")
	errUnsupportedFormat     = errors.New("unsupported config file format")
	errNegativeProgress      = errors.New("progress interval cannot be negative")
	errInvalidPeriodsPerYear = errors.New("periods per year cannot be negative")
	errArchiveBucketUnset    = errors.New("archive settings require a bucket")
)

// Config defines a single backtest run. It is passed by value to the engine,
// nothing reads it from package state
type Config struct {
	Nickname          string            `json:"nickname" toml:"nickname"`
	Goal              string            `json:"goal,omitempty" toml:"goal"`
	StrategySettings  StrategySettings  `json:"strategy-settings" toml:"strategy-settings"`
	PortfolioSettings PortfolioSettings `json:"portfolio-settings" toml:"portfolio-settings"`
	RiskSettings      RiskSettings      `json:"risk-settings" toml:"risk-settings"`
	DataSettings      DataSettings      `json:"data-settings" toml:"data-settings"`
	StatisticSettings StatisticSettings `json:"statistic-settings" toml:"statistic-settings"`
	OutputSettings    OutputSettings    `json:"output-settings" toml:"output-settings"`
	Logging           Logging           `json:"logging" toml:"logging"`
}

// StrategySettings names the strategy and its free form parameters
type StrategySettings struct {
	Name           string         `json:"name" toml:"name"`
	CustomSettings map[string]any `json:"custom-settings,omitempty" toml:"custom-settings"`
}

// PortfolioSettings holds starting cash and trading costs
type PortfolioSettings struct {
	InitialCapital decimal.Decimal `json:"initial-capital" toml:"initial-capital"`
	CommissionRate decimal.Decimal `json:"commission-rate" toml:"commission-rate"`
	SlippageModel  string          `json:"slippage-model" toml:"slippage-model"`
	SlippageBPS    decimal.Decimal `json:"slippage-bps" toml:"slippage-bps"`
}

// RiskSettings holds position and order limits, only checked when
// EnforceLimits is set
type RiskSettings struct {
	EnforceLimits          bool                       `json:"enforce-limits" toml:"enforce-limits"`
	MaxPositionSize        map[string]decimal.Decimal `json:"max-position-size,omitempty" toml:"max-position-size"`
	DefaultMaxPositionSize decimal.Decimal            `json:"default-max-position-size" toml:"default-max-position-size"`
	MaxOrderNotional       decimal.Decimal            `json:"max-order-notional" toml:"max-order-notional"`
}

// DataSettings lists where market data comes from. Sources may be combined
// as long as each symbol appears once
type DataSettings struct {
	CSVData      *CSVData      `json:"csv-data,omitempty" toml:"csv-data"`
	JSONData     *JSONData     `json:"json-data,omitempty" toml:"json-data"`
	DatabaseData *DatabaseData `json:"database-data,omitempty" toml:"database-data"`
}

// CSVData maps symbols to csv files
type CSVData struct {
	Paths      map[string]string `json:"paths" toml:"paths"`
	BookPaths  map[string]string `json:"book-paths,omitempty" toml:"book-paths"`
	TradePaths map[string]string `json:"trade-paths,omitempty" toml:"trade-paths"`
}

// JSONData maps symbols to json candle files
type JSONData struct {
	Paths map[string]string `json:"paths" toml:"paths"`
}

// DatabaseData loads candles for symbols from a sql database
type DatabaseData struct {
	Config    database.Config `json:"config" toml:"config"`
	Symbols   []string        `json:"symbols" toml:"symbols"`
	StartDate time.Time       `json:"start-date" toml:"start-date"`
	EndDate   time.Time       `json:"end-date" toml:"end-date"`
}

// StatisticSettings tunes the result statistics
type StatisticSettings struct {
	PeriodsPerYear float64 `json:"periods-per-year" toml:"periods-per-year"`
	RiskFreeRate   float64 `json:"risk-free-rate" toml:"risk-free-rate"`
}

// OutputSettings controls progress reporting and where results go
type OutputSettings struct {
	Verbose          bool             `json:"verbose" toml:"verbose"`
	ProgressInterval int              `json:"progress-interval" toml:"progress-interval"`
	ResultsPath      string           `json:"results-path,omitempty" toml:"results-path"`
	JournalDatabase  *database.Config `json:"journal-database,omitempty" toml:"journal-database"`
	Archive          *ArchiveSettings `json:"archive,omitempty" toml:"archive"`
}

// ArchiveSettings is the S3 location result bundles are uploaded to
type ArchiveSettings struct {
	Bucket   string `json:"bucket" toml:"bucket"`
	Prefix   string `json:"prefix,omitempty" toml:"prefix"`
	Region   string `json:"region,omitempty" toml:"region"`
	Endpoint string `json:"endpoint,omitempty" toml:"endpoint"`
}

// Logging is the subset of logger settings exposed in a run config
type Logging struct {
	Enabled           *bool  `json:"enabled,omitempty" toml:"enabled"`
	Level             string `json:"level,omitempty" toml:"level"`
	Output            string `json:"output,omitempty" toml:"output"`
	FileName          string `json:"file-name,omitempty" toml:"file-name"`
	MaxSizeMB         int    `json:"max-size-mb,omitempty" toml:"max-size-mb"`
	MaxBackups        int    `json:"max-backups,omitempty" toml:"max-backups"`
	ShowLogSystemName bool   `json:"show-log-system-name,omitempty" toml:"show-log-system-name"`
}
