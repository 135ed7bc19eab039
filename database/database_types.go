package database

import (
	"database/sql"
	"errors"
	"sync"
)

// Supported driver names
const (
	DBSQLite3    = "sqlite3"
	DBPostgreSQL = "postgres"
)

var (
	// ErrNoDatabaseProvided is returned when no dsn was configured
	ErrNoDatabaseProvided = errors.New("no database provided")
	// ErrDatabaseSupportDisabled is returned for an unsupported driver
	ErrDatabaseSupportDisabled = errors.New("database support disabled")

	errNilInstance = errors.New("database instance is nil")
	errNilSQL      = errors.New("database SQL connection is nil")
	errNilConfig   = errors.New("received nil config")

	errNotConnected    = errors.New("database not connected")
	errMigrationFailed = errors.New("schema migration failed")
)

// Config holds the connection details for a database
type Config struct {
	Driver string `json:"driver" toml:"driver"`
	DSN    string `json:"dsn" toml:"dsn"`
}

// Instance holds a connection and the driver it was opened with
type Instance struct {
	SQL       *sql.DB
	config    *Config
	connected bool
	m         sync.RWMutex
}
