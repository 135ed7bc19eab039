package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	// import sqlite3 and postgres drivers
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the configured database, applies the schema migrations
// and returns a ready Instance
func Open(ctx context.Context, cfg *Config) (*Instance, error) {
	if cfg == nil {
		return nil, errNilConfig
	}
	if cfg.DSN == "" {
		return nil, ErrNoDatabaseProvided
	}
	i := &Instance{}
	if err := i.SetConfig(cfg); err != nil {
		return nil, err
	}
	con, err := sql.Open(cfg.Driver, cfg.DSN)
	switch cfg.Driver {
	case DBSQLite3:
		if err != nil {
			return nil, err
		}
		if err := i.SetSQLiteConnection(ctx, con); err != nil {
			_ = con.Close()
			return nil, err
		}
	case DBPostgreSQL:
		if err != nil {
			return nil, err
		}
		if err := i.SetPostgresConnection(ctx, con); err != nil {
			_ = con.Close()
			return nil, err
		}
	default:
		if con != nil {
			_ = con.Close()
		}
		return nil, fmt.Errorf("%w: %q", ErrDatabaseSupportDisabled, cfg.Driver)
	}
	i.SetConnected(true)
	if err := i.Migrate(); err != nil {
		_ = i.CloseConnection()
		return nil, err
	}
	return i, nil
}

// SetConfig safely sets the instance's config
func (i *Instance) SetConfig(cfg *Config) error {
	if i == nil {
		return errNilInstance
	}
	if cfg == nil {
		return errNilConfig
	}
	i.m.Lock()
	i.config = cfg
	i.m.Unlock()
	return nil
}

// SetSQLiteConnection safely sets the connection to use SQLite
func (i *Instance) SetSQLiteConnection(ctx context.Context, con *sql.DB) error {
	if err := con.PingContext(ctx); err != nil {
		return err
	}
	i.m.Lock()
	defer i.m.Unlock()
	i.SQL = con
	i.SQL.SetMaxOpenConns(1)
	return nil
}

// SetPostgresConnection safely sets the connection to use Postgres
func (i *Instance) SetPostgresConnection(ctx context.Context, con *sql.DB) error {
	if err := con.PingContext(ctx); err != nil {
		return err
	}
	i.m.Lock()
	defer i.m.Unlock()
	i.SQL = con
	i.SQL.SetMaxOpenConns(2)
	i.SQL.SetMaxIdleConns(1)
	i.SQL.SetConnMaxLifetime(time.Hour)
	return nil
}

// SetConnected safely sets the connected status
func (i *Instance) SetConnected(v bool) {
	i.m.Lock()
	i.connected = v
	i.m.Unlock()
}

// CloseConnection safely disconnects the instance
func (i *Instance) CloseConnection() error {
	if i == nil {
		return errNilInstance
	}
	i.m.Lock()
	defer i.m.Unlock()
	if i.SQL == nil {
		return errNilSQL
	}
	i.connected = false
	return i.SQL.Close()
}

// IsConnected safely checks the SQL connection status
func (i *Instance) IsConnected() bool {
	if i == nil {
		return false
	}
	i.m.RLock()
	defer i.m.RUnlock()
	return i.connected
}

// Driver returns the configured driver name
func (i *Instance) Driver() string {
	i.m.RLock()
	defer i.m.RUnlock()
	if i.config == nil {
		return ""
	}
	return i.config.Driver
}

// Ping pings the database
func (i *Instance) Ping(ctx context.Context) error {
	if i == nil {
		return errNilInstance
	}
	i.m.RLock()
	defer i.m.RUnlock()
	if i.SQL == nil {
		return errNilSQL
	}
	return i.SQL.PingContext(ctx)
}

// Rebind converts ? placeholders into the positional form used by the
// instance's driver
func (i *Instance) Rebind(query string) string {
	if i.Driver() != DBPostgreSQL {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r != '?' {
			b.WriteRune(r)
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}
