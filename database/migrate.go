package database

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/thrasher-corp/goose"
)

// MigrationDir is where the schema migrations live in the source tree
const MigrationDir = "migrations"

//go:embed migrations/*.sql
var migrationFiles embed.FS

// goose keeps its dialect in package state
var migrateMu sync.Mutex

// Migrate applies every pending schema migration to the connected database
func (i *Instance) Migrate() error {
	if !i.IsConnected() {
		return errNotConnected
	}
	dir, err := os.MkdirTemp("", "backtester-migrations")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)
	if err = writeMigrations(dir); err != nil {
		return err
	}

	i.m.RLock()
	con := i.SQL
	i.m.RUnlock()

	migrateMu.Lock()
	defer migrateMu.Unlock()
	if err = goose.Run("up", con, i.Driver(), dir, ""); err != nil {
		return fmt.Errorf("%w: %w", errMigrationFailed, err)
	}
	return nil
}

// writeMigrations copies the embedded migrations to dir, goose reads them
// from disk
func writeMigrations(dir string) error {
	entries, err := fs.ReadDir(migrationFiles, MigrationDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		b, err := migrationFiles.ReadFile(MigrationDir + "/" + e.Name())
		if err != nil {
			return err
		}
		if err = os.WriteFile(filepath.Join(dir, e.Name()), b, 0o600); err != nil {
			return err
		}
	}
	return nil
}
