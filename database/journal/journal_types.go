package journal

import (
	"errors"
	"time"

	"github.com/gofrs/uuid"
	"github.com/quantreplay/backtester/database"
	"github.com/shopspring/decimal"
)

var (
	errNoConnection = errors.New("journal database not connected")
	errNilResults   = errors.New("nil run results")
	errRunNotFound  = errors.New("run not found in journal")
)

// Store persists completed runs
type Store struct {
	db *database.Instance
}

// Run is a stored run's headline record
type Run struct {
	ID             uuid.UUID
	Strategy       string
	Nickname       string
	DateStarted    time.Time
	DateEnded      time.Time
	Steps          int
	InitialCapital decimal.Decimal
	FinalEquity    decimal.Decimal
	// Statistics is the run's statistics as JSON
	Statistics string
}
