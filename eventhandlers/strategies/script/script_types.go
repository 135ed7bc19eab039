package script

import (
	"errors"
	"time"

	"github.com/d5/tengo/v2"
)

const (
	// Name is the strategy name
	Name        = "script"
	scriptKey   = "script"
	fileKey     = "script-file"
	timeoutKey  = "timeout"
	description = `Runs a tengo script once per step. The script reads time, offset, cash, positions, prices, closes and params and assigns orders or close_all`

	// DefaultTimeout bounds a single script execution
	DefaultTimeout = time.Second
	strategyScript = "strategy script"
)

var (
	errNoScript           = errors.New("script or script-file must be set")
	errScriptAndFile      = errors.New("only one of script or script-file may be set")
	errNotCompiled        = errors.New("script has not been compiled")
	errNonPositiveTimeout = errors.New("timeout must be positive")
)

// inputs are the globals a script may read, outputs the globals it may assign
var (
	inputs  = []string{"time", "offset", "cash", "positions", "prices", "closes", "params"}
	outputs = []string{"orders", "close_all"}
)

// Strategy is an implementation of the Handler interface backed by a
// compiled tengo script
type Strategy struct {
	source   []byte
	file     string
	timeout  time.Duration
	compiled *tengo.Compiled
}

// Error wraps a script failure with the stage it happened in
type Error struct {
	Action string
	Script string
	Cause  error
}
