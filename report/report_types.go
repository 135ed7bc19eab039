package report

import (
	"errors"

	"github.com/quantreplay/backtester/engine"
)

var (
	errNoResults   = errors.New("no results to report")
	errNoOutputDir = errors.New("no output directory provided")
)

const resultsFileMode = 0o644

// Data is everything written out for a completed run
type Data struct {
	MetaData engine.RunMetaData `json:"metadata"`
	Results  *engine.Results    `json:"results"`
}
