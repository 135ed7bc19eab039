package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quantreplay/backtester/common"
	"github.com/quantreplay/backtester/engine"
	"github.com/quantreplay/backtester/log"
)

// New collects a finished run's metadata and results
func New(bt *engine.BackTest) (*Data, error) {
	if bt == nil {
		return nil, fmt.Errorf("%w BackTest", common.ErrNilPointer)
	}
	res, err := bt.Results()
	if err != nil {
		return nil, err
	}
	return &Data{MetaData: bt.MetaData, Results: res}, nil
}

// Summary renders the headline numbers of a run as plain text
func (d *Data) Summary() (string, error) {
	if d == nil || d.Results == nil {
		return "", errNoResults
	}
	r := d.Results
	var sharpe, drawdown, winRate, totalReturn float64
	if s := r.Statistics; s != nil {
		sharpe = s.SharpeRatio
		drawdown = s.MaxDrawdown
		winRate = s.WinRate
		totalReturn = s.TotalReturn
	}
	var sb strings.Builder
	sb.WriteString("=== Backtest Results ===\n")
	if d.MetaData.Strategy != "" {
		fmt.Fprintf(&sb, "Strategy: %v\n", d.MetaData.Strategy)
	}
	fmt.Fprintf(&sb, "Initial Capital: %v\n", r.InitialCapital.StringFixed(2))
	fmt.Fprintf(&sb, "Final Equity: %v\n", r.FinalEquity.StringFixed(2))
	fmt.Fprintf(&sb, "Total Return: %.2f%%\n", totalReturn*100)
	fmt.Fprintf(&sb, "Sharpe Ratio: %.2f\n", sharpe)
	fmt.Fprintf(&sb, "Max Drawdown: %.2f%%\n", drawdown*100)
	fmt.Fprintf(&sb, "Win Rate: %.2f%%\n", winRate*100)
	fmt.Fprintf(&sb, "Number of Trades: %d\n", len(r.Trades))
	sb.WriteString(strings.Repeat("=", 24))
	return sb.String(), nil
}

// JSON returns the indented results bundle
func (d *Data) JSON() ([]byte, error) {
	if d == nil || d.Results == nil {
		return nil, errNoResults
	}
	return json.MarshalIndent(d, "", " ")
}

// FileName is the name the results bundle is written under
func (d *Data) FileName() string {
	name := d.MetaData.Strategy
	if name == "" {
		name = "backtest"
	}
	return fmt.Sprintf("%v-%v.json", strings.ToLower(name), d.MetaData.ID)
}

// WriteResults writes the JSON bundle into dir and returns its path
func (d *Data) WriteResults(dir string) (string, error) {
	if dir == "" {
		return "", errNoOutputDir
	}
	b, err := d.JSON()
	if err != nil {
		return "", err
	}
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, d.FileName())
	if err = os.WriteFile(path, b, resultsFileMode); err != nil {
		return "", err
	}
	log.Infof(log.Report, "results written to %v", path)
	return path, nil
}
