package script

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/quantreplay/backtester/common"
	"github.com/quantreplay/backtester/eventhandlers/strategies/base"
	"github.com/quantreplay/backtester/eventtypes/order"
	"github.com/quantreplay/backtester/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// modules scripts may import. os is left out so a script cannot touch the
// filesystem
var modules = []string{"math", "text", "times", "fmt", "json", "enum"}

// Name returns the name of the strategy
func (s *Strategy) Name() string {
	return Name
}

// Description provides a nice overview of the strategy
func (s *Strategy) Description() string {
	return description
}

// SetCustomSettings loads and compiles the script. Keys other than the
// script settings are passed through to the script as params
func (s *Strategy) SetCustomSettings(p base.Parameters) error {
	src, err := p.GetString(scriptKey, "")
	if err != nil {
		return err
	}
	file, err := p.GetString(fileKey, "")
	if err != nil {
		return err
	}
	switch {
	case src == "" && file == "":
		return fmt.Errorf("%w %w", base.ErrInvalidCustomSettings, errNoScript)
	case src != "" && file != "":
		return fmt.Errorf("%w %w", base.ErrInvalidCustomSettings, errScriptAndFile)
	}
	if p.Has(timeoutKey) {
		raw, err := p.GetString(timeoutKey, "")
		if err != nil {
			return err
		}
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%w %v: %w", base.ErrInvalidCustomSettings, timeoutKey, err)
		}
		if d <= 0 {
			return fmt.Errorf("%w %w", base.ErrInvalidCustomSettings, errNonPositiveTimeout)
		}
		s.timeout = d
	}
	s.file = file
	if file != "" {
		b, err := os.ReadFile(filepath.Clean(file))
		if err != nil {
			return Error{Action: "Load: Read", Script: file, Cause: err}
		}
		s.source = b
	} else {
		s.source = []byte(src)
	}
	return s.compile()
}

func (s *Strategy) compile() error {
	sc := tengo.NewScript(s.source)
	sc.SetImports(stdlib.GetModuleMap(modules...))
	for _, name := range inputs {
		if err := sc.Add(name, nil); err != nil {
			return Error{Action: "Compile", Script: s.file, Cause: err}
		}
	}
	for _, name := range outputs {
		if err := sc.Add(name, nil); err != nil {
			return Error{Action: "Compile", Script: s.file, Cause: err}
		}
	}
	compiled, err := sc.Compile()
	if err != nil {
		return Error{Action: "Compile", Script: s.file, Cause: err}
	}
	s.compiled = compiled
	log.Debugf(log.Strategy, "compiled strategy script %s", s.displayName())
	return nil
}

// OnStep runs the compiled script against the step and reads back its
// decision. close_all wins over orders. Order entries that cannot be read
// are passed on empty so validation drops them
func (s *Strategy) OnStep(ctx *base.StepContext, p base.Parameters) (base.Decision, error) {
	if ctx == nil || ctx.Snapshot == nil {
		return base.NoOrders(), common.ErrNilArguments
	}
	if s.compiled == nil {
		return base.NoOrders(), Error{Action: "Run", Script: s.file, Cause: errNotCompiled}
	}
	if err := s.setInputs(ctx, p); err != nil {
		return base.NoOrders(), Error{Action: "Run: Set", Script: s.file, Cause: err}
	}
	timeout := s.timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.compiled.RunContext(runCtx); err != nil {
		return base.NoOrders(), Error{Action: "Run", Script: s.file, Cause: err}
	}

	if s.compiled.Get("close_all").Bool() {
		return base.CloseAllPositions(), nil
	}
	v := s.compiled.Get("orders")
	if v.IsUndefined() {
		return base.NoOrders(), nil
	}
	raw := v.Array()
	orders := make([]order.Request, 0, len(raw))
	for i := range raw {
		orders = append(orders, toRequest(raw[i]))
	}
	return base.Place(orders...), nil
}

func (s *Strategy) setInputs(ctx *base.StepContext, p base.Parameters) error {
	positions := make(map[string]any, len(ctx.Portfolio.Positions))
	for sym, size := range ctx.Portfolio.Positions {
		positions[sym] = size.InexactFloat64()
	}
	prices := make(map[string]any, len(ctx.Snapshot.Symbols))
	closes := make(map[string]any, len(ctx.Snapshot.Symbols))
	for sym, view := range ctx.Snapshot.Symbols {
		c := view.Closes()
		history := make([]any, len(c))
		for i := range c {
			history[i] = c[i].InexactFloat64()
		}
		closes[sym] = history
		if len(c) > 0 {
			prices[sym] = c[len(c)-1].InexactFloat64()
		}
	}
	params := make(map[string]any, len(p))
	for k, v := range p {
		switch k {
		case scriptKey, fileKey, timeoutKey:
			continue
		}
		params[k] = scriptValue(v)
	}

	values := map[string]any{
		"time":      ctx.Time,
		"offset":    ctx.Offset,
		"cash":      ctx.Portfolio.Cash.InexactFloat64(),
		"positions": positions,
		"prices":    prices,
		"closes":    closes,
		"params":    params,
		"orders":    []any{},
		"close_all": false,
	}
	for _, name := range append(inputs, outputs...) {
		if err := s.compiled.Set(name, values[name]); err != nil {
			return err
		}
	}
	return nil
}

// scriptValue narrows a parameter to something tengo can hold
func scriptValue(v any) any {
	switch t := v.(type) {
	case nil, bool, string, int, int64, float64:
		return t
	case decimal.Decimal:
		return t.InexactFloat64()
	case []any:
		resp := make([]any, len(t))
		for i := range t {
			resp[i] = scriptValue(t[i])
		}
		return resp
	case map[string]any:
		resp := make(map[string]any, len(t))
		for k := range t {
			resp[k] = scriptValue(t[k])
		}
		return resp
	}
	if f, err := cast.ToFloat64E(v); err == nil {
		return f
	}
	return cast.ToString(v)
}

func toRequest(v any) order.Request {
	m, ok := v.(map[string]any)
	if !ok {
		return order.Request{}
	}
	req := order.Request{
		Symbol: cast.ToString(m["symbol"]),
		Side:   common.Side(strings.ToUpper(cast.ToString(m["side"]))),
		Type:   common.OrderType(strings.ToUpper(cast.ToString(m["type"]))),
	}
	req.Size = toDecimal(m["size"])
	req.Price = toDecimal(m["price"])
	return req
}

func toDecimal(v any) decimal.Decimal {
	if s, ok := v.(string); ok {
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func (s *Strategy) displayName() string {
	if s.file != "" {
		return filepath.Base(s.file)
	}
	return "(inline)"
}

// SetDefaults clears any loaded script
func (s *Strategy) SetDefaults() {
	s.source = nil
	s.file = ""
	s.timeout = DefaultTimeout
	s.compiled = nil
}
