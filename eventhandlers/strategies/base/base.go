package base

import (
	"fmt"
	"strings"

	"github.com/quantreplay/backtester/eventtypes/order"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// NoOrders is the decision to do nothing this step
func NoOrders() Decision {
	return Decision{Action: NoAction}
}

// CloseAllPositions is the decision to flatten every open position
func CloseAllPositions() Decision {
	return Decision{Action: CloseAll}
}

// Place is the decision to submit orders. No orders is NoAction
func Place(orders ...order.Request) Decision {
	if len(orders) == 0 {
		return NoOrders()
	}
	return Decision{Action: PlaceOrders, Orders: orders}
}

// String implements fmt.Stringer
func (a Action) String() string {
	switch a {
	case NoAction:
		return "NO_ACTION"
	case CloseAll:
		return "CLOSE_ALL"
	case PlaceOrders:
		return "PLACE_ORDERS"
	default:
		return "UNKNOWN"
	}
}

// Has reports whether a key is set
func (p Parameters) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Keys returns the parameter names
func (p Parameters) Keys() []string {
	resp := make([]string, 0, len(p))
	for k := range p {
		resp = append(resp, k)
	}
	return resp
}

// Merge returns a copy of p with overrides applied on top
func (p Parameters) Merge(overrides Parameters) Parameters {
	resp := make(Parameters, len(p)+len(overrides))
	for k, v := range p {
		resp[k] = v
	}
	for k, v := range overrides {
		resp[k] = v
	}
	return resp
}

// GetFloat returns a parameter as a float64 or def when unset
func (p Parameters) GetFloat(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("%w %v: %w", ErrInvalidCustomSettings, key, err)
	}
	return f, nil
}

// GetInt returns a parameter as an int or def when unset
func (p Parameters) GetInt(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("%w %v: %w", ErrInvalidCustomSettings, key, err)
	}
	return i, nil
}

// GetString returns a parameter as a string or def when unset
func (p Parameters) GetString(key, def string) (string, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("%w %v: %w", ErrInvalidCustomSettings, key, err)
	}
	return s, nil
}

// GetBool returns a parameter as a bool or def when unset
func (p Parameters) GetBool(key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("%w %v: %w", ErrInvalidCustomSettings, key, err)
	}
	return b, nil
}

// GetDecimal returns a parameter as a decimal or def when unset. Strings are
// parsed exactly
func (p Parameters) GetDecimal(key string, def decimal.Decimal) (decimal.Decimal, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	switch t := v.(type) {
	case decimal.Decimal:
		return t, nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w %v: %w", ErrInvalidCustomSettings, key, err)
		}
		return d, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w %v: %w", ErrInvalidCustomSettings, key, err)
	}
	return decimal.NewFromFloat(f), nil
}

// GetStringSlice returns a parameter as a list of strings or nil when unset
func (p Parameters) GetStringSlice(key string) ([]string, error) {
	v, ok := p[key]
	if !ok {
		return nil, nil
	}
	if s, isString := v.(string); isString {
		parts := strings.Split(s, ",")
		resp := make([]string, 0, len(parts))
		for i := range parts {
			if x := strings.TrimSpace(parts[i]); x != "" {
				resp = append(resp, x)
			}
		}
		return resp, nil
	}
	resp, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("%w %v: %w", ErrInvalidCustomSettings, key, err)
	}
	return resp, nil
}

// CheckKeys returns an error naming the first key not in allowed
func (p Parameters) CheckKeys(allowed ...string) error {
	for k := range p {
		found := false
		for i := range allowed {
			if k == allowed[i] {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w unrecognised custom setting key %v with value %v. Cannot apply", ErrInvalidCustomSettings, k, p[k])
		}
	}
	return nil
}
