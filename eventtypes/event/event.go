package event

import (
	"time"
)

// GetOffset returns the step offset the event was raised at
func (b *Base) GetOffset() int64 {
	return b.Offset
}

// GetTime returns the step time
func (b *Base) GetTime() time.Time {
	return b.Time
}

// GetSymbol returns the symbol the event relates to
func (b *Base) GetSymbol() string {
	return b.Symbol
}

// GetReason returns the accumulated reasons for the event
func (b *Base) GetReason() string {
	return b.Reason
}

// AppendReason adds reasoning for the event, separated from any previous reasons
func (b *Base) AppendReason(y string) {
	if y == "" {
		return
	}
	if b.Reason == "" {
		b.Reason = y
		return
	}
	b.Reason += ". " + y
}

func (b *Base) sealed() {}

// String implements fmt.Stringer
func (k Kind) String() string {
	switch k {
	case Market:
		return "MARKET"
	case Signal:
		return "SIGNAL"
	case Order:
		return "ORDER"
	case Fill:
		return "FILL"
	default:
		return "UNKNOWN"
	}
}
