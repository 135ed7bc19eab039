package signal

import (
	"github.com/quantreplay/backtester/eventtypes/event"
)

// GetKind returns event.Signal
func (s *Signal) GetKind() event.Kind {
	return event.Signal
}

// IsFaulted reports whether the strategy failed at this step
func (s *Signal) IsFaulted() bool {
	return s.Faulted
}
