package eventholder

import (
	"github.com/quantreplay/backtester/eventtypes/event"
)

// Holder is the append-only journal of every event raised during a run
type Holder struct {
	events []event.Event
	counts map[event.Kind]int64
}

// EventHolder interface details what is expected of an event holder to perform
type EventHolder interface {
	AppendEvent(event.Event) error
	Events() []event.Event
	Count(event.Kind) int64
}
