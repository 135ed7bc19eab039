package eventholder

import (
	"github.com/quantreplay/backtester/common"
	"github.com/quantreplay/backtester/eventtypes/event"
)

// AppendEvent adds an event to the end of the journal
func (h *Holder) AppendEvent(e event.Event) error {
	if e == nil {
		return common.ErrNilEvent
	}
	if h.counts == nil {
		h.counts = make(map[event.Kind]int64)
	}
	h.events = append(h.events, e)
	h.counts[e.GetKind()]++
	return nil
}

// Events returns every journalled event in the order it was raised
func (h *Holder) Events() []event.Event {
	return h.events[:len(h.events):len(h.events)]
}

// EventsOfKind returns the journalled events of a single kind
func (h *Holder) EventsOfKind(k event.Kind) []event.Event {
	var resp []event.Event
	for i := range h.events {
		if h.events[i].GetKind() == k {
			resp = append(resp, h.events[i])
		}
	}
	return resp
}

// Count returns how many events of a kind were journalled
func (h *Holder) Count(k event.Kind) int64 {
	return h.counts[k]
}

// Counts returns a copy of the per kind totals keyed by kind name
func (h *Holder) Counts() map[string]int64 {
	resp := make(map[string]int64, len(h.counts))
	for k, v := range h.counts {
		resp[k.String()] = v
	}
	return resp
}
