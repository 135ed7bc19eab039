package signal

import (
	"github.com/quantreplay/backtester/eventtypes/event"
)

// Signal records what a strategy decided at a step
type Signal struct {
	event.Base
	Strategy   string `json:"strategy"`
	Action     string `json:"action"`
	OrderCount int    `json:"order-count"`
	Faulted    bool   `json:"faulted,omitempty"`
}
