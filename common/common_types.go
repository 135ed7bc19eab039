package common

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order or fill
type Side string

// OrderType is the kind of an order request
type OrderType string

const (
	// Buy increases the signed size of a position
	Buy Side = "BUY"
	// Sell decreases the signed size of a position
	Sell Side = "SELL"

	// Market orders fill at the step's reference price
	Market OrderType = "MARKET"
	// Limit orders are accepted but execute as Market at the reference price
	Limit OrderType = "LIMIT"
)

var (
	// Epsilon is the smallest absolute position size retained by the ledger
	Epsilon = decimal.New(1, -8)

	// ErrNilArguments is a common error response to highlight that nils were passed in
	// when they should not have been
	ErrNilArguments = errors.New("received nil argument(s)")
	// ErrNilEvent is a common error for whenever a nil event occurs when it shouldn't have
	ErrNilEvent = errors.New("nil event received")
	// ErrNilPointer is returned when a method is called on a nil receiver
	ErrNilPointer = errors.New("nil pointer")
)

// ASCIILogo is printed by the CLI when verbose
const ASCIILogo = `
    ____             __   __            __
   / __ )____ ______/ /__/ /____  _____/ /____  _____
  / __  / __ '/ ___/ //_/ __/ _ \/ ___/ __/ _ \/ ___/
 / /_/ / /_/ / /__/ ,< / /_/  __(__  ) /_/  __/ /
/_____/\__,_/\___/_/|_|\__/\___/____/\__/\___/_/
`
