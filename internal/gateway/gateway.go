// Package gateway defines the trading-venue surface the engine drives and
// the tag scheme that ties venue state back to originating signals.
package gateway

import (
	"context"
	"time"

	"github.com/efabiofm/tetrasire/internal/parse"
	"github.com/efabiofm/tetrasire/internal/risk"
)

// TagPrefix reserves the comment namespace so engine tags cannot collide
// with user-supplied text on the venue.
const TagPrefix = "signal:"

// Tag returns the comment attached to every order and position placed on
// behalf of a signal. Lookups compare this value exactly, never by prefix.
func Tag(signalID string) string { return TagPrefix + signalID }

// Result reports the venue's verdict on a mutating call. A transport
// failure is an error from the call itself; a broker rejection is OK=false.
type Result struct {
	OK   bool
	Code int
	Info string
}

// MarketRequest asks for an immediate fill at the current venue price.
type MarketRequest struct {
	Symbol    string
	Side      parse.Side
	Volume    float64
	Price     float64
	Stop      float64
	Target    float64
	Deviation float64 // tolerated slippage in price units
	Magic     int
	Tag       string
}

// PendingRequest rests an order at a price until filled or expired.
type PendingRequest struct {
	Symbol    string
	Side      parse.Side
	Volume    float64
	Price     float64
	Stop      float64
	Target    float64
	Magic     int
	Tag       string
	ExpiresAt time.Time
}

// Order is a live pending order as reported by the venue.
type Order struct {
	Ref       string
	Symbol    string
	Side      parse.Side
	Volume    float64
	Price     float64
	Stop      float64
	Target    float64
	Magic     int
	Tag       string
	ExpiresAt time.Time
}

// Position is a filled, currently open exposure.
type Position struct {
	Ref    string
	Symbol string
	Side   parse.Side
	Volume float64
	Entry  float64
	Stop   float64
	Target float64
	Magic  int
	Tag    string
}

// Gateway is the minimal venue surface the lifecycle manager needs. Every
// call re-queries the venue; the engine holds no book state of its own.
type Gateway interface {
	AccountBalance(ctx context.Context) (float64, error)
	SymbolMetadata(ctx context.Context, symbol string) (risk.SymbolMeta, error)
	// CurrentPrice returns the ask for buy-side actions and the bid for
	// sell-side actions.
	CurrentPrice(ctx context.Context, symbol string, side parse.Side) (float64, error)
	SubmitMarketOrder(ctx context.Context, req MarketRequest) (Result, error)
	SubmitPendingOrder(ctx context.Context, req PendingRequest) (Result, error)
	CancelPendingOrder(ctx context.Context, ref string) (Result, error)
	ClosePosition(ctx context.Context, ref string, volume, price float64) (Result, error)
	ModifyStop(ctx context.Context, ref string, newStop float64) (Result, error)
	ListPendingOrders(ctx context.Context) ([]Order, error)
	ListOpenPositions(ctx context.Context) ([]Position, error)
}
