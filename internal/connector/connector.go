// Package connector defines the venue capability consumed by position
// executors: order entry, cancellation, lookup, mid-price queries, and a
// subscribable order-event stream.
package connector

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/posbotio/posbot/internal/types"
)

// Connector is the abstract venue surface. Implementations must deliver
// order events for every order they accept: created, then filled and/or
// completed, cancelled, or failed.
//
// PlaceOrder is fire-and-forget: it returns the venue order id
// immediately (or fails fast) and never blocks waiting for a fill.
type Connector interface {
	// Name identifies the venue (used for routing and logging).
	Name() string

	// PlaceOrder submits an order and returns its venue order id.
	PlaceOrder(ctx context.Context, req types.OrderRequest) (string, error)

	// CancelOrder requests cancellation of a live order.
	CancelOrder(ctx context.Context, tradingPair, orderID string) error

	// MidPrice returns the current mid price for a trading pair.
	MidPrice(tradingPair string) (decimal.Decimal, error)

	// GetOrder looks up the venue's order record. A missing record for a
	// known id is not an error; callers retry on the next event.
	GetOrder(orderID string) (*types.Order, bool)

	// Subscribe registers an observer for the given event kinds (all
	// kinds when none are given) and returns its disposable handle.
	Subscribe(kinds ...EventKind) *Subscription
}
