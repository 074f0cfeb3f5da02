package connector

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/posbotio/posbot/internal/types"
)

// EventKind identifies an order lifecycle event.
type EventKind int

const (
	EventOrderCancelled EventKind = iota
	EventBuyOrderCreated
	EventSellOrderCreated
	EventOrderFilled
	EventBuyOrderCompleted
	EventSellOrderCompleted
	EventOrderFailed
)

func (k EventKind) String() string {
	switch k {
	case EventOrderCancelled:
		return "order_cancelled"
	case EventBuyOrderCreated:
		return "buy_order_created"
	case EventSellOrderCreated:
		return "sell_order_created"
	case EventOrderFilled:
		return "order_filled"
	case EventBuyOrderCompleted:
		return "buy_order_completed"
	case EventSellOrderCompleted:
		return "sell_order_completed"
	case EventOrderFailed:
		return "order_failed"
	default:
		return "unknown"
	}
}

// IsCreated reports whether the kind is a created event (either side).
func (k EventKind) IsCreated() bool {
	return k == EventBuyOrderCreated || k == EventSellOrderCreated
}

// IsCompleted reports whether the kind is a completed event (either side).
func (k EventKind) IsCompleted() bool {
	return k == EventBuyOrderCompleted || k == EventSellOrderCompleted
}

// CreatedKind returns the created event kind for an order side.
func CreatedKind(side types.Side) EventKind {
	if side == types.SideShort {
		return EventSellOrderCreated
	}
	return EventBuyOrderCreated
}

// CompletedKind returns the completed event kind for an order side.
func CompletedKind(side types.Side) EventKind {
	if side == types.SideShort {
		return EventSellOrderCompleted
	}
	return EventBuyOrderCompleted
}

// AllEventKinds returns every order lifecycle event kind.
func AllEventKinds() []EventKind {
	return []EventKind{
		EventOrderCancelled,
		EventBuyOrderCreated,
		EventSellOrderCreated,
		EventOrderFilled,
		EventBuyOrderCompleted,
		EventSellOrderCompleted,
		EventOrderFailed,
	}
}

// OrderEvent is one order lifecycle notification from a venue.
// Price and Amount are populated for fill and completion events.
type OrderEvent struct {
	Kind        EventKind
	OrderID     string
	TradingPair string
	Timestamp   time.Time
	Price       decimal.Decimal
	Amount      decimal.Decimal
}
