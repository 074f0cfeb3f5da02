// Package types defines shared types used across the position controller.
package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Side represents the direction of a position or order.
type Side int

const (
	SideUnknown Side = iota
	SideLong
	SideShort
)

func (s Side) String() string {
	switch s {
	case SideLong:
		return "LONG"
	case SideShort:
		return "SHORT"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the opposite side.
func (s Side) Opposite() Side {
	switch s {
	case SideLong:
		return SideShort
	case SideShort:
		return SideLong
	default:
		return SideUnknown
	}
}

// IsValid reports whether the side is LONG or SHORT.
func (s Side) IsValid() bool {
	return s == SideLong || s == SideShort
}

// ParseSide converts a config string into a Side.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LONG", "BUY":
		return SideLong, nil
	case "SHORT", "SELL":
		return SideShort, nil
	default:
		return SideUnknown, fmt.Errorf("%w: %q", ErrInvalidSide, s)
	}
}

// OrderType represents the pricing policy of an order.
type OrderType int

const (
	OrderTypeUnknown OrderType = iota
	OrderTypeLimit
	OrderTypeMarket
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeLimit:
		return "LIMIT"
	case OrderTypeMarket:
		return "MARKET"
	default:
		return "UNKNOWN"
	}
}

// ParseOrderType converts a config string into an OrderType.
func ParseOrderType(s string) (OrderType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LIMIT":
		return OrderTypeLimit, nil
	case "MARKET":
		return OrderTypeMarket, nil
	default:
		return OrderTypeUnknown, fmt.Errorf("%w: %q", ErrInvalidOrderType, s)
	}
}

// PositionAction tells the venue whether an order opens or closes a position.
type PositionAction int

const (
	PositionActionOpen PositionAction = iota
	PositionActionClose
)

func (a PositionAction) String() string {
	switch a {
	case PositionActionClose:
		return "CLOSE"
	default:
		return "OPEN"
	}
}

// OrderStatus represents the state of an order at the venue.
type OrderStatus int

const (
	OrderStatusSubmitted OrderStatus = iota
	OrderStatusOpen
	OrderStatusPartialFill
	OrderStatusFilled
	OrderStatusPendingCancel
	OrderStatusCancelled
	OrderStatusFailed
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusSubmitted:
		return "SUBMITTED"
	case OrderStatusOpen:
		return "OPEN"
	case OrderStatusPartialFill:
		return "PARTIAL_FILL"
	case OrderStatusFilled:
		return "FILLED"
	case OrderStatusPendingCancel:
		return "PENDING_CANCEL"
	case OrderStatusCancelled:
		return "CANCELLED"
	case OrderStatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// IsFinal returns true if the order is in a terminal state.
func (s OrderStatus) IsFinal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusFailed:
		return true
	default:
		return false
	}
}

// Order is the venue's authoritative record of an order.
type Order struct {
	ID           string
	TradingPair  string
	Side         Side
	Type         OrderType
	Action       PositionAction
	Price        decimal.Decimal // limit price; zero for market orders
	Amount       decimal.Decimal // requested base amount
	Status       OrderStatus
	ExecutedBase decimal.Decimal
	AvgFillPrice decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Remaining returns the unfilled base amount.
func (o *Order) Remaining() decimal.Decimal {
	return o.Amount.Sub(o.ExecutedBase)
}

// OrderRequest describes an order to be placed on a venue.
type OrderRequest struct {
	TradingPair string
	Side        Side
	Type        OrderType
	Action      PositionAction
	Amount      decimal.Decimal
	Price       decimal.Decimal // required for limit orders
}

// Validate checks the request before it reaches the venue.
func (r OrderRequest) Validate() error {
	if r.TradingPair == "" {
		return fmt.Errorf("%w: missing trading pair", ErrInvalidOrder)
	}
	if !r.Side.IsValid() {
		return fmt.Errorf("%w: side %s", ErrInvalidOrder, r.Side)
	}
	if r.Type != OrderTypeLimit && r.Type != OrderTypeMarket {
		return fmt.Errorf("%w: order type %s", ErrInvalidOrder, r.Type)
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("%w: amount %s", ErrInvalidOrder, r.Amount)
	}
	if r.Type == OrderTypeLimit && !r.Price.IsPositive() {
		return fmt.Errorf("%w: limit order requires a positive price", ErrInvalidOrder)
	}
	return nil
}
