// Package persistence journals positions and their venue orders.
package persistence

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/posbotio/posbot/internal/types"
)

// Repository defines the interface for the position journal.
type Repository interface {
	// Position operations
	SavePosition(ctx context.Context, rec PositionRecord) error
	ClosePosition(ctx context.Context, id string, close PositionClose) error
	GetPosition(ctx context.Context, id string) (*PositionRecord, error)
	ListPositions(ctx context.Context, limit int) ([]PositionRecord, error)
	ListPositionsByPair(ctx context.Context, pair string, limit int) ([]PositionRecord, error)
	ListOpenPositions(ctx context.Context) ([]PositionRecord, error)

	// Order operations
	SaveOrder(ctx context.Context, rec OrderRecord) error
	OrdersForPosition(ctx context.Context, positionID string) ([]OrderRecord, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}

// PositionRecord is a persisted position.
type PositionRecord struct {
	ID         string
	Exchange   string
	Pair       string
	Side       types.Side
	Amount     decimal.Decimal
	OrderType  types.OrderType
	StopLoss   decimal.Decimal
	TakeProfit decimal.Decimal
	TimeLimit  time.Duration
	OpenedAt   time.Time
	Status     string
	EntryPrice decimal.Decimal
	ClosePrice decimal.Decimal
	PnL        decimal.Decimal
	ClosedAt   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PositionClose carries the final values written when a position
// reaches a terminal state.
type PositionClose struct {
	Status     string
	EntryPrice decimal.Decimal
	ClosePrice decimal.Decimal
	PnL        decimal.Decimal
	ClosedAt   time.Time
}

// OrderRecord is a persisted venue order tied to a position.
type OrderRecord struct {
	OrderID      string
	PositionID   string
	Slot         string // entry, stop_loss, take_profit, time_limit
	Pair         string
	Side         types.Side
	Type         types.OrderType
	Amount       decimal.Decimal
	Price        decimal.Decimal
	Status       types.OrderStatus
	ExecutedBase decimal.Decimal
	AvgFillPrice decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
