package executor

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/posbotio/posbot/internal/types"
)

// TrackedOrder binds a locally issued order id to the venue's
// authoritative order record once it becomes known.
//
// The id is set at most once per slot; that presence check is what makes
// repeated control-loop ticks idempotent. Only Reset may clear a slot,
// and only the exit-order failure path uses it.
type TrackedOrder struct {
	orderID string
	order   *types.Order
}

// OrderID returns the locally recorded order id, or "".
func (t *TrackedOrder) OrderID() string {
	return t.orderID
}

// HasOrderID reports whether an order was submitted for this slot.
func (t *TrackedOrder) HasOrderID() bool {
	return t.orderID != ""
}

// Order returns the venue record, or nil while unbound.
func (t *TrackedOrder) Order() *types.Order {
	return t.order
}

// SetOrderID records the id returned by order submission. Overwriting a
// set id is a logic defect, not a recoverable condition.
func (t *TrackedOrder) SetOrderID(id string) {
	if t.orderID != "" {
		panic(fmt.Sprintf("executor: order id already set for slot (have %s, got %s)", t.orderID, id))
	}
	t.orderID = id
}

// Bind attaches the venue's order record. Records for a different order
// id are ignored; a nil record leaves an earlier binding in place so a
// venue lookup miss never erases known state.
func (t *TrackedOrder) Bind(order *types.Order) {
	if order == nil || order.ID != t.orderID {
		return
	}
	t.order = order
}

// Reset clears the slot so a replacement order can be submitted. Only
// the order-failed handler calls this.
func (t *TrackedOrder) Reset() {
	t.orderID = ""
	t.order = nil
}

// AvgFillPrice returns the record's average executed price, or zero
// while unbound.
func (t *TrackedOrder) AvgFillPrice() decimal.Decimal {
	if t.order == nil {
		return decimal.Zero
	}
	return t.order.AvgFillPrice
}

// ExecutedBase returns the record's executed base amount, or zero while
// unbound.
func (t *TrackedOrder) ExecutedBase() decimal.Decimal {
	if t.order == nil {
		return decimal.Zero
	}
	return t.order.ExecutedBase
}
