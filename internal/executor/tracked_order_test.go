package executor

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/posbotio/posbot/internal/types"
)

func TestTrackedOrder_SetOrderID(t *testing.T) {
	var tr TrackedOrder

	if tr.HasOrderID() {
		t.Error("fresh slot reports an order id")
	}

	tr.SetOrderID("ord-1")
	if !tr.HasOrderID() || tr.OrderID() != "ord-1" {
		t.Errorf("OrderID() = %s, want ord-1", tr.OrderID())
	}
}

func TestTrackedOrder_SetOrderIDTwicePanics(t *testing.T) {
	var tr TrackedOrder
	tr.SetOrderID("ord-1")

	defer func() {
		if recover() == nil {
			t.Error("second SetOrderID did not panic")
		}
	}()
	tr.SetOrderID("ord-2")
}

func TestTrackedOrder_Bind(t *testing.T) {
	var tr TrackedOrder
	tr.SetOrderID("ord-1")

	// A record for another order is ignored.
	tr.Bind(&types.Order{ID: "ord-9", AvgFillPrice: decimal.NewFromInt(50)})
	if tr.Order() != nil {
		t.Error("bound a record with a mismatched id")
	}

	matching := &types.Order{
		ID:           "ord-1",
		Status:       types.OrderStatusFilled,
		ExecutedBase: decimal.NewFromInt(1),
		AvgFillPrice: decimal.NewFromInt(100),
	}
	tr.Bind(matching)
	if tr.Order() == nil {
		t.Fatal("matching record not bound")
	}
	if !tr.AvgFillPrice().Equal(decimal.NewFromInt(100)) {
		t.Errorf("AvgFillPrice() = %s, want 100", tr.AvgFillPrice())
	}
	if !tr.ExecutedBase().Equal(decimal.NewFromInt(1)) {
		t.Errorf("ExecutedBase() = %s, want 1", tr.ExecutedBase())
	}

	// A nil record never erases a bound one.
	tr.Bind(nil)
	if tr.Order() == nil {
		t.Error("nil record erased the binding")
	}
}

func TestTrackedOrder_ZeroWhileUnbound(t *testing.T) {
	var tr TrackedOrder
	tr.SetOrderID("ord-1")

	if !tr.AvgFillPrice().IsZero() {
		t.Errorf("AvgFillPrice() unbound = %s, want 0", tr.AvgFillPrice())
	}
	if !tr.ExecutedBase().IsZero() {
		t.Errorf("ExecutedBase() unbound = %s, want 0", tr.ExecutedBase())
	}
}

func TestTrackedOrder_Reset(t *testing.T) {
	var tr TrackedOrder
	tr.SetOrderID("ord-1")
	tr.Bind(&types.Order{ID: "ord-1"})

	tr.Reset()
	if tr.HasOrderID() || tr.Order() != nil {
		t.Error("Reset did not clear the slot")
	}

	// A replacement id may be set after a reset.
	tr.SetOrderID("ord-2")
	if tr.OrderID() != "ord-2" {
		t.Errorf("OrderID() = %s, want ord-2", tr.OrderID())
	}
}
