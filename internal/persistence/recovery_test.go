package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/posbotio/posbot/internal/types"
)

// TestRecovery_OpenPositionsSurviveRestart verifies that positions the
// previous process left open are visible after reopening the journal.
func TestRecovery_OpenPositionsSurviveRestart(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "posbot_recovery")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "journal.db")
	ctx := context.Background()

	repo1, err := NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}

	positions := []PositionRecord{
		{
			ID:         "pos-1",
			Exchange:   "paper",
			Pair:       "BTC-USDT",
			Side:       types.SideLong,
			Amount:     decimal.NewFromInt(1),
			OrderType:  types.OrderTypeLimit,
			StopLoss:   decimal.RequireFromString("0.03"),
			TakeProfit: decimal.RequireFromString("0.05"),
			TimeLimit:  time.Hour,
			OpenedAt:   time.Now().UTC().Add(-time.Hour),
			Status:     "ACTIVE_POSITION",
			EntryPrice: decimal.NewFromInt(100),
		},
		{
			ID:         "pos-2",
			Exchange:   "paper",
			Pair:       "ETH-USDT",
			Side:       types.SideShort,
			Amount:     decimal.NewFromInt(2),
			OrderType:  types.OrderTypeMarket,
			StopLoss:   decimal.RequireFromString("0.02"),
			TakeProfit: decimal.RequireFromString("0.04"),
			TimeLimit:  2 * time.Hour,
			OpenedAt:   time.Now().UTC().Add(-30 * time.Minute),
			Status:     "ORDER_PLACED",
			EntryPrice: decimal.NewFromInt(2000),
		},
	}

	for _, rec := range positions {
		if err := repo1.SavePosition(ctx, rec); err != nil {
			t.Fatalf("failed to save position: %v", err)
		}
	}
	repo1.Close()

	// Reopen (simulating restart).
	repo2, err := NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("failed to create second repository: %v", err)
	}
	defer repo2.Close()

	restored, err := repo2.ListOpenPositions(ctx)
	if err != nil {
		t.Fatalf("failed to list open positions: %v", err)
	}

	if len(restored) != len(positions) {
		t.Fatalf("open position count mismatch: got %d, want %d", len(restored), len(positions))
	}

	// Oldest first.
	if restored[0].ID != "pos-1" {
		t.Errorf("first position = %s, want pos-1", restored[0].ID)
	}

	var eth *PositionRecord
	for i := range restored {
		if restored[i].Pair == "ETH-USDT" {
			eth = &restored[i]
			break
		}
	}
	if eth == nil {
		t.Fatal("ETH-USDT position not found")
	}
	if eth.Side != types.SideShort {
		t.Errorf("ETH side = %v, want SHORT", eth.Side)
	}
	if !eth.Amount.Equal(decimal.NewFromInt(2)) {
		t.Errorf("ETH amount = %s, want 2", eth.Amount)
	}
	if eth.TimeLimit != 2*time.Hour {
		t.Errorf("ETH time limit = %v, want 2h", eth.TimeLimit)
	}
}

// TestRecovery_HistoryPreserved verifies that closed positions and
// their realized values survive a restart.
func TestRecovery_HistoryPreserved(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "posbot_history")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "journal.db")
	ctx := context.Background()

	repo1, err := NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}

	base := time.Now().UTC().Add(-3 * time.Hour).Truncate(time.Second)
	closes := []struct {
		id     string
		status string
		pnl    string
	}{
		{"pos-1", "CLOSED_BY_TAKE_PROFIT", "0.05"},
		{"pos-2", "CLOSED_BY_STOP_LOSS", "-0.03"},
		{"pos-3", "CANCELED_BY_TIME_LIMIT", "0"},
	}

	for i, c := range closes {
		rec := PositionRecord{
			ID:         c.id,
			Exchange:   "paper",
			Pair:       "BTC-USDT",
			Side:       types.SideLong,
			Amount:     decimal.NewFromInt(1),
			OrderType:  types.OrderTypeLimit,
			StopLoss:   decimal.RequireFromString("0.03"),
			TakeProfit: decimal.RequireFromString("0.05"),
			TimeLimit:  time.Hour,
			OpenedAt:   base.Add(time.Duration(i) * time.Hour),
			Status:     "ORDER_PLACED",
			EntryPrice: decimal.NewFromInt(100),
		}
		if err := repo1.SavePosition(ctx, rec); err != nil {
			t.Fatalf("failed to save position: %v", err)
		}
		closeRec := PositionClose{
			Status:     c.status,
			EntryPrice: decimal.NewFromInt(100),
			ClosePrice: decimal.NewFromInt(100),
			PnL:        decimal.RequireFromString(c.pnl),
			ClosedAt:   rec.OpenedAt.Add(30 * time.Minute),
		}
		if err := repo1.ClosePosition(ctx, c.id, closeRec); err != nil {
			t.Fatalf("failed to close position: %v", err)
		}
	}
	repo1.Close()

	repo2, err := NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("failed to create second repository: %v", err)
	}
	defer repo2.Close()

	open, err := repo2.ListOpenPositions(ctx)
	if err != nil {
		t.Fatalf("failed to list open positions: %v", err)
	}
	if len(open) != 0 {
		t.Errorf("open positions = %d, want 0", len(open))
	}

	history, err := repo2.ListPositions(ctx, 10)
	if err != nil {
		t.Fatalf("failed to list positions: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history count = %d, want 3", len(history))
	}

	// Newest first.
	if history[0].ID != "pos-3" {
		t.Errorf("newest position = %s, want pos-3", history[0].ID)
	}

	for _, rec := range history {
		for _, c := range closes {
			if rec.ID != c.id {
				continue
			}
			if rec.Status != c.status {
				t.Errorf("%s status = %s, want %s", rec.ID, rec.Status, c.status)
			}
			if !rec.PnL.Equal(decimal.RequireFromString(c.pnl)) {
				t.Errorf("%s pnl = %s, want %s", rec.ID, rec.PnL, c.pnl)
			}
			if rec.ClosedAt == nil {
				t.Errorf("%s closed at not set", rec.ID)
			}
		}
	}
}

// TestRecovery_OrdersPreserved verifies the order journal survives a
// restart.
func TestRecovery_OrdersPreserved(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "posbot_orders")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "journal.db")
	ctx := context.Background()

	repo1, err := NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	orders := []OrderRecord{
		{
			OrderID:      "ord-1",
			PositionID:   "pos-1",
			Slot:         "entry",
			Pair:         "BTC-USDT",
			Side:         types.SideLong,
			Type:         types.OrderTypeLimit,
			Amount:       decimal.NewFromInt(1),
			Price:        decimal.NewFromInt(100),
			Status:       types.OrderStatusFilled,
			ExecutedBase: decimal.NewFromInt(1),
			AvgFillPrice: decimal.NewFromInt(100),
			CreatedAt:    now.Add(-time.Hour),
		},
		{
			OrderID:      "ord-2",
			PositionID:   "pos-1",
			Slot:         "stop_loss",
			Pair:         "BTC-USDT",
			Side:         types.SideShort,
			Type:         types.OrderTypeMarket,
			Amount:       decimal.NewFromInt(1),
			Status:       types.OrderStatusFilled,
			ExecutedBase: decimal.NewFromInt(1),
			AvgFillPrice: decimal.NewFromInt(97),
			CreatedAt:    now.Add(-30 * time.Minute),
		},
	}

	for _, o := range orders {
		if err := repo1.SaveOrder(ctx, o); err != nil {
			t.Fatalf("failed to save order: %v", err)
		}
	}
	repo1.Close()

	repo2, err := NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("failed to create second repository: %v", err)
	}
	defer repo2.Close()

	restored, err := repo2.OrdersForPosition(ctx, "pos-1")
	if err != nil {
		t.Fatalf("failed to get orders: %v", err)
	}

	if len(restored) != 2 {
		t.Fatalf("order count mismatch: got %d, want 2", len(restored))
	}
	if restored[0].Slot != "entry" || restored[1].Slot != "stop_loss" {
		t.Errorf("slots = %s, %s, want entry, stop_loss", restored[0].Slot, restored[1].Slot)
	}
	if !restored[1].AvgFillPrice.Equal(decimal.NewFromInt(97)) {
		t.Errorf("stop loss fill price = %s, want 97", restored[1].AvgFillPrice)
	}
}
