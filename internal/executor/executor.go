// Package executor implements the per-position order lifecycle
// controller: it places the entry order for a configured position,
// tracks its fills, and manages the stop-loss, take-profit, and
// time-limit exits until the position is closed.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/posbotio/posbot/internal/clock"
	"github.com/posbotio/posbot/internal/connector"
	"github.com/posbotio/posbot/internal/metrics"
	"github.com/posbotio/posbot/internal/types"
)

// PositionExecutor is the state machine driving one position.
//
// Two producers feed it: the owner's periodic Tick and the venue's
// asynchronous order events. Both funnel into a single run goroutine,
// so no two handlers for the same executor ever run concurrently.
// Observable state is additionally guarded by a read lock so status and
// PnL queries are safe from any goroutine at any time.
type PositionExecutor struct {
	cfg      Config
	conn     connector.Connector
	clk      clock.Clock
	logger   *slog.Logger
	recorder *metrics.Recorder

	mu              sync.RWMutex
	status          Status
	closeTimestamp  time.Time
	entryOrder      TrackedOrder
	stopLossOrder   TrackedOrder
	takeProfitOrder TrackedOrder
	timeLimitOrder  TrackedOrder
	retrySlot       slotID // exit slot re-armed after an order failure

	sub     *connector.Subscription
	tickCh  chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
	started bool
	stop    sync.Once
}

// New builds an executor around a validated config and its explicit
// dependencies. The venue subscription is taken here; Start launches
// the processing loop.
func New(cfg Config, conn connector.Connector, clk clock.Clock, logger *slog.Logger) (*PositionExecutor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, fmt.Errorf("%w: connector is required", types.ErrInvalidConfig)
	}
	if clk == nil {
		return nil, fmt.Errorf("%w: clock is required", types.ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &PositionExecutor{
		cfg:      cfg,
		conn:     conn,
		clk:      clk,
		logger:   logger.With("component", "executor", "pair", cfg.TradingPair, "side", cfg.Side.String()),
		recorder: metrics.NewRecorder(),
		status:   StatusNotStarted,
		sub:      conn.Subscribe(),
		tickCh:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	return e, nil
}

// Start launches the processing loop.
func (e *PositionExecutor) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return fmt.Errorf("executor already started")
	}
	e.started = true
	e.mu.Unlock()

	e.logger.Info("starting position executor",
		"amount", e.cfg.Amount,
		"order_type", e.cfg.OrderType.String(),
		"stop_loss", e.cfg.StopLoss,
		"take_profit", e.cfg.TakeProfit,
		"end_time", e.cfg.EndTime(),
	)

	e.wg.Add(1)
	go e.run(ctx)
	return nil
}

// Stop disposes the executor: the venue subscription is released and
// the loop is joined. Idempotent.
func (e *PositionExecutor) Stop() {
	e.stop.Do(func() {
		close(e.done)
		e.sub.Close()
		e.wg.Wait()
		e.logger.Info("position executor stopped", "status", e.Status().String())
	})
}

// Tick schedules one control-loop pass. Non-blocking: a tick arriving
// while one is already pending coalesces with it, which is safe because
// ticks are idempotent.
func (e *PositionExecutor) Tick() {
	select {
	case e.tickCh <- struct{}{}:
	default:
	}
}

func (e *PositionExecutor) run(ctx context.Context) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		case <-e.tickCh:
			timer := metrics.NewTimer()
			e.controlPosition(ctx)
			timer.ObserveTick()
		case ev, ok := <-e.sub.C():
			if !ok {
				return
			}
			e.handleOrderEvent(ctx, ev)
		}
	}
}

// controlPosition dispatches one control pass by current status.
func (e *PositionExecutor) controlPosition(ctx context.Context) {
	switch e.Status() {
	case StatusNotStarted:
		e.controlEntryOrder(ctx)
	case StatusOrderPlaced:
		e.controlEntryExpiry(ctx)
	case StatusActivePosition:
		e.controlTakeProfit(ctx)
		e.controlStopLoss(ctx)
		e.controlTimeLimit(ctx)
	case StatusClosePlaced:
		e.controlPendingClose(ctx)
	default:
		// Terminal: nothing left to do.
	}
}

// controlEntryOrder submits the entry order once. A set order id
// suppresses re-submission on later ticks.
func (e *PositionExecutor) controlEntryOrder(ctx context.Context) {
	if e.entryOrder.HasOrderID() {
		return
	}

	req := types.OrderRequest{
		TradingPair: e.cfg.TradingPair,
		Side:        e.cfg.Side,
		Type:        e.cfg.OrderType,
		Action:      types.PositionActionOpen,
		Amount:      e.cfg.Amount,
	}
	if req.Type == types.OrderTypeLimit {
		price, err := e.entryOrderPrice()
		if err != nil {
			e.logger.Warn("no entry price available yet", "error", err)
			return
		}
		req.Price = price
	}

	id, err := e.conn.PlaceOrder(ctx, req)
	if err != nil {
		e.logger.Warn("entry order placement failed", "error", err)
		e.recorder.RecordError("entry_placement")
		return
	}

	e.mu.Lock()
	e.entryOrder.SetOrderID(id)
	e.mu.Unlock()

	e.recorder.RecordOrderSubmitted(e.cfg.TradingPair, slotEntry.String())
	e.logger.Info("entry order submitted",
		"order_id", id,
		"amount", e.cfg.Amount,
		"price", req.Price,
	)
}

// entryOrderPrice resolves the price for a limit entry: the configured
// hint when present, otherwise the venue mid.
func (e *PositionExecutor) entryOrderPrice() (decimal.Decimal, error) {
	if !e.cfg.EntryPrice.IsZero() {
		return e.cfg.EntryPrice, nil
	}
	return e.conn.MidPrice(e.cfg.TradingPair)
}

// controlEntryExpiry cancels an entry order that is still unfilled when
// the time budget runs out. A fill racing this cancel is fine either
// way: if the fill event lands first the status moves on and this
// branch stops applying; if the cancel loses at the venue the request
// fails and the fill event settles it.
func (e *PositionExecutor) controlEntryExpiry(ctx context.Context) {
	if e.clk.Now().Before(e.cfg.EndTime()) {
		return
	}
	if !e.entryOrder.HasOrderID() {
		return
	}

	err := e.conn.CancelOrder(ctx, e.cfg.TradingPair, e.entryOrder.OrderID())
	if err != nil {
		if errors.Is(err, types.ErrOrderDone) || errors.Is(err, types.ErrOrderNotFound) {
			e.logger.Debug("entry cancel no-op", "error", err)
		} else {
			e.logger.Warn("entry order cancellation failed", "error", err)
			e.recorder.RecordError("entry_cancel")
		}
		return
	}

	e.logger.Info("entry order cancellation requested",
		"order_id", e.entryOrder.OrderID(),
		"end_time", e.cfg.EndTime(),
	)
}

// controlTakeProfit keeps a resting limit order at the take-profit
// price for the filled entry size. Submission happens once, ahead of
// any price trigger; only its completion event closes the position.
func (e *PositionExecutor) controlTakeProfit(ctx context.Context) {
	if e.takeProfitOrder.HasOrderID() {
		return
	}

	amount := e.entryOrder.ExecutedBase()
	if !amount.IsPositive() {
		e.logger.Debug("entry order record not bound yet, deferring take profit")
		return
	}
	price := e.TakeProfitPrice()
	if !price.IsPositive() {
		e.logger.Debug("take profit price not derivable yet")
		return
	}

	id, err := e.conn.PlaceOrder(ctx, types.OrderRequest{
		TradingPair: e.cfg.TradingPair,
		Side:        e.cfg.Side.Opposite(),
		Type:        types.OrderTypeLimit,
		Action:      types.PositionActionClose,
		Amount:      amount,
		Price:       price,
	})
	if err != nil {
		e.logger.Warn("take profit placement failed", "error", err)
		e.recorder.RecordError("take_profit_placement")
		return
	}

	e.mu.Lock()
	e.takeProfitOrder.SetOrderID(id)
	e.mu.Unlock()

	e.recorder.RecordOrderSubmitted(e.cfg.TradingPair, slotTakeProfit.String())
	e.logger.Info("take profit order submitted",
		"order_id", id,
		"price", price,
		"amount", amount,
	)
}

// controlStopLoss submits a market close when the mid price crosses the
// stop-loss price against the position, and moves to CLOSE_PLACED.
func (e *PositionExecutor) controlStopLoss(ctx context.Context) {
	if e.Status() != StatusActivePosition || e.stopLossOrder.HasOrderID() {
		return
	}

	mid, err := e.conn.MidPrice(e.cfg.TradingPair)
	if err != nil {
		e.logger.Debug("mid price unavailable, skipping stop loss check", "error", err)
		return
	}

	stopPrice := e.StopLossPrice()
	triggered := false
	if e.cfg.Side == types.SideLong {
		triggered = mid.LessThanOrEqual(stopPrice)
	} else {
		triggered = mid.GreaterThanOrEqual(stopPrice)
	}
	if !triggered {
		return
	}

	id, ok := e.submitMarketClose(ctx, &e.stopLossOrder, slotStopLoss)
	if !ok {
		return
	}
	e.logger.Info("stop loss order submitted",
		"order_id", id,
		"mid", mid,
		"stop_loss_price", stopPrice,
	)
}

// controlTimeLimit submits a market close once the time budget runs out
// on a still-open position, and moves to CLOSE_PLACED.
func (e *PositionExecutor) controlTimeLimit(ctx context.Context) {
	if e.Status() != StatusActivePosition || e.timeLimitOrder.HasOrderID() {
		return
	}
	if e.clk.Now().Before(e.cfg.EndTime()) {
		return
	}

	id, ok := e.submitMarketClose(ctx, &e.timeLimitOrder, slotTimeLimit)
	if !ok {
		return
	}
	e.logger.Info("time limit order submitted",
		"order_id", id,
		"end_time", e.cfg.EndTime(),
	)
}

// controlPendingClose resubmits a fresh market close if the pending
// exit order failed at the venue. Otherwise CLOSE_PLACED just waits for
// the completion event.
func (e *PositionExecutor) controlPendingClose(ctx context.Context) {
	slot := e.retrySlot
	if slot == slotNone {
		return
	}

	tracked := e.slotOrder(slot)
	id, ok := e.submitMarketClose(ctx, tracked, slot)
	if !ok {
		return
	}

	e.mu.Lock()
	e.retrySlot = slotNone
	e.mu.Unlock()

	e.logger.Info("exit order resubmitted after failure",
		"order_id", id,
		"slot", slot.String(),
	)
}

// submitMarketClose places a market order closing the filled entry size
// and records it on the given slot. A stop-loss or time-limit
// submission is the CLOSE_PLACED transition point.
func (e *PositionExecutor) submitMarketClose(ctx context.Context, tracked *TrackedOrder, slot slotID) (string, bool) {
	amount := e.entryOrder.ExecutedBase()
	if !amount.IsPositive() {
		e.logger.Warn("cannot close: entry order record not bound", "slot", slot.String())
		return "", false
	}

	id, err := e.conn.PlaceOrder(ctx, types.OrderRequest{
		TradingPair: e.cfg.TradingPair,
		Side:        e.cfg.Side.Opposite(),
		Type:        types.OrderTypeMarket,
		Action:      types.PositionActionClose,
		Amount:      amount,
	})
	if err != nil {
		e.logger.Warn("exit order placement failed", "slot", slot.String(), "error", err)
		e.recorder.RecordError("exit_placement")
		return "", false
	}

	e.mu.Lock()
	tracked.SetOrderID(id)
	if e.status == StatusActivePosition {
		e.status = StatusClosePlaced
	}
	e.mu.Unlock()

	e.recorder.RecordOrderSubmitted(e.cfg.TradingPair, slot.String())
	return id, true
}

// handleOrderEvent dispatches one venue event to the slot it belongs
// to. Events for orders that are not ours are ignored.
func (e *PositionExecutor) handleOrderEvent(ctx context.Context, ev connector.OrderEvent) {
	slot, tracked := e.matchSlot(ev.OrderID)
	if slot == slotNone {
		return
	}
	e.recorder.RecordOrderEvent(ev.Kind.String())

	switch {
	case ev.Kind.IsCreated():
		e.onOrderCreated(slot, tracked, ev)
	case ev.Kind == connector.EventOrderFilled:
		e.onOrderFilled(slot, tracked, ev)
	case ev.Kind.IsCompleted():
		e.onOrderCompleted(ctx, slot, tracked, ev)
	case ev.Kind == connector.EventOrderCancelled:
		e.onOrderCancelled(slot, tracked, ev)
	case ev.Kind == connector.EventOrderFailed:
		e.onOrderFailed(slot, tracked, ev)
	}
}

func (e *PositionExecutor) matchSlot(orderID string) (slotID, *TrackedOrder) {
	if orderID == "" {
		return slotNone, nil
	}
	switch orderID {
	case e.entryOrder.OrderID():
		return slotEntry, &e.entryOrder
	case e.stopLossOrder.OrderID():
		return slotStopLoss, &e.stopLossOrder
	case e.timeLimitOrder.OrderID():
		return slotTimeLimit, &e.timeLimitOrder
	case e.takeProfitOrder.OrderID():
		return slotTakeProfit, &e.takeProfitOrder
	default:
		return slotNone, nil
	}
}

func (e *PositionExecutor) slotOrder(slot slotID) *TrackedOrder {
	switch slot {
	case slotEntry:
		return &e.entryOrder
	case slotStopLoss:
		return &e.stopLossOrder
	case slotTimeLimit:
		return &e.timeLimitOrder
	case slotTakeProfit:
		return &e.takeProfitOrder
	default:
		return nil
	}
}

// refreshOrder pulls the venue's order record into the slot. A lookup
// miss is tolerated; the next event retries.
func (e *PositionExecutor) refreshOrder(tracked *TrackedOrder) {
	if !tracked.HasOrderID() {
		return
	}
	order, ok := e.conn.GetOrder(tracked.OrderID())
	if !ok {
		e.logger.Debug("order lookup miss", "order_id", tracked.OrderID())
		return
	}
	e.mu.Lock()
	tracked.Bind(order)
	e.mu.Unlock()
}

// onOrderCreated binds the venue record; the entry order's created
// event is the NOT_STARTED to ORDER_PLACED transition.
func (e *PositionExecutor) onOrderCreated(slot slotID, tracked *TrackedOrder, ev connector.OrderEvent) {
	e.refreshOrder(tracked)

	if slot != slotEntry {
		e.logger.Debug("exit order created", "slot", slot.String(), "order_id", ev.OrderID)
		return
	}

	if e.status == StatusNotStarted {
		e.setStatus(StatusOrderPlaced)
		e.logger.Info("entry order created", "order_id", ev.OrderID)
	} else {
		e.logger.Debug("duplicate entry created event ignored", "status", e.status.String())
	}
}

// onOrderFilled handles fills. The entry order's first fill is the
// ORDER_PLACED to ACTIVE_POSITION transition; later entry fills only
// grow the position.
func (e *PositionExecutor) onOrderFilled(slot slotID, tracked *TrackedOrder, ev connector.OrderEvent) {
	e.refreshOrder(tracked)

	if slot != slotEntry {
		e.logger.Debug("exit order fill",
			"slot", slot.String(),
			"order_id", ev.OrderID,
			"amount", ev.Amount,
			"price", ev.Price,
		)
		return
	}

	switch e.status {
	case StatusNotStarted, StatusOrderPlaced:
		e.setStatus(StatusActivePosition)
		e.recorder.RecordPositionOpened(e.cfg.TradingPair, e.cfg.Side.String())
		e.logger.Info("position opened",
			"order_id", ev.OrderID,
			"amount", ev.Amount,
			"price", ev.Price,
		)
	case StatusActivePosition:
		e.logger.Info("position incremented",
			"order_id", ev.OrderID,
			"amount", ev.Amount,
			"price", ev.Price,
		)
	default:
		e.logger.Warn("entry fill after close decision ignored",
			"status", e.status.String(),
			"order_id", ev.OrderID,
		)
	}
}

// onOrderCompleted settles full fills: the entry completion confirms an
// active position, an exit completion closes it and stamps the close
// time from the event.
func (e *PositionExecutor) onOrderCompleted(ctx context.Context, slot slotID, tracked *TrackedOrder, ev connector.OrderEvent) {
	e.refreshOrder(tracked)

	switch slot {
	case slotEntry:
		if e.status == StatusNotStarted || e.status == StatusOrderPlaced {
			e.setStatus(StatusActivePosition)
			e.recorder.RecordPositionOpened(e.cfg.TradingPair, e.cfg.Side.String())
			e.logger.Info("position opened", "order_id", ev.OrderID, "price", ev.Price)
		}
	case slotStopLoss:
		if e.tryClose(StatusClosedByStopLoss, ev.Timestamp) {
			e.cancelTakeProfit(ctx)
			e.settleClosed(ev)
		}
	case slotTimeLimit:
		if e.tryClose(StatusClosedByTimeLimit, ev.Timestamp) {
			e.cancelTakeProfit(ctx)
			e.settleClosed(ev)
		}
	case slotTakeProfit:
		if e.tryClose(StatusClosedByTakeProfit, ev.Timestamp) {
			e.settleClosed(ev)
		}
	}
}

func (e *PositionExecutor) settleClosed(ev connector.OrderEvent) {
	status := e.Status()
	pnl := e.PnL()
	e.recorder.RecordPositionClosed(e.cfg.TradingPair, e.cfg.Side.String(), status.CloseReason(), pnl)
	e.logger.Info("position closed",
		"status", status.String(),
		"order_id", ev.OrderID,
		"close_price", ev.Price,
		"pnl", pnl,
	)
}

// onOrderCancelled handles cancellation acks. The entry order cancelled
// before filling is the ORDER_PLACED to CANCELED_BY_TIME_LIMIT
// transition; a cancel arriving after the position went active loses
// the race and is ignored.
func (e *PositionExecutor) onOrderCancelled(slot slotID, tracked *TrackedOrder, ev connector.OrderEvent) {
	e.refreshOrder(tracked)

	switch slot {
	case slotEntry:
		switch e.status {
		case StatusNotStarted, StatusOrderPlaced:
			e.terminate(StatusCanceledByTimeLimit, ev.Timestamp)
			e.recorder.RecordPositionCanceled(e.cfg.TradingPair, e.cfg.Side.String())
			e.logger.Info("entry order cancelled before fill", "order_id", ev.OrderID)
		default:
			e.logger.Warn("late entry cancellation ignored",
				"status", e.status.String(),
				"order_id", ev.OrderID,
			)
		}
	case slotTakeProfit:
		e.logger.Debug("take profit order cancelled", "order_id", ev.OrderID)
	default:
		e.logger.Warn("exit order cancelled at venue",
			"slot", slot.String(),
			"order_id", ev.OrderID,
		)
	}
}

// onOrderFailed reacts to venue rejections. An entry failure ends the
// lifecycle like a cancellation (the position never opened). A failed
// exit re-arms its slot so a fresh market close goes out on the next
// tick instead of stalling in CLOSE_PLACED.
func (e *PositionExecutor) onOrderFailed(slot slotID, tracked *TrackedOrder, ev connector.OrderEvent) {
	e.refreshOrder(tracked)
	e.recorder.RecordOrderFailed(e.cfg.TradingPair, slot.String())

	switch slot {
	case slotEntry:
		switch e.status {
		case StatusNotStarted, StatusOrderPlaced:
			e.terminate(StatusCanceledByTimeLimit, ev.Timestamp)
			e.recorder.RecordPositionCanceled(e.cfg.TradingPair, e.cfg.Side.String())
			e.logger.Error("entry order failed, position never opened", "order_id", ev.OrderID)
		default:
			e.logger.Warn("late entry failure ignored", "status", e.status.String())
		}
	case slotStopLoss, slotTimeLimit:
		if e.status != StatusClosePlaced {
			e.logger.Warn("exit failure in unexpected status ignored",
				"slot", slot.String(),
				"status", e.status.String(),
			)
			return
		}
		e.mu.Lock()
		tracked.Reset()
		e.retrySlot = slot
		e.mu.Unlock()
		e.logger.Error("exit order failed, scheduling resubmission",
			"slot", slot.String(),
			"order_id", ev.OrderID,
		)
	case slotTakeProfit:
		if e.status != StatusActivePosition {
			e.logger.Debug("take profit failure ignored", "status", e.status.String())
			return
		}
		e.mu.Lock()
		tracked.Reset()
		e.mu.Unlock()
		e.logger.Warn("take profit order failed, will resubmit", "order_id", ev.OrderID)
	}
}

// cancelTakeProfit removes a still-live take-profit order after the
// position closed through another exit. A record already cancelled,
// pending cancel, or failed needs no request; anything else, including
// a record the venue has not shown us yet, gets one.
func (e *PositionExecutor) cancelTakeProfit(ctx context.Context) {
	if !e.takeProfitOrder.HasOrderID() {
		return
	}
	if o := e.takeProfitOrder.Order(); o != nil {
		switch o.Status {
		case types.OrderStatusCancelled, types.OrderStatusPendingCancel, types.OrderStatusFailed:
			return
		}
	}

	err := e.conn.CancelOrder(ctx, e.cfg.TradingPair, e.takeProfitOrder.OrderID())
	if err != nil {
		if errors.Is(err, types.ErrOrderDone) || errors.Is(err, types.ErrOrderNotFound) {
			e.logger.Debug("take profit cancel no-op", "error", err)
		} else {
			e.logger.Warn("take profit cancellation failed", "error", err)
			e.recorder.RecordError("take_profit_cancel")
		}
		return
	}
	e.logger.Info("take profit order cancellation requested",
		"order_id", e.takeProfitOrder.OrderID(),
	)
}

func (e *PositionExecutor) setStatus(s Status) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()
}

// terminate moves to a terminal status and stamps the close time
// exactly once.
func (e *PositionExecutor) terminate(s Status, ts time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status.Terminal() {
		return
	}
	e.status = s
	if e.closeTimestamp.IsZero() {
		e.closeTimestamp = ts
	}
}

// tryClose transitions an open position to a closed status. Returns
// false when the position is not open, so a second exit completion
// cannot close it twice.
func (e *PositionExecutor) tryClose(s Status, ts time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusActivePosition && e.status != StatusClosePlaced {
		return false
	}
	e.status = s
	if e.closeTimestamp.IsZero() {
		e.closeTimestamp = ts
	}
	return true
}

// Status returns the current lifecycle state.
func (e *PositionExecutor) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// IsClosed reports whether the executor reached a terminal state.
func (e *PositionExecutor) IsClosed() bool {
	return e.Status().Terminal()
}

// CloseTimestamp returns the time the terminal state was entered.
func (e *PositionExecutor) CloseTimestamp() (time.Time, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closeTimestamp, !e.closeTimestamp.IsZero()
}

// Config returns a copy of the position parameters.
func (e *PositionExecutor) Config() Config {
	return e.cfg
}

// EntryPrice returns the price the position is measured against: the
// configured hint (falling back to the venue mid) until the entry order
// has progressed, then the entry's average executed price.
func (e *PositionExecutor) EntryPrice() decimal.Decimal {
	e.mu.RLock()
	status := e.status
	avg := e.entryOrder.AvgFillPrice()
	e.mu.RUnlock()

	switch status {
	case StatusNotStarted, StatusOrderPlaced, StatusCanceledByTimeLimit:
		if !e.cfg.EntryPrice.IsZero() {
			return e.cfg.EntryPrice
		}
		mid, err := e.conn.MidPrice(e.cfg.TradingPair)
		if err != nil {
			return decimal.Zero
		}
		return mid
	default:
		return avg
	}
}

// StopLossPrice derives the stop trigger price from the entry price.
func (e *PositionExecutor) StopLossPrice() decimal.Decimal {
	entry := e.EntryPrice()
	one := decimal.NewFromInt(1)
	if e.cfg.Side == types.SideLong {
		return entry.Mul(one.Sub(e.cfg.StopLoss))
	}
	return entry.Mul(one.Add(e.cfg.StopLoss))
}

// TakeProfitPrice derives the take-profit limit price from the entry
// price.
func (e *PositionExecutor) TakeProfitPrice() decimal.Decimal {
	entry := e.EntryPrice()
	one := decimal.NewFromInt(1)
	if e.cfg.Side == types.SideLong {
		return entry.Mul(one.Add(e.cfg.TakeProfit))
	}
	return entry.Mul(one.Sub(e.cfg.TakeProfit))
}

// ClosePrice returns the average executed price of the exit order that
// closed the position. ok is false until the position is closed and the
// exit record is bound.
func (e *PositionExecutor) ClosePrice() (decimal.Decimal, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var avg decimal.Decimal
	switch e.status {
	case StatusClosedByStopLoss:
		avg = e.stopLossOrder.AvgFillPrice()
	case StatusClosedByTimeLimit:
		avg = e.timeLimitOrder.AvgFillPrice()
	case StatusClosedByTakeProfit:
		avg = e.takeProfitOrder.AvgFillPrice()
	default:
		return decimal.Zero, false
	}
	return avg, avg.IsPositive()
}

// PnL returns the fractional profit of the position: realized once
// closed, marked against the current mid while active, zero otherwise.
func (e *PositionExecutor) PnL() decimal.Decimal {
	switch e.Status() {
	case StatusClosedByStopLoss, StatusClosedByTimeLimit, StatusClosedByTakeProfit:
		closePrice, ok := e.ClosePrice()
		if !ok {
			return decimal.Zero
		}
		return e.pnlRatio(closePrice)
	case StatusActivePosition:
		mid, err := e.conn.MidPrice(e.cfg.TradingPair)
		if err != nil {
			return decimal.Zero
		}
		return e.pnlRatio(mid)
	default:
		return decimal.Zero
	}
}

func (e *PositionExecutor) pnlRatio(exit decimal.Decimal) decimal.Decimal {
	entry := e.EntryPrice()
	if entry.IsZero() {
		return decimal.Zero
	}
	if e.cfg.Side == types.SideLong {
		return exit.Sub(entry).Div(entry)
	}
	return entry.Sub(exit).Div(entry)
}

// SlotOrder is a snapshot of one tracked order slot for journaling.
type SlotOrder struct {
	Slot    string
	OrderID string
	Order   *types.Order // copy of the venue record, nil if never bound
}

// Orders returns snapshots of the four tracked order slots that have an
// order id.
func (e *PositionExecutor) Orders() []SlotOrder {
	e.mu.RLock()
	defer e.mu.RUnlock()

	slots := []struct {
		id      slotID
		tracked *TrackedOrder
	}{
		{slotEntry, &e.entryOrder},
		{slotStopLoss, &e.stopLossOrder},
		{slotTimeLimit, &e.timeLimitOrder},
		{slotTakeProfit, &e.takeProfitOrder},
	}

	var out []SlotOrder
	for _, s := range slots {
		if !s.tracked.HasOrderID() {
			continue
		}
		so := SlotOrder{Slot: s.id.String(), OrderID: s.tracked.OrderID()}
		if o := s.tracked.Order(); o != nil {
			cp := *o
			so.Order = &cp
		}
		out = append(out, so)
	}
	return out
}
