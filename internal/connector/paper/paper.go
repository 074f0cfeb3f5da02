// Package paper provides a simulated venue for paper trading and tests.
//
// Orders are booked in memory and driven entirely by mid-price updates:
// market orders fill against the current mid immediately, limit orders
// rest until a price update crosses them. Every lifecycle transition is
// published on the venue's event hub exactly as a live connector would.
package paper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/posbotio/posbot/internal/clock"
	"github.com/posbotio/posbot/internal/connector"
	"github.com/posbotio/posbot/internal/types"
)

// Config holds simulated venue parameters.
type Config struct {
	Name          string
	SlippageBps   int64   // market order slippage in basis points
	FillChunks    int     // number of partial fills per full fill
	RatePerSecond float64 // order entry rate limit
	RateBurst     int
}

// DefaultConfig returns the default simulation parameters.
func DefaultConfig() Config {
	return Config{
		Name:          "paper",
		SlippageBps:   5,
		FillChunks:    1,
		RatePerSecond: 20,
		RateBurst:     10,
	}
}

// Exchange implements connector.Connector against an in-memory book.
type Exchange struct {
	cfg     Config
	clk     clock.Clock
	logger  *slog.Logger
	hub     *connector.Hub
	limiter *rate.Limiter

	mu     sync.Mutex
	orders map[string]*types.Order
	prices map[string]decimal.Decimal
	closed bool

	queue chan connector.OrderEvent
	done  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

var _ connector.Connector = (*Exchange)(nil)

// NewExchange creates a simulated venue. The clock supplies every event
// timestamp, so runs are deterministic under a simulated clock.
func NewExchange(cfg Config, clk clock.Clock, logger *slog.Logger) *Exchange {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Name == "" {
		cfg.Name = "paper"
	}
	if cfg.FillChunks < 1 {
		cfg.FillChunks = 1
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = DefaultConfig().RatePerSecond
	}
	if cfg.RateBurst < 1 {
		cfg.RateBurst = DefaultConfig().RateBurst
	}
	if clk == nil {
		clk = clock.NewSystem()
	}

	e := &Exchange{
		cfg:     cfg,
		clk:     clk,
		logger:  logger.With("component", "paper", "venue", cfg.Name),
		hub:     connector.NewHub(logger),
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		orders:  make(map[string]*types.Order),
		prices:  make(map[string]decimal.Decimal),
		queue:   make(chan connector.OrderEvent, 256),
		done:    make(chan struct{}),
	}

	e.wg.Add(1)
	go e.dispatchLoop()

	return e
}

// Name returns the venue name.
func (e *Exchange) Name() string {
	return e.cfg.Name
}

// dispatchLoop drains the internal queue into the hub so callers never
// publish from their own stack.
func (e *Exchange) dispatchLoop() {
	defer e.wg.Done()
	for {
		select {
		case <-e.done:
			// Drain whatever was queued before shutdown.
			for {
				select {
				case ev := <-e.queue:
					e.hub.Publish(ev)
				default:
					return
				}
			}
		case ev := <-e.queue:
			e.hub.Publish(ev)
		}
	}
}

func (e *Exchange) emit(events ...connector.OrderEvent) {
	for _, ev := range events {
		select {
		case e.queue <- ev:
		case <-e.done:
			return
		}
	}
}

func (e *Exchange) newOrderID() string {
	return fmt.Sprintf("%s-%s", e.clk.Now().Format("20060102-150405"), uuid.New().String()[:8])
}

// PlaceOrder books an order and returns its id. Market orders resolve
// against the current mid immediately; a market order with no mid price
// yet fails. Limit orders rest until crossed.
func (e *Exchange) PlaceOrder(ctx context.Context, req types.OrderRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := req.Validate(); err != nil {
		return "", err
	}
	if !e.limiter.Allow() {
		return "", types.ErrRateLimited
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return "", types.ErrConnectorClosed
	}

	now := e.clk.Now()
	order := &types.Order{
		ID:          e.newOrderID(),
		TradingPair: req.TradingPair,
		Side:        req.Side,
		Type:        req.Type,
		Action:      req.Action,
		Price:       req.Price,
		Amount:      req.Amount,
		Status:      types.OrderStatusSubmitted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	e.orders[order.ID] = order

	events := []connector.OrderEvent{{
		Kind:        connector.CreatedKind(order.Side),
		OrderID:     order.ID,
		TradingPair: order.TradingPair,
		Timestamp:   now,
	}}

	mid, hasMid := e.prices[order.TradingPair]
	switch order.Type {
	case types.OrderTypeMarket:
		if !hasMid {
			order.Status = types.OrderStatusFailed
			order.UpdatedAt = now
			events = append(events, connector.OrderEvent{
				Kind:        connector.EventOrderFailed,
				OrderID:     order.ID,
				TradingPair: order.TradingPair,
				Timestamp:   now,
			})
		} else {
			events = append(events, e.fillLocked(order, e.slipped(mid, order.Side), now)...)
		}
	case types.OrderTypeLimit:
		order.Status = types.OrderStatusOpen
		if hasMid && limitCrossed(order, mid) {
			events = append(events, e.fillLocked(order, order.Price, now)...)
		}
	}
	e.mu.Unlock()

	e.logger.Info("order placed",
		"order_id", order.ID,
		"pair", req.TradingPair,
		"side", req.Side.String(),
		"type", req.Type.String(),
		"action", req.Action.String(),
		"amount", req.Amount,
		"price", req.Price,
	)

	e.emit(events...)
	return order.ID, nil
}

// CancelOrder cancels a resting order. Cancelling an order already in a
// final state returns ErrOrderDone, which is how a lost cancel/fill race
// surfaces to the caller.
func (e *Exchange) CancelOrder(ctx context.Context, tradingPair, orderID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return types.ErrConnectorClosed
	}

	order, ok := e.orders[orderID]
	if !ok || order.TradingPair != tradingPair {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", types.ErrOrderNotFound, orderID)
	}
	if order.Status.IsFinal() {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", types.ErrOrderDone, orderID, order.Status)
	}

	now := e.clk.Now()
	order.Status = types.OrderStatusCancelled
	order.UpdatedAt = now
	ev := connector.OrderEvent{
		Kind:        connector.EventOrderCancelled,
		OrderID:     order.ID,
		TradingPair: order.TradingPair,
		Timestamp:   now,
	}
	e.mu.Unlock()

	e.logger.Info("order cancelled", "order_id", orderID, "pair", tradingPair)
	e.emit(ev)
	return nil
}

// MidPrice returns the current mid price for a pair.
func (e *Exchange) MidPrice(tradingPair string) (decimal.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	mid, ok := e.prices[tradingPair]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", types.ErrPriceUnavailable, tradingPair)
	}
	return mid, nil
}

// GetOrder returns a copy of the venue's order record.
func (e *Exchange) GetOrder(orderID string) (*types.Order, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, ok := e.orders[orderID]
	if !ok {
		return nil, false
	}
	cp := *order
	return &cp, true
}

// Subscribe registers an observer on the venue event stream.
func (e *Exchange) Subscribe(kinds ...connector.EventKind) *connector.Subscription {
	return e.hub.Subscribe(kinds...)
}

// SetMidPrice moves the market: it updates the mid and fills any resting
// limit order the new price crosses.
func (e *Exchange) SetMidPrice(tradingPair string, mid decimal.Decimal) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}

	e.prices[tradingPair] = mid
	now := e.clk.Now()

	var events []connector.OrderEvent
	for _, order := range e.orders {
		if order.TradingPair != tradingPair || order.Type != types.OrderTypeLimit {
			continue
		}
		if order.Status != types.OrderStatusOpen && order.Status != types.OrderStatusPartialFill {
			continue
		}
		if limitCrossed(order, mid) {
			events = append(events, e.fillLocked(order, order.Price, now)...)
		}
	}
	e.mu.Unlock()

	e.emit(events...)
}

// limitCrossed reports whether the mid price has reached a resting limit
// order: buys fill at or below their limit, sells at or above.
func limitCrossed(order *types.Order, mid decimal.Decimal) bool {
	if order.Side == types.SideLong {
		return mid.LessThanOrEqual(order.Price)
	}
	return mid.GreaterThanOrEqual(order.Price)
}

// slipped applies configured slippage against the taker.
func (e *Exchange) slipped(mid decimal.Decimal, side types.Side) decimal.Decimal {
	if e.cfg.SlippageBps == 0 {
		return mid
	}
	bps := decimal.New(e.cfg.SlippageBps, -4)
	if side == types.SideLong {
		return mid.Mul(decimal.NewFromInt(1).Add(bps))
	}
	return mid.Mul(decimal.NewFromInt(1).Sub(bps))
}

// fillLocked fills the remaining amount of an order at the given price,
// in cfg.FillChunks slices, and returns the fill and completion events.
// Caller holds e.mu.
func (e *Exchange) fillLocked(order *types.Order, px decimal.Decimal, now time.Time) []connector.OrderEvent {
	remaining := order.Remaining()
	if !remaining.IsPositive() {
		return nil
	}

	chunks := e.cfg.FillChunks
	chunk := remaining.Div(decimal.NewFromInt(int64(chunks)))

	var events []connector.OrderEvent
	for i := 0; i < chunks; i++ {
		amt := chunk
		if i == chunks-1 {
			amt = order.Remaining() // last slice takes the rounding remainder
		}

		prevBase := order.ExecutedBase
		order.ExecutedBase = prevBase.Add(amt)
		if order.ExecutedBase.IsPositive() {
			order.AvgFillPrice = order.AvgFillPrice.Mul(prevBase).
				Add(px.Mul(amt)).
				Div(order.ExecutedBase)
		}

		if order.Remaining().IsPositive() {
			order.Status = types.OrderStatusPartialFill
		} else {
			order.Status = types.OrderStatusFilled
		}
		order.UpdatedAt = now

		events = append(events, connector.OrderEvent{
			Kind:        connector.EventOrderFilled,
			OrderID:     order.ID,
			TradingPair: order.TradingPair,
			Timestamp:   now,
			Price:       px,
			Amount:      amt,
		})
	}

	events = append(events, connector.OrderEvent{
		Kind:        connector.CompletedKind(order.Side),
		OrderID:     order.ID,
		TradingPair: order.TradingPair,
		Timestamp:   now,
		Price:       order.AvgFillPrice,
		Amount:      order.ExecutedBase,
	})

	e.logger.Info("order filled",
		"order_id", order.ID,
		"pair", order.TradingPair,
		"avg_price", order.AvgFillPrice,
		"executed", order.ExecutedBase,
	)

	return events
}

// Close shuts the venue down: the dispatcher drains, every subscriber
// channel closes, and further calls fail with ErrConnectorClosed.
func (e *Exchange) Close() {
	e.once.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()

		close(e.done)
		e.wg.Wait()
		e.hub.Close()
		e.logger.Info("paper venue closed")
	})
}
