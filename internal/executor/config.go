package executor

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/posbotio/posbot/internal/types"
)

// Config describes the desired position. It is immutable once the
// executor is constructed.
type Config struct {
	Exchange    string
	TradingPair string
	Side        types.Side
	Amount      decimal.Decimal
	EntryPrice  decimal.Decimal // optional hint; zero means use the current mid
	OrderType   types.OrderType // entry order policy
	StopLoss    decimal.Decimal // fractional distance from entry, e.g. 0.02
	TakeProfit  decimal.Decimal // fractional distance from entry, e.g. 0.05
	TimeLimit   time.Duration
	Timestamp   time.Time // creation time on the owner's clock
}

// EndTime is the deadline after which the position (or an unfilled
// entry) is force-closed or cancelled.
func (c Config) EndTime() time.Time {
	return c.Timestamp.Add(c.TimeLimit)
}

// Validate checks the config before an executor is built around it.
func (c Config) Validate() error {
	var errs []string

	if c.TradingPair == "" {
		errs = append(errs, "trading_pair is required")
	}
	if !c.Side.IsValid() {
		errs = append(errs, "side must be LONG or SHORT")
	}
	if !c.Amount.IsPositive() {
		errs = append(errs, "amount must be positive")
	}
	if c.EntryPrice.IsNegative() {
		errs = append(errs, "entry_price must not be negative")
	}
	if c.OrderType != types.OrderTypeLimit && c.OrderType != types.OrderTypeMarket {
		errs = append(errs, "order_type must be LIMIT or MARKET")
	}
	one := decimal.NewFromInt(1)
	if c.StopLoss.IsNegative() || c.StopLoss.GreaterThanOrEqual(one) {
		errs = append(errs, "stop_loss must be in [0, 1)")
	}
	if c.TakeProfit.IsNegative() || c.TakeProfit.GreaterThanOrEqual(one) {
		errs = append(errs, "take_profit must be in [0, 1)")
	}
	if c.TimeLimit <= 0 {
		errs = append(errs, "time_limit must be positive")
	}
	if c.Timestamp.IsZero() {
		errs = append(errs, "timestamp is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", types.ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}
