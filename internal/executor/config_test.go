package executor

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/posbotio/posbot/internal/types"
)

func validConfig() Config {
	return Config{
		Exchange:    "paper",
		TradingPair: "BTC-USDT",
		Side:        types.SideLong,
		Amount:      decimal.NewFromInt(1),
		EntryPrice:  decimal.NewFromInt(100),
		OrderType:   types.OrderTypeLimit,
		StopLoss:    decimal.RequireFromString("0.03"),
		TakeProfit:  decimal.RequireFromString("0.05"),
		TimeLimit:   time.Hour,
		Timestamp:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", nil, ""},
		{"valid market entry", func(c *Config) { c.OrderType = types.OrderTypeMarket }, ""},
		{"valid zero entry hint", func(c *Config) { c.EntryPrice = decimal.Zero }, ""},
		{"valid zero fractions", func(c *Config) {
			c.StopLoss = decimal.Zero
			c.TakeProfit = decimal.Zero
		}, ""},
		{"missing pair", func(c *Config) { c.TradingPair = "" }, "trading_pair"},
		{"invalid side", func(c *Config) { c.Side = types.SideUnknown }, "side"},
		{"zero amount", func(c *Config) { c.Amount = decimal.Zero }, "amount"},
		{"negative amount", func(c *Config) { c.Amount = decimal.NewFromInt(-1) }, "amount"},
		{"negative entry price", func(c *Config) { c.EntryPrice = decimal.NewFromInt(-100) }, "entry_price"},
		{"invalid order type", func(c *Config) { c.OrderType = types.OrderTypeUnknown }, "order_type"},
		{"stop loss at one", func(c *Config) { c.StopLoss = decimal.NewFromInt(1) }, "stop_loss"},
		{"negative stop loss", func(c *Config) { c.StopLoss = decimal.RequireFromString("-0.01") }, "stop_loss"},
		{"take profit above one", func(c *Config) { c.TakeProfit = decimal.RequireFromString("1.5") }, "take_profit"},
		{"zero time limit", func(c *Config) { c.TimeLimit = 0 }, "time_limit"},
		{"negative time limit", func(c *Config) { c.TimeLimit = -time.Minute }, "time_limit"},
		{"zero timestamp", func(c *Config) { c.Timestamp = time.Time{} }, "timestamp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() error = nil, want error")
			}
			if !errors.Is(err, types.ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

// TestConfig_Validate_CollectsAll checks that one pass reports every
// broken field.
func TestConfig_Validate_CollectsAll(t *testing.T) {
	cfg := Config{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() on zero config = nil, want error")
	}
	for _, field := range []string{"trading_pair", "side", "amount", "order_type", "time_limit", "timestamp"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not mention %q", err, field)
		}
	}
}

func TestConfig_EndTime(t *testing.T) {
	cfg := validConfig()
	want := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	if got := cfg.EndTime(); !got.Equal(want) {
		t.Errorf("EndTime() = %v, want %v", got, want)
	}
}
