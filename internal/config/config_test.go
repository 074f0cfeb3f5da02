package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/posbotio/posbot/internal/types"
)

func TestLoadFromBytes_Valid(t *testing.T) {
	yaml := `
app:
  log_level: "debug"
  log_format: "text"

venue:
  name: "paper"
  slippage_bps: 5
  rate_per_second: 20
  rate_burst: 10
  initial_price: 30000.0
  price_step_bps: 10
  price_interval_ms: 250

position:
  trading_pair: "BTC-USDT"
  side: "long"
  amount: 0.5
  entry_price: 29950.0
  order_type: "limit"
  stop_loss: 0.03
  take_profit: 0.05
  time_limit_sec: 3600

runner:
  tick_interval_ms: 500
  max_concurrent: 2
  auto_reopen: true

persistence:
  enabled: false
`

	cfg, err := LoadFromBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify values
	if cfg.Position.TradingPair != "BTC-USDT" {
		t.Errorf("TradingPair = %s, want BTC-USDT", cfg.Position.TradingPair)
	}

	if cfg.Position.Side != "long" {
		t.Errorf("Side = %s, want long", cfg.Position.Side)
	}

	if cfg.Venue.InitialPrice != 30000.0 {
		t.Errorf("InitialPrice = %f, want 30000.0", cfg.Venue.InitialPrice)
	}

	if cfg.Runner.MaxConcurrent != 2 {
		t.Errorf("MaxConcurrent = %d, want 2", cfg.Runner.MaxConcurrent)
	}

	if !cfg.Runner.AutoReopen {
		t.Error("AutoReopen = false, want true")
	}

	if cfg.Position.StopLoss != 0.03 {
		t.Errorf("StopLoss = %f, want 0.03", cfg.Position.StopLoss)
	}
}

func TestLoadFromBytes_Defaults(t *testing.T) {
	yaml := `
venue:
  initial_price: 100.0

position:
  trading_pair: "BTC-USDT"
  side: "long"
  amount: 1.0
  order_type: "market"
  stop_loss: 0.03
  take_profit: 0.05
  time_limit_sec: 60
`

	cfg, err := LoadFromBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Venue.Name != "paper" {
		t.Errorf("Venue.Name = %s, want paper", cfg.Venue.Name)
	}

	if cfg.Position.Exchange != "paper" {
		t.Errorf("Exchange = %s, want paper", cfg.Position.Exchange)
	}

	if cfg.Runner.TickIntervalMs != 1000 {
		t.Errorf("TickIntervalMs = %d, want 1000", cfg.Runner.TickIntervalMs)
	}

	if cfg.Runner.MaxConcurrent != 1 {
		t.Errorf("MaxConcurrent = %d, want 1", cfg.Runner.MaxConcurrent)
	}

	if cfg.Venue.PriceIntervalMs != 500 {
		t.Errorf("PriceIntervalMs = %d, want 500", cfg.Venue.PriceIntervalMs)
	}
}

func TestLoadFromBytes_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "missing trading pair",
			yaml: `
venue:
  initial_price: 100.0
position:
  side: "long"
  amount: 1.0
  order_type: "limit"
  stop_loss: 0.03
  take_profit: 0.05
  time_limit_sec: 60
`,
			wantErr: "trading_pair is required",
		},
		{
			name: "invalid side",
			yaml: `
venue:
  initial_price: 100.0
position:
  trading_pair: "BTC-USDT"
  side: "sideways"
  amount: 1.0
  order_type: "limit"
  stop_loss: 0.03
  take_profit: 0.05
  time_limit_sec: 60
`,
			wantErr: "must be long or short",
		},
		{
			name: "negative amount",
			yaml: `
venue:
  initial_price: 100.0
position:
  trading_pair: "BTC-USDT"
  side: "long"
  amount: -1.0
  order_type: "limit"
  stop_loss: 0.03
  take_profit: 0.05
  time_limit_sec: 60
`,
			wantErr: "amount must be positive",
		},
		{
			name: "stop loss too large",
			yaml: `
venue:
  initial_price: 100.0
position:
  trading_pair: "BTC-USDT"
  side: "long"
  amount: 1.0
  order_type: "limit"
  stop_loss: 1.5
  take_profit: 0.05
  time_limit_sec: 60
`,
			wantErr: "stop_loss must be between 0 and 1",
		},
		{
			name: "invalid order type",
			yaml: `
venue:
  initial_price: 100.0
position:
  trading_pair: "BTC-USDT"
  side: "long"
  amount: 1.0
  order_type: "stop"
  stop_loss: 0.03
  take_profit: 0.05
  time_limit_sec: 60
`,
			wantErr: "must be limit or market",
		},
		{
			name: "missing time limit",
			yaml: `
venue:
  initial_price: 100.0
position:
  trading_pair: "BTC-USDT"
  side: "long"
  amount: 1.0
  order_type: "limit"
  stop_loss: 0.03
  take_profit: 0.05
`,
			wantErr: "time_limit_sec must be positive",
		},
		{
			name: "missing initial price",
			yaml: `
position:
  trading_pair: "BTC-USDT"
  side: "long"
  amount: 1.0
  order_type: "limit"
  stop_loss: 0.03
  take_profit: 0.05
  time_limit_sec: 60
`,
			wantErr: "initial_price must be positive",
		},
		{
			name: "sqlite without path",
			yaml: `
venue:
  initial_price: 100.0
position:
  trading_pair: "BTC-USDT"
  side: "long"
  amount: 1.0
  order_type: "limit"
  stop_loss: 0.03
  take_profit: 0.05
  time_limit_sec: 60
persistence:
  enabled: true
`,
			wantErr: "persistence.path is required",
		},
		{
			name: "telegram without token",
			yaml: `
venue:
  initial_price: 100.0
position:
  trading_pair: "BTC-USDT"
  side: "long"
  amount: 1.0
  order_type: "limit"
  stop_loss: 0.03
  take_profit: 0.05
  time_limit_sec: 60
alerting:
  enabled: true
  channels:
    - type: telegram
      chat_id: "12345"
`,
			wantErr: "telegram requires bot_token",
		},
		{
			name: "unknown channel type",
			yaml: `
venue:
  initial_price: 100.0
position:
  trading_pair: "BTC-USDT"
  side: "long"
  amount: 1.0
  order_type: "limit"
  stop_loss: 0.03
  take_profit: 0.05
  time_limit_sec: 60
alerting:
  enabled: true
  channels:
    - type: pager
`,
			wantErr: "type must be 'console' or 'telegram'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.yaml))
			if err == nil {
				t.Error("Expected error, got nil")
				return
			}
			if tt.wantErr != "" && !contains(err.Error(), tt.wantErr) {
				t.Errorf("Error = %v, want to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ToPositionConfig(t *testing.T) {
	cfg := &Config{
		Position: PositionConfig{
			Exchange:     "paper",
			TradingPair:  "ETH-USDT",
			Side:         "short",
			Amount:       2.5,
			EntryPrice:   2000.0,
			OrderType:    "limit",
			StopLoss:     0.02,
			TakeProfit:   0.04,
			TimeLimitSec: 900,
		},
	}

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	pos := cfg.ToPositionConfig(now)

	if pos.TradingPair != "ETH-USDT" {
		t.Errorf("TradingPair = %s, want ETH-USDT", pos.TradingPair)
	}

	if pos.Side != types.SideShort {
		t.Errorf("Side = %s, want SHORT", pos.Side)
	}

	if pos.OrderType != types.OrderTypeLimit {
		t.Errorf("OrderType = %s, want LIMIT", pos.OrderType)
	}

	if !pos.Amount.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("Amount = %s, want 2.5", pos.Amount)
	}

	if !pos.StopLoss.Equal(decimal.RequireFromString("0.02")) {
		t.Errorf("StopLoss = %s, want 0.02", pos.StopLoss)
	}

	if pos.TimeLimit != 15*time.Minute {
		t.Errorf("TimeLimit = %v, want 15m", pos.TimeLimit)
	}

	if !pos.Timestamp.Equal(now) {
		t.Errorf("Timestamp = %v, want %v", pos.Timestamp, now)
	}

	wantEnd := now.Add(15 * time.Minute)
	if !pos.EndTime().Equal(wantEnd) {
		t.Errorf("EndTime = %v, want %v", pos.EndTime(), wantEnd)
	}
}

func TestConfig_ToVenueConfig(t *testing.T) {
	cfg := &Config{
		Venue: VenueConfig{
			Name:          "paper",
			SlippageBps:   7,
			FillChunks:    3,
			RatePerSecond: 50,
			RateBurst:     25,
		},
	}

	venue := cfg.ToVenueConfig()

	if venue.Name != "paper" {
		t.Errorf("Name = %s, want paper", venue.Name)
	}

	if venue.SlippageBps != 7 {
		t.Errorf("SlippageBps = %d, want 7", venue.SlippageBps)
	}

	if venue.FillChunks != 3 {
		t.Errorf("FillChunks = %d, want 3", venue.FillChunks)
	}

	if venue.RatePerSecond != 50 {
		t.Errorf("RatePerSecond = %f, want 50", venue.RatePerSecond)
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := &Config{
		Position: PositionConfig{
			TimeLimitSec: 3600,
		},
		Runner: RunnerConfig{
			TickIntervalMs: 500,
		},
		Venue: VenueConfig{
			PriceIntervalMs: 250,
		},
	}

	if cfg.TimeLimit().Seconds() != 3600 {
		t.Errorf("TimeLimit = %v, want 1h", cfg.TimeLimit())
	}

	if cfg.TickInterval().Milliseconds() != 500 {
		t.Errorf("TickInterval = %v, want 500ms", cfg.TickInterval())
	}

	if cfg.PriceInterval().Milliseconds() != 250 {
		t.Errorf("PriceInterval = %v, want 250ms", cfg.PriceInterval())
	}
}

func TestConfig_LogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		cfg := &Config{App: AppConfig{LogLevel: tt.level}}
		if got := cfg.LogLevel(); got != tt.want {
			t.Errorf("LogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestLoad_FromFile(t *testing.T) {
	// Create temp config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yaml := `
venue:
  initial_price: 50000.0

position:
  trading_pair: "BTC-USDT"
  side: "short"
  amount: 0.1
  order_type: "market"
  stop_loss: 0.01
  take_profit: 0.02
  time_limit_sec: 120
`

	if err := os.WriteFile(configPath, []byte(yaml), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Venue.InitialPrice != 50000.0 {
		t.Errorf("InitialPrice = %f, want 50000.0", cfg.Venue.InitialPrice)
	}

	if cfg.Position.Side != "short" {
		t.Errorf("Side = %s, want short", cfg.Position.Side)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	// Set environment variable
	os.Setenv("TEST_BOT_TOKEN", "my-secret-token")
	defer os.Unsetenv("TEST_BOT_TOKEN")

	yaml := `
venue:
  initial_price: 100.0

position:
  trading_pair: "BTC-USDT"
  side: "long"
  amount: 1.0
  order_type: "limit"
  stop_loss: 0.03
  take_profit: 0.05
  time_limit_sec: 60

alerting:
  enabled: true
  channels:
    - type: telegram
      bot_token: "${TEST_BOT_TOKEN}"
      chat_id: "12345"
`

	cfg, err := LoadFromBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if len(cfg.Alerting.Channels) == 0 {
		t.Fatal("Expected alerting channels")
	}

	if cfg.Alerting.Channels[0].BotToken != "my-secret-token" {
		t.Errorf("BotToken = %s, want my-secret-token", cfg.Alerting.Channels[0].BotToken)
	}
}

func TestConfig_IsAlertEventEnabled(t *testing.T) {
	cfg := &Config{
		Alerting: AlertingConfig{
			Enabled: true,
			Events:  []string{"stop_loss_hit", "take_profit_hit"},
		},
	}

	if !cfg.IsAlertEventEnabled("stop_loss_hit") {
		t.Error("stop_loss_hit should be enabled")
	}

	if cfg.IsAlertEventEnabled("bot_started") {
		t.Error("bot_started should not be enabled")
	}

	// Empty events list enables everything
	cfg.Alerting.Events = nil
	if !cfg.IsAlertEventEnabled("bot_started") {
		t.Error("all events should be enabled when list is empty")
	}

	// Disabled alerting disables everything
	cfg.Alerting.Enabled = false
	if cfg.IsAlertEventEnabled("stop_loss_hit") {
		t.Error("no events should be enabled when alerting is off")
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(s) > 0 && containsHelper(s, substr))
}

func containsHelper(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
