// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/posbotio/posbot/internal/connector/paper"
	"github.com/posbotio/posbot/internal/executor"
	"github.com/posbotio/posbot/internal/types"
)

// Config represents the full application configuration.
type Config struct {
	App         AppConfig         `yaml:"app"`
	Venue       VenueConfig       `yaml:"venue"`
	Position    PositionConfig    `yaml:"position"`
	Runner      RunnerConfig      `yaml:"runner"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Alerting    AlertingConfig    `yaml:"alerting"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// AppConfig holds process-wide settings.
type AppConfig struct {
	LogLevel  string `yaml:"log_level"`  // debug | info | warn | error
	LogFormat string `yaml:"log_format"` // text | json
}

// VenueConfig holds simulated venue settings, including the random-walk
// price feed that drives it.
type VenueConfig struct {
	Name            string  `yaml:"name"`
	SlippageBps     int64   `yaml:"slippage_bps"`
	FillChunks      int     `yaml:"fill_chunks"`
	RatePerSecond   float64 `yaml:"rate_per_second"`
	RateBurst       int     `yaml:"rate_burst"`
	InitialPrice    float64 `yaml:"initial_price"`
	PriceStepBps    int     `yaml:"price_step_bps"`
	PriceIntervalMs int     `yaml:"price_interval_ms"`
}

// PositionConfig holds the position template the bot trades.
type PositionConfig struct {
	Exchange     string  `yaml:"exchange"`
	TradingPair  string  `yaml:"trading_pair"`
	Side         string  `yaml:"side"`        // long | short
	Amount       float64 `yaml:"amount"`      // base units
	EntryPrice   float64 `yaml:"entry_price"` // 0 = use current mid
	OrderType    string  `yaml:"order_type"`  // limit | market
	StopLoss     float64 `yaml:"stop_loss"`   // fraction, e.g. 0.03
	TakeProfit   float64 `yaml:"take_profit"` // fraction, e.g. 0.05
	TimeLimitSec int     `yaml:"time_limit_sec"`
}

// RunnerConfig holds position lifecycle loop settings.
type RunnerConfig struct {
	TickIntervalMs int  `yaml:"tick_interval_ms"`
	MaxConcurrent  int  `yaml:"max_concurrent"`
	AutoReopen     bool `yaml:"auto_reopen"`
	MaxPositions   int  `yaml:"max_positions"` // total per session, 0 = unlimited
}

// PersistenceConfig holds persistence settings.
type PersistenceConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// AlertingConfig holds alerting settings.
type AlertingConfig struct {
	Enabled  bool            `yaml:"enabled"`
	Channels []ChannelConfig `yaml:"channels"`
	Events   []string        `yaml:"events"`
}

// ChannelConfig holds a single alert channel configuration.
type ChannelConfig struct {
	Type     string `yaml:"type"` // console | telegram
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// Load loads configuration from a YAML file. A .env file in the working
// directory is loaded first so ${VAR} references can resolve against it.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromBytes loads configuration from YAML bytes.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration and fills in defaults.
func (c *Config) Validate() error {
	var errs []string

	// Venue validation
	if c.Venue.Name == "" {
		c.Venue.Name = "paper" // default
	}
	if c.Venue.SlippageBps < 0 {
		errs = append(errs, "venue.slippage_bps must not be negative")
	}
	if c.Venue.InitialPrice <= 0 {
		errs = append(errs, "venue.initial_price must be positive")
	}
	if c.Venue.PriceStepBps <= 0 {
		c.Venue.PriceStepBps = 10 // default
	}
	if c.Venue.PriceIntervalMs <= 0 {
		c.Venue.PriceIntervalMs = 500 // default
	}

	// Position validation
	if c.Position.Exchange == "" {
		c.Position.Exchange = c.Venue.Name
	}
	if c.Position.TradingPair == "" {
		errs = append(errs, "position.trading_pair is required")
	}
	if _, err := types.ParseSide(c.Position.Side); err != nil {
		errs = append(errs, fmt.Sprintf("position.side '%s' must be long or short", c.Position.Side))
	}
	if c.Position.Amount <= 0 {
		errs = append(errs, "position.amount must be positive")
	}
	if c.Position.EntryPrice < 0 {
		errs = append(errs, "position.entry_price must not be negative")
	}
	if _, err := types.ParseOrderType(c.Position.OrderType); err != nil {
		errs = append(errs, fmt.Sprintf("position.order_type '%s' must be limit or market", c.Position.OrderType))
	}
	if c.Position.StopLoss < 0 || c.Position.StopLoss >= 1 {
		errs = append(errs, "position.stop_loss must be between 0 and 1")
	}
	if c.Position.TakeProfit < 0 || c.Position.TakeProfit >= 1 {
		errs = append(errs, "position.take_profit must be between 0 and 1")
	}
	if c.Position.TimeLimitSec <= 0 {
		errs = append(errs, "position.time_limit_sec must be positive")
	}

	// Runner validation
	if c.Runner.TickIntervalMs <= 0 {
		c.Runner.TickIntervalMs = 1000 // default
	}
	if c.Runner.MaxConcurrent < 1 {
		c.Runner.MaxConcurrent = 1 // default
	}

	// Persistence validation
	if c.Persistence.Enabled && c.Persistence.Path == "" {
		errs = append(errs, "persistence.path is required when persistence is enabled")
	}

	// Alerting validation
	if c.Alerting.Enabled {
		for i, ch := range c.Alerting.Channels {
			switch ch.Type {
			case "console":
			case "telegram":
				if ch.BotToken == "" {
					errs = append(errs, fmt.Sprintf("alerting.channels[%d]: telegram requires bot_token", i))
				}
				if ch.ChatID == "" {
					errs = append(errs, fmt.Sprintf("alerting.channels[%d]: telegram requires chat_id", i))
				}
			default:
				errs = append(errs, fmt.Sprintf("alerting.channels[%d]: type must be 'console' or 'telegram'", i))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", types.ErrInvalidConfig, strings.Join(errs, "; "))
	}

	return nil
}

// ToPositionConfig builds the executor config for one position opened
// at the given time. Validate must have been called first.
func (c *Config) ToPositionConfig(now time.Time) executor.Config {
	side, _ := types.ParseSide(c.Position.Side)
	orderType, _ := types.ParseOrderType(c.Position.OrderType)
	return executor.Config{
		Exchange:    c.Position.Exchange,
		TradingPair: c.Position.TradingPair,
		Side:        side,
		Amount:      decimal.NewFromFloat(c.Position.Amount),
		EntryPrice:  decimal.NewFromFloat(c.Position.EntryPrice),
		OrderType:   orderType,
		StopLoss:    decimal.NewFromFloat(c.Position.StopLoss),
		TakeProfit:  decimal.NewFromFloat(c.Position.TakeProfit),
		TimeLimit:   c.TimeLimit(),
		Timestamp:   now,
	}
}

// ToVenueConfig converts to the simulated venue's config.
func (c *Config) ToVenueConfig() paper.Config {
	return paper.Config{
		Name:          c.Venue.Name,
		SlippageBps:   c.Venue.SlippageBps,
		FillChunks:    c.Venue.FillChunks,
		RatePerSecond: c.Venue.RatePerSecond,
		RateBurst:     c.Venue.RateBurst,
	}
}

// InitialPriceDecimal returns the feed's starting price as decimal.
func (c *Config) InitialPriceDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.Venue.InitialPrice)
}

// TimeLimit returns the position time limit duration.
func (c *Config) TimeLimit() time.Duration {
	return time.Duration(c.Position.TimeLimitSec) * time.Second
}

// TickInterval returns the runner tick interval duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Runner.TickIntervalMs) * time.Millisecond
}

// PriceInterval returns the price feed update interval duration.
func (c *Config) PriceInterval() time.Duration {
	return time.Duration(c.Venue.PriceIntervalMs) * time.Millisecond
}

// LogLevel returns the slog level for the configured log_level string.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsAlertEventEnabled checks if an alert event type is enabled.
func (c *Config) IsAlertEventEnabled(event string) bool {
	if !c.Alerting.Enabled {
		return false
	}
	// If no events specified, all are enabled
	if len(c.Alerting.Events) == 0 {
		return true
	}
	for _, e := range c.Alerting.Events {
		if e == event || e == "all" {
			return true
		}
	}
	return false
}
