// Package main is the entry point for the position bot.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/posbotio/posbot/internal/alerting"
	"github.com/posbotio/posbot/internal/clock"
	"github.com/posbotio/posbot/internal/config"
	"github.com/posbotio/posbot/internal/connector/paper"
	"github.com/posbotio/posbot/internal/metrics"
	"github.com/posbotio/posbot/internal/persistence"
	"github.com/posbotio/posbot/internal/runner"
)

// Version information (set by build flags).
var (
	Version   = "0.3.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Parse command
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version", "-v", "--version":
		cmdVersion()
	case "help", "-h", "--help":
		printUsage()
	case "run":
		cmdRun(os.Args[2:])
	case "history":
		cmdHistory(os.Args[2:])
	case "validate":
		cmdValidate(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Position Bot - Stop-Loss/Take-Profit Order Lifecycle Controller

Usage:
  posbot <command> [options]

Commands:
  run        Start the bot against the simulated venue
  history    Show journaled positions from the database
  validate   Validate configuration file
  version    Show version information
  help       Show this help message

Examples:
  posbot run --config config.yaml
  posbot run --config config.yaml --for 10m
  posbot history --db posbot.db --limit 20
  posbot validate --config config.yaml

Use "posbot <command> --help" for more information about a command.`)
}

func cmdVersion() {
	fmt.Printf("posbot version %s\n", Version)
	fmt.Printf("  Build time: %s\n", BuildTime)
	fmt.Printf("  Git commit: %s\n", GitCommit)
}

func cmdValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Configuration is valid!")
	fmt.Printf("  Trading pair: %s\n", cfg.Position.TradingPair)
	fmt.Printf("  Side: %s\n", cfg.Position.Side)
	fmt.Printf("  Amount: %v\n", cfg.Position.Amount)
	fmt.Printf("  Stop loss: %.1f%%\n", cfg.Position.StopLoss*100)
	fmt.Printf("  Take profit: %.1f%%\n", cfg.Position.TakeProfit*100)
	fmt.Printf("  Time limit: %s\n", cfg.TimeLimit())
}

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	runFor := fs.Duration("for", 0, "Stop after this duration (0 = run until signal)")
	fs.Parse(args)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *runFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *runFor)
		defer cancel()
	}

	slog.Info("posbot starting",
		"version", Version,
		"venue", cfg.Venue.Name,
		"pair", cfg.Position.TradingPair,
		"side", cfg.Position.Side,
	)
	metrics.SetBuildInfo(Version, GitCommit, BuildTime)

	clk := clock.NewSystem()

	// Simulated venue, seeded with the configured starting price.
	venue := paper.NewExchange(cfg.ToVenueConfig(), clk, logger)
	defer venue.Close()
	venue.SetMidPrice(cfg.Position.TradingPair, cfg.InitialPriceDecimal())

	var repo persistence.Repository
	if cfg.Persistence.Enabled {
		sqlRepo, err := persistence.NewSQLiteRepository(cfg.Persistence.Path)
		if err != nil {
			slog.Error("failed to open database", "err", err)
			os.Exit(1)
		}
		defer sqlRepo.Close()
		repo = sqlRepo
	}

	alerter, telegram := buildAlerters(cfg, logger)

	bot, err := runner.New(runner.Config{
		TickInterval:  cfg.TickInterval(),
		MaxConcurrent: cfg.Runner.MaxConcurrent,
		AutoReopen:    cfg.Runner.AutoReopen,
		MaxPositions:  cfg.Runner.MaxPositions,
	}, venue, clk, repo, alerter, logger)
	if err != nil {
		slog.Error("failed to build runner", "err", err)
		os.Exit(1)
	}

	var server *metrics.Server
	if cfg.Metrics.Enabled {
		server = newMetricsServer(cfg, bot, logger)
		if err := server.Start(); err != nil {
			slog.Error("failed to start metrics server", "err", err)
			os.Exit(1)
		}
	}

	if err := bot.Start(ctx); err != nil {
		slog.Error("failed to start runner", "err", err)
		os.Exit(1)
	}

	if _, err := bot.OpenPosition(ctx, cfg.ToPositionConfig(clk.Now())); err != nil {
		slog.Error("failed to open position", "err", err)
	}

	// Drive the venue with a random-walk price feed.
	feedDone := make(chan struct{})
	go runPriceFeed(ctx, cfg, venue, feedDone)

	// Wait for shutdown signal, deadline, or a spent position budget
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case <-bot.Done():
		slog.Info("position budget spent, shutting down")
	}
	stop()
	<-feedDone

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := bot.Stop(shutdownCtx); err != nil {
		slog.Error("runner stop failed", "err", err)
	}

	if telegram != nil && cfg.IsAlertEventEnabled(string(alerting.EventSessionSummary)) {
		if err := telegram.SendSessionSummary(shutdownCtx, bot.Summary()); err != nil {
			slog.Warn("failed to send session summary", "err", err)
		}
	}

	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", "err", err)
		}
	}

	slog.Info("posbot shutdown complete")
}

func cmdHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	dbPath := fs.String("db", "posbot.db", "Path to the SQLite database")
	limit := fs.Int("limit", 20, "Maximum number of positions to show")
	pair := fs.String("pair", "", "Filter by trading pair")
	fs.Parse(args)

	repo, err := persistence.NewSQLiteRepository(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	ctx := context.Background()
	var positions []persistence.PositionRecord
	if *pair != "" {
		positions, err = repo.ListPositionsByPair(ctx, *pair, *limit)
	} else {
		positions, err = repo.ListPositions(ctx, *limit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list positions: %v\n", err)
		os.Exit(1)
	}

	if len(positions) == 0 {
		fmt.Println("No positions recorded.")
		return
	}

	printHistory(positions)
}

func printHistory(positions []persistence.PositionRecord) {
	fmt.Println("\n=== POSITION HISTORY ===")
	fmt.Printf("%-12s %-10s %-6s %-22s %10s %10s %9s\n",
		"OPENED", "PAIR", "SIDE", "STATUS", "ENTRY", "CLOSE", "PNL")

	total := decimal.Zero
	wins, losses := 0, 0
	for _, p := range positions {
		closePrice := "-"
		pnl := "-"
		if p.ClosedAt != nil {
			closePrice = p.ClosePrice.StringFixed(2)
			pnl = p.PnL.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
			total = total.Add(p.PnL)
			if p.PnL.IsPositive() {
				wins++
			} else if p.PnL.IsNegative() {
				losses++
			}
		}
		fmt.Printf("%-12s %-10s %-6s %-22s %10s %10s %9s\n",
			p.OpenedAt.Format("01-02 15:04"),
			p.Pair,
			p.Side,
			p.Status,
			p.EntryPrice.StringFixed(2),
			closePrice,
			pnl,
		)
	}

	fmt.Println()
	fmt.Printf("Positions:   %d\n", len(positions))
	fmt.Printf("Wins/Losses: %d/%d\n", wins, losses)
	fmt.Printf("Total PnL:   %s%%\n", total.Mul(decimal.NewFromInt(100)).StringFixed(2))
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if cfg.App.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// buildAlerters assembles the alert fan-out from config. The telegram
// alerter is returned separately so the session summary can be sent on
// shutdown.
func buildAlerters(cfg *config.Config, logger *slog.Logger) (alerting.Alerter, *alerting.TelegramAlerter) {
	if !cfg.Alerting.Enabled {
		return nil, nil
	}

	var alerters []alerting.Alerter
	var telegram *alerting.TelegramAlerter
	for _, ch := range cfg.Alerting.Channels {
		switch ch.Type {
		case "console":
			alerters = append(alerters, alerting.NewConsoleAlerter(logger))
		case "telegram":
			telegram = alerting.NewTelegramAlerter(alerting.TelegramConfig{
				BotToken: ch.BotToken,
				ChatID:   ch.ChatID,
			})
			alerters = append(alerters, telegram)
		}
	}
	if len(alerters) == 0 {
		alerters = append(alerters, alerting.NewConsoleAlerter(logger))
	}

	return alerting.NewMultiAlerter(logger, alerters...), telegram
}

func newMetricsServer(cfg *config.Config, bot *runner.Runner, logger *slog.Logger) *metrics.Server {
	srvCfg := metrics.DefaultServerConfig()
	if cfg.Metrics.Port > 0 {
		srvCfg.Port = cfg.Metrics.Port
	}
	if cfg.Metrics.Path != "" {
		srvCfg.MetricsPath = cfg.Metrics.Path
	}

	server := metrics.NewServer(srvCfg, logger)
	server.SetStatusSource(func() any { return bot.GetSnapshot() })
	server.RegisterHealthCheck("runner", func() metrics.Check {
		if bot.IsRunning() {
			return metrics.Check{Status: "healthy"}
		}
		return metrics.Check{Status: "unhealthy", Message: "runner not running"}
	})

	return server
}

// runPriceFeed drives the simulated venue with a random-walk mid price
// until the context is cancelled.
func runPriceFeed(ctx context.Context, cfg *config.Config, venue *paper.Exchange, done chan<- struct{}) {
	defer close(done)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	mid := cfg.InitialPriceDecimal()
	step := decimal.NewFromInt(int64(cfg.Venue.PriceStepBps)).Div(decimal.NewFromInt(10000))

	ticker := time.NewTicker(cfg.PriceInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			move := mid.Mul(step).Mul(decimal.NewFromFloat(rng.NormFloat64()))
			mid = mid.Add(move)
			if !mid.IsPositive() {
				mid = cfg.InitialPriceDecimal()
			}
			venue.SetMidPrice(cfg.Position.TradingPair, mid)
		}
	}
}
