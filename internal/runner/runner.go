// Package runner owns the set of live position executors: it drives
// their control loops, journals their lifecycle, and reports outcomes.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/posbotio/posbot/internal/alerting"
	"github.com/posbotio/posbot/internal/clock"
	"github.com/posbotio/posbot/internal/connector"
	"github.com/posbotio/posbot/internal/executor"
	"github.com/posbotio/posbot/internal/metrics"
	"github.com/posbotio/posbot/internal/persistence"
	"github.com/posbotio/posbot/internal/types"
)

// Config holds runner configuration.
type Config struct {
	TickInterval  time.Duration
	MaxConcurrent int
	// AutoReopen opens a fresh position with the same parameters once
	// the previous one finishes. Used in paper trading demos.
	AutoReopen bool
	// MaxPositions caps the total positions opened in one session.
	// Once the cap is spent and every executor has finished, Done
	// fires. Zero means no cap.
	MaxPositions int
}

// DefaultConfig returns default runner config.
func DefaultConfig() Config {
	return Config{
		TickInterval:  time.Second,
		MaxConcurrent: 1,
	}
}

// Runner coordinates position executors over one venue connection.
type Runner struct {
	cfg      Config
	conn     connector.Connector
	clk      clock.Clock
	repo     persistence.Repository
	alerter  alerting.Alerter
	logger   *slog.Logger
	recorder *metrics.Recorder

	// State
	mu           sync.RWMutex
	running      bool
	executors    map[string]*executor.PositionExecutor
	template     *executor.Config
	outcomes     []alerting.PositionOutcome
	opened       int
	finished     bool
	sessionStart time.Time
	startedAt    time.Time

	// Channels
	done        chan struct{}
	sessionDone chan struct{}
	wg          sync.WaitGroup
}

// New creates a runner. The repository and alerter may be nil, which
// disables journaling and alerts respectively.
func New(
	cfg Config,
	conn connector.Connector,
	clk clock.Clock,
	repo persistence.Repository,
	alerter alerting.Alerter,
	logger *slog.Logger,
) (*Runner, error) {
	if conn == nil {
		return nil, fmt.Errorf("%w: connector is required", types.ErrInvalidConfig)
	}
	if clk == nil {
		return nil, fmt.Errorf("%w: clock is required", types.ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}

	return &Runner{
		cfg:         cfg,
		conn:        conn,
		clk:         clk,
		repo:        repo,
		alerter:     alerter,
		logger:      logger.With("component", "runner"),
		recorder:    metrics.NewRecorder(),
		executors:   make(map[string]*executor.PositionExecutor),
		done:        make(chan struct{}),
		sessionDone: make(chan struct{}),
	}, nil
}

// Start starts the runner's tick loop.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("runner already running")
	}
	r.running = true
	r.sessionStart = r.clk.Now()
	r.startedAt = time.Now()
	r.mu.Unlock()

	r.logger.Info("runner starting",
		"tick_interval", r.cfg.TickInterval,
		"max_concurrent", r.cfg.MaxConcurrent,
		"auto_reopen", r.cfg.AutoReopen,
		"max_positions", r.cfg.MaxPositions,
	)

	r.wg.Add(1)
	go r.loop(ctx)

	if r.alerter != nil {
		if err := r.alerter.Alert(ctx, alerting.EventSeverity(alerting.EventBotStarted), "Position bot started",
			"tick_interval", r.cfg.TickInterval.String(),
			"max_concurrent", r.cfg.MaxConcurrent,
		); err != nil {
			r.logger.Warn("failed to send start alert", "err", err)
		}
	}

	return nil
}

// OpenPosition builds an executor for cfg, starts it, and registers it
// under a fresh position id. It fails when the runner is not running
// or the concurrency cap is reached.
func (r *Runner) OpenPosition(ctx context.Context, cfg executor.Config) (string, error) {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return "", fmt.Errorf("runner is not running")
	}
	if len(r.executors) >= r.cfg.MaxConcurrent {
		r.mu.Unlock()
		return "", types.ErrMaxPositions
	}
	if r.cfg.MaxPositions > 0 && r.opened >= r.cfg.MaxPositions {
		r.mu.Unlock()
		return "", types.ErrMaxPositions
	}
	r.mu.Unlock()

	exec, err := executor.New(cfg, r.conn, r.clk, r.logger)
	if err != nil {
		return "", err
	}
	if err := exec.Start(ctx); err != nil {
		return "", err
	}

	id := uuid.NewString()

	r.mu.Lock()
	// Re-check the caps: another open may have won the race.
	if len(r.executors) >= r.cfg.MaxConcurrent ||
		(r.cfg.MaxPositions > 0 && r.opened >= r.cfg.MaxPositions) {
		r.mu.Unlock()
		exec.Stop()
		return "", types.ErrMaxPositions
	}
	r.executors[id] = exec
	r.opened++
	if r.cfg.AutoReopen {
		tmpl := cfg
		r.template = &tmpl
	}
	r.mu.Unlock()

	r.journalOpen(ctx, id, exec)

	r.logger.Info("position registered",
		"id", id,
		"pair", cfg.TradingPair,
		"side", cfg.Side,
		"amount", cfg.Amount,
		"end_time", cfg.EndTime(),
	)

	return id, nil
}

// loop drives every live executor at the configured interval.
func (r *Runner) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("tick loop stopped: context cancelled")
			return
		case <-r.done:
			r.logger.Info("tick loop stopped: shutdown requested")
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// tick advances every executor once, then sweeps up finished ones.
func (r *Runner) tick(ctx context.Context) {
	for _, p := range r.live() {
		p.exec.Tick()
	}

	r.observe()
	r.harvest(ctx)
	r.reopen(ctx)
	r.maybeFinish()

	r.recorder.RecordHeartbeat()
	r.recorder.RecordUptime(time.Since(r.startedAt))
}

type livePosition struct {
	id   string
	exec *executor.PositionExecutor
}

func (r *Runner) live() []livePosition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]livePosition, 0, len(r.executors))
	for id, exec := range r.executors {
		out = append(out, livePosition{id: id, exec: exec})
	}
	return out
}

// observe refreshes per-pair market gauges.
func (r *Runner) observe() {
	seen := make(map[string]bool)
	for _, p := range r.live() {
		pair := p.exec.Config().TradingPair
		if !seen[pair] {
			seen[pair] = true
			if mid, err := r.conn.MidPrice(pair); err == nil {
				r.recorder.RecordMidPrice(pair, mid)
			}
		}
		if p.exec.Status() == executor.StatusActivePosition {
			r.recorder.RecordUnrealizedPnL(pair, p.exec.PnL())
		}
	}
}

// harvest removes executors that reached a terminal state and settles
// their bookkeeping.
func (r *Runner) harvest(ctx context.Context) {
	r.mu.Lock()
	var finished []livePosition
	for id, exec := range r.executors {
		if exec.IsClosed() {
			finished = append(finished, livePosition{id: id, exec: exec})
			delete(r.executors, id)
		}
	}
	r.mu.Unlock()

	for _, p := range finished {
		p.exec.Stop()
		r.finalize(ctx, p.id, p.exec)
	}
}

// finalize journals a finished position, records its outcome, and
// sends the close alert.
func (r *Runner) finalize(ctx context.Context, id string, exec *executor.PositionExecutor) {
	cfg := exec.Config()
	status := exec.Status()
	reason := status.CloseReason()
	entry := exec.EntryPrice()
	closePrice, _ := exec.ClosePrice()
	pnl := exec.PnL()
	closedAt, ok := exec.CloseTimestamp()
	if !ok {
		closedAt = r.clk.Now()
	}

	r.logger.Info("position finished",
		"id", id,
		"pair", cfg.TradingPair,
		"side", cfg.Side,
		"status", status,
		"entry_price", entry,
		"close_price", closePrice,
		"pnl", pnl,
	)

	if r.repo != nil {
		closeRec := persistence.PositionClose{
			Status:     status.String(),
			EntryPrice: entry,
			ClosePrice: closePrice,
			PnL:        pnl,
			ClosedAt:   closedAt,
		}
		if err := r.repo.ClosePosition(ctx, id, closeRec); err != nil {
			r.logger.Error("failed to journal position close", "id", id, "err", err)
			r.recorder.RecordError("journal")
		}
		r.journalOrders(ctx, id, exec)
	}

	r.mu.Lock()
	r.outcomes = append(r.outcomes, alerting.PositionOutcome{
		Pair:   cfg.TradingPair,
		Side:   cfg.Side.String(),
		Reason: reason,
		PnL:    pnl,
	})
	r.mu.Unlock()

	if r.alerter != nil {
		event := alerting.EventForCloseReason(reason)
		if err := r.alerter.Alert(ctx, alerting.EventSeverity(event), closeMessage(status),
			"pair", cfg.TradingPair,
			"side", cfg.Side.String(),
			"entry", entry.String(),
			"close", closePrice.String(),
			"pnl", pnl.Mul(decimal.NewFromInt(100)).StringFixed(2)+"%",
		); err != nil {
			r.logger.Warn("failed to send close alert", "err", err)
		}
	}
}

// reopen starts the next position when auto-reopen is on and nothing
// is live.
func (r *Runner) reopen(ctx context.Context) {
	if !r.cfg.AutoReopen {
		return
	}

	r.mu.RLock()
	running := r.running
	empty := len(r.executors) == 0
	tmpl := r.template
	opened := r.opened
	r.mu.RUnlock()

	if !running || !empty || tmpl == nil {
		return
	}
	if r.cfg.MaxPositions > 0 && opened >= r.cfg.MaxPositions {
		return
	}

	cfg := *tmpl
	cfg.Timestamp = r.clk.Now()
	if _, err := r.OpenPosition(ctx, cfg); err != nil {
		r.logger.Error("failed to reopen position", "err", err)
		r.recorder.RecordError("reopen")
	}
}

// maybeFinish fires the session-done signal once the position budget
// is spent and nothing is live.
func (r *Runner) maybeFinish() {
	if r.cfg.MaxPositions <= 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finished || r.opened < r.cfg.MaxPositions || len(r.executors) != 0 {
		return
	}
	r.finished = true
	close(r.sessionDone)
	r.logger.Info("position budget spent", "opened", r.opened)
}

// Done is closed once MaxPositions positions have opened and finished.
// With no cap configured it never fires.
func (r *Runner) Done() <-chan struct{} {
	return r.sessionDone
}

// Stop stops the tick loop and every remaining executor, journaling
// their last known state.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	r.mu.Unlock()

	r.logger.Info("runner stopping")

	close(r.done)
	r.wg.Wait()

	r.mu.Lock()
	remaining := make([]livePosition, 0, len(r.executors))
	for id, exec := range r.executors {
		remaining = append(remaining, livePosition{id: id, exec: exec})
	}
	r.executors = make(map[string]*executor.PositionExecutor)
	r.mu.Unlock()

	for _, p := range remaining {
		p.exec.Stop()
		r.journalSnapshot(ctx, p.id, p.exec)
	}

	summary := r.Summary()
	if r.alerter != nil {
		if err := r.alerter.Alert(ctx, alerting.EventSeverity(alerting.EventBotStopped), "Position bot stopped",
			"positions", summary.TotalPositions,
			"wins", summary.Wins,
			"losses", summary.Losses,
			"total_pnl", summary.TotalPnL.Mul(decimal.NewFromInt(100)).StringFixed(2)+"%",
		); err != nil {
			r.logger.Warn("failed to send stop alert", "err", err)
		}
	}

	r.logger.Info("runner stopped", "positions", summary.TotalPositions)
	return nil
}

// IsRunning returns true if the tick loop is active.
func (r *Runner) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// Summary builds the session summary from the outcomes so far.
func (r *Runner) Summary() alerting.SessionSummary {
	r.mu.RLock()
	start := r.sessionStart
	outcomes := make([]alerting.PositionOutcome, len(r.outcomes))
	copy(outcomes, r.outcomes)
	r.mu.RUnlock()

	return alerting.NewSessionSummary(start, r.clk.Now(), outcomes)
}

// PositionStatus is one live position in a runner snapshot.
type PositionStatus struct {
	ID         string          `json:"id"`
	Pair       string          `json:"pair"`
	Side       string          `json:"side"`
	Status     string          `json:"status"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	PnL        decimal.Decimal `json:"pnl"`
	EndTime    time.Time       `json:"end_time"`
}

// Snapshot is the runner state served on the status endpoint.
type Snapshot struct {
	Running         bool             `json:"running"`
	SessionStart    time.Time        `json:"session_start"`
	OpenPositions   []PositionStatus `json:"open_positions"`
	ClosedPositions int              `json:"closed_positions"`
	TotalPnL        decimal.Decimal  `json:"total_pnl"`
}

// GetSnapshot returns the current runner state.
func (r *Runner) GetSnapshot() Snapshot {
	r.mu.RLock()
	snap := Snapshot{
		Running:         r.running,
		SessionStart:    r.sessionStart,
		ClosedPositions: len(r.outcomes),
	}
	for _, o := range r.outcomes {
		snap.TotalPnL = snap.TotalPnL.Add(o.PnL)
	}
	live := make([]livePosition, 0, len(r.executors))
	for id, exec := range r.executors {
		live = append(live, livePosition{id: id, exec: exec})
	}
	r.mu.RUnlock()

	for _, p := range live {
		cfg := p.exec.Config()
		snap.OpenPositions = append(snap.OpenPositions, PositionStatus{
			ID:         p.id,
			Pair:       cfg.TradingPair,
			Side:       cfg.Side.String(),
			Status:     p.exec.Status().String(),
			EntryPrice: p.exec.EntryPrice(),
			PnL:        p.exec.PnL(),
			EndTime:    cfg.EndTime(),
		})
	}

	return snap
}

// journalOpen writes the initial position row.
func (r *Runner) journalOpen(ctx context.Context, id string, exec *executor.PositionExecutor) {
	if r.repo == nil {
		return
	}

	cfg := exec.Config()
	rec := persistence.PositionRecord{
		ID:         id,
		Exchange:   cfg.Exchange,
		Pair:       cfg.TradingPair,
		Side:       cfg.Side,
		Amount:     cfg.Amount,
		OrderType:  cfg.OrderType,
		StopLoss:   cfg.StopLoss,
		TakeProfit: cfg.TakeProfit,
		TimeLimit:  cfg.TimeLimit,
		OpenedAt:   cfg.Timestamp,
		Status:     exec.Status().String(),
		EntryPrice: exec.EntryPrice(),
	}
	if err := r.repo.SavePosition(ctx, rec); err != nil {
		r.logger.Error("failed to journal position", "id", id, "err", err)
		r.recorder.RecordError("journal")
	}
}

// journalSnapshot refreshes the row of a position that is still open
// at shutdown.
func (r *Runner) journalSnapshot(ctx context.Context, id string, exec *executor.PositionExecutor) {
	r.journalOpen(ctx, id, exec)
	r.journalOrders(ctx, id, exec)
}

// journalOrders writes the venue records of every bound order slot.
func (r *Runner) journalOrders(ctx context.Context, id string, exec *executor.PositionExecutor) {
	if r.repo == nil {
		return
	}

	for _, so := range exec.Orders() {
		if so.Order == nil {
			continue
		}
		o := so.Order
		rec := persistence.OrderRecord{
			OrderID:      so.OrderID,
			PositionID:   id,
			Slot:         so.Slot,
			Pair:         o.TradingPair,
			Side:         o.Side,
			Type:         o.Type,
			Amount:       o.Amount,
			Price:        o.Price,
			Status:       o.Status,
			ExecutedBase: o.ExecutedBase,
			AvgFillPrice: o.AvgFillPrice,
			CreatedAt:    o.CreatedAt,
		}
		if err := r.repo.SaveOrder(ctx, rec); err != nil {
			r.logger.Error("failed to journal order", "order_id", so.OrderID, "err", err)
			r.recorder.RecordError("journal")
		}
	}
}

func closeMessage(s executor.Status) string {
	switch s {
	case executor.StatusClosedByTakeProfit:
		return "Take profit hit"
	case executor.StatusClosedByStopLoss:
		return "Stop loss hit"
	case executor.StatusClosedByTimeLimit:
		return "Position closed at time limit"
	case executor.StatusCanceledByTimeLimit:
		return "Entry cancelled at time limit"
	default:
		return "Position closed"
	}
}
