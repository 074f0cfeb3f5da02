package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens (or creates) the journal database at path
// and runs migrations.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &SQLiteRepository{db: db}

	if err := repo.Migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return repo, nil
}

// Migrate runs database migrations.
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS positions (
			id TEXT PRIMARY KEY,
			exchange TEXT NOT NULL,
			pair TEXT NOT NULL,
			side INTEGER NOT NULL,
			amount TEXT NOT NULL,
			order_type INTEGER NOT NULL,
			stop_loss TEXT NOT NULL,
			take_profit TEXT NOT NULL,
			time_limit INTEGER NOT NULL,
			opened_at DATETIME NOT NULL,
			status TEXT NOT NULL,
			entry_price TEXT NOT NULL DEFAULT '0',
			close_price TEXT NOT NULL DEFAULT '0',
			pnl TEXT NOT NULL DEFAULT '0',
			closed_at DATETIME,
			is_open INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_pair ON positions(pair)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_is_open ON positions(is_open)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_opened_at ON positions(opened_at)`,

		`CREATE TABLE IF NOT EXISTS orders (
			order_id TEXT PRIMARY KEY,
			position_id TEXT NOT NULL,
			slot TEXT NOT NULL,
			pair TEXT NOT NULL,
			side INTEGER NOT NULL,
			order_type INTEGER NOT NULL,
			amount TEXT NOT NULL,
			price TEXT NOT NULL DEFAULT '0',
			status INTEGER NOT NULL,
			executed_base TEXT NOT NULL DEFAULT '0',
			avg_fill_price TEXT NOT NULL DEFAULT '0',
			created_at DATETIME NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_position_id ON orders(position_id)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}

	return nil
}

// SavePosition upserts a position row and marks it open. Terminal
// values are written through ClosePosition.
func (r *SQLiteRepository) SavePosition(ctx context.Context, rec PositionRecord) error {
	query := `INSERT OR REPLACE INTO positions
		(id, exchange, pair, side, amount, order_type, stop_loss, take_profit, time_limit, opened_at, status, entry_price, is_open, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, CURRENT_TIMESTAMP)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.Exchange,
		rec.Pair,
		rec.Side,
		rec.Amount.String(),
		rec.OrderType,
		rec.StopLoss.String(),
		rec.TakeProfit.String(),
		int64(rec.TimeLimit),
		rec.OpenedAt,
		rec.Status,
		rec.EntryPrice.String(),
	)
	if err != nil {
		return fmt.Errorf("insert position: %w", err)
	}

	return nil
}

// ClosePosition finalizes a position row with its terminal status and
// realized values.
func (r *SQLiteRepository) ClosePosition(ctx context.Context, id string, close PositionClose) error {
	query := `UPDATE positions
		SET is_open = 0, status = ?, entry_price = ?, close_price = ?, pnl = ?, closed_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query,
		close.Status,
		close.EntryPrice.String(),
		close.ClosePrice.String(),
		close.PnL.String(),
		close.ClosedAt,
		id,
	)
	if err != nil {
		return fmt.Errorf("close position: %w", err)
	}

	return nil
}

// GetPosition returns one position by id, or nil if it does not exist.
func (r *SQLiteRepository) GetPosition(ctx context.Context, id string) (*PositionRecord, error) {
	query := selectPositions + ` WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	rec, err := scanPosition(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query position: %w", err)
	}

	return rec, nil
}

// ListPositions returns positions newest first. A limit of zero or
// less means no limit.
func (r *SQLiteRepository) ListPositions(ctx context.Context, limit int) ([]PositionRecord, error) {
	query := selectPositions + ` ORDER BY opened_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanPositions(rows)
}

// ListPositionsByPair returns positions for one trading pair, newest
// first.
func (r *SQLiteRepository) ListPositionsByPair(ctx context.Context, pair string, limit int) ([]PositionRecord, error) {
	query := selectPositions + ` WHERE pair = ? ORDER BY opened_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, pair, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query positions by pair: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanPositions(rows)
}

// ListOpenPositions returns positions that never reached a terminal
// state, oldest first. After a restart these are the positions the
// previous process left behind.
func (r *SQLiteRepository) ListOpenPositions(ctx context.Context) ([]PositionRecord, error) {
	query := selectPositions + ` WHERE is_open = 1 ORDER BY opened_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query open positions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanPositions(rows)
}

const selectPositions = `SELECT id, exchange, pair, side, amount, order_type, stop_loss, take_profit, time_limit, opened_at, status, entry_price, close_price, pnl, closed_at, created_at, updated_at
	FROM positions`

// scanTarget is satisfied by both *sql.Row and *sql.Rows.
type scanTarget interface {
	Scan(dest ...any) error
}

func scanPosition(row scanTarget) (*PositionRecord, error) {
	var rec PositionRecord
	var amount, stopLoss, takeProfit, entryPrice, closePrice, pnl string
	var timeLimit int64
	var closedAt sql.NullTime

	err := row.Scan(
		&rec.ID,
		&rec.Exchange,
		&rec.Pair,
		&rec.Side,
		&amount,
		&rec.OrderType,
		&stopLoss,
		&takeProfit,
		&timeLimit,
		&rec.OpenedAt,
		&rec.Status,
		&entryPrice,
		&closePrice,
		&pnl,
		&closedAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Amount, _ = decimal.NewFromString(amount)
	rec.StopLoss, _ = decimal.NewFromString(stopLoss)
	rec.TakeProfit, _ = decimal.NewFromString(takeProfit)
	rec.EntryPrice, _ = decimal.NewFromString(entryPrice)
	rec.ClosePrice, _ = decimal.NewFromString(closePrice)
	rec.PnL, _ = decimal.NewFromString(pnl)
	rec.TimeLimit = time.Duration(timeLimit)
	if closedAt.Valid {
		rec.ClosedAt = &closedAt.Time
	}

	return &rec, nil
}

func scanPositions(rows *sql.Rows) ([]PositionRecord, error) {
	var records []PositionRecord
	for rows.Next() {
		rec, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

// SaveOrder upserts an order row keyed by the venue order id.
func (r *SQLiteRepository) SaveOrder(ctx context.Context, rec OrderRecord) error {
	query := `INSERT OR REPLACE INTO orders
		(order_id, position_id, slot, pair, side, order_type, amount, price, status, executed_base, avg_fill_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`

	_, err := r.db.ExecContext(ctx, query,
		rec.OrderID,
		rec.PositionID,
		rec.Slot,
		rec.Pair,
		rec.Side,
		rec.Type,
		rec.Amount.String(),
		rec.Price.String(),
		rec.Status,
		rec.ExecutedBase.String(),
		rec.AvgFillPrice.String(),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

// OrdersForPosition returns every journaled order of one position in
// submission order.
func (r *SQLiteRepository) OrdersForPosition(ctx context.Context, positionID string) ([]OrderRecord, error) {
	query := `SELECT order_id, position_id, slot, pair, side, order_type, amount, price, status, executed_base, avg_fill_price, created_at, updated_at
		FROM orders WHERE position_id = ? ORDER BY created_at, order_id`

	rows, err := r.db.QueryContext(ctx, query, positionID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var orders []OrderRecord
	for rows.Next() {
		var o OrderRecord
		var amount, price, executedBase, avgFillPrice string

		if err := rows.Scan(&o.OrderID, &o.PositionID, &o.Slot, &o.Pair, &o.Side, &o.Type, &amount, &price, &o.Status, &executedBase, &avgFillPrice, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		o.Amount, _ = decimal.NewFromString(amount)
		o.Price, _ = decimal.NewFromString(price)
		o.ExecutedBase, _ = decimal.NewFromString(executedBase)
		o.AvgFillPrice, _ = decimal.NewFromString(avgFillPrice)

		orders = append(orders, o)
	}

	return orders, rows.Err()
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// normalizeLimit maps "no limit" to SQLite's -1.
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
