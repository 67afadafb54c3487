package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"tradesim/internal/application/port"
	"tradesim/internal/domain"
)

type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) GetDB() *sql.DB {
	return r.db
}

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS prices (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  source TEXT NOT NULL,
  symbol TEXT NOT NULL,
  price REAL NOT NULL,
  ts_ms INTEGER NOT NULL,
  created_at INTEGER NOT NULL,
  UNIQUE(source, symbol)
);
CREATE INDEX IF NOT EXISTS idx_prices_ts ON prices(ts_ms);
CREATE INDEX IF NOT EXISTS idx_prices_symbol ON prices(symbol);

CREATE TABLE IF NOT EXISTS trades (
  id TEXT PRIMARY KEY,
  symbol TEXT NOT NULL,
  direction TEXT NOT NULL,
  amount REAL NOT NULL,
  entry_price REAL NOT NULL,
  exit_price REAL NOT NULL,
  entry_time INTEGER NOT NULL,
  exit_time INTEGER NOT NULL,
  status TEXT NOT NULL,
  profit REAL NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
CREATE INDEX IF NOT EXISTS idx_trades_exit_time ON trades(exit_time);
`)
	return err
}

func (r *Repo) UpsertLatestPrice(ctx context.Context, source, symbol string, price float64, ts int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO prices(source, symbol, price, ts_ms, created_at)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(source, symbol) DO UPDATE SET
		price=excluded.price, ts_ms=excluded.ts_ms
	`, source, symbol, price, ts, ts)
	return err
}

func (r *Repo) InsertTrade(ctx context.Context, t domain.Trade) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO trades(id, symbol, direction, amount, entry_price, exit_price, entry_time, exit_time, status, profit, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Symbol, string(t.Direction), t.Amount, t.EntryPrice, t.ExitPrice,
		t.EntryTime.UnixMilli(), t.ExitTime.UnixMilli(), string(t.Status), t.Profit, t.ExitTime.UnixMilli())
	return err
}

func (r *Repo) ListTrades(ctx context.Context, limit int) ([]domain.Trade, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, symbol, direction, amount, entry_price, exit_price, entry_time, exit_time, status, profit
		FROM trades ORDER BY exit_time DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		var direction, status string
		var entryMs, exitMs int64
		if err := rows.Scan(&t.ID, &t.Symbol, &direction, &t.Amount, &t.EntryPrice, &t.ExitPrice,
			&entryMs, &exitMs, &status, &t.Profit); err != nil {
			return nil, err
		}
		t.Direction = domain.Direction(direction)
		t.Status = domain.TradeStatus(status)
		t.EntryTime = time.UnixMilli(entryMs).UTC()
		t.ExitTime = time.UnixMilli(exitMs).UTC()
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

var _ port.Repository = (*Repo)(nil)
