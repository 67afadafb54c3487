package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"tradesim/internal/application/port"
	"tradesim/internal/domain"
)

type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS prices (
  id BIGSERIAL PRIMARY KEY,
  source TEXT NOT NULL,
  symbol TEXT NOT NULL,
  price DOUBLE PRECISION NOT NULL,
  ts_ms BIGINT NOT NULL,
  UNIQUE(source, symbol)
);

CREATE TABLE IF NOT EXISTS trades (
  id TEXT PRIMARY KEY,
  symbol TEXT NOT NULL,
  direction TEXT NOT NULL,
  amount DOUBLE PRECISION NOT NULL,
  entry_price DOUBLE PRECISION NOT NULL,
  exit_price DOUBLE PRECISION NOT NULL,
  entry_time BIGINT NOT NULL,
  exit_time BIGINT NOT NULL,
  status TEXT NOT NULL,
  profit DOUBLE PRECISION NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_exit_time ON trades(exit_time);
`)
	return err
}

func (r *Repo) UpsertLatestPrice(ctx context.Context, source, symbol string, price float64, ts int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO prices(source, symbol, price, ts_ms)
		VALUES($1, $2, $3, $4)
		ON CONFLICT(source, symbol) DO UPDATE SET
		price=excluded.price, ts_ms=excluded.ts_ms
	`, source, symbol, price, ts)
	return err
}

func (r *Repo) InsertTrade(ctx context.Context, t domain.Trade) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO trades(id, symbol, direction, amount, entry_price, exit_price, entry_time, exit_time, status, profit)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, t.ID, t.Symbol, string(t.Direction), t.Amount, t.EntryPrice, t.ExitPrice,
		t.EntryTime.UnixMilli(), t.ExitTime.UnixMilli(), string(t.Status), t.Profit)
	return err
}

func (r *Repo) ListTrades(ctx context.Context, limit int) ([]domain.Trade, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, symbol, direction, amount, entry_price, exit_price, entry_time, exit_time, status, profit
		FROM trades ORDER BY exit_time DESC LIMIT $1
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
