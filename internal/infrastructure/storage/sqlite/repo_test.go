package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tradesim/internal/domain"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestUpsertLatestPrice(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.UpsertLatestPrice(ctx, "SYNTHETIC", "BTCUSD", 50000, 1000); err != nil {
		t.Fatal(err)
	}
	// same (source, symbol) replaces, no duplicate row
	if err := repo.UpsertLatestPrice(ctx, "SYNTHETIC", "BTCUSD", 50100, 2000); err != nil {
		t.Fatal(err)
	}

	var price float64
	var ts int64
	row := repo.GetDB().QueryRowContext(ctx,
		`SELECT price, ts_ms FROM prices WHERE source = ? AND symbol = ?`, "SYNTHETIC", "BTCUSD")
	if err := row.Scan(&price, &ts); err != nil {
		t.Fatal(err)
	}
	if price != 50100 || ts != 2000 {
		t.Errorf("price=%v ts=%v", price, ts)
	}

	var count int
	if err := repo.GetDB().QueryRowContext(ctx, `SELECT COUNT(*) FROM prices`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("rows = %d, want 1", count)
	}
}

func TestInsertAndListTrades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	first := domain.Trade{
		ID:         "t1",
		Symbol:     "BTCUSD",
		Direction:  domain.Higher,
		Amount:     100,
		EntryPrice: 50000,
		ExitPrice:  50500,
		EntryTime:  base,
		ExitTime:   base.Add(30 * time.Second),
		Status:     domain.TradeWin,
		Profit:     80,
	}
	second := first
	second.ID = "t2"
	second.Direction = domain.Lower
	second.Status = domain.TradeLoss
	second.Profit = -100
	second.ExitTime = base.Add(60 * time.Second)

	if err := repo.InsertTrade(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := repo.InsertTrade(ctx, second); err != nil {
		t.Fatal(err)
	}

	trades, err := repo.ListTrades(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(trades) != 2 {
		t.Fatalf("trades = %d", len(trades))
	}
	if trades[0].ID != "t2" || trades[1].ID != "t1" {
		t.Errorf("order = %s, %s; want newest exit first", trades[0].ID, trades[1].ID)
	}

	got := trades[1]
	if got.Direction != domain.Higher || got.Status != domain.TradeWin || got.Profit != 80 {
		t.Errorf("round trip = %+v", got)
	}
	if !got.EntryTime.Equal(first.EntryTime) || !got.ExitTime.Equal(first.ExitTime) {
		t.Errorf("times = %v / %v", got.EntryTime, got.ExitTime)
	}
}

func TestListTradesLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 5; i++ {
		tr := domain.Trade{
			ID:        string(rune('a' + i)),
			Symbol:    "BTCUSD",
			Direction: domain.Higher,
			Status:    domain.TradeLoss,
			EntryTime: base,
			ExitTime:  base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.InsertTrade(ctx, tr); err != nil {
			t.Fatal(err)
		}
	}

	trades, err := repo.ListTrades(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(trades) != 3 {
		t.Errorf("trades = %d, want 3", len(trades))
	}
}
