package container

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tradesim/internal/domain"
	sqliterepo "tradesim/internal/infrastructure/storage/sqlite"
)

func TestContainerWithSQLite(t *testing.T) {
	repo, err := sqliterepo.New(filepath.Join(t.TempDir(), "container.db"))
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}

	c := New(repo)
	defer c.Close()

	if c.Repository() == nil {
		t.Error("expected repository, got nil")
	}
	if c.PriceService() == nil {
		t.Error("expected price service, got nil")
	}
	if c.PriceService() != c.PriceService() {
		t.Error("price service should be cached")
	}
	if c.TradeService() != c.TradeService() {
		t.Error("trade service should be cached")
	}
}

func TestContainerServiceWorkflow(t *testing.T) {
	repo, err := sqliterepo.New(filepath.Join(t.TempDir(), "workflow.db"))
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}

	c := New(repo)
	defer c.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	if err := c.PriceService().UpdatePrice(ctx, "SYNTHETIC", "BTCUSD", 50000.0, now.UnixMilli()); err != nil {
		t.Fatalf("UpdatePrice failed: %v", err)
	}

	trade := domain.Trade{
		ID:         "t1",
		Symbol:     "BTCUSD",
		Direction:  domain.Higher,
		Amount:     100,
		EntryPrice: 50000,
		ExitPrice:  50500,
		EntryTime:  now,
		ExitTime:   now.Add(30 * time.Second),
		Status:     domain.TradeWin,
		Profit:     80,
	}
	if err := c.TradeService().Record(ctx, trade); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	trades, err := c.TradeService().Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(trades) != 1 || trades[0].ID != "t1" {
		t.Errorf("trades = %v", trades)
	}
}
