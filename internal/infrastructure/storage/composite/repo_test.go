package composite

import (
	"context"
	"errors"
	"testing"

	"tradesim/internal/application/port"
	"tradesim/internal/domain"
)

type fakeRepo struct {
	trades    []domain.Trade
	listErr   error
	insertErr error
	closed    bool
	inserted  int
	upserted  int
}

func (f *fakeRepo) UpsertLatestPrice(ctx context.Context, source, symbol string, price float64, ts int64) error {
	f.upserted++
	return nil
}

func (f *fakeRepo) InsertTrade(ctx context.Context, t domain.Trade) error {
	f.inserted++
	if f.insertErr != nil {
		return f.insertErr
	}
	f.trades = append(f.trades, t)
	return nil
}

func (f *fakeRepo) ListTrades(ctx context.Context, limit int) ([]domain.Trade, error) {
	return f.trades, f.listErr
}

func (f *fakeRepo) Close() error {
	f.closed = true
	return nil
}

var _ port.Repository = (*fakeRepo)(nil)

func TestWritesFanOutToAll(t *testing.T) {
	a, b := &fakeRepo{}, &fakeRepo{}
	r := New(a, b)
	ctx := context.Background()

	if err := r.UpsertLatestPrice(ctx, "SYNTHETIC", "BTCUSD", 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := r.InsertTrade(ctx, domain.Trade{ID: "t1"}); err != nil {
		t.Fatal(err)
	}

	if a.upserted != 1 || b.upserted != 1 {
		t.Errorf("upserts = %d/%d", a.upserted, b.upserted)
	}
	if a.inserted != 1 || b.inserted != 1 {
		t.Errorf("inserts = %d/%d", a.inserted, b.inserted)
	}
}

func TestWriteErrorDoesNotStopFanOut(t *testing.T) {
	failing := &fakeRepo{insertErr: errors.New("boom")}
	healthy := &fakeRepo{}
	r := New(failing, healthy)

	err := r.InsertTrade(context.Background(), domain.Trade{ID: "t1"})
	if err == nil {
		t.Error("expected first error to surface")
	}
	if healthy.inserted != 1 {
		t.Error("healthy repo should still receive the write")
	}
}

func TestListTradesFirstNonEmpty(t *testing.T) {
	empty := &fakeRepo{}
	full := &fakeRepo{trades: []domain.Trade{{ID: "t1"}}}
	r := New(empty, full)

	trades, err := r.ListTrades(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(trades) != 1 || trades[0].ID != "t1" {
		t.Errorf("trades = %v", trades)
	}
}

func TestNilReposFiltered(t *testing.T) {
	a := &fakeRepo{}
	r := New(nil, a, nil)

	if err := r.InsertTrade(context.Background(), domain.Trade{}); err != nil {
		t.Fatal(err)
	}
	if a.inserted != 1 {
		t.Errorf("inserted = %d", a.inserted)
	}
}

func TestCloseClosesAll(t *testing.T) {
	a, b := &fakeRepo{}, &fakeRepo{}
	r := New(a, b)

	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if !a.closed || !b.closed {
		t.Error("all repos should be closed")
	}
}
