package traderoom

import (
	"context"

	"tradesim/internal/application/port"
	"tradesim/internal/domain"
)

type noopRepo struct{}

func NewNoopRepo() port.Repository { return &noopRepo{} }

func (n *noopRepo) UpsertLatestPrice(ctx context.Context, source, symbol string, price float64, ts int64) error {
	return nil
}

func (n *noopRepo) InsertTrade(ctx context.Context, t domain.Trade) error {
	return nil
}

func (n *noopRepo) ListTrades(ctx context.Context, limit int) ([]domain.Trade, error) {
	return nil, nil
}

func (n *noopRepo) Close() error { return nil }
