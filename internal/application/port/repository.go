package port

import (
	"context"

	"tradesim/internal/domain"
)

type Repository interface {
	// Price operations
	UpsertLatestPrice(ctx context.Context, source, symbol string, price float64, ts int64) error

	// Trade operations
	InsertTrade(ctx context.Context, t domain.Trade) error
	ListTrades(ctx context.Context, limit int) ([]domain.Trade, error)

	// Connection management
	Close() error
}
