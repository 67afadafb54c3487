package composite

import (
	"context"

	"tradesim/internal/application/port"
	"tradesim/internal/domain"
)

// Repo fans writes out to every backing repository. Reads are served by
// the first repo that returns rows.
type Repo struct {
	repos []port.Repository
}

func New(repos ...port.Repository) *Repo {
	// nil repos are allowed; filter in constructor for safety
	out := make([]port.Repository, 0, len(repos))
	for _, r := range repos {
		if r != nil {
			out = append(out, r)
		}
	}
	return &Repo{repos: out}
}

func (r *Repo) UpsertLatestPrice(ctx context.Context, source, symbol string, price float64, ts int64) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.UpsertLatestPrice(ctx, source, symbol, price, ts); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) InsertTrade(ctx context.Context, t domain.Trade) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.InsertTrade(ctx, t); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) ListTrades(ctx context.Context, limit int) ([]domain.Trade, error) {
	var firstErr error
	for _, repo := range r.repos {
		trades, err := repo.ListTrades(ctx, limit)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(trades) > 0 {
			return trades, nil
		}
	}
	return nil, firstErr
}

func (r *Repo) Close() error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ port.Repository = (*Repo)(nil)
