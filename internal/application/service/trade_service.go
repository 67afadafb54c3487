package service

import (
	"context"

	"tradesim/internal/application/port"
	"tradesim/internal/domain"
)

type TradeService struct {
	repo port.Repository
}

func NewTradeService(repo port.Repository) *TradeService {
	return &TradeService{repo: repo}
}

func (s *TradeService) Record(ctx context.Context, t domain.Trade) error {
	return s.repo.InsertTrade(ctx, t)
}

func (s *TradeService) Recent(ctx context.Context, limit int) ([]domain.Trade, error) {
	return s.repo.ListTrades(ctx, limit)
}
