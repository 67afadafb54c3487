package container

import (
	"tradesim/internal/application/port"
	"tradesim/internal/application/service"
)

type Container struct {
	repo port.Repository

	priceService *service.PriceService
	tradeService *service.TradeService
}

func New(repo port.Repository) *Container {
	return &Container{
		repo: repo,
	}
}

func (c *Container) Repository() port.Repository {
	return c.repo
}

func (c *Container) PriceService() *service.PriceService {
	if c.priceService == nil {
		c.priceService = service.NewPriceService(c.repo)
	}
	return c.priceService
}

func (c *Container) TradeService() *service.TradeService {
	if c.tradeService == nil {
		c.tradeService = service.NewTradeService(c.repo)
	}
	return c.tradeService
}

func (c *Container) Close() error {
	return c.repo.Close()
}
