package traderoom

import "tradesim/internal/application/port"

type PriceFeed = port.PriceFeed
type Repository = port.Repository
