package domain

import (
	"time"

	"github.com/google/uuid"
)

// Direction is the side of a simulated bet on price movement.
type Direction string

const (
	Higher Direction = "HIGHER"
	Lower  Direction = "LOWER"
)

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == Higher || d == Lower
}

// Sign returns +1 for Higher and -1 for Lower.
func (d Direction) Sign() float64 {
	if d == Higher {
		return 1
	}
	return -1
}

// Side maps a direction to the order side used by the recording endpoint.
func (d Direction) Side() string {
	if d == Higher {
		return "BUY"
	}
	return "SELL"
}

type PositionStatus string

const (
	PositionOpen PositionStatus = "OPEN"
	PositionWin  PositionStatus = "WIN"
	PositionLoss PositionStatus = "LOSS"
)

type TradeStatus string

const (
	TradeWin  TradeStatus = "WIN"
	TradeLoss TradeStatus = "LOSS"
)

// Position is an open, unsettled bet. CurrentPrice and PnL are remarked on
// every tick for the position's symbol; everything else is fixed at open.
// A Position is never mutated after it has been settled into a Trade.
type Position struct {
	ID             string         `json:"id"`
	Symbol         string         `json:"symbol"`
	Direction      Direction      `json:"direction"`
	Amount         float64        `json:"amount"`
	EntryPrice     float64        `json:"entryPrice"`
	CurrentPrice   float64        `json:"currentPrice"`
	PnL            float64        `json:"pnl"`
	EntryTime      time.Time      `json:"entryTime"`
	ExpirationTime time.Time      `json:"expirationTime"`
	Status         PositionStatus `json:"status"`
}

// NewPosition opens a position at entryPrice, expiring after expiration.
func NewPosition(symbol string, dir Direction, amount, entryPrice float64, now time.Time, expiration time.Duration) Position {
	return Position{
		ID:             uuid.NewString(),
		Symbol:         symbol,
		Direction:      dir,
		Amount:         amount,
		EntryPrice:     entryPrice,
		CurrentPrice:   entryPrice,
		PnL:            0,
		EntryTime:      now,
		ExpirationTime: now.Add(expiration),
		Status:         PositionOpen,
	}
}

// MarkToMarket updates CurrentPrice and the unrealized PnL:
//
//	pnl = sign * (price - entry) * (amount / entry)
func (p *Position) MarkToMarket(price float64) {
	p.CurrentPrice = price
	p.PnL = p.Direction.Sign() * (price - p.EntryPrice) * (p.Amount / p.EntryPrice)
}

// Trade is the immutable settled outcome of a closed Position.
type Trade struct {
	ID         string      `json:"id"`
	Symbol     string      `json:"symbol"`
	Direction  Direction   `json:"direction"`
	Amount     float64     `json:"amount"`
	EntryPrice float64     `json:"entryPrice"`
	ExitPrice  float64     `json:"exitPrice"`
	EntryTime  time.Time   `json:"entryTime"`
	ExitTime   time.Time   `json:"exitTime"`
	Status     TradeStatus `json:"status"`
	Profit     float64     `json:"profit"`
}

// Settle converts an expired position into a Trade at exitPrice.
//
// Higher wins iff exit > entry, Lower wins iff exit < entry; a flat price
// loses either way. A win pays amount*payoutRate, a loss forfeits the
// full stake.
func Settle(p Position, exitPrice float64, at time.Time, payoutRate float64) Trade {
	diff := exitPrice - p.EntryPrice
	win := (p.Direction == Higher && diff > 0) || (p.Direction == Lower && diff < 0)

	status := TradeLoss
	profit := -p.Amount
	if win {
		status = TradeWin
		profit = p.Amount * payoutRate
	}

	return Trade{
		ID:         uuid.NewString(),
		Symbol:     p.Symbol,
		Direction:  p.Direction,
		Amount:     p.Amount,
		EntryPrice: p.EntryPrice,
		ExitPrice:  exitPrice,
		EntryTime:  p.EntryTime,
		ExitTime:   at,
		Status:     status,
		Profit:     profit,
	}
}
