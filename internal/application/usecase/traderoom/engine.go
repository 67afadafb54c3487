package traderoom

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"tradesim/internal/application/port"
	"tradesim/internal/domain"
)

var (
	// ErrNoPrice means no tick has arrived yet for the requested symbol.
	// The trade is rejected and nothing is created.
	ErrNoPrice = errors.New("no price for symbol")

	ErrBadDirection  = errors.New("direction must be HIGHER or LOWER")
	ErrBadAmount     = errors.New("amount must be positive")
	ErrBadExpiration = errors.New("expiration must be positive")
)

// DefaultPayoutRate is the fraction of the stake returned as profit on a
// winning trade.
const DefaultPayoutRate = 0.8

type Config struct {
	PayoutRate     float64
	HistoryCap     int
	Commission     float64
	Leverage       int
	InitialBalance float64

	// Now overrides the engine clock. Nil means time.Now.
	Now func() time.Time
}

// Engine owns the simulated position lifecycle: it opens positions against
// the latest known price, remarks them on every tick, and settles them into
// immutable trades when their expiration comes due. All transitions run on
// whichever single goroutine drives ApplyTick/SettleDue, so a tick is fully
// applied and a settlement fully completed before the next event.
type Engine struct {
	cfg       Config
	book      *domain.PriceBook
	registry  *Registry
	sched     *Scheduler
	history   *domain.History
	portfolio *domain.Portfolio
	repo      port.Repository
	recorder  port.Recorder
	now       func() time.Time

	mu    sync.Mutex
	open  map[string]*domain.Position
	order []string // open position ids, oldest first
}

func NewEngine(cfg Config, symbols []string, repo port.Repository, rec port.Recorder) *Engine {
	if cfg.PayoutRate <= 0 {
		cfg.PayoutRate = DefaultPayoutRate
	}
	if cfg.HistoryCap <= 0 {
		cfg.HistoryCap = domain.DefaultHistoryCap
	}
	if cfg.Leverage <= 0 {
		cfg.Leverage = 1
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	if repo == nil {
		repo = NewNoopRepo()
	}

	return &Engine{
		cfg:       cfg,
		book:      domain.NewPriceBook(symbols),
		registry:  NewRegistry(),
		sched:     NewScheduler(),
		history:   domain.NewHistory(cfg.HistoryCap),
		portfolio: domain.NewPortfolio(cfg.InitialBalance),
		repo:      repo,
		recorder:  rec,
		now:       now,
		open:      make(map[string]*domain.Position),
	}
}

// Subscribe registers a tick handler for the given symbols and returns the
// subscription id. Already-known prices are delivered immediately.
func (e *Engine) Subscribe(symbols []string, onTick TickHandler, onError ErrorHandler) string {
	id := e.registry.Subscribe(symbols, onTick, onError)
	for _, s := range symbols {
		if t, ok := e.book.Get(s); ok {
			e.registry.Replay(id, t)
		}
	}
	return id
}

func (e *Engine) Unsubscribe(id string) {
	e.registry.Unsubscribe(id)
}

// ExecuteTrade opens a position at the current price of symbol. It fails
// with ErrNoPrice when no tick has been seen for the symbol; in that case
// no state is touched.
func (e *Engine) ExecuteTrade(symbol string, dir domain.Direction, amount float64, expiration time.Duration) (domain.Position, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))

	if !dir.Valid() {
		return domain.Position{}, ErrBadDirection
	}
	if amount <= 0 {
		return domain.Position{}, ErrBadAmount
	}
	if expiration <= 0 {
		return domain.Position{}, ErrBadExpiration
	}

	tick, ok := e.book.Get(sym)
	if !ok {
		return domain.Position{}, ErrNoPrice
	}

	pos := domain.NewPosition(sym, dir, amount, tick.Price, e.now(), expiration)

	e.mu.Lock()
	e.open[pos.ID] = &pos
	e.order = append(e.order, pos.ID)
	e.mu.Unlock()

	e.sched.Schedule(pos.ID, pos.ExpirationTime)

	log.Info().Str("position", pos.ID).Str("symbol", sym).
		Str("direction", string(dir)).Float64("amount", amount).
		Float64("entry_price", pos.EntryPrice).
		Dur("expiration", expiration).Msg("position opened")

	return pos, nil
}

// ApplyTick stores t as the latest price and remarks every open position on
// that symbol before returning, then fans the tick out to subscribers.
// Reports whether the price changed.
func (e *Engine) ApplyTick(t domain.Tick) bool {
	changed := e.book.Apply(t)

	stored, ok := e.book.Get(t.Symbol)
	if !ok {
		return false // untracked symbol, dropped
	}

	e.mu.Lock()
	for _, id := range e.order {
		p := e.open[id]
		if p.Symbol == stored.Symbol {
			p.MarkToMarket(stored.Price)
		}
	}
	e.mu.Unlock()

	e.registry.Publish(stored)
	return changed
}

// SettleDue settles every position whose expiration is at or before now,
// each to completion in deadline order, and returns the resulting trades.
func (e *Engine) SettleDue(ctx context.Context, now time.Time) []domain.Trade {
	ids := e.sched.PopDue(now)
	if len(ids) == 0 {
		return nil
	}

	trades := make([]domain.Trade, 0, len(ids))
	for _, id := range ids {
		if trade, ok := e.settle(ctx, id, now); ok {
			trades = append(trades, trade)
		}
	}
	return trades
}

// settle removes the position from the open set and appends the trade to
// history in one critical section, then fires the best-effort side effects
// (durable insert, remote recording).
func (e *Engine) settle(ctx context.Context, id string, at time.Time) (domain.Trade, bool) {
	e.mu.Lock()
	p, ok := e.open[id]
	if !ok {
		e.mu.Unlock()
		return domain.Trade{}, false
	}

	exitPrice := p.CurrentPrice
	if t, ok := e.book.Get(p.Symbol); ok {
		exitPrice = t.Price
	}

	trade := domain.Settle(*p, exitPrice, at, e.cfg.PayoutRate)

	delete(e.open, id)
	for i, oid := range e.order {
		if oid == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	e.history.Add(trade)
	e.portfolio.ApplyTrade(trade)
	e.mu.Unlock()

	log.Info().Str("position", id).Str("trade", trade.ID).
		Str("symbol", trade.Symbol).Str("status", string(trade.Status)).
		Float64("exit_price", trade.ExitPrice).Float64("profit", trade.Profit).
		Msg("position settled")

	if err := e.repo.InsertTrade(ctx, trade); err != nil {
		log.Error().Err(err).Str("trade", trade.ID).Msg("trade insert failed")
	}
	if e.recorder != nil {
		e.recorder.Record(port.ClosedTrade{
			Symbol:     trade.Symbol,
			Side:       trade.Direction.Side(),
			EntryPrice: trade.EntryPrice,
			ExitPrice:  trade.ExitPrice,
			Quantity:   trade.Amount,
			Commission: e.cfg.Commission,
			Leverage:   e.cfg.Leverage,
			ClosedAt:   at.UTC().Format(time.RFC3339),
		})
	}

	return trade, true
}

// NextExpiry returns the earliest pending expiration.
func (e *Engine) NextExpiry() (time.Time, bool) {
	return e.sched.Next()
}

// OpenPositions returns a copy of the open set, oldest first.
func (e *Engine) OpenPositions() []domain.Position {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.Position, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, *e.open[id])
	}
	return out
}

// TradeHistory returns settled trades, newest first, capped.
func (e *Engine) TradeHistory() []domain.Trade {
	return e.history.List()
}

func (e *Engine) Balance() float64 {
	return e.portfolio.Balance()
}

// Price returns the latest tick for symbol.
func (e *Engine) Price(symbol string) (domain.Tick, bool) {
	return e.book.Get(symbol)
}

// Prices returns the latest tick for every symbol that has one.
func (e *Engine) Prices() map[string]domain.Tick {
	return e.book.Snapshot()
}

func (e *Engine) Symbols() []string {
	return e.book.Symbols()
}
