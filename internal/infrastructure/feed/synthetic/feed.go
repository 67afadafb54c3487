package synthetic

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"tradesim/internal/application/port"
	"tradesim/internal/domain"
)

const (
	DefaultInterval = time.Second

	// maxStepRatio bounds a single tick's move to ±0.1% of the price.
	maxStepRatio = 0.001
	minPrice     = 0.01

	candleIntervalMs = 60_000
	seedCandles      = domain.DefaultCandleCap
)

// Feed manufactures a random-walk tick stream for the demo symbols, plus a
// rolling one-minute candle window per symbol. Nothing is persisted; state
// lives only for the run.
type Feed struct {
	interval time.Duration
	seed     uint64

	mu      sync.Mutex
	candles map[string]*domain.CandleSeries
}

func New(interval time.Duration) *Feed {
	return NewWithSeed(interval, uint64(time.Now().UnixNano()))
}

// NewWithSeed pins the walk for reproducible runs.
func NewWithSeed(interval time.Duration, seed uint64) *Feed {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Feed{
		interval: interval,
		seed:     seed,
		candles:  make(map[string]*domain.CandleSeries),
	}
}

func (f *Feed) Name() string { return "SYNTHETIC" }

// History returns the candle window for symbol, oldest first.
func (f *Feed) History(symbol string) []domain.Candle {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := f.candles[strings.ToUpper(strings.TrimSpace(symbol))]
	if s == nil {
		return nil
	}
	return s.List()
}

func (f *Feed) Subscribe(ctx context.Context, symbols []string) (<-chan port.Tick, error) {
	syms := make([]string, 0, len(symbols))
	for _, s := range symbols {
		u := strings.ToUpper(strings.TrimSpace(s))
		if u == "" {
			continue
		}
		syms = append(syms, u)
	}

	out := make(chan port.Tick, 1024)
	go f.run(ctx, syms, out)
	return out, nil
}

func (f *Feed) run(ctx context.Context, symbols []string, out chan<- port.Tick) {
	defer close(out)

	rng := rand.New(rand.NewPCG(f.seed, f.seed^0x9e3779b97f4a7c15))

	prices := make(map[string]float64, len(symbols))
	for _, sym := range symbols {
		base := 1 + rng.Float64()*100
		prices[sym] = f.seedHistory(sym, base, rng)
	}

	// initial tick per symbol so consumers have a price before the first
	// interval elapses
	now := time.Now()
	for _, sym := range symbols {
		if !emit(ctx, out, f.tick(sym, prices[sym], now)) {
			return
		}
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, sym := range symbols {
				p := nextPrice(rng, prices[sym])
				prices[sym] = p
				f.applyCandle(sym, p, rng.Float64()*10, now.UnixMilli())
				if !emit(ctx, out, f.tick(sym, p, now)) {
					return
				}
			}
		}
	}
}

// seedHistory walks the price backwards-in-time into a full candle window
// and returns the final (current) price.
func (f *Feed) seedHistory(symbol string, base float64, rng *rand.Rand) float64 {
	series := domain.NewCandleSeries(candleIntervalMs, seedCandles)

	p := base
	start := time.Now().Add(-seedCandles * time.Minute).UnixMilli()
	for i := 0; i < seedCandles; i++ {
		p = nextPrice(rng, p)
		series.Apply(p, rng.Float64()*1000, start+int64(i)*candleIntervalMs)
	}

	f.mu.Lock()
	f.candles[symbol] = series
	f.mu.Unlock()
	return p
}

func (f *Feed) applyCandle(symbol string, price, volume float64, tsMs int64) {
	f.mu.Lock()
	series := f.candles[symbol]
	f.mu.Unlock()
	if series != nil {
		series.Apply(price, volume, tsMs)
	}
}

func (f *Feed) tick(symbol string, price float64, at time.Time) port.Tick {
	return port.Tick{
		Source: f.Name(),
		Symbol: symbol,
		Price:  price,
		Bid:    price - 0.001,
		Ask:    price + 0.001,
		Ts:     at.UnixMilli(),
	}
}

// nextPrice takes one bounded random-walk step, clamped to stay positive.
func nextPrice(rng *rand.Rand, p float64) float64 {
	delta := (rng.Float64() - 0.5) * 2 * maxStepRatio * p
	np := p + delta
	if np < minPrice {
		np = minPrice
	}
	return np
}

func emit(ctx context.Context, out chan<- port.Tick, t port.Tick) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- t:
		return true
	}
}
