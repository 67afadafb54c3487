package domain

import "sync"

// DefaultCandleCap is the rolling window of retained candles per symbol.
const DefaultCandleCap = 100

// Candle is one OHLCV bar.
type Candle struct {
	Ts     int64   `json:"ts"` // open time, unix ms
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// CandleSeries aggregates a tick stream into fixed-interval candles,
// keeping at most cap bars.
type CandleSeries struct {
	mu         sync.Mutex
	intervalMs int64
	cap        int
	candles    []Candle
}

func NewCandleSeries(intervalMs int64, cap int) *CandleSeries {
	if intervalMs <= 0 {
		intervalMs = 60_000
	}
	if cap <= 0 {
		cap = DefaultCandleCap
	}
	return &CandleSeries{intervalMs: intervalMs, cap: cap}
}

// Apply folds a price observation at tsMs into the series: it extends the
// current candle, or opens a new one once the interval has elapsed.
func (s *CandleSeries) Apply(price, volume float64, tsMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.candles)
	if n == 0 || tsMs-s.candles[n-1].Ts >= s.intervalMs {
		open := price
		if n > 0 {
			open = s.candles[n-1].Close
		}
		s.candles = append(s.candles, Candle{
			Ts:     tsMs,
			Open:   open,
			High:   max(open, price),
			Low:    min(open, price),
			Close:  price,
			Volume: volume,
		})
		if len(s.candles) > s.cap {
			s.candles = s.candles[len(s.candles)-s.cap:]
		}
		return
	}

	c := &s.candles[n-1]
	c.High = max(c.High, price)
	c.Low = min(c.Low, price)
	c.Close = price
	c.Volume += volume
}

// List returns a copy of the series, oldest first.
func (s *CandleSeries) List() []Candle {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Candle, len(s.candles))
	copy(out, s.candles)
	return out
}
