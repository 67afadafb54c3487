package domain

import (
	"strings"
	"sync"
)

// PriceBook tracks the latest tick per symbol. Ticks replace each other
// wholesale; the book keeps no history.
type PriceBook struct {
	mu    sync.Mutex
	order []string
	ticks map[string]Tick
	seen  map[string]bool
}

func NewPriceBook(symbols []string) *PriceBook {
	order := make([]string, 0, len(symbols))
	ticks := make(map[string]Tick, len(symbols))
	for _, s := range symbols {
		u := strings.ToUpper(strings.TrimSpace(s))
		if u == "" {
			continue
		}
		if _, ok := ticks[u]; ok {
			continue
		}
		order = append(order, u)
		ticks[u] = Tick{}
	}
	return &PriceBook{
		order: order,
		ticks: ticks,
		seen:  make(map[string]bool, len(symbols)),
	}
}

func (b *PriceBook) Symbols() []string {
	return b.order
}

// Apply stores t as the latest tick for its symbol and reports whether the
// price changed. Ticks for untracked symbols are dropped.
func (b *PriceBook) Apply(t Tick) bool {
	sym := strings.ToUpper(strings.TrimSpace(t.Symbol))
	if sym == "" || t.Price <= 0 {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	prev, ok := b.ticks[sym]
	if !ok {
		return false
	}

	t.Symbol = sym
	b.ticks[sym] = t
	changed := !b.seen[sym] || prev.Price != t.Price
	b.seen[sym] = true
	return changed
}

// Get returns the latest tick for symbol, and false if none has arrived.
func (b *PriceBook) Get(symbol string) (Tick, bool) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.seen[sym] {
		return Tick{}, false
	}
	return b.ticks[sym], true
}

// Snapshot returns a copy of every symbol that has received a tick.
func (b *PriceBook) Snapshot() map[string]Tick {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]Tick, len(b.ticks))
	for sym, t := range b.ticks {
		if b.seen[sym] {
			out[sym] = t
		}
	}
	return out
}
