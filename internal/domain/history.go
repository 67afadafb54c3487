package domain

import "sync"

// DefaultHistoryCap is how many settled trades are retained per session.
const DefaultHistoryCap = 50

// History is a capped, newest-first list of settled trades. When the cap
// is exceeded the oldest entry is evicted.
type History struct {
	mu     sync.Mutex
	cap    int
	trades []Trade
}

func NewHistory(cap int) *History {
	if cap <= 0 {
		cap = DefaultHistoryCap
	}
	return &History{cap: cap}
}

// Add prepends t, evicting the oldest entry if the cap is exceeded.
func (h *History) Add(t Trade) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.trades = append([]Trade{t}, h.trades...)
	if len(h.trades) > h.cap {
		h.trades = h.trades[:h.cap]
	}
}

// List returns a copy of the history, newest first.
func (h *History) List() []Trade {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Trade, len(h.trades))
	copy(out, h.trades)
	return out
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.trades)
}
