package domain

import "sync"

// Portfolio tracks the session balance. Every settled trade moves the
// balance by its profit, mirroring what the remote recording endpoint does
// on its side; the local value is authoritative for this process.
type Portfolio struct {
	mu      sync.Mutex
	balance float64
}

func NewPortfolio(initial float64) *Portfolio {
	return &Portfolio{balance: initial}
}

func (p *Portfolio) ApplyTrade(t Trade) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balance += t.Profit
}

func (p *Portfolio) Balance() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balance
}
