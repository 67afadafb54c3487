package traderoom

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"tradesim/internal/domain"
)

// TickHandler receives every tick for a subscription's symbols, in
// generation order for any one symbol.
type TickHandler func(domain.Tick)

// ErrorHandler is notified when a subscription's TickHandler panics.
type ErrorHandler func(error)

type subscription struct {
	id      string
	symbols map[string]struct{}
	onTick  TickHandler
	onError ErrorHandler
}

// Registry fans ticks out to subscribers. Delivery is driven by the single
// engine loop, so subscribers see per-symbol ticks in order; no ordering is
// guaranteed across distinct subscribers.
type Registry struct {
	mu   sync.RWMutex
	subs map[string]*subscription
}

func NewRegistry() *Registry {
	return &Registry{subs: make(map[string]*subscription)}
}

// Subscribe registers onTick for the given symbols and returns the
// subscription id. Unknown or empty symbols simply never match a tick.
// onError may be nil.
func (r *Registry) Subscribe(symbols []string, onTick TickHandler, onError ErrorHandler) string {
	syms := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		u := strings.ToUpper(strings.TrimSpace(s))
		if u == "" {
			continue
		}
		syms[u] = struct{}{}
	}

	sub := &subscription{
		id:      uuid.NewString(),
		symbols: syms,
		onTick:  onTick,
		onError: onError,
	}

	r.mu.Lock()
	r.subs[sub.id] = sub
	r.mu.Unlock()
	return sub.id
}

// Unsubscribe removes a subscription. Idempotent: unknown ids are a no-op
// and other subscribers are unaffected.
func (r *Registry) Unsubscribe(id string) {
	r.mu.Lock()
	delete(r.subs, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Publish delivers t to every subscription covering its symbol. A panicking
// handler is isolated: it is logged, reported to the subscription's
// ErrorHandler, and does not affect other subscribers or the caller.
func (r *Registry) Publish(t domain.Tick) {
	r.mu.RLock()
	targets := make([]*subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		if _, ok := sub.symbols[t.Symbol]; ok {
			targets = append(targets, sub)
		}
	}
	r.mu.RUnlock()

	for _, sub := range targets {
		deliver(sub, t)
	}
}

// Replay delivers t to a single subscription, used to seed a fresh
// subscriber with the cached price for each of its symbols.
func (r *Registry) Replay(id string, t domain.Tick) {
	r.mu.RLock()
	sub := r.subs[id]
	r.mu.RUnlock()

	if sub == nil {
		return
	}
	if _, ok := sub.symbols[t.Symbol]; !ok {
		return
	}
	deliver(sub, t)
}

func deliver(sub *subscription, t domain.Tick) {
	defer func() {
		if rec := recover(); rec != nil {
			err, ok := rec.(error)
			if !ok {
				err = &subscriberPanicError{value: rec}
			}
			log.Error().Str("subscription", sub.id).Str("symbol", t.Symbol).
				Interface("panic", rec).Msg("subscriber handler panicked")
			if sub.onError != nil {
				sub.onError(err)
			}
		}
	}()
	sub.onTick(t)
}

type subscriberPanicError struct {
	value any
}

func (e *subscriberPanicError) Error() string { return "subscriber handler panicked" }
