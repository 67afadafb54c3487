package traderoom

import (
	"testing"

	"tradesim/internal/domain"
)

func TestRegistrySubscribeAndPublish(t *testing.T) {
	r := NewRegistry()

	var btc, eth []domain.Tick
	r.Subscribe([]string{"BTCUSD"}, func(tk domain.Tick) { btc = append(btc, tk) }, nil)
	r.Subscribe([]string{"ETHUSD"}, func(tk domain.Tick) { eth = append(eth, tk) }, nil)

	r.Publish(domain.Tick{Symbol: "BTCUSD", Price: 50000})
	r.Publish(domain.Tick{Symbol: "ETHUSD", Price: 3000})
	r.Publish(domain.Tick{Symbol: "XRPUSD", Price: 1})

	if len(btc) != 1 || btc[0].Price != 50000 {
		t.Errorf("btc ticks = %v", btc)
	}
	if len(eth) != 1 || eth[0].Price != 3000 {
		t.Errorf("eth ticks = %v", eth)
	}
}

func TestRegistryMultiSymbolSubscription(t *testing.T) {
	r := NewRegistry()

	var got []string
	r.Subscribe([]string{"btcusd", " ETHUSD "}, func(tk domain.Tick) { got = append(got, tk.Symbol) }, nil)

	r.Publish(domain.Tick{Symbol: "BTCUSD", Price: 1})
	r.Publish(domain.Tick{Symbol: "ETHUSD", Price: 1})

	if len(got) != 2 {
		t.Fatalf("got = %v", got)
	}
}

func TestRegistryUnsubscribeIdempotent(t *testing.T) {
	r := NewRegistry()

	var a, b int
	idA := r.Subscribe([]string{"BTCUSD"}, func(domain.Tick) { a++ }, nil)
	r.Subscribe([]string{"BTCUSD"}, func(domain.Tick) { b++ }, nil)

	r.Unsubscribe(idA)
	r.Unsubscribe(idA)
	r.Unsubscribe("never-existed")

	r.Publish(domain.Tick{Symbol: "BTCUSD", Price: 1})

	if a != 0 {
		t.Errorf("unsubscribed handler fired %d times", a)
	}
	if b != 1 {
		t.Errorf("remaining handler fired %d times, want 1", b)
	}
	if r.Len() != 1 {
		t.Errorf("len = %d", r.Len())
	}
}

func TestRegistryPanickingHandlerIsolated(t *testing.T) {
	r := NewRegistry()

	var errs []error
	var healthy int
	r.Subscribe([]string{"BTCUSD"}, func(domain.Tick) { panic("boom") }, func(err error) { errs = append(errs, err) })
	r.Subscribe([]string{"BTCUSD"}, func(domain.Tick) { healthy++ }, nil)

	r.Publish(domain.Tick{Symbol: "BTCUSD", Price: 1})

	if len(errs) != 1 {
		t.Errorf("error handler fired %d times, want 1", len(errs))
	}
	if healthy != 1 {
		t.Errorf("healthy handler fired %d times, want 1", healthy)
	}
}

func TestRegistryReplayTargetsOneSubscription(t *testing.T) {
	r := NewRegistry()

	var fresh, old int
	r.Subscribe([]string{"BTCUSD"}, func(domain.Tick) { old++ }, nil)
	id := r.Subscribe([]string{"BTCUSD"}, func(domain.Tick) { fresh++ }, nil)

	r.Replay(id, domain.Tick{Symbol: "BTCUSD", Price: 50000})
	r.Replay(id, domain.Tick{Symbol: "ETHUSD", Price: 3000}) // not subscribed
	r.Replay("missing", domain.Tick{Symbol: "BTCUSD", Price: 1})

	if fresh != 1 {
		t.Errorf("fresh handler fired %d times, want 1", fresh)
	}
	if old != 0 {
		t.Errorf("old handler fired %d times, want 0", old)
	}
}
