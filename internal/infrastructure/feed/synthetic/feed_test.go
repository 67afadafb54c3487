package synthetic

import (
	"context"
	"math"
	"testing"
	"time"

	"tradesim/internal/application/port"
)

func collect(t *testing.T, ch <-chan port.Tick, n int) []port.Tick {
	t.Helper()
	out := make([]port.Tick, 0, n)
	deadline := time.After(5 * time.Second)
	for len(out) < n {
		select {
		case tk, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed after %d ticks", len(out))
			}
			out = append(out, tk)
		case <-deadline:
			t.Fatalf("timed out after %d ticks", len(out))
		}
	}
	return out
}

func TestSubscribeEmitsInitialTickPerSymbol(t *testing.T) {
	f := NewWithSeed(10*time.Millisecond, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := f.Subscribe(ctx, []string{"BTCUSD", "ETHUSD"})
	if err != nil {
		t.Fatal(err)
	}

	ticks := collect(t, ch, 2)
	seen := map[string]bool{}
	for _, tk := range ticks {
		seen[tk.Symbol] = true
		if tk.Price <= 0 {
			t.Errorf("non-positive price: %+v", tk)
		}
		if tk.Source != "SYNTHETIC" {
			t.Errorf("source = %q", tk.Source)
		}
		if tk.Bid >= tk.Ask {
			t.Errorf("bid %v >= ask %v", tk.Bid, tk.Ask)
		}
	}
	if !seen["BTCUSD"] || !seen["ETHUSD"] {
		t.Errorf("initial ticks = %v", seen)
	}
}

func TestWalkStepsAreBounded(t *testing.T) {
	f := NewWithSeed(5*time.Millisecond, 7)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := f.Subscribe(ctx, []string{"BTCUSD"})
	if err != nil {
		t.Fatal(err)
	}

	ticks := collect(t, ch, 20)
	for i := 1; i < len(ticks); i++ {
		prev, cur := ticks[i-1].Price, ticks[i].Price
		if cur <= 0 {
			t.Fatalf("price went non-positive: %v", cur)
		}
		step := math.Abs(cur-prev) / prev
		if step > maxStepRatio+1e-9 {
			t.Errorf("step %d moved %.6f%%, max %.6f%%", i, step*100, maxStepRatio*100)
		}
	}
}

func TestReproducibleWithSameSeed(t *testing.T) {
	run := func() []float64 {
		f := NewWithSeed(5*time.Millisecond, 42)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch, err := f.Subscribe(ctx, []string{"BTCUSD"})
		if err != nil {
			t.Fatal(err)
		}
		ticks := collect(t, ch, 5)
		prices := make([]float64, len(ticks))
		for i, tk := range ticks {
			prices[i] = tk.Price
		}
		return prices
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("runs diverged at tick %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestHistorySeedsFullCandleWindow(t *testing.T) {
	f := NewWithSeed(time.Second, 3)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := f.Subscribe(ctx, []string{"BTCUSD"})
	if err != nil {
		t.Fatal(err)
	}
	collect(t, ch, 1)

	candles := f.History("BTCUSD")
	if len(candles) == 0 {
		t.Fatal("no seeded candles")
	}
	for i, c := range candles {
		if c.High < c.Low || c.High < c.Open || c.High < c.Close || c.Low > c.Open || c.Low > c.Close {
			t.Errorf("candle %d inconsistent: %+v", i, c)
		}
		if i > 0 && candles[i].Ts <= candles[i-1].Ts {
			t.Errorf("candle %d out of order", i)
		}
	}

	if f.History("UNKNOWN") != nil {
		t.Error("unknown symbol should have no history")
	}
}
