package recorder

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"tradesim/internal/application/port"
)

func TestHTTPRecordDelivers(t *testing.T) {
	var mu sync.Mutex
	var got []port.ClosedTrade

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ct port.ClosedTrade
		if err := json.NewDecoder(r.Body).Decode(&ct); err != nil {
			t.Errorf("decode: %v", err)
		}
		mu.Lock()
		got = append(got, ct)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rec := NewHTTP(srv.URL, 8, 0)
	rec.Record(port.ClosedTrade{Symbol: "BTCUSD", Side: "BUY", EntryPrice: 50000, ExitPrice: 50500, Quantity: 100})
	rec.Record(port.ClosedTrade{Symbol: "ETHUSD", Side: "SELL", EntryPrice: 3000, ExitPrice: 2900, Quantity: 50})

	if err := rec.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("delivered = %d, want 2", len(got))
	}
	if got[0].Symbol != "BTCUSD" || got[0].Side != "BUY" {
		t.Errorf("first = %+v", got[0])
	}
}

func TestHTTPRetriesThenDrops(t *testing.T) {
	var mu sync.Mutex
	attempts := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rec := NewHTTP(srv.URL, 8, 1)
	rec.Record(port.ClosedTrade{Symbol: "BTCUSD"})
	if err := rec.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2 (initial + 1 retry)", attempts)
	}
}

func TestHTTPFullQueueDrops(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rec := NewHTTP(srv.URL, 1, 0)

	// first trade occupies the worker, second fills the queue, third must
	// drop without blocking
	rec.Record(port.ClosedTrade{Symbol: "A"})
	rec.Record(port.ClosedTrade{Symbol: "B"})
	rec.Record(port.ClosedTrade{Symbol: "C"})

	close(block)
	if err := rec.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
