package recorder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"tradesim/internal/application/port"
)

const (
	DefaultQueueSize  = 64
	DefaultMaxRetries = 2
)

// HTTP posts closed trades to a remote recording endpoint. Delivery is
// best-effort and fully decoupled from settlement: Record never blocks,
// a full queue drops the trade, and a trade that still fails after the
// retry budget is logged and dropped. The local trade history stays
// authoritative either way.
type HTTP struct {
	url        string
	client     *http.Client
	maxRetries int
	queue      chan port.ClosedTrade
	done       chan struct{}
}

func NewHTTP(url string, queueSize, maxRetries int) *HTTP {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	r := &HTTP{
		url:        strings.TrimSpace(url),
		client:     &http.Client{Timeout: 10 * time.Second},
		maxRetries: maxRetries,
		queue:      make(chan port.ClosedTrade, queueSize),
		done:       make(chan struct{}),
	}
	go r.worker()
	return r
}

func (r *HTTP) Record(t port.ClosedTrade) {
	select {
	case r.queue <- t:
	default:
		log.Warn().Str("symbol", t.Symbol).Msg("recorder queue full, trade dropped")
	}
}

// Close stops the worker after draining whatever is already queued.
func (r *HTTP) Close() error {
	close(r.queue)
	<-r.done
	return nil
}

func (r *HTTP) worker() {
	defer close(r.done)
	for t := range r.queue {
		r.send(t)
	}
}

func (r *HTTP) send(t port.ClosedTrade) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
		}
		if err := r.post(t); err != nil {
			lastErr = err
			continue
		}
		return
	}
	log.Error().Err(lastErr).Str("symbol", t.Symbol).
		Int("retries", r.maxRetries).Msg("trade recording failed, dropped")
}

func (r *HTTP) post(t port.ClosedTrade) error {
	body, err := json.Marshal(t)
	if err != nil {
		return err
	}

	resp, err := r.client.Post(r.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("recorder: unexpected status %s", resp.Status)
	}
	return nil
}

var _ port.Recorder = (*HTTP)(nil)
