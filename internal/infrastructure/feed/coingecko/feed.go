package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"tradesim/internal/application/port"
)

const (
	DefaultBaseURL   = "https://api.coingecko.com/api/v3"
	DefaultPollEvery = 30 * time.Second
)

// coinToSymbol maps CoinGecko coin ids to internal SYMBOLUSD identifiers.
var coinToSymbol = map[string]string{
	"bitcoin":      "BTCUSD",
	"ethereum":     "ETHUSD",
	"cardano":      "ADAUSD",
	"polkadot":     "DOTUSD",
	"chainlink":    "LINKUSD",
	"litecoin":     "LTCUSD",
	"bitcoin-cash": "BCHUSD",
	"stellar":      "XLMUSD",
	"dogecoin":     "DOGEUSD",
	"ripple":       "XRPUSD",
}

var symbolToCoin = func() map[string]string {
	m := make(map[string]string, len(coinToSymbol))
	for id, sym := range coinToSymbol {
		m[sym] = id
	}
	return m
}()

// Feed polls the CoinGecko simple-price endpoint on a fixed cadence. On a
// failed poll the previous ticks simply stay stale and the feed reports a
// degraded connection; the next interval is the only retry.
type Feed struct {
	baseURL  string
	every    time.Duration
	client   *http.Client
	degraded atomic.Bool
}

func New(baseURL string, every time.Duration) *Feed {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if every <= 0 {
		every = DefaultPollEvery
	}
	return &Feed{
		baseURL: strings.TrimRight(baseURL, "/"),
		every:   every,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (f *Feed) Name() string { return "COINGECKO" }

// Degraded reports whether the last poll failed.
func (f *Feed) Degraded() bool { return f.degraded.Load() }

func (f *Feed) Subscribe(ctx context.Context, symbols []string) (<-chan port.Tick, error) {
	ids := make([]string, 0, len(symbols))
	for _, s := range symbols {
		sym := strings.ToUpper(strings.TrimSpace(s))
		if id, ok := symbolToCoin[sym]; ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, errors.New("coingecko: no supported symbols")
	}

	out := make(chan port.Tick, 256)
	go f.run(ctx, ids, out)
	return out, nil
}

func (f *Feed) run(ctx context.Context, ids []string, out chan<- port.Tick) {
	defer close(out)

	poll := func() {
		ticks, err := f.fetch(ctx, ids)
		if err != nil {
			f.degraded.Store(true)
			log.Error().Err(err).Str("feed", f.Name()).Msg("price poll failed")
			return
		}
		f.degraded.Store(false)
		for _, t := range ticks {
			select {
			case <-ctx.Done():
				return
			case out <- t:
			}
		}
	}

	poll()

	ticker := time.NewTicker(f.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			poll()
		}
	}
}

type simplePrice struct {
	USD       float64 `json:"usd"`
	Change24h float64 `json:"usd_24h_change"`
}

func (f *Feed) fetch(ctx context.Context, ids []string) ([]port.Tick, error) {
	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true",
		f.baseURL, strings.Join(ids, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("coingecko: unexpected status %s", resp.Status)
	}

	var body map[string]simplePrice
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	ticks := make([]port.Tick, 0, len(body))
	for id, p := range body {
		sym, ok := coinToSymbol[id]
		if !ok || p.USD <= 0 {
			continue
		}
		ticks = append(ticks, port.Tick{
			Source:    f.Name(),
			Symbol:    sym,
			Price:     p.USD,
			Change24h: p.Change24h,
			Ts:        now,
		})
	}
	return ticks, nil
}
