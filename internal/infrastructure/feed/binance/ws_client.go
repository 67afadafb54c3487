package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"tradesim/internal/application/port"
)

// TickerFeed streams miniTicker updates for the tracked symbols over a
// single combined websocket stream. Internal SYMBOLUSD identifiers map to
// Binance USDT pairs on the wire.
type TickerFeed struct {
	wsURL string // e.g. wss://stream.binance.com:9443
}

func NewTickerFeed(wsURL string) *TickerFeed {
	return &TickerFeed{wsURL: strings.TrimSpace(wsURL)}
}

func (f *TickerFeed) Name() string { return "BINANCE" }

type binanceCombined struct {
	Stream string         `json:"stream"`
	Data   binanceMiniMsg `json:"data"`
}
type binanceMiniMsg struct {
	Symbol string `json:"s"`
	Close  string `json:"c"`
	High   string `json:"h"`
	Low    string `json:"l"`
	Volume string `json:"v"`
	Ts     int64  `json:"E"`
}

func (f *TickerFeed) Subscribe(ctx context.Context, symbols []string) (<-chan port.Tick, error) {
	pairs := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if pair, ok := toPair(s); ok {
			pairs = append(pairs, pair)
		}
	}

	wsURL, err := buildCombinedURL(f.wsURL, pairs)
	if err != nil {
		return nil, err
	}

	out := make(chan port.Tick, 1024)
	go f.run(ctx, wsURL, out)
	return out, nil
}

// toPair converts an internal symbol (BTCUSD) to a Binance pair (BTCUSDT).
// Non-USD symbols have no Binance stream and are skipped.
func toPair(symbol string) (string, bool) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if !strings.HasSuffix(sym, "USD") || len(sym) <= 3 {
		return "", false
	}
	return sym + "T", true
}

// toSymbol converts a Binance pair (BTCUSDT) back to the internal form.
func toSymbol(pair string) (string, bool) {
	p := strings.ToUpper(strings.TrimSpace(pair))
	if !strings.HasSuffix(p, "USDT") || len(p) <= 4 {
		return "", false
	}
	return strings.TrimSuffix(p, "USDT") + "USD", true
}

func buildCombinedURL(base string, pairs []string) (string, error) {
	if base == "" {
		return "", errors.New("binance ws_url empty")
	}
	if len(pairs) == 0 {
		return "", errors.New("binance: no supported symbols")
	}

	streams := make([]string, 0, len(pairs))
	for _, p := range pairs {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		streams = append(streams, fmt.Sprintf("%s@miniTicker", p))
	}
	if len(streams) == 0 {
		return "", errors.New("binance: no valid pairs")
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u.Path = "/stream"
	u.RawQuery = "streams=" + strings.Join(streams, "/")
	return u.String(), nil
}

func (f *TickerFeed) run(ctx context.Context, wsURL string, out chan<- port.Tick) {
	defer close(out)

	backoff := 500 * time.Millisecond
	maxBackoff := 10 * time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		log.Warn().Str("feed", f.Name()).Str("url", wsURL).Msg("ws connecting")
		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		conn, _, err := websocket.DefaultDialer.DialContext(cctx, wsURL, nil)
		cancel()
		if err != nil {
			log.Error().Str("feed", f.Name()).Err(err).Msg("ws dial failed")
			time.Sleep(backoff)
			backoff = minDur(backoff*2, maxBackoff)
			continue
		}

		backoff = 500 * time.Millisecond
		log.Info().Str("feed", f.Name()).Msg("ws connected")

		err = readLoop(ctx, conn, func(b []byte) {
			var msg binanceCombined
			if e := json.Unmarshal(b, &msg); e != nil {
				log.Error().Str("feed", f.Name()).Err(e).Msg("json unmarshal failed")
				return
			}
			sym, ok := toSymbol(msg.Data.Symbol)
			if !ok {
				return
			}
			px, err := strconv.ParseFloat(strings.TrimSpace(msg.Data.Close), 64)
			if err != nil || px <= 0 {
				return
			}
			vol, _ := strconv.ParseFloat(msg.Data.Volume, 64)
			ts := msg.Data.Ts
			if ts == 0 {
				ts = time.Now().UnixMilli()
			}
			select {
			case out <- port.Tick{
				Source: f.Name(),
				Symbol: sym,
				Price:  px,
				Volume: vol,
				Ts:     ts,
			}:
			case <-ctx.Done():
			}
		})

		_ = conn.Close()

		if ctx.Err() != nil {
			return
		}

		log.Warn().Str("feed", f.Name()).Err(err).Msg("ws disconnected, reconnecting")
		time.Sleep(backoff)
		backoff = minDur(backoff*2, maxBackoff)
	}
}

func readLoop(ctx context.Context, conn *websocket.Conn, onMsg func([]byte)) error {
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	pingTicker := time.NewTicker(25 * time.Second)
	defer pingTicker.Stop()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		for {
			_, b, err := conn.ReadMessage()
			if err == nil {
				_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			}
			if err != nil {
				errCh <- err
				return
			}
			onMsg(b)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case <-pingTicker.C:
			_ = conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
		}
	}
}

func minDur(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
