package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"tradesim/internal/application/port"
	"tradesim/internal/domain"
)

// Repo keeps the latest price per (source, symbol) in a hash and publishes
// settled trades to a stream plus a pub/sub channel for live consumers.
// It does not serve reads of the trade log; ListTrades is unsupported.
type Repo struct {
	rdb         *redis.Client
	prefix      string
	ttl         time.Duration
	keyLatest   string // prefix + ":latest"
	tradeStream string
	tradeChan   string
}

type LatestPrice struct {
	Source string  `json:"source"`
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Ts     int64   `json:"ts"`
}

func New(rdb *redis.Client, prefix string, ttl time.Duration, tradeStream, tradeChan string) *Repo {
	if strings.TrimSpace(tradeStream) == "" {
		tradeStream = prefix + ":trades"
	}
	if strings.TrimSpace(tradeChan) == "" {
		tradeChan = prefix + ":trades:pub"
	}
	return &Repo{
		rdb:         rdb,
		prefix:      prefix,
		ttl:         ttl,
		keyLatest:   prefix + ":latest",
		tradeStream: tradeStream,
		tradeChan:   tradeChan,
	}
}

func (r *Repo) UpsertLatestPrice(ctx context.Context, source, symbol string, price float64, ts int64) error {
	if price <= 0 {
		return nil
	}
	lp := LatestPrice{Source: source, Symbol: symbol, Price: price, Ts: ts}
	b, _ := json.Marshal(lp)

	// Hash: field = "SYNTHETIC:BTCUSD" -> json
	field := fmt.Sprintf("%s:%s", source, symbol)
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, r.keyLatest, field, string(b))
	if r.ttl > 0 {
		pipe.Expire(ctx, r.keyLatest, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Repo) InsertTrade(ctx context.Context, t domain.Trade) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return err
	}

	// 1) Stream: XADD <stream> * ...
	_, err = r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.tradeStream,
		Values: map[string]any{
			"id":      t.ID,
			"symbol":  t.Symbol,
			"status":  string(t.Status),
			"profit":  t.Profit,
			"payload": string(payload),
		},
	}).Result()
	if err != nil {
		return err
	}

	// 2) PubSub: PUBLISH <channel> json
	return r.rdb.Publish(ctx, r.tradeChan, string(payload)).Err()
}

// ListTrades is not served from Redis; the durable repos own reads.
func (r *Repo) ListTrades(ctx context.Context, limit int) ([]domain.Trade, error) {
	return nil, nil
}

func (r *Repo) Close() error { return nil } // client lifetime owned by the service context

var _ port.Repository = (*Repo)(nil)
