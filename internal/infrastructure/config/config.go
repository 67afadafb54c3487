package config

import (
	"errors"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	App struct {
		LogLevel     string `toml:"log_level"`
		SweepEveryMs int    `toml:"sweep_every_ms"`
	} `toml:"app"`

	Symbols struct {
		List []string `toml:"list"`
	} `toml:"symbols"`

	Trading struct {
		PayoutRate     float64 `toml:"payout_rate"`
		HistoryCap     int     `toml:"history_cap"`
		Commission     float64 `toml:"commission"`
		Leverage       int     `toml:"leverage"`
		InitialBalance float64 `toml:"initial_balance"`
	} `toml:"trading"`

	Feed struct {
		Synthetic struct {
			Enabled    bool  `toml:"enabled"`
			IntervalMs int   `toml:"interval_ms"`
			Seed       int64 `toml:"seed"`
		} `toml:"synthetic"`

		Coingecko struct {
			Enabled bool   `toml:"enabled"`
			BaseURL string `toml:"base_url"`
			PollSec int    `toml:"poll_sec"`
		} `toml:"coingecko"`

		Binance struct {
			Enabled bool   `toml:"enabled"`
			WsURL   string `toml:"ws_url"` // e.g. wss://stream.binance.com:9443
		} `toml:"binance"`
	} `toml:"feed"`

	Recorder struct {
		Enabled    bool   `toml:"enabled"`
		URL        string `toml:"url"` // e.g. https://backend.example.com/api/trades/record
		QueueSize  int    `toml:"queue_size"`
		MaxRetries int    `toml:"max_retries"`
	} `toml:"recorder"`

	SQLite struct {
		Enabled bool   `toml:"enabled"`
		Path    string `toml:"path"`
	} `toml:"sqlite"`

	Postgres struct {
		Enabled bool   `toml:"enabled"`
		DSN     string `toml:"dsn"`
	} `toml:"postgres"`

	Redis struct {
		Enabled      bool   `toml:"enabled"`
		Addr         string `toml:"addr"`
		Password     string `toml:"password"`
		DB           int    `toml:"db"`
		Prefix       string `toml:"prefix"`
		TTLSeconds   int    `toml:"ttl_seconds"`
		TradeStream  string `toml:"trade_stream"`
		TradeChannel string `toml:"trade_channel"`
	} `toml:"redis"`

	Demo struct {
		Enabled       bool    `toml:"enabled"`
		EverySec      int     `toml:"every_sec"`
		Amount        float64 `toml:"amount"`
		ExpirationSec int     `toml:"expiration_sec"`
	} `toml:"demo"`
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.App.SweepEveryMs <= 0 {
		cfg.App.SweepEveryMs = 100
	}
	if cfg.Trading.PayoutRate <= 0 {
		cfg.Trading.PayoutRate = 0.8
	}
	if cfg.Trading.HistoryCap <= 0 {
		cfg.Trading.HistoryCap = 50
	}
	if cfg.Trading.Leverage <= 0 {
		cfg.Trading.Leverage = 1
	}
	if cfg.Feed.Synthetic.IntervalMs <= 0 {
		cfg.Feed.Synthetic.IntervalMs = 1000
	}
	if cfg.Feed.Coingecko.PollSec <= 0 {
		cfg.Feed.Coingecko.PollSec = 30
	}
	if cfg.Recorder.QueueSize <= 0 {
		cfg.Recorder.QueueSize = 64
	}
	if cfg.Recorder.MaxRetries < 0 {
		cfg.Recorder.MaxRetries = 2
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = "data/tradesim.db"
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "tradesim"
	}
	if cfg.Redis.TTLSeconds <= 0 {
		cfg.Redis.TTLSeconds = 300
	}
	if cfg.Demo.EverySec <= 0 {
		cfg.Demo.EverySec = 15
	}
	if cfg.Demo.Amount <= 0 {
		cfg.Demo.Amount = 100
	}
	if cfg.Demo.ExpirationSec <= 0 {
		cfg.Demo.ExpirationSec = 30
	}
}

func validate(cfg *Config) error {
	cfg.Symbols.List = normalizeSymbols(cfg.Symbols.List)
	if len(cfg.Symbols.List) == 0 {
		return errors.New("symbols.list is empty")
	}

	if cfg.Trading.PayoutRate >= 1 {
		return errors.New("trading.payout_rate must be below 1")
	}

	if !cfg.Feed.Synthetic.Enabled && !cfg.Feed.Coingecko.Enabled && !cfg.Feed.Binance.Enabled {
		return errors.New("no feed enabled")
	}
	if cfg.Feed.Binance.Enabled && strings.TrimSpace(cfg.Feed.Binance.WsURL) == "" {
		return errors.New("feed.binance.ws_url empty but enabled")
	}
	if cfg.Recorder.Enabled && strings.TrimSpace(cfg.Recorder.URL) == "" {
		return errors.New("recorder.url empty but enabled")
	}
	if cfg.Postgres.Enabled && strings.TrimSpace(cfg.Postgres.DSN) == "" {
		return errors.New("postgres.dsn empty but enabled")
	}
	if cfg.Redis.Enabled && strings.TrimSpace(cfg.Redis.Addr) == "" {
		return errors.New("redis.addr empty but enabled")
	}
	return nil
}

func normalizeSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		u := strings.ToUpper(strings.TrimSpace(s))
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
