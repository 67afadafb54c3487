package svc

import (
	"context"
	"fmt"
	"time"

	redisclient "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"tradesim/internal/application/port"
	"tradesim/internal/application/usecase/traderoom"
	"tradesim/internal/infrastructure/config"
	"tradesim/internal/infrastructure/feed/binance"
	"tradesim/internal/infrastructure/feed/coingecko"
	"tradesim/internal/infrastructure/feed/synthetic"
	"tradesim/internal/infrastructure/recorder"
	compositerepo "tradesim/internal/infrastructure/storage/composite"
	postgresrepo "tradesim/internal/infrastructure/storage/postgres"
	redisrepo "tradesim/internal/infrastructure/storage/redis"
	sqliterepo "tradesim/internal/infrastructure/storage/sqlite"
)

// ServiceContext wires storage, feeds, the recorder and the trade engine
// from config. It is the single place resources are opened and the single
// place they are closed.
type ServiceContext struct {
	Ctx    context.Context
	Config *config.Config

	redisClient  *redisclient.Client
	redisRepo    *redisrepo.Repo
	sqliteRepo   *sqliterepo.Repo
	postgresRepo *postgresrepo.Repo
	repo         port.Repository

	recorder port.Recorder
	feeds    []port.PriceFeed
	engine   *traderoom.Engine

	closerChain []func() error
}

func New(ctx context.Context, cfg *config.Config) (*ServiceContext, error) {
	sc := &ServiceContext{
		Ctx:         ctx,
		Config:      cfg,
		closerChain: make([]func() error, 0),
	}

	if err := sc.initializeComponents(); err != nil {
		_ = sc.Close()
		return nil, err
	}
	return sc, nil
}

func (sc *ServiceContext) initializeComponents() error {
	if err := sc.initializeStorage(); err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}

	sc.initRecorder()

	if err := sc.initFeeds(); err != nil {
		return err
	}

	cfg := sc.Config
	sc.engine = traderoom.NewEngine(traderoom.Config{
		PayoutRate:     cfg.Trading.PayoutRate,
		HistoryCap:     cfg.Trading.HistoryCap,
		Commission:     cfg.Trading.Commission,
		Leverage:       cfg.Trading.Leverage,
		InitialBalance: cfg.Trading.InitialBalance,
	}, cfg.Symbols.List, sc.repo, sc.recorder)

	log.Info().
		Int("feeds", len(sc.feeds)).
		Strs("symbols", cfg.Symbols.List).
		Msg("✓ All components initialized")
	return nil
}

func (sc *ServiceContext) initializeStorage() error {
	var repos []port.Repository

	if sc.Config.SQLite.Enabled {
		repo, err := sqliterepo.New(sc.Config.SQLite.Path)
		if err != nil {
			return fmt.Errorf("sqlite repo creation failed: %w", err)
		}
		sc.sqliteRepo = repo
		repos = append(repos, repo)
		sc.closerChain = append(sc.closerChain, func() error {
			log.Info().Msg("closing sqlite connection")
			return repo.Close()
		})
		log.Info().Str("path", sc.Config.SQLite.Path).Msg("✓ SQLite initialized")
	}

	if sc.Config.Postgres.Enabled {
		repo, err := postgresrepo.New(sc.Config.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("postgres repo creation failed: %w", err)
		}
		sc.postgresRepo = repo
		repos = append(repos, repo)
		sc.closerChain = append(sc.closerChain, func() error {
			log.Info().Msg("closing postgres connection")
			return repo.Close()
		})
		log.Info().Msg("✓ Postgres initialized")
	}

	if sc.Config.Redis.Enabled {
		if err := sc.initRedis(); err != nil {
			return fmt.Errorf("redis initialization failed: %w", err)
		}
		repos = append(repos, sc.redisRepo)
	}

	switch len(repos) {
	case 0:
		sc.repo = traderoom.NewNoopRepo()
	case 1:
		sc.repo = repos[0]
	default:
		sc.repo = compositerepo.New(repos...)
	}
	return nil
}

func (sc *ServiceContext) initRedis() error {
	rdb := redisclient.NewClient(&redisclient.Options{
		Addr:     sc.Config.Redis.Addr,
		Password: sc.Config.Redis.Password,
		DB:       sc.Config.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(sc.Ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	sc.redisClient = rdb
	ttl := time.Duration(sc.Config.Redis.TTLSeconds) * time.Second
	sc.redisRepo = redisrepo.New(
		rdb,
		sc.Config.Redis.Prefix,
		ttl,
		sc.Config.Redis.TradeStream,
		sc.Config.Redis.TradeChannel,
	)

	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("closing redis connection")
		return rdb.Close()
	})

	log.Info().
		Str("addr", sc.Config.Redis.Addr).
		Int("db", sc.Config.Redis.DB).
		Msg("✓ Redis initialized")
	return nil
}

func (sc *ServiceContext) initRecorder() {
	if !sc.Config.Recorder.Enabled {
		sc.recorder = recorder.NewNoop()
		return
	}

	rec := recorder.NewHTTP(sc.Config.Recorder.URL, sc.Config.Recorder.QueueSize, sc.Config.Recorder.MaxRetries)
	sc.recorder = rec
	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("draining trade recorder")
		return rec.Close()
	})
	log.Info().Str("url", sc.Config.Recorder.URL).Msg("✓ Trade recorder initialized")
}

func (sc *ServiceContext) initFeeds() error {
	cfg := sc.Config
	var feeds []port.PriceFeed

	if cfg.Feed.Synthetic.Enabled {
		interval := time.Duration(cfg.Feed.Synthetic.IntervalMs) * time.Millisecond
		if cfg.Feed.Synthetic.Seed != 0 {
			feeds = append(feeds, synthetic.NewWithSeed(interval, uint64(cfg.Feed.Synthetic.Seed)))
		} else {
			feeds = append(feeds, synthetic.New(interval))
		}
	}
	if cfg.Feed.Coingecko.Enabled {
		every := time.Duration(cfg.Feed.Coingecko.PollSec) * time.Second
		feeds = append(feeds, coingecko.New(cfg.Feed.Coingecko.BaseURL, every))
	}
	if cfg.Feed.Binance.Enabled {
		feeds = append(feeds, binance.NewTickerFeed(cfg.Feed.Binance.WsURL))
	}

	if len(feeds) == 0 {
		return ErrNoFeedsEnabled
	}
	sc.feeds = feeds
	return nil
}

func (sc *ServiceContext) Engine() *traderoom.Engine {
	return sc.engine
}

func (sc *ServiceContext) Repository() port.Repository {
	return sc.repo
}

func (sc *ServiceContext) PriceFeeds() []port.PriceFeed {
	return sc.feeds
}

// BuildServiceDeps returns the fully wired dependency set for the trade
// room run loop.
func (sc *ServiceContext) BuildServiceDeps() traderoom.ServiceDeps {
	return traderoom.ServiceDeps{
		Feeds:      sc.feeds,
		Symbols:    sc.Config.Symbols.List,
		Engine:     sc.engine,
		Repo:       sc.repo,
		SweepEvery: time.Duration(sc.Config.App.SweepEveryMs) * time.Millisecond,
	}
}

// Close releases every resource in reverse initialization order.
func (sc *ServiceContext) Close() error {
	for i := len(sc.closerChain) - 1; i >= 0; i-- {
		if err := sc.closerChain[i](); err != nil {
			log.Error().Err(err).Msg("error closing resource")
		}
	}
	return nil
}
