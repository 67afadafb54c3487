package main

import (
	"context"
	"flag"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"tradesim/internal/application/usecase/traderoom"
	"tradesim/internal/domain"
	"tradesim/internal/infrastructure/config"
	"tradesim/internal/infrastructure/logger"
	"tradesim/internal/infrastructure/svc"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Setup("info")
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.Setup(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := svc.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("service context initialization failed")
	}
	defer func() { _ = sc.Close() }()

	service := traderoom.NewService(sc.BuildServiceDeps())

	if cfg.Demo.Enabled {
		go runDemoTrader(ctx, sc.Engine(), cfg)
	}

	log.Info().
		Str("config", *configPath).
		Int("symbols", len(cfg.Symbols.List)).
		Float64("payout_rate", cfg.Trading.PayoutRate).
		Msg("tradesim started")

	if err := service.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("trade room service exited")
	}
}

// runDemoTrader places a random trade on a timer so a fresh install shows
// the full open -> mark -> settle lifecycle without an external caller.
func runDemoTrader(ctx context.Context, engine *traderoom.Engine, cfg *config.Config) {
	symbols := cfg.Symbols.List
	every := time.Duration(cfg.Demo.EverySec) * time.Second
	expiration := time.Duration(cfg.Demo.ExpirationSec) * time.Second

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			symbol := symbols[rand.IntN(len(symbols))]
			dir := domain.Higher
			if rand.IntN(2) == 0 {
				dir = domain.Lower
			}
			pos, err := engine.ExecuteTrade(symbol, dir, cfg.Demo.Amount, expiration)
			if err != nil {
				log.Warn().Err(err).Str("symbol", symbol).Msg("demo trade rejected")
				continue
			}
			log.Info().
				Str("id", pos.ID).
				Str("symbol", pos.Symbol).
				Str("direction", string(pos.Direction)).
				Float64("entry_price", pos.EntryPrice).
				Float64("balance", engine.Balance()).
				Msg("demo trade placed")
		}
	}
}
