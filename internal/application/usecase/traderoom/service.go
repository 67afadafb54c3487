package traderoom

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"tradesim/internal/application/port"
)

// DefaultSweepEvery is how often the run loop checks for due expirations.
const DefaultSweepEvery = 100 * time.Millisecond

type ServiceDeps struct {
	Feeds      []PriceFeed
	Symbols    []string
	Engine     *Engine
	Repo       port.Repository
	SweepEvery time.Duration
}

// Service drives the engine: it merges every feed into one channel and
// interleaves tick application with expiry sweeps on a single goroutine,
// which is what serializes all state transitions.
type Service struct {
	deps ServiceDeps
}

func NewService(deps ServiceDeps) *Service {
	if deps.SweepEvery <= 0 {
		deps.SweepEvery = DefaultSweepEvery
	}
	if deps.Repo == nil {
		deps.Repo = NewNoopRepo()
	}
	return &Service{deps: deps}
}

func (s *Service) Run(ctx context.Context) error {
	if len(s.deps.Feeds) == 0 {
		return errors.New("no feeds")
	}
	if s.deps.Engine == nil {
		return errors.New("no engine")
	}

	merged := make(chan port.Tick, 1024)

	// start feeds
	for _, feed := range s.deps.Feeds {
		ch, err := feed.Subscribe(ctx, s.deps.Symbols)
		if err != nil {
			return err
		}
		go func(name string, in <-chan port.Tick) {
			for {
				select {
				case <-ctx.Done():
					return
				case t, ok := <-in:
					if !ok {
						return
					}
					merged <- t
				}
			}
		}(feed.Name(), ch)

		log.Info().Str("feed", feed.Name()).Msg("feed started")
	}

	sweep := time.NewTicker(s.deps.SweepEvery)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case now := <-sweep.C:
			s.deps.Engine.SettleDue(ctx, now)

		case t := <-merged:
			s.deps.Engine.ApplyTick(t)
			if t.Price > 0 {
				if err := s.deps.Repo.UpsertLatestPrice(ctx, t.Source, t.Symbol, t.Price, t.Ts); err != nil {
					log.Error().Err(err).Str("symbol", t.Symbol).Msg("latest price upsert failed")
				}
			}
		}
	}
}
