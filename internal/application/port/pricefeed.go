package port

import (
	"context"

	"tradesim/internal/domain"
)

type Tick = domain.Tick

// PriceFeed is a source of ticks for a set of symbols. Implementations own
// the returned channel and close it when ctx is cancelled.
type PriceFeed interface {
	Name() string
	Subscribe(ctx context.Context, symbols []string) (<-chan Tick, error)
}
