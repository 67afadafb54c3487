package recorder

import "tradesim/internal/application/port"

type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (n *Noop) Record(t port.ClosedTrade) {}
func (n *Noop) Close() error              { return nil }

var _ port.Recorder = (*Noop)(nil)
