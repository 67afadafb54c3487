package port

// ClosedTrade is the wire shape accepted by the remote trade-recording
// endpoint (POST /api/trades/record).
type ClosedTrade struct {
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"` // "BUY" | "SELL"
	EntryPrice float64 `json:"entryPrice"`
	ExitPrice  float64 `json:"exitPrice"`
	Quantity   float64 `json:"quantity"`
	Commission float64 `json:"commission"`
	Leverage   int     `json:"leverage"`
	ClosedAt   string  `json:"closedAt"` // RFC3339
}

// Recorder delivers closed trades to a remote endpoint best-effort. Record
// never blocks the caller and never fails the settlement that produced the
// trade; undeliverable trades are logged and dropped.
type Recorder interface {
	Record(t ClosedTrade)
	Close() error
}
