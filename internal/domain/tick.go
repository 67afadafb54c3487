package domain

// Tick is a single price update for one instrument. It is ephemeral:
// each update replaces the previous one wholesale, nothing is persisted
// at this level.
type Tick struct {
	Source    string  `json:"source"` // "SYNTHETIC", "COINGECKO", "BINANCE"
	Symbol    string  `json:"symbol"` // "BTCUSD", "EURUSD", ...
	Price     float64 `json:"price"`
	Bid       float64 `json:"bid,omitempty"`
	Ask       float64 `json:"ask,omitempty"`
	Volume    float64 `json:"volume,omitempty"`
	Change24h float64 `json:"change24h,omitempty"`
	Ts        int64   `json:"ts"` // unix ms
}
