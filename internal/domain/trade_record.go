package domain

// TradeRecord is a buy/sell event relayed from the feed.
// Held only in the output buffer until the next flush.
type TradeRecord struct {
	Mint        string  `json:"mint"`
	Trader      string  `json:"trader"`
	SolAmount   float64 `json:"solAmount"`
	TokenAmount float64 `json:"tokenAmount"`
	TradeType   string  `json:"tradeType"` // "buy" | "sell"
	Timestamp   int64   `json:"timestamp"`
	TokenName   string  `json:"tokenName"`
	TokenSymbol string  `json:"tokenSymbol"`
}

// Trade direction constants, as sent by the feed.
const (
	TradeBuy  = "buy"
	TradeSell = "sell"
)

// Placeholders used when a trade arrives for a mint that is not active.
const (
	UnknownTrader      = "N/A"
	UnknownTokenName   = "Unknown"
	UnknownTokenSymbol = "UNKNOWN"
)
