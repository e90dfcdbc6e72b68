package domain

// TxType is the direction of a polled program transaction.
type TxType string

const (
	TxBuy   TxType = "BUY"
	TxSell  TxType = "SELL"
	TxOther TxType = "OTHER"
)

// AnalyzedTransaction is a polled transaction that passed the parser filter.
type AnalyzedTransaction struct {
	Signature     string   `json:"signature"`
	Type          TxType   `json:"type"`
	Mint          string   `json:"mint"`
	Trader        string   `json:"trader"`
	SolAmount     float64  `json:"solAmount"`
	TokenAmount   float64  `json:"tokenAmount"`
	Timestamp     int64    `json:"timestamp"` // ms
	IsBundle      bool     `json:"isBundle"`
	WhaleDetected bool     `json:"whaleDetected"`
	Logs          []string `json:"logs"`
}
