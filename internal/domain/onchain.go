package domain

// PastTrade is one creator transaction found during enrichment.
type PastTrade struct {
	Signature string  `json:"signature"`
	Type      string  `json:"type"` // "buy" | "sell"
	Amount    float64 `json:"amount"`
}

// OnChainData is the result of on-demand enrichment for a mint.
type OnChainData struct {
	HoldersCount     *int        `json:"holdersCount"`
	PastTrades       []PastTrade `json:"pastTrades"`
	ScoreAdjustments int         `json:"scoreAdjustments"`
	Flags            []string    `json:"flags"`
}
