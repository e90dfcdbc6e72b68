package domain

// NewTokenEvent is a token-creation message from the upstream feed.
type NewTokenEvent struct {
	Mint         string
	Name         string
	Symbol       string
	Creator      string // traderPublicKey of the create transaction
	MarketCapSol float64
	VSol         float64
	VTokens      float64
	URI          string
	InitialBuy   float64
	// SolAmount is nil when the feed did not declare one.
	SolAmount  *float64
	ReceivedAt int64 // ms
}
