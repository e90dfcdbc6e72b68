package domain

// TokenRecord is one observed token creation, keyed by mint.
// JSON tags match the viewer protocol.
type TokenRecord struct {
	Mint        string         `json:"mint"`
	Name        string         `json:"name"`
	Symbol      string         `json:"symbol"`
	Creator     string         `json:"creator"`
	VSol        float64        `json:"vSol"`
	VTokens     float64        `json:"vTokens"`
	MarketCap   float64        `json:"marketCap"`
	URI         string         `json:"uri"`
	InitialBuy  float64        `json:"initialBuy"`
	Score       int            `json:"score"`
	Flags       []string       `json:"flags"`
	Type        Classification `json:"type"`
	RiskLevel   RiskLevel      `json:"riskLevel"`
	TwitterURL  string         `json:"twitterUrl,omitempty"`
	TelegramURL string         `json:"telegramUrl,omitempty"`

	// Fields below are only written by on-chain enrichment.
	HoldersCount            *int        `json:"holdersCount"`
	OnChainScoreAdjustments int         `json:"onChainScoreAdjustments"`
	OnChainFlags            []string    `json:"onChainFlags"`
	RecentOnChainTrades     []PastTrade `json:"recentOnChainTrades"`
}

// Clone returns a deep copy safe to hand to another goroutine.
func (t *TokenRecord) Clone() *TokenRecord {
	c := *t
	c.Flags = append([]string{}, t.Flags...)
	c.OnChainFlags = append([]string{}, t.OnChainFlags...)
	c.RecentOnChainTrades = append([]PastTrade{}, t.RecentOnChainTrades...)
	if t.HoldersCount != nil {
		n := *t.HoldersCount
		c.HoldersCount = &n
	}
	return &c
}

// HasFlag reports whether flag is present in the record's flag set.
func (t *TokenRecord) HasFlag(flag string) bool {
	return ContainsFlag(t.Flags, flag)
}

// ContainsFlag reports whether flags contains flag.
func ContainsFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}
