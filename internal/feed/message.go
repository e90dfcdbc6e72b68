package feed

import (
	"encoding/json"
	"fmt"

	"pumpfun-monitor/internal/domain"
)

// subscribeNewToken is sent once per connection.
var subscribeNewToken = map[string]string{"method": "subscribeNewToken"}

// EventKind tells which field of Event is populated.
type EventKind int

const (
	// EventIgnored is a message that is neither a trade nor a token creation,
	// e.g. the subscription acknowledgement.
	EventIgnored EventKind = iota
	EventTrade
	EventNewToken
)

func (k EventKind) String() string {
	switch k {
	case EventTrade:
		return "trade"
	case EventNewToken:
		return "new_token"
	default:
		return "ignored"
	}
}

// Event is one decoded feed message.
type Event struct {
	Kind EventKind
	// Trade has TokenName and TokenSymbol unset; the consumer resolves them
	// against the active tokens.
	Trade domain.TradeRecord
	Token domain.NewTokenEvent
}

// message is the union of every field the feed sends.
type message struct {
	TxType          string   `json:"txType"`
	Mint            string   `json:"mint"`
	Name            string   `json:"name"`
	Symbol          string   `json:"symbol"`
	TraderPublicKey string   `json:"traderPublicKey"`
	MarketCapSol    float64  `json:"marketCapSol"`
	VSol            float64  `json:"vSolInBondingCurve"`
	VTokens         float64  `json:"vTokensInBondingCurve"`
	URI             string   `json:"uri"`
	InitialBuy      float64  `json:"initialBuy"`
	SolAmount       *float64 `json:"solAmount"`
	Buyer           string   `json:"buyer"`
	Amount          float64  `json:"amount"`
	TokenAmount     float64  `json:"tokenAmount"`
	Timestamp       float64  `json:"timestamp"`
}

// Decode classifies a raw feed message. receivedAt (ms) stamps new tokens
// and trades that carry no timestamp of their own.
func Decode(data []byte, receivedAt int64) (Event, error) {
	var m message
	if err := json.Unmarshal(data, &m); err != nil {
		return Event{}, fmt.Errorf("decode feed message: %w", err)
	}

	if m.TxType == domain.TradeBuy || m.TxType == domain.TradeSell {
		trader := m.Buyer
		if trader == "" {
			trader = domain.UnknownTrader
		}
		ts := int64(m.Timestamp)
		if ts == 0 {
			ts = receivedAt
		}
		return Event{
			Kind: EventTrade,
			Trade: domain.TradeRecord{
				Mint:        m.Mint,
				Trader:      trader,
				SolAmount:   m.Amount,
				TokenAmount: m.TokenAmount,
				TradeType:   m.TxType,
				Timestamp:   ts,
			},
		}, nil
	}

	if m.Mint == "" || m.Name == "" {
		return Event{Kind: EventIgnored}, nil
	}

	return Event{
		Kind: EventNewToken,
		Token: domain.NewTokenEvent{
			Mint:         m.Mint,
			Name:         m.Name,
			Symbol:       m.Symbol,
			Creator:      m.TraderPublicKey,
			MarketCapSol: m.MarketCapSol,
			VSol:         m.VSol,
			VTokens:      m.VTokens,
			URI:          m.URI,
			InitialBuy:   m.InitialBuy,
			SolAmount:    m.SolAmount,
			ReceivedAt:   receivedAt,
		},
	}, nil
}
