package hub

import (
	"encoding/json"

	"pumpfun-monitor/internal/domain"
)

// Outbound message types.
const (
	TypeWelcome             = "welcome"
	TypeNewToken            = "newToken"
	TypeTradeBatch          = "tradeBatch"
	TypeAnalyzedTxBatch     = "analyzedTxBatch"
	TypeOnChainDataResponse = "onChainDataResponse"
	TypeOnChainDataError    = "onChainDataError"
)

// TypeRequestOnChainData is the only inbound message type.
const TypeRequestOnChainData = "requestOnChainData"

// Viewer-facing texts.
const (
	WelcomeText           = "Welcome to Backend Pump.fun Monitor Relay"
	ErrTextInvalidAddress = "Invalid mint or creator address format."
	ErrTextRateLimited    = "Rate limit exceeded, retry later."
	errTextFetchPrefix    = "Failed to fetch on-chain data: "
)

// Message is the envelope of every message sent to viewers.
type Message struct {
	Type    string      `json:"type"`
	Message string      `json:"message,omitempty"`
	Mint    string      `json:"mint,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Request is a message received from a viewer.
type Request struct {
	Type    string `json:"type"`
	Mint    string `json:"mint"`
	Creator string `json:"creator"`
}

func welcomeMessage() Message {
	return Message{Type: TypeWelcome, Message: WelcomeText}
}

// NewTokenMessage wraps a scored token.
func NewTokenMessage(rec *domain.TokenRecord) Message {
	return Message{Type: TypeNewToken, Data: rec}
}

// TradeBatchMessage wraps flushed feed trades.
func TradeBatchMessage(trades []domain.TradeRecord) Message {
	return Message{Type: TypeTradeBatch, Data: trades}
}

// AnalyzedTxBatchMessage wraps flushed polled transactions.
func AnalyzedTxBatchMessage(txs []*domain.AnalyzedTransaction) Message {
	return Message{Type: TypeAnalyzedTxBatch, Data: txs}
}

func onChainResponse(mint string, data domain.OnChainData) Message {
	return Message{Type: TypeOnChainDataResponse, Mint: mint, Data: data}
}

func onChainError(mint, text string) Message {
	return Message{Type: TypeOnChainDataError, Mint: mint, Error: text}
}

func encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
