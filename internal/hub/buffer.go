package hub

import (
	"sync"

	"pumpfun-monitor/internal/domain"
)

// Buffer accumulates trades and analyzed transactions between flushes.
// It is safe for concurrent use.
type Buffer struct {
	mu       sync.Mutex
	trades   []domain.TradeRecord
	analyzed []*domain.AnalyzedTransaction
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// AddTrade appends a feed trade.
func (b *Buffer) AddTrade(t domain.TradeRecord) {
	b.mu.Lock()
	b.trades = append(b.trades, t)
	b.mu.Unlock()
}

// AddAnalyzed appends a polled transaction.
func (b *Buffer) AddAnalyzed(tx *domain.AnalyzedTransaction) {
	if tx == nil {
		return
	}
	b.mu.Lock()
	b.analyzed = append(b.analyzed, tx)
	b.mu.Unlock()
}

// Flush returns everything buffered since the last flush and empties the buffer.
func (b *Buffer) Flush() ([]domain.TradeRecord, []*domain.AnalyzedTransaction) {
	b.mu.Lock()
	defer b.mu.Unlock()

	trades, analyzed := b.trades, b.analyzed
	b.trades, b.analyzed = nil, nil
	return trades, analyzed
}

// Len returns the number of buffered trades and analyzed transactions.
func (b *Buffer) Len() (trades, analyzed int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.trades), len(b.analyzed)
}
