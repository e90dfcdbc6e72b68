// Package parser extracts trade semantics from polled program transactions.
package parser

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pumpfun-monitor/internal/domain"
	"pumpfun-monitor/internal/solana"
)

// Heuristic thresholds.
const (
	WhaleThresholdSOL     = 50.0
	BundleMinInstructions = 3 // strictly more than this marks a bundle
	BundleMinLogLines     = 20
	LogExcerptLines       = 5
)

var lamportsPerSOL = decimal.New(1, 9)

// Parser turns jsonParsed program transactions into AnalyzedTransactions.
// Parse holds no state between calls.
type Parser struct {
	programID string
	amounts   TokenAmountStrategy
	now       func() time.Time
}

// Option configures a Parser.
type Option func(*Parser)

// WithTokenAmountStrategy replaces the default regex → balance-delta chain.
func WithTokenAmountStrategy(s TokenAmountStrategy) Option {
	return func(p *Parser) {
		p.amounts = s
	}
}

// WithClock sets the time source used when a transaction has no block time.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		p.now = now
	}
}

// New creates a parser for transactions invoking programID.
func New(programID string, opts ...Option) *Parser {
	p := &Parser{
		programID: programID,
		amounts:   DefaultTokenAmountStrategy(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProgramID returns the program this parser filters on.
func (p *Parser) ProgramID() string {
	return p.programID
}

// Parse returns the analyzed transaction, or nil when tx is not a
// relevant trade: type OTHER, unresolved mint or trader, or zero SOL moved.
func (p *Parser) Parse(tx *solana.Transaction) *domain.AnalyzedTransaction {
	if tx == nil || tx.Message == nil {
		return nil
	}

	var logs []string
	if tx.Meta != nil {
		logs = tx.Meta.LogMessages
	}

	txType := ClassifyLogs(logs)
	if txType == domain.TxOther {
		return nil
	}

	var (
		mint, trader string
		solAmount    float64
		tokenAmount  float64
	)
	if ix := FindProgramInstruction(tx.Message, p.programID); ix != nil {
		mint = mintAccount(ix)
		tokenAmount = p.amounts.TokenAmount(tx, mint)
		trader, solAmount = p.largestSolChange(tx)
	}

	if mint == "" || trader == "" || solAmount == 0 {
		return nil
	}

	excerpt := logs
	if len(excerpt) > LogExcerptLines {
		excerpt = excerpt[:LogExcerptLines]
	}

	return &domain.AnalyzedTransaction{
		Signature:     tx.Signature(),
		Type:          txType,
		Mint:          mint,
		Trader:        trader,
		SolAmount:     solAmount,
		TokenAmount:   tokenAmount,
		Timestamp:     p.timestamp(tx),
		IsBundle:      len(tx.Message.Instructions) > BundleMinInstructions || len(logs) > BundleMinLogLines,
		WhaleDetected: solAmount > WhaleThresholdSOL,
		Logs:          append([]string{}, excerpt...),
	}
}

// ClassifyLogs derives the trade direction from program log lines.
// Buy wins when both markers are present.
func ClassifyLogs(logs []string) domain.TxType {
	for _, l := range logs {
		if strings.Contains(l, "Instruction: Buy") {
			return domain.TxBuy
		}
	}
	for _, l := range logs {
		if strings.Contains(l, "Instruction: Sell") {
			return domain.TxSell
		}
	}
	return domain.TxOther
}

// FindProgramInstruction returns the first top-level instruction of programID.
func FindProgramInstruction(msg *solana.TransactionMessage, programID string) *solana.Instruction {
	if msg == nil {
		return nil
	}
	for i := range msg.Instructions {
		if msg.Instructions[i].ProgramID == programID {
			return &msg.Instructions[i]
		}
	}
	return nil
}

// largestSolChange finds the account, other than the system program and
// the monitored program, whose lamport balance moved the most.
func (p *Parser) largestSolChange(tx *solana.Transaction) (string, float64) {
	if tx.Meta == nil {
		return "", 0
	}

	var (
		trader string
		best   decimal.Decimal
	)
	for idx, key := range tx.Message.AccountKeys {
		if key == solana.SystemProgramID || key == p.programID {
			continue
		}
		change, ok := LamportChange(tx.Meta, idx)
		if !ok {
			continue
		}
		if change.Abs().GreaterThan(best.Abs()) {
			best = change
			trader = key
		}
	}

	if best.IsZero() {
		return "", 0
	}
	return trader, best.Abs().InexactFloat64()
}

// LamportChange returns post minus pre balance of account idx in SOL.
// ok is false when either balance is missing.
func LamportChange(meta *solana.TransactionMeta, idx int) (decimal.Decimal, bool) {
	if idx < 0 || idx >= len(meta.PreBalances) || idx >= len(meta.PostBalances) {
		return decimal.Zero, false
	}
	pre := decimal.NewFromUint64(meta.PreBalances[idx])
	post := decimal.NewFromUint64(meta.PostBalances[idx])
	return post.Sub(pre).Div(lamportsPerSOL), true
}

func (p *Parser) timestamp(tx *solana.Transaction) int64 {
	if tx.BlockTime != nil && *tx.BlockTime != 0 {
		return *tx.BlockTime * 1000
	}
	return p.now().UnixMilli()
}
