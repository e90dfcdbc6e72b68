package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"pumpfun-monitor/internal/solana"
)

// TokenAmountStrategy extracts the traded token amount from a transaction.
// Implementations return 0 when they cannot determine the amount.
type TokenAmountStrategy interface {
	TokenAmount(tx *solana.Transaction, mint string) float64
}

// DefaultTokenAmountStrategy tries the program logs first, then token balance deltas.
func DefaultTokenAmountStrategy() TokenAmountStrategy {
	return FallbackStrategy{LogAmountStrategy{}, BalanceDeltaStrategy{}}
}

// FallbackStrategy returns the first non-zero amount from its strategies, in order.
type FallbackStrategy []TokenAmountStrategy

// TokenAmount implements TokenAmountStrategy.
func (f FallbackStrategy) TokenAmount(tx *solana.Transaction, mint string) float64 {
	for _, s := range f {
		if amount := s.TokenAmount(tx, mint); amount != 0 {
			return amount
		}
	}
	return 0
}

var tokenAmountPattern = regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(tokens\s*(bought|sold))`)

// LogAmountStrategy scrapes "<n> tokens bought" / "<n> tokens sold" from
// the first log line that mentions "tokens bought:" or "tokens sold:".
type LogAmountStrategy struct{}

// TokenAmount implements TokenAmountStrategy.
func (LogAmountStrategy) TokenAmount(tx *solana.Transaction, _ string) float64 {
	if tx == nil || tx.Meta == nil {
		return 0
	}
	for _, line := range tx.Meta.LogMessages {
		if !strings.Contains(line, "tokens bought:") && !strings.Contains(line, "tokens sold:") {
			continue
		}
		m := tokenAmountPattern.FindStringSubmatch(line)
		if m == nil {
			return 0
		}
		amount, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0
		}
		return amount
	}
	return 0
}

// BalanceDeltaStrategy uses the difference between post and pre token
// balances of the mint's first post-balance owner, scaled by decimals.
type BalanceDeltaStrategy struct{}

// TokenAmount implements TokenAmountStrategy.
func (BalanceDeltaStrategy) TokenAmount(tx *solana.Transaction, mint string) float64 {
	if tx == nil || tx.Meta == nil || mint == "" {
		return 0
	}

	var post *solana.TokenBalance
	for i := range tx.Meta.PostTokenBalances {
		if tx.Meta.PostTokenBalances[i].Mint == mint {
			post = &tx.Meta.PostTokenBalances[i]
			break
		}
	}
	if post == nil {
		return 0
	}

	postAmount, err := decimal.NewFromString(post.Amount)
	if err != nil {
		return 0
	}
	preAmount := decimal.Zero
	for _, b := range tx.Meta.PreTokenBalances {
		if b.Mint == mint && b.Owner == post.Owner {
			if v, err := decimal.NewFromString(b.Amount); err == nil {
				preAmount = v
			}
			break
		}
	}

	return postAmount.Sub(preAmount).Abs().Shift(-int32(post.Decimals)).InexactFloat64()
}
