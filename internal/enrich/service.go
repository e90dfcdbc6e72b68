// Package enrich answers viewer requests for on-chain data about a token's creator.
package enrich

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"pumpfun-monitor/internal/domain"
	"pumpfun-monitor/internal/observability"
	"pumpfun-monitor/internal/parser"
	"pumpfun-monitor/internal/solana"
)

// DefaultHistoryLimit is how many creator signatures are inspected.
const DefaultHistoryLimit = 10

// Service looks up a creator's recent program trades.
// Holder counts are not available from the RPC node and are always flagged.
type Service struct {
	rpc       solana.RPCClient
	programID string
	limit     int
	logger    zerolog.Logger
}

// NewService creates an enrichment service for transactions of programID.
func NewService(rpc solana.RPCClient, programID string, logger zerolog.Logger) *Service {
	return &Service{
		rpc:       rpc,
		programID: programID,
		limit:     DefaultHistoryLimit,
		logger:    logger.With().Str("component", "enrich").Logger(),
	}
}

// Enrich collects on-chain data for mint. Failures while reading trade
// history yield a partial result flagged trade_history_unavailable; an
// unexpected failure yields an empty result flagged backend_onchain_error.
// The error is non-nil only when ctx ends before the lookup completes.
func (s *Service) Enrich(ctx context.Context, mint, creator string) (data domain.OnChainData, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Str("mint", mint).Msg("fatal error fetching on-chain data")
			observability.RecordEnrichment("fatal")
			data = domain.OnChainData{
				PastTrades: []domain.PastTrade{},
				Flags:      []string{domain.FlagBackendOnChainError},
			}
			err = nil
		}
	}()

	data = domain.OnChainData{
		PastTrades: []domain.PastTrade{},
		Flags:      []string{domain.FlagHolderDataUnavailable},
	}

	trades, histErr := s.creatorTrades(ctx, creator)
	data.PastTrades = append(data.PastTrades, trades...)

	if histErr != nil {
		if ctx.Err() != nil {
			observability.RecordEnrichment("cancelled")
			return data, fmt.Errorf("enrich %s: %w", mint, ctx.Err())
		}
		s.logger.Warn().Err(histErr).Str("mint", mint).Msg("failed to fetch past trades")
		data.Flags = append(data.Flags, domain.FlagTradeHistoryUnavailable)
		observability.RecordEnrichment("partial")
		return data, nil
	}

	s.logger.Debug().Str("mint", mint).Int("trades", len(data.PastTrades)).Msg("fetched creator activity")
	observability.RecordEnrichment("ok")
	return data, nil
}

// creatorTrades returns the creator's SOL movements in recent program
// transactions. Trades found before a failure are returned with the error.
func (s *Service) creatorTrades(ctx context.Context, creator string) ([]domain.PastTrade, error) {
	sigs, err := s.rpc.GetSignaturesForAddress(ctx, creator, &solana.SignaturesOpts{Limit: s.limit})
	if err != nil {
		return nil, fmt.Errorf("get creator signatures: %w", err)
	}

	var trades []domain.PastTrade
	for _, info := range sigs {
		tx, err := s.rpc.GetTransaction(ctx, info.Signature)
		if err != nil {
			return trades, fmt.Errorf("get transaction %s: %w", info.Signature, err)
		}
		if trade, ok := s.creatorTrade(tx, creator); ok {
			trades = append(trades, trade)
		}
	}
	return trades, nil
}

// creatorTrade derives a buy or sell from the creator's lamport delta.
// Spending SOL is a buy; receiving SOL is a sell.
func (s *Service) creatorTrade(tx *solana.Transaction, creator string) (domain.PastTrade, bool) {
	if tx == nil || tx.Meta == nil || tx.Message == nil {
		return domain.PastTrade{}, false
	}
	if parser.FindProgramInstruction(tx.Message, s.programID) == nil {
		return domain.PastTrade{}, false
	}

	idx := -1
	for i, key := range tx.Message.AccountKeys {
		if key == creator {
			idx = i
			break
		}
	}

	change, ok := parser.LamportChange(tx.Meta, idx)
	if !ok || change.IsZero() {
		return domain.PastTrade{}, false
	}

	tradeType := domain.TradeBuy
	if change.IsPositive() {
		tradeType = domain.TradeSell
	}
	return domain.PastTrade{
		Signature: tx.Signature(),
		Type:      tradeType,
		Amount:    change.Abs().InexactFloat64(),
	}, true
}
