// Package scoring assigns a risk score, flags and classification to new tokens.
package scoring

import (
	"strings"

	"pumpfun-monitor/internal/domain"
)

// Rule thresholds and weights.
const (
	HighMarketCapSol    = 100.0
	HighVirtualSol      = 2.0
	HighVirtualTokens   = 1_000_000_000.0
	SniperMaxSol        = 0.05
	DeploySpamMinRecent = 2
	LegitMinScore       = 30 // strictly greater than this is legit
	ScamMaxScore        = -20

	weightHighMarketCap   = 15
	weightVirtualSol      = 10
	weightVirtualTokens   = 10
	weightInvalidURI      = -10
	weightMetadataProblem = -5
	weightSniperAutobuy   = -15
	weightDeploySpam      = -20
)

// Input is everything Score needs. The caller reads RecentDeploys from
// deploy history before scoring and records the deploy afterwards.
type Input struct {
	Event         domain.NewTokenEvent
	Metadata      Metadata
	RecentDeploys int
}

// Result is the outcome of scoring one token.
type Result struct {
	Score          int
	Flags          []string
	Classification domain.Classification
	RiskLevel      domain.RiskLevel
}

// Score applies the additive rules in order and classifies the total.
func Score(in Input) Result {
	ev := in.Event
	score := 0
	flags := []string{}

	if ev.MarketCapSol > HighMarketCapSol {
		score += weightHighMarketCap
		flags = append(flags, domain.FlagHighMarketCap)
	}
	if ev.VSol > HighVirtualSol {
		score += weightVirtualSol
	}
	if ev.VTokens > HighVirtualTokens {
		score += weightVirtualTokens
	}

	if !FetchableURI(ev.URI) {
		score += weightInvalidURI
		flags = append(flags, domain.FlagInvalidMetadataURI)
	} else {
		switch in.Metadata.Status {
		case MetadataFailed:
			score += weightMetadataProblem
			flags = append(flags, domain.FlagMetadataFetchFailed)
		case MetadataError:
			score += weightMetadataProblem
			flags = append(flags, domain.FlagMetadataFetchError)
		}
	}

	if ev.InitialBuy > 0 && ev.SolAmount != nil && *ev.SolAmount <= SniperMaxSol {
		score += weightSniperAutobuy
		flags = append(flags, domain.FlagSniperAutobuy)
	}

	if in.RecentDeploys >= DeploySpamMinRecent {
		score += weightDeploySpam
		flags = append(flags, domain.FlagCreatorDeploySpam)
	}

	class := Classify(score, flags)
	return Result{
		Score:          score,
		Flags:          flags,
		Classification: class,
		RiskLevel:      class.RiskLevel(),
	}
}

// Classify derives the classification from the final score and flags.
func Classify(score int, flags []string) domain.Classification {
	if score > LegitMinScore {
		return domain.ClassLegit
	}

	spam := domain.ContainsFlag(flags, domain.FlagCreatorDeploySpam)
	sniper := domain.ContainsFlag(flags, domain.FlagSniperAutobuy)
	if score > ScamMaxScore && !spam && !sniper {
		return domain.ClassSuspicious
	}

	switch {
	case spam && sniper:
		return domain.ClassBundleAutobuyScam
	case spam:
		return domain.ClassBundleScam
	case sniper:
		return domain.ClassAutobuyScam
	default:
		return domain.ClassScam
	}
}

// FetchableURI reports whether uri is an http(s) URL worth fetching.
func FetchableURI(uri string) bool {
	return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
}

// NewTokenRecord assembles the stored record for a scored event.
func NewTokenRecord(ev domain.NewTokenEvent, meta Metadata, res Result) *domain.TokenRecord {
	return &domain.TokenRecord{
		Mint:                ev.Mint,
		Name:                ev.Name,
		Symbol:              ev.Symbol,
		Creator:             ev.Creator,
		VSol:                ev.VSol,
		VTokens:             ev.VTokens,
		MarketCap:           ev.MarketCapSol,
		URI:                 ev.URI,
		InitialBuy:          ev.InitialBuy,
		Score:               res.Score,
		Flags:               res.Flags,
		Type:                res.Classification,
		RiskLevel:           res.RiskLevel,
		TwitterURL:          meta.TwitterURL,
		TelegramURL:         meta.TelegramURL,
		OnChainFlags:        []string{},
		RecentOnChainTrades: []domain.PastTrade{},
	}
}
