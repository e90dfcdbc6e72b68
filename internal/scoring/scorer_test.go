package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pumpfun-monitor/internal/domain"
)

func float(v float64) *float64 { return &v }

func TestScore_ScenarioNoURI(t *testing.T) {
	res := Score(Input{
		Event: domain.NewTokenEvent{
			Mint:         "M1",
			Name:         "Foo",
			Creator:      "C1",
			MarketCapSol: 150,
			VSol:         3,
			VTokens:      2e9,
			URI:          "",
		},
	})

	assert.Equal(t, 25, res.Score)
	assert.Equal(t, []string{domain.FlagHighMarketCap, domain.FlagInvalidMetadataURI}, res.Flags)
	assert.Equal(t, domain.ClassSuspicious, res.Classification)
	assert.Equal(t, domain.RiskMedium, res.RiskLevel)
}

func TestScore_LegitOnlyAboveThirty(t *testing.T) {
	// Market cap > 100 with a fetched URI and no penalties: 15, 25 or 35.
	for _, vSol := range []float64{0, 3} {
		for _, vTokens := range []float64{0, 2e9} {
			res := Score(Input{
				Event: domain.NewTokenEvent{
					MarketCapSol: 101,
					VSol:         vSol,
					VTokens:      vTokens,
					URI:          "https://example.com/meta.json",
				},
				Metadata: Metadata{Status: MetadataOK},
			})
			if res.Score > 30 {
				assert.Equal(t, domain.ClassLegit, res.Classification, "score %d", res.Score)
			} else {
				assert.NotEqual(t, domain.ClassLegit, res.Classification, "score %d", res.Score)
			}
		}
	}
}

func TestScore_SpamAndSniperAlwaysBundleAutobuy(t *testing.T) {
	for _, marketCap := range []float64{0, 500} {
		for _, uri := range []string{"", "https://x.io/m"} {
			res := Score(Input{
				Event: domain.NewTokenEvent{
					MarketCapSol: marketCap,
					VSol:         10,
					VTokens:      5e9,
					URI:          uri,
					InitialBuy:   1000,
					SolAmount:    float(0.01),
				},
				Metadata:      Metadata{Status: MetadataOK},
				RecentDeploys: 3,
			})
			assert.Equal(t, domain.ClassBundleAutobuyScam, res.Classification)
			assert.Equal(t, domain.RiskCritical, res.RiskLevel)
		}
	}
}

func TestScore_MetadataOutcomes(t *testing.T) {
	ev := domain.NewTokenEvent{URI: "https://example.com/meta.json"}

	res := Score(Input{Event: ev, Metadata: Metadata{Status: MetadataFailed}})
	assert.Equal(t, -5, res.Score)
	assert.Equal(t, []string{domain.FlagMetadataFetchFailed}, res.Flags)

	res = Score(Input{Event: ev, Metadata: Metadata{Status: MetadataError}})
	assert.Equal(t, -5, res.Score)
	assert.Equal(t, []string{domain.FlagMetadataFetchError}, res.Flags)

	res = Score(Input{Event: ev, Metadata: Metadata{Status: MetadataOK}})
	assert.Equal(t, 0, res.Score)
	assert.Empty(t, res.Flags)
	assert.Equal(t, domain.ClassSuspicious, res.Classification)
}

func TestScore_NonHTTPURI(t *testing.T) {
	res := Score(Input{Event: domain.NewTokenEvent{URI: "ipfs://bafy"}})
	assert.Equal(t, -10, res.Score)
	assert.Equal(t, []string{domain.FlagInvalidMetadataURI}, res.Flags)
}

func TestScore_SniperAutobuy(t *testing.T) {
	base := domain.NewTokenEvent{URI: "https://x.io/m", InitialBuy: 5}

	ev := base
	ev.SolAmount = float(0.05)
	res := Score(Input{Event: ev, Metadata: Metadata{Status: MetadataOK}})
	assert.Equal(t, -15, res.Score)
	assert.Equal(t, []string{domain.FlagSniperAutobuy}, res.Flags)
	assert.Equal(t, domain.ClassAutobuyScam, res.Classification)
	assert.Equal(t, domain.RiskHigh, res.RiskLevel)

	ev = base
	ev.SolAmount = float(0.06)
	res = Score(Input{Event: ev, Metadata: Metadata{Status: MetadataOK}})
	assert.NotContains(t, res.Flags, domain.FlagSniperAutobuy)

	// No declared SOL amount means no sniper signal.
	res = Score(Input{Event: base, Metadata: Metadata{Status: MetadataOK}})
	assert.NotContains(t, res.Flags, domain.FlagSniperAutobuy)

	ev = base
	ev.InitialBuy = 0
	ev.SolAmount = float(0)
	res = Score(Input{Event: ev, Metadata: Metadata{Status: MetadataOK}})
	assert.NotContains(t, res.Flags, domain.FlagSniperAutobuy)
}

func TestScore_DeploySpamThreshold(t *testing.T) {
	ev := domain.NewTokenEvent{URI: "https://x.io/m"}

	res := Score(Input{Event: ev, Metadata: Metadata{Status: MetadataOK}, RecentDeploys: 1})
	assert.NotContains(t, res.Flags, domain.FlagCreatorDeploySpam)

	res = Score(Input{Event: ev, Metadata: Metadata{Status: MetadataOK}, RecentDeploys: 2})
	assert.Equal(t, -20, res.Score)
	assert.Equal(t, []string{domain.FlagCreatorDeploySpam}, res.Flags)
	assert.Equal(t, domain.ClassBundleScam, res.Classification)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		score int
		flags []string
		want  domain.Classification
	}{
		{"legit", 31, nil, domain.ClassLegit},
		{"legit wins over flags", 40, []string{domain.FlagSniperAutobuy}, domain.ClassLegit},
		{"thirty is suspicious", 30, nil, domain.ClassSuspicious},
		{"just above scam", -19, nil, domain.ClassSuspicious},
		{"score-only scam", -20, nil, domain.ClassScam},
		{"score-only scam with unrelated flag", -25, []string{domain.FlagInvalidMetadataURI}, domain.ClassScam},
		{"bundle", 0, []string{domain.FlagCreatorDeploySpam}, domain.ClassBundleScam},
		{"autobuy", 10, []string{domain.FlagSniperAutobuy}, domain.ClassAutobuyScam},
		{"both", -40, []string{domain.FlagSniperAutobuy, domain.FlagCreatorDeploySpam}, domain.ClassBundleAutobuyScam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.score, tt.flags))
		})
	}
}

func TestRiskLevel(t *testing.T) {
	assert.Equal(t, domain.RiskLow, domain.ClassLegit.RiskLevel())
	assert.Equal(t, domain.RiskMedium, domain.ClassSuspicious.RiskLevel())
	assert.Equal(t, domain.RiskHigh, domain.ClassAutobuyScam.RiskLevel())
	assert.Equal(t, domain.RiskHigh, domain.ClassBundleScam.RiskLevel())
	assert.Equal(t, domain.RiskCritical, domain.ClassBundleAutobuyScam.RiskLevel())
	assert.Equal(t, domain.RiskCritical, domain.ClassScam.RiskLevel())
	assert.Equal(t, domain.RiskMedium, domain.Classification("mystery").RiskLevel())
}

func TestNewTokenRecord(t *testing.T) {
	ev := domain.NewTokenEvent{
		Mint: "M1", Name: "Foo", Symbol: "FOO", Creator: "C1",
		MarketCapSol: 150, VSol: 3, VTokens: 2e9, URI: "https://x.io/m", InitialBuy: 7,
	}
	meta := Metadata{Status: MetadataOK, TwitterURL: "https://x.com/foo"}
	res := Score(Input{Event: ev, Metadata: meta})

	rec := NewTokenRecord(ev, meta, res)
	assert.Equal(t, "M1", rec.Mint)
	assert.Equal(t, "C1", rec.Creator)
	assert.Equal(t, 150.0, rec.MarketCap)
	assert.Equal(t, 35, rec.Score)
	assert.Equal(t, domain.ClassLegit, rec.Type)
	assert.Equal(t, domain.RiskLow, rec.RiskLevel)
	assert.Equal(t, "https://x.com/foo", rec.TwitterURL)
	assert.Nil(t, rec.HoldersCount)
	assert.NotNil(t, rec.OnChainFlags)
	assert.NotNil(t, rec.RecentOnChainTrades)
}
