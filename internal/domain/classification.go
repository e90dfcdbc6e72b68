package domain

// Classification is the scorer's verdict for a new token.
type Classification string

const (
	ClassLegit             Classification = "legit"
	ClassSuspicious        Classification = "suspicious"
	ClassAutobuyScam       Classification = "autobuy_scam"
	ClassBundleScam        Classification = "bundle_scam"
	ClassBundleAutobuyScam Classification = "bundle_autobuy_scam"
	ClassScam              Classification = "scam"
)

// String returns the string representation of Classification.
func (c Classification) String() string {
	return string(c)
}

// RiskLevel is the UI-facing severity derived from a Classification.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// RiskLevel maps the classification to its risk level.
// Unknown classifications map to Medium.
func (c Classification) RiskLevel() RiskLevel {
	switch c {
	case ClassLegit:
		return RiskLow
	case ClassSuspicious:
		return RiskMedium
	case ClassAutobuyScam, ClassBundleScam:
		return RiskHigh
	case ClassBundleAutobuyScam, ClassScam:
		return RiskCritical
	default:
		return RiskMedium
	}
}

// Score flags.
const (
	FlagHighMarketCap       = "high_market_cap"
	FlagInvalidMetadataURI  = "invalid_metadata_uri"
	FlagMetadataFetchFailed = "metadata_fetch_failed"
	FlagMetadataFetchError  = "metadata_fetch_error"
	FlagSniperAutobuy       = "sniper_autobuy"
	FlagCreatorDeploySpam   = "creator_deploy_spam"
)

// Enrichment flags.
const (
	FlagHolderDataUnavailable   = "holder_data_unavailable_backend"
	FlagTradeHistoryUnavailable = "trade_history_unavailable"
	FlagBackendOnChainError     = "backend_onchain_error"
)
