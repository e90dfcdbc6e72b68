// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Feed metrics
	FeedMessages   *prometheus.CounterVec
	FeedReconnects prometheus.Counter
	FeedConnected  prometheus.Gauge

	// Scoring metrics
	TokensScored         *prometheus.CounterVec
	MetadataFetchLatency prometheus.Histogram

	// Poller metrics
	PollRuns       *prometheus.CounterVec
	TxParsed       *prometheus.CounterVec
	RPCCallLatency *prometheus.HistogramVec
	SeenSignatures prometheus.Gauge

	// State metrics
	ActiveTokens    prometheus.Gauge
	TokenEvictions  *prometheus.CounterVec
	CreatorsTracked prometheus.Gauge

	// Hub metrics
	ViewersConnected prometheus.Gauge
	BatchesFlushed   *prometheus.CounterVec
	BatchSize        *prometheus.HistogramVec
	ViewerDrops      prometheus.Counter

	// Enrichment metrics
	EnrichmentRequests *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "pumpfun_monitor"
	}

	return &Metrics{
		FeedMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "messages_total",
			Help:      "Feed messages received by kind",
		}, []string{"kind"}),
		FeedReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "reconnects_total",
			Help:      "Total number of scheduled feed reconnects",
		}),
		FeedConnected: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "connected",
			Help:      "1 while the upstream feed connection is open",
		}),

		TokensScored: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "tokens_scored_total",
			Help:      "New tokens scored by classification",
		}, []string{"classification"}),
		MetadataFetchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "metadata_fetch_seconds",
			Help:      "Token metadata fetch latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3},
		}),

		PollRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "runs_total",
			Help:      "Poll runs by status",
		}, []string{"status"}),
		TxParsed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "transactions_total",
			Help:      "Polled transactions by parse result",
		}, []string{"result"}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		SeenSignatures: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "seen_signatures",
			Help:      "Signatures held in the dedup set",
		}),

		ActiveTokens: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "active_tokens",
			Help:      "Tokens currently held in the active set",
		}),
		TokenEvictions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "token_evictions_total",
			Help:      "Active tokens removed by reason",
		}, []string{"reason"}),
		CreatorsTracked: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "creators_tracked",
			Help:      "Creators held in deploy history",
		}),

		ViewersConnected: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "viewers_connected",
			Help:      "Open viewer connections",
		}),
		BatchesFlushed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "batches_flushed_total",
			Help:      "Batch messages broadcast by type",
		}, []string{"type"}),
		BatchSize: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "batch_size",
			Help:      "Records per flushed batch",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}, []string{"type"}),
		ViewerDrops: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "viewer_drops_total",
			Help:      "Viewers disconnected because their send queue was full",
		}),

		EnrichmentRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrich",
			Name:      "requests_total",
			Help:      "On-chain enrichment requests by outcome",
		}, []string{"outcome"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordFeedMessage counts a feed message of the given kind.
func RecordFeedMessage(kind string) {
	DefaultMetrics.FeedMessages.WithLabelValues(kind).Inc()
}

// RecordFeedReconnect counts a scheduled reconnect.
func RecordFeedReconnect() {
	DefaultMetrics.FeedReconnects.Inc()
}

// SetFeedConnected updates the feed connection gauge.
func SetFeedConnected(connected bool) {
	if connected {
		DefaultMetrics.FeedConnected.Set(1)
		return
	}
	DefaultMetrics.FeedConnected.Set(0)
}

// RecordTokenScored counts a scored token.
func RecordTokenScored(classification string) {
	DefaultMetrics.TokensScored.WithLabelValues(classification).Inc()
}

// RecordMetadataFetch records metadata fetch latency.
func RecordMetadataFetch(seconds float64) {
	DefaultMetrics.MetadataFetchLatency.Observe(seconds)
}

// RecordPollRun counts a poll run by status (ok, error, skipped).
func RecordPollRun(status string) {
	DefaultMetrics.PollRuns.WithLabelValues(status).Inc()
}

// RecordTxParsed counts a polled transaction by result.
func RecordTxParsed(result string) {
	DefaultMetrics.TxParsed.WithLabelValues(result).Inc()
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// SetSeenSignatures updates the dedup set gauge.
func SetSeenSignatures(n int) {
	DefaultMetrics.SeenSignatures.Set(float64(n))
}

// SetActiveTokens updates the active tokens gauge.
func SetActiveTokens(n int) {
	DefaultMetrics.ActiveTokens.Set(float64(n))
}

// RecordTokenEvictions counts active tokens removed for reason.
func RecordTokenEvictions(reason string, n int) {
	DefaultMetrics.TokenEvictions.WithLabelValues(reason).Add(float64(n))
}

// SetCreatorsTracked updates the deploy history gauge.
func SetCreatorsTracked(n int) {
	DefaultMetrics.CreatorsTracked.Set(float64(n))
}

// SetViewersConnected updates the viewer gauge.
func SetViewersConnected(n int) {
	DefaultMetrics.ViewersConnected.Set(float64(n))
}

// RecordBatchFlushed records a broadcast batch of size records.
func RecordBatchFlushed(msgType string, size int) {
	DefaultMetrics.BatchesFlushed.WithLabelValues(msgType).Inc()
	DefaultMetrics.BatchSize.WithLabelValues(msgType).Observe(float64(size))
}

// RecordViewerDrop counts a viewer dropped for back-pressure.
func RecordViewerDrop() {
	DefaultMetrics.ViewerDrops.Inc()
}

// RecordEnrichment counts an enrichment request by outcome.
func RecordEnrichment(outcome string) {
	DefaultMetrics.EnrichmentRequests.WithLabelValues(outcome).Inc()
}
