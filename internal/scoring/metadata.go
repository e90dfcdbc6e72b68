package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pumpfun-monitor/internal/observability"
)

// DefaultMetadataTimeout bounds a single metadata fetch.
const DefaultMetadataTimeout = 3 * time.Second

// maxMetadataBytes caps how much of a metadata document is read.
const maxMetadataBytes = 1 << 20

// MetadataStatus is the outcome of fetching a token's metadata URI.
type MetadataStatus int

const (
	// MetadataSkipped means the URI was not fetchable and no request was made.
	MetadataSkipped MetadataStatus = iota
	// MetadataOK means a JSON document was fetched and decoded.
	MetadataOK
	// MetadataFailed means the server answered with a non-2xx or non-JSON response.
	MetadataFailed
	// MetadataError means the request failed in transport, timed out or returned undecodable JSON.
	MetadataError
)

func (s MetadataStatus) String() string {
	switch s {
	case MetadataSkipped:
		return "skipped"
	case MetadataOK:
		return "ok"
	case MetadataFailed:
		return "failed"
	case MetadataError:
		return "error"
	default:
		return fmt.Sprintf("MetadataStatus(%d)", int(s))
	}
}

// Metadata is the off-chain metadata outcome used by Score.
type Metadata struct {
	Status      MetadataStatus
	TwitterURL  string
	TelegramURL string
}

// MetadataSource fetches token metadata documents.
type MetadataSource interface {
	Fetch(ctx context.Context, uri string) Metadata
}

// MetadataFetcher fetches metadata JSON over HTTP.
type MetadataFetcher struct {
	client  *http.Client
	timeout time.Duration
	logger  zerolog.Logger
}

// NewMetadataFetcher creates a fetcher with the given per-request timeout.
func NewMetadataFetcher(timeout time.Duration, logger zerolog.Logger) *MetadataFetcher {
	if timeout <= 0 {
		timeout = DefaultMetadataTimeout
	}
	return &MetadataFetcher{
		client:  &http.Client{},
		timeout: timeout,
		logger:  logger.With().Str("component", "metadata").Logger(),
	}
}

var _ MetadataSource = (*MetadataFetcher)(nil)

// Fetch retrieves uri and extracts social links. It never returns an
// error; failures are reported through Metadata.Status.
func (f *MetadataFetcher) Fetch(ctx context.Context, uri string) Metadata {
	if !FetchableURI(uri) {
		return Metadata{Status: MetadataSkipped}
	}

	start := time.Now()
	defer func() {
		observability.RecordMetadataFetch(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		f.logger.Warn().Err(err).Str("uri", uri).Msg("build metadata request")
		return Metadata{Status: MetadataError}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn().Err(err).Str("uri", uri).Msg("fetch metadata")
		return Metadata{Status: MetadataError}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 ||
		!strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		f.logger.Debug().Int("status", resp.StatusCode).Str("uri", uri).Msg("metadata not served as json")
		return Metadata{Status: MetadataFailed}
	}

	var raw interface{}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxMetadataBytes)).Decode(&raw); err != nil {
		f.logger.Warn().Err(err).Str("uri", uri).Msg("decode metadata")
		return Metadata{Status: MetadataError}
	}
	doc, _ := raw.(map[string]interface{})

	return Metadata{
		Status:      MetadataOK,
		TwitterURL:  socialLink(doc, "twitter"),
		TelegramURL: socialLink(doc, "telegram"),
	}
}

// socialLink looks for key at the top level, then under "extensions",
// then under "links". Empty and non-string values are skipped.
func socialLink(doc map[string]interface{}, key string) string {
	if s, ok := doc[key].(string); ok && s != "" {
		return s
	}
	for _, section := range []string{"extensions", "links"} {
		sub, ok := doc[section].(map[string]interface{})
		if !ok {
			continue
		}
		if s, ok := sub[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
