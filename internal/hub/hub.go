// Package hub relays monitor output to connected viewers over WebSocket
// and serves their on-demand enrichment requests.
package hub

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"pumpfun-monitor/internal/domain"
	"pumpfun-monitor/internal/observability"
	"pumpfun-monitor/internal/solana"
	"pumpfun-monitor/internal/state"
)

// TokenSource provides the active tokens sent to newly connected viewers.
type TokenSource interface {
	Snapshot() []*domain.TokenRecord
}

// Enricher fetches on-chain data for a token.
type Enricher interface {
	Enrich(ctx context.Context, mint, creator string) (domain.OnChainData, error)
}

// OnChainRecorder stores enrichment results on the active token.
type OnChainRecorder interface {
	ApplyOnChain(mint string, data domain.OnChainData) error
}

// Options configures a Hub.
type Options struct {
	Tokens   TokenSource
	Enricher Enricher
	// Recorder is optional; when set, enrichment results are written back
	// to tokens that are still active.
	Recorder OnChainRecorder
	Origins  OriginPolicy

	// RatePerSec and Burst bound enrichment requests per viewer.
	RatePerSec float64
	Burst      int

	SendQueue     int           // Default: 256 messages per viewer
	WriteTimeout  time.Duration // Default: 10s
	PongWait      time.Duration // Default: 60s
	PingInterval  time.Duration // Default: 30s
	EnrichTimeout time.Duration // Default: 30s

	Logger zerolog.Logger
}

// Hub tracks connected viewers and fans messages out to them.
type Hub struct {
	opts     Options
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	mu       sync.RWMutex
	viewers  map[string]*viewer
	limiters map[string]*rate.Limiter
	closed   bool

	// ctx bounds enrichment work; it ends with the hub, not with the
	// requesting viewer.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a hub.
func New(opts Options) *Hub {
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 1
	}
	if opts.Burst <= 0 {
		opts.Burst = 5
	}
	if opts.SendQueue <= 0 {
		opts.SendQueue = 256
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.PongWait <= 0 {
		opts.PongWait = 60 * time.Second
	}
	if opts.PingInterval <= 0 || opts.PingInterval >= opts.PongWait {
		opts.PingInterval = opts.PongWait / 2
	}
	if opts.EnrichTimeout <= 0 {
		opts.EnrichTimeout = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		ctx:      ctx,
		cancel:   cancel,
		opts:     opts,
		logger:   opts.Logger.With().Str("component", "hub").Logger(),
		viewers:  make(map[string]*viewer),
		limiters: make(map[string]*rate.Limiter),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     opts.Origins.Check,
	}
	return h
}

// ServeHTTP upgrades the request and registers the viewer. The viewer
// receives a welcome message followed by every active token.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("viewer upgrade failed")
		return
	}

	v := newViewer(uuid.NewString(), conn, h.opts.SendQueue)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	if msg, err := encode(welcomeMessage()); err == nil {
		v.enqueue(msg)
	}
	if h.opts.Tokens != nil {
		for _, rec := range h.opts.Tokens.Snapshot() {
			if msg, err := encode(NewTokenMessage(rec)); err == nil {
				v.enqueue(msg)
			}
		}
	}
	h.viewers[v.id] = v
	h.limiters[v.id] = rate.NewLimiter(rate.Limit(h.opts.RatePerSec), h.opts.Burst)
	n := len(h.viewers)
	h.mu.Unlock()

	observability.SetViewersConnected(n)
	h.logger.Info().Str("viewer", v.id).Str("remote", r.RemoteAddr).Msg("viewer connected")

	h.wg.Add(2)
	go h.writePump(v)
	go h.readPump(v)
}

// Broadcast sends msg to every viewer. Viewers whose send queue is full
// are disconnected.
func (h *Hub) Broadcast(msg Message) {
	data, err := encode(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msg.Type).Msg("encode broadcast")
		return
	}

	h.mu.RLock()
	slow := h.fanOut(data)
	h.mu.RUnlock()

	h.dropSlow(slow)
}

// Publish runs commit and broadcasts the message it returns while viewer
// registration is blocked. A viewer therefore sees a committed token either
// in its connect snapshot or as a broadcast, never both. Nothing is sent
// when commit reports false.
func (h *Hub) Publish(commit func() (Message, bool)) {
	h.mu.Lock()
	msg, ok := commit()
	if !ok {
		h.mu.Unlock()
		return
	}
	data, err := encode(msg)
	if err != nil {
		h.mu.Unlock()
		h.logger.Error().Err(err).Str("type", msg.Type).Msg("encode broadcast")
		return
	}
	slow := h.fanOut(data)
	h.mu.Unlock()

	h.dropSlow(slow)
}

// fanOut queues data on every viewer and returns those whose queue is
// full. h.mu must be held.
func (h *Hub) fanOut(data []byte) []*viewer {
	var slow []*viewer
	for _, v := range h.viewers {
		if !v.enqueue(data) {
			slow = append(slow, v)
		}
	}
	return slow
}

func (h *Hub) dropSlow(slow []*viewer) {
	for _, v := range slow {
		observability.RecordViewerDrop()
		h.logger.Warn().Str("viewer", v.id).Msg("dropping slow viewer")
		h.remove(v)
	}
}

// Flush drains b and broadcasts one batch message per non-empty kind.
// It returns the number of trades and analyzed transactions sent.
func (h *Hub) Flush(b *Buffer) (trades, analyzed int) {
	tr, an := b.Flush()
	if len(tr) > 0 {
		h.Broadcast(TradeBatchMessage(tr))
		observability.RecordBatchFlushed(TypeTradeBatch, len(tr))
	}
	if len(an) > 0 {
		h.Broadcast(AnalyzedTxBatchMessage(an))
		observability.RecordBatchFlushed(TypeAnalyzedTxBatch, len(an))
	}
	return len(tr), len(an)
}

// Len returns the number of connected viewers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers)
}

// Close disconnects every viewer and waits for their goroutines.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	viewers := make([]*viewer, 0, len(h.viewers))
	for id, v := range h.viewers {
		viewers = append(viewers, v)
		delete(h.viewers, id)
		delete(h.limiters, id)
	}
	h.mu.Unlock()

	for _, v := range viewers {
		v.close()
	}
	h.cancel()
	h.wg.Wait()
	observability.SetViewersConnected(0)
}

// remove unregisters v and closes its connection.
func (h *Hub) remove(v *viewer) {
	h.mu.Lock()
	_, ok := h.viewers[v.id]
	if ok {
		delete(h.viewers, v.id)
		delete(h.limiters, v.id)
	}
	n := len(h.viewers)
	h.mu.Unlock()

	v.close()
	if ok {
		observability.SetViewersConnected(n)
		h.logger.Info().Str("viewer", v.id).Msg("viewer disconnected")
	}
}

func (h *Hub) limiter(id string) *rate.Limiter {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.limiters[id]
}

// handleRequest validates an enrichment request and answers it
// asynchronously. Only the requesting viewer gets the reply; if it has
// disconnected meanwhile the result is still recorded and the reply dropped.
func (h *Hub) handleRequest(v *viewer, req Request) {
	if err := validatePair(req.Mint, req.Creator); err != nil {
		observability.RecordEnrichment("invalid")
		h.logger.Warn().Err(err).Str("viewer", v.id).Msg("invalid enrichment request")
		h.send(v, onChainError(req.Mint, ErrTextInvalidAddress))
		return
	}

	if l := h.limiter(v.id); l == nil || !l.Allow() {
		observability.RecordEnrichment("rate_limited")
		h.send(v, onChainError(req.Mint, ErrTextRateLimited))
		return
	}

	if h.opts.Enricher == nil {
		h.send(v, onChainError(req.Mint, errTextFetchPrefix+"enrichment disabled"))
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		ctx, cancel := context.WithTimeout(h.ctx, h.opts.EnrichTimeout)
		defer cancel()

		data, err := h.opts.Enricher.Enrich(ctx, req.Mint, req.Creator)
		if err != nil {
			h.logger.Error().Err(err).Str("mint", req.Mint).Msg("failed to fetch on-chain data")
			h.send(v, onChainError(req.Mint, errTextFetchPrefix+err.Error()))
			return
		}

		if h.opts.Recorder != nil {
			if err := h.opts.Recorder.ApplyOnChain(req.Mint, data); err != nil && !errors.Is(err, state.ErrNotFound) {
				h.logger.Warn().Err(err).Str("mint", req.Mint).Msg("store on-chain data")
			}
		}
		h.send(v, onChainResponse(req.Mint, data))
	}()
}

// send delivers msg to a single viewer.
func (h *Hub) send(v *viewer, msg Message) {
	data, err := encode(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msg.Type).Msg("encode message")
		return
	}
	if !v.enqueue(data) && !v.isClosed() {
		observability.RecordViewerDrop()
		h.remove(v)
	}
}

func validatePair(mint, creator string) error {
	if err := solana.ValidateAddress(mint); err != nil {
		return err
	}
	return solana.ValidateAddress(creator)
}
