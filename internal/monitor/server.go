package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"pumpfun-monitor/internal/config"
	"pumpfun-monitor/internal/enrich"
	"pumpfun-monitor/internal/feed"
	"pumpfun-monitor/internal/hub"
	"pumpfun-monitor/internal/logging"
	"pumpfun-monitor/internal/observability"
	"pumpfun-monitor/internal/parser"
	"pumpfun-monitor/internal/poller"
	"pumpfun-monitor/internal/scoring"
	"pumpfun-monitor/internal/solana"
	"pumpfun-monitor/internal/state"
	"pumpfun-monitor/internal/version"
)

// Server holds all components of the monitor service.
type Server struct {
	cfg    *config.Config
	logger zerolog.Logger

	store  *state.Store
	hub    *hub.Hub
	feed   *feed.Client
	poller *poller.Poller
	runner *Runner

	mu      sync.Mutex
	started time.Time
}

// NewServer builds every component from cfg. Nothing is started until Run.
func NewServer(cfg *config.Config, logger zerolog.Logger) *Server {
	rpc := solana.NewHTTPClient(cfg.RPC.URL,
		solana.WithTimeout(cfg.RPC.Timeout),
		solana.WithMaxRetries(cfg.RPC.MaxRetries),
	)

	stateCfg := state.DefaultConfig()
	stateCfg.Capacity = cfg.State.Capacity
	store := state.NewStore(stateCfg)

	buffer := hub.NewBuffer()

	h := hub.New(hub.Options{
		Tokens:     store,
		Enricher:   enrich.NewService(rpc, cfg.Program.ID, logging.Component(logger, "enrich")),
		Recorder:   store,
		Origins:    hub.ParseOrigins(cfg.Server.CORSOrigins),
		RatePerSec: cfg.Viewer.RatePerSec,
		Burst:      cfg.Viewer.Burst,
		SendQueue:  cfg.Hub.SendQueue,
		Logger:     logging.Component(logger, "hub"),
	})

	feedClient := feed.NewClient(feed.Config{
		URL:            cfg.Feed.URL,
		ReconnectDelay: cfg.Feed.ReconnectDelay,
		PingInterval:   cfg.Feed.PingInterval,
		ReadTimeout:    cfg.Feed.ReadTimeout,
	}, logger)

	p := poller.New(poller.Config{
		ProgramID:      cfg.Program.ID,
		Interval:       cfg.Poller.Interval,
		RetryDelay:     cfg.Poller.RetryDelay,
		SignatureLimit: cfg.Poller.SignatureLimit,
	}, rpc, parser.New(cfg.Program.ID), store.Signatures(), buffer, logging.Component(logger, "poller"))

	runner := NewRunner(RunnerOptions{
		Events:        feedClient.Events(),
		Metadata:      scoring.NewMetadataFetcher(cfg.Metadata.Timeout, logging.Component(logger, "metadata")),
		Store:         store,
		Buffer:        buffer,
		Hub:           h,
		FlushInterval: cfg.Hub.FlushInterval,
		ClearInterval: cfg.State.ClearInterval,
		Logger:        logging.Component(logger, "runner"),
	})

	return &Server{
		cfg:    cfg,
		logger: logging.Component(logger, "server"),
		store:  store,
		hub:    h,
		feed:   feedClient,
		poller: p,
		runner: runner,
	}
}

// Run starts the feed, poller, dispatcher and HTTP listeners, and blocks
// until ctx is cancelled or a component fails.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	s.started = time.Now()
	s.mu.Unlock()

	s.logger.Info().
		Str("build", version.String()).
		Str("program", s.cfg.Program.ID).
		Int("port", s.cfg.Server.Port).
		Msg("starting monitor")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 5)
	var wg sync.WaitGroup

	start := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("%s: %w", name, err)
			}
		}()
	}

	start("feed", s.feed.Run)
	start("poller", s.poller.Run)
	start("runner", s.runner.Run)
	start("http", s.serveHTTP)
	if s.cfg.Metrics.Addr != "" {
		start("metrics", s.serveMetrics)
	}

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-errCh:
		s.logger.Error().Err(err).Msg("component failed")
	}

	cancel()
	s.hub.Close()
	wg.Wait()

	s.logger.Info().Msg("monitor stopped")
	return err
}

// Handler returns the viewer-facing HTTP handler.
func (s *Server) Handler() http.Handler {
	return hub.NewRouter(s.hub, func(r *mux.Router) {
		r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	})
}

func (s *Server) serveHTTP(ctx context.Context) error {
	return s.listen(ctx, s.cfg.ListenAddr(), s.Handler())
}

func (s *Server) serveMetrics(ctx context.Context) error {
	r := mux.NewRouter()
	r.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)
	return s.listen(ctx, s.cfg.Metrics.Addr, r)
}

// listen serves handler on addr until ctx is cancelled, then shuts down
// within the configured timeout.
func (s *Server) listen(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("http listener started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn().Err(err).Str("addr", addr).Msg("http shutdown")
	}
	return ctx.Err()
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status          string `json:"status"`
	Version         string `json:"version"`
	Uptime          string `json:"uptime"`
	FeedConnected   bool   `json:"feed_connected"`
	PollerBusy      bool   `json:"poller_busy"`
	ActiveTokens    int    `json:"active_tokens"`
	CreatorsTracked int    `json:"creators_tracked"`
	SeenSignatures  int    `json:"seen_signatures"`
	Viewers         int    `json:"viewers"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	var uptime time.Duration
	if !started.IsZero() {
		uptime = time.Since(started).Round(time.Second)
	}

	resp := StatusResponse{
		Status:          "running",
		Version:         version.Version,
		Uptime:          uptime.String(),
		FeedConnected:   s.feed.Connected(),
		PollerBusy:      s.poller.Busy(),
		ActiveTokens:    s.store.Len(),
		CreatorsTracked: s.store.History().Len(),
		SeenSignatures:  s.store.Signatures().Len(),
		Viewers:         s.hub.Len(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
