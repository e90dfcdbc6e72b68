// Package monitor wires the feed, scorer, store and hub into one dispatch loop.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pumpfun-monitor/internal/domain"
	"pumpfun-monitor/internal/feed"
	"pumpfun-monitor/internal/hub"
	"pumpfun-monitor/internal/observability"
	"pumpfun-monitor/internal/scoring"
	"pumpfun-monitor/internal/state"
)

// Broadcaster fans messages out to viewers.
type Broadcaster interface {
	// Publish runs commit and broadcasts its message atomically with
	// respect to viewers joining.
	Publish(commit func() (hub.Message, bool))
	Flush(b *hub.Buffer) (trades, analyzed int)
}

// Runner is the single dispatcher for feed events, scored tokens and
// periodic flush and clear ticks.
type Runner struct {
	events        <-chan feed.Event
	metadata      scoring.MetadataSource
	store         *state.Store
	buffer        *hub.Buffer
	hub           Broadcaster
	flushInterval time.Duration
	clearInterval time.Duration
	now           func() time.Time
	logger        zerolog.Logger

	// fetched carries metadata outcomes from fetch goroutines back to Run.
	fetched chan fetchedToken
	wg      sync.WaitGroup
}

type fetchedToken struct {
	event domain.NewTokenEvent
	meta  scoring.Metadata
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Events        <-chan feed.Event
	Metadata      scoring.MetadataSource
	Store         *state.Store
	Buffer        *hub.Buffer
	Hub           Broadcaster
	FlushInterval time.Duration // Default: 500ms
	ClearInterval time.Duration // Default: 5m
	Now           func() time.Time
	Logger        zerolog.Logger
}

// NewRunner creates a new dispatcher.
func NewRunner(opts RunnerOptions) *Runner {
	flushInterval := opts.FlushInterval
	if flushInterval == 0 {
		flushInterval = 500 * time.Millisecond
	}

	clearInterval := opts.ClearInterval
	if clearInterval == 0 {
		clearInterval = 5 * time.Minute
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	buffer := opts.Buffer
	if buffer == nil {
		buffer = hub.NewBuffer()
	}

	return &Runner{
		events:        opts.Events,
		metadata:      opts.Metadata,
		store:         opts.Store,
		buffer:        buffer,
		hub:           opts.Hub,
		flushInterval: flushInterval,
		clearInterval: clearInterval,
		now:           now,
		logger:        opts.Logger.With().Str("component", "runner").Logger(),
		fetched:       make(chan fetchedToken, 64),
	}
}

// Run dispatches until ctx is cancelled. It waits for in-flight metadata
// fetches before returning.
func (r *Runner) Run(ctx context.Context) error {
	flushTicker := time.NewTicker(r.flushInterval)
	defer flushTicker.Stop()

	clearTicker := time.NewTicker(r.clearInterval)
	defer clearTicker.Stop()

	defer r.wg.Wait()

	events := r.events

	r.logger.Info().
		Dur("flush_interval", r.flushInterval).
		Dur("clear_interval", r.clearInterval).
		Msg("runner started")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("runner stopping")
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				r.logger.Info().Msg("feed events channel closed")
				events = nil
				continue
			}
			r.handleEvent(ctx, ev)

		case f := <-r.fetched:
			r.admit(f.event, f.meta)

		case <-flushTicker.C:
			r.hub.Flush(r.buffer)

		case <-clearTicker.C:
			r.clear()
		}
	}
}

func (r *Runner) handleEvent(ctx context.Context, ev feed.Event) {
	switch ev.Kind {
	case feed.EventTrade:
		r.buffer.AddTrade(r.labelTrade(ev.Trade))
	case feed.EventNewToken:
		r.scoreToken(ctx, ev.Token)
	}
}

// labelTrade fills the token name and symbol from the active set.
func (r *Runner) labelTrade(t domain.TradeRecord) domain.TradeRecord {
	name, symbol, ok := r.store.Label(t.Mint)
	if !ok || name == "" {
		name = domain.UnknownTokenName
	}
	if !ok || symbol == "" {
		symbol = domain.UnknownTokenSymbol
	}
	t.TokenName = name
	t.TokenSymbol = symbol
	return t
}

// scoreToken starts a metadata fetch for tokens with a fetchable URI and
// admits the others right away.
func (r *Runner) scoreToken(ctx context.Context, ev domain.NewTokenEvent) {
	if !scoring.FetchableURI(ev.URI) || r.metadata == nil {
		r.admit(ev, scoring.Metadata{Status: scoring.MetadataSkipped})
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		meta := r.metadata.Fetch(ctx, ev.URI)
		select {
		case r.fetched <- fetchedToken{event: ev, meta: meta}:
		case <-ctx.Done():
		}
	}()
}

// admit scores a token against the creator's deploy history, records the
// deploy, stores the token and announces it.
func (r *Runner) admit(ev domain.NewTokenEvent, meta scoring.Metadata) {
	now := r.now()
	history := r.store.History()

	recent := history.RecentDeploys(ev.Creator, now)
	res := scoring.Score(scoring.Input{Event: ev, Metadata: meta, RecentDeploys: recent})
	history.RecordDeploy(ev.Creator, now)
	observability.SetCreatorsTracked(history.Len())

	rec := scoring.NewTokenRecord(ev, meta, res)
	admitted := false
	r.hub.Publish(func() (hub.Message, bool) {
		evicted, err := r.store.Put(rec)
		if err != nil {
			r.logger.Warn().Err(err).Str("mint", ev.Mint).Msg("rejecting token")
			return hub.Message{}, false
		}
		if len(evicted) > 0 {
			observability.RecordTokenEvictions("capacity", len(evicted))
		}
		admitted = true
		return hub.NewTokenMessage(rec), true
	})
	if !admitted {
		return
	}
	observability.SetActiveTokens(r.store.Len())
	observability.RecordTokenScored(string(res.Classification))

	r.logger.Debug().
		Str("mint", rec.Mint).
		Str("symbol", rec.Symbol).
		Int("score", rec.Score).
		Str("type", string(rec.Type)).
		Strs("flags", rec.Flags).
		Msg("token scored")
}

func (r *Runner) clear() {
	n := r.store.Clear()
	observability.RecordTokenEvictions("periodic_clear", n)
	observability.SetActiveTokens(0)
	r.logger.Info().Int("cleared", n).Msg("cleared active tokens")
}
