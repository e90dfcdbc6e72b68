// Package poller periodically pulls recent program transactions over RPC
// and hands the parsed ones to the output buffer.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"pumpfun-monitor/internal/domain"
	"pumpfun-monitor/internal/observability"
	"pumpfun-monitor/internal/parser"
	"pumpfun-monitor/internal/solana"
	"pumpfun-monitor/internal/state"
)

// ErrBusy is returned by Poll while another run is in progress.
var ErrBusy = errors.New("poll already running")

// Sink receives analyzed transactions.
type Sink interface {
	AddAnalyzed(tx *domain.AnalyzedTransaction)
}

// Config configures the poller.
type Config struct {
	ProgramID string
	// Interval between poll runs.
	Interval time.Duration
	// RetryDelay is the pause after a failed run before polling resumes.
	RetryDelay time.Duration
	// SignatureLimit is how many recent signatures each run requests.
	SignatureLimit int
}

// DefaultConfig returns default poller configuration.
func DefaultConfig() Config {
	return Config{
		ProgramID:      solana.PumpFunProgramID,
		Interval:       4 * time.Second,
		RetryDelay:     10 * time.Second,
		SignatureLimit: 10,
	}
}

// Poller fetches recent signatures for the program, skips ones already
// processed, parses the rest and forwards relevant trades to the sink.
type Poller struct {
	cfg    Config
	rpc    solana.RPCClient
	parser *parser.Parser
	seen   *state.SignatureSet
	sink   Sink
	logger zerolog.Logger

	busy   atomic.Bool
	failed chan error
	wg     sync.WaitGroup
}

// New creates a poller. An empty ProgramID defaults to the parser's program.
func New(cfg Config, rpc solana.RPCClient, p *parser.Parser, seen *state.SignatureSet, sink Sink, logger zerolog.Logger) *Poller {
	def := DefaultConfig()
	if cfg.ProgramID == "" && p != nil {
		cfg.ProgramID = p.ProgramID()
	}
	if cfg.ProgramID == "" {
		cfg.ProgramID = def.ProgramID
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.SignatureLimit <= 0 {
		cfg.SignatureLimit = def.SignatureLimit
	}

	return &Poller{
		cfg:    cfg,
		rpc:    rpc,
		parser: p,
		seen:   seen,
		sink:   sink,
		logger: logger.With().Str("component", "poller").Logger(),
		failed: make(chan error, 1),
	}
}

// Busy reports whether a run is in progress.
func (p *Poller) Busy() bool {
	return p.busy.Load()
}

// Run polls on every tick until ctx is cancelled. Each tick starts a run
// in its own goroutine; ticks that find a run in progress are skipped.
// A failed run stops the ticker, and polling resumes once after RetryDelay.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info().
		Dur("interval", p.cfg.Interval).
		Str("program", p.cfg.ProgramID).
		Msg("starting poller")

	ticker := time.NewTicker(p.cfg.Interval)
	tickC := ticker.C
	var retry <-chan time.Time

	defer func() {
		ticker.Stop()
		p.wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("poller stopping")
			return ctx.Err()

		case <-tickC:
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				err := p.Poll(ctx)
				if err == nil || errors.Is(err, ErrBusy) || ctx.Err() != nil {
					return
				}
				select {
				case p.failed <- err:
				default:
				}
			}()

		case err := <-p.failed:
			if tickC == nil {
				continue
			}
			p.logger.Error().Err(err).Dur("retry_in", p.cfg.RetryDelay).Msg("polling stopped")
			ticker.Stop()
			tickC = nil
			retry = time.After(p.cfg.RetryDelay)

		case <-retry:
			retry = nil
			ticker.Reset(p.cfg.Interval)
			tickC = ticker.C
			p.logger.Info().Msg("polling restarted")
		}
	}
}

// Poll performs one run. It returns ErrBusy without doing anything if a
// run is already in progress. Any RPC error aborts the run.
func (p *Poller) Poll(ctx context.Context) error {
	if p.busy.Swap(true) {
		observability.RecordPollRun("skipped")
		return ErrBusy
	}
	defer p.busy.Store(false)

	err := p.poll(ctx)
	if err != nil {
		observability.RecordPollRun("error")
		return err
	}
	observability.RecordPollRun("ok")
	return nil
}

func (p *Poller) poll(ctx context.Context) error {
	sigs, err := p.rpc.GetSignaturesForAddress(ctx, p.cfg.ProgramID, &solana.SignaturesOpts{Limit: p.cfg.SignatureLimit})
	if err != nil {
		return fmt.Errorf("get signatures: %w", err)
	}
	if len(sigs) == 0 {
		p.logger.Warn().Msg("no transaction signatures received")
		return nil
	}

	defer func() {
		observability.SetSeenSignatures(p.seen.Len())
	}()

	for _, info := range sigs {
		sig := info.Signature
		if err := solana.ValidateSignature(sig); err != nil {
			observability.RecordTxParsed("invalid_signature")
			p.logger.Debug().Err(err).Str("signature", sig).Msg("skipping signature")
			continue
		}
		if !p.seen.Add(sig) {
			continue
		}

		tx, err := p.rpc.GetTransaction(ctx, sig)
		if err != nil {
			return fmt.Errorf("get transaction %s: %w", sig, err)
		}
		if tx == nil {
			observability.RecordTxParsed("missing")
			continue
		}

		analyzed := p.parser.Parse(tx)
		if analyzed == nil {
			observability.RecordTxParsed("filtered")
			continue
		}
		observability.RecordTxParsed("analyzed")
		p.sink.AddAnalyzed(analyzed)
	}
	return nil
}
