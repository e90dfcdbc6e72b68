// Package state holds the monitor's bounded in-memory state: active
// tokens, creator deploy history and the poller's seen signatures.
// Nothing here survives a restart.
package state

import (
	"sync"
	"time"

	"pumpfun-monitor/internal/domain"
)

// Config bounds the store's maps.
type Config struct {
	// Capacity is the maximum number of active tokens.
	Capacity int
	// DeployWindow is how far back deploys count as recent.
	DeployWindow time.Duration
	// HistoryPruneSize is the creator count above which history is pruned.
	HistoryPruneSize int
	// HistoryMaxAge drops creators whose latest deploy is older than this.
	HistoryMaxAge time.Duration
	// SignatureLimit is the dedup set size that triggers truncation.
	SignatureLimit int
	// SignatureKeep is how many recent signatures survive truncation.
	SignatureKeep int
}

// DefaultConfig returns the production bounds.
func DefaultConfig() Config {
	return Config{
		Capacity:         100,
		DeployWindow:     5 * time.Minute,
		HistoryPruneSize: 1000,
		HistoryMaxAge:    time.Hour,
		SignatureLimit:   2000,
		SignatureKeep:    1000,
	}
}

// Store owns all mutable monitor state. It is safe for concurrent use.
type Store struct {
	cfg Config

	mu     sync.RWMutex
	tokens map[string]*domain.TokenRecord
	order  []string // mints, oldest first

	history    *DeployHistory
	signatures *SignatureSet
}

// NewStore creates an empty store.
func NewStore(cfg Config) *Store {
	def := DefaultConfig()
	if cfg.Capacity <= 0 {
		cfg.Capacity = def.Capacity
	}
	if cfg.DeployWindow <= 0 {
		cfg.DeployWindow = def.DeployWindow
	}
	if cfg.HistoryPruneSize <= 0 {
		cfg.HistoryPruneSize = def.HistoryPruneSize
	}
	if cfg.HistoryMaxAge <= 0 {
		cfg.HistoryMaxAge = def.HistoryMaxAge
	}
	if cfg.SignatureLimit <= 0 {
		cfg.SignatureLimit = def.SignatureLimit
	}
	if cfg.SignatureKeep <= 0 || cfg.SignatureKeep > cfg.SignatureLimit {
		cfg.SignatureKeep = cfg.SignatureLimit / 2
	}

	return &Store{
		cfg:        cfg,
		tokens:     make(map[string]*domain.TokenRecord),
		history:    NewDeployHistory(cfg.DeployWindow, cfg.HistoryPruneSize, cfg.HistoryMaxAge),
		signatures: NewSignatureSet(cfg.SignatureLimit, cfg.SignatureKeep),
	}
}

// History returns the creator deploy history.
func (s *Store) History() *DeployHistory {
	return s.history
}

// Signatures returns the processed-signature set.
func (s *Store) Signatures() *SignatureSet {
	return s.signatures
}

// Put inserts or replaces a token. A new mint goes to the back of the
// eviction queue; a known mint keeps its position. Returns the mints
// evicted to stay within capacity.
func (s *Store) Put(rec *domain.TokenRecord) ([]string, error) {
	if rec == nil || rec.Mint == "" {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tokens[rec.Mint]; !exists {
		s.order = append(s.order, rec.Mint)
	}
	s.tokens[rec.Mint] = rec.Clone()

	var evicted []string
	for len(s.order) > s.cfg.Capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.tokens, oldest)
		evicted = append(evicted, oldest)
	}
	return evicted, nil
}

// Get returns a copy of the token for mint, or ErrNotFound.
func (s *Store) Get(mint string) (*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.tokens[mint]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

// Label returns the name and symbol of an active token.
func (s *Store) Label(mint string) (name, symbol string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.tokens[mint]
	if !ok {
		return "", "", false
	}
	return rec.Name, rec.Symbol, true
}

// Snapshot returns copies of all active tokens, oldest first.
func (s *Store) Snapshot() []*domain.TokenRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.TokenRecord, 0, len(s.order))
	for _, mint := range s.order {
		out = append(out, s.tokens[mint].Clone())
	}
	return out
}

// Len returns the number of active tokens.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Clear drops every active token and returns how many were removed.
// Deploy history and signatures are kept.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.order)
	s.tokens = make(map[string]*domain.TokenRecord)
	s.order = nil
	return n
}

// ApplyOnChain writes enrichment results onto an active token.
// Returns ErrNotFound if the token was evicted in the meantime.
func (s *Store) ApplyOnChain(mint string, data domain.OnChainData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tokens[mint]
	if !ok {
		return ErrNotFound
	}
	if data.HoldersCount != nil {
		n := *data.HoldersCount
		rec.HoldersCount = &n
	}
	rec.OnChainScoreAdjustments = data.ScoreAdjustments
	rec.OnChainFlags = append([]string{}, data.Flags...)
	rec.RecentOnChainTrades = append([]domain.PastTrade{}, data.PastTrades...)
	return nil
}

// Reset empties all maps. Intended for tests.
func (s *Store) Reset() {
	s.Clear()
	s.history.Reset()
	s.signatures.Reset()
}
