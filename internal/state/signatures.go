package state

import "sync"

// SignatureSet remembers processed transaction signatures. When it grows
// past its limit it keeps only the most recently added ones.
type SignatureSet struct {
	limit int
	keep  int

	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
}

// NewSignatureSet creates a set truncated to keep entries once it exceeds limit.
func NewSignatureSet(limit, keep int) *SignatureSet {
	return &SignatureSet{
		limit: limit,
		keep:  keep,
		seen:  make(map[string]struct{}),
	}
}

// Contains reports whether sig was added and not yet truncated away.
func (s *SignatureSet) Contains(sig string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[sig]
	return ok
}

// Add records sig. Returns false if it was already present.
func (s *SignatureSet) Add(sig string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[sig]; ok {
		return false
	}
	s.seen[sig] = struct{}{}
	s.order = append(s.order, sig)

	if len(s.order) > s.limit {
		drop := len(s.order) - s.keep
		for _, old := range s.order[:drop] {
			delete(s.seen, old)
		}
		s.order = append([]string(nil), s.order[drop:]...)
	}
	return true
}

// Len returns the number of remembered signatures.
func (s *SignatureSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Reset forgets all signatures.
func (s *SignatureSet) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = make(map[string]struct{})
	s.order = nil
}
