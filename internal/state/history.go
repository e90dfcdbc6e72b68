package state

import (
	"sync"
	"time"
)

// DeployHistory maps creators to their recent deploy timestamps.
type DeployHistory struct {
	window    time.Duration
	pruneSize int
	maxAge    time.Duration

	mu      sync.Mutex
	entries map[string][]time.Time
}

// NewDeployHistory creates a history that counts deploys within window
// and prunes once more than pruneSize creators are tracked.
func NewDeployHistory(window time.Duration, pruneSize int, maxAge time.Duration) *DeployHistory {
	return &DeployHistory{
		window:    window,
		pruneSize: pruneSize,
		maxAge:    maxAge,
		entries:   make(map[string][]time.Time),
	}
}

// RecentDeploys counts the creator's deploys strictly within the window before now.
func (h *DeployHistory) RecentDeploys(creator string, now time.Time) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.recent(creator, now))
}

// RecordDeploy appends now to the creator's history, dropping deploys
// outside the window. Returns the number of creators pruned.
func (h *DeployHistory) RecordDeploy(creator string, now time.Time) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[creator] = append(h.recent(creator, now), now)

	if len(h.entries) <= h.pruneSize {
		return 0
	}
	cutoff := now.Add(-h.maxAge)
	pruned := 0
	for c, ts := range h.entries {
		if ts[len(ts)-1].Before(cutoff) {
			delete(h.entries, c)
			pruned++
		}
	}
	return pruned
}

// Len returns the number of tracked creators.
func (h *DeployHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Reset drops all history.
func (h *DeployHistory) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = make(map[string][]time.Time)
}

// recent returns a fresh slice of the creator's timestamps inside the window.
func (h *DeployHistory) recent(creator string, now time.Time) []time.Time {
	var out []time.Time
	for _, ts := range h.entries[creator] {
		if now.Sub(ts) < h.window {
			out = append(out, ts)
		}
	}
	return out
}
