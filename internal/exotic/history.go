package exotic

import (
	"sort"
	"sync"

	"github.com/yourusername/clever-exotics/internal/models"
)

// SignalHistory is a bounded, concurrency-safe ring buffer of emitted signals.
// When full, the oldest signals are overwritten.
type SignalHistory struct {
	mu       sync.RWMutex
	buf      []models.Signal
	next     int
	full     bool
	capacity int
}

// NewSignalHistory creates a history that retains up to capacity signals.
func NewSignalHistory(capacity int) *SignalHistory {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &SignalHistory{
		buf:      make([]models.Signal, capacity),
		capacity: capacity,
	}
}

// Append records signals in order.
func (h *SignalHistory) Append(signals ...models.Signal) {
	if len(signals) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, s := range signals {
		h.buf[h.next] = s
		h.next = (h.next + 1) % h.capacity
		if h.next == 0 {
			h.full = true
		}
	}
}

// Len returns the number of retained signals.
func (h *SignalHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lenLocked()
}

// Capacity returns the maximum number of retained signals.
func (h *SignalHistory) Capacity() int {
	return h.capacity
}

func (h *SignalHistory) lenLocked() int {
	if h.full {
		return h.capacity
	}
	return h.next
}

// Snapshot returns the retained signals oldest first.
func (h *SignalHistory) Snapshot() []models.Signal {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snapshotLocked()
}

func (h *SignalHistory) snapshotLocked() []models.Signal {
	if !h.full {
		out := make([]models.Signal, h.next)
		copy(out, h.buf[:h.next])
		return out
	}
	out := make([]models.Signal, 0, h.capacity)
	out = append(out, h.buf[h.next:]...)
	out = append(out, h.buf[:h.next]...)
	return out
}

// Top returns the n strongest retained signals, strongest first. Equal
// strengths keep chronological order. n <= 0 returns every signal.
func (h *SignalHistory) Top(n int) []models.Signal {
	h.mu.RLock()
	all := h.snapshotLocked()
	h.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].SignalStrength > all[j].SignalStrength
	})
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

// Clear drops every retained signal.
func (h *SignalHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf = make([]models.Signal, h.capacity)
	h.next = 0
	h.full = false
}
