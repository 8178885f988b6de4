package provider

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/clever-exotics/internal/metrics"
)

// CacheKey identifies a cached probability
type CacheKey struct {
	RaceID       string
	HorseID      string
	ModelVersion string
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.RaceID, k.HorseID, k.ModelVersion)
}

// ProbabilityCache provides in-memory caching for provider probabilities
type ProbabilityCache struct {
	cache   *cache.Cache
	ttl     time.Duration
	maxSize int

	mu        sync.Mutex
	hitCount  atomic.Uint64
	missCount atomic.Uint64
}

// NewProbabilityCache creates a new probability cache
func NewProbabilityCache(ttl time.Duration, maxSize int) *ProbabilityCache {
	return &ProbabilityCache{
		cache:   cache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a cached probability
func (pc *ProbabilityCache) Get(key CacheKey) (float64, bool) {
	if v, found := pc.cache.Get(key.String()); found {
		if p, ok := v.(float64); ok {
			pc.hitCount.Add(1)
			pc.updateMetrics()
			return p, true
		}
	}

	pc.missCount.Add(1)
	pc.updateMetrics()
	return 0, false
}

// Set stores a probability in cache. Returns false when the cache is full.
func (pc *ProbabilityCache) Set(key CacheKey, probability float64) bool {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.maxSize > 0 && pc.cache.ItemCount() >= pc.maxSize {
		pc.cache.DeleteExpired()
		if pc.cache.ItemCount() >= pc.maxSize {
			return false
		}
	}

	pc.cache.Set(key.String(), probability, pc.ttl)
	return true
}

// InvalidateRace removes all entries for a race
func (pc *ProbabilityCache) InvalidateRace(raceID string) int {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	prefix := raceID + ":"
	removed := 0
	for k := range pc.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			pc.cache.Delete(k)
			removed++
		}
	}
	return removed
}

// Clear flushes the entire cache
func (pc *ProbabilityCache) Clear() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.cache.Flush()
	pc.hitCount.Store(0)
	pc.missCount.Store(0)
	pc.updateMetrics()
}

// Stats returns cache statistics
func (pc *ProbabilityCache) Stats() (hits, misses uint64, ratio float64) {
	hits = pc.hitCount.Load()
	misses = pc.missCount.Load()
	total := hits + misses
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// ItemCount returns the number of items in cache
func (pc *ProbabilityCache) ItemCount() int {
	return pc.cache.ItemCount()
}

func (pc *ProbabilityCache) updateMetrics() {
	_, _, ratio := pc.Stats()
	metrics.UpdateProviderCacheHitRatio(ratio)
}
