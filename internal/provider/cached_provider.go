package provider

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-exotics/internal/logger"
	"github.com/yourusername/clever-exotics/internal/models"
)

// CachedProvider wraps a Provider with a TTL cache. Only horses missing from
// the cache are sent upstream.
type CachedProvider struct {
	upstream     Provider
	cache        *ProbabilityCache
	modelVersion string
	log          *logger.ProviderLogger
}

// NewCachedProvider creates a caching provider
func NewCachedProvider(upstream Provider, cache *ProbabilityCache, modelVersion string, log *logrus.Logger) *CachedProvider {
	return &CachedProvider{
		upstream:     upstream,
		cache:        cache,
		modelVersion: modelVersion,
		log:          logger.NewProviderLogger(log),
	}
}

// WinProbabilities implements Provider.
func (c *CachedProvider) WinProbabilities(ctx context.Context, raceID string, horses []models.Horse) (map[string]float64, error) {
	start := time.Now()
	out := make(map[string]float64, len(horses))
	missing := make([]models.Horse, 0, len(horses))

	for _, h := range horses {
		if p, ok := c.cache.Get(c.key(raceID, h.ID)); ok {
			out[h.ID] = p
			continue
		}
		missing = append(missing, h)
	}
	hits := len(out)

	if len(missing) > 0 {
		fetched, err := c.upstream.WinProbabilities(ctx, raceID, missing)
		if err != nil {
			c.log.LogProviderFailure(raceID, err)
			if hits > 0 {
				return out, nil
			}
			return nil, err
		}
		for id, p := range fetched {
			out[id] = p
			c.cache.Set(c.key(raceID, id), p)
		}
	}

	c.log.LogPredictionRequest(raceID, len(horses), hits, time.Since(start).Milliseconds())
	return out, nil
}

// Cache exposes the underlying cache for stats and invalidation
func (c *CachedProvider) Cache() *ProbabilityCache {
	return c.cache
}

func (c *CachedProvider) key(raceID, horseID string) CacheKey {
	return CacheKey{RaceID: raceID, HorseID: horseID, ModelVersion: c.modelVersion}
}
