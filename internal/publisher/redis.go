package publisher

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-exotics/internal/config"
	"github.com/yourusername/clever-exotics/internal/models"
)

type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// RedisPublisher publishes signals on a Redis pub/sub channel.
type RedisPublisher struct {
	rdb     redisClient
	channel string
	now     func() time.Time
	log     *logrus.Entry
}

// NewRedisPublisher connects lazily to the configured Redis server.
func NewRedisPublisher(cfg *config.PublisherConfig, log *logrus.Logger) *RedisPublisher {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return newRedisPublisher(rdb, cfg.RedisChannel, log)
}

func newRedisPublisher(rdb redisClient, channel string, log *logrus.Logger) *RedisPublisher {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &RedisPublisher{
		rdb:     rdb,
		channel: channel,
		now:     time.Now,
		log:     log.WithFields(logrus.Fields{"component": "publisher", "sink": "redis"}),
	}
}

// Publish sends one message per signal.
func (p *RedisPublisher) Publish(ctx context.Context, raceID string, signals []models.Signal) error {
	for _, s := range signals {
		payload, err := NewSignalMessage(raceID, s, p.now()).Encode()
		if err != nil {
			return fmt.Errorf("redis: encode signal %s: %w", s.ID, err)
		}
		if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
			return fmt.Errorf("redis: publish %s: %w", p.channel, err)
		}
	}

	p.log.WithFields(logrus.Fields{
		"race_id": raceID,
		"channel": p.channel,
		"count":   len(signals),
	}).Debug("Published signals")
	return nil
}

// Name implements Publisher.
func (p *RedisPublisher) Name() string { return "redis" }

// Close closes the Redis client.
func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}
