// Package publisher fans generated signals out to external consumers.
package publisher

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-exotics/internal/config"
	"github.com/yourusername/clever-exotics/internal/models"
)

// Publisher delivers a batch of signals produced by one optimization.
type Publisher interface {
	Publish(ctx context.Context, raceID string, signals []models.Signal) error
	Name() string
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) Publish(context.Context, string, []models.Signal) error { return nil }
func (Nop) Name() string                                           { return "none" }
func (Nop) Close() error                                           { return nil }

// Multi publishes to every sink and joins their errors.
type Multi []Publisher

// Publish implements Publisher.
func (m Multi) Publish(ctx context.Context, raceID string, signals []models.Signal) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, raceID, signals); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Name implements Publisher.
func (m Multi) Name() string { return "multi" }

// Close closes every sink.
func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New builds the publisher described by cfg. An empty sink list yields Nop.
func New(cfg *config.PublisherConfig, log *logrus.Logger) (Publisher, error) {
	var sinks Multi
	for _, sink := range cfg.Sinks {
		switch sink {
		case "redis":
			sinks = append(sinks, NewRedisPublisher(cfg, log))
		case "kafka":
			sinks = append(sinks, NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log))
		case "none", "":
		default:
			_ = sinks.Close()
			return nil, fmt.Errorf("unknown publisher sink %q", sink)
		}
	}

	switch len(sinks) {
	case 0:
		return Nop{}, nil
	case 1:
		return sinks[0], nil
	default:
		return sinks, nil
	}
}
