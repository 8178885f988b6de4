package publisher

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-exotics/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes signals to a Kafka topic keyed by bet type.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	now    func() time.Time
	log    *logrus.Entry
}

// NewKafkaPublisher creates a writer for the topic.
func NewKafkaPublisher(brokers []string, topic string, log *logrus.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		ReadTimeout:            10 * time.Second,
		WriteTimeout:           10 * time.Second,
	}
	return newKafkaPublisher(writer, topic, log)
}

func newKafkaPublisher(w messageWriter, topic string, log *logrus.Logger) *KafkaPublisher {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &KafkaPublisher{
		writer: w,
		topic:  topic,
		now:    time.Now,
		log:    log.WithFields(logrus.Fields{"component": "publisher", "sink": "kafka"}),
	}
}

// Publish writes all signals in a single batch.
func (p *KafkaPublisher) Publish(ctx context.Context, raceID string, signals []models.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	now := p.now()
	msgs := make([]kafka.Message, 0, len(signals))
	for _, s := range signals {
		value, err := NewSignalMessage(raceID, s, now).Encode()
		if err != nil {
			return fmt.Errorf("kafka: encode signal %s: %w", s.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(s.BetType),
			Value: value,
			Time:  now,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.log.WithError(err).Error("Failed to publish signals")
		return fmt.Errorf("kafka: write %s: %w", p.topic, err)
	}

	p.log.WithFields(logrus.Fields{
		"race_id": raceID,
		"topic":   p.topic,
		"count":   len(msgs),
	}).Debug("Published signals")
	return nil
}

// Name implements Publisher.
func (p *KafkaPublisher) Name() string { return "kafka" }

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
