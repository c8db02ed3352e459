package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/knowledgebot/pkg/models"
)

// ErrPublisherClosed is returned when publishing on a closed publisher.
var ErrPublisherClosed = errors.New("publisher is closed")

// DefaultTopic is the usage-event topic when none is configured.
const DefaultTopic = "knowledgebot.usage"

// Config represents the usage-event publisher configuration. An empty
// broker list disables publishing entirely.
type Config struct {
	Brokers []string      `yaml:"brokers"`
	Topic   string        `yaml:"topic"`
	Timeout time.Duration `yaml:"timeout"`
}

// Publisher emits usage events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event models.UsageEvent) error
	Close() error
}

// NewPublisher returns a Kafka-backed publisher, or the no-op one when
// no brokers are configured.
func NewPublisher(cfg Config) Publisher {
	if len(cfg.Brokers) == 0 {
		return NopPublisher{}
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &kafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			Compression:  kafka.Gzip,
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: timeout,
		},
	}
}

type kafkaPublisher struct {
	writer *kafka.Writer
	mu     sync.Mutex
	closed bool
}

func (p *kafkaPublisher) Publish(ctx context.Context, event models.UsageEvent) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPublisherClosed
	}
	p.mu.Unlock()

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal usage event: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Type),
		Value: value,
	})
}

func (p *kafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}

// NopPublisher drops every event. Used when analytics is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event models.UsageEvent) error { return nil }
func (NopPublisher) Close() error                                               { return nil }
