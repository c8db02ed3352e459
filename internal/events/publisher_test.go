package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowledgebot/pkg/models"
)

func TestNewPublisherWithoutBrokersIsNop(t *testing.T) {
	p := NewPublisher(Config{})
	_, ok := p.(NopPublisher)
	require.True(t, ok)

	assert.NoError(t, p.Publish(context.Background(), models.UsageEvent{ID: "1"}))
	assert.NoError(t, p.Close())
}

func TestNewPublisherWithBrokersIsKafka(t *testing.T) {
	p := NewPublisher(Config{Brokers: []string{"localhost:9092"}})
	kp, ok := p.(*kafkaPublisher)
	require.True(t, ok)
	assert.Equal(t, DefaultTopic, kp.writer.Topic)
	assert.NoError(t, p.Close())
}

func TestKafkaPublisherTopicOverride(t *testing.T) {
	p := NewPublisher(Config{Brokers: []string{"localhost:9092"}, Topic: "custom.topic"})
	kp := p.(*kafkaPublisher)
	assert.Equal(t, "custom.topic", kp.writer.Topic)
	assert.NoError(t, p.Close())
}

func TestPublishAfterCloseFails(t *testing.T) {
	p := NewPublisher(Config{Brokers: []string{"localhost:9092"}})
	require.NoError(t, p.Close())
	// Second close is a no-op.
	require.NoError(t, p.Close())

	err := p.Publish(context.Background(), models.UsageEvent{ID: "1"})
	assert.ErrorIs(t, err, ErrPublisherClosed)
}
