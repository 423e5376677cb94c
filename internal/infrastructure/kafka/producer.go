package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/yukikm/subly/internal/infrastructure/metrics"
)

// KafkaProducer publishes JSON events through a sarama SyncProducer
type KafkaProducer struct {
	producer     sarama.SyncProducer
	logger       zerolog.Logger
	metrics      *metrics.Metrics
	successCount atomic.Uint64
	errorCount   atomic.Uint64
}

// NewProducerConfig returns the sarama config used by the producer
func NewProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 5
	config.Producer.Retry.Backoff = 500 * time.Millisecond
	config.Producer.Timeout = 10 * time.Second
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1
	return config
}

func NewKafkaProducer(brokers []string, logger zerolog.Logger, m *metrics.Metrics) (*KafkaProducer, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewProducerConfig())
	if err != nil {
		logger.Error().Err(err).Msg("failed to create Kafka SyncProducer")
		return nil, err
	}

	logger.Info().Strs("brokers", brokers).Msg("Kafka SyncProducer initialized")

	return NewKafkaProducerWith(producer, logger, m), nil
}

// NewKafkaProducerWith wraps an existing sarama producer
func NewKafkaProducerWith(producer sarama.SyncProducer, logger zerolog.Logger, m *metrics.Metrics) *KafkaProducer {
	return &KafkaProducer{
		producer: producer,
		logger:   logger,
		metrics:  m,
	}
}

func (p *KafkaProducer) Close() error {
	if p.producer == nil {
		return nil
	}

	if err := p.producer.Close(); err != nil {
		p.logger.Error().Err(err).Msg("failed to close Kafka producer")
		return err
	}

	p.logger.Info().Msg("Kafka producer closed")
	return nil
}

// SendToTopic sends any event to a specific topic
func (p *KafkaProducer) SendToTopic(ctx context.Context, topic string, key string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bytes, err := json.Marshal(event)
	if err != nil {
		p.metrics.RecordKafkaError("marshal")
		p.logger.Error().
			Err(err).
			Str("topic", topic).
			Uint64("error_count", p.errorCount.Add(1)).
			Msg("failed to marshal event")
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(bytes),
	}

	start := time.Now()
	partition, offset, err := p.producer.SendMessage(msg)
	latency := time.Since(start)

	if err != nil {
		p.metrics.RecordKafkaError("send")
		p.logger.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Dur("latency", latency).
			Uint64("error_count", p.errorCount.Add(1)).
			Msg("failed to send event to kafka")
		return err
	}

	p.metrics.RecordKafkaMessage(latency.Seconds())
	p.logger.Debug().
		Str("topic", topic).
		Str("key", key).
		Int32("partition", partition).
		Int64("offset", offset).
		Dur("latency", latency).
		Uint64("success_count", p.successCount.Add(1)).
		Msg("event sent to kafka")

	return nil
}

// NopPublisher drops events; used when Kafka is disabled
type NopPublisher struct {
	logger zerolog.Logger
}

func NewNopPublisher(logger zerolog.Logger) *NopPublisher {
	return &NopPublisher{logger: logger}
}

func (p *NopPublisher) SendToTopic(ctx context.Context, topic string, key string, event any) error {
	p.logger.Debug().Str("topic", topic).Str("key", key).Msg("kafka disabled, event dropped")
	return nil
}
