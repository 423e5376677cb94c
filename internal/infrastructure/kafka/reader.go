package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	minBytes = 1
	maxBytes = 10e6

	defaultMaxAttempts = 3
	defaultBackoff     = time.Second
)

// MessageHandler processes one message value
type MessageHandler func(ctx context.Context, message []byte) error

// TopicConsumer reads one topic with a consumer group and commits
// each message after its handler succeeds
type TopicConsumer struct {
	reader  *kafkago.Reader
	handle  MessageHandler
	topic   string
	logger  zerolog.Logger
	timeout time.Duration

	maxAttempts int
	backoff     time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTopicConsumer(brokers []string, groupID, topic string, handle MessageHandler, timeout time.Duration, logger zerolog.Logger) *TopicConsumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    minBytes,
		MaxBytes:    maxBytes,
		MaxWait:     time.Second,
		StartOffset: kafkago.LastOffset,
	})

	logger.Info().
		Strs("brokers", brokers).
		Str("topic", topic).
		Str("group_id", groupID).
		Msg("Kafka consumer initialized")

	ctx, cancel := context.WithCancel(context.Background())

	return &TopicConsumer{
		reader:      reader,
		handle:      handle,
		topic:       topic,
		logger:      logger,
		timeout:     timeout,
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (c *TopicConsumer) Start() {
	c.wg.Add(1)
	go c.consume()
	c.logger.Info().Str("topic", c.topic).Msg("Kafka consumer started")
}

func (c *TopicConsumer) consume() {
	defer c.wg.Done()

	for {
		msg, err := c.reader.FetchMessage(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.logger.Error().Err(err).Str("topic", c.topic).Msg("Failed to fetch message")
			continue
		}

		c.logger.Debug().
			Str("topic", msg.Topic).
			Int("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("Received message from Kafka")

		if err := c.processWithRetry(msg.Value); err != nil {
			if c.ctx.Err() != nil {
				return
			}
			// the group offset moves past it with the commit below
			c.logger.Error().Err(err).
				Str("topic", msg.Topic).
				Int64("offset", msg.Offset).
				Int("attempts", c.maxAttempts).
				Msg("Dropping message after retries")
		}

		if err := c.reader.CommitMessages(c.ctx, msg); err != nil && c.ctx.Err() == nil {
			c.logger.Error().Err(err).
				Int64("offset", msg.Offset).
				Msg("Failed to commit message")
		}
	}
}

// processWithRetry handles value up to maxAttempts times, doubling the
// backoff between attempts. It gives up early when the consumer stops.
func (c *TopicConsumer) processWithRetry(value []byte) error {
	backoff := c.backoff
	var err error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err = c.process(value); err == nil {
			return nil
		}
		if attempt == c.maxAttempts {
			break
		}

		c.logger.Warn().Err(err).
			Str("topic", c.topic).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("Message handling failed, retrying")

		select {
		case <-c.ctx.Done():
			return c.ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}

func (c *TopicConsumer) process(value []byte) error {
	ctx := c.ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.handle(ctx, value)
}

func (c *TopicConsumer) Stop() error {
	c.cancel()
	c.wg.Wait()

	if err := c.reader.Close(); err != nil {
		c.logger.Error().Err(err).Str("topic", c.topic).Msg("Failed to close Kafka consumer")
		return err
	}

	c.logger.Info().Str("topic", c.topic).Msg("Kafka consumer stopped")
	return nil
}
