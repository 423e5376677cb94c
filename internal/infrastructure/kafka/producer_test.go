package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/internal/infrastructure/metrics"
)

func TestKafkaProducer_SendToTopic(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, NewProducerConfig())
	m := metrics.NewMetrics(prometheus.NewRegistry())

	event := domain.LedgerEvent{Type: "deposit", Owner: "alice", Amount: 100, Deposited: 100}

	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		assert.Equal(t, domain.TopicLedgerEvents, msg.Topic)

		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, "alice", string(key))

		value, err := msg.Value.Encode()
		require.NoError(t, err)

		var got domain.LedgerEvent
		require.NoError(t, json.Unmarshal(value, &got))
		assert.Equal(t, event.Amount, got.Amount)
		return nil
	})

	p := NewKafkaProducerWith(mockProducer, zerolog.Nop(), m)
	require.NoError(t, p.SendToTopic(context.Background(), domain.TopicLedgerEvents, "alice", event))
	require.NoError(t, p.Close())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.KafkaMessagesProduced))
}

func TestKafkaProducer_SendToTopicError(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, NewProducerConfig())
	m := metrics.NewMetrics(prometheus.NewRegistry())

	mockProducer.ExpectSendMessageAndFail(errors.New("broker down"))

	p := NewKafkaProducerWith(mockProducer, zerolog.Nop(), m)
	err := p.SendToTopic(context.Background(), domain.TopicLedgerEvents, "alice", domain.LedgerEvent{})
	require.Error(t, err)
	require.NoError(t, p.Close())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.KafkaProduceErrors.WithLabelValues("send")))
}

func TestKafkaProducer_MarshalError(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, NewProducerConfig())
	m := metrics.NewMetrics(prometheus.NewRegistry())

	p := NewKafkaProducerWith(mockProducer, zerolog.Nop(), m)
	err := p.SendToTopic(context.Background(), "topic", "key", make(chan int))
	require.Error(t, err)
	require.NoError(t, p.Close())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.KafkaProduceErrors.WithLabelValues("marshal")))
}

func TestNopPublisher(t *testing.T) {
	p := NewNopPublisher(zerolog.Nop())
	assert.NoError(t, p.SendToTopic(context.Background(), "topic", "key", struct{}{}))
}
