package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConsumer(handle MessageHandler) *TopicConsumer {
	ctx, cancel := context.WithCancel(context.Background())
	return &TopicConsumer{
		handle:      handle,
		topic:       "settlement.commands",
		logger:      zerolog.Nop(),
		maxAttempts: 3,
		backoff:     time.Millisecond,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func TestProcessWithRetry_RecoversFromTransientError(t *testing.T) {
	calls := 0
	c := newTestConsumer(func(ctx context.Context, message []byte) error {
		calls++
		if calls < 3 {
			return errors.New("oracle unavailable")
		}
		return nil
	})

	require.NoError(t, c.processWithRetry([]byte(`{}`)))
	assert.Equal(t, 3, calls)
}

func TestProcessWithRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	boom := errors.New("oracle unavailable")
	calls := 0
	c := newTestConsumer(func(ctx context.Context, message []byte) error {
		calls++
		return boom
	})

	err := c.processWithRetry([]byte(`{}`))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestProcessWithRetry_StopsWhenCancelled(t *testing.T) {
	calls := 0
	var c *TopicConsumer
	c = newTestConsumer(func(ctx context.Context, message []byte) error {
		calls++
		c.cancel()
		return errors.New("oracle unavailable")
	})
	c.backoff = time.Hour

	err := c.processWithRetry([]byte(`{}`))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestProcessWithRetry_AppliesTimeout(t *testing.T) {
	c := newTestConsumer(func(ctx context.Context, message []byte) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return nil
	})
	c.timeout = time.Second

	require.NoError(t, c.processWithRetry(nil))
}
