package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Pid  int32
	Kind string
}

func TestQueue_PublishConsume(t *testing.T) {
	ctx := context.Background()
	queue := NewQueue[testPayload](DefaultConfig())

	payload := testPayload{Pid: 7, Kind: "exit"}
	require.NoError(t, queue.Publish(ctx, &payload))
	assert.Equal(t, 1, queue.Size())

	msg, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, payload, *msg.T())
	assert.Equal(t, 0, queue.Size())
	assert.NoError(t, msg.Ack())
	assert.ErrorIs(t, msg.Ack(), ErrProcessed)
}

func TestQueue_Full(t *testing.T) {
	testCases := []struct {
		name      string
		buffer    int
		publishes int
		expectErr int
	}{
		{name: "within buffer", buffer: 2, publishes: 2, expectErr: 0},
		{name: "overflow rejected", buffer: 2, publishes: 5, expectErr: 3},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			config.QueueBuffer = tc.buffer
			queue := NewQueue[testPayload](config)
			failures := 0
			for i := 0; i < tc.publishes; i++ {
				if err := queue.Publish(context.Background(), &testPayload{Pid: int32(i)}); err != nil {
					assert.ErrorIs(t, err, ErrQueueFull)
					failures++
				}
			}
			assert.Equal(t, tc.expectErr, failures)
			assert.Equal(t, min(tc.buffer, tc.publishes), queue.Size())
		})
	}
}

func TestQueue_Retries(t *testing.T) {
	config := DefaultConfig()
	config.MaxRetries = 1
	config.RetryDelay = 5 * time.Millisecond
	queue := NewQueue[testPayload](config)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, queue.Publish(ctx, &testPayload{Pid: 1}))
	msg, err := queue.Consume(ctx)
	require.NoError(t, err)
	require.NoError(t, msg.Nack(errors.New("boom")))

	retried, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), retried.T().Pid)
	require.NoError(t, retried.Nack(errors.New("boom")))
	assert.Equal(t, 1, queue.DLQSize())
}

func TestQueue_ConsumeCancelled(t *testing.T) {
	queue := NewQueue[testPayload](DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := queue.Consume(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, queue.Publish(ctx, &testPayload{}), context.Canceled)
}
