package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jwalitptl/clinic-api/pkg/circuitbreaker"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
)

func TestPublishDeliversEnvelope(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := NewClient(ctx, Config{URL: "redis://" + mr.Addr() + "/0"})
	require.NoError(t, err)
	broker := NewRedisBroker(client, zap.NewNop())
	defer broker.Close()

	sub := client.Subscribe(ctx, "patient.registered")
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	msg := messaging.Message{
		ID:         uuid.New(),
		Type:       "patient.registered",
		Payload:    json.RawMessage(`{"user_id":"u1"}`),
		OccurredAt: time.Now().UTC(),
	}
	require.NoError(t, broker.Publish(ctx, "patient.registered", msg))

	select {
	case got := <-sub.Channel():
		var decoded messaging.Message
		require.NoError(t, json.Unmarshal([]byte(got.Payload), &decoded))
		assert.Equal(t, msg.ID, decoded.ID)
		assert.JSONEq(t, `{"user_id":"u1"}`, string(decoded.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient(context.Background(), Config{URL: "not a url"})
	assert.Error(t, err)
}

func TestPublishOpensBreakerWhenRedisIsDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	ctx := context.Background()

	client, err := NewClient(ctx, Config{URL: "redis://" + mr.Addr() + "/0", MaxRetries: -1})
	require.NoError(t, err)
	broker := NewRedisBroker(client, zap.NewNop())
	mr.Close()

	for i := 0; i < 5; i++ {
		assert.Error(t, broker.Publish(ctx, "x", map[string]string{"k": "v"}))
	}
	assert.ErrorIs(t, broker.Publish(ctx, "x", map[string]string{"k": "v"}), circuitbreaker.ErrOpen)
}
