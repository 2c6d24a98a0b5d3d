package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	gcperrors "github.com/input-output-hk/catalyst-forge-libs/gcp/errors"
)

func TestClient_Publish(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	t.Run("ids in input order", func(t *testing.T) {
		var mu sync.Mutex
		var sent []*pubsub.Message
		n := 0
		client, rec := newTestClient(&mockAPI{
			publishFunc: func(_ context.Context, topic string, msg *pubsub.Message) PublishResult {
				assert.Equal(t, "orders", topic)
				mu.Lock()
				defer mu.Unlock()
				sent = append(sent, msg)
				n++
				// Later messages resolve first.
				return &mockResult{id: string(rune('a' + n - 1)), delay: time.Duration(5-n) * time.Millisecond}
			},
		})

		ids, err := client.Publish(context.Background(), "orders",
			Message{Data: []byte("one"), Attributes: map[string]string{"k": "v"}},
			Message{Data: []byte("two"), OrderingKey: "customer-1"},
			Message{Data: []byte("three")},
		)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, ids)

		require.Len(t, sent, 3)
		assert.Equal(t, []byte("one"), sent[0].Data)
		assert.Equal(t, map[string]string{"k": "v"}, sent[0].Attributes)
		assert.Equal(t, "customer-1", sent[1].OrderingKey)

		entry, ok := rec.Find("published messages")
		require.True(t, ok)
		assert.Equal(t, "3", entry.Attrs["count"])
		for _, e := range rec.Entries() {
			for _, v := range e.Attrs {
				assert.NotContains(t, v, "three", "payloads must not be logged")
			}
		}
	})

	t.Run("first error returned", func(t *testing.T) {
		client, _ := newTestClient(&mockAPI{
			publishFunc: func(_ context.Context, _ string, msg *pubsub.Message) PublishResult {
				if string(msg.Data) == "bad" {
					return &mockResult{err: errUnavailable}
				}
				return &mockResult{id: "ok"}
			},
		})

		ids, err := client.Publish(context.Background(), "orders",
			Message{Data: []byte("good")}, Message{Data: []byte("bad")})
		assert.ErrorIs(t, err, errUnavailable)
		assert.Nil(t, ids)
	})

	t.Run("no messages", func(t *testing.T) {
		client, _ := newTestClient(&mockAPI{})
		ids, err := client.Publish(context.Background(), "orders")
		assert.NoError(t, err)
		assert.Nil(t, ids)
	})

	t.Run("empty topic", func(t *testing.T) {
		client, _ := newTestClient(&mockAPI{})
		_, err := client.Publish(context.Background(), "", Message{Data: []byte("x")})
		assert.ErrorIs(t, err, gcperrors.ErrInvalidInput)
	})
}

func TestClient_PublishString(t *testing.T) {
	var got []byte
	client, _ := newTestClient(&mockAPI{
		publishFunc: func(_ context.Context, _ string, msg *pubsub.Message) PublishResult {
			got = msg.Data
			return &mockResult{id: "42"}
		},
	})

	id, err := client.PublishString(context.Background(), "orders", "héllo")
	require.NoError(t, err)
	assert.Equal(t, "42", id)
	assert.Equal(t, []byte("héllo"), got)
}

func TestClient_PublishAsync(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	client, _ := newTestClient(&mockAPI{
		publishFunc: func(_ context.Context, _ string, msg *pubsub.Message) PublishResult {
			if string(msg.Data) == "bad" {
				return &mockResult{err: errUnavailable, delay: time.Millisecond}
			}
			return &mockResult{id: "id-" + string(msg.Data), delay: time.Millisecond}
		},
	})

	var mu sync.Mutex
	results := map[string]error{}
	done := func(id string, err error) {
		mu.Lock()
		defer mu.Unlock()
		results[id] = err
	}

	ctx := context.Background()
	require.NoError(t, client.PublishAsync(ctx, "orders", Message{Data: []byte("1")}, done))
	require.NoError(t, client.PublishAsync(ctx, "orders", Message{Data: []byte("2")}, nil))
	require.NoError(t, client.PublishAsync(ctx, "orders", Message{Data: []byte("bad")}, done))

	require.NoError(t, client.Wait(ctx))
	assert.Equal(t, int64(1), client.Failures())

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, results, 2)
	assert.NoError(t, results["id-1"])
	assert.ErrorIs(t, results[""], errUnavailable)
}

func TestClient_Wait(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	client, _ := newTestClient(&mockAPI{
		publishFunc: func(context.Context, string, *pubsub.Message) PublishResult {
			return &mockResult{id: "slow", delay: 200 * time.Millisecond}
		},
	})

	require.NoError(t, client.PublishAsync(context.Background(), "orders", Message{Data: []byte("x")}, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := client.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Let the outstanding publish finish so nothing leaks.
	require.NoError(t, client.Wait(context.Background()))
}
