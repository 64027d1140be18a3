package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub Subscription) Message {
	t.Helper()
	select {
	case msg, ok := <-sub.Messages():
		require.True(t, ok, "subscription closed before a message arrived")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func TestMemoryBroker_DeliversToGroupOnly(t *testing.T) {
	b := NewMemoryBroker()
	t.Cleanup(func() { b.Close() })
	ctx := context.Background()

	subA, err := b.Subscribe(ctx, "notifications_1")
	require.NoError(t, err)
	subB, err := b.Subscribe(ctx, "notifications_2")
	require.NoError(t, err)

	msg, err := NewMessage("notification_message", map[string]int{"id": 7})
	require.NoError(t, err)
	require.NoError(t, b.Publish(ctx, "notifications_1", msg))

	got := receive(t, subA)
	assert.Equal(t, "notification_message", got.Type)
	assert.JSONEq(t, `{"id":7}`, string(got.Data))

	select {
	case m := <-subB.Messages():
		t.Fatalf("unexpected message on other group: %+v", m)
	default:
	}
}

func TestMemoryBroker_PublishWithoutSubscribers(t *testing.T) {
	b := NewMemoryBroker()
	t.Cleanup(func() { b.Close() })

	err := b.Publish(context.Background(), "notifications_42", Message{Type: "unread_count_update"})
	assert.NoError(t, err)
}

func TestMemoryBroker_CloseSubscription(t *testing.T) {
	b := NewMemoryBroker()
	t.Cleanup(func() { b.Close() })
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Subscribers("g"))

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	assert.Equal(t, 0, b.Subscribers("g"))

	_, ok := <-sub.Messages()
	assert.False(t, ok)
}

func TestMemoryBroker_FullSubscriberDropsMessages(t *testing.T) {
	b := NewMemoryBroker()
	t.Cleanup(func() { b.Close() })
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "g")
	require.NoError(t, err)

	for i := 0; i < subscriberBuffer+10; i++ {
		require.NoError(t, b.Publish(ctx, "g", Message{Type: "t"}))
	}
	assert.Len(t, sub.Messages(), subscriberBuffer)
}

func TestMemoryBroker_Closed(t *testing.T) {
	b := NewMemoryBroker()
	require.NoError(t, b.Close())

	assert.ErrorIs(t, b.Publish(context.Background(), "g", Message{}), ErrClosed)
	_, err := b.Subscribe(context.Background(), "g")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRedisBroker_PublishSubscribe(t *testing.T) {
	mr := miniredis.RunT(t)
	b, err := NewRedisBrokerFromURL("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, "notifications_9")
	require.NoError(t, err)
	t.Cleanup(func() { sub.Close() })

	msg, err := NewMessage("unread_count_update", map[string]int64{"count": 3})
	require.NoError(t, err)
	require.NoError(t, b.Publish(ctx, "notifications_9", msg))

	got := receive(t, sub)
	assert.Equal(t, "unread_count_update", got.Type)
	assert.JSONEq(t, `{"count":3}`, string(got.Data))
}

func TestRedisBroker_UnreachablePublishFails(t *testing.T) {
	mr := miniredis.RunT(t)
	b, err := NewRedisBrokerFromURL("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.Error(t, b.Publish(ctx, "g", Message{Type: "t"}))
}

func TestNew(t *testing.T) {
	b, err := New(Options{Kind: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryBroker{}, b)

	_, err = New(Options{Kind: "kafka"})
	assert.Error(t, err)

	_, err = New(Options{Kind: "redis", RedisURL: "not a url"})
	assert.Error(t, err)
}
