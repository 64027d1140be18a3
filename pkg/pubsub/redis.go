package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisBroker maps groups onto redis PUBLISH/SUBSCRIBE channels. Redis pub/sub
// has the same at-most-once semantics as the in-process broker.
type RedisBroker struct {
	client *redis.Client
}

func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

// NewRedisBrokerFromURL parses a redis:// URL and returns a broker on a new client.
func NewRedisBrokerFromURL(url string) (*RedisBroker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("pubsub: parse redis url: %w", err)
	}
	return NewRedisBroker(redis.NewClient(opts)), nil
}

func (b *RedisBroker) Publish(ctx context.Context, group string, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("pubsub: encode message: %w", err)
	}
	return b.client.Publish(ctx, group, payload).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, group string) (Subscription, error) {
	ps := b.client.Subscribe(ctx, group)
	// Wait for the subscription confirmation so publishes issued after Subscribe
	// returns are not lost.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("pubsub: subscribe %s: %w", group, err)
	}

	sub := &redisSubscription{
		ps: ps,
		ch: make(chan Message, subscriberBuffer),
	}
	go sub.pump(group)
	return sub, nil
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}

type redisSubscription struct {
	ps   *redis.PubSub
	ch   chan Message
	once sync.Once
}

func (s *redisSubscription) pump(group string) {
	defer close(s.ch)
	for m := range s.ps.Channel() {
		var msg Message
		if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
			logrus.WithError(err).WithField("group", group).Warn("Dropping undecodable pubsub message")
			continue
		}
		select {
		case s.ch <- msg:
		default:
		}
	}
}

func (s *redisSubscription) Messages() <-chan Message { return s.ch }

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() { err = s.ps.Close() })
	return err
}
