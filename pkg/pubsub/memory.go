package pubsub

import (
	"context"
	"sync"
)

const subscriberBuffer = 32

// MemoryBroker is an in-process Broker. A subscriber whose buffer is full misses
// the message rather than blocking the publisher.
type MemoryBroker struct {
	mu     sync.RWMutex
	groups map[string]map[*memorySubscription]struct{}
	closed bool
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{groups: make(map[string]map[*memorySubscription]struct{})}
}

func (b *MemoryBroker) Publish(_ context.Context, group string, msg Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	for sub := range b.groups[group] {
		select {
		case sub.ch <- msg:
		default:
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(_ context.Context, group string) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	sub := &memorySubscription{
		broker: b,
		group:  group,
		ch:     make(chan Message, subscriberBuffer),
	}
	if b.groups[group] == nil {
		b.groups[group] = make(map[*memorySubscription]struct{})
	}
	b.groups[group][sub] = struct{}{}
	return sub, nil
}

// Subscribers returns the number of live subscriptions on group.
func (b *MemoryBroker) Subscribers(group string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.groups[group])
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, subs := range b.groups {
		for sub := range subs {
			sub.closeLocked()
		}
	}
	b.groups = nil
	return nil
}

func (b *MemoryBroker) remove(sub *memorySubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.groups[sub.group]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(b.groups, sub.group)
		}
	}
	sub.closeLocked()
}

type memorySubscription struct {
	broker *MemoryBroker
	group  string
	ch     chan Message
	once   sync.Once
}

func (s *memorySubscription) Messages() <-chan Message { return s.ch }

func (s *memorySubscription) Close() error {
	s.broker.remove(s)
	return nil
}

// closeLocked must be called with the broker lock held.
func (s *memorySubscription) closeLocked() {
	s.once.Do(func() { close(s.ch) })
}
