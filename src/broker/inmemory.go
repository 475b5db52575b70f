package broker

import (
	"context"
	"sync"
	"time"
)

// subscriberBuffer is the channel capacity of each in-memory subscription.
const subscriberBuffer = 256

type subscription struct {
	topic string
	ch    chan Message
	done  <-chan struct{}
}

// InMemoryBroker fans every published message out to all current subscribers of the
// topic. Messages published while a topic has no subscribers are dropped.
//
// Publish blocks while a subscriber's buffer is full, so a slow consumer applies
// backpressure instead of losing messages.
type InMemoryBroker struct {
	// mu is held for reading while delivering, so publishers to different topics and the
	// consumers that publish in turn never wait on each other.
	mu        sync.RWMutex
	subs      map[string][]*subscription
	offMu     sync.Mutex
	offsets   map[string]int64
	quit      chan struct{}
	closeOnce sync.Once
	closed    bool
}

// NewInMemoryBroker creates a new InMemoryBroker instance.
func NewInMemoryBroker() *InMemoryBroker {
	return &InMemoryBroker{
		subs:    make(map[string][]*subscription),
		offsets: make(map[string]int64),
		quit:    make(chan struct{}),
	}
}

// Publish delivers value to every subscriber of topic.
func (b *InMemoryBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	b.offMu.Lock()
	offset := b.offsets[topic]
	b.offsets[topic]++
	b.offMu.Unlock()

	msg := Message{
		Topic:     topic,
		Key:       key,
		Value:     value,
		Offset:    offset,
		Timestamp: time.Now().UnixMilli(),
	}

	for _, sub := range b.subs[topic] {
		select {
		case sub.ch <- msg:
		case <-sub.done:
			// Subscriber went away; its cleanup goroutine removes it.
		case <-ctx.Done():
			return ctx.Err()
		case <-b.quit:
			return ErrClosed
		}
	}
	return nil
}

// Subscribe registers a new subscriber on topic.
func (b *InMemoryBroker) Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	sub := &subscription{
		topic: topic,
		ch:    make(chan Message, subscriberBuffer),
		done:  ctx.Done(),
	}
	b.subs[topic] = append(b.subs[topic], sub)

	go func() {
		select {
		case <-ctx.Done():
			b.unsubscribe(sub)
		case <-b.quit:
		}
	}()

	return sub.ch, nil
}

func (b *InMemoryBroker) unsubscribe(target *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	subs := b.subs[target.topic]
	for i, sub := range subs {
		if sub == target {
			b.subs[target.topic] = append(subs[:i:i], subs[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

// Subscribers returns the number of active subscribers of topic.
func (b *InMemoryBroker) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Close closes every subscriber channel. Publishing after Close fails with ErrClosed.
func (b *InMemoryBroker) Close() error {
	b.closeOnce.Do(func() {
		// Unblock publishers waiting on full buffers before taking the lock.
		close(b.quit)

		b.mu.Lock()
		defer b.mu.Unlock()
		b.closed = true
		for topic, subs := range b.subs {
			for _, sub := range subs {
				close(sub.ch)
			}
			delete(b.subs, topic)
		}
	})
	return nil
}
