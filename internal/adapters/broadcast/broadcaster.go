package broadcast

import (
	"sync"

	"github.com/google/uuid"
	"github.com/mailmind/ai-gateway/internal/core"
	"go.uber.org/zap"
)

// Subscriber is one live event consumer. Events are delivered on a
// buffered channel; a subscriber that stops draining is dropped rather
// than retried.
type Subscriber struct {
	id     string
	events chan core.Event
	done   chan struct{}
	once   sync.Once
}

// ID returns the subscriber's opaque handle id
func (s *Subscriber) ID() string {
	return s.id
}

// Events is the delivery channel for this subscriber
func (s *Subscriber) Events() <-chan core.Event {
	return s.events
}

// Done is closed when the subscriber has been removed
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

func (s *Subscriber) shutdown() {
	s.once.Do(func() {
		close(s.done)
	})
}

// Broadcaster maintains the registry of live subscribers and pushes
// orchestration outcomes and monitoring snapshots to all of them.
// Events sharing one correlation id are delivered in publish order; no
// ordering holds across correlation ids.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[*Subscriber]struct{}
	bufferSize  int
	logger      *zap.Logger
}

// NewBroadcaster creates a new broadcaster. bufferSize is the
// per-subscriber event buffer; a subscriber whose buffer is full when
// an event arrives is considered dead and removed.
func NewBroadcaster(bufferSize int, logger *zap.Logger) *Broadcaster {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Broadcaster{
		subscribers: make(map[*Subscriber]struct{}),
		bufferSize:  bufferSize,
		logger:      logger,
	}
}

// Subscribe registers a new live subscriber
func (b *Broadcaster) Subscribe() *Subscriber {
	sub := &Subscriber{
		id:     uuid.NewString(),
		events: make(chan core.Event, b.bufferSize),
		done:   make(chan struct{}),
	}

	b.mu.Lock()
	b.subscribers[sub] = struct{}{}
	count := len(b.subscribers)
	b.mu.Unlock()

	b.logger.Debug("Subscriber registered",
		zap.String("subscriber_id", sub.id),
		zap.Int("subscribers", count))

	return sub
}

// Unsubscribe removes a subscriber from the registry. Safe to call
// multiple times and concurrently with Publish.
func (b *Broadcaster) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	_, present := b.subscribers[sub]
	delete(b.subscribers, sub)
	count := len(b.subscribers)
	b.mu.Unlock()

	sub.shutdown()

	if present {
		b.logger.Debug("Subscriber removed",
			zap.String("subscriber_id", sub.id),
			zap.Int("subscribers", count))
	}
}

// Publish delivers the event to every live subscriber. A subscriber
// disconnecting mid-send never affects delivery to the others; dead
// subscribers are dropped, not retried.
func (b *Broadcaster) Publish(event core.Event) {
	b.mu.RLock()
	targets := make([]*Subscriber, 0, len(b.subscribers))
	for sub := range b.subscribers {
		targets = append(targets, sub)
	}
	b.mu.RUnlock()

	var dead []*Subscriber
	for _, sub := range targets {
		select {
		case sub.events <- event:
		case <-sub.done:
			// Already unsubscribed, skip
		default:
			// Buffer full: the consumer stopped draining
			dead = append(dead, sub)
		}
	}

	for _, sub := range dead {
		b.logger.Warn("Dropping unresponsive subscriber",
			zap.String("subscriber_id", sub.id),
			zap.String("event_type", event.Type))
		b.Unsubscribe(sub)
	}
}

// SubscriberCount returns the number of live subscribers
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
