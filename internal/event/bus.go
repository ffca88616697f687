// Package event fans published values out to channel subscribers so callers can
// consume editor output and document changes on their own goroutines.
package event

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"termblock/internal/logging"
)

const defaultSubscriberBufferSize = 128

type BusOptions struct {
	Name                 string
	SubscriberBufferSize int
	// BlockOnFull makes Publish wait for slow subscribers instead of dropping.
	// With a WriteTimeout, a subscriber that stays full is dropped and closed.
	BlockOnFull  bool
	WriteTimeout time.Duration
	Logger       *logging.Logger
}

// Typed is implemented by values that carry an event type name.
type Typed interface {
	Type() string
}

type Bus[T any] struct {
	mu          sync.Mutex
	subscribers map[uint64]subscription[T]
	nextSubID   uint64
	closed      bool
	closeOnce   sync.Once
	options     BusOptions
	published   atomic.Int64
	dropped     atomic.Int64
}

type subscription[T any] struct {
	id     uint64
	ch     chan T
	filter func(T) bool
}

// NewBus creates a bus that closes itself when ctx is done.
func NewBus[T any](ctx context.Context, opts BusOptions) *Bus[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.SubscriberBufferSize <= 0 {
		opts.SubscriberBufferSize = defaultSubscriberBufferSize
	}
	bus := &Bus[T]{
		subscribers: make(map[uint64]subscription[T]),
		options:     opts,
	}
	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			bus.Close()
		}()
	}
	return bus
}

func (b *Bus[T]) Subscribe() (<-chan T, func()) {
	return b.SubscribeFiltered(nil)
}

// SubscribeFiltered returns a channel receiving published values accepted by
// filter and a cancel func that unsubscribes and closes the channel.
func (b *Bus[T]) SubscribeFiltered(filter func(T) bool) (<-chan T, func()) {
	if b == nil {
		ch := make(chan T)
		close(ch)
		return ch, func() {}
	}

	ch := make(chan T, b.options.SubscriberBufferSize)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.nextSubID++
	id := b.nextSubID
	b.subscribers[id] = subscription[T]{id: id, ch: ch, filter: filter}
	b.mu.Unlock()

	return ch, func() {
		b.removeSubscriber(id)
	}
}

// SubscribeTypes only delivers values whose Type() is one of eventTypes.
func (b *Bus[T]) SubscribeTypes(eventTypes ...string) (<-chan T, func()) {
	typeSet := make(map[string]struct{}, len(eventTypes))
	for _, eventType := range eventTypes {
		if eventType != "" {
			typeSet[eventType] = struct{}{}
		}
	}
	if len(typeSet) == 0 {
		ch := make(chan T)
		close(ch)
		return ch, func() {}
	}
	return b.SubscribeFiltered(func(value T) bool {
		typed, ok := any(value).(Typed)
		if !ok {
			return false
		}
		_, matched := typeSet[typed.Type()]
		return matched
	})
}

func (b *Bus[T]) Publish(value T) {
	if b == nil {
		return
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	subscribers := make([]subscription[T], 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		subscribers = append(subscribers, sub)
	}
	b.mu.Unlock()

	b.published.Add(1)
	for _, sub := range subscribers {
		if sub.filter != nil && !sub.filter(value) {
			continue
		}
		if b.options.BlockOnFull {
			b.blockingSend(sub, value)
		} else {
			b.nonBlockingSend(sub, value)
		}
	}
}

func (b *Bus[T]) nonBlockingSend(sub subscription[T], value T) {
	delivered := b.safeSend(sub, func() bool {
		select {
		case sub.ch <- value:
			return true
		default:
			return false
		}
	})
	if !delivered {
		b.noteDropped(sub.id)
	}
}

func (b *Bus[T]) blockingSend(sub subscription[T], value T) {
	delivered := b.safeSend(sub, func() bool {
		if b.options.WriteTimeout <= 0 {
			sub.ch <- value
			return true
		}
		timer := time.NewTimer(b.options.WriteTimeout)
		defer timer.Stop()
		select {
		case sub.ch <- value:
			return true
		case <-timer.C:
			return false
		}
	})
	if !delivered {
		b.noteDropped(sub.id)
		b.removeSubscriber(sub.id)
	}
}

// safeSend guards against sending on a channel closed by a concurrent cancel.
func (b *Bus[T]) safeSend(sub subscription[T], send func() bool) (delivered bool) {
	defer func() {
		if recover() != nil {
			delivered = false
		}
	}()
	return send()
}

func (b *Bus[T]) noteDropped(id uint64) {
	total := b.dropped.Add(1)
	b.options.Logger.Component("event").Debug("event bus dropped value", map[string]string{
		"bus":           b.busName(),
		"subscriber":    strconv.FormatUint(id, 10),
		"dropped_total": strconv.FormatInt(total, 10),
	})
}

func (b *Bus[T]) removeSubscriber(id uint64) {
	b.mu.Lock()
	existing, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
	}
	b.mu.Unlock()

	if ok {
		close(existing.ch)
	}
}

// Close unsubscribes everyone; later publishes are ignored.
func (b *Bus[T]) Close() {
	if b == nil {
		return
	}
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		subscribers := b.subscribers
		b.subscribers = make(map[uint64]subscription[T])
		b.mu.Unlock()

		for _, sub := range subscribers {
			close(sub.ch)
		}
	})
}

func (b *Bus[T]) SubscriberCount() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Stats reports how many values were published and how many deliveries were dropped.
func (b *Bus[T]) Stats() (published, dropped int64) {
	if b == nil {
		return 0, 0
	}
	return b.published.Load(), b.dropped.Load()
}

func (b *Bus[T]) busName() string {
	if b.options.Name == "" {
		return "event_bus"
	}
	return b.options.Name
}
