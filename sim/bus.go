package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Handler receives a broadcast event. A non-nil error aborts the run.
type Handler func(ev Event) error

// Filter selects which events a handler receives. A nil Filter accepts all.
type Filter func(ev Event) bool

type subscription struct {
	filter  Filter
	handler Handler
}

// EventBus delivers events to subscribers at the current simulation time.
type EventBus struct {
	clock       func() (int64, bool)
	subscribers map[EventType][]subscription

	// Events broadcast from inside a handler wait here until the
	// outermost fan-out finishes.
	dispatching bool
	pending     []Event
}

// NewEventBus creates a bus reading the current time from clock.
func NewEventBus(clock func() (int64, bool)) *EventBus {
	return &EventBus{
		clock:       clock,
		subscribers: make(map[EventType][]subscription),
	}
}

// Subscribe appends handler to the subscribers of eventType.
func (b *EventBus) Subscribe(eventType EventType, handler Handler, filter Filter) {
	b.subscribers[eventType] = append(b.subscribers[eventType], subscription{filter: filter, handler: handler})
}

// Subscribers returns the number of handlers registered for eventType.
func (b *EventBus) Subscribers(eventType EventType) int {
	return len(b.subscribers[eventType])
}

// Broadcast delivers ev to every matching subscriber in registration order.
// ev must be unstamped or stamped with the current time.
func (b *EventBus) Broadcast(ev Event) error {
	now, started := b.clock()
	if !started {
		return ErrClockNotStarted
	}
	if ev.Type().IsInternal() {
		return fmt.Errorf("%w: %s", ErrReservedEventType, ev.Type())
	}
	if ev.Stamped() {
		if ev.Timestamp() != now {
			return fmt.Errorf("%w: event %s at %d, now %d", ErrInvalidTimestamp, ev.Type(), ev.Timestamp(), now)
		}
	} else {
		ev.setTimestamp(now)
	}

	if b.dispatching {
		logrus.Tracef("[tick %07d] deferring nested broadcast of %s", now, ev.Type())
		b.pending = append(b.pending, ev)
		return nil
	}

	b.dispatching = true
	defer func() {
		b.dispatching = false
		b.pending = nil
	}()

	if err := b.deliver(ev); err != nil {
		return err
	}
	for len(b.pending) > 0 {
		next := b.pending[0]
		b.pending = b.pending[1:]
		if err := b.deliver(next); err != nil {
			return err
		}
	}
	return nil
}

func (b *EventBus) deliver(ev Event) error {
	for _, sub := range b.subscribers[ev.Type()] {
		if sub.filter != nil && !sub.filter(ev) {
			continue
		}
		if err := sub.handler(ev); err != nil {
			return fmt.Errorf("handling %s: %w", ev.Type(), err)
		}
	}
	return nil
}
