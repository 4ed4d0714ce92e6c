package events

import (
	"log/slog"
	"sync"
)

// Subscriber receives every published event. Handlers run synchronously
// on the publishing goroutine, so they must not block.
type Subscriber interface {
	HandleEvent(e Event)
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(e Event)

// HandleEvent implements Subscriber.
func (f SubscriberFunc) HandleEvent(e Event) { f(e) }

// Dispatcher fans events out to every registered subscriber. A panic in
// one subscriber is recovered and logged so it cannot take down the
// coordination flow or starve other subscribers.
type Dispatcher struct {
	mu   sync.RWMutex
	subs []Subscriber
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Subscribe registers a subscriber for all future events.
func (d *Dispatcher) Subscribe(s Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs = append(d.subs, s)
}

// Publish delivers e to every subscriber in registration order.
func (d *Dispatcher) Publish(e Event) {
	d.mu.RLock()
	subs := make([]Subscriber, len(d.subs))
	copy(subs, d.subs)
	d.mu.RUnlock()

	for _, s := range subs {
		deliver(s, e)
	}
}

func deliver(s Subscriber, e Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event_subscriber_panic", "event", e.Name(), "panic", r)
		}
	}()
	s.HandleEvent(e)
}
