// Package events provides the process-wide synchronous event dispatcher the
// world emits into. Subscribers are keyed by event type and delivered in
// subscription order; delivery happens on the emitting goroutine.
package events

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/kaisc/lemon-toolkit/common"
)

// SubscriberID identifies one subscription within an event type. Re-subscribing
// with the same id replaces the earlier closure in place, keeping its ordering
// slot.
type SubscriberID uint64

type subscription struct {
	id SubscriberID
	fn func(any)
}

// Dispatcher routes typed events to subscribers. Event types get dense indices
// from a registry owned by the dispatcher, independent of the component id
// space.
//
// Subscribe/Unsubscribe and Emit are safe to call concurrently, but delivery
// itself is synchronous: Emit returns after every subscriber has run.
type Dispatcher struct {
	mu       sync.RWMutex
	registry *common.TypeRegistry
	handlers map[common.TypeIndex][]subscription
	log      *logrus.Entry
}

// NewDispatcher creates an empty dispatcher.
//
// Returns:
//   - *Dispatcher: the newly created dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		registry: common.NewTypeRegistry(),
		handlers: make(map[common.TypeIndex][]subscription),
		log:      logrus.WithField("subsystem", "events"),
	}
}

// Dispose drops every subscription. Outstanding SubscriberIDs become inert.
func (d *Dispatcher) Dispose() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = make(map[common.TypeIndex][]subscription)
}

// Subscribe registers a closure for events of type T under the given id.
// Delivery order within one event type follows subscription order; replacing
// an existing id keeps its slot.
//
// Parameters:
//   - d: the dispatcher to register with
//   - id: the subscriber's id within the event type
//   - fn: the closure invoked for each emitted event
func Subscribe[T any](d *Dispatcher, id SubscriberID, fn func(T)) {
	idx := common.IndexOf[T](d.registry)

	d.mu.Lock()
	defer d.mu.Unlock()

	subs := d.handlers[idx]
	wrapped := func(evt any) { fn(evt.(T)) }
	for i := range subs {
		if subs[i].id == id {
			subs[i].fn = wrapped
			return
		}
	}
	d.handlers[idx] = append(subs, subscription{id: id, fn: wrapped})
}

// Unsubscribe removes the closure registered for type T under the given id.
// Unknown ids are a no-op.
//
// Parameters:
//   - d: the dispatcher to remove from
//   - id: the subscriber's id within the event type
func Unsubscribe[T any](d *Dispatcher, id SubscriberID) {
	idx := common.IndexOf[T](d.registry)

	d.mu.Lock()
	defer d.mu.Unlock()

	subs := d.handlers[idx]
	for i := range subs {
		if subs[i].id == id {
			d.handlers[idx] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Emit delivers the event to every subscriber of type T, in subscription
// order, on the calling goroutine.
//
// Parameters:
//   - d: the dispatcher to emit into
//   - evt: the event value
func Emit[T any](d *Dispatcher, evt T) {
	idx := common.IndexOf[T](d.registry)

	d.mu.RLock()
	subs := d.handlers[idx]
	fns := make([]func(any), len(subs))
	for i := range subs {
		fns[i] = subs[i].fn
	}
	d.mu.RUnlock()

	for _, fn := range fns {
		fn(evt)
	}
}
