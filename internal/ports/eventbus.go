// Package ports define the EventBus interface for event-driven communication.
package ports

import (
	"github.com/tejashwikalptaru/spectratune/internal/domain"
)

// EventBus is the interface for publishing and subscribing to events.
// The playback core publishes; the presenter and the preference service subscribe.
//
// Thread-safety: Implementations must be thread-safe as events may be published and
// subscribed from multiple goroutines simultaneously.
//
// Example usage:
//
//	bus.Publish(domain.NewStatusEvent("Paused"))
//
//	subID := bus.Subscribe(domain.EventStatus, func(event domain.Event) {
//	    e := event.(domain.StatusEvent)
//	    view.SetStatus(e.Message)
//	})
//	bus.Unsubscribe(subID)
type EventBus interface {
	// Publish delivers an event to all subscribers of its type.
	// Publish must not be called while holding a lock a handler may need.
	Publish(event domain.Event)

	// Subscribe registers a handler for events of the specified type.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a previously registered handler. Unknown ids are a no-op.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers a handler that receives all events regardless of type.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// HasSubscribers returns true if there are any active subscriptions for the given event type.
	HasSubscribers(eventType domain.EventType) bool

	// Close shuts down the event bus and cleans up resources.
	Close() error
}

// EventFilter is a function that determines if an event should be delivered to a subscriber.
type EventFilter func(event domain.Event) bool

// FilteringEventBus extends EventBus with filtered subscriptions.
type FilteringEventBus interface {
	EventBus

	// SubscribeFiltered registers a handler with a filter function.
	//
	// Example: only error-level status messages
	//	bus.SubscribeFiltered(domain.EventStatus, func(e domain.Event) bool {
	//	    return e.(domain.StatusEvent).Level == domain.StatusError
	//	}, showErrorDialog)
	SubscribeFiltered(eventType domain.EventType, filter EventFilter, handler domain.EventHandler) domain.SubscriptionID
}
