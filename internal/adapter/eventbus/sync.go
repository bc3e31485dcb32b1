// Package eventbus delivers domain events between the playback core and its
// observers.
package eventbus

import (
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/tejashwikalptaru/spectratune/internal/domain"
	"github.com/tejashwikalptaru/spectratune/internal/ports"
)

// ErrClosed is returned by Close on a bus that is already closed.
var ErrClosed = errors.New("event bus closed")

// anyEvent is the topic of SubscribeAll registrations.
const anyEvent domain.EventType = "*"

type registration struct {
	id      domain.SubscriptionID
	topic   domain.EventType
	filter  ports.EventFilter
	handler domain.EventHandler
}

func (r registration) accepts(e domain.Event) bool {
	if r.topic != anyEvent && r.topic != e.Type() {
		return false
	}
	return r.filter == nil || r.filter(e)
}

// SyncEventBus calls handlers on the publishing goroutine, in the order they
// were registered. The registration list is copy-on-write, so Publish never
// holds the lock while a handler runs and handlers may publish or subscribe.
type SyncEventBus struct {
	mu     sync.Mutex
	regs   []registration
	topics map[domain.EventType]int
	closed bool
	logger *slog.Logger
}

func NewSyncEventBus() *SyncEventBus {
	return &SyncEventBus{topics: make(map[domain.EventType]int)}
}

// SetLogger enables logging of recovered handler panics.
func (bus *SyncEventBus) SetLogger(logger *slog.Logger) {
	bus.mu.Lock()
	bus.logger = logger
	bus.mu.Unlock()
}

// Publish delivers e to every matching registration. A panicking handler is
// logged and skipped. Publishing nil or on a closed bus does nothing.
func (bus *SyncEventBus) Publish(e domain.Event) {
	if e == nil {
		return
	}

	bus.mu.Lock()
	regs, logger, closed := bus.regs, bus.logger, bus.closed
	bus.mu.Unlock()
	if closed {
		return
	}

	for _, r := range regs {
		if r.accepts(e) {
			deliver(logger, r, e)
		}
	}
}

func deliver(logger *slog.Logger, r registration, e domain.Event) {
	defer func() {
		p := recover()
		if p == nil || logger == nil {
			return
		}
		logger.Error("event handler panicked",
			slog.Any("panic", p),
			slog.String("event_type", string(e.Type())),
			slog.String("subscription", string(r.id)))
	}()
	r.handler(e)
}

func (bus *SyncEventBus) register(topic domain.EventType, filter ports.EventFilter, handler domain.EventHandler) domain.SubscriptionID {
	if handler == nil {
		panic("eventbus: nil handler")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()
	if bus.closed {
		panic("eventbus: subscribe on closed bus")
	}

	r := registration{
		id:      domain.SubscriptionID(uuid.NewString()),
		topic:   topic,
		filter:  filter,
		handler: handler,
	}
	bus.regs = append(slices.Clip(bus.regs), r)
	bus.topics[topic]++
	return r.id
}

func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	return bus.register(eventType, nil, handler)
}

// SubscribeFiltered is Subscribe with a predicate evaluated per event.
func (bus *SyncEventBus) SubscribeFiltered(eventType domain.EventType, filter ports.EventFilter, handler domain.EventHandler) domain.SubscriptionID {
	return bus.register(eventType, filter, handler)
}

func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	return bus.register(anyEvent, nil, handler)
}

// Unsubscribe drops the registration with id. Unknown ids are ignored.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	i := slices.IndexFunc(bus.regs, func(r registration) bool { return r.id == id })
	if i < 0 {
		return
	}
	topic := bus.regs[i].topic
	bus.regs = slices.Delete(slices.Clone(bus.regs), i, i+1)
	if bus.topics[topic]--; bus.topics[topic] <= 0 {
		delete(bus.topics, topic)
	}
}

// HasSubscribers reports whether an event of eventType would reach any
// handler, ignoring filters.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	return bus.topics[eventType] > 0 || bus.topics[anyEvent] > 0
}

// SubscriberCount counts every registration, wildcard ones included.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	return len(bus.regs)
}

// Close drops all registrations. Later publishes are ignored.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return ErrClosed
	}
	bus.closed = true
	bus.regs = nil
	clear(bus.topics)
	return nil
}

var _ ports.FilteringEventBus = (*SyncEventBus)(nil)
