package eventbus

import (
	"bytes"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/spectratune/internal/domain"
	"github.com/tejashwikalptaru/spectratune/internal/logger"
	"github.com/tejashwikalptaru/spectratune/internal/testutil"
)

func TestNewSyncEventBus(t *testing.T) {
	bus := NewSyncEventBus()

	require.NotNil(t, bus)
	assert.Zero(t, bus.SubscriberCount())
	assert.False(t, bus.HasSubscribers(domain.EventStatus))
}

func TestPublishSubscribe(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var received []domain.Event
	id := bus.Subscribe(domain.EventStatus, func(e domain.Event) {
		received = append(received, e)
	})
	require.NotEmpty(t, id)

	bus.Publish(domain.NewStatusEvent("Loaded 2 file(s)"))
	bus.Publish(domain.NewVolumeChangedEvent(0.4))

	require.Len(t, received, 1)
	assert.Equal(t, domain.EventStatus, received[0].Type())
	assert.Equal(t, "Loaded 2 file(s)", received[0].(domain.StatusEvent).Message)
}

func TestSubscriptionIDsAreUnique(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	seen := make(map[domain.SubscriptionID]bool)
	for range 50 {
		id := bus.Subscribe(domain.EventStatus, func(domain.Event) {})
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestDeliveryFollowsRegistrationOrder(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var order []string
	bus.Subscribe(domain.EventTrackPaused, func(domain.Event) { order = append(order, "first") })
	bus.SubscribeAll(func(domain.Event) { order = append(order, "any") })
	bus.Subscribe(domain.EventTrackPaused, func(domain.Event) { order = append(order, "last") })

	bus.Publish(domain.NewTrackPausedEvent(domain.NewTrack("/a.mp3"), 0))

	assert.Equal(t, []string{"first", "any", "last"}, order)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var first, second int
	id := bus.Subscribe(domain.EventVolumeChanged, func(domain.Event) { first++ })
	bus.Subscribe(domain.EventVolumeChanged, func(domain.Event) { second++ })

	bus.Unsubscribe(id)
	bus.Publish(domain.NewVolumeChangedEvent(0.5))

	assert.Zero(t, first)
	assert.Equal(t, 1, second)
	assert.Equal(t, 1, bus.SubscriberCount())

	assert.NotPanics(t, func() {
		bus.Unsubscribe("missing")
		bus.Unsubscribe(id)
	})
}

func TestUnsubscribeWildcard(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	calls := 0
	id := bus.SubscribeAll(func(domain.Event) { calls++ })
	require.True(t, bus.HasSubscribers(domain.EventStatus))

	bus.Unsubscribe(id)
	bus.Publish(domain.NewStatusEvent("x"))

	assert.Zero(t, calls)
	assert.False(t, bus.HasSubscribers(domain.EventStatus))
}

func TestUnsubscribeDuringPublish(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var laterCalls int
	var laterID domain.SubscriptionID
	bus.Subscribe(domain.EventStatus, func(domain.Event) { bus.Unsubscribe(laterID) })
	laterID = bus.Subscribe(domain.EventStatus, func(domain.Event) { laterCalls++ })

	// The publish in flight still sees the registration list it started with
	bus.Publish(domain.NewStatusEvent("a"))
	bus.Publish(domain.NewStatusEvent("b"))

	assert.Equal(t, 1, laterCalls)
}

func TestSubscribeFiltered(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var messages []string
	bus.SubscribeFiltered(domain.EventStatus, func(e domain.Event) bool {
		return e.(domain.StatusEvent).Level == domain.StatusError
	}, func(e domain.Event) {
		messages = append(messages, e.(domain.StatusEvent).Message)
	})

	bus.Publish(domain.NewStatusEvent("Paused"))
	bus.Publish(domain.NewErrorStatusEvent("Cannot open x"))

	assert.Equal(t, []string{"Cannot open x"}, messages)
}

func TestHasSubscribers(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	id := bus.Subscribe(domain.EventTrackStarted, func(domain.Event) {})
	assert.True(t, bus.HasSubscribers(domain.EventTrackStarted))
	assert.False(t, bus.HasSubscribers(domain.EventTrackPaused))

	bus.SubscribeAll(func(domain.Event) {})
	assert.True(t, bus.HasSubscribers(domain.EventTrackPaused))

	bus.Unsubscribe(id)
	assert.True(t, bus.HasSubscribers(domain.EventTrackStarted), "wildcard still counts")
}

func TestHandlerPanic(t *testing.T) {
	var out bytes.Buffer
	bus := NewSyncEventBus()
	bus.SetLogger(logger.NewLogger(logger.Config{Format: "text", Output: &out}))
	defer bus.Close()

	calls := 0
	bus.Subscribe(domain.EventStatus, func(domain.Event) { panic("boom") })
	bus.Subscribe(domain.EventStatus, func(domain.Event) { calls++ })

	assert.NotPanics(t, func() { bus.Publish(domain.NewStatusEvent("x")) })
	assert.Equal(t, 1, calls)
	assert.Contains(t, out.String(), "event handler panicked")
	assert.Contains(t, out.String(), "boom")
}

func TestHandlerMayPublish(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	statuses := 0
	bus.Subscribe(domain.EventTrackStopped, func(domain.Event) {
		bus.Publish(domain.NewStatusEvent("Stopped"))
	})
	bus.Subscribe(domain.EventStatus, func(domain.Event) { statuses++ })

	bus.Publish(domain.NewTrackStoppedEvent(domain.NewTrack("/a.mp3")))

	assert.Equal(t, 1, statuses)
}

func TestClose(t *testing.T) {
	bus := NewSyncEventBus()
	calls := 0
	bus.Subscribe(domain.EventTrackStarted, func(domain.Event) { calls++ })
	bus.SubscribeAll(func(domain.Event) { calls++ })

	require.NoError(t, bus.Close())
	assert.Zero(t, bus.SubscriberCount())
	assert.False(t, bus.HasSubscribers(domain.EventTrackStarted))

	bus.Publish(domain.NewStatusEvent("x"))
	assert.Zero(t, calls)

	assert.ErrorIs(t, bus.Close(), ErrClosed)
	assert.Panics(t, func() { bus.Subscribe(domain.EventStatus, func(domain.Event) {}) })
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	bus := NewSyncEventBus()
	defer bus.Close()

	var delivered atomic.Int32
	bus.Subscribe(domain.EventTrackProgress, func(domain.Event) { delivered.Add(1) })

	const (
		workers   = 10
		perWorker = 100
	)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range perWorker {
				bus.Publish(domain.NewTrackProgressEvent(0, 0))
			}
		}()
		go func() {
			defer wg.Done()
			id := bus.Subscribe(domain.EventStatus, func(domain.Event) {})
			bus.Unsubscribe(id)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(workers*perWorker), delivered.Load())
	assert.Equal(t, 1, bus.SubscriberCount())
}

func TestNilEvent(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	called := false
	bus.SubscribeAll(func(domain.Event) { called = true })

	bus.Publish(nil)

	assert.False(t, called)
}

func TestNilHandler(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	assert.Panics(t, func() { bus.Subscribe(domain.EventStatus, nil) })
}
