package events

import "testing"

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus()

	var a, b int
	bus.Subscribe(QueueUpdated, func() { a++ })
	bus.Subscribe(QueueUpdated, func() { b++ })

	bus.Publish(QueueUpdated)
	bus.Publish(QueueUpdated)

	if a != 2 || b != 2 {
		t.Errorf("Expected both handlers called twice, got a=%d b=%d", a, b)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()

	var calls int
	unsubscribe := bus.Subscribe(QueueUpdated, func() { calls++ })

	bus.Publish(QueueUpdated)
	unsubscribe()
	bus.Publish(QueueUpdated)

	if calls != 1 {
		t.Errorf("Expected 1 call after unsubscribe, got %d", calls)
	}
}

func TestEventsAreScopedByName(t *testing.T) {
	bus := NewBus()

	var calls int
	bus.Subscribe("other.event", func() { calls++ })

	bus.Publish(QueueUpdated)

	if calls != 0 {
		t.Errorf("Expected no delivery for unrelated event, got %d", calls)
	}
}
