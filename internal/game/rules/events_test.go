package rules

import (
	"testing"
	"time"
)

func TestEventBusSubscribeTyped(t *testing.T) {
	bus := NewEventBus()

	offered := 0
	accepted := 0

	handle1 := bus.SubscribeTyped(EventPowerOffered, func(e Event) {
		offered++
	})
	handle2 := bus.SubscribeTyped(EventPowerAccepted, func(e Event) {
		accepted++
	})

	bus.Publish(NewEvent(EventPowerOffered, 1, 12))
	if offered != 1 || accepted != 0 {
		t.Fatalf("expected 1 offer and 0 accepts, got %d and %d", offered, accepted)
	}

	bus.Publish(NewEventWithAmount(EventPowerAccepted, 1, 12, 3))
	if offered != 1 || accepted != 1 {
		t.Fatalf("expected 1 offer and 1 accept, got %d and %d", offered, accepted)
	}

	bus.Unsubscribe(handle1)
	bus.Publish(NewEvent(EventPowerOffered, 0, 4))
	if offered != 1 {
		t.Fatalf("expected offer count still 1 after unsubscribe, got %d", offered)
	}

	bus.Unsubscribe(handle2)
	bus.Publish(NewEventWithAmount(EventPowerAccepted, 0, 4, 1))
	if accepted != 1 {
		t.Fatalf("expected accept count still 1 after unsubscribe, got %d", accepted)
	}
}

func TestEventBusSubscribeAllInOrder(t *testing.T) {
	bus := NewEventBus()

	var order []int
	first := bus.Subscribe(func(e Event) { order = append(order, 1) })
	bus.Subscribe(func(e Event) { order = append(order, 2) })
	bus.Subscribe(func(e Event) { order = append(order, 3) })

	bus.Publish(NewEvent(EventTurnEnded, 0, NoHex))
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("expected listeners in subscription order, got %v", order)
	}

	bus.Unsubscribe(first)
	order = nil
	bus.Publish(NewEvent(EventRoundEnded, NoPlayer, NoHex))
	if len(order) != 2 {
		t.Fatalf("expected 2 listeners after unsubscribe, got %v", order)
	}
}

func TestEventBusIgnoresNilListeners(t *testing.T) {
	bus := NewEventBus()
	if bus.Subscribe(nil) != -1 {
		t.Fatal("expected -1 handle for nil listener")
	}
	if bus.SubscribeTyped(EventTurnEnded, nil) != -1 {
		t.Fatal("expected -1 handle for nil typed listener")
	}
	bus.Publish(NewEvent(EventTurnEnded, 0, NoHex))
}

func TestListenerMayPublish(t *testing.T) {
	bus := NewEventBus()

	rounds := 0
	bus.SubscribeTyped(EventTurnEnded, func(e Event) {
		bus.Publish(NewEvent(EventRoundEnded, NoPlayer, NoHex))
	})
	bus.SubscribeTyped(EventRoundEnded, func(e Event) {
		rounds++
	})

	bus.Publish(NewEvent(EventTurnEnded, 0, NoHex))
	if rounds != 1 {
		t.Fatalf("expected nested publish to reach round listener, got %d", rounds)
	}
}

func TestEventFields(t *testing.T) {
	before := time.Now()
	evt := NewEventWithAmount(EventPowerAccepted, 2, 17, 4)
	after := time.Now()

	if evt.Type != EventPowerAccepted || evt.Player != 2 || evt.Hex != 17 || evt.Amount != 4 {
		t.Fatalf("unexpected event %+v", evt)
	}
	if evt.Metadata == nil {
		t.Fatal("expected metadata map")
	}
	if evt.Timestamp.Before(before) || evt.Timestamp.After(after) {
		t.Fatal("event timestamp should be between before and after")
	}
}
