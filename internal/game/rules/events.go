package rules

import (
	"sort"
	"sync"
	"time"
)

// EventType indicates the category of a game event.
type EventType string

const (
	EventGameStarted    EventType = "GAME_STARTED"
	EventActionApplied  EventType = "ACTION_APPLIED"
	EventActionRejected EventType = "ACTION_REJECTED"
	EventPowerOffered   EventType = "POWER_OFFERED"
	EventPowerAccepted  EventType = "POWER_ACCEPTED"
	EventPowerDeclined  EventType = "POWER_DECLINED"
	EventSpadesPending  EventType = "SPADES_PENDING"
	EventTurnEnded      EventType = "TURN_ENDED"
	EventRoundEnded     EventType = "ROUND_ENDED"
	EventPhaseChanged   EventType = "PHASE_CHANGED"
)

// NoPlayer and NoHex fill unused event fields.
const (
	NoPlayer = -1
	NoHex    = -1
)

// Event represents a state change that other subsystems may react to.
type Event struct {
	Type      EventType
	Player    int    // Acting or affected player
	Hex       int    // Hex the event relates to
	Amount    int    // Numeric value (power, victory points, round)
	Data      string // Additional string data, e.g. the action description
	Round     int
	Timestamp time.Time
	Metadata  map[string]string
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// TypedListener defines a callback that reacts to a specific event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus provides a synchronous publish/subscribe implementation with type filtering.
// Listeners are called in subscription order.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]TypedListener
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle, whether
// it was registered with Subscribe or SubscribeTyped.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	handles := make([]int, 0, len(bus.listeners))
	for h := range bus.listeners {
		handles = append(handles, h)
	}
	sort.Ints(handles)
	all := make([]Listener, 0, len(handles))
	for _, h := range handles {
		all = append(all, bus.listeners[h])
	}
	typed := append([]TypedListener(nil), bus.typedListeners[event.Type]...)
	bus.mu.RUnlock()

	for _, listener := range all {
		listener(event)
	}
	for _, listener := range typed {
		listener.Callback(event)
	}
}

// NewEvent creates a new event with common fields populated.
func NewEvent(eventType EventType, player, hex int) Event {
	return Event{
		Type:      eventType,
		Player:    player,
		Hex:       hex,
		Timestamp: time.Now(),
		Metadata:  make(map[string]string),
	}
}

// NewEventWithAmount creates a new event with an amount value.
func NewEventWithAmount(eventType EventType, player, hex, amount int) Event {
	evt := NewEvent(eventType, player, hex)
	evt.Amount = amount
	return evt
}
