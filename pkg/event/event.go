// pkg/event/event.go
package event

import (
	"sync"

	"github.com/opd-ai/go-collide/pkg/physics"
)

// Type represents the type of event
type Type string

// Event types published by a collision world
const (
	CollisionDetected Type = "collision_detected"
	ActorInserted     Type = "actor_inserted"
	ActorRemoved      Type = "actor_removed"
	LayerAdded        Type = "layer_added"
	LayerRemoved      Type = "layer_removed"
	DispatchFailed    Type = "dispatch_failed"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Subscription identifies a registered handler. Cancel removes it; calling
// Cancel more than once is harmless.
type Subscription struct {
	ID     uint64
	Type   Type
	Cancel func()
}

type registration struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and dispatching
type Bus struct {
	handlers map[Type][]registration
	nextID   uint64
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]registration),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], registration{id: id, handler: handler})

	return &Subscription{
		ID:     id,
		Type:   eventType,
		Cancel: func() { b.unsubscribe(eventType, id) },
	}
}

func (b *Bus) unsubscribe(eventType Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.handlers[eventType]
	for i, r := range regs {
		if r.id == id {
			b.handlers[eventType] = append(regs[:i:i], regs[i+1:]...)
			return
		}
	}
}

// HandlerCount returns the number of handlers subscribed to eventType
func (b *Bus) HandlerCount(eventType Type) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

// Publish sends an event to all subscribed handlers. Handlers run on the
// caller's goroutine, outside the bus lock, in subscription order.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	regs := b.handlers[event.GetType()]
	snapshot := make([]registration, len(regs))
	copy(snapshot, regs)
	b.mu.RUnlock()

	for _, r := range snapshot {
		r.handler(event)
	}
}

// Specific event implementations

// CollisionEvent reports one contact. Penetration is the vector delivered to
// A; B received its negation.
type CollisionEvent struct {
	BaseEvent
	A           interface{}
	B           interface{}
	LayerA      string
	LayerB      string
	Penetration physics.Vector2D
}

// NewCollisionEvent creates a new collision event
func NewCollisionEvent(source, a, b interface{}, layerA, layerB string, penetration physics.Vector2D) *CollisionEvent {
	return &CollisionEvent{
		BaseEvent: BaseEvent{
			EventType: CollisionDetected,
			Source:    source,
		},
		A:           a,
		B:           b,
		LayerA:      layerA,
		LayerB:      layerB,
		Penetration: penetration,
	}
}

// ActorEvent contains information about actor membership changes
type ActorEvent struct {
	BaseEvent
	Actor interface{}
	Layer string
}

// NewActorEvent creates a new actor event
func NewActorEvent(eventType Type, source, actor interface{}, layer string) *ActorEvent {
	return &ActorEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		Actor: actor,
		Layer: layer,
	}
}

// LayerEvent contains information about layer registry changes
type LayerEvent struct {
	BaseEvent
	Layer string
}

// NewLayerEvent creates a new layer event
func NewLayerEvent(eventType Type, source interface{}, layer string) *LayerEvent {
	return &LayerEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		Layer: layer,
	}
}

// DispatchFailedEvent reports a collision callback that returned an error
// or panicked.
type DispatchFailedEvent struct {
	BaseEvent
	Actor interface{}
	Other interface{}
	Err   error
}

// NewDispatchFailedEvent creates a new dispatch failure event
func NewDispatchFailedEvent(source, actor, other interface{}, err error) *DispatchFailedEvent {
	return &DispatchFailedEvent{
		BaseEvent: BaseEvent{
			EventType: DispatchFailed,
			Source:    source,
		},
		Actor: actor,
		Other: other,
		Err:   err,
	}
}
