package sim

import (
	"fmt"
	"sort"
)

// TicksPerSecond is the number of simulation ticks in one second (1 tick = 1µs).
const TicksPerSecond int64 = 1_000_000

// EventType tags every event. The set is closed; ParseEventType rejects
// anything not listed here.
type EventType string

const (
	// Reserved for the engine, never broadcast to subscribers.
	EventTypeDebug EventType = "sim_debug"
	EventTypeAlarm EventType = "sim_alarm"

	EventTypeScreenOn            EventType = "screen_on"
	EventTypeScreenOff           EventType = "screen_off"
	EventTypeAppForeground       EventType = "app_foreground"
	EventTypeAppBackground       EventType = "app_background"
	EventTypeNetTx               EventType = "net_tx"
	EventTypeNetRx               EventType = "net_rx"
	EventTypeChargerConnected    EventType = "charger_connected"
	EventTypeChargerDisconnected EventType = "charger_disconnected"
	EventTypeBatteryLevel        EventType = "battery_level"
)

var knownEventTypes = map[EventType]bool{
	EventTypeDebug:               true,
	EventTypeAlarm:               true,
	EventTypeScreenOn:            true,
	EventTypeScreenOff:           true,
	EventTypeAppForeground:       true,
	EventTypeAppBackground:       true,
	EventTypeNetTx:               true,
	EventTypeNetRx:               true,
	EventTypeChargerConnected:    true,
	EventTypeChargerDisconnected: true,
	EventTypeBatteryLevel:        true,
}

// ParseEventType converts a trace or config string into an EventType.
func ParseEventType(s string) (EventType, error) {
	t := EventType(s)
	if !knownEventTypes[t] {
		return "", fmt.Errorf("%w: %q", ErrUnknownEventType, s)
	}
	return t, nil
}

// IsInternal reports whether the type is handled by the engine itself.
func (t EventType) IsInternal() bool {
	return t == EventTypeDebug || t == EventTypeAlarm
}

// DomainEventTypes returns every non-internal event type, sorted.
func DomainEventTypes() []EventType {
	types := make([]EventType, 0, len(knownEventTypes))
	for t := range knownEventTypes {
		if !t.IsInternal() {
			types = append(types, t)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Priority breaks ties between queued events sharing a timestamp.
// Lower values are dispatched first.
type Priority int

const (
	PriorityDebugFirst Priority = 0
	PriorityAlarm      Priority = 5
	PriorityTrace      Priority = 10
	PriorityDebugLast  Priority = 1024
)

// Event defines the interface for all simulation events.
// Concrete events embed BaseEvent, which supplies the whole interface.
type Event interface {
	Timestamp() int64
	// Stamped is false for events created without a time; Broadcast
	// stamps them with the current simulation time.
	Stamped() bool
	Type() EventType

	setTimestamp(ts int64)
}

// BaseEvent provides common event fields.
type BaseEvent struct {
	timestamp int64
	stamped   bool
	eventType EventType
}

// NewBaseEvent creates an unstamped BaseEvent.
func NewBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{eventType: eventType}
}

// NewBaseEventAt creates a BaseEvent stamped with ts.
func NewBaseEventAt(ts int64, eventType EventType) BaseEvent {
	return BaseEvent{timestamp: ts, stamped: true, eventType: eventType}
}

func (e *BaseEvent) Timestamp() int64 {
	return e.timestamp
}

func (e *BaseEvent) Stamped() bool {
	return e.stamped
}

func (e *BaseEvent) Type() EventType {
	return e.eventType
}

func (e *BaseEvent) setTimestamp(ts int64) {
	e.timestamp = ts
	e.stamped = true
}

// BasicEvent is an event with an opaque payload. Trace events and events
// broadcast by modules are BasicEvents.
type BasicEvent struct {
	BaseEvent
	Payload any
}

// NewEvent creates an unstamped event, to be stamped when broadcast.
func NewEvent(eventType EventType, payload any) *BasicEvent {
	return &BasicEvent{BaseEvent: NewBaseEvent(eventType), Payload: payload}
}

// NewEventAt creates an event stamped with ts.
func NewEventAt(ts int64, eventType EventType, payload any) *BasicEvent {
	return &BasicEvent{BaseEvent: NewBaseEventAt(ts, eventType), Payload: payload}
}

func (e *BasicEvent) String() string {
	if e.Payload == nil {
		return fmt.Sprintf("[tick %07d] %s", e.timestamp, e.eventType)
	}
	return fmt.Sprintf("[tick %07d] %s %v", e.timestamp, e.eventType, e.Payload)
}
