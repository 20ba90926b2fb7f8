package enums

import "fmt"

// EventType names a change notification carried by the sync bus.
type EventType string

const (
	EventCartChanged    EventType = "cart.changed"
	EventOrderChanged   EventType = "order.changed"
	EventCatalogChanged EventType = "catalog.changed"
	EventConfigChanged  EventType = "config.changed"
)

var validEventTypes = []EventType{
	EventCartChanged,
	EventOrderChanged,
	EventCatalogChanged,
	EventConfigChanged,
}

// String implements fmt.Stringer.
func (e EventType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EventType.
func (e EventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEventType converts raw input into an EventType.
func ParseEventType(value string) (EventType, error) {
	for _, candidate := range validEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
