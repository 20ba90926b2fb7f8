package bus

import (
	"context"
	"time"

	"github.com/angelmondragon/teahouse-backend/pkg/enums"
)

// Event is a change notification. It carries no payload on purpose:
// subscribers re-read full state from the store, so a duplicate delivery
// (local publish plus a cross-process echo) can never double-apply.
type Event struct {
	Type   enums.EventType `json:"type"`
	Key    string          `json:"key,omitempty"`
	Origin string          `json:"origin,omitempty"`
	At     time.Time       `json:"at"`
}

// Handler consumes one event. Returning an error does not stop delivery
// to other subscribers.
type Handler func(event Event) error

// Bus is the cross-view notification port. Services publish only after
// a successful store write, so subscribers never observe a notification
// ahead of the data.
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(handler Handler) (cancel func())
}
