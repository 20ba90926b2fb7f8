package store

import (
	"context"
	"errors"
)

// ErrNotFound signals that no record exists under the requested key.
// Callers must treat it as "genuinely empty"; an unreadable record
// surfaces a PERSISTENCE_ERROR instead, never this sentinel.
var ErrNotFound = errors.New("store: record not found")

// Store is the shared record-store port. Values are JSON-serializable
// whole records; every Set replaces the record in one write, so readers
// never observe a torn partial state.
type Store interface {
	Get(ctx context.Context, key string, out any) error
	Set(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) error
}

// Pinger exposes the health-check surface of backends that have one.
type Pinger interface {
	Ping(ctx context.Context) error
}
