package store

import (
	"context"
	"errors"
	"testing"

	pkgerrors "github.com/angelmondragon/teahouse-backend/pkg/errors"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryRoundTrip(t *testing.T) {
	t.Parallel()

	mem := NewMemory()
	ctx := context.Background()

	if err := mem.Set(ctx, "k", payload{Name: "oolong", Count: 3}); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got payload
	if err := mem.Get(ctx, "k", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "oolong" || got.Count != 3 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestMemoryGetReturnsSnapshot(t *testing.T) {
	t.Parallel()

	mem := NewMemory()
	ctx := context.Background()

	original := payload{Name: "sencha", Count: 1}
	if err := mem.Set(ctx, "k", original); err != nil {
		t.Fatalf("set: %v", err)
	}
	original.Count = 99

	var got payload
	if err := mem.Get(ctx, "k", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Count != 1 {
		t.Fatalf("stored value aliased the caller's struct: %+v", got)
	}
}

func TestMemoryMissingKeyIsNotFound(t *testing.T) {
	t.Parallel()

	mem := NewMemory()

	var got payload
	if err := mem.Get(context.Background(), "missing", &got); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRemoveDistinguishesEmptyFromAbsent(t *testing.T) {
	t.Parallel()

	mem := NewMemory()
	ctx := context.Background()

	if err := mem.Set(ctx, "k", []payload{}); err != nil {
		t.Fatalf("set: %v", err)
	}
	var empty []payload
	if err := mem.Get(ctx, "k", &empty); err != nil {
		t.Fatalf("empty list should still be readable: %v", err)
	}

	if err := mem.Remove(ctx, "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := mem.Get(ctx, "k", &empty); !errors.Is(err, ErrNotFound) {
		t.Fatalf("removed key should be not-found, got %v", err)
	}
}

func TestMemoryCorruptRecordIsPersistenceError(t *testing.T) {
	t.Parallel()

	mem := NewMemory()
	mem.SetRaw("k", []byte("{not json"))

	var got payload
	err := mem.Get(context.Background(), "k", &got)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("corrupt record must not read as empty or absent, got %v", err)
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodePersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestKeysAreNamespaced(t *testing.T) {
	t.Parallel()

	keys := NewKeys("teahouse")
	if got := keys.Cart("abc"); got != "teahouse:cart:abc" {
		t.Fatalf("unexpected cart key %q", got)
	}
	if got := keys.Orders(); got != "teahouse:orders" {
		t.Fatalf("unexpected orders key %q", got)
	}
	if got := NewKeys("").Catalog(); got != "teahouse:catalog" {
		t.Fatalf("empty namespace should fall back, got %q", got)
	}
}
