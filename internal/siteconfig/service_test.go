package siteconfig

import (
	"context"
	"io"
	"testing"

	"github.com/angelmondragon/teahouse-backend/pkg/auth"
	"github.com/angelmondragon/teahouse-backend/pkg/bus"
	"github.com/angelmondragon/teahouse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teahouse-backend/pkg/errors"
	"github.com/angelmondragon/teahouse-backend/pkg/logger"
	"github.com/angelmondragon/teahouse-backend/pkg/models"
	"github.com/angelmondragon/teahouse-backend/pkg/store"
)

func newTestService(t *testing.T) (Service, *bus.Memory) {
	t.Helper()
	events := bus.NewMemory()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(store.NewMemory(), store.NewKeys("test"), events, logg)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc, events
}

func TestGetReturnsDefaultsBeforeFirstSave(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	cfg, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if cfg != models.DefaultSiteConfig() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestSaveRoundTripsAndPublishes(t *testing.T) {
	t.Parallel()

	svc, events := newTestService(t)
	ctx := context.Background()

	published := 0
	events.Subscribe(func(event bus.Event) error {
		if event.Type != enums.EventConfigChanged {
			t.Errorf("unexpected event type %s", event.Type)
		}
		published++
		return nil
	})

	cfg := models.DefaultSiteConfig()
	cfg.VATRate = 19
	cfg.FreeShippingOver = 150
	if err := svc.Save(ctx, cfg, auth.Admin("admin@teahouse.dev")); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	got, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got != cfg {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if published != 1 {
		t.Fatalf("expected one config.changed event, got %d", published)
	}
}

func TestSaveRequiresAdmin(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	err := svc.Save(context.Background(), models.DefaultSiteConfig(), auth.Guest("sess-1"))
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestSaveValidates(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	cfg := models.DefaultSiteConfig()
	cfg.DiscountType = "bogus"
	err := svc.Save(context.Background(), cfg, auth.Admin("admin@teahouse.dev"))
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
