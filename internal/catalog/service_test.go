package catalog

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

func newTestService(t *testing.T) (Service, store.Store, store.Keys, *bus.Memory) {
	t.Helper()
	records := store.NewMemory()
	keys := store.NewKeys("test")
	events := bus.NewMemory()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(records, keys, events, logg)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc, records, keys, events
}

func TestListEmptyCatalog(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(t)

	products, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(products) != 0 {
		t.Fatalf("expected an empty catalog, got %d products", len(products))
	}
}

func TestSaveAndList(t *testing.T) {
	t.Parallel()

	svc, _, _, events := newTestService(t)
	ctx := context.Background()

	var published []bus.Event
	events.Subscribe(func(event bus.Event) error {
		published = append(published, event)
		return nil
	})

	if err := svc.Save(ctx, SeedProducts(), auth.Admin("admin@teahouse.dev")); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	products, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(products) != len(SeedProducts()) {
		t.Fatalf("expected %d products, got %d", len(SeedProducts()), len(products))
	}
	if len(published) != 1 || published[0].Type != enums.EventCatalogChanged {
		t.Fatalf("expected one catalog.changed event, got %+v", published)
	}
}

func TestSaveRequiresAdmin(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(t)

	err := svc.Save(context.Background(), SeedProducts(), auth.Guest("sess-1"))
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestSaveRejectsDuplicateIDs(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(t)
	products := SeedProducts()[:1]
	products = append(products, products[0])

	err := svc.Save(context.Background(), products, auth.Admin("admin@teahouse.dev"))
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetProduct(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	if err := svc.Save(ctx, SeedProducts(), auth.Admin("admin@teahouse.dev")); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	product, err := svc.GetProduct(ctx, "tea-jasmine-pearl")
	if err != nil {
		t.Fatalf("GetProduct returned error: %v", err)
	}
	if product.Name != "Jasmine Pearl" {
		t.Fatalf("unexpected product %+v", product)
	}

	if _, err := svc.GetProduct(ctx, "tea-missing"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.GetProduct(ctx, ""); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for an empty id, got %v", err)
	}
}

func TestGetVariant(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	if err := svc.Save(ctx, SeedProducts(), auth.Admin("admin@teahouse.dev")); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	_, variant, err := svc.GetVariant(ctx, "tea-golden-assam", "250g")
	if err != nil {
		t.Fatalf("GetVariant returned error: %v", err)
	}
	if variant.Price != 24.50 {
		t.Fatalf("unexpected variant %+v", variant)
	}

	// An empty size resolves only for single-variant products.
	_, sole, err := svc.GetVariant(ctx, "tea-silver-needle", "")
	if err != nil {
		t.Fatalf("GetVariant returned error: %v", err)
	}
	if sole.Size != "50g" {
		t.Fatalf("expected the sole variant, got %+v", sole)
	}

	if _, _, err := svc.GetVariant(ctx, "tea-golden-assam", ""); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for an ambiguous size, got %v", err)
	}
}

func TestSeedIfEmpty(t *testing.T) {
	t.Parallel()

	records := store.NewMemory()
	keys := store.NewKeys("test")
	ctx := context.Background()

	seeded, err := SeedIfEmpty(ctx, records, keys)
	if err != nil {
		t.Fatalf("SeedIfEmpty returned error: %v", err)
	}
	if !seeded {
		t.Fatal("expected first run to seed")
	}

	var products []models.Product
	if err := records.Get(ctx, keys.Catalog(), &products); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(products) == 0 {
		t.Fatal("expected a seeded catalog")
	}

	// Second run must not overwrite.
	products[0].Name = "Renamed"
	if err := records.Set(ctx, keys.Catalog(), products); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	seeded, err = SeedIfEmpty(ctx, records, keys)
	if err != nil {
		t.Fatalf("SeedIfEmpty returned error: %v", err)
	}
	if seeded {
		t.Fatal("expected second run to be a no-op")
	}
	if err := records.Get(ctx, keys.Catalog(), &products); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if products[0].Name != "Renamed" {
		t.Fatal("seed overwrote an existing catalog")
	}
}
