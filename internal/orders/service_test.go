package orders

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/teahouse-backend/pkg/auth"
	"github.com/angelmondragon/teahouse-backend/pkg/bus"
	"github.com/angelmondragon/teahouse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teahouse-backend/pkg/errors"
	"github.com/angelmondragon/teahouse-backend/pkg/logger"
	"github.com/angelmondragon/teahouse-backend/pkg/models"
	"github.com/angelmondragon/teahouse-backend/pkg/store"
)

type fixture struct {
	svc     Service
	records *store.Memory
	keys    store.Keys
	events  *bus.Memory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	records := store.NewMemory()
	keys := store.NewKeys("test")
	events := bus.NewMemory()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(records, keys, events, logg, nil)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return &fixture{svc: svc, records: records, keys: keys, events: events}
}

func testCart(sessionID string) *models.Cart {
	return &models.Cart{
		SessionID: sessionID,
		Lines: []models.CartLine{
			{
				ProductID:  "tea-1",
				VariantKey: models.LineKey("tea-1", "50g"),
				Size:       "50g",
				Name:       "Test Tea",
				Price:      900,
				Quantity:   2,
			},
		},
	}
}

func testAddress() models.Address {
	return models.Address{
		Line1:   "12 Leaf Lane",
		City:    "Portland",
		Country: "US",
	}
}

func createInput(sessionID, email string) CreateInput {
	return CreateInput{
		Cart:          testCart(sessionID),
		CustomerEmail: email,
		CustomerName:  "Iris Tran",
		SessionID:     sessionID,
		Address:       testAddress(),
		PaymentMethod: "card",
	}
}

func mustCreate(t *testing.T, f *fixture, input CreateInput) *models.Order {
	t.Helper()
	order, err := f.svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	return order
}

func TestCreateFreezesCartAndPricesOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	cfg := models.DefaultSiteConfig()
	cfg.DiscountValue = 100
	if err := f.records.Set(ctx, f.keys.Config(), cfg); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	input := createInput("sess-1", "iris@example.com")
	order := mustCreate(t, f, input)

	if !strings.HasPrefix(order.ID, "ORD-") {
		t.Fatalf("unexpected order id %q", order.ID)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("new orders must be pending, got %s", order.Status)
	}
	if order.Subtotal != 1800 || order.DiscountAmount != 100 || order.ShippingFee != 50 || order.Tax != 85 || order.Total != 1835 {
		t.Fatalf("unexpected totals: %+v", order)
	}

	// Mutating the source cart must not reach the frozen snapshot.
	input.Cart.Lines[0].Quantity = 99
	stored, err := f.svc.Get(ctx, order.ID, auth.Customer("iris@example.com", "sess-1"))
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if stored.Items[0].Quantity != 2 {
		t.Fatalf("order snapshot was mutated through the cart: %+v", stored.Items)
	}
}

func TestCreateRejectsEmptyCart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	input := createInput("sess-1", "")
	input.Cart = &models.Cart{SessionID: "sess-1"}

	_, err := f.svc.Create(context.Background(), input)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateRequiresShippingAddress(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	input := createInput("sess-1", "")
	input.Address.City = ""

	_, err := f.svc.Create(context.Background(), input)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreatePrependsNewestFirst(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	first := mustCreate(t, f, createInput("sess-1", "iris@example.com"))
	second := mustCreate(t, f, createInput("sess-1", "iris@example.com"))

	var ledger models.Ledger
	if err := f.records.Get(context.Background(), f.keys.Orders(), &ledger); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(ledger) != 2 || ledger[0].ID != second.ID || ledger[1].ID != first.ID {
		t.Fatalf("expected newest-first ledger, got %+v", ledger)
	}
}

func TestCancelPendingOwnOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	order := mustCreate(t, f, createInput("sess-1", "iris@example.com"))

	cancelled, err := f.svc.Cancel(context.Background(), order.ID, auth.Customer("iris@example.com", "sess-1"))
	if err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
}

func TestCancelRejectsNonPending(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	admin := auth.Admin("admin@teahouse.dev")
	order := mustCreate(t, f, createInput("sess-1", "iris@example.com"))

	if _, err := f.svc.Advance(ctx, order.ID, enums.OrderStatusShipped, admin); err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	_, err := f.svc.Cancel(ctx, order.ID, auth.Customer("iris@example.com", "sess-1"))
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict for a shipped order, got %v", err)
	}
}

func TestCancelForeignOrderForbidden(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	order := mustCreate(t, f, createInput("sess-1", "iris@example.com"))

	_, err := f.svc.Cancel(context.Background(), order.ID, auth.Customer("mallory@example.com", "sess-2"))
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestGuestCancelScopedToSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	order := mustCreate(t, f, createInput("sess-guest", ""))

	if _, err := f.svc.Cancel(ctx, order.ID, auth.Guest("sess-other")); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for a foreign session, got %v", err)
	}
	if _, err := f.svc.Cancel(ctx, order.ID, auth.Guest("sess-guest")); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
}

func TestAdvanceLifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	admin := auth.Admin("admin@teahouse.dev")

	order := mustCreate(t, f, createInput("sess-1", "iris@example.com"))

	shipped, err := f.svc.Advance(ctx, order.ID, enums.OrderStatusShipped, admin)
	if err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	if shipped.Status != enums.OrderStatusShipped {
		t.Fatalf("expected shipped, got %s", shipped.Status)
	}

	delivered, err := f.svc.Advance(ctx, order.ID, enums.OrderStatusDelivered, admin)
	if err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	if delivered.Status != enums.OrderStatusDelivered {
		t.Fatalf("expected delivered, got %s", delivered.Status)
	}

	// Terminal orders never move again.
	if _, err := f.svc.Advance(ctx, order.ID, enums.OrderStatusShipped, admin); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict out of delivered, got %v", err)
	}
	if _, err := f.svc.Advance(ctx, order.ID, enums.OrderStatusCancelled, admin); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict cancelling delivered, got %v", err)
	}
}

func TestAdvanceSkipShipped(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	admin := auth.Admin("admin@teahouse.dev")
	order := mustCreate(t, f, createInput("sess-1", "iris@example.com"))

	delivered, err := f.svc.Advance(context.Background(), order.ID, enums.OrderStatusDelivered, admin)
	if err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	if delivered.Status != enums.OrderStatusDelivered {
		t.Fatalf("pending must advance straight to delivered, got %s", delivered.Status)
	}
}

func TestAdvanceSameStateIsNoOp(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	admin := auth.Admin("admin@teahouse.dev")
	order := mustCreate(t, f, createInput("sess-1", "iris@example.com"))

	published := 0
	f.events.Subscribe(func(bus.Event) error {
		published++
		return nil
	})

	same, err := f.svc.Advance(context.Background(), order.ID, enums.OrderStatusPending, admin)
	if err != nil {
		t.Fatalf("same-state advance must be a no-op, got %v", err)
	}
	if same.Status != enums.OrderStatusPending {
		t.Fatalf("unexpected status %s", same.Status)
	}
	if published != 0 {
		t.Fatalf("no-op transitions must not publish, got %d events", published)
	}
}

func TestAdvanceRequiresAdmin(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	order := mustCreate(t, f, createInput("sess-1", "iris@example.com"))

	_, err := f.svc.Advance(context.Background(), order.ID, enums.OrderStatusShipped, auth.Customer("iris@example.com", "sess-1"))
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestAdvanceAdminCancelsShippedOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	admin := auth.Admin("admin@teahouse.dev")
	order := mustCreate(t, f, createInput("sess-1", "iris@example.com"))

	if _, err := f.svc.Advance(ctx, order.ID, enums.OrderStatusShipped, admin); err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	cancelled, err := f.svc.Advance(ctx, order.ID, enums.OrderStatusCancelled, admin)
	if err != nil {
		t.Fatalf("Advance returned error: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
}

func TestArchiveRemovesOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	admin := auth.Admin("admin@teahouse.dev")
	order := mustCreate(t, f, createInput("sess-1", "iris@example.com"))

	if err := f.svc.Archive(ctx, order.ID, admin); err != nil {
		t.Fatalf("Archive returned error: %v", err)
	}
	if _, err := f.svc.Get(ctx, order.ID, admin); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found after archive, got %v", err)
	}

	if err := f.svc.Archive(ctx, order.ID, auth.Guest("sess-1")); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for non-admin archive, got %v", err)
	}
}

func TestListScopesAndFilters(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	admin := auth.Admin("admin@teahouse.dev")

	iris := mustCreate(t, f, createInput("sess-1", "iris@example.com"))
	mustCreate(t, f, createInput("sess-2", "omar@example.com"))
	guest := mustCreate(t, f, createInput("sess-3", ""))

	all, err := f.svc.List(ctx, Filter{}, admin)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("admin must see every order, got %d", len(all))
	}

	mine, err := f.svc.List(ctx, Filter{}, auth.Customer("IRIS@example.com", "sess-1"))
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != iris.ID {
		t.Fatalf("customer scope leaked foreign orders: %+v", mine)
	}

	guestOrders, err := f.svc.List(ctx, Filter{}, auth.Guest("sess-3"))
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(guestOrders) != 1 || guestOrders[0].ID != guest.ID {
		t.Fatalf("guest scope leaked foreign orders: %+v", guestOrders)
	}

	if _, err := f.svc.Cancel(ctx, iris.ID, admin); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	pending, err := f.svc.List(ctx, Filter{Status: enums.OrderStatusPending}, admin)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected two pending orders, got %d", len(pending))
	}
}

func TestListSortsNewestFirstWithZeroDatesLast(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	admin := auth.Admin("admin@teahouse.dev")

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ledger := models.Ledger{
		{ID: "ORD-A", Date: base, Items: testCart("s").Lines, Status: enums.OrderStatusPending},
		{ID: "ORD-B", Date: base.Add(time.Hour), Items: testCart("s").Lines, Status: enums.OrderStatusPending},
		{ID: "ORD-C", Items: testCart("s").Lines, Status: enums.OrderStatusPending},
	}
	if err := f.records.Set(ctx, f.keys.Orders(), ledger); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	listed, err := f.svc.List(ctx, Filter{}, admin)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if listed[0].ID != "ORD-B" || listed[1].ID != "ORD-A" || listed[2].ID != "ORD-C" {
		t.Fatalf("unexpected order: %s, %s, %s", listed[0].ID, listed[1].ID, listed[2].ID)
	}
}

func TestCreatePublishesAfterPersist(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	var seen []bus.Event
	f.events.Subscribe(func(event bus.Event) error {
		var ledger models.Ledger
		if err := f.records.Get(ctx, f.keys.Orders(), &ledger); err != nil {
			t.Errorf("ledger unreadable during event delivery: %v", err)
		}
		seen = append(seen, event)
		return nil
	})

	mustCreate(t, f, createInput("sess-1", "iris@example.com"))

	if len(seen) != 1 || seen[0].Type != enums.EventOrderChanged {
		t.Fatalf("expected one order.changed event, got %+v", seen)
	}
}

func TestCorruptLedgerFallsBackToLastKnownGood(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	admin := auth.Admin("admin@teahouse.dev")
	order := mustCreate(t, f, createInput("sess-1", "iris@example.com"))

	f.records.SetRaw(f.keys.Orders(), []byte("[broken"))

	listed, err := f.svc.List(ctx, Filter{}, admin)
	if err != nil {
		t.Fatalf("expected fallback to last known-good, got %v", err)
	}
	if len(listed) != 1 || listed[0].ID != order.ID {
		t.Fatalf("fallback ledger does not match: %+v", listed)
	}
}
