package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/teahouse-backend/api/middleware"
	orderssvc "github.com/angelmondragon/teahouse-backend/internal/orders"
	"github.com/angelmondragon/teahouse-backend/pkg/auth"
	"github.com/angelmondragon/teahouse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teahouse-backend/pkg/errors"
	"github.com/angelmondragon/teahouse-backend/pkg/models"
)

type stubOrderService struct {
	order *models.Order
	list  []models.Order
	err   error

	gotInput  orderssvc.CreateInput
	gotFilter orderssvc.Filter
	gotActor  auth.Actor
}

func (s *stubOrderService) Create(ctx context.Context, input orderssvc.CreateInput) (*models.Order, error) {
	s.gotInput = input
	return s.order, s.err
}

func (s *stubOrderService) Get(ctx context.Context, id string, actor auth.Actor) (*models.Order, error) {
	s.gotActor = actor
	return s.order, s.err
}

func (s *stubOrderService) List(ctx context.Context, filter orderssvc.Filter, actor auth.Actor) ([]models.Order, error) {
	s.gotFilter = filter
	s.gotActor = actor
	return s.list, s.err
}

func (s *stubOrderService) Cancel(ctx context.Context, id string, actor auth.Actor) (*models.Order, error) {
	s.gotActor = actor
	return s.order, s.err
}

func (s *stubOrderService) Advance(ctx context.Context, id string, target enums.OrderStatus, actor auth.Actor) (*models.Order, error) {
	s.gotActor = actor
	return s.order, s.err
}

func (s *stubOrderService) Archive(ctx context.Context, id string, actor auth.Actor) error {
	s.gotActor = actor
	return s.err
}

func TestOrderCreateClearsCartAfterCheckout(t *testing.T) {
	cart := &models.Cart{
		SessionID: "sess-1",
		Lines: []models.CartLine{{
			ProductID:  "tea-1",
			VariantKey: "tea-1__50g",
			Price:      900,
			Quantity:   2,
		}},
	}
	carts := &stubCartService{cart: cart}
	orders := &stubOrderService{order: &models.Order{ID: "ORD-20260301-AB12CD", Status: enums.OrderStatusPending}}
	handler := OrderCreate(orders, carts, nil)

	body := `{"customer_email":"iris@example.com","address":{"line1":"12 Leaf Lane","city":"Portland","country":"US"}}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, guestRequest(http.MethodPost, "/v1/orders", body))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if orders.gotInput.CustomerEmail != "iris@example.com" || orders.gotInput.SessionID != "sess-1" {
		t.Fatalf("unexpected create input: %+v", orders.gotInput)
	}
	// Clear runs after Create succeeded and records the session.
	if carts.gotSession != "sess-1" {
		t.Fatalf("cart was not cleared for the session, got %q", carts.gotSession)
	}
}

func TestOrderCreateMapsEmptyCartError(t *testing.T) {
	carts := &stubCartService{cart: &models.Cart{SessionID: "sess-1"}}
	orders := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeValidation, "cannot place an order with an empty cart")}
	handler := OrderCreate(orders, carts, nil)

	body := `{"address":{"line1":"12 Leaf Lane","city":"Portland","country":"US"}}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, guestRequest(http.MethodPost, "/v1/orders", body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderListForwardsFilter(t *testing.T) {
	orders := &stubOrderService{list: []models.Order{}}
	handler := OrderList(orders, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/orders?status=pending&email=iris@example.com", nil)
	req = req.WithContext(middleware.WithActor(req.Context(), auth.Admin("admin@teahouse.dev")))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if orders.gotFilter.Status != enums.OrderStatusPending || orders.gotFilter.Email != "iris@example.com" {
		t.Fatalf("unexpected filter: %+v", orders.gotFilter)
	}
	if orders.gotActor.Role != enums.ActorRoleAdmin {
		t.Fatalf("actor not forwarded: %+v", orders.gotActor)
	}
}

func TestOrderListRejectsUnknownStatus(t *testing.T) {
	handler := OrderList(&stubOrderService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, guestRequest(http.MethodGet, "/v1/orders?status=bogus", ""))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderCancelMapsStateConflict(t *testing.T) {
	orders := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be cancelled")}
	handler := OrderCancel(orders, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, guestRequest(http.MethodPost, "/v1/orders/ORD-X/cancel", ""))

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("unexpected error code %q", envelope.Error.Code)
	}
}
