package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/teahouse-backend/internal/pricing"
	"github.com/angelmondragon/teahouse-backend/pkg/auth"
	"github.com/angelmondragon/teahouse-backend/pkg/bus"
	"github.com/angelmondragon/teahouse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teahouse-backend/pkg/errors"
	"github.com/angelmondragon/teahouse-backend/pkg/logger"
	"github.com/angelmondragon/teahouse-backend/pkg/metrics"
	"github.com/angelmondragon/teahouse-backend/pkg/models"
	"github.com/angelmondragon/teahouse-backend/pkg/store"
	"github.com/google/uuid"
)

// CreateInput is one checkout request. The cart is snapshotted; later
// cart mutations never reach the created order.
type CreateInput struct {
	Cart          *models.Cart
	CustomerEmail string
	CustomerName  string
	SessionID     string
	Address       models.Address
	PaymentMethod string
}

// Filter narrows List results. Empty fields match everything the actor
// is allowed to see.
type Filter struct {
	Email     string
	SessionID string
	Status    enums.OrderStatus
}

// Service owns the order ledger and its lifecycle transitions.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	Get(ctx context.Context, id string, actor auth.Actor) (*models.Order, error)
	List(ctx context.Context, filter Filter, actor auth.Actor) ([]models.Order, error)
	Cancel(ctx context.Context, id string, actor auth.Actor) (*models.Order, error)
	Advance(ctx context.Context, id string, target enums.OrderStatus, actor auth.Actor) (*models.Order, error)
	Archive(ctx context.Context, id string, actor auth.Actor) error
}

type service struct {
	records store.Store
	keys    store.Keys
	events  bus.Bus
	logg    *logger.Logger
	counts  *metrics.StorefrontMetrics
	now     func() time.Time

	mu       sync.Mutex
	lastGood models.Ledger
	hasGood  bool
}

// NewService builds an order service backed by the provided stack.
func NewService(records store.Store, keys store.Keys, events bus.Bus, logg *logger.Logger, counts *metrics.StorefrontMetrics) (Service, error) {
	if records == nil {
		return nil, fmt.Errorf("record store required")
	}
	if events == nil {
		return nil, fmt.Errorf("event bus required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		records: records,
		keys:    keys,
		events:  events,
		logg:    logg,
		counts:  counts,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Create freezes the cart into a new pending order and prepends it to
// the ledger. Totals come from the pricing resolver under the current
// site configuration; they are fixed at creation and never recomputed.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if input.Cart == nil || len(input.Cart.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot place an order with an empty cart")
	}
	if strings.TrimSpace(input.Address.Line1) == "" || strings.TrimSpace(input.Address.City) == "" || strings.TrimSpace(input.Address.Country) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address requires line1, city, and country")
	}

	cfg, err := s.siteConfig(ctx)
	if err != nil {
		return nil, err
	}
	quote := pricing.Price(input.Cart.Lines, cfg)

	ledger, err := s.loadLedger(ctx)
	if err != nil {
		return nil, err
	}

	order := models.Order{
		ID:             s.newOrderID(ledger),
		Date:           s.now(),
		CustomerEmail:  strings.ToLower(strings.TrimSpace(input.CustomerEmail)),
		CustomerName:   strings.TrimSpace(input.CustomerName),
		SessionID:      input.SessionID,
		Items:          input.Cart.CloneLines(),
		Subtotal:       quote.Subtotal,
		DiscountAmount: quote.DiscountAmount,
		ShippingFee:    quote.ShippingFee,
		Tax:            quote.Tax,
		Total:          quote.Total,
		Status:         enums.OrderStatusPending,
		Address:        input.Address,
		PaymentMethod:  strings.TrimSpace(input.PaymentMethod),
	}
	if err := models.Validate(order); err != nil {
		return nil, err
	}

	next := make(models.Ledger, 0, len(ledger)+1)
	next = append(next, order)
	next = append(next, ledger...)

	if err := s.persist(ctx, next); err != nil {
		return nil, err
	}
	s.counts.IncOrderTransition(enums.OrderStatusPending.String())
	return &order, nil
}

func (s *service) Get(ctx context.Context, id string, actor auth.Actor) (*models.Order, error) {
	ledger, err := s.loadLedger(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOf(ledger, id)
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", id))
	}
	order := ledger[idx]
	if !actor.Can(auth.CapViewAllOrders) && !owns(order, actor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	}
	return &order, nil
}

// List returns matching orders newest first. Non-admin actors are
// always scoped to their own orders regardless of the filter.
func (s *service) List(ctx context.Context, filter Filter, actor auth.Actor) ([]models.Order, error) {
	ledger, err := s.loadLedger(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]models.Order, 0, len(ledger))
	for _, order := range ledger {
		if !actor.Can(auth.CapViewAllOrders) && !owns(order, actor) {
			continue
		}
		if filter.Email != "" && !strings.EqualFold(order.CustomerEmail, filter.Email) {
			continue
		}
		if filter.SessionID != "" && order.SessionID != filter.SessionID {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		matched = append(matched, order)
	}

	// The ledger is stored newest first, but a hand-edited or corrupt
	// record may violate that. Re-sort stably; zero dates sort last so
	// an order with a mangled date never masks a real one.
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i].Date, matched[j].Date
		if a.IsZero() {
			return false
		}
		if b.IsZero() {
			return true
		}
		return a.After(b)
	})
	return matched, nil
}

// Cancel rejects anything but a pending order. Admins may cancel any
// customer's pending order; customers only their own.
func (s *service) Cancel(ctx context.Context, id string, actor auth.Actor) (*models.Order, error) {
	return s.transition(ctx, id, enums.OrderStatusCancelled, actor, false)
}

// Advance moves an order along the lifecycle. Pending may ship or go
// straight to delivered, shipped may deliver, and anything non-terminal
// may cancel. Terminal orders never move again.
func (s *service) Advance(ctx context.Context, id string, target enums.OrderStatus, actor auth.Actor) (*models.Order, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", target))
	}
	if !actor.Can(auth.CapAdvanceOrder) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "advancing orders requires an admin account")
	}
	return s.transition(ctx, id, target, actor, true)
}

// Archive removes an order from the ledger entirely. Unlike Cancel it
// erases history, so it is reserved for admins.
func (s *service) Archive(ctx context.Context, id string, actor auth.Actor) error {
	if !actor.Can(auth.CapArchiveOrder) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "archiving orders requires an admin account")
	}
	ledger, err := s.loadLedger(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(ledger, id)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", id))
	}
	next := make(models.Ledger, 0, len(ledger)-1)
	next = append(next, ledger[:idx]...)
	next = append(next, ledger[idx+1:]...)
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.counts.IncOrderTransition("archived")
	return nil
}

func (s *service) transition(ctx context.Context, id string, target enums.OrderStatus, actor auth.Actor, viaAdvance bool) (*models.Order, error) {
	ledger, err := s.loadLedger(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOf(ledger, id)
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", id))
	}
	order := ledger[idx]

	if target == enums.OrderStatusCancelled && !viaAdvance {
		if !actor.Can(auth.CapCancelAnyOrder) {
			if !actor.Can(auth.CapCancelOwnOrder) || !owns(order, actor) {
				return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
			}
		}
		if order.Status != enums.OrderStatusPending {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("only pending orders can be cancelled, order is %s", order.Status))
		}
	} else {
		if order.Status == target {
			return &order, nil
		}
		if !legalTransition(order.Status, target) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
		}
	}

	order.Status = target
	ledger[idx] = order
	if err := s.persist(ctx, ledger); err != nil {
		return nil, err
	}
	s.counts.IncOrderTransition(target.String())
	return &order, nil
}

// legalTransition encodes the lifecycle: pending -> shipped ->
// delivered, with a direct pending -> delivered shortcut, and
// cancellation from any non-terminal state.
func legalTransition(current, target enums.OrderStatus) bool {
	if current.IsTerminal() {
		return false
	}
	switch target {
	case enums.OrderStatusCancelled:
		return true
	case enums.OrderStatusShipped:
		return current == enums.OrderStatusPending
	case enums.OrderStatusDelivered:
		return current == enums.OrderStatusPending || current == enums.OrderStatusShipped
	default:
		return false
	}
}

// owns reports whether the order belongs to the acting customer. A
// registered customer matches by email; a guest only by the session
// that placed the order.
func owns(order models.Order, actor auth.Actor) bool {
	if actor.Email != "" && order.CustomerEmail != "" {
		return strings.EqualFold(order.CustomerEmail, actor.Email)
	}
	return actor.SessionID != "" && order.SessionID == actor.SessionID
}

// loadLedger mirrors the cart's read policy: missing means empty,
// unreadable falls back to the last known-good ledger when one exists.
func (s *service) loadLedger(ctx context.Context) (models.Ledger, error) {
	var ledger models.Ledger
	err := s.records.Get(ctx, s.keys.Orders(), &ledger)
	switch {
	case err == nil:
		s.rememberGood(ledger)
		return ledger, nil
	case errors.Is(err, store.ErrNotFound):
		return nil, nil
	case pkgerrors.IsCode(err, pkgerrors.CodePersistence):
		s.mu.Lock()
		good, ok := s.lastGood, s.hasGood
		s.mu.Unlock()
		if !ok {
			return nil, err
		}
		s.logg.Warn(ctx, "order ledger unreadable, serving last known-good state")
		return cloneLedger(good), nil
	default:
		return nil, err
	}
}

func (s *service) persist(ctx context.Context, ledger models.Ledger) error {
	if err := s.records.Set(ctx, s.keys.Orders(), ledger); err != nil {
		return err
	}
	s.rememberGood(ledger)
	s.publish(ctx)
	return nil
}

func (s *service) publish(ctx context.Context) {
	err := s.events.Publish(ctx, bus.Event{
		Type: enums.EventOrderChanged,
		Key:  s.keys.Orders(),
		At:   s.now(),
	})
	if err != nil {
		s.logg.Warn(ctx, "order change notification failed")
		return
	}
	s.counts.IncBusEvent(enums.EventOrderChanged.String())
}

func (s *service) rememberGood(ledger models.Ledger) {
	s.mu.Lock()
	s.lastGood = cloneLedger(ledger)
	s.hasGood = true
	s.mu.Unlock()
}

func (s *service) siteConfig(ctx context.Context) (models.SiteConfig, error) {
	var cfg models.SiteConfig
	err := s.records.Get(ctx, s.keys.Config(), &cfg)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return models.DefaultSiteConfig(), nil
	}
	return models.SiteConfig{}, err
}

// newOrderID builds a date-stamped id and re-rolls the random suffix
// until it is unique within the ledger.
func (s *service) newOrderID(ledger models.Ledger) string {
	for {
		suffix := strings.ToUpper(uuid.NewString()[:6])
		id := fmt.Sprintf("ORD-%s-%s", s.now().Format("20060102"), suffix)
		if indexOf(ledger, id) < 0 {
			return id
		}
	}
}

func indexOf(ledger models.Ledger, id string) int {
	for i := range ledger {
		if ledger[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneLedger(ledger models.Ledger) models.Ledger {
	if len(ledger) == 0 {
		return nil
	}
	cloned := make(models.Ledger, 0, len(ledger))
	for _, order := range ledger {
		copied := order
		copied.Items = append([]models.CartLine(nil), order.Items...)
		for i := range copied.Items {
			copied.Items[i] = order.Items[i].Clone()
		}
		cloned = append(cloned, copied)
	}
	return cloned
}
