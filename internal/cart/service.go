package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/teahouse-backend/pkg/bus"
	"github.com/angelmondragon/teahouse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teahouse-backend/pkg/errors"
	"github.com/angelmondragon/teahouse-backend/pkg/logger"
	"github.com/angelmondragon/teahouse-backend/pkg/metrics"
	"github.com/angelmondragon/teahouse-backend/pkg/models"
	"github.com/angelmondragon/teahouse-backend/pkg/store"
)

type variantLoader interface {
	GetVariant(ctx context.Context, productID, size string) (*models.Product, *models.Variant, error)
}

// AddInput is one add-to-cart request. Quantity below one is treated as
// one. StockAtAdd, when supplied, caps the merged line quantity.
type AddInput struct {
	ProductID  string
	Name       string
	Image      string
	Size       string
	Price      float64
	Quantity   int
	StockAtAdd *int
}

// Service exposes the per-session cart operations. Every mutation
// re-reads the persisted record, applies the change, writes the whole
// record back, and only then publishes a change notification.
type Service interface {
	Get(ctx context.Context, sessionID string) (*models.Cart, error)
	Add(ctx context.Context, sessionID string, input AddInput) (*models.Cart, error)
	AddProduct(ctx context.Context, sessionID, productID, size string, quantity int) (*models.Cart, error)
	Increase(ctx context.Context, sessionID, variantKey string) (*models.Cart, error)
	Decrease(ctx context.Context, sessionID, variantKey string) (*models.Cart, error)
	Remove(ctx context.Context, sessionID, variantKey string) (*models.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type service struct {
	records store.Store
	keys    store.Keys
	events  bus.Bus
	catalog variantLoader
	logg    *logger.Logger
	counts  *metrics.StorefrontMetrics

	mu       sync.Mutex
	lastGood map[string][]models.CartLine
}

// NewService builds a cart service. The catalog loader may be nil when
// callers always supply snapshot data through Add; counts may be nil to
// disable metrics.
func NewService(records store.Store, keys store.Keys, events bus.Bus, catalog variantLoader, logg *logger.Logger, counts *metrics.StorefrontMetrics) (Service, error) {
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
		records:  records,
		keys:     keys,
		events:   events,
		catalog:  catalog,
		logg:     logg,
		counts:   counts,
		lastGood: map[string][]models.CartLine{},
	}, nil
}

// Get returns the current cart. A missing record is an empty cart; an
// unreadable record falls back to the last known-good lines for the
// session when any exist.
func (s *service) Get(ctx context.Context, sessionID string) (*models.Cart, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	lines, err := s.loadLines(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.assemble(sessionID, lines), nil
}

func (s *service) Add(ctx context.Context, sessionID string, input AddInput) (*models.Cart, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.ProductID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Price < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.Quantity < 1 {
		input.Quantity = 1
	}

	lines, err := s.loadLines(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	key := models.LineKey(input.ProductID, input.Size)
	idx := indexOf(lines, key)
	if idx >= 0 {
		line := &lines[idx]
		stockCap := pickCap(input.StockAtAdd, line.StockCapAtAdd)
		if capExhausted(stockCap) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item is out of stock")
		}
		line.Quantity = clampQuantity(line.Quantity+input.Quantity, stockCap)
		// Refresh the snapshot fields so a catalog edit shows up the
		// next time the same variant is re-added.
		line.Price = input.Price
		if input.Name != "" {
			line.Name = input.Name
		}
		if input.Image != "" {
			line.Image = input.Image
		}
		if input.StockAtAdd != nil {
			stock := *input.StockAtAdd
			line.StockCapAtAdd = &stock
		}
	} else {
		if capExhausted(input.StockAtAdd) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item is out of stock")
		}
		line := models.CartLine{
			ProductID:  input.ProductID,
			VariantKey: key,
			Size:       input.Size,
			Name:       input.Name,
			Image:      input.Image,
			Price:      input.Price,
			Quantity:   clampQuantity(input.Quantity, input.StockAtAdd),
		}
		if input.StockAtAdd != nil {
			stock := *input.StockAtAdd
			line.StockCapAtAdd = &stock
		}
		lines = append(lines, line)
	}

	if err := s.persist(ctx, sessionID, lines, "add"); err != nil {
		return nil, err
	}
	return s.assemble(sessionID, lines), nil
}

// AddProduct resolves the price, name, and stock cap from the catalog
// before delegating to Add.
func (s *service) AddProduct(ctx context.Context, sessionID, productID, size string, quantity int) (*models.Cart, error) {
	if s.catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog lookup not configured")
	}
	product, variant, err := s.catalog.GetVariant(ctx, productID, size)
	if err != nil {
		return nil, err
	}
	stock := variant.Stock
	return s.Add(ctx, sessionID, AddInput{
		ProductID:  product.ID,
		Name:       product.Name,
		Image:      product.Image,
		Size:       variant.Size,
		Price:      variant.Price,
		Quantity:   quantity,
		StockAtAdd: &stock,
	})
}

// Increase bumps a line by one, clamped at the stock cap seen at add
// time. Increasing a missing line, or a line already at its cap,
// changes nothing and publishes nothing. A line whose recorded cap is
// zero is out of stock and refuses the increase outright.
func (s *service) Increase(ctx context.Context, sessionID, variantKey string) (*models.Cart, error) {
	return s.adjust(ctx, sessionID, variantKey, "increase", func(line *models.CartLine) (bool, error) {
		if capExhausted(line.StockCapAtAdd) {
			return false, pkgerrors.New(pkgerrors.CodeValidation, "item is out of stock")
		}
		next := clampQuantity(line.Quantity+1, line.StockCapAtAdd)
		if next == line.Quantity {
			return false, nil
		}
		line.Quantity = next
		return true, nil
	})
}

// Decrease lowers a line by one with a floor of one. Removal is always
// an explicit separate action.
func (s *service) Decrease(ctx context.Context, sessionID, variantKey string) (*models.Cart, error) {
	return s.adjust(ctx, sessionID, variantKey, "decrease", func(line *models.CartLine) (bool, error) {
		if line.Quantity <= 1 {
			return false, nil
		}
		line.Quantity--
		return true, nil
	})
}

func (s *service) Remove(ctx context.Context, sessionID, variantKey string) (*models.Cart, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	lines, err := s.loadLines(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	idx := indexOf(lines, variantKey)
	if idx < 0 {
		return s.assemble(sessionID, lines), nil
	}
	lines = append(lines[:idx], lines[idx+1:]...)
	if err := s.persist(ctx, sessionID, lines, "remove"); err != nil {
		return nil, err
	}
	return s.assemble(sessionID, lines), nil
}

// Clear deletes the cart record entirely rather than writing an empty
// one, so a cleared session and a fresh session look identical.
func (s *service) Clear(ctx context.Context, sessionID string) error {
	if err := requireSession(sessionID); err != nil {
		return err
	}
	if err := s.records.Remove(ctx, s.keys.Cart(sessionID)); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	s.mu.Lock()
	delete(s.lastGood, sessionID)
	s.mu.Unlock()
	s.counts.IncCartMutation("clear")
	s.publish(ctx, sessionID)
	return nil
}

func (s *service) adjust(ctx context.Context, sessionID, variantKey, op string, apply func(*models.CartLine) (bool, error)) (*models.Cart, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	lines, err := s.loadLines(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	idx := indexOf(lines, variantKey)
	if idx < 0 {
		return s.assemble(sessionID, lines), nil
	}
	changed, err := apply(&lines[idx])
	if err != nil {
		return nil, err
	}
	if !changed {
		return s.assemble(sessionID, lines), nil
	}
	if err := s.persist(ctx, sessionID, lines, op); err != nil {
		return nil, err
	}
	return s.assemble(sessionID, lines), nil
}

// loadLines reads the persisted record. On a persistence failure it
// falls back to the last known-good lines, so a corrupt record degrades
// to stale data instead of a lost cart. With no fallback available the
// error surfaces; corruption must never read as emptiness.
func (s *service) loadLines(ctx context.Context, sessionID string) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := s.records.Get(ctx, s.keys.Cart(sessionID), &lines)
	switch {
	case err == nil:
		s.rememberGood(sessionID, lines)
		return lines, nil
	case errors.Is(err, store.ErrNotFound):
		return nil, nil
	case pkgerrors.IsCode(err, pkgerrors.CodePersistence):
		s.mu.Lock()
		good, ok := s.lastGood[sessionID]
		s.mu.Unlock()
		if !ok {
			return nil, err
		}
		s.logg.Warn(s.logg.WithSessionID(ctx, sessionID), "cart record unreadable, serving last known-good state")
		return cloneLines(good), nil
	default:
		return nil, err
	}
}

func (s *service) persist(ctx context.Context, sessionID string, lines []models.CartLine, op string) error {
	if err := s.records.Set(ctx, s.keys.Cart(sessionID), lines); err != nil {
		return err
	}
	s.rememberGood(sessionID, lines)
	s.counts.IncCartMutation(op)
	s.publish(ctx, sessionID)
	return nil
}

func (s *service) publish(ctx context.Context, sessionID string) {
	err := s.events.Publish(ctx, bus.Event{
		Type: enums.EventCartChanged,
		Key:  s.keys.Cart(sessionID),
		At:   time.Now().UTC(),
	})
	if err != nil {
		s.logg.Warn(s.logg.WithSessionID(ctx, sessionID), "cart change notification failed")
		return
	}
	s.counts.IncBusEvent(enums.EventCartChanged.String())
}

func (s *service) rememberGood(sessionID string, lines []models.CartLine) {
	s.mu.Lock()
	s.lastGood[sessionID] = cloneLines(lines)
	s.mu.Unlock()
}

func (s *service) assemble(sessionID string, lines []models.CartLine) *models.Cart {
	if lines == nil {
		lines = []models.CartLine{}
	}
	return &models.Cart{
		SessionID: sessionID,
		Lines:     lines,
		UpdatedAt: time.Now().UTC(),
	}
}

func requireSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	return nil
}

func indexOf(lines []models.CartLine, key string) int {
	for i := range lines {
		if lines[i].VariantKey == key {
			return i
		}
	}
	return -1
}

func clampQuantity(quantity int, stockCap *int) int {
	if quantity < 1 {
		quantity = 1
	}
	if stockCap != nil && quantity > *stockCap {
		quantity = *stockCap
	}
	return quantity
}

// capExhausted reports whether a supplied stock cap leaves no quantity
// to sell. A nil cap means the stock level was never observed and the
// line stays uncapped.
func capExhausted(stockCap *int) bool {
	return stockCap != nil && *stockCap <= 0
}

// pickCap prefers the freshest stock observation.
func pickCap(incoming, existing *int) *int {
	if incoming != nil {
		return incoming
	}
	return existing
}

func cloneLines(lines []models.CartLine) []models.CartLine {
	if len(lines) == 0 {
		return nil
	}
	cloned := make([]models.CartLine, 0, len(lines))
	for _, line := range lines {
		cloned = append(cloned, line.Clone())
	}
	return cloned
}
