package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/teahouse-backend/pkg/auth"
	"github.com/angelmondragon/teahouse-backend/pkg/bus"
	"github.com/angelmondragon/teahouse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/teahouse-backend/pkg/errors"
	"github.com/angelmondragon/teahouse-backend/pkg/logger"
	"github.com/angelmondragon/teahouse-backend/pkg/models"
	"github.com/angelmondragon/teahouse-backend/pkg/store"
)

// Service exposes the product catalog. Reads are open to everyone;
// Save requires the catalog management capability.
type Service interface {
	List(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetVariant(ctx context.Context, productID, size string) (*models.Product, *models.Variant, error)
	Save(ctx context.Context, products []models.Product, actor auth.Actor) error
}

type service struct {
	records store.Store
	keys    store.Keys
	events  bus.Bus
	logg    *logger.Logger
}

// NewService builds a catalog service backed by the provided stack.
func NewService(records store.Store, keys store.Keys, events bus.Bus, logg *logger.Logger) (Service, error) {
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
	}, nil
}

// List returns the whole catalog. A missing record is an empty catalog,
// not an error.
func (s *service) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.records.Get(ctx, s.keys.Catalog(), &products); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []models.Product{}, nil
		}
		return nil, err
	}
	return products, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	products, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", id))
}

// GetVariant resolves a product and one of its variants in a single
// lookup. An empty size resolves only when the product has exactly one
// variant.
func (s *service) GetVariant(ctx context.Context, productID, size string) (*models.Product, *models.Variant, error) {
	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	variant := product.Variant(size)
	if variant == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s has no %q variant", productID, size))
	}
	return product, variant, nil
}

// Save replaces the whole catalog record and notifies subscribers.
func (s *service) Save(ctx context.Context, products []models.Product, actor auth.Actor) error {
	if !actor.Can(auth.CapManageCatalog) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "catalog management requires an admin account")
	}
	if err := models.ValidateSlice(products); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(products))
	for _, product := range products {
		if _, dup := seen[product.ID]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate product id %s", product.ID))
		}
		seen[product.ID] = struct{}{}
	}
	if err := s.records.Set(ctx, s.keys.Catalog(), products); err != nil {
		return err
	}
	if err := s.events.Publish(ctx, bus.Event{
		Type: enums.EventCatalogChanged,
		Key:  s.keys.Catalog(),
		At:   time.Now().UTC(),
	}); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "catalog change notification failed")
	}
	return nil
}
