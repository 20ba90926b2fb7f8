package catalog

import (
	"context"
	"errors"

	"github.com/angelmondragon/teahouse-backend/pkg/enums"
	"github.com/angelmondragon/teahouse-backend/pkg/models"
	"github.com/angelmondragon/teahouse-backend/pkg/store"
)

// SeedIfEmpty writes the starter catalog when no catalog record exists
// yet. It never overwrites a populated catalog and publishes no event,
// since it only runs during boot before any subscriber is attached.
func SeedIfEmpty(ctx context.Context, records store.Store, keys store.Keys) (bool, error) {
	var existing []models.Product
	err := records.Get(ctx, keys.Catalog(), &existing)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}
	return true, records.Set(ctx, keys.Catalog(), SeedProducts())
}

// SeedProducts is the starter catalog shipped with a fresh store.
func SeedProducts() []models.Product {
	return []models.Product{
		{
			ID:       "tea-jasmine-pearl",
			Name:     "Jasmine Pearl",
			Category: "green",
			Image:    "/img/jasmine-pearl.jpg",
			Variants: []models.Variant{
				{Size: "50g", Price: 14.50, Stock: 40},
				{Size: "100g", Price: 26.00, Stock: 25},
			},
			VATRate:    5,
			IsFeatured: true,
		},
		{
			ID:       "tea-golden-assam",
			Name:     "Golden Assam",
			Category: "black",
			Image:    "/img/golden-assam.jpg",
			Variants: []models.Variant{
				{Size: "100g", Price: 11.00, Stock: 60},
				{Size: "250g", Price: 24.50, Stock: 18},
			},
			VATRate: 5,
		},
		{
			ID:       "tea-aged-puerh",
			Name:     "Aged Shou Pu-erh Cake",
			Category: "puerh",
			Image:    "/img/aged-puerh.jpg",
			Variants: []models.Variant{
				{Size: "357g", Price: 89.00, Stock: 6},
			},
			Discount: &models.Discount{
				Type:  enums.DiscountTypePercent,
				Value: 10,
			},
			VATRate:    5,
			IsFeatured: true,
		},
		{
			ID:       "tea-silver-needle",
			Name:     "Silver Needle",
			Category: "white",
			Image:    "/img/silver-needle.jpg",
			Variants: []models.Variant{
				{Size: "50g", Price: 22.00, Stock: 15},
			},
			VATRate: 5,
		},
		{
			ID:       "teaware-gaiwan",
			Name:     "Porcelain Gaiwan 120ml",
			Category: "teaware",
			Image:    "/img/gaiwan.jpg",
			Variants: []models.Variant{
				{Size: "default", Price: 32.00, Stock: 12},
			},
			VATRate: 5,
		},
	}
}
