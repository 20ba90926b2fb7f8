package models

import "github.com/angelmondragon/teahouse-backend/pkg/enums"

// Variant is one purchasable size/price/stock combination of a product.
// Size is unique within its product, not globally.
type Variant struct {
	Size  string  `json:"size" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
	Stock int     `json:"stock" validate:"gte=0"`
}

// Discount is a product-level markdown maintained by catalog views.
type Discount struct {
	Type  enums.DiscountType `json:"type" validate:"required,oneof=flat percent"`
	Value float64            `json:"value" validate:"gte=0"`
}

type Product struct {
	ID         string    `json:"id" validate:"required"`
	Name       string    `json:"name" validate:"required"`
	Category   string    `json:"category"`
	Image      string    `json:"image,omitempty"`
	Variants   []Variant `json:"variants" validate:"required,min=1,dive"`
	Discount   *Discount `json:"discount,omitempty" validate:"omitempty"`
	VATRate    float64   `json:"vat_rate" validate:"gte=0"`
	IsFeatured bool      `json:"is_featured"`
}

// Variant returns the variant with the given size, or nil when absent.
// An empty size resolves to the product's sole variant when there is
// exactly one, mirroring products without explicit sizing.
func (p *Product) Variant(size string) *Variant {
	if p == nil {
		return nil
	}
	if size == "" && len(p.Variants) == 1 {
		return &p.Variants[0]
	}
	for i := range p.Variants {
		if p.Variants[i].Size == size {
			return &p.Variants[i]
		}
	}
	return nil
}
