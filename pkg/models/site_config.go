package models

import "github.com/angelmondragon/teahouse-backend/pkg/enums"

// SiteConfig holds the storewide pricing knobs. It is owned by the
// settings views; the pricing resolver only reads it.
type SiteConfig struct {
	StoreName        string             `json:"store_name"`
	Currency         string             `json:"currency" validate:"required"`
	FlatShippingFee  float64            `json:"flat_shipping_fee" validate:"gte=0"`
	FreeShippingOver float64            `json:"free_shipping_over" validate:"gte=0"`
	VATRate          float64            `json:"vat_rate" validate:"gte=0"`
	DiscountType     enums.DiscountType `json:"discount_type" validate:"required,oneof=flat percent"`
	DiscountValue    float64            `json:"discount_value" validate:"gte=0"`
}

// DefaultSiteConfig returns the configuration seeded on first boot.
func DefaultSiteConfig() SiteConfig {
	return SiteConfig{
		StoreName:        "Teahouse",
		Currency:         "USD",
		FlatShippingFee:  50,
		FreeShippingOver: 2000,
		VATRate:          5,
		DiscountType:     enums.DiscountTypeFlat,
		DiscountValue:    0,
	}
}
