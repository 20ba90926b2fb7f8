package pricing

import (
	"github.com/angelmondragon/teahouse-backend/pkg/enums"
	"github.com/angelmondragon/teahouse-backend/pkg/models"
	"github.com/shopspring/decimal"
)

// Quote is the full price breakdown for a set of cart lines. Every
// component is rounded to two decimal places, half up.
type Quote struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discount_amount"`
	ShippingFee    float64 `json:"shipping_fee"`
	Tax            float64 `json:"tax"`
	Total          float64 `json:"total"`
}

// Price resolves the breakdown for the given lines under the given
// configuration. It is a pure function: same lines and config always
// yield the same quote, and it never mutates either argument.
//
// Resolution order is fixed: discount applies to the subtotal, tax
// applies to the discounted subtotal, shipping is added untaxed.
func Price(lines []models.CartLine, cfg models.SiteConfig) Quote {
	subtotal := decimal.Zero
	for _, line := range lines {
		price := decimal.NewFromFloat(line.Price)
		qty := decimal.NewFromInt(int64(line.Quantity))
		subtotal = subtotal.Add(price.Mul(qty))
	}

	discount := discountAmount(subtotal, cfg)
	taxable := subtotal.Sub(discount)

	// A threshold of zero means every cart ships free. Empty carts
	// quote as all zeros either way.
	shipping := decimal.Zero
	freeOver := decimal.NewFromFloat(cfg.FreeShippingOver)
	if subtotal.GreaterThan(decimal.Zero) && subtotal.LessThan(freeOver) {
		shipping = decimal.NewFromFloat(cfg.FlatShippingFee)
	}

	vat := decimal.NewFromFloat(cfg.VATRate)
	tax := taxable.Mul(vat).Div(decimal.NewFromInt(100))

	total := taxable.Add(tax).Add(shipping)

	return Quote{
		Subtotal:       round(subtotal),
		DiscountAmount: round(discount),
		ShippingFee:    round(shipping),
		Tax:            round(tax),
		Total:          round(total),
	}
}

// discountAmount clamps to [0, subtotal] so a flat discount larger than
// the cart can never produce a negative taxable base.
func discountAmount(subtotal decimal.Decimal, cfg models.SiteConfig) decimal.Decimal {
	value := decimal.NewFromFloat(cfg.DiscountValue)
	if value.LessThanOrEqual(decimal.Zero) || subtotal.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	var discount decimal.Decimal
	switch cfg.DiscountType {
	case enums.DiscountTypePercent:
		discount = subtotal.Mul(value).Div(decimal.NewFromInt(100))
	default:
		discount = value
	}
	if discount.GreaterThan(subtotal) {
		return subtotal
	}
	return discount
}

func round(value decimal.Decimal) float64 {
	rounded, _ := value.Round(2).Float64()
	return rounded
}
