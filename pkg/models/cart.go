package models

import "time"

// DefaultVariantSize is the merge-key suffix for products without sizing.
const DefaultVariantSize = "default"

// LineKey builds the variant merge key for a cart line. Two sizes of the
// same product are distinct lines; all cart operations address lines by
// this key, never by bare product id.
func LineKey(productID, size string) string {
	if size == "" {
		size = DefaultVariantSize
	}
	return productID + "__" + size
}

// CartLine is one merged cart entry. Price and name are snapshotted at
// add time; StockCapAtAdd carries the variant stock seen at that moment
// (nil means the caller never supplied a cap).
type CartLine struct {
	ProductID     string  `json:"product_id" validate:"required"`
	VariantKey    string  `json:"variant_key" validate:"required"`
	Size          string  `json:"size,omitempty"`
	Name          string  `json:"name"`
	Image         string  `json:"image,omitempty"`
	Price         float64 `json:"price" validate:"gte=0"`
	Quantity      int     `json:"quantity" validate:"gte=1"`
	StockCapAtAdd *int    `json:"stock_cap_at_add,omitempty"`
}

// Clone returns a value copy with its own stock-cap pointer.
func (l CartLine) Clone() CartLine {
	copied := l
	if l.StockCapAtAdd != nil {
		cap := *l.StockCapAtAdd
		copied.StockCapAtAdd = &cap
	}
	return copied
}

// Cart is the per-session cart record. Line order is insertion order.
type Cart struct {
	SessionID string     `json:"session_id"`
	Lines     []CartLine `json:"lines"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TotalItems recomputes the quantity sum on every call; it is never stored.
func (c *Cart) TotalItems() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, line := range c.Lines {
		total += line.Quantity
	}
	return total
}

// Subtotal recomputes the price*quantity sum on every call; it is never stored.
func (c *Cart) Subtotal() float64 {
	if c == nil {
		return 0
	}
	subtotal := 0.0
	for _, line := range c.Lines {
		subtotal += line.Price * float64(line.Quantity)
	}
	return subtotal
}

// FindLine returns the index of the line with the given key, or -1.
func (c *Cart) FindLine(key string) int {
	if c == nil {
		return -1
	}
	for i := range c.Lines {
		if c.Lines[i].VariantKey == key {
			return i
		}
	}
	return -1
}

// CloneLines deep-copies the line slice so later cart mutations cannot
// reach a frozen snapshot.
func (c *Cart) CloneLines() []CartLine {
	if c == nil || len(c.Lines) == 0 {
		return nil
	}
	lines := make([]CartLine, 0, len(c.Lines))
	for _, line := range c.Lines {
		lines = append(lines, line.Clone())
	}
	return lines
}
