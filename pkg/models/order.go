package models

import (
	"time"

	"github.com/angelmondragon/teahouse-backend/pkg/enums"
)

// Address captures the shipping destination supplied at checkout.
type Address struct {
	Line1      string `json:"line1" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country" validate:"required"`
}

// Order is one entry of the ledger. Items are a frozen snapshot of the
// cart at creation time; Status is the only field mutated afterwards.
type Order struct {
	ID             string            `json:"id" validate:"required"`
	Date           time.Time         `json:"date"`
	CustomerEmail  string            `json:"customer_email,omitempty"`
	CustomerName   string            `json:"customer_name,omitempty"`
	SessionID      string            `json:"session_id,omitempty"`
	Items          []CartLine        `json:"items" validate:"required,min=1,dive"`
	Subtotal       float64           `json:"subtotal"`
	DiscountAmount float64           `json:"discount_amount"`
	ShippingFee    float64           `json:"shipping_fee"`
	Tax            float64           `json:"tax"`
	Total          float64           `json:"total"`
	Status         enums.OrderStatus `json:"status" validate:"required"`
	Address        Address           `json:"address"`
	PaymentMethod  string            `json:"payment_method,omitempty"`
}

// Ledger is the persisted order collection, newest first.
type Ledger []Order
