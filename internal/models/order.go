package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderFlow is the forward-only fulfilment sequence. Cancelled sits outside it.
var OrderFlow = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
}

// AllOrderStatuses lists every status in display order.
var AllOrderStatuses = append(append([]OrderStatus{}, OrderFlow...), OrderStatusCancelled)

func (s OrderStatus) Valid() bool {
	for _, v := range AllOrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition can leave s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Next returns the single forward step from s, if any.
func (s OrderStatus) Next() (OrderStatus, bool) {
	for i, v := range OrderFlow {
		if v == s && i+1 < len(OrderFlow) {
			return OrderFlow[i+1], true
		}
	}
	return "", false
}

// CanTransitionTo allows exactly one step forward, or cancellation from any
// non-terminal status.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.Terminal() || !next.Valid() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	n, ok := s.Next()
	return ok && n == next
}

type ContactChannel string

const (
	ContactWhatsApp ContactChannel = "whatsapp"
	ContactCall     ContactChannel = "call"
)

func (c ContactChannel) Valid() bool {
	return c == ContactWhatsApp || c == ContactCall
}

type Order struct {
	ID               string              `json:"id"`
	SessionID        string              `json:"session_id"`
	ProductID        string              `json:"product_id"`
	ProductName      string              `json:"product_name,omitempty"`      // for display convenience
	ProductImageURL  string              `json:"product_image_url,omitempty"` // for display convenience
	ProductPrice     string              `json:"product_price_range,omitempty"`
	CustomerName     string              `json:"customer_name"`
	CustomerPhone    string              `json:"customer_phone"`
	CustomerAddress  string              `json:"customer_address"`
	PreferredContact ContactChannel      `json:"preferred_contact"`
	Status           OrderStatus         `json:"status"`
	Notes            string              `json:"order_notes,omitempty"`
	TotalAmount      decimal.NullDecimal `json:"total_amount"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// ShortRef is the customer-facing reference, e.g. "AM1A2B3C4D".
func (o Order) ShortRef() string {
	id := o.ID
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return "AM" + strings.ToUpper(id)
}
