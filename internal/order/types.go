package order

import (
	"time"

	"github.com/shinwari-dera/backend-pos/internal/pricing"
)

// Status is the lifecycle state of an order ticket.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPreparing Status = "PREPARING"
	StatusReady     Status = "READY"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
	StatusHeld      Status = "HELD"
)

// LineItem is one priced line of an order, denormalized from the menu at the
// time of sale so later catalog edits never change a past ticket.
type LineItem struct {
	MenuItemID    string   `json:"menuItemId"`
	Name          string   `json:"name"`
	Station       string   `json:"station,omitempty"`
	VariationID   string   `json:"variationId,omitempty"`
	VariationName string   `json:"variationName,omitempty"`
	Addons        []string `json:"addons,omitempty"`
	UnitPrice     float64  `json:"unitPrice"`
	Quantity      int      `json:"quantity"`
	LineTotal     float64  `json:"lineTotal"`
	Notes         string   `json:"notes,omitempty"`
}

// Order is a persisted ticket with its full monetary breakdown.
type Order struct {
	ID            string               `json:"id"`
	OrderNumber   int64                `json:"orderNumber"`
	Type          pricing.OrderType    `json:"type"`
	Status        Status               `json:"status"`
	TableNumber   string               `json:"tableNumber,omitempty"`
	CustomerName  string               `json:"customerName,omitempty"`
	CustomerPhone string               `json:"customerPhone,omitempty"`
	Items         []LineItem           `json:"items"`
	DiscountKind  pricing.DiscountKind `json:"discountKind,omitempty"`
	DiscountValue float64              `json:"discountValue,omitempty"`
	Subtotal      float64              `json:"subtotal"`
	Discount      float64              `json:"discount"`
	Tax           float64              `json:"tax"`
	ServiceCharge float64              `json:"serviceCharge"`
	Total         float64              `json:"total"`
	PaymentMethod string               `json:"paymentMethod,omitempty"`
	Notes         string               `json:"notes,omitempty"`
	CreatedBy     string               `json:"createdBy,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}
