package inventory

import "time"

// TransactionType classifies a stock ledger entry.
type TransactionType string

const (
	TransactionPurchase   TransactionType = "PURCHASE"
	TransactionSale       TransactionType = "SALE"
	TransactionAdjustment TransactionType = "ADJUSTMENT"
)

// Item is a tracked inventory item. Quantity is a running total that must
// always equal the sum of the item's transaction history.
type Item struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	Category  string    `json:"category,omitempty"`
	Quantity  float64   `json:"quantity"`
	Threshold float64   `json:"threshold"`
	CostPrice float64   `json:"costPrice"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsLowStock reports whether the item sits at or below its threshold. This is
// a derived read-time predicate, never persisted state.
func (i Item) IsLowStock() bool {
	return i.Quantity <= i.Threshold
}

// Transaction is an append-only ledger record. Never mutated or deleted once
// written.
type Transaction struct {
	ID              string          `json:"id"`
	InventoryItemID string          `json:"inventoryItemId"`
	Type            TransactionType `json:"type"`
	QuantityChange  float64         `json:"quantityChange"`
	Date            time.Time       `json:"date"`
	Reason          string          `json:"reason,omitempty"`
	ReferenceID     string          `json:"referenceId,omitempty"`
}

// PurchaseLine is one received line of a supplier purchase. Cost is the total
// cost for the line, not per unit.
type PurchaseLine struct {
	InventoryItemID string  `json:"inventoryItemId"`
	Quantity        float64 `json:"quantity"`
	Cost            float64 `json:"cost"`
}

// Purchase is an immutable record of goods received from a supplier.
type Purchase struct {
	ID        string         `json:"id"`
	Date      time.Time      `json:"date"`
	Supplier  string         `json:"supplier"`
	Items     []PurchaseLine `json:"items"`
	TotalCost float64        `json:"totalCost"`
}
