package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shinwari-dera/backend-pos/internal/events"
	"github.com/shinwari-dera/backend-pos/internal/obs"
)

var (
	// ErrItemNotFound indicates the referenced inventory item does not exist.
	ErrItemNotFound = errors.New("inventory item not found")
	// ErrInvalidInput is returned for rejected input; no state is modified.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when the caller lacks the required
	// capability. Distinct from invalid input.
	ErrUnauthorized = errors.New("unauthorized")
)

// CapabilityAdjustStock gates manual stock adjustments.
const CapabilityAdjustStock = "ADJUST_STOCK"

// Store defines the persistence operations the ledger requires. Mutating
// operations must be atomic: either every row in the call is persisted or
// none are.
type Store interface {
	GetItem(ctx context.Context, id string) (Item, error)
	ListItems(ctx context.Context) ([]Item, error)
	ListTransactions(ctx context.Context, itemID string, limit int) ([]Transaction, error)
	CreateItem(ctx context.Context, item Item) (Item, error)
	ListPurchases(ctx context.Context, limit int) ([]Purchase, error)

	// ApplyPurchase persists the purchase record, item updates, and ledger
	// appends in a single transaction.
	ApplyPurchase(ctx context.Context, purchase Purchase, items []Item, txns []Transaction) error
	// ApplyChange persists one item update paired with exactly one ledger
	// append in a single transaction.
	ApplyChange(ctx context.Context, item Item, txn Transaction) error
	// SaleItemIDs returns the item ids that already carry a SALE transaction
	// for the given reference, so redelivered deductions can be skipped.
	SaleItemIDs(ctx context.Context, referenceID string) (map[string]struct{}, error)
}

// Locker serializes ledger mutations. Satisfied by lock.Locker.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Authorizer is the injected authorization policy. The ledger never inspects
// credentials itself; callers present a capability check.
type Authorizer interface {
	Allow(ctx context.Context, capability string) bool
}

// Publisher receives domain events after successful mutations.
type Publisher interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) error
}

const ledgerLockKey = "inventory:ledger"

// Service maintains inventory quantities consistently with the append-only
// transaction history: every quantity mutation pairs with exactly one ledger
// append in the same logical operation.
type Service struct {
	Store   Store
	Locks   Locker
	Authz   Authorizer
	Events  Publisher
	LockTTL time.Duration
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) withLock(ctx context.Context, fn func(context.Context) error) error {
	if s.Locks == nil {
		return fn(ctx)
	}
	ttl := s.LockTTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return s.Locks.WithLock(ctx, ledgerLockKey, ttl, fn)
}

// PurchaseResult reports the outcome of RecordPurchase, including lines that
// were skipped because their inventory item id was unknown.
type PurchaseResult struct {
	Purchase     Purchase `json:"purchase"`
	SkippedLines []string `json:"skippedLines,omitempty"`
}

// RecordPurchase receives goods from a supplier: for every valid line the
// item quantity grows by the received amount, the cost price is overwritten
// with the line's unit cost (last cost wins, never averaged), and a PURCHASE
// transaction referencing the new purchase is appended. Lines naming an
// unknown item are skipped and reported back as warnings. All valid lines are
// applied in one transaction or none are.
func (s *Service) RecordPurchase(ctx context.Context, supplier string, lines []PurchaseLine) (PurchaseResult, error) {
	if s == nil || s.Store == nil {
		return PurchaseResult{}, errors.New("inventory service not configured")
	}
	supplier = strings.TrimSpace(supplier)
	if supplier == "" {
		return PurchaseResult{}, fmt.Errorf("%w: supplier is required", ErrInvalidInput)
	}
	if len(lines) == 0 {
		return PurchaseResult{}, fmt.Errorf("%w: purchase needs at least one line", ErrInvalidInput)
	}
	for _, line := range lines {
		if line.Quantity < 0 || line.Cost < 0 {
			return PurchaseResult{}, fmt.Errorf("%w: negative quantity or cost", ErrInvalidInput)
		}
	}

	var result PurchaseResult
	err := s.withLock(ctx, func(ctx context.Context) error {
		now := s.now()
		purchase := Purchase{
			ID:       uuid.NewString(),
			Date:     now,
			Supplier: supplier,
			Items:    lines,
		}
		for _, line := range lines {
			purchase.TotalCost += line.Cost
		}

		var (
			items []Item
			txns  []Transaction
		)
		for _, line := range lines {
			if line.Quantity <= 0 {
				continue
			}
			item, err := s.Store.GetItem(ctx, line.InventoryItemID)
			if errors.Is(err, ErrItemNotFound) {
				// Tolerated no-op: the caller may hold a stale item list.
				result.SkippedLines = append(result.SkippedLines, line.InventoryItemID)
				if obs.PurchaseLinesSkipped != nil {
					obs.PurchaseLinesSkipped.Inc()
				}
				continue
			}
			if err != nil {
				return err
			}
			item.Quantity += line.Quantity
			item.CostPrice = line.Cost / line.Quantity
			item.UpdatedAt = now
			items = append(items, item)
			txns = append(txns, Transaction{
				ID:              uuid.NewString(),
				InventoryItemID: item.ID,
				Type:            TransactionPurchase,
				QuantityChange:  line.Quantity,
				Date:            now,
				ReferenceID:     purchase.ID,
			})
		}

		if err := s.Store.ApplyPurchase(ctx, purchase, items, txns); err != nil {
			return err
		}
		if obs.StockTransactionsTotal != nil {
			obs.StockTransactionsTotal.WithLabelValues(string(TransactionPurchase)).Add(float64(len(txns)))
		}
		result.Purchase = purchase
		s.emit(ctx, events.TopicPurchaseRecorded, purchase.ID, map[string]any{
			"supplier":  supplier,
			"totalCost": purchase.TotalCost,
			"lines":     len(txns),
		})
		s.emitLowStock(ctx, items)
		return nil
	})
	if err != nil {
		return PurchaseResult{}, err
	}
	return result, nil
}

// AdjustStock sets an item's quantity to a new absolute value, recording the
// signed difference as an ADJUSTMENT. The target quantity must be
// non-negative and the caller must hold the ADJUST_STOCK capability.
func (s *Service) AdjustStock(ctx context.Context, itemID string, newQuantity float64, reason string) (Item, error) {
	if s == nil || s.Store == nil {
		return Item{}, errors.New("inventory service not configured")
	}
	if s.Authz == nil || !s.Authz.Allow(ctx, CapabilityAdjustStock) {
		return Item{}, ErrUnauthorized
	}
	if newQuantity < 0 {
		return Item{}, fmt.Errorf("%w: target quantity must be non-negative", ErrInvalidInput)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Item{}, fmt.Errorf("%w: adjustment reason is required", ErrInvalidInput)
	}

	var updated Item
	err := s.withLock(ctx, func(ctx context.Context) error {
		item, err := s.Store.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		now := s.now()
		diff := newQuantity - item.Quantity
		item.Quantity = newQuantity
		item.UpdatedAt = now
		txn := Transaction{
			ID:              uuid.NewString(),
			InventoryItemID: item.ID,
			Type:            TransactionAdjustment,
			QuantityChange:  diff,
			Date:            now,
			Reason:          reason,
		}
		if err := s.Store.ApplyChange(ctx, item, txn); err != nil {
			return err
		}
		if obs.StockTransactionsTotal != nil {
			obs.StockTransactionsTotal.WithLabelValues(string(TransactionAdjustment)).Inc()
		}
		updated = item
		s.emit(ctx, events.TopicStockAdjusted, item.ID, map[string]any{
			"quantity": newQuantity,
			"change":   diff,
			"reason":   reason,
		})
		s.emitLowStock(ctx, []Item{item})
		return nil
	})
	if err != nil {
		return Item{}, err
	}
	return updated, nil
}

// RecordSale deducts stock consumed by a completed order. The deduction is
// capped at the current quantity so the running total stays non-negative; the
// ledger entry records the change actually applied.
func (s *Service) RecordSale(ctx context.Context, itemID string, quantity float64, referenceID string) (Item, error) {
	if s == nil || s.Store == nil {
		return Item{}, errors.New("inventory service not configured")
	}
	if quantity <= 0 {
		return Item{}, fmt.Errorf("%w: sale quantity must be positive", ErrInvalidInput)
	}

	var updated Item
	err := s.withLock(ctx, func(ctx context.Context) error {
		item, err := s.Store.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		now := s.now()
		deduct := quantity
		if deduct > item.Quantity {
			deduct = item.Quantity
		}
		item.Quantity -= deduct
		item.UpdatedAt = now
		txn := Transaction{
			ID:              uuid.NewString(),
			InventoryItemID: item.ID,
			Type:            TransactionSale,
			QuantityChange:  -deduct,
			Date:            now,
			ReferenceID:     referenceID,
		}
		if err := s.Store.ApplyChange(ctx, item, txn); err != nil {
			return err
		}
		if obs.StockTransactionsTotal != nil {
			obs.StockTransactionsTotal.WithLabelValues(string(TransactionSale)).Inc()
		}
		updated = item
		s.emitLowStock(ctx, []Item{item})
		return nil
	})
	if err != nil {
		return Item{}, err
	}
	return updated, nil
}

// AppliedSaleItems reports which inventory items already have a SALE
// transaction recorded against the reference. Used to keep task redelivery
// from deducting the same order twice.
func (s *Service) AppliedSaleItems(ctx context.Context, referenceID string) (map[string]struct{}, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("inventory service not configured")
	}
	if strings.TrimSpace(referenceID) == "" {
		return map[string]struct{}{}, nil
	}
	return s.Store.SaleItemIDs(ctx, referenceID)
}

// CreateItem registers a new inventory item. Items are never deleted; history
// outlives the item's day-to-day use.
func (s *Service) CreateItem(ctx context.Context, item Item) (Item, error) {
	if s == nil || s.Store == nil {
		return Item{}, errors.New("inventory service not configured")
	}
	if strings.TrimSpace(item.Name) == "" || strings.TrimSpace(item.Unit) == "" {
		return Item{}, fmt.Errorf("%w: name and unit are required", ErrInvalidInput)
	}
	if item.Quantity < 0 || item.Threshold < 0 || item.CostPrice < 0 {
		return Item{}, fmt.Errorf("%w: negative quantity, threshold, or cost", ErrInvalidInput)
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.UpdatedAt = s.now()
	return s.Store.CreateItem(ctx, item)
}

// GetItem returns one inventory item.
func (s *Service) GetItem(ctx context.Context, id string) (Item, error) {
	if s == nil || s.Store == nil {
		return Item{}, errors.New("inventory service not configured")
	}
	return s.Store.GetItem(ctx, id)
}

// ListItems returns all inventory items.
func (s *Service) ListItems(ctx context.Context) ([]Item, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("inventory service not configured")
	}
	items, err := s.Store.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	if obs.LowStockItems != nil {
		low := 0
		for _, it := range items {
			if it.IsLowStock() {
				low++
			}
		}
		obs.LowStockItems.Set(float64(low))
	}
	return items, nil
}

// LowStockItems returns the items at or below their threshold.
func (s *Service) LowStockItems(ctx context.Context) ([]Item, error) {
	items, err := s.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	var low []Item
	for _, it := range items {
		if it.IsLowStock() {
			low = append(low, it)
		}
	}
	return low, nil
}

// SweepLowStock recounts items at or below threshold so the gauge stays
// fresh even when no API traffic touches the inventory. Returns the count.
func (s *Service) SweepLowStock(ctx context.Context) (int, error) {
	items, err := s.LowStockItems(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// ListTransactions returns ledger entries, newest first, optionally filtered
// by item.
func (s *Service) ListTransactions(ctx context.Context, itemID string, limit int) ([]Transaction, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("inventory service not configured")
	}
	if limit <= 0 {
		limit = 100
	}
	return s.Store.ListTransactions(ctx, itemID, limit)
}

// ListPurchases returns purchase records, newest first.
func (s *Service) ListPurchases(ctx context.Context, limit int) ([]Purchase, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("inventory service not configured")
	}
	if limit <= 0 {
		limit = 100
	}
	return s.Store.ListPurchases(ctx, limit)
}

func (s *Service) emit(ctx context.Context, topic, aggregateID string, payload any) {
	if s.Events == nil {
		return
	}
	_ = s.Events.Emit(ctx, topic, aggregateID, payload)
}

func (s *Service) emitLowStock(ctx context.Context, items []Item) {
	for _, it := range items {
		if it.IsLowStock() {
			s.emit(ctx, events.TopicStockLow, it.ID, map[string]any{
				"name":      it.Name,
				"quantity":  it.Quantity,
				"threshold": it.Threshold,
				"unit":      it.Unit,
			})
		}
	}
}
