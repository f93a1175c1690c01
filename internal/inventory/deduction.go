package inventory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/shinwari-dera/backend-pos/internal/menu"
	"github.com/shinwari-dera/backend-pos/internal/obs"
)

// RecipeSource resolves a menu item so its recipe can be expanded into
// ingredient deductions.
type RecipeSource interface {
	Get(ctx context.Context, id string) (menu.Item, error)
}

// SoldLine is one order line handed to the deductor after an order completes.
type SoldLine struct {
	MenuItemID string  `json:"menuItemId"`
	Quantity   int     `json:"quantity"`
	OrderID    string  `json:"orderId"`
	UnitPrice  float64 `json:"unitPrice"`
}

// Deductor converts completed order lines into SALE stock transactions by
// expanding each menu item's recipe. Lines whose menu item has no recipe are
// ignored; a missing menu item fails the whole batch before any stock is
// touched so the task can retry cleanly. Each SALE references the order id,
// and ingredients already deducted for that order are skipped, so a
// redelivered task never deducts twice.
type Deductor struct {
	Ledger *Service
	Menu   RecipeSource
	Log    zerolog.Logger
}

// deduction is one resolved ingredient draw, aggregated per order and item.
type deduction struct {
	orderID  string
	itemID   string
	quantity float64
	menuName string
}

func (d *Deductor) Deduct(ctx context.Context, lines []SoldLine) error {
	deductions, err := d.resolve(ctx, lines)
	if err != nil {
		d.countTask("error")
		return err
	}

	applied := map[string]map[string]struct{}{}
	for _, ded := range deductions {
		seen, ok := applied[ded.orderID]
		if !ok {
			seen, err = d.Ledger.AppliedSaleItems(ctx, ded.orderID)
			if err != nil {
				d.countTask("error")
				return fmt.Errorf("check applied deductions for order %s: %w", ded.orderID, err)
			}
			applied[ded.orderID] = seen
		}
		if _, done := seen[ded.itemID]; done {
			d.Log.Debug().
				Str("inventory_item_id", ded.itemID).
				Str("order_id", ded.orderID).
				Msg("deduction already recorded, skipping")
			continue
		}
		if _, err := d.Ledger.RecordSale(ctx, ded.itemID, ded.quantity, ded.orderID); err != nil {
			d.countTask("error")
			return fmt.Errorf("deduct %s for order %s: %w", ded.itemID, ded.orderID, err)
		}
		seen[ded.itemID] = struct{}{}
		d.Log.Debug().
			Str("inventory_item_id", ded.itemID).
			Str("order_id", ded.orderID).
			Str("menu_item", ded.menuName).
			Float64("quantity", ded.quantity).
			Msg("recipe deduction applied")
	}
	d.countTask("ok")
	return nil
}

// resolve expands every line's recipe before anything is written, so a menu
// lookup failure on a later line cannot leave the batch half applied. Draws
// for the same ingredient within an order collapse into one deduction.
func (d *Deductor) resolve(ctx context.Context, lines []SoldLine) ([]deduction, error) {
	var resolved []deduction
	index := map[string]int{}
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		item, err := d.Menu.Get(ctx, line.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("resolve menu item %s: %w", line.MenuItemID, err)
		}
		for _, ing := range item.Recipe {
			qty := ing.Quantity * float64(line.Quantity)
			if qty <= 0 {
				continue
			}
			key := line.OrderID + "|" + ing.InventoryItemID
			if i, ok := index[key]; ok {
				resolved[i].quantity += qty
				continue
			}
			index[key] = len(resolved)
			resolved = append(resolved, deduction{
				orderID:  line.OrderID,
				itemID:   ing.InventoryItemID,
				quantity: qty,
				menuName: item.Name,
			})
		}
	}
	return resolved, nil
}

func (d *Deductor) countTask(status string) {
	if obs.DeductionTasksTotal != nil {
		obs.DeductionTasksTotal.WithLabelValues(status).Inc()
	}
}
