package inventory

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/shinwari-dera/backend-pos/internal/menu"
)

type recipeBook map[string]menu.Item

func (r recipeBook) Get(_ context.Context, id string) (menu.Item, error) {
	item, ok := r[id]
	if !ok {
		return menu.Item{}, menu.ErrItemNotFound
	}
	return item, nil
}

func newDeductor(store Store, recipes recipeBook) *Deductor {
	return &Deductor{
		Ledger: newLedger(store, allowAll{}),
		Menu:   recipes,
		Log:    zerolog.Nop(),
	}
}

func TestDeductExpandsRecipes(t *testing.T) {
	store := newMemStore(
		Item{ID: "flour", Quantity: 10},
		Item{ID: "cheese", Quantity: 5},
	)
	recipes := recipeBook{
		"pizza": {ID: "pizza", Name: "Pizza", Recipe: []menu.Ingredient{
			{InventoryItemID: "flour", Quantity: 0.5},
			{InventoryItemID: "cheese", Quantity: 0.2},
		}},
	}
	d := newDeductor(store, recipes)

	err := d.Deduct(context.Background(), []SoldLine{
		{MenuItemID: "pizza", Quantity: 2, OrderID: "order-7"},
	})
	require.NoError(t, err)

	require.Equal(t, 9.0, store.items["flour"].Quantity)
	require.InDelta(t, 4.6, store.items["cheese"].Quantity, 1e-9)
	require.Len(t, store.txns, 2)
	for _, txn := range store.txns {
		require.Equal(t, TransactionSale, txn.Type)
		require.Equal(t, "order-7", txn.ReferenceID)
	}
}

func TestDeductRedeliveryDoesNotDoubleDeduct(t *testing.T) {
	store := newMemStore(Item{ID: "flour", Quantity: 10})
	recipes := recipeBook{
		"naan": {ID: "naan", Name: "Naan", Recipe: []menu.Ingredient{
			{InventoryItemID: "flour", Quantity: 0.25},
		}},
	}
	d := newDeductor(store, recipes)
	lines := []SoldLine{{MenuItemID: "naan", Quantity: 4, OrderID: "order-12"}}

	require.NoError(t, d.Deduct(context.Background(), lines))
	require.Equal(t, 9.0, store.items["flour"].Quantity)
	require.Len(t, store.txns, 1)

	// A redelivered task replays the same order; stock must not move again.
	require.NoError(t, d.Deduct(context.Background(), lines))
	require.Equal(t, 9.0, store.items["flour"].Quantity)
	require.Len(t, store.txns, 1)
}

func TestDeductMissingMenuItemLeavesStockUntouched(t *testing.T) {
	store := newMemStore(Item{ID: "flour", Quantity: 10})
	recipes := recipeBook{
		"naan": {ID: "naan", Name: "Naan", Recipe: []menu.Ingredient{
			{InventoryItemID: "flour", Quantity: 0.25},
		}},
	}
	d := newDeductor(store, recipes)

	err := d.Deduct(context.Background(), []SoldLine{
		{MenuItemID: "naan", Quantity: 1, OrderID: "order-3"},
		{MenuItemID: "ghost", Quantity: 1, OrderID: "order-3"},
	})
	require.ErrorIs(t, err, menu.ErrItemNotFound)
	require.Equal(t, 10.0, store.items["flour"].Quantity)
	require.Empty(t, store.txns)
}

func TestDeductAggregatesSharedIngredients(t *testing.T) {
	store := newMemStore(Item{ID: "flour", Quantity: 10})
	recipes := recipeBook{
		"naan":  {ID: "naan", Name: "Naan", Recipe: []menu.Ingredient{{InventoryItemID: "flour", Quantity: 0.25}}},
		"pizza": {ID: "pizza", Name: "Pizza", Recipe: []menu.Ingredient{{InventoryItemID: "flour", Quantity: 0.5}}},
	}
	d := newDeductor(store, recipes)

	err := d.Deduct(context.Background(), []SoldLine{
		{MenuItemID: "naan", Quantity: 2, OrderID: "order-5"},
		{MenuItemID: "pizza", Quantity: 1, OrderID: "order-5"},
	})
	require.NoError(t, err)

	// One SALE per ingredient per order, so a replay skip can cover it fully.
	require.Len(t, store.txns, 1)
	require.Equal(t, -1.0, store.txns[0].QuantityChange)
	require.Equal(t, 9.0, store.items["flour"].Quantity)
}
