package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore implements Store on Postgres. Every mutating call runs inside one
// transaction so quantity updates and ledger appends commit together.
type PGStore struct {
	Pool *pgxpool.Pool
}

// GetItem returns the item or ErrItemNotFound.
func (s PGStore) GetItem(ctx context.Context, id string) (Item, error) {
	row := s.Pool.QueryRow(ctx, `
SELECT id, name, unit, category, quantity, threshold, cost_price, updated_at
FROM inventory_items WHERE id = $1`, id)
	return scanItem(row)
}

// ListItems returns all items ordered by name.
func (s PGStore) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT id, name, unit, category, quantity, threshold, cost_price, updated_at
FROM inventory_items ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()
	var out []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ListTransactions returns ledger entries newest first, optionally scoped to
// one item.
func (s PGStore) ListTransactions(ctx context.Context, itemID string, limit int) ([]Transaction, error) {
	query := `
SELECT id, inventory_item_id, type, quantity_change, date, reason, reference_id
FROM stock_transactions`
	args := []any{}
	if itemID != "" {
		query += ` WHERE inventory_item_id = $1 ORDER BY date DESC LIMIT $2`
		args = append(args, itemID, limit)
	} else {
		query += ` ORDER BY date DESC LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.InventoryItemID, &t.Type, &t.QuantityChange, &t.Date, &t.Reason, &t.ReferenceID); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateItem inserts a new inventory item.
func (s PGStore) CreateItem(ctx context.Context, item Item) (Item, error) {
	_, err := s.Pool.Exec(ctx, `
INSERT INTO inventory_items (id, name, unit, category, quantity, threshold, cost_price, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		item.ID, item.Name, item.Unit, item.Category, item.Quantity, item.Threshold, item.CostPrice, item.UpdatedAt)
	if err != nil {
		return Item{}, fmt.Errorf("create inventory item: %w", err)
	}
	return item, nil
}

// ListPurchases returns purchase records newest first.
func (s PGStore) ListPurchases(ctx context.Context, limit int) ([]Purchase, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT id, date, supplier, items, total_cost FROM purchases ORDER BY date DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()
	var out []Purchase
	for rows.Next() {
		var (
			p     Purchase
			lines []byte
		)
		if err := rows.Scan(&p.ID, &p.Date, &p.Supplier, &lines, &p.TotalCost); err != nil {
			return nil, err
		}
		if len(lines) > 0 {
			if err := json.Unmarshal(lines, &p.Items); err != nil {
				return nil, fmt.Errorf("decode purchase lines: %w", err)
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ApplyPurchase persists the purchase, item updates, and ledger appends in a
// single transaction.
func (s PGStore) ApplyPurchase(ctx context.Context, purchase Purchase, items []Item, txns []Transaction) error {
	return pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		lines, err := json.Marshal(purchase.Items)
		if err != nil {
			return fmt.Errorf("encode purchase lines: %w", err)
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO purchases (id, date, supplier, items, total_cost)
VALUES ($1,$2,$3,$4,$5)`,
			purchase.ID, purchase.Date, purchase.Supplier, lines, purchase.TotalCost); err != nil {
			return fmt.Errorf("insert purchase: %w", err)
		}
		for _, item := range items {
			if err := updateItemTx(ctx, tx, item); err != nil {
				return err
			}
		}
		for _, txn := range txns {
			if err := insertTransactionTx(ctx, tx, txn); err != nil {
				return err
			}
		}
		return nil
	})
}

// ApplyChange persists one item update paired with exactly one ledger append.
func (s PGStore) ApplyChange(ctx context.Context, item Item, txn Transaction) error {
	return pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		if err := updateItemTx(ctx, tx, item); err != nil {
			return err
		}
		return insertTransactionTx(ctx, tx, txn)
	})
}

// SaleItemIDs returns item ids with an existing SALE transaction for the
// reference.
func (s PGStore) SaleItemIDs(ctx context.Context, referenceID string) (map[string]struct{}, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT DISTINCT inventory_item_id
FROM stock_transactions
WHERE type = $1 AND reference_id = $2`, TransactionSale, referenceID)
	if err != nil {
		return nil, fmt.Errorf("list sale references: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func updateItemTx(ctx context.Context, tx pgx.Tx, item Item) error {
	tag, err := tx.Exec(ctx, `
UPDATE inventory_items
SET quantity = $2, cost_price = $3, updated_at = $4
WHERE id = $1`,
		item.ID, item.Quantity, item.CostPrice, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update inventory item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func insertTransactionTx(ctx context.Context, tx pgx.Tx, txn Transaction) error {
	_, err := tx.Exec(ctx, `
INSERT INTO stock_transactions (id, inventory_item_id, type, quantity_change, date, reason, reference_id)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		txn.ID, txn.InventoryItemID, txn.Type, txn.QuantityChange, txn.Date, txn.Reason, txn.ReferenceID)
	if err != nil {
		return fmt.Errorf("append stock transaction: %w", err)
	}
	return nil
}

func scanItem(row pgx.Row) (Item, error) {
	var item Item
	err := row.Scan(&item.ID, &item.Name, &item.Unit, &item.Category, &item.Quantity,
		&item.Threshold, &item.CostPrice, &item.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	if err != nil {
		return Item{}, err
	}
	return item, nil
}
