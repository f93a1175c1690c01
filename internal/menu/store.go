package menu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists menu items in Postgres. Variations, addons, and recipes are
// stored as JSONB alongside the scalar columns.
type Store struct {
	Pool *pgxpool.Pool
}

const itemColumns = `id, name, urdu_name, description, price, category, station, sku,
available, is_spicy, is_bestseller, is_vegetarian, prep_time_min,
variations, addons, recipe`

// List returns all menu items ordered by category then name.
func (s Store) List(ctx context.Context) ([]Item, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+itemColumns+` FROM menu_items ORDER BY category, name`)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// Get returns a single menu item by id.
func (s Store) Get(ctx context.Context, id string) (Item, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM menu_items WHERE id = $1`, id)
	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	return item, err
}

// Upsert inserts or updates a menu item. A blank id allocates a new one.
func (s Store) Upsert(ctx context.Context, item Item) (Item, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	variations, addons, recipe, err := encodeJSONFields(item)
	if err != nil {
		return Item{}, err
	}
	_, err = s.Pool.Exec(ctx, `
INSERT INTO menu_items (id, name, urdu_name, description, price, category, station, sku,
  available, is_spicy, is_bestseller, is_vegetarian, prep_time_min,
  variations, addons, recipe, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
ON CONFLICT (id) DO UPDATE SET
  name = EXCLUDED.name, urdu_name = EXCLUDED.urdu_name, description = EXCLUDED.description,
  price = EXCLUDED.price, category = EXCLUDED.category, station = EXCLUDED.station,
  sku = EXCLUDED.sku, available = EXCLUDED.available, is_spicy = EXCLUDED.is_spicy,
  is_bestseller = EXCLUDED.is_bestseller, is_vegetarian = EXCLUDED.is_vegetarian,
  prep_time_min = EXCLUDED.prep_time_min, variations = EXCLUDED.variations,
  addons = EXCLUDED.addons, recipe = EXCLUDED.recipe, updated_at = EXCLUDED.updated_at`,
		item.ID, item.Name, item.UrduName, item.Description, item.Price, item.Category,
		item.Station, item.SKU, item.Available, item.IsSpicy, item.IsBestseller,
		item.IsVegetarian, item.PrepTimeMin, variations, addons, recipe, time.Now().UTC())
	if err != nil {
		return Item{}, fmt.Errorf("upsert menu item: %w", err)
	}
	return item, nil
}

// SetAvailability toggles whether the item can be sold.
func (s Store) SetAvailability(ctx context.Context, id string, available bool) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE menu_items SET available = $2, updated_at = now() WHERE id = $1`, id, available)
	if err != nil {
		return fmt.Errorf("set availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// ListCategories returns the distinct categories currently in use.
func (s Store) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.Pool.Query(ctx, `SELECT DISTINCT category FROM menu_items ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func encodeJSONFields(item Item) (variations, addons, recipe []byte, err error) {
	if variations, err = json.Marshal(item.Variations); err != nil {
		return nil, nil, nil, fmt.Errorf("encode variations: %w", err)
	}
	if addons, err = json.Marshal(item.Addons); err != nil {
		return nil, nil, nil, fmt.Errorf("encode addons: %w", err)
	}
	if recipe, err = json.Marshal(item.Recipe); err != nil {
		return nil, nil, nil, fmt.Errorf("encode recipe: %w", err)
	}
	return variations, addons, recipe, nil
}

func scanItems(rows pgx.Rows) ([]Item, error) {
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

func scanItem(row pgx.Row) (Item, error) {
	var (
		item                       Item
		variations, addons, recipe []byte
	)
	if err := row.Scan(&item.ID, &item.Name, &item.UrduName, &item.Description, &item.Price,
		&item.Category, &item.Station, &item.SKU, &item.Available, &item.IsSpicy,
		&item.IsBestseller, &item.IsVegetarian, &item.PrepTimeMin,
		&variations, &addons, &recipe); err != nil {
		return Item{}, err
	}
	if err := decodeJSONField(variations, &item.Variations); err != nil {
		return Item{}, err
	}
	if err := decodeJSONField(addons, &item.Addons); err != nil {
		return Item{}, err
	}
	if err := decodeJSONField(recipe, &item.Recipe); err != nil {
		return Item{}, err
	}
	return item, nil
}

func decodeJSONField(data []byte, dst any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}
