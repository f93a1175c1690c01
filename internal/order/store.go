package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shinwari-dera/backend-pos/internal/pricing"
	"github.com/shinwari-dera/backend-pos/internal/sequence"
)

// PGStore is the Postgres-backed order store. Order creation and number
// allocation run inside one transaction.
type PGStore struct {
	Pool    *pgxpool.Pool
	Counter sequence.Counter
}

func (s *PGStore) Create(ctx context.Context, o Order) (Order, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return Order{}, fmt.Errorf("order: marshal items: %w", err)
	}
	var out Order
	err = pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		number, err := s.Counter.NextTx(ctx, tx)
		if err != nil {
			return err
		}
		row := tx.QueryRow(ctx, `
			INSERT INTO orders (
				order_number, type, status, table_number, customer_name, customer_phone,
				items, discount_kind, discount_value, subtotal, discount, tax,
				service_charge, total, payment_method, notes, created_by
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
			RETURNING id, created_at, updated_at`,
			number, string(o.Type), string(o.Status), o.TableNumber, o.CustomerName, o.CustomerPhone,
			items, string(o.DiscountKind), o.DiscountValue, o.Subtotal, o.Discount, o.Tax,
			o.ServiceCharge, o.Total, o.PaymentMethod, o.Notes, nullable(o.CreatedBy),
		)
		out = o
		out.OrderNumber = number
		return row.Scan(&out.ID, &out.CreatedAt, &out.UpdatedAt)
	})
	if err != nil {
		return Order{}, fmt.Errorf("order: create: %w", err)
	}
	return out, nil
}

func (s *PGStore) Get(ctx context.Context, id string) (Order, error) {
	row := s.Pool.QueryRow(ctx, selectOrder+` WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("order: get: %w", err)
	}
	return o, nil
}

func (s *PGStore) List(ctx context.Context, f ListFilter) ([]Order, error) {
	query := selectOrder + ` WHERE 1=1`
	args := []any{}
	if f.Status != "" {
		args = append(args, string(f.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Type != "" {
		args = append(args, string(f.Type))
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	args = append(args, f.Limit)
	query += fmt.Sprintf(" ORDER BY order_number DESC LIMIT $%d", len(args))

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("order: list: %w", err)
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("order: list scan: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *PGStore) UpdateStatus(ctx context.Context, id string, status Status) (Order, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns, id, string(status))
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("order: update status: %w", err)
	}
	return o, nil
}

const orderColumns = `id, order_number, type, status, table_number, customer_name, customer_phone,
	items, discount_kind, discount_value, subtotal, discount, tax,
	service_charge, total, payment_method, notes, COALESCE(created_by, ''), created_at, updated_at`

const selectOrder = `SELECT ` + orderColumns + ` FROM orders`

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o            Order
		typ, status  string
		discountKind string
		items        []byte
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &typ, &status, &o.TableNumber, &o.CustomerName, &o.CustomerPhone,
		&items, &discountKind, &o.DiscountValue, &o.Subtotal, &o.Discount, &o.Tax,
		&o.ServiceCharge, &o.Total, &o.PaymentMethod, &o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return Order{}, err
	}
	o.Type = pricing.OrderType(typ)
	o.Status = Status(status)
	o.DiscountKind = pricing.DiscountKind(discountKind)
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return Order{}, fmt.Errorf("decode items: %w", err)
		}
	}
	return o, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
