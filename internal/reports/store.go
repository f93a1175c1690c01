package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore aggregates reports straight from the orders and expenses tables.
// Volumes at a single restaurant stay small enough that materialized views
// are not worth their refresh plumbing.
type PGStore struct {
	Pool *pgxpool.Pool
}

func (s *PGStore) SalesDailyRange(ctx context.Context, from, to time.Time) ([]SalesDay, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT to_char(created_at::date, 'YYYY-MM-DD') AS day,
			COUNT(*),
			COALESCE(SUM(subtotal), 0),
			COALESCE(SUM(discount), 0),
			COALESCE(SUM(tax), 0),
			COALESCE(SUM(service_charge), 0),
			COALESCE(SUM(total), 0)
		FROM orders
		WHERE status = 'COMPLETED' AND created_at >= $1 AND created_at < $2
		GROUP BY day
		ORDER BY day`, from, to)
	if err != nil {
		return nil, fmt.Errorf("reports: sales range: %w", err)
	}
	defer rows.Close()
	var out []SalesDay
	for rows.Next() {
		var d SalesDay
		if err := rows.Scan(&d.Date, &d.Orders, &d.Gross, &d.Discount, &d.Tax, &d.ServiceCharge, &d.Net); err != nil {
			return nil, fmt.Errorf("reports: sales scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PGStore) TopItems(ctx context.Context, from, to time.Time, limit int) ([]TopItem, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT item->>'menuItemId',
			MAX(item->>'name'),
			SUM((item->>'quantity')::bigint),
			SUM((item->>'lineTotal')::numeric)::float8
		FROM orders, jsonb_array_elements(items) AS item
		WHERE status = 'COMPLETED' AND created_at >= $1 AND created_at < $2
		GROUP BY item->>'menuItemId'
		ORDER BY SUM((item->>'quantity')::bigint) DESC
		LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("reports: top items: %w", err)
	}
	defer rows.Close()
	var out []TopItem
	for rows.Next() {
		var t TopItem
		if err := rows.Scan(&t.MenuItemID, &t.Name, &t.QuantitySold, &t.Revenue); err != nil {
			return nil, fmt.Errorf("reports: top items scan: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PGStore) ExpenseTotals(ctx context.Context, from, to time.Time) ([]ExpenseTotal, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT category, COALESCE(SUM(amount), 0)
		FROM expenses
		WHERE date >= $1 AND date < $2
		GROUP BY category
		ORDER BY SUM(amount) DESC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("reports: expense totals: %w", err)
	}
	defer rows.Close()
	var out []ExpenseTotal
	for rows.Next() {
		var e ExpenseTotal
		if err := rows.Scan(&e.Category, &e.Total); err != nil {
			return nil, fmt.Errorf("reports: expense scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
