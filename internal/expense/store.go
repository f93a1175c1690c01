package expense

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is the Postgres-backed expense store.
type PGStore struct {
	Pool *pgxpool.Pool
}

func (s *PGStore) Create(ctx context.Context, e Expense) (Expense, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO expenses (category, amount, description, date, staff_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid)
		RETURNING id, created_at`,
		string(e.Category), e.Amount, e.Description, e.Date, e.StaffID)
	out := e
	if err := row.Scan(&out.ID, &out.CreatedAt); err != nil {
		return Expense{}, fmt.Errorf("expense: create: %w", err)
	}
	return out, nil
}

func (s *PGStore) List(ctx context.Context, from, to time.Time, category Category, limit int) ([]Expense, error) {
	query := `
		SELECT id, category, amount, description, date, COALESCE(staff_id::text, ''), created_at
		FROM expenses WHERE 1=1`
	args := []any{}
	if !from.IsZero() {
		args = append(args, from)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += fmt.Sprintf(" AND date < $%d", len(args))
	}
	if category != "" {
		args = append(args, string(category))
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY date DESC LIMIT $%d", len(args))

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("expense: list: %w", err)
	}
	defer rows.Close()
	var out []Expense
	for rows.Next() {
		var e Expense
		var category string
		if err := rows.Scan(&e.ID, &category, &e.Amount, &e.Description, &e.Date, &e.StaffID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("expense: list scan: %w", err)
		}
		e.Category = Category(category)
		out = append(out, e)
	}
	return out, rows.Err()
}
