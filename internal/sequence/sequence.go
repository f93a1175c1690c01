package sequence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of pgx execution both the pool and a transaction satisfy.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Counter allocates monotonically increasing order numbers from a single
// persisted row. Allocation happens inside one UPDATE so concurrent callers
// can never observe a duplicate.
type Counter struct {
	Pool *pgxpool.Pool
}

// Next increments the counter and returns the allocated order number.
func (c Counter) Next(ctx context.Context) (int64, error) {
	if c.Pool == nil {
		return 0, errors.New("sequence: pool not configured")
	}
	return next(ctx, c.Pool)
}

// NextTx allocates an order number inside the caller's transaction so the
// allocation commits or rolls back together with the order itself.
func (c Counter) NextTx(ctx context.Context, tx pgx.Tx) (int64, error) {
	return next(ctx, tx)
}

// Peek returns the order number the next allocation would produce without
// consuming it.
func (c Counter) Peek(ctx context.Context) (int64, error) {
	if c.Pool == nil {
		return 0, errors.New("sequence: pool not configured")
	}
	var last int64
	err := c.Pool.QueryRow(ctx, `SELECT last_number FROM order_counter WHERE id = 1`).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("sequence: peek: %w", err)
	}
	return last + 1, nil
}

func next(ctx context.Context, db DB) (int64, error) {
	var n int64
	err := db.QueryRow(ctx, `UPDATE order_counter SET last_number = last_number + 1 WHERE id = 1 RETURNING last_number`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sequence: next: %w", err)
	}
	return n, nil
}
