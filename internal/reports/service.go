package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// SalesDay is one day's aggregated sales from completed orders.
type SalesDay struct {
	Date          string  `json:"date"`
	Orders        int64   `json:"orders"`
	Gross         float64 `json:"gross"`
	Discount      float64 `json:"discount"`
	Tax           float64 `json:"tax"`
	ServiceCharge float64 `json:"serviceCharge"`
	Net           float64 `json:"net"`
}

// TopItem is one menu item ranked by quantity sold.
type TopItem struct {
	MenuItemID   string  `json:"menuItemId"`
	Name         string  `json:"name"`
	QuantitySold int64   `json:"quantitySold"`
	Revenue      float64 `json:"revenue"`
}

// ExpenseTotal is one expense category's total over a range.
type ExpenseTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// Querier defines the database access required for reporting.
type Querier interface {
	SalesDailyRange(ctx context.Context, from, to time.Time) ([]SalesDay, error)
	TopItems(ctx context.Context, from, to time.Time, limit int) ([]TopItem, error)
	ExpenseTotals(ctx context.Context, from, to time.Time) ([]ExpenseTotal, error)
}

// Service provides cached access to report aggregations.
type Service struct {
	Q   Querier
	R   *redis.Client
	TTL time.Duration
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// SalesRange returns the daily sales summary between from (inclusive) and to
// (exclusive).
func (s *Service) SalesRange(ctx context.Context, from, to time.Time) ([]SalesDay, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("reports service not configured")
	}
	from, to = s.normalizeRange(from, to)
	key := cacheKey("rp", "sales", from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached []SalesDay
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.SalesDailyRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

// TopItems returns the best selling menu items over the range.
func (s *Service) TopItems(ctx context.Context, from, to time.Time, limit int) ([]TopItem, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("reports service not configured")
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	from, to = s.normalizeRange(from, to)
	key := cacheKey("rp", "top", from.Format("2006-01-02"), to.Format("2006-01-02"), limit)
	var cached []TopItem
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.TopItems(ctx, from, to, limit)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

// ExpenseSummary returns per-category expense totals over the range.
func (s *Service) ExpenseSummary(ctx context.Context, from, to time.Time) ([]ExpenseTotal, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("reports service not configured")
	}
	from, to = s.normalizeRange(from, to)
	key := cacheKey("rp", "expenses", from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached []ExpenseTotal
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.ExpenseTotals(ctx, from, to)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

// normalizeRange defaults an open range to the trailing 30 days.
func (s *Service) normalizeRange(from, to time.Time) (time.Time, time.Time) {
	if to.IsZero() {
		to = s.now().Truncate(24 * time.Hour).Add(24 * time.Hour)
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	return from, to
}

func (s *Service) fromCache(ctx context.Context, key string, out any) bool {
	if s.R == nil || s.TTL <= 0 {
		return false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}
