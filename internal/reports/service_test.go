package reports_test

import (
	"context"
	"encoding/csv"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/shinwari-dera/backend-pos/internal/reports"
)

type stubQuerier struct {
	salesCalls   int
	topCalls     int
	expenseCalls int
}

func (s *stubQuerier) SalesDailyRange(_ context.Context, from, _ time.Time) ([]reports.SalesDay, error) {
	s.salesCalls++
	return []reports.SalesDay{{
		Date: from.Format("2006-01-02"), Orders: 12,
		Gross: 24000, Discount: 1200, Tax: 3648, ServiceCharge: 540, Net: 26988,
	}}, nil
}

func (s *stubQuerier) TopItems(context.Context, time.Time, time.Time, int) ([]reports.TopItem, error) {
	s.topCalls++
	return []reports.TopItem{{MenuItemID: "karahi", Name: "Chicken Karahi", QuantitySold: 40, Revenue: 48000}}, nil
}

func (s *stubQuerier) ExpenseTotals(context.Context, time.Time, time.Time) ([]reports.ExpenseTotal, error) {
	s.expenseCalls++
	return []reports.ExpenseTotal{{Category: "Meat", Total: 9000}}, nil
}

func newCachedService(t *testing.T) (*reports.Service, *stubQuerier) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	q := &stubQuerier{}
	return &reports.Service{Q: q, R: rdb, TTL: time.Minute}, q
}

func TestSalesRangeCached(t *testing.T) {
	svc, q := newCachedService(t)
	from := time.Now().Add(-24 * time.Hour).Truncate(24 * time.Hour)
	to := time.Now().Truncate(24 * time.Hour)

	_, err := svc.SalesRange(context.Background(), from, to)
	require.NoError(t, err)
	_, err = svc.SalesRange(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, 1, q.salesCalls)
}

func TestTopItemsCachedPerLimit(t *testing.T) {
	svc, q := newCachedService(t)
	from := time.Now().AddDate(0, 0, -7)
	to := time.Now()

	_, err := svc.TopItems(context.Background(), from, to, 10)
	require.NoError(t, err)
	_, err = svc.TopItems(context.Background(), from, to, 10)
	require.NoError(t, err)
	require.Equal(t, 1, q.topCalls)

	_, err = svc.TopItems(context.Background(), from, to, 5)
	require.NoError(t, err)
	require.Equal(t, 2, q.topCalls)
}

func TestExpenseSummaryDefaultsRange(t *testing.T) {
	q := &stubQuerier{}
	svc := &reports.Service{Q: q}

	rows, err := svc.ExpenseSummary(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 1, q.expenseCalls)
}

func TestExportSalesCSV(t *testing.T) {
	q := &stubQuerier{}
	h := &reports.Handler{Svc: &reports.Service{Q: q}}

	req := httptest.NewRequest("GET", "/reports/sales/export?from=2026-08-01&to=2026-08-02", nil)
	rec := httptest.NewRecorder()
	h.ExportSalesCSV(rec, req)

	require.Equal(t, 200, rec.Code)
	require.Equal(t, "text/csv", rec.Header().Get("Content-Type"))

	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, []string{"date", "orders", "gross", "discount", "tax", "service_charge", "net"}, records[0])
	require.Equal(t, "2026-08-01", records[1][0])
	require.Equal(t, "24000.00", records[1][2])
}

func TestRangeValidation(t *testing.T) {
	q := &stubQuerier{}
	h := &reports.Handler{Svc: &reports.Service{Q: q}}

	req := httptest.NewRequest("GET", "/reports/sales?from=2026-08-10&to=2026-08-01", nil)
	rec := httptest.NewRecorder()
	h.Sales(rec, req)
	require.Equal(t, 400, rec.Code)

	req = httptest.NewRequest("GET", "/reports/sales?from=bogus", nil)
	rec = httptest.NewRecorder()
	h.Sales(rec, req)
	require.Equal(t, 400, rec.Code)
}
