package reports

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shinwari-dera/backend-pos/internal/common"
)

// Handler exposes report read and export endpoints.
type Handler struct {
	Svc *Service
}

// Sales handles GET /api/v1/reports/sales?from=&to=.
func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	rows, err := h.Svc.SalesRange(r.Context(), from, to)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "REPORTS_ERROR", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// TopItems handles GET /api/v1/reports/top-items?from=&to=&limit=.
func (h *Handler) TopItems(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	limit := common.AtoiDefault(r.URL.Query().Get("limit"), 10)
	rows, err := h.Svc.TopItems(r.Context(), from, to, limit)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "REPORTS_ERROR", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// Expenses handles GET /api/v1/reports/expenses?from=&to=.
func (h *Handler) Expenses(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	rows, err := h.Svc.ExpenseSummary(r.Context(), from, to)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "REPORTS_ERROR", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// ExportSalesCSV handles GET /api/v1/reports/sales/export and streams the
// daily sales summary as a CSV attachment.
func (h *Handler) ExportSalesCSV(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	rows, err := h.Svc.SalesRange(r.Context(), from, to)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "REPORTS_ERROR", err.Error(), nil)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="sales.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"date", "orders", "gross", "discount", "tax", "service_charge", "net"})
	for _, d := range rows {
		_ = cw.Write([]string{
			d.Date,
			strconv.FormatInt(d.Orders, 10),
			formatAmount(d.Gross),
			formatAmount(d.Discount),
			formatAmount(d.Tax),
			formatAmount(d.ServiceCharge),
			formatAmount(d.Net),
		})
	}
	cw.Flush()
}

// ExportExpensesCSV handles GET /api/v1/reports/expenses/export.
func (h *Handler) ExportExpensesCSV(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	rows, err := h.Svc.ExpenseSummary(r.Context(), from, to)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "REPORTS_ERROR", err.Error(), nil)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="expenses.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"category", "total"})
	for _, e := range rows {
		_ = cw.Write([]string{e.Category, formatAmount(e.Total)})
	}
	cw.Flush()
}

func (h *Handler) parseRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "REPORTS_NOT_CONFIGURED", "reports service not configured", nil)
		return time.Time{}, time.Time{}, false
	}
	query := r.URL.Query()
	var from, to time.Time
	var err error
	if raw := query.Get("from"); raw != "" {
		from, err = time.Parse("2006-01-02", raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid from date", nil)
			return time.Time{}, time.Time{}, false
		}
	}
	if raw := query.Get("to"); raw != "" {
		to, err = time.Parse("2006-01-02", raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid to date", nil)
			return time.Time{}, time.Time{}, false
		}
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "from must be before to", nil)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
