package expense

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shinwari-dera/backend-pos/internal/common"
)

// Handler exposes expense endpoints.
type Handler struct {
	Service *Service
}

// Record handles POST /api/v1/expenses.
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	var e Expense
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json payload", nil)
		return
	}
	created, err := h.Service.Record(r.Context(), e)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// List handles GET /api/v1/expenses?from=&to=&category=&limit=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	from, ok := parseDate(w, r.URL.Query().Get("from"))
	if !ok {
		return
	}
	to, ok := parseDate(w, r.URL.Query().Get("to"))
	if !ok {
		return
	}
	expenses, err := h.Service.List(r.Context(), from, to,
		Category(r.URL.Query().Get("category")),
		common.AtoiDefault(r.URL.Query().Get("limit"), 100))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": expenses})
}

func parseDate(w http.ResponseWriter, value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, true
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", "dates must be YYYY-MM-DD", nil)
		return time.Time{}, false
	}
	return t, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "expense not found", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
