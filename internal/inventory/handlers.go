package inventory

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/shinwari-dera/backend-pos/internal/common"
)

// Handler exposes inventory ledger endpoints.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

type createItemRequest struct {
	Name      string  `json:"name" validate:"required"`
	Unit      string  `json:"unit" validate:"required"`
	Category  string  `json:"category"`
	Quantity  float64 `json:"quantity" validate:"gte=0"`
	Threshold float64 `json:"threshold" validate:"gte=0"`
	CostPrice float64 `json:"costPrice" validate:"gte=0"`
}

type purchaseRequest struct {
	Supplier string `json:"supplier" validate:"required"`
	Items    []struct {
		InventoryItemID string  `json:"inventoryItemId" validate:"required"`
		Quantity        float64 `json:"quantity" validate:"gte=0"`
		Cost            float64 `json:"cost" validate:"gte=0"`
	} `json:"items" validate:"required,min=1,dive"`
}

type adjustRequest struct {
	Quantity float64 `json:"quantity"`
	Reason   string  `json:"reason" validate:"required"`
}

// List handles GET /api/v1/inventory.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListItems(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items})
}

// Get handles GET /api/v1/inventory/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Service.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item, "lowStock": item.IsLowStock()})
}

// LowStock handles GET /api/v1/inventory/low-stock.
func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.LowStockItems(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items})
}

// Create handles POST /api/v1/inventory.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", "validation failed", err.Error())
			return
		}
	}
	item, err := h.Service.CreateItem(r.Context(), Item{
		Name:      req.Name,
		Unit:      req.Unit,
		Category:  req.Category,
		Quantity:  req.Quantity,
		Threshold: req.Threshold,
		CostPrice: req.CostPrice,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": item})
}

// Transactions handles GET /api/v1/inventory/transactions?itemId=&limit=.
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	itemID := r.URL.Query().Get("itemId")
	limit := common.AtoiDefault(r.URL.Query().Get("limit"), 100)
	txns, err := h.Service.ListTransactions(r.Context(), itemID, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": txns})
}

// Purchases handles GET /api/v1/inventory/purchases.
func (h *Handler) Purchases(w http.ResponseWriter, r *http.Request) {
	limit := common.AtoiDefault(r.URL.Query().Get("limit"), 100)
	purchases, err := h.Service.ListPurchases(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": purchases})
}

// RecordPurchase handles POST /api/v1/inventory/purchases.
func (h *Handler) RecordPurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", "validation failed", err.Error())
			return
		}
	}
	lines := make([]PurchaseLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, PurchaseLine{InventoryItemID: it.InventoryItemID, Quantity: it.Quantity, Cost: it.Cost})
	}
	result, err := h.Service.RecordPurchase(r.Context(), req.Supplier, lines)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": result})
}

// Adjust handles POST /api/v1/inventory/{id}/adjust.
func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", "validation failed", err.Error())
			return
		}
	}
	item, err := h.Service.AdjustStock(r.Context(), chi.URLParam(r, "id"), req.Quantity, req.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrItemNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "inventory item not found", nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", err.Error(), nil)
	case errors.Is(err, ErrUnauthorized):
		common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "stock adjustment requires authorization", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
