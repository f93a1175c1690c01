package menu

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/shinwari-dera/backend-pos/internal/common"
)

// Handler exposes menu catalog endpoints.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

type saveItemRequest struct {
	ID           string       `json:"id"`
	Name         string       `json:"name" validate:"required"`
	UrduName     string       `json:"urduName"`
	Description  string       `json:"description"`
	Price        float64      `json:"price" validate:"gte=0"`
	Category     string       `json:"category" validate:"required"`
	Station      string       `json:"station"`
	SKU          string       `json:"sku"`
	Available    bool         `json:"available"`
	IsSpicy      bool         `json:"isSpicy"`
	IsBestseller bool         `json:"isBestseller"`
	IsVegetarian bool         `json:"isVegetarian"`
	PrepTimeMin  int          `json:"prepTimeMin" validate:"gte=0"`
	Variations   []Variation  `json:"variations" validate:"dive"`
	Addons       []Addon      `json:"addons" validate:"dive"`
	Recipe       []Ingredient `json:"recipe" validate:"dive"`
}

// List handles GET /api/v1/menu.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items})
}

// Get handles GET /api/v1/menu/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

// Save handles POST /api/v1/menu (create or update).
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveItemRequest
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
	item, err := h.Service.Save(r.Context(), Item{
		ID:           req.ID,
		Name:         req.Name,
		UrduName:     req.UrduName,
		Description:  req.Description,
		Price:        req.Price,
		Category:     req.Category,
		Station:      req.Station,
		SKU:          req.SKU,
		Available:    req.Available,
		IsSpicy:      req.IsSpicy,
		IsBestseller: req.IsBestseller,
		IsVegetarian: req.IsVegetarian,
		PrepTimeMin:  req.PrepTimeMin,
		Variations:   req.Variations,
		Addons:       req.Addons,
		Recipe:       req.Recipe,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

// SetAvailability handles PATCH /api/v1/menu/{id}/availability.
func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Available bool `json:"available"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json payload", nil)
		return
	}
	if err := h.Service.SetAvailability(r.Context(), chi.URLParam(r, "id"), req.Available); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]bool{"available": req.Available}})
}

// Categories handles GET /api/v1/menu/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Service.Categories(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cats})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrItemNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "menu item not found", nil)
	default:
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
