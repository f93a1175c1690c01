package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/shinwari-dera/backend-pos/internal/common"
	"github.com/shinwari-dera/backend-pos/internal/events"
	"github.com/shinwari-dera/backend-pos/internal/inventory"
	"github.com/shinwari-dera/backend-pos/internal/menu"
	"github.com/shinwari-dera/backend-pos/internal/obs"
	"github.com/shinwari-dera/backend-pos/internal/pricing"
	"github.com/shinwari-dera/backend-pos/internal/queue"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrInvalidInput      = errors.New("invalid order input")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrItemUnavailable   = errors.New("menu item unavailable")
)

// TaskRecipeDeduction is the queue task kind carrying completed-order lines
// for recipe-based stock deduction.
const TaskRecipeDeduction = "order:recipe-deduction"

// Store persists orders. Create assigns the order number atomically with the
// insert so a committed order can never share a number with another.
type Store interface {
	Create(ctx context.Context, o Order) (Order, error)
	Get(ctx context.Context, id string) (Order, error)
	List(ctx context.Context, f ListFilter) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) (Order, error)
}

// MenuLookup resolves catalog entries at order time.
type MenuLookup interface {
	Get(ctx context.Context, id string) (menu.Item, error)
}

// Publisher receives domain events after successful mutations.
type Publisher interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) error
}

// TaskEnqueuer hands background work to the queue.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, t queue.Task) error
}

// ListFilter narrows order listings.
type ListFilter struct {
	Status Status
	Type   pricing.OrderType
	Limit  int
}

// LineInput is one requested cart line.
type LineInput struct {
	MenuItemID  string   `json:"menuItemId"`
	Quantity    int      `json:"quantity"`
	VariationID string   `json:"variationId,omitempty"`
	Addons      []string `json:"addons,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// CreateInput is a checkout request.
type CreateInput struct {
	Type          pricing.OrderType    `json:"type"`
	Lines         []LineInput          `json:"lines"`
	DiscountKind  pricing.DiscountKind `json:"discountKind,omitempty"`
	DiscountValue float64              `json:"discountValue,omitempty"`
	TableNumber   string               `json:"tableNumber,omitempty"`
	CustomerName  string               `json:"customerName,omitempty"`
	CustomerPhone string               `json:"customerPhone,omitempty"`
	PaymentMethod string               `json:"paymentMethod,omitempty"`
	Notes         string               `json:"notes,omitempty"`
	Hold          bool                 `json:"hold,omitempty"`
}

// Service implements order checkout and lifecycle management.
type Service struct {
	Store           Store
	Menu            MenuLookup
	Events          Publisher
	Queue           TaskEnqueuer
	Rates           pricing.Rates
	RecipeDeduction bool
	Log             zerolog.Logger
}

// Create prices the requested lines against the current catalog and persists
// the resulting ticket. Pricing and order number allocation are computed
// server side; the client only ever sends item references and quantities.
func (s *Service) Create(ctx context.Context, in CreateInput) (Order, error) {
	if s == nil || s.Store == nil || s.Menu == nil {
		return Order{}, errors.New("order service not configured")
	}
	switch in.Type {
	case pricing.OrderDineIn, pricing.OrderTakeaway, pricing.OrderDelivery:
	default:
		return Order{}, fmt.Errorf("%w: unknown order type %q", ErrInvalidInput, in.Type)
	}
	if len(in.Lines) == 0 {
		return Order{}, fmt.Errorf("%w: order has no lines", ErrInvalidInput)
	}
	if in.DiscountValue < 0 {
		return Order{}, fmt.Errorf("%w: discount value must not be negative", ErrInvalidInput)
	}
	if in.DiscountValue > 0 && in.DiscountKind != pricing.DiscountPercent && in.DiscountKind != pricing.DiscountFixed {
		return Order{}, fmt.Errorf("%w: unknown discount kind %q", ErrInvalidInput, in.DiscountKind)
	}

	priceLines := make([]pricing.Line, 0, len(in.Lines))
	items := make([]LineItem, 0, len(in.Lines))
	for _, line := range in.Lines {
		if line.Quantity <= 0 {
			return Order{}, fmt.Errorf("%w: quantity must be positive for item %s", ErrInvalidInput, line.MenuItemID)
		}
		entry, err := s.Menu.Get(ctx, line.MenuItemID)
		if err != nil {
			if errors.Is(err, menu.ErrItemNotFound) {
				return Order{}, fmt.Errorf("%w: menu item %s", ErrNotFound, line.MenuItemID)
			}
			return Order{}, fmt.Errorf("resolve menu item %s: %w", line.MenuItemID, err)
		}
		if !entry.Available {
			return Order{}, fmt.Errorf("%w: %s", ErrItemUnavailable, entry.Name)
		}

		pl := pricing.Line{BasePrice: entry.Price, Qty: line.Quantity}
		li := LineItem{
			MenuItemID: entry.ID,
			Name:       entry.Name,
			Station:    entry.Station,
			Quantity:   line.Quantity,
			Notes:      strings.TrimSpace(line.Notes),
		}
		if line.VariationID != "" {
			v, ok := entry.VariationByID(line.VariationID)
			if !ok {
				return Order{}, fmt.Errorf("%w: item %s has no variation %s", ErrInvalidInput, entry.Name, line.VariationID)
			}
			price := v.Price
			pl.VariationPrice = &price
			li.VariationID = v.ID
			li.VariationName = v.Name
		}
		for _, name := range line.Addons {
			a, ok := entry.AddonByName(name)
			if !ok {
				return Order{}, fmt.Errorf("%w: item %s has no addon %s", ErrInvalidInput, entry.Name, name)
			}
			pl.Addons = append(pl.Addons, pricing.Addon{Name: a.Name, Price: a.Price})
			li.Addons = append(li.Addons, a.Name)
		}
		li.UnitPrice = pl.UnitPrice()
		li.LineTotal = li.UnitPrice * float64(line.Quantity)
		priceLines = append(priceLines, pl)
		items = append(items, li)
	}

	summary := pricing.Compute(priceLines, pricing.Discount{Kind: in.DiscountKind, Value: in.DiscountValue}, s.Rates, in.Type)

	status := StatusPending
	if in.Hold {
		status = StatusHeld
	}
	o := Order{
		Type:          in.Type,
		Status:        status,
		TableNumber:   strings.TrimSpace(in.TableNumber),
		CustomerName:  strings.TrimSpace(in.CustomerName),
		CustomerPhone: strings.TrimSpace(in.CustomerPhone),
		Items:         items,
		DiscountKind:  in.DiscountKind,
		DiscountValue: in.DiscountValue,
		Subtotal:      summary.Subtotal,
		Discount:      summary.Discount,
		Tax:           summary.Tax,
		ServiceCharge: summary.ServiceCharge,
		Total:         summary.Total,
		PaymentMethod: strings.TrimSpace(in.PaymentMethod),
		Notes:         strings.TrimSpace(in.Notes),
	}
	if staffID, ok := common.StaffID(ctx); ok {
		o.CreatedBy = staffID
	}

	created, err := s.Store.Create(ctx, o)
	if err != nil {
		return Order{}, err
	}

	if obs.OrdersCreatedTotal != nil {
		obs.OrdersCreatedTotal.WithLabelValues(string(created.Type)).Inc()
	}
	s.emit(ctx, events.TopicOrderCreated, created, nil)
	s.Log.Info().
		Str("order_id", created.ID).
		Int64("order_number", created.OrderNumber).
		Str("type", string(created.Type)).
		Float64("total", created.Total).
		Msg("order created")
	return created, nil
}

// Get returns a single order.
func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	return s.Store.Get(ctx, id)
}

// List returns recent orders matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Order, error) {
	if f.Status != "" && !ValidStatus(f.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, f.Status)
	}
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	return s.Store.List(ctx, f)
}

// UpdateStatus moves an order through its lifecycle. Completing an order
// schedules recipe-based stock deduction when that feature is enabled.
func (s *Service) UpdateStatus(ctx context.Context, id string, to Status) (Order, error) {
	if !ValidStatus(to) {
		return Order{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, to)
	}
	current, err := s.Store.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if current.Status == to {
		return current, nil
	}
	if !CanTransition(current.Status, to) {
		return Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
	}
	updated, err := s.Store.UpdateStatus(ctx, id, to)
	if err != nil {
		return Order{}, err
	}
	if obs.OrderStatusTransitions != nil {
		obs.OrderStatusTransitions.WithLabelValues(string(to)).Inc()
	}

	switch to {
	case StatusCompleted:
		s.emit(ctx, events.TopicOrderCompleted, updated, nil)
		s.enqueueDeduction(ctx, updated)
	case StatusCancelled:
		s.emit(ctx, events.TopicOrderCancelled, updated, nil)
	case StatusRefunded:
		s.emit(ctx, events.TopicOrderRefunded, updated, nil)
	}
	return updated, nil
}

func (s *Service) enqueueDeduction(ctx context.Context, o Order) {
	if !s.RecipeDeduction || s.Queue == nil {
		return
	}
	lines := make([]inventory.SoldLine, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, inventory.SoldLine{
			MenuItemID: it.MenuItemID,
			Quantity:   it.Quantity,
			OrderID:    o.ID,
			UnitPrice:  it.UnitPrice,
		})
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		s.Log.Error().Err(err).Str("order_id", o.ID).Msg("marshal deduction payload")
		return
	}
	err = s.Queue.Enqueue(ctx, queue.Task{
		Kind:           TaskRecipeDeduction,
		Payload:        payload,
		IdempotencyKey: "deduction:" + o.ID,
	})
	if err != nil {
		s.Log.Error().Err(err).Str("order_id", o.ID).Msg("enqueue recipe deduction")
	}
}

func (s *Service) emit(ctx context.Context, topic string, o Order, extra map[string]any) {
	if s.Events == nil {
		return
	}
	payload := map[string]any{
		"orderId":     o.ID,
		"orderNumber": o.OrderNumber,
		"type":        o.Type,
		"status":      o.Status,
		"total":       o.Total,
	}
	for k, v := range extra {
		payload[k] = v
	}
	_ = s.Events.Emit(ctx, topic, o.ID, payload)
}
