package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/shinwari-dera/backend-pos/internal/inventory"
	"github.com/shinwari-dera/backend-pos/internal/menu"
	"github.com/shinwari-dera/backend-pos/internal/pricing"
	"github.com/shinwari-dera/backend-pos/internal/queue"
)

type memStore struct {
	orders map[string]Order
	nextNo int64
	fail   bool
}

func newMemStore() *memStore {
	return &memStore{orders: map[string]Order{}}
}

func (m *memStore) Create(_ context.Context, o Order) (Order, error) {
	if m.fail {
		return Order{}, errors.New("store down")
	}
	m.nextNo++
	o.OrderNumber = m.nextNo
	o.ID = fmt.Sprintf("ord-%d", m.nextNo)
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	m.orders[o.ID] = o
	return o, nil
}

func (m *memStore) Get(_ context.Context, id string) (Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (m *memStore) List(_ context.Context, f ListFilter) ([]Order, error) {
	var out []Order
	for _, o := range m.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id string, status Status) (Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	m.orders[id] = o
	return o, nil
}

type memMenu struct {
	items map[string]menu.Item
}

func (m *memMenu) Get(_ context.Context, id string) (menu.Item, error) {
	item, ok := m.items[id]
	if !ok {
		return menu.Item{}, menu.ErrItemNotFound
	}
	return item, nil
}

type captureBus struct {
	topics []string
}

func (c *captureBus) Emit(_ context.Context, topic, _ string, _ any) error {
	c.topics = append(c.topics, topic)
	return nil
}

type captureQueue struct {
	tasks []queue.Task
}

func (c *captureQueue) Enqueue(_ context.Context, t queue.Task) error {
	c.tasks = append(c.tasks, t)
	return nil
}

func testMenu() *memMenu {
	return &memMenu{items: map[string]menu.Item{
		"karahi": {
			ID: "karahi", Name: "Chicken Karahi", Price: 1200, Available: true,
			Variations: []menu.Variation{{ID: "full", Name: "Full", Price: 2200}},
			Addons:     []menu.Addon{{Name: "Extra Naan", Price: 60}},
			Recipe:     []menu.Ingredient{{InventoryItemID: "chicken", Quantity: 0.5}},
		},
		"chai":    {ID: "chai", Name: "Doodh Patti", Price: 120, Available: true},
		"offmenu": {ID: "offmenu", Name: "Seasonal Special", Price: 500, Available: false},
	}}
}

func newTestService(store *memStore) (*Service, *captureBus, *captureQueue) {
	bus := &captureBus{}
	q := &captureQueue{}
	svc := &Service{
		Store:           store,
		Menu:            testMenu(),
		Events:          bus,
		Queue:           q,
		Rates:           pricing.Rates{TaxPercent: 16, ServiceChargePercent: 5},
		RecipeDeduction: true,
		Log:             zerolog.Nop(),
	}
	return svc, bus, q
}

func TestCreateComputesTotals(t *testing.T) {
	store := newMemStore()
	svc, bus, _ := newTestService(store)

	created, err := svc.Create(context.Background(), CreateInput{
		Type: pricing.OrderDineIn,
		Lines: []LineInput{
			{MenuItemID: "karahi", Quantity: 1, VariationID: "full", Addons: []string{"Extra Naan"}},
			{MenuItemID: "chai", Quantity: 2},
		},
		DiscountKind:  pricing.DiscountPercent,
		DiscountValue: 10,
		TableNumber:   "5",
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), created.OrderNumber)
	require.Equal(t, StatusPending, created.Status)

	// (2200+60) + 2*120 = 2500; 10% off -> 2250; tax 360; service 112.5
	require.InDelta(t, 2500, created.Subtotal, 1e-9)
	require.InDelta(t, 250, created.Discount, 1e-9)
	require.InDelta(t, 360, created.Tax, 1e-9)
	require.InDelta(t, 112.5, created.ServiceCharge, 1e-9)
	require.InDelta(t, 2722.5, created.Total, 1e-9)

	require.Len(t, created.Items, 2)
	require.Equal(t, "Full", created.Items[0].VariationName)
	require.InDelta(t, 2260, created.Items[0].UnitPrice, 1e-9)

	require.Equal(t, []string{"order.created"}, bus.topics)
}

func TestCreateTotalInvariant(t *testing.T) {
	svc, _, _ := newTestService(newMemStore())

	cases := []struct {
		name  string
		typ   pricing.OrderType
		kind  pricing.DiscountKind
		value float64
	}{
		{"dine-in percent", pricing.OrderDineIn, pricing.DiscountPercent, 25},
		{"takeaway fixed", pricing.OrderTakeaway, pricing.DiscountFixed, 100},
		{"delivery oversized", pricing.OrderDelivery, pricing.DiscountFixed, 99999},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o, err := svc.Create(context.Background(), CreateInput{
				Type:          tc.typ,
				Lines:         []LineInput{{MenuItemID: "chai", Quantity: 3}},
				DiscountKind:  tc.kind,
				DiscountValue: tc.value,
			})
			require.NoError(t, err)
			discounted := o.Subtotal - o.Discount
			if discounted < 0 {
				discounted = 0
			}
			require.InDelta(t, discounted+o.Tax+o.ServiceCharge, o.Total, 1e-9)
			if tc.typ != pricing.OrderDineIn {
				require.Zero(t, o.ServiceCharge)
			}
		})
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc, _, _ := newTestService(newMemStore())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Type: pricing.OrderDineIn})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, CreateInput{Type: "DRIVE_THRU", Lines: []LineInput{{MenuItemID: "chai", Quantity: 1}}})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, CreateInput{Type: pricing.OrderDineIn, Lines: []LineInput{{MenuItemID: "chai", Quantity: 0}}})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, CreateInput{Type: pricing.OrderDineIn, Lines: []LineInput{{MenuItemID: "nope", Quantity: 1}}})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Create(ctx, CreateInput{Type: pricing.OrderDineIn, Lines: []LineInput{{MenuItemID: "offmenu", Quantity: 1}}})
	require.ErrorIs(t, err, ErrItemUnavailable)

	_, err = svc.Create(ctx, CreateInput{Type: pricing.OrderDineIn, Lines: []LineInput{{MenuItemID: "karahi", Quantity: 1, VariationID: "half"}}})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, CreateInput{Type: pricing.OrderDineIn, Lines: []LineInput{{MenuItemID: "chai", Quantity: 1, Addons: []string{"Extra Naan"}}}})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateHeldOrder(t *testing.T) {
	svc, _, _ := newTestService(newMemStore())
	o, err := svc.Create(context.Background(), CreateInput{
		Type:  pricing.OrderDineIn,
		Lines: []LineInput{{MenuItemID: "chai", Quantity: 1}},
		Hold:  true,
	})
	require.NoError(t, err)
	require.Equal(t, StatusHeld, o.Status)

	resumed, err := svc.UpdateStatus(context.Background(), o.ID, StatusPending)
	require.NoError(t, err)
	require.Equal(t, StatusPending, resumed.Status)
}

func TestCompletionEnqueuesDeduction(t *testing.T) {
	store := newMemStore()
	svc, bus, q := newTestService(store)

	o, err := svc.Create(context.Background(), CreateInput{
		Type:  pricing.OrderTakeaway,
		Lines: []LineInput{{MenuItemID: "karahi", Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), o.ID, StatusCompleted)
	require.NoError(t, err)
	require.Contains(t, bus.topics, "order.completed")

	require.Len(t, q.tasks, 1)
	task := q.tasks[0]
	require.Equal(t, TaskRecipeDeduction, task.Kind)
	require.Equal(t, "deduction:"+o.ID, task.IdempotencyKey)

	var lines []inventory.SoldLine
	require.NoError(t, json.Unmarshal(task.Payload, &lines))
	require.Len(t, lines, 1)
	require.Equal(t, "karahi", lines[0].MenuItemID)
	require.Equal(t, 2, lines[0].Quantity)
}

func TestCompletionWithoutDeductionFlag(t *testing.T) {
	store := newMemStore()
	svc, _, q := newTestService(store)
	svc.RecipeDeduction = false

	o, err := svc.Create(context.Background(), CreateInput{
		Type:  pricing.OrderTakeaway,
		Lines: []LineInput{{MenuItemID: "chai", Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), o.ID, StatusCompleted)
	require.NoError(t, err)
	require.Empty(t, q.tasks)
}

func TestStatusTransitionRules(t *testing.T) {
	store := newMemStore()
	svc, bus, _ := newTestService(store)

	o, err := svc.Create(context.Background(), CreateInput{
		Type:  pricing.OrderDineIn,
		Lines: []LineInput{{MenuItemID: "chai", Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), o.ID, StatusRefunded)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.UpdateStatus(context.Background(), o.ID, StatusPreparing)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), o.ID, StatusReady)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), o.ID, StatusCompleted)
	require.NoError(t, err)

	refunded, err := svc.UpdateStatus(context.Background(), o.ID, StatusRefunded)
	require.NoError(t, err)
	require.Equal(t, StatusRefunded, refunded.Status)
	require.Contains(t, bus.topics, "order.refunded")

	// Refunded is terminal.
	_, err = svc.UpdateStatus(context.Background(), o.ID, StatusPending)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.UpdateStatus(context.Background(), o.ID, Status("UNKNOWN"))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCanTransitionTable(t *testing.T) {
	require.True(t, CanTransition(StatusPending, StatusHeld))
	require.True(t, CanTransition(StatusHeld, StatusCancelled))
	require.False(t, CanTransition(StatusCancelled, StatusPending))
	require.False(t, CanTransition(StatusReady, StatusPreparing))
	require.True(t, IsTerminal(StatusCancelled))
	require.False(t, IsTerminal(StatusCompleted))
}

func TestUpdateStatusNoOpWhenUnchanged(t *testing.T) {
	store := newMemStore()
	svc, bus, _ := newTestService(store)

	o, err := svc.Create(context.Background(), CreateInput{
		Type:  pricing.OrderDineIn,
		Lines: []LineInput{{MenuItemID: "chai", Quantity: 1}},
	})
	require.NoError(t, err)
	emitted := len(bus.topics)

	same, err := svc.UpdateStatus(context.Background(), o.ID, StatusPending)
	require.NoError(t, err)
	require.Equal(t, StatusPending, same.Status)
	require.Len(t, bus.topics, emitted)
}
