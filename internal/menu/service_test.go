package menu

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	items     map[string]Item
	listCalls int
}

func (f *fakeCatalog) List(context.Context) ([]Item, error) {
	f.listCalls++
	out := make([]Item, 0, len(f.items))
	for _, it := range f.items {
		out = append(out, it)
	}
	return out, nil
}

func (f *fakeCatalog) Get(_ context.Context, id string) (Item, error) {
	it, ok := f.items[id]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	return it, nil
}

func (f *fakeCatalog) Upsert(_ context.Context, item Item) (Item, error) {
	if item.ID == "" {
		item.ID = "generated"
	}
	f.items[item.ID] = item
	return item, nil
}

func (f *fakeCatalog) SetAvailability(_ context.Context, id string, available bool) error {
	it, ok := f.items[id]
	if !ok {
		return ErrItemNotFound
	}
	it.Available = available
	f.items[id] = it
	return nil
}

func (f *fakeCatalog) ListCategories(context.Context) ([]string, error) {
	return []string{"Karahi", "BBQ"}, nil
}

func newTestService(t *testing.T) (*Service, *fakeCatalog) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := &fakeCatalog{items: map[string]Item{
		"chicken-karahi": {ID: "chicken-karahi", Name: "Chicken Karahi", Price: 1400, Category: "Karahi", Available: true},
	}}
	return &Service{Store: store, Cache: NewCache(client, time.Minute)}, store
}

func TestListUsesCache(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	first, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Equal(t, 1, store.listCalls, "second read must come from cache")
}

func TestSaveInvalidatesCache(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.List(ctx)
	require.NoError(t, err)

	halfPrice := 800.0
	_, err = svc.Save(ctx, Item{
		Name:     "Mutton Karahi",
		Price:    1600,
		Category: "Karahi",
		Variations: []Variation{
			{ID: "half", Name: "Half", Price: halfPrice},
		},
	})
	require.NoError(t, err)

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, 2, store.listCalls, "save must drop the list cache")
}

func TestSaveRejectsNegativePrices(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, Item{Name: "Bad", Price: -5})
	require.Error(t, err)

	_, err = svc.Save(ctx, Item{Name: "Bad", Price: 100, Addons: []Addon{{Name: "x", Price: -1}}})
	require.Error(t, err)
}

func TestVariationLookup(t *testing.T) {
	item := Item{Variations: []Variation{{ID: "full", Price: 1400}, {ID: "half", Price: 800}}}
	v, ok := item.VariationByID("half")
	require.True(t, ok)
	require.Equal(t, 800.0, v.Price)
	_, ok = item.VariationByID("quarter")
	require.False(t, ok)
}
