package menu

import (
	"context"
	"errors"
	"strings"
)

// ErrItemNotFound indicates the requested menu item does not exist.
var ErrItemNotFound = errors.New("menu item not found")

const (
	cacheKeyItems      = "menu:items"
	cacheKeyCategories = "menu:categories"
)

// Catalog defines the persistence operations the service requires.
type Catalog interface {
	List(ctx context.Context) ([]Item, error)
	Get(ctx context.Context, id string) (Item, error)
	Upsert(ctx context.Context, item Item) (Item, error)
	SetAvailability(ctx context.Context, id string, available bool) error
	ListCategories(ctx context.Context) ([]string, error)
}

// Service provides cached access to the menu catalog.
type Service struct {
	Store Catalog
	Cache *Cache
}

// List returns the full menu, served from cache when warm.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("menu service not configured")
	}
	var cached []Item
	if ok, err := s.Cache.GetJSON(ctx, cacheKeyItems, &cached); err == nil && ok {
		return cached, nil
	}
	items, err := s.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.Cache.SetJSON(ctx, cacheKeyItems, items)
	return items, nil
}

// Get looks up one item by id, bypassing the list cache.
func (s *Service) Get(ctx context.Context, id string) (Item, error) {
	if s == nil || s.Store == nil {
		return Item{}, errors.New("menu service not configured")
	}
	return s.Store.Get(ctx, strings.TrimSpace(id))
}

// Save validates and persists a menu item, then invalidates caches.
func (s *Service) Save(ctx context.Context, item Item) (Item, error) {
	if s == nil || s.Store == nil {
		return Item{}, errors.New("menu service not configured")
	}
	if strings.TrimSpace(item.Name) == "" {
		return Item{}, errors.New("menu: name is required")
	}
	if item.Price < 0 {
		return Item{}, errors.New("menu: price must be non-negative")
	}
	for _, v := range item.Variations {
		if v.Price < 0 {
			return Item{}, errors.New("menu: variation price must be non-negative")
		}
	}
	for _, a := range item.Addons {
		if a.Price < 0 {
			return Item{}, errors.New("menu: addon price must be non-negative")
		}
	}
	saved, err := s.Store.Upsert(ctx, item)
	if err != nil {
		return Item{}, err
	}
	s.Cache.Invalidate(ctx, cacheKeyItems, cacheKeyCategories)
	return saved, nil
}

// SetAvailability toggles an item on or off the menu.
func (s *Service) SetAvailability(ctx context.Context, id string, available bool) error {
	if s == nil || s.Store == nil {
		return errors.New("menu service not configured")
	}
	if err := s.Store.SetAvailability(ctx, id, available); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, cacheKeyItems)
	return nil
}

// Categories returns the distinct menu categories, cached.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("menu service not configured")
	}
	var cached []string
	if ok, err := s.Cache.GetJSON(ctx, cacheKeyCategories, &cached); err == nil && ok {
		return cached, nil
	}
	cats, err := s.Store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.Cache.SetJSON(ctx, cacheKeyCategories, cats)
	return cats, nil
}
