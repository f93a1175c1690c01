package menu

// Variation is a named price override that replaces the item's base price.
type Variation struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	UrduName string  `json:"urduName,omitempty"`
	Price    float64 `json:"price"`
}

// Addon is a flat-price optional extra, additive to the effective unit price.
type Addon struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Ingredient links a menu item to an inventory item for recipe-based deduction.
type Ingredient struct {
	InventoryItemID string  `json:"inventoryItemId"`
	Quantity        float64 `json:"quantity"`
}

// Item is a sellable catalog entry.
type Item struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	UrduName     string       `json:"urduName,omitempty"`
	Description  string       `json:"description,omitempty"`
	Price        float64      `json:"price"`
	Category     string       `json:"category"`
	Station      string       `json:"station,omitempty"`
	SKU          string       `json:"sku,omitempty"`
	Available    bool         `json:"available"`
	IsSpicy      bool         `json:"isSpicy,omitempty"`
	IsBestseller bool         `json:"isBestseller,omitempty"`
	IsVegetarian bool         `json:"isVegetarian,omitempty"`
	PrepTimeMin  int          `json:"prepTimeMin,omitempty"`
	Variations   []Variation  `json:"variations,omitempty"`
	Addons       []Addon      `json:"addons,omitempty"`
	Recipe       []Ingredient `json:"recipe,omitempty"`
}

// VariationByID returns the named variation if the item defines it.
func (i Item) VariationByID(id string) (Variation, bool) {
	for _, v := range i.Variations {
		if v.ID == id {
			return v, true
		}
	}
	return Variation{}, false
}

// AddonByName returns the named addon if the item defines it.
func (i Item) AddonByName(name string) (Addon, bool) {
	for _, a := range i.Addons {
		if a.Name == name {
			return a, true
		}
	}
	return Addon{}, false
}
