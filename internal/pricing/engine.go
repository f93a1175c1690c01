package pricing

// DiscountKind selects how a discount value is interpreted.
type DiscountKind string

const (
	// DiscountPercent treats the value as percentage points of the subtotal.
	DiscountPercent DiscountKind = "PERCENT"
	// DiscountFixed treats the value as an absolute amount.
	DiscountFixed DiscountKind = "FIXED"
)

// OrderType determines which surcharges apply to an order.
type OrderType string

const (
	OrderDineIn   OrderType = "DINE_IN"
	OrderTakeaway OrderType = "TAKEAWAY"
	OrderDelivery OrderType = "DELIVERY"
)

// Addon is a flat-price extra added on top of a line's unit price.
type Addon struct {
	Name  string
	Price float64
}

// Line describes a cart line used for totals calculation. VariationPrice,
// when set, replaces BasePrice rather than adding to it.
type Line struct {
	BasePrice      float64
	VariationPrice *float64
	Addons         []Addon
	Qty            int
}

// UnitPrice returns the effective price for a single unit of the line.
func (l Line) UnitPrice() float64 {
	price := l.BasePrice
	if l.VariationPrice != nil {
		price = *l.VariationPrice
	}
	for _, a := range l.Addons {
		price += a.Price
	}
	return price
}

// Discount is an order-level discount. Percent values above 100 are not
// clamped here; the discounted subtotal is floored at zero instead.
type Discount struct {
	Kind  DiscountKind
	Value float64
}

// Rates carries the order-level percentage rates. Passed explicitly per call
// so the engine never reads ambient settings state.
type Rates struct {
	TaxPercent           float64
	ServiceChargePercent float64
}

// Summary aggregates the computed monetary breakdown. Values carry full
// floating precision; rounding is a display concern.
type Summary struct {
	Subtotal      float64
	Discount      float64
	Tax           float64
	ServiceCharge float64
	Total         float64
}

// Compute calculates order totals from cart lines and order context. It is a
// total function of valid non-negative input: deterministic, no side effects,
// and an empty cart yields an all-zero summary. The service charge applies to
// dine-in orders only.
func Compute(lines []Line, discount Discount, rates Rates, orderType OrderType) Summary {
	var subtotal float64
	for _, l := range lines {
		if l.Qty <= 0 {
			continue
		}
		subtotal += l.UnitPrice() * float64(l.Qty)
	}

	var discountAmount float64
	switch discount.Kind {
	case DiscountPercent:
		discountAmount = subtotal * (discount.Value / 100)
	case DiscountFixed:
		discountAmount = discount.Value
	}

	// The discount amount itself is never clamped; only the result is
	// floored, so an oversized discount yields zero rather than negative.
	discounted := subtotal - discountAmount
	if discounted < 0 {
		discounted = 0
	}

	tax := discounted * (rates.TaxPercent / 100)
	var service float64
	if orderType == OrderDineIn {
		service = discounted * (rates.ServiceChargePercent / 100)
	}

	return Summary{
		Subtotal:      subtotal,
		Discount:      discountAmount,
		Tax:           tax,
		ServiceCharge: service,
		Total:         discounted + tax + service,
	}
}
