package pricing

import "testing"

func fptr(v float64) *float64 { return &v }

func TestComputeEndToEnd(t *testing.T) {
	lines := []Line{{BasePrice: 1000, Qty: 1}}
	got := Compute(lines, Discount{Kind: DiscountPercent, Value: 10}, Rates{TaxPercent: 16, ServiceChargePercent: 5}, OrderDineIn)
	if got.Subtotal != 1000 {
		t.Fatalf("expected subtotal 1000, got %v", got.Subtotal)
	}
	if got.Discount != 100 {
		t.Fatalf("expected discount 100, got %v", got.Discount)
	}
	if got.Tax != 144 {
		t.Fatalf("expected tax 144, got %v", got.Tax)
	}
	if got.ServiceCharge != 45 {
		t.Fatalf("expected service charge 45, got %v", got.ServiceCharge)
	}
	if got.Total != 1089 {
		t.Fatalf("expected total 1089, got %v", got.Total)
	}
}

func TestComputeDeterministic(t *testing.T) {
	lines := []Line{
		{BasePrice: 350, Addons: []Addon{{Name: "extra naan", Price: 60}}, Qty: 3},
		{BasePrice: 1200, VariationPrice: fptr(700), Qty: 2},
	}
	discount := Discount{Kind: DiscountFixed, Value: 150}
	rates := Rates{TaxPercent: 16, ServiceChargePercent: 5}
	first := Compute(lines, discount, rates, OrderDineIn)
	second := Compute(lines, discount, rates, OrderDineIn)
	if first != second {
		t.Fatalf("expected identical summaries, got %+v vs %+v", first, second)
	}
}

func TestVariationOverridesBase(t *testing.T) {
	line := Line{
		BasePrice:      500,
		VariationPrice: fptr(800),
		Addons:         []Addon{{Name: "raita", Price: 100}, {Name: "salad", Price: 50}},
		Qty:            2,
	}
	if unit := line.UnitPrice(); unit != 950 {
		t.Fatalf("expected unit price 950, got %v", unit)
	}
	got := Compute([]Line{line}, Discount{}, Rates{}, OrderTakeaway)
	if got.Subtotal != 1900 {
		t.Fatalf("expected line total 1900, got %v", got.Subtotal)
	}
}

func TestDiscountFloor(t *testing.T) {
	lines := []Line{{BasePrice: 1000, Qty: 1}}
	got := Compute(lines, Discount{Kind: DiscountFixed, Value: 1500}, Rates{TaxPercent: 16, ServiceChargePercent: 5}, OrderDineIn)
	if got.Discount != 1500 {
		t.Fatalf("discount amount must not be clamped, got %v", got.Discount)
	}
	if got.Total != 0 {
		t.Fatalf("expected zero total after floor, got %v", got.Total)
	}
	if got.Tax != 0 || got.ServiceCharge != 0 {
		t.Fatalf("tax and service must be zero on floored subtotal, got %+v", got)
	}
}

func TestOversizedPercentDiscount(t *testing.T) {
	lines := []Line{{BasePrice: 400, Qty: 2}}
	got := Compute(lines, Discount{Kind: DiscountPercent, Value: 150}, Rates{TaxPercent: 16}, OrderTakeaway)
	if got.Discount != 1200 {
		t.Fatalf("expected pass-through discount 1200, got %v", got.Discount)
	}
	if got.Total != 0 {
		t.Fatalf("expected zero total, got %v", got.Total)
	}
}

func TestServiceChargeGating(t *testing.T) {
	lines := []Line{{BasePrice: 600, Qty: 2}}
	rates := Rates{TaxPercent: 16, ServiceChargePercent: 5}

	takeaway := Compute(lines, Discount{}, rates, OrderTakeaway)
	if takeaway.ServiceCharge != 0 {
		t.Fatalf("takeaway must carry no service charge, got %v", takeaway.ServiceCharge)
	}
	delivery := Compute(lines, Discount{}, rates, OrderDelivery)
	if delivery.ServiceCharge != 0 {
		t.Fatalf("delivery must carry no service charge, got %v", delivery.ServiceCharge)
	}
	dineIn := Compute(lines, Discount{}, rates, OrderDineIn)
	if dineIn.ServiceCharge != 1200*0.05 {
		t.Fatalf("expected service charge 60, got %v", dineIn.ServiceCharge)
	}
}

func TestEmptyCart(t *testing.T) {
	got := Compute(nil, Discount{Kind: DiscountPercent, Value: 10}, Rates{TaxPercent: 16, ServiceChargePercent: 5}, OrderDineIn)
	if got != (Summary{}) {
		t.Fatalf("expected all-zero summary for empty cart, got %+v", got)
	}
}

func TestZeroQuantityLinesIgnored(t *testing.T) {
	lines := []Line{
		{BasePrice: 500, Qty: 0},
		{BasePrice: 300, Qty: 1},
	}
	got := Compute(lines, Discount{}, Rates{}, OrderTakeaway)
	if got.Subtotal != 300 {
		t.Fatalf("expected zero-qty line skipped, subtotal %v", got.Subtotal)
	}
}
