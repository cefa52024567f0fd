package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"tindapos/backend/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeDineIn(t *testing.T) {
	calc := DefaultCalculator()
	totals := calc.Compute([]Line{
		{UnitPrice: dec("250"), Quantity: 2},
	}, decimal.Zero, domain.OrderTypeDineIn)

	if !totals.Subtotal.Equal(dec("500")) {
		t.Fatalf("subtotal = %s, want 500", totals.Subtotal)
	}
	if !totals.Tax.Equal(dec("60")) {
		t.Fatalf("tax = %s, want 60", totals.Tax)
	}
	if !totals.ServiceCharge.Equal(dec("50")) {
		t.Fatalf("service charge = %s, want 50", totals.ServiceCharge)
	}
	if !totals.Total.Equal(dec("610")) {
		t.Fatalf("total = %s, want 610", totals.Total)
	}
}

func TestComputeTakeoutWithDiscount(t *testing.T) {
	calc := DefaultCalculator()
	totals := calc.Compute([]Line{
		{UnitPrice: dec("100"), Quantity: 3},
	}, dec("50"), domain.OrderTypeTakeout)

	if !totals.Subtotal.Equal(dec("300")) {
		t.Fatalf("subtotal = %s, want 300", totals.Subtotal)
	}
	if !totals.Tax.Equal(dec("30")) {
		t.Fatalf("tax = %s, want 30", totals.Tax)
	}
	if !totals.ServiceCharge.IsZero() {
		t.Fatalf("service charge = %s, want 0", totals.ServiceCharge)
	}
	if !totals.Total.Equal(dec("280")) {
		t.Fatalf("total = %s, want 280", totals.Total)
	}
}

func TestComputeDineInDiscountReducesServiceCharge(t *testing.T) {
	calc := DefaultCalculator()
	totals := calc.Compute([]Line{
		{UnitPrice: dec("250"), Quantity: 2},
	}, dec("100"), domain.OrderTypeDineIn)

	// Both tax and the service charge apply to the discounted 400.
	if !totals.Tax.Equal(dec("48")) {
		t.Fatalf("tax = %s, want 48", totals.Tax)
	}
	if !totals.ServiceCharge.Equal(dec("40")) {
		t.Fatalf("service charge = %s, want 40", totals.ServiceCharge)
	}
	if !totals.Total.Equal(dec("488")) {
		t.Fatalf("total = %s, want 488", totals.Total)
	}
}

func TestComputeRoundsHalfUp(t *testing.T) {
	calc := DefaultCalculator()
	// 3 * 33.35 = 100.05; tax 12.006 rounds to 12.01.
	totals := calc.Compute([]Line{
		{UnitPrice: dec("33.35"), Quantity: 3},
	}, decimal.Zero, domain.OrderTypeTakeout)

	if !totals.Tax.Equal(dec("12.01")) {
		t.Fatalf("tax = %s, want 12.01", totals.Tax)
	}
	if !totals.Total.Equal(dec("112.06")) {
		t.Fatalf("total = %s, want 112.06", totals.Total)
	}
}

func TestComputeClampsDiscount(t *testing.T) {
	calc := DefaultCalculator()

	over := calc.Compute([]Line{{UnitPrice: dec("40"), Quantity: 1}}, dec("100"), domain.OrderTypeTakeout)
	if !over.Discount.Equal(dec("40")) {
		t.Fatalf("discount = %s, want clamp to 40", over.Discount)
	}
	if !over.Tax.IsZero() || !over.Total.IsZero() {
		t.Fatalf("fully discounted order should total 0, got tax %s total %s", over.Tax, over.Total)
	}

	neg := calc.Compute([]Line{{UnitPrice: dec("40"), Quantity: 1}}, dec("-5"), domain.OrderTypeTakeout)
	if !neg.Discount.IsZero() {
		t.Fatalf("negative discount should clamp to 0, got %s", neg.Discount)
	}
}

func TestComputeEmptyCart(t *testing.T) {
	totals := DefaultCalculator().Compute(nil, decimal.Zero, domain.OrderTypeDineIn)
	if !totals.Subtotal.IsZero() || !totals.Total.IsZero() {
		t.Fatalf("empty cart should be all zeros, got %+v", totals)
	}
}

func TestComputeDeterministic(t *testing.T) {
	calc := DefaultCalculator()
	lines := []Line{
		{UnitPrice: dec("19.99"), Quantity: 7},
		{UnitPrice: dec("4.25"), Quantity: 3},
	}
	first := calc.Compute(lines, dec("10"), domain.OrderTypeDineIn)
	for i := 0; i < 50; i++ {
		again := calc.Compute(lines, dec("10"), domain.OrderTypeDineIn)
		if !again.Total.Equal(first.Total) || !again.Tax.Equal(first.Tax) {
			t.Fatalf("run %d diverged: %+v vs %+v", i, again, first)
		}
	}
}

func TestChange(t *testing.T) {
	change, err := Change(dec("1000"), dec("610"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !change.Equal(dec("390")) {
		t.Fatalf("change = %s, want 390", change)
	}

	if _, err := Change(dec("600"), dec("610")); err != ErrInsufficientCash {
		t.Fatalf("expected ErrInsufficientCash, got %v", err)
	}

	exact, err := Change(dec("610"), dec("610"))
	if err != nil {
		t.Fatalf("exact tender rejected: %v", err)
	}
	if !exact.IsZero() {
		t.Fatalf("change = %s, want 0", exact)
	}
}

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "₱0.00"},
		{"1234.5", "₱1,234.50"},
		{"1000000", "₱1,000,000.00"},
		{"-45.75", "-₱45.75"},
	}
	for _, tc := range cases {
		if got := domain.FormatCurrency(dec(tc.in)); got != tc.want {
			t.Errorf("FormatCurrency(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
