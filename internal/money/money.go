// Package money implements the order totals arithmetic. Everything here
// is pure: no clock, no storage, no randomness. All intermediate values
// stay in decimal and each published figure is rounded to two places
// half-up, so the same cart always produces the same receipt.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
	"tindapos/backend/internal/domain"
)

// Default rates. Tax and the dine-in service charge both apply to the
// discounted subtotal.
var (
	DefaultTaxRate           = decimal.RequireFromString("0.12")
	DefaultServiceChargeRate = decimal.RequireFromString("0.10")
)

var ErrInsufficientCash = errors.New("money: cash tendered is less than total")

// Line is a priced cart line: unit price already includes any variant
// surcharge.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals is the complete money breakdown for one order.
type Totals struct {
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Tax           decimal.Decimal
	ServiceCharge decimal.Decimal
	Total         decimal.Decimal
}

// Calculator carries the configured rates. The zero value is unusable;
// use NewCalculator.
type Calculator struct {
	taxRate           decimal.Decimal
	serviceChargeRate decimal.Decimal
}

func NewCalculator(taxRate, serviceChargeRate decimal.Decimal) Calculator {
	return Calculator{taxRate: taxRate, serviceChargeRate: serviceChargeRate}
}

func DefaultCalculator() Calculator {
	return NewCalculator(DefaultTaxRate, DefaultServiceChargeRate)
}

// Compute derives the totals for a set of priced lines. The discount is
// clamped to [0, subtotal]. orderType selects whether the service
// charge applies.
func (c Calculator) Compute(lines []Line, discount decimal.Decimal, orderType string) Totals {
	subtotal := decimal.Zero
	for _, ln := range lines {
		subtotal = subtotal.Add(ln.UnitPrice.Mul(decimal.NewFromInt(int64(ln.Quantity))))
	}
	subtotal = round2(subtotal)

	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	discount = round2(discount)

	taxBase := subtotal.Sub(discount)
	tax := round2(taxBase.Mul(c.taxRate))

	serviceCharge := decimal.Zero
	if orderType == domain.OrderTypeDineIn {
		serviceCharge = round2(taxBase.Mul(c.serviceChargeRate))
	}

	total := round2(taxBase.Add(tax).Add(serviceCharge))

	return Totals{
		Subtotal:      subtotal,
		Discount:      discount,
		Tax:           tax,
		ServiceCharge: serviceCharge,
		Total:         total,
	}
}

// Change returns the change due for a cash payment, or
// ErrInsufficientCash when tendered does not cover the total.
func Change(tendered, total decimal.Decimal) (decimal.Decimal, error) {
	if tendered.LessThan(total) {
		return decimal.Zero, ErrInsufficientCash
	}
	return round2(tendered.Sub(total)), nil
}

// LineSubtotal is the rounded extended price of one line.
func LineSubtotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return round2(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
